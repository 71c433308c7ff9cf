// Package httpapi is the client for the storefront's remote HTTP backend. It
// implements the product catalog, product admin, authentication and payment
// interfaces the storefront core depends on.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

var (
	_ product.Catalog = (*Client)(nil)
	_ product.Admin   = (*Client)(nil)
	_ auth.Backend    = (*Client)(nil)
	_ order.Payments  = (*Client)(nil)
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps well known statuses onto domain errors.
func (e *StatusError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return target == auth.ErrUnauthorized
	case http.StatusNotFound:
		return target == product.ErrNotFound
	}
	return false
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Tokens supplies the session token attached to admin and payment calls.
	Tokens         auth.TokenStore
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HTTPClient == nil {
		var topts []otelhttp.Option
		if o.TracerProvider != nil {
			topts = append(topts, otelhttp.WithTracerProvider(o.TracerProvider))
		}
		if o.MeterProvider != nil {
			topts = append(topts, otelhttp.WithMeterProvider(o.MeterProvider))
		}
		o.HTTPClient = &http.Client{
			Timeout:   o.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, topts...),
		}
	}
}

// Client talks JSON to the storefront backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens auth.TokenStore
	lg     *zap.Logger
}

// New creates a Client for the backend rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	opts.setDefaults()

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	return &Client{
		base:   base,
		http:   opts.HTTPClient,
		tokens: opts.Tokens,
		lg:     opts.Logger,
	}, nil
}

// Ping checks that the backend answers HTTP at all; any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), http.NoBody)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping backend")
	}
	_ = resp.Body.Close()
	return nil
}

type request struct {
	method string
	// path is relative to the base URL and already escaped.
	path   string
	query  url.Values
	body   *jx.Encoder
	token  string
}

// sessionToken returns the stored session token, or "" when there is none.
func (c *Client) sessionToken(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Get(ctx, auth.KeySession)
	if err != nil {
		return ""
	}
	return token
}

// do sends r and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	u, err := url.Parse(c.base.String() + r.path)
	if err != nil {
		return nil, errors.Wrap(err, "build url")
	}
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		body = bytes.NewReader(r.body.Bytes())
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", r.method, r.path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s %s", r.method, r.path)
	}

	c.lg.Debug("Backend call",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}
	return data, nil
}
