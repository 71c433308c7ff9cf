// Command catalog-seed creates products from a JSON file through the
// storefront backend's admin API.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piyush31508/Flavor-Express/internal/backend/httpapi"
	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/handler"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
	"github.com/piyush31508/Flavor-Express/internal/storage/memory"
)

type options struct {
	backendURL   string
	productsFile string
	token        string
	concurrency  int
	timeout      time.Duration
	dryRun       bool
	apiKey       string
	apiKeyPepper string
}

func main() {
	var opts options
	flag.StringVar(&opts.backendURL, "backend-url", "", "backend base URL (or FLAVOR_BACKEND_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "seed/products.json", "path to products JSON file, optionally .gz")
	flag.StringVar(&opts.token, "token", "", "admin session token (or FLAVOR_ADMIN_TOKEN env)")
	flag.IntVar(&opts.concurrency, "concurrency", 4, "parallel create requests")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "validate the file without calling the backend")
	flag.StringVar(&opts.apiKey, "api-key", "", "print the hash of this API key for FLAVOR_SECURITY_API_KEY_HASH")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for the API key (or FLAVOR_SECURITY_API_KEY_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	opts.fromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func (o *options) fromEnv() {
	if o.backendURL == "" {
		o.backendURL = os.Getenv("FLAVOR_BACKEND_URL")
	}
	if o.token == "" {
		o.token = os.Getenv("FLAVOR_ADMIN_TOKEN")
	}
	if o.apiKeyPepper == "" {
		o.apiKeyPepper = os.Getenv("FLAVOR_SECURITY_API_KEY_PEPPER")
	}
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	if opts.apiKey != "" {
		if opts.apiKeyPepper == "" {
			return errors.New("api key pepper is required to hash an api key")
		}
		lg.Info("API key hash", zap.String("hash", handler.HashAPIKey(opts.apiKey, []byte(opts.apiKeyPepper))))
	}

	lg.Info("Reading products file", zap.String("path", opts.productsFile))
	data, err := readProducts(opts.productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}
	drafts, err := decodeDrafts(data)
	if err != nil {
		return errors.Wrap(err, "parse products file")
	}

	valid := make([]product.Draft, 0, len(drafts))
	for i, d := range drafts {
		d = d.Normalize()
		if err := d.Validate(); err != nil {
			lg.Warn("Skipping invalid product", zap.Int("index", i), zap.String("title", d.Title), zap.Error(err))
			continue
		}
		valid = append(valid, d)
	}
	lg.Info("Products validated", zap.Int("total", len(drafts)), zap.Int("valid", len(valid)))

	if opts.dryRun {
		return nil
	}
	if opts.backendURL == "" {
		return errors.New("backend URL is required: set --backend-url or FLAVOR_BACKEND_URL")
	}
	if opts.token == "" {
		return errors.New("admin token is required: set --token or FLAVOR_ADMIN_TOKEN")
	}

	tokens := memory.NewTokenStore()
	if err := tokens.Set(ctx, auth.KeySession, opts.token); err != nil {
		return errors.Wrap(err, "store admin token")
	}
	client, err := httpapi.New(httpapi.Options{
		BaseURL: opts.backendURL,
		Timeout: opts.timeout,
		Tokens:  tokens,
		Logger:  lg.Named("backend"),
	})
	if err != nil {
		return errors.Wrap(err, "create backend client")
	}

	created, failed := seed(ctx, lg, client, valid, opts.concurrency)
	lg.Info("Seed finished", zap.Int64("created", created), zap.Int64("failed", failed))
	if failed > 0 {
		return errors.Errorf("%d products failed to create", failed)
	}
	return nil
}

// seed creates drafts with at most concurrency requests in flight. A failed
// product is logged and counted; the rest are still attempted.
func seed(ctx context.Context, lg *zap.Logger, admin product.Admin, drafts []product.Draft, concurrency int) (created, failed int64) {
	var ok, bad atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, d := range drafts {
		g.Go(func() error {
			if err := admin.Create(gCtx, d); err != nil {
				bad.Add(1)
				lg.Warn("Create product failed", zap.String("title", d.Title), zap.Error(err))
				return nil
			}
			ok.Add(1)
			lg.Info("Created product", zap.String("title", d.Title))
			return nil
		})
	}
	_ = g.Wait()

	return ok.Load(), bad.Load()
}

// readProducts returns the file contents, gunzipping files ending in .gz.
func readProducts(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return io.ReadAll(r)
}

// decodeDrafts reads either a bare array of products or {"products": [...]}.
func decodeDrafts(data []byte) ([]product.Draft, error) {
	var drafts []product.Draft
	readArr := func(d *jx.Decoder) error {
		return d.Arr(func(d *jx.Decoder) error {
			var draft product.Draft
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				return jsonx.DraftField(d, key, &draft)
			}); err != nil {
				return err
			}
			drafts = append(drafts, draft)
			return nil
		})
	}

	d := jx.DecodeBytes(data)
	switch d.Next() {
	case jx.Array:
		if err := readArr(d); err != nil {
			return nil, err
		}
	case jx.Object:
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "products" {
				return readArr(d)
			}
			return d.Skip()
		}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("expected a JSON array or object")
	}
	return drafts, nil
}
