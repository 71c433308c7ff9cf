package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument records request count, latency and in-flight requests on the
// meter named name. Attributes use the chi route pattern, never the raw path,
// to keep cardinality bounded.
func Instrument(name string, mp metric.MeterProvider) (Middleware, error) {
	meter := mp.Meter(name)

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of handled HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	inflight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Requests currently being served"),
	)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			method := attribute.String("http.request.method", r.Method)

			inflight.Add(ctx, 1, metric.WithAttributes(method))
			defer inflight.Add(ctx, -1, metric.WithAttributes(method))

			r, rctx := withRouteContext(r)
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				method,
				attribute.String("http.route", routePattern(rctx)),
				attribute.String("http.response.status_code", strconv.Itoa(rec.Status())),
			)
			requests.Add(ctx, 1, attrs)
			duration.Record(ctx, time.Since(start).Seconds(), attrs)
		})
	}, nil
}
