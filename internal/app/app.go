package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piyush31508/Flavor-Express/internal/backend/httpapi"
	"github.com/piyush31508/Flavor-Express/internal/cart"
	"github.com/piyush31508/Flavor-Express/internal/catalog"
	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/handler"
	"github.com/piyush31508/Flavor-Express/internal/notify"
	"github.com/piyush31508/Flavor-Express/internal/session"
	"github.com/piyush31508/Flavor-Express/internal/storage/memory"
	"github.com/piyush31508/Flavor-Express/internal/storage/redis"
	"github.com/piyush31508/Flavor-Express/internal/storefront"
	"github.com/piyush31508/Flavor-Express/pkg/health"
	"github.com/piyush31508/Flavor-Express/pkg/httpmiddleware"
)

// notificationBuffer bounds the toast feed drained by GET /api/notifications.
const notificationBuffer = 64

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend.URL),
		zap.String("tokens", cfg.Tokens.Driver),
	)

	healthSvc := health.New()

	tokens, closeTokens, err := openTokenStore(cfg.Tokens, healthSvc)
	if err != nil {
		return err
	}
	defer closeTokens()

	backend, err := httpapi.New(httpapi.Options{
		BaseURL:        cfg.Backend.URL,
		Timeout:        cfg.Backend.Timeout,
		Tokens:         tokens,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
		Logger:         lg.Named("backend"),
	})
	if err != nil {
		return errors.Wrap(err, "create backend client")
	}

	healthSvc.AddReadinessCheck("backend", 5*time.Second, health.PingCheck(backend))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	sf, feed := newStorefront(lg, backend, tokens)
	if err := sf.Start(ctx); err != nil {
		// The catalog store already raised a toast; the UI can retry.
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}

	var security *handler.SecurityHandler
	if cfg.Security.APIKeyHash != "" {
		security, err = handler.NewSecurityHandler(cfg.Security.APIKeyHash, []byte(cfg.Security.APIKeyPepper))
		if err != nil {
			return errors.Wrap(err, "create security handler")
		}
	}
	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, sf, feed, security)

	root, err := newHTTPHandler(ctx, cfg, m.MeterProvider(), healthSvc, h)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           root,
	}

	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		if ctx.Err() != nil {
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// newStorefront wires the stores behind the storefront. Toasts go to
// the returned feed and to the log.
func newStorefront(lg *zap.Logger, backend *httpapi.Client, tokens auth.TokenStore) (*storefront.Storefront, *notify.Feed) {
	feed := notify.NewFeed(notificationBuffer)
	notifier := notify.Multi{feed, notify.NewLogger(lg.Named("notify"))}

	catalogStore := catalog.New(backend, backend, notifier, lg.Named("catalog"))
	sessions := session.New(backend, tokens, notifier, lg.Named("session"))
	orders := order.NewService(backend, lg.Named("order"))
	sf := storefront.New(catalogStore, cart.New(), sessions, orders, notifier, lg.Named("storefront"))
	return sf, feed
}

// newHTTPHandler mounts the probes and the API on one router behind the
// middleware chain.
func newHTTPHandler(
	ctx context.Context,
	cfg *Config,
	mp metric.MeterProvider,
	hc *health.Health,
	h *handler.Handler,
) (http.Handler, error) {
	router := chi.NewRouter()
	router.Get("/livez", hc.LiveEndpoint)
	router.Get("/readyz", hc.ReadyEndpoint)
	router.Mount("/api", h.Routes())

	instrument, err := httpmiddleware.Instrument("flavor-express", mp)
	if err != nil {
		return nil, errors.Wrap(err, "create http metrics")
	}

	return httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.ClientIP,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		instrument,
		httpmiddleware.LogRequests(),
	), nil
}

// openTokenStore builds the configured auth.TokenStore. The Redis store also
// registers a readiness check on hc.
func openTokenStore(cfg TokensConfig, hc *health.Health) (auth.TokenStore, func(), error) {
	switch cfg.Driver {
	case TokensRedis:
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse redis url")
		}
		client := goredis.NewClient(opts)
		store := redis.NewTokenStore(client, cfg.Prefix, cfg.TTL)
		hc.AddReadinessCheck("tokens", 2*time.Second, health.PingCheck(store))
		return store, func() { _ = client.Close() }, nil
	default:
		return memory.NewTokenStore(), func() {}, nil
	}
}
