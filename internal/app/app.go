package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/cart"
	"github.com/kumaruseru/owls/internal/catalog"
	"github.com/kumaruseru/owls/internal/config"
	"github.com/kumaruseru/owls/internal/event"
	handler "github.com/kumaruseru/owls/internal/handler/http"
	"github.com/kumaruseru/owls/internal/orders"
	"github.com/kumaruseru/owls/internal/reviews"
	"github.com/kumaruseru/owls/internal/session"
	"github.com/kumaruseru/owls/internal/siteconfig"
	"github.com/kumaruseru/owls/internal/state"
	"github.com/kumaruseru/owls/pkg/health"
	"github.com/kumaruseru/owls/pkg/httpclient"
	pkgkafka "github.com/kumaruseru/owls/pkg/kafka"
	"github.com/kumaruseru/owls/pkg/logger"
	"github.com/kumaruseru/owls/pkg/middleware"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis holds the per-session auth and cart snapshots.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka is optional; without brokers the event producer drops everything.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		log.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		log.Info("kafka disabled, storefront events will be dropped")
	}

	snapshots := state.New(rdb, cfg.AuthSnapshotTTL, cfg.CartSnapshotTTL)
	events := event.NewProducer(producer, log)

	// Backend API client: pooled transport, retries for idempotent calls, and
	// an optional circuit breaker in front of it.
	hcCfg := httpclient.DefaultConfig()
	hcCfg.Timeout = cfg.BackendTimeout
	hcCfg.MaxRetries = cfg.BackendMaxRetries

	var doer backend.Doer = httpclient.New(hcCfg)
	if cfg.CircuitBreakerEnabled {
		doer = httpclient.NewBreakerClient(
			httpclient.New(hcCfg),
			httpclient.DefaultCircuitBreakerConfig("backend-api"),
			log,
		)
	}

	// The invalidation hook closes over the session store, which itself needs
	// the client; the variable is assigned before any request can fire.
	var sessions *session.Store
	api := backend.New(cfg.BackendBaseURL, doer, log,
		backend.WithSessionInvalidatedHook(func(ctx context.Context) {
			if sessions == nil {
				return
			}
			if sid := logger.SessionIDFromContext(ctx); sid != "" {
				sessions.Invalidate(ctx, sid, "refresh token rejected")
			}
		}),
	)

	sessions = session.NewStore(api, snapshots, events, log)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return snapshots.Ping(ctx)
	})
	if producer != nil {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	router := handler.NewRouter(
		handler.RouterConfig{
			ServiceName: serviceName,
			Cookies: handler.CookieConfig{
				Secure:     cfg.CookieSecure,
				Domain:     cfg.CookieDomain,
				SessionTTL: cfg.SessionTTL,
				AccessTTL:  cfg.AccessTTL,
				RefreshTTL: cfg.RefreshTTL,
			},
			CORS: middleware.CORSConfig{
				AllowedOrigins:   cfg.CORSAllowedOrigins,
				AllowCredentials: true,
				Environment:      cfg.Environment,
			},
			RateLimitRPS:       cfg.RateLimitRPS,
			RateLimitBurst:     cfg.RateLimitBurst,
			CatalogCacheMaxAge: cfg.CatalogCacheMaxAge,
		},
		handler.Handlers{
			Auth:    handler.NewAuthHandler(sessions, log),
			Cart:    handler.NewCartHandler(cart.NewStore(api, snapshots, events, log), log),
			Catalog: handler.NewCatalogHandler(catalog.NewStore(api, log), log),
			Orders:  handler.NewOrdersHandler(orders.NewStore(api, snapshots, events, log), log),
			Reviews: handler.NewReviewsHandler(reviews.NewStore(api, log), log),
			Config:  handler.NewSiteConfigHandler(siteconfig.NewStore(api, log), log),
		},
		healthHandler,
		log,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
