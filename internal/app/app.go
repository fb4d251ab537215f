package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/reviewmod/internal/catalog"
	"github.com/utafrali/reviewmod/internal/config"
	"github.com/utafrali/reviewmod/internal/event"
	handler "github.com/utafrali/reviewmod/internal/handler/http"
	"github.com/utafrali/reviewmod/internal/repository"
	"github.com/utafrali/reviewmod/internal/repository/memory"
	"github.com/utafrali/reviewmod/internal/repository/postgres"
	"github.com/utafrali/reviewmod/internal/service"
	"github.com/utafrali/reviewmod/pkg/database"
	"github.com/utafrali/reviewmod/pkg/health"
	"github.com/utafrali/reviewmod/pkg/httpclient"
	pkgkafka "github.com/utafrali/reviewmod/pkg/kafka"
	"github.com/utafrali/reviewmod/pkg/tracing"
)

// ServiceName identifies this service in logs, traces and metrics.
const ServiceName = "review-service"

// Version is set at build time.
var Version = "dev"

// App wires together all dependencies and runs the review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources opened before a failing step are released before it returns.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing(ServiceName, Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	store, err := a.openStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	products, err := a.productLookup(ctx, store, healthHandler)
	if err != nil {
		return nil, err
	}

	events := a.eventPublisher(healthHandler)

	// Build the dependency graph.
	reviewService := service.NewReviewService(store, products, events, logger)
	moderationService := service.NewModerationService(store, service.NewStatisticsService(store.Actions()), events, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Reviews:        reviewService,
		Moderation:     moderationService,
		Health:         healthHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
		WriteRPS:       cfg.WriteRPS,
		WriteBurst:     cfg.WriteBurst,
		JWTSecret:      cfg.JWTSecret,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// openStore connects the configured backend and registers its health check.
func (a *App) openStore(ctx context.Context, hh *health.Handler) (repository.Store, error) {
	if a.cfg.StoreBackend == config.BackendMemory {
		fixtures, err := memory.LoadFixturesFile(a.cfg.StoreFixtures)
		if err != nil {
			return nil, fmt.Errorf("load memory store fixtures: %w", err)
		}
		store := memory.NewStore()
		store.Seed(fixtures)
		a.logger.Warn("using in-memory store, data is lost on restart",
			slog.String("fixtures", a.cfg.StoreFixtures),
			slog.Int("users", len(fixtures.Users)),
			slog.Int("products", len(fixtures.Products)),
		)
		return store, nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold(), a.logger)

	hh.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return postgres.NewStore(pool), nil
}

// productLookup returns the product source: the store's own table, or the
// catalog service behind a Redis read-through cache, mirrored into the store
// so reviews can reference catalog products.
func (a *App) productLookup(ctx context.Context, store repository.Store, hh *health.Handler) (repository.ProductRepository, error) {
	if a.cfg.ProductLookup != config.ProductLookupCatalog {
		return store.Products(), nil
	}

	client := catalog.NewClient(a.cfg.CatalogServiceURL, httpclient.DefaultConfig(), a.logger)

	rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	a.logger.Info("product lookup via catalog service",
		slog.String("catalog_url", a.cfg.CatalogServiceURL),
		slog.String("redis_addr", a.cfg.RedisAddr),
		slog.Duration("cache_ttl", a.cfg.ProductCacheTTL()),
	)

	hh.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	cached := catalog.NewCachedProducts(client, rdb, a.cfg.ProductCacheTTL(), a.logger)
	return catalog.NewMirroredProducts(cached, store.Products(), a.logger), nil
}

// eventPublisher returns the Kafka-backed publisher, or a no-op one when
// events are disabled.
func (a *App) eventPublisher(hh *health.Handler) event.Publisher {
	if !a.cfg.EventsEnabled {
		a.logger.Info("event publishing disabled")
		return event.NoopPublisher{}
	}

	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))

	hh.Register("kafka", a.producer.Ping)
	return event.NewProducer(a.producer, a.logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every opened resource. Fields left nil are skipped.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
