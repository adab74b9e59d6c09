// Package app wires together all dependencies and runs the basket service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/basket"
	"github.com/ecomkit/basket/internal/catalog"
	"github.com/ecomkit/basket/internal/config"
	"github.com/ecomkit/basket/internal/event"
	handler "github.com/ecomkit/basket/internal/handler/http"
	"github.com/ecomkit/basket/internal/repository"
	"github.com/ecomkit/basket/pkg/health"
	"github.com/ecomkit/basket/pkg/httpclient"
	pkgkafka "github.com/ecomkit/basket/pkg/kafka"
)

// App holds the wired service and its long-lived resources.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Catalog and inventory clients share the pooled HTTP client but get
	// separate circuit breakers so one failing upstream does not trip the other.
	httpClient := httpclient.New(httpclient.DefaultConfig())
	catalogClient := catalog.NewClient(cfg.CatalogURL, httpclient.NewCircuitBreakerClient(
		httpClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger))
	stockClient := catalog.NewStockClient(cfg.InventoryURL, httpclient.NewCircuitBreakerClient(
		httpClient, httpclient.DefaultCircuitBreakerConfig("inventory"), logger))

	factory := basket.NewFactory(basket.Deps{
		Baskets:      repository.NewRedisBasketRepository(rdb, cfg.BasketTTLDuration()),
		Orders:       repository.NewRedisOrderRepository(rdb),
		Products:     catalogClient,
		Attributes:   attribute.NewResolver(catalogClient),
		PricingRules: catalogClient,
		Categories:   catalogClient,
		Stock:        stockClient,
		Providers:    catalogClient,
		Events:       event.NewProducer(producer),
		Logger:       logger,
	}, basket.Options{
		CouponsAllowed:       cfg.CouponsAllowed,
		OrderLimitCount:      cfg.OrderLimitCount,
		OrderLimitWindow:     cfg.OrderLimitWindow(),
		SelectRequireVariant: cfg.SelectRequireVariant,
		Decorators:           cfg.DecoratorList(),
	})

	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", producer.Ping)

	router := handler.NewRouter(factory, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
