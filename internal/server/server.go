package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/metrics"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/hellofresh/health-go/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into the HTTP server.
// redisClient may be nil, in which case carts are kept in memory and the
// checkout endpoint is not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.SessionMiddleware(cfg.Server.IsProduction(), logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, !cfg.Server.IsProduction()))

	healthHandler, err := newHealth(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	router.Handle("/health", healthHandler.Handler())
	router.Handle("/metrics", metrics.Handler())

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())

	// Initialize services
	var committer checkout.StockCommitter = productRepo
	if cfg.Stock.CommitURL != "" {
		committer = checkout.NewHTTPCommitter(cfg.Stock.CommitURL, cfg.Admin.APIKey, cfg.Stock.Timeout)
		logger.Info("Committing stock remotely", zap.String("url", cfg.Stock.CommitURL))
	}
	reconciler := checkout.NewReconciler(
		committer,
		checkout.Sinks{orderRepo, checkout.NewLoggingSink(logger)},
		checkout.Config{
			Concurrency:  cfg.Checkout.Concurrency,
			PaymentDelay: cfg.Checkout.PaymentDelay,
			TaxRate:      cfg.Checkout.TaxRate,
		},
		logger,
	)

	sessions := cart.NewSessions(cartPersistence(cfg.Cart, redisClient, logger), logger,
		cart.WithIdleTimeout(cfg.Cart.IdleTimeout),
		cart.WithMaxSessions(cfg.Cart.MaxSessions),
	)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, logger)
	feedService := service.NewFeedService(productRepo, cfg.Catalog.PageSize, cfg.Catalog.MaxFeeds, logger)
	cartService := service.NewCartService(sessions, catalogService, reconciler, orderRepo, logger)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, cfg.Catalog, logger)
	feedHandler := transport.NewFeedHandler(feedService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	stockHandler := transport.NewStockHandler(productRepo, logger)

	adminMiddleware := custommiddleware.RequireAdminKey(cfg.Admin.APIKey, logger)
	checkoutLimiter := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		checkoutLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:checkout",
		}, logger)
	}

	// Register routes
	catalogHandler.RegisterRoutes(router, adminMiddleware)
	cartHandler.RegisterRoutes(router, checkoutLimiter)
	stockHandler.RegisterRoutes(router, adminMiddleware)
	feedHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "storefront"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func cartPersistence(cfg config.CartConfig, redisClient *redis.Client, logger *zap.Logger) cart.Persistence {
	if cfg.Store == "memory" || redisClient == nil {
		logger.Info("Carts are kept in memory only")
		return cart.NewMemoryPersistence()
	}
	return cart.NewRedisPersistence(redisClient, cfg.KeyPrefix, cfg.TTL)
}

func newHealth(cfg *config.Config, db database.Service, redisClient *redis.Client) (*health.Health, error) {
	checks := []health.Config{
		{
			Name:    "database",
			Timeout: 3 * time.Second,
			Check: func(ctx context.Context) error {
				stats := db.Health(ctx)
				if stats["status"] != "up" {
					return errors.New(stats["error"])
				}
				return nil
			},
		},
	}
	if redisClient != nil {
		checks = append(checks, health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Tracing.ServiceName,
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}
	return h, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
