package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/auth"
	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/config"
	"github.com/Lixing-Zhang/storefront-api/internal/events"
	"github.com/Lixing-Zhang/storefront-api/internal/handlers"
	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/middleware"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/seed"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
	"github.com/Lixing-Zhang/storefront-api/internal/upload"
	"github.com/Lixing-Zhang/storefront-api/pkg/logger"
)

var version = "dev"

// stores groups the repositories selected by STORE_DRIVER.
type stores struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	users      repository.UserRepository
	orders     repository.OrderRepository
	close      func() error
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	log.Info("starting storefront api server",
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
		zap.String("host", cfg.Server.Host),
		zap.String("store", cfg.Store.Driver),
		zap.String("cart", cfg.Cart.Driver),
		zap.String("log_level", cfg.LogLevel),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	health := handlers.NewHealthHandler(log, version)
	scheduler := cron.New()

	// Repositories
	st, err := openStores(ctx, cfg.Store, health, log)
	if err != nil {
		return err
	}
	defer st.close()

	// Session carts
	carts, err := openCartStore(ctx, cfg.Cart, scheduler, health, log)
	if err != nil {
		return err
	}

	// Domain events
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))
	}
	defer publisher.Close()

	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	// Initialize services
	categorySvc := service.NewCategoryService(st.categories, st.products, log)
	brandSvc := service.NewBrandService(st.brands, log)
	productSvc := service.NewProductService(st.products, st.categories, st.brands, publisher, log)
	catalogSvc := service.NewCatalogService(st.products, categorySvc, st.brands, m, log)
	cartSvc := service.NewCartService(carts, st.products, m, log)
	checkoutSvc := service.NewCheckoutService(carts, st.products, st.orders, publisher, m, log)
	authSvc := service.NewAuthService(st.users, tokens, log)

	if err := seedCatalog(ctx, cfg.Seed, st, log); err != nil {
		return err
	}
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	storage, err := upload.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	// Rate limiting
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute, m, log)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst, 10*time.Minute, m, log)
	for _, rl := range []*middleware.RateLimiter{apiLimiter, loginLimiter} {
		if err := rl.ScheduleCleanup(scheduler, cfg.RateLimit.CleanupSchedule); err != nil {
			return err
		}
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// Initialize handlers
	uploads := handlers.NewUploadHandler(storage, cfg.Upload.MaxFiles, cfg.Upload.MaxBytes, log)
	router := handlers.NewRouter(handlers.RouterConfig{
		Health:         health,
		Products:       handlers.NewProductHandler(catalogSvc, productSvc, log),
		Forms:          handlers.NewProductFormHandler(productSvc, uploads, log),
		Uploads:        uploads,
		Categories:     handlers.NewCategoryHandler(categorySvc, log),
		Brands:         handlers.NewBrandHandler(brandSvc, log),
		Auth:           handlers.NewAuthHandler(authSvc, log),
		Cart:           handlers.NewCartHandler(cartSvc, log),
		Checkout:       handlers.NewCheckoutHandler(checkoutSvc, log),
		Authenticator:  middleware.NewAuthenticator(tokens, log),
		Metrics:        m,
		APILimiter:     apiLimiter,
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		UploadDir:      storage.Dir(),
		UploadPath:     cfg.Upload.BaseURL,
		Logger:         log,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openStores returns in-memory repositories or, for the postgres driver,
// migrated PostgreSQL repositories with a database health check.
func openStores(ctx context.Context, cfg config.StoreConfig, health *handlers.HealthHandler, log *zap.Logger) (*stores, error) {
	if cfg.Driver != "postgres" {
		return &stores{
			products:   repository.NewInMemoryProductRepository(),
			categories: repository.NewInMemoryCategoryRepository(),
			brands:     repository.NewInMemoryBrandRepository(),
			users:      repository.NewInMemoryUserRepository(),
			orders:     repository.NewInMemoryOrderRepository(),
			close:      func() error { return nil },
		}, nil
	}

	db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("connected to postgres", zap.Int("max_open_conns", cfg.MaxOpenConns))
	health.AddCheck("database", db.PingContext)

	return &stores{
		products:   repository.NewPGProductRepository(db),
		categories: repository.NewPGCategoryRepository(db),
		brands:     repository.NewPGBrandRepository(db),
		users:      repository.NewPGUserRepository(db),
		orders:     repository.NewPGOrderRepository(db),
		close:      db.Close,
	}, nil
}

// openCartStore returns the Redis cart store, or an in-memory store whose
// expired carts are swept on schedule.
func openCartStore(ctx context.Context, cfg config.CartConfig, scheduler *cron.Cron, health *handlers.HealthHandler, log *zap.Logger) (cart.Store, error) {
	if cfg.Driver == "redis" {
		client, err := cart.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		health.AddCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return cart.NewRedisStore(client, cfg.TTL), nil
	}

	store := cart.NewMemoryStore(cfg.TTL)
	if err := store.ScheduleSweep(scheduler, cfg.SweepSchedule, log); err != nil {
		return nil, err
	}
	return store, nil
}

// seedCatalog imports the configured catalog documents. Records that already
// exist are left untouched, so restarts are safe.
func seedCatalog(ctx context.Context, cfg config.SeedConfig, st *stores, log *zap.Logger) error {
	if len(cfg.Sources) == 0 {
		return nil
	}

	log.Info("loading seed catalog...", zap.Strings("sources", cfg.Sources))
	catalog, err := seed.NewLoader(cfg.Timeout).Load(ctx, cfg.Sources)
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}

	importer := service.NewCatalogImporter(st.categories, st.brands, st.products, log)
	if err := seed.Apply(ctx, catalog, importer); err != nil {
		return fmt.Errorf("apply seed catalog: %w", err)
	}

	stats := catalog.Stats()
	log.Info("seed catalog loaded",
		zap.Int("categories", stats.Categories),
		zap.Int("brands", stats.Brands),
		zap.Int("products", stats.Products),
	)
	return nil
}
