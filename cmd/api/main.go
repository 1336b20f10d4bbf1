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

	"smart-pantry-api/internal/cache"
	"smart-pantry-api/internal/config"
	"smart-pantry-api/internal/handler"
	"smart-pantry-api/internal/importer"
	"smart-pantry-api/internal/logging"
	"smart-pantry-api/internal/metrics"
	"smart-pantry-api/internal/middleware"
	"smart-pantry-api/internal/repository"
	"smart-pantry-api/internal/router"
	"smart-pantry-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	logger, err := logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting smart pantry api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Store.Type),
		zap.String("cache", cfg.Cache.Type))

	// Initialize pantry store based on config
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.Open(initCtx, cfg.Store)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	categoryCache, cacheType := openCache(cfg.Cache, logger)
	defer categoryCache.Close()

	m := metrics.New()

	// Initialize services
	im := importer.New(store,
		importer.WithLogger(logger.Named("importer")),
		importer.WithRecorder(m),
	)
	pantryService := service.NewPantryService(store, im, cfg.Import)
	categoryService := service.NewCategoryService(store,
		service.NewCategoryCache(store, categoryCache, cfg.Cache.TTL))

	purge := service.NewPurgeScheduler(store, service.PurgeConfig{
		Retention: cfg.Import.PurgeRetention,
		Interval:  cfg.Import.PurgeInterval,
	}, logger)
	purge.Start()
	defer purge.Stop()

	var bulkLimiter *middleware.RateLimiter
	if cfg.Server.BulkRateLimit > 0 {
		bulkLimiter = middleware.NewRateLimiter(cfg.Server.BulkRateLimit, cfg.Server.BulkRateBurst, 10*time.Minute)
		defer bulkLimiter.Close()
	}

	// Create router
	r := router.New(router.Config{
		Handler:         handler.New(cfg.App.Version, store, categoryCache),
		ItemHandler:     handler.NewItemHandler(pantryService),
		CategoryHandler: handler.NewCategoryHandler(categoryService),
		AdminHandler:    handler.NewAdminHandler(store, cfg.Store.Type, cacheType, cfg.Import),
		Metrics:         m,
		BulkLimiter:     bulkLimiter,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openCache connects to Redis when configured and falls back to an
// in-process cache when Redis is unreachable.
func openCache(cfg config.CacheConfig, logger *zap.Logger) (cache.Cache, string) {
	if cfg.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		})
		if err == nil {
			return rc, "redis"
		}
		logger.Warn("redis unavailable, using in-memory category cache", zap.Error(err))
	}
	return cache.NewMemoryCache(cache.DefaultCleanupInterval), "memory"
}
