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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/velora-shop/storefront-backend/config"
	"github.com/velora-shop/storefront-backend/internal/app/controller"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	"github.com/velora-shop/storefront-backend/internal/db"
	"github.com/velora-shop/storefront-backend/internal/metrics"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/router"
	"github.com/velora-shop/storefront-backend/internal/scheduler"
	"github.com/velora-shop/storefront-backend/internal/storage"
	"github.com/velora-shop/storefront-backend/internal/websocket"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting Velora storefront API", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Login rate limiting runs without Redis, just unenforced
	var loginLimiter middleware.WindowLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, login rate limiting disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			loginLimiter = redisClient
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Image storage
	var images storage.ImageStorage
	if cfg.S3.Bucket != "" {
		images = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
			cfg.S3.Folder,
		)
	} else {
		logger.Warn("AWS_S3_BUCKET not set, product image uploads disabled")
	}

	// Live order feed
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	analyticsRepo := repository.NewAnalyticsRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	if _, err := authService.EnsureAdmin(cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logger.Fatal("Failed to bootstrap admin account", err)
	}
	productService := service.NewProductService(productRepo, images)
	checkoutService := service.NewCheckoutService(productRepo, orderRepo, hub, appMetrics)
	orderService := service.NewOrderService(orderRepo, hub)
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	// Scheduled stock sweep
	stockScheduler := scheduler.NewStockScheduler(cfg.Scheduler.StockSweepSpec, productService, appMetrics)
	if err := stockScheduler.Start(); err != nil {
		logger.Fatal("Failed to start stock scheduler", err)
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService, controller.CookieSettings{
		Secure:        cfg.JWT.CookieSecure,
		AccessExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
	})
	productController := controller.NewProductController(productService)
	checkoutController := controller.NewCheckoutController(checkoutService)
	orderController := controller.NewOrderController(orderService)
	analyticsController := controller.NewAnalyticsController(analyticsService)
	orderFeedController := controller.NewOrderFeedController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.AccessSecret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		checkoutController,
		orderController,
		analyticsController,
		orderFeedController,
		authMiddleware,
		loginLimiter,
		router.Observability{Metrics: appMetrics, Gatherer: registry},
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
	stockScheduler.Stop(shutdownCtx)

	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		logger.Warn("Order feed did not stop in time")
	}

	logger.Info("Server stopped successfully")
}
