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

	"github.com/kapehan/cafe-pos/config"
	"github.com/kapehan/cafe-pos/internal/app/controller"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/db"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/router"
	"github.com/kapehan/cafe-pos/internal/scheduler"
	"github.com/kapehan/cafe-pos/internal/storage"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/kapehan/cafe-pos/pkg/redis"
	"github.com/shopspring/decimal"
)

func main() {
	// Amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
		Service:     "cafe-pos",
	})

	logger.Info("Starting cafe POS server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Log.Level,
	})

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatal("Invalid store time zone", err, map[string]interface{}{
			"timezone": cfg.Scheduler.Timezone,
		})
	}

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(cfg.Bootstrap); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Live dashboard hub
	hub := ws.NewHub()
	go hub.Run(ctx)
	dashboard := hub.Topic(ws.TopicDashboard)

	// Initialize repositories
	gormDB := db.GetDB()
	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	addOnRepo := repository.NewAddOnRepository(gormDB)
	ingredientRepo := repository.NewIngredientRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	salesRepo := repository.NewSalesRepository(gormDB)

	// Initialize services
	redisClient := redis.GetClient()
	blacklist := redis.NewTokenBlacklist(redisClient)
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	menuService := service.NewMenuService(
		productRepo,
		addOnRepo,
		ingredientRepo,
		redis.NewJSONCache(redisClient),
		cfg.Redis.MenuTTL,
		dashboard,
		cfg.Menu.DrinkCategories,
	)
	inventoryService := service.NewInventoryService(ingredientRepo, menuService, dashboard)
	orderService := service.NewOrderService(orderRepo, menuService, dashboard, gormDB)
	registerService := service.NewRegisterService(
		redis.NewSessionStore(redisClient, "cart", cfg.Redis.CartTTL),
		menuService,
		orderService,
	)
	analyticsService := service.NewAnalyticsService(orderRepo, salesRepo, loc)
	reportService := service.NewReportService(analyticsService)

	s3Storage := storage.NewS3Storage(ctx, storage.S3Options{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		BaseURL:         cfg.S3.BaseURL,
		PresignExpiry:   cfg.S3.PresignExpiry,
	})

	// Scheduler
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(analyticsService, inventoryService, dashboard)
		if err := jobs.Start(cfg.Scheduler.RollupSpec, cfg.Scheduler.LowStockSpec); err != nil {
			logger.Fatal("Failed to start scheduler", err)
		}
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	menuController := controller.NewMenuController(menuService)
	inventoryController := controller.NewInventoryController(inventoryService)
	registerController := controller.NewRegisterController(registerService)
	orderController := controller.NewOrderController(orderService, analyticsService)
	analyticsController := controller.NewAnalyticsController(analyticsService, reportService)
	uploadController := controller.NewUploadController(s3Storage)
	liveController := controller.NewLiveController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	// Setup router
	r := router.NewRouter(
		authController,
		menuController,
		inventoryController,
		registerController,
		orderController,
		analyticsController,
		uploadController,
		liveController,
		authMiddleware,
		map[string]router.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := gormDB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
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
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
	if jobs != nil {
		jobs.Stop()
	}
	stop()

	logger.Info("Server stopped successfully")
}
