package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/config"
	"github.com/kapehan/cafe-pos/internal/app/controller"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/metrics"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Router struct {
	authController      *controller.AuthController
	menuController      *controller.MenuController
	inventoryController *controller.InventoryController
	registerController  *controller.RegisterController
	orderController     *controller.OrderController
	analyticsController *controller.AnalyticsController
	uploadController    *controller.UploadController
	liveController      *controller.LiveController
	authMiddleware      *middleware.AuthMiddleware
	healthChecks        map[string]HealthCheck
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	menuController *controller.MenuController,
	inventoryController *controller.InventoryController,
	registerController *controller.RegisterController,
	orderController *controller.OrderController,
	analyticsController *controller.AnalyticsController,
	uploadController *controller.UploadController,
	liveController *controller.LiveController,
	authMiddleware *middleware.AuthMiddleware,
	healthChecks map[string]HealthCheck,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		menuController:      menuController,
		inventoryController: inventoryController,
		registerController:  registerController,
		orderController:     orderController,
		analyticsController: analyticsController,
		uploadController:    uploadController,
		liveController:      liveController,
		authMiddleware:      authMiddleware,
		healthChecks:        healthChecks,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.PrometheusMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/v1/ws/", "/api/v1/analytics/report.xlsx"}),
	))

	router.GET("/health", r.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.authMiddleware.RequireRole(model.RoleAdmin)
	staff := r.authMiddleware.RequireRole(model.RoleAdmin, model.RoleCashier)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)

			staffAccounts := auth.Group("/staff", r.authMiddleware.Authenticate(), admin)
			staffAccounts.GET("", r.authController.ListStaff)
			staffAccounts.POST("", r.authController.CreateStaff)
			staffAccounts.PATCH("/:id", r.authController.SetStaffActive)
		}

		api := v1.Group("", r.authMiddleware.Authenticate(), staff)

		api.GET("/menu", r.menuController.GetMenu)

		products := api.Group("/products")
		{
			products.GET("", r.menuController.ListProducts)
			products.GET("/:id", r.menuController.GetProduct)
			products.POST("", admin, r.menuController.CreateProduct)
			products.PATCH("/:id", admin, r.menuController.UpdateProduct)
			products.DELETE("/:id", admin, r.menuController.DeleteProduct)
			products.PUT("/:id/recipe", admin, r.menuController.SetRecipe)
		}

		addOns := api.Group("/add-ons")
		{
			addOns.GET("", r.menuController.ListAddOns)
			addOns.POST("", admin, r.menuController.CreateAddOn)
			addOns.PUT("/:id", admin, r.menuController.UpdateAddOn)
			addOns.DELETE("/:id", admin, r.menuController.DeleteAddOn)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", r.inventoryController.ListIngredients)
			ingredients.GET("/low-stock", r.inventoryController.LowStock)
			ingredients.GET("/:id", r.inventoryController.GetIngredient)
			ingredients.GET("/:id/movements", r.inventoryController.Movements)
			ingredients.POST("", admin, r.inventoryController.CreateIngredient)
			ingredients.PATCH("/:id", admin, r.inventoryController.UpdateIngredient)
			ingredients.DELETE("/:id", admin, r.inventoryController.DeleteIngredient)
			ingredients.POST("/:id/adjust", admin, r.inventoryController.AdjustStock)
		}

		registers := api.Group("/registers")
		{
			registers.POST("", r.registerController.Open)
			registers.GET("/:session", r.registerController.Get)
			registers.DELETE("/:session", r.registerController.Close)
			registers.POST("/:session/items", r.registerController.AddItem)
			registers.DELETE("/:session/items", r.registerController.Clear)
			registers.PATCH("/:session/items/:item", r.registerController.UpdateItem)
			registers.DELETE("/:session/items/:item", r.registerController.RemoveItem)
			registers.PUT("/:session/discount", r.registerController.SetDiscount)
			registers.POST("/:session/checkout", r.registerController.Checkout)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", r.orderController.PlaceOrder)
			orders.GET("", r.orderController.ListOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("/:id/void", admin, r.orderController.VoidOrder)
		}

		analytics := api.Group("/analytics", admin)
		{
			analytics.GET("/dashboard", r.analyticsController.Dashboard)
			analytics.GET("/history", r.analyticsController.History)
			analytics.GET("/report.xlsx", r.analyticsController.Report)
			analytics.POST("/rollup", r.analyticsController.Rollup)
		}

		api.POST("/uploads/menu-image", admin, r.uploadController.PresignMenuImage)

		api.GET("/ws/dashboard", r.liveController.Dashboard)
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(r.healthChecks))
	for name, check := range r.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Register-Session"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}
