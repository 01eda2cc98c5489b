package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/velora-shop/storefront-backend/config"
	"github.com/velora-shop/storefront-backend/internal/app/controller"
	"github.com/velora-shop/storefront-backend/internal/metrics"
	"github.com/velora-shop/storefront-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	productController   *controller.ProductController
	checkoutController  *controller.CheckoutController
	orderController     *controller.OrderController
	analyticsController *controller.AnalyticsController
	orderFeedController *controller.OrderFeedController
	authMiddleware      *middleware.AuthMiddleware
	loginLimiter        middleware.WindowLimiter
	metrics             *metrics.Metrics
	gatherer            prometheus.Gatherer
	config              *config.Config
}

// Observability groups what the router exposes on /metrics. A nil
// Gatherer disables the endpoint.
type Observability struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	checkoutController *controller.CheckoutController,
	orderController *controller.OrderController,
	analyticsController *controller.AnalyticsController,
	orderFeedController *controller.OrderFeedController,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter middleware.WindowLimiter,
	obs Observability,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		productController:   productController,
		checkoutController:  checkoutController,
		orderController:     orderController,
		analyticsController: analyticsController,
		orderFeedController: orderFeedController,
		authMiddleware:      authMiddleware,
		loginLimiter:        loginLimiter,
		metrics:             obs.Metrics,
		gatherer:            obs.Gatherer,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(r.metrics))
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Velora storefront API is running",
			"timestamp": time.Now().UTC(),
		})
	})
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	authenticated := r.authMiddleware.Authenticate()
	staffOnly := r.authMiddleware.RequireStaff()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login",
				middleware.LoginRateLimit(r.loginLimiter, r.config.Redis.LoginLimit, r.config.Redis.LoginWindow, r.metrics),
				r.authController.Login,
			)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", authenticated, r.authController.Me)
			auth.POST("/logout", authenticated, r.authController.Logout)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/new-arrivals", r.productController.ListNewArrivals)
			products.GET("/:id", r.productController.GetProduct)

			products.POST("", authenticated, staffOnly, r.productController.CreateProduct)
			products.PATCH("/:id", authenticated, staffOnly, r.productController.UpdateProduct)
			products.DELETE("/:id", authenticated, staffOnly, r.productController.DeleteProduct)
		}

		v1.POST("/checkout", r.checkoutController.PlaceOrder)

		admin := v1.Group("/admin", authenticated, staffOnly)
		{
			admin.GET("/orders", r.orderController.ListOrders)
			admin.GET("/orders/export", r.orderController.ExportOrders)
			admin.GET("/orders/:id", r.orderController.GetOrder)
			admin.PUT("/orders/:id/status", r.orderController.UpdateStatus)

			admin.GET("/analytics", r.analyticsController.GetAnalytics)

			admin.GET("/ws/orders", r.orderFeedController.Stream)
		}
	}

	return router
}
