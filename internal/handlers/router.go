package handlers

import (
	"net/http"
	"time"

	"order_service/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	ServiceName     string
	AdminAPIKeyHash string
	TracingEnabled  bool
}

func NewRouter(cfg RouterConfig, orders *OrderHandler, payments *PaymentHandler, admin *AdminHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(metrics.PrometheusMiddleware())

	// the tracker page polls from the storefront origin
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", adminKeyHeader},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/orders", orders.Checkout)
		api.GET("/orders/:order_number/tracking", orders.Tracking)
		api.POST("/coupons/quote", orders.QuoteCoupon)
		api.POST("/payments/callback", payments.Callback)
	}

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(AdminAuth(cfg.AdminAPIKeyHash))
	{
		adminRoutes.GET("/orders", admin.ListOrders)
		adminRoutes.POST("/orders/:order_number/status", admin.UpdateStatus)
		adminRoutes.POST("/orders/:order_number/dispatch", admin.Dispatch)
		adminRoutes.POST("/orders/:order_number/payment-failure", admin.PaymentFailure)

		adminRoutes.GET("/settings/dispatch", admin.GetDispatchSettings)
		adminRoutes.PUT("/settings/dispatch", admin.UpdateDispatchSettings)

		adminRoutes.GET("/coupons", admin.ListCoupons)
		adminRoutes.POST("/coupons", admin.CreateCoupon)
		adminRoutes.PUT("/coupons/:code", admin.UpdateCoupon)
		adminRoutes.DELETE("/coupons/:code", admin.DeactivateCoupon)
	}

	return router
}
