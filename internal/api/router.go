package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/checkout-service/internal/handlers"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

func NewRouter(checkout *handlers.CheckoutHandler, dispatch *handlers.DispatchHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": telemetry.ServiceName})
	})

	r.GET("/", checkout.Banner)
	r.POST("/create-preference", checkout.CreatePreference)
	r.POST("/webhook", checkout.Webhook)

	r.GET("/fulfillments/:paymentId", dispatch.GetDispatch)

	return r
}
