package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TracingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusTeapot, "pong")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestTracingMiddleware_EchoesIncomingTraceID(t *testing.T) {
	prevTracer := Tracer
	tp := sdktrace.NewTracerProvider()
	Tracer = tp.Tracer("test")
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		Tracer = prevTracer
		_ = tp.Shutdown(context.Background())
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TracingMiddleware())
	r.POST("/webhook", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec.Header().Get("X-Trace-ID"))
}

func TestNewLogger_DebugOnlyInDevelopment(t *testing.T) {
	dev, err := newLogger("checkout-service", "development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))

	prod, err := newLogger("checkout-service", "production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zap.DebugLevel))
	assert.True(t, prod.Core().Enabled(zap.InfoLevel))
}

func TestShutdown_WithoutInit(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background()))
}
