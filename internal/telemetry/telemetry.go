package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultServiceName = "checkout-service"

// Tracer and Logger are usable before InitTelemetry: they fall back to the
// global no-op tracer provider and a no-op logger.
var (
	Tracer      trace.Tracer = otel.Tracer(DefaultServiceName)
	Logger      *zap.Logger  = zap.NewNop()
	ServiceName              = DefaultServiceName
)

// InitTelemetry replaces the no-op Logger and Tracer. Spans go to an OTLP/HTTP
// collector and are tagged with the deployment environment.
func InitTelemetry(serviceName, environment, otlpEndpoint string) error {
	ServiceName = serviceName

	logger, err := newLogger(serviceName, environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	Logger = logger

	tp, err := newTracerProvider(serviceName, environment, otlpEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(serviceName)

	Logger.Info("Telemetry initialized", zap.String("otlp_endpoint", otlpEndpoint))
	return nil
}

func newLogger(serviceName, environment string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if environment == "development" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     environment,
	}
	return cfg.Build()
}

func newTracerProvider(serviceName, environment, otlpEndpoint string) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(otlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("build otlp exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	), nil
}

// Shutdown flushes pending spans, then buffered log entries.
func Shutdown(ctx context.Context) error {
	var errs []error
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		errs = append(errs, tp.Shutdown(ctx))
	}
	errs = append(errs, Logger.Sync())
	return errors.Join(errs...)
}

// quietRoutes are polled by infrastructure; their access logs go to debug.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// TracingMiddleware starts a server span per request, continuing any incoming
// trace context, and writes one access log line when the handler returns.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := Tracer.Start(ctx, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		spanCtx := span.SpanContext()
		if spanCtx.IsValid() {
			c.Header("X-Trace-ID", spanCtx.TraceID().String())
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPStatusCodeKey.Int(status),
			attribute.String("http.client_ip", c.ClientIP()),
		)

		log := Logger.Info
		if quietRoutes[route] {
			log = Logger.Debug
		}
		log("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
