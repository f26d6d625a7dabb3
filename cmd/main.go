package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/api"
	"github.com/akylbek/payment-system/checkout-service/internal/config"
	"github.com/akylbek/payment-system/checkout-service/internal/fulfillment"
	"github.com/akylbek/payment-system/checkout-service/internal/handlers"
	"github.com/akylbek/payment-system/checkout-service/internal/interfaces"
	"github.com/akylbek/payment-system/checkout-service/internal/processor"
	"github.com/akylbek/payment-system/checkout-service/internal/repository"
	"github.com/akylbek/payment-system/checkout-service/internal/service"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := telemetry.InitTelemetry(telemetry.DefaultServiceName, cfg.Env, cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting checkout service",
		zap.String("env", cfg.Env),
		zap.String("ledger", cfg.Ledger),
		zap.String("sink", cfg.Sink),
	)

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				telemetry.Logger.Warn("Error closing resource", zap.Error(err))
			}
		}
	}()

	ledger, closeLedger := openLedger(cfg)
	closers = append(closers, closeLedger)

	sink, closeSink := openSink(cfg)
	closers = append(closers, closeSink)

	client := processor.NewClient(cfg.MercadoPago)
	preferences := service.NewPreferenceService(cfg, client)
	reconciler := service.NewReconciler(client, ledger, sink, cfg.MinPaymentIDLength)

	router := api.NewRouter(
		handlers.NewCheckoutHandler(preferences, reconciler),
		handlers.NewDispatchHandler(ledger),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		telemetry.Logger.Info("Checkout service listening",
			zap.String("port", cfg.Port),
			zap.String("notification_url", cfg.BackendURL+"/webhook"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Notifications already acknowledged must still be reconciled.
	if err := reconciler.Drain(ctx); err != nil {
		telemetry.Logger.Error("Pending reconciliations abandoned", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}

func openLedger(cfg *config.Config) (interfaces.DispatchLedger, func() error) {
	switch cfg.Ledger {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		repo := repository.NewDispatchRepository(db)
		if err := repo.InitDB(); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		return repo, db.Close

	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			// Plain host:port, as in the compose files.
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			telemetry.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		return repository.NewRedisLedger(redisClient, cfg.DispatchTTL), redisClient.Close

	default:
		telemetry.Logger.Warn("Using in-memory dispatch ledger, duplicate protection does not survive restarts")
		return repository.NewMemoryLedger(), func() error { return nil }
	}
}

func openSink(cfg *config.Config) (interfaces.FulfillmentSink, func() error) {
	switch cfg.Sink {
	case "kafka":
		kafkaWriter := &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers()...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		}
		return fulfillment.NewKafkaSink(kafkaWriter), kafkaWriter.Close

	case "nats":
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		return fulfillment.NewNatsSink(nc, cfg.Subject), func() error {
			if err := nc.Drain(); err != nil {
				nc.Close()
				return err
			}
			return nil
		}

	default:
		return fulfillment.NewLogSink(), func() error { return nil }
	}
}
