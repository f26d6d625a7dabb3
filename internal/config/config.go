package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"

	devFrontendURL = "https://your-subdomain.loca.lt"
	devBackendURL  = "https://your-backend-subdomain.loca.lt"
)

type Config struct {
	App
	MercadoPago
	Fulfillment
	Infra
}

type App struct {
	Port            string        `env:"PORT" envDefault:"3001"`
	Env             string        `env:"APP_ENV" envDefault:"production"`
	FrontendURL     string        `env:"FRONTEND_URL"`
	BackendURL      string        `env:"BACKEND_URL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type MercadoPago struct {
	AccessToken string        `env:"MERCADO_PAGO_ACCESS_TOKEN"`
	APIURL      string        `env:"MERCADO_PAGO_API_URL" envDefault:"https://api.mercadopago.com"`
	Sandbox     bool          `env:"MERCADO_PAGO_SANDBOX" envDefault:"false"`
	Timeout     time.Duration `env:"PROCESSOR_TIMEOUT" envDefault:"10s"`
	// Ids shorter than this are treated as synthetic test callbacks.
	MinPaymentIDLength int `env:"MIN_PAYMENT_ID_LENGTH" envDefault:"5"`
}

type Fulfillment struct {
	Sink        string        `env:"FULFILLMENT_SINK" envDefault:"log"`
	Topic       string        `env:"FULFILLMENT_TOPIC" envDefault:"payment.approved"`
	Subject     string        `env:"FULFILLMENT_SUBJECT" envDefault:"fulfillment.requested"`
	Ledger      string        `env:"DISPATCH_LEDGER" envDefault:"memory"`
	DispatchTTL time.Duration `env:"DISPATCH_TTL" envDefault:"720h"`
}

type Infra struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`
	KafkaBrokers   string `env:"KAFKA_BROKERS"`
	NatsURL        string `env:"NATS_URL"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT" envDefault:"jaeger:4318"`
}

// Load reads an optional .env file, parses the environment and validates the result.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return errors.New("MERCADO_PAGO_ACCESS_TOKEN is required")
	}

	if c.FrontendURL == "" || c.BackendURL == "" {
		if c.Env != EnvDevelopment {
			return errors.New("FRONTEND_URL and BACKEND_URL are required outside development")
		}
		if c.FrontendURL == "" {
			c.FrontendURL = devFrontendURL
		}
		if c.BackendURL == "" {
			c.BackendURL = devBackendURL
		}
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")

	switch c.Sink {
	case "log", "kafka", "nats":
	default:
		return fmt.Errorf("unknown FULFILLMENT_SINK %q", c.Sink)
	}
	if c.Sink == "kafka" && c.KafkaBrokers == "" {
		return errors.New("KAFKA_BROKERS is required for the kafka fulfillment sink")
	}
	if c.Sink == "nats" && c.NatsURL == "" {
		return errors.New("NATS_URL is required for the nats fulfillment sink")
	}

	switch c.Ledger {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis dispatch ledger")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres dispatch ledger")
		}
	default:
		return fmt.Errorf("unknown DISPATCH_LEDGER %q", c.Ledger)
	}

	if c.MinPaymentIDLength < 0 {
		return fmt.Errorf("MIN_PAYMENT_ID_LENGTH must not be negative, got %d", c.MinPaymentIDLength)
	}
	return nil
}

func (c *Config) Brokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}
