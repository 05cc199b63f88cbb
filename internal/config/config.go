package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config is populated from environment variables
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Pricing  PricingConfig
	Worker   WorkerConfig
	Tracing  TracingConfig
	Kafka    KafkaConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	SSLMode       string
	MaxConns      int
	MinConns      int
	MigrateOnBoot bool
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// PricingConfig tunes the pricing surfaces
type PricingConfig struct {
	// StaleTolerance is the allowed gap between displayed and current savings
	StaleTolerance  decimal.Decimal
	DisplayCacheTTL time.Duration
}

type WorkerConfig struct {
	ReconcileCron string
	Concurrency   int
	HealthPort    string
}

type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
	SampleRatio    float64
}

type KafkaConfig struct {
	Brokers []string // empty disables publishing
	Topic   string
}

// Load reads config from environment variables
func Load() (*Config, error) {
	tolerance, err := decimal.NewFromString(getEnv("PRICING_STALE_TOLERANCE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_STALE_TOLERANCE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Pricing Service"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			Database:      getEnv("DB_NAME", "pricing"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvInt("DB_MIN_CONNS", 5),
			MigrateOnBoot: getEnvBool("DB_MIGRATE_ON_BOOT", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 15),
		},
		Pricing: PricingConfig{
			StaleTolerance:  tolerance,
			DisplayCacheTTL: getEnvDuration("PRICING_DISPLAY_CACHE_TTL", 30*time.Second),
		},
		Worker: WorkerConfig{
			ReconcileCron: getEnv("WORKER_RECONCILE_CRON", "* * * * *"),
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 5),
			HealthPort:    getEnv("WORKER_HEALTH_PORT", "9999"),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("TRACING_ENABLED", false),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			SampleRatio:    getEnvFloat("TRACING_SAMPLE_RATIO", 1),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_DISCOUNT_TOPIC", "pricing.discounts.applied"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks settings that would make the service misbehave
func (c *Config) Validate() error {
	if c.Pricing.StaleTolerance.IsNegative() {
		return fmt.Errorf("PRICING_STALE_TOLERANCE must be >= 0")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be within [0, 1]")
	}
	if c.Worker.ReconcileCron == "" {
		return fmt.Errorf("WORKER_RECONCILE_CRON must not be empty")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
