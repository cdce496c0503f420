package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server    ServerConfig    `ignored:"true"`
	Store     StoreConfig     `ignored:"true"`
	Cart      CartConfig      `ignored:"true"`
	Auth      AuthConfig      `ignored:"true"`
	Seed      SeedConfig      `ignored:"true"`
	Upload    UploadConfig    `ignored:"true"`
	Events    EventsConfig    `ignored:"true"`
	CORS      CORSConfig      `ignored:"true"`
	RateLimit RateLimitConfig `ignored:"true"`
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// StoreConfig selects the catalog, account and order storage.
type StoreConfig struct {
	Driver       string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
}

// CartConfig selects the session cart store.
type CartConfig struct {
	Driver        string        `envconfig:"CART_DRIVER" default:"memory"`
	TTL           time.Duration `envconfig:"CART_TTL" default:"168h"`
	SweepSchedule string        `envconfig:"CART_SWEEP_SCHEDULE" default:"@every 10m"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTIssuer     string        `envconfig:"JWT_ISSUER" default:"storefront-api"`
	TokenTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`
}

// SeedConfig lists catalog documents (files or URLs, optionally gzipped)
// imported at startup.
type SeedConfig struct {
	Sources []string      `envconfig:"SEED_SOURCES"`
	Timeout time.Duration `envconfig:"SEED_TIMEOUT" default:"30s"`
}

type UploadConfig struct {
	Dir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	BaseURL  string `envconfig:"UPLOAD_BASE_URL" default:"/uploads"`
	MaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`
	MaxFiles int    `envconfig:"UPLOAD_MAX_FILES" default:"10"`
}

// EventsConfig enables the Kafka publisher when brokers are set.
type EventsConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"storefront.events"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// RateLimitConfig holds per-client token bucket settings. Login gets its own,
// stricter bucket.
type RateLimitConfig struct {
	RPS             float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst           int     `envconfig:"RATE_LIMIT_BURST" default:"40"`
	LoginRPS        float64 `envconfig:"LOGIN_RATE_LIMIT_RPS" default:"0.5"`
	LoginBurst      int     `envconfig:"LOGIN_RATE_LIMIT_BURST" default:"5"`
	CleanupSchedule string  `envconfig:"RATE_LIMIT_CLEANUP_SCHEDULE" default:"@every 5m"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	sections := []any{cfg, &cfg.Server, &cfg.Store, &cfg.Cart, &cfg.Auth, &cfg.Seed, &cfg.Upload, &cfg.Events, &cfg.CORS, &cfg.RateLimit}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %s (must be memory or postgres)", c.Store.Driver)
	}

	switch c.Cart.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CART_DRIVER: %s (must be memory or redis)", c.Cart.Driver)
	}
	if c.Cart.TTL <= 0 {
		return fmt.Errorf("CART_TTL must be positive")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if c.Upload.MaxBytes <= 0 || c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES and UPLOAD_MAX_FILES must be positive")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.LoginRPS <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Address is the listen address of the HTTP server.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}
