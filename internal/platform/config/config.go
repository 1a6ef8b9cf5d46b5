package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Change feed implementations.
const (
	RealtimeMemory   = "memory"
	RealtimePostgres = "postgres"
	RealtimeRedis    = "redis"
)

const minProductionSecretLength = 32

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	AppURL        string `env:"APP_URL" default:"http://localhost:8080"`
	Backend       string `env:"BACKEND"`
	Realtime      string `env:"REALTIME"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	PollInterval    time.Duration `env:"POLL_INTERVAL" default:"3s"`
	RefreshDebounce time.Duration `env:"REFRESH_DEBOUNCE" default:"150ms"`

	VoteRateLimit float64 `env:"VOTE_RATE_LIMIT" default:"5"`
	VoteRateBurst int     `env:"VOTE_RATE_BURST" default:"10"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`

	// AllowedOrigins are extra space-separated origins that may open the live feed.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.Realtime == "" {
		cfg.Realtime = defaultRealtime(cfg.Backend)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultRealtime(backend string) string {
	if backend == BackendPostgres {
		return RealtimePostgres
	}
	return RealtimeMemory
}

func validate(cfg *Config) error {
	switch cfg.Backend {
	case "":
		return errors.New("BACKEND is required: feedback store is not configured (use memory or postgres)")
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	default:
		return fmt.Errorf("BACKEND must be memory or postgres, got %q", cfg.Backend)
	}

	switch cfg.Realtime {
	case RealtimeMemory:
		if cfg.Backend != BackendMemory {
			return errors.New("REALTIME=memory requires BACKEND=memory")
		}
	case RealtimePostgres:
		if cfg.Backend != BackendPostgres {
			return errors.New("REALTIME=postgres requires BACKEND=postgres")
		}
	case RealtimeRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required")
		}
	default:
		return fmt.Errorf("REALTIME must be memory, postgres or redis, got %q", cfg.Realtime)
	}

	if cfg.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if cfg.RefreshDebounce < 0 {
		return errors.New("REFRESH_DEBOUNCE must not be negative")
	}
	if cfg.VoteRateLimit <= 0 || cfg.VoteRateBurst <= 0 {
		return errors.New("VOTE_RATE_LIMIT and VOTE_RATE_BURST must be positive")
	}

	if cfg.IsProduction() {
		if len(cfg.SessionSecret) < minProductionSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minProductionSecretLength)
		}
		if err := checkProductionDatabaseURL(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	return nil
}

func checkProductionDatabaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	if u.Query().Get("sslmode") == "disable" {
		return errors.New("DATABASE_URL must not use sslmode=disable in production")
	}
	return nil
}
