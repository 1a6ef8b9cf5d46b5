package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"APP_ENV", "PORT", "APP_URL", "BACKEND", "REALTIME", "DATABASE_URL", "REDIS_URL", "SESSION_SECRET",
		"LOG_LEVEL", "LOG_FORMAT", "POLL_INTERVAL", "REFRESH_DEBOUNCE", "VOTE_RATE_LIMIT", "VOTE_RATE_BURST",
		"MAX_WEBSOCKET_CONNECTIONS", "SESSION_MAX_AGE", "ALLOWED_ORIGINS",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func setPostgresEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/feedback?sslmode=disable")
}

func TestLoad_MemoryBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, RealtimeMemory, cfg.Realtime)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 150*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 168*time.Hour, cfg.SessionMaxAge)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND", "memory")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_PostgresDefaultsToPostgresFeed(t *testing.T) {
	setPostgresEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RealtimePostgres, cfg.Realtime)
	assert.Equal(t, "postgres://localhost/feedback?sslmode=disable", cfg.DatabaseURL)
}

func TestLoad_NotConfigured(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"BACKEND": "sqlite"}, "BACKEND must be memory or postgres"},
		{"postgres without url", map[string]string{"BACKEND": "postgres", "DATABASE_URL": ""}, "DATABASE_URL is required"},
		{"redis without url", map[string]string{"REALTIME": "redis"}, "REDIS_URL is required"},
		{"postgres feed on memory backend", map[string]string{"BACKEND": "memory", "DATABASE_URL": "", "REALTIME": "postgres"}, "REALTIME=postgres requires BACKEND=postgres"},
		{"memory feed on postgres backend", map[string]string{"REALTIME": "memory"}, "REALTIME=memory requires BACKEND=memory"},
		{"unknown realtime", map[string]string{"REALTIME": "kafka"}, "REALTIME must be"},
		{"zero poll interval", map[string]string{"POLL_INTERVAL": "0s"}, "POLL_INTERVAL must be positive"},
		{"negative debounce", map[string]string{"REFRESH_DEBOUNCE": "-1s"}, "REFRESH_DEBOUNCE must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setPostgresEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RedisFeed(t *testing.T) {
	setPostgresEnv(t)
	t.Setenv("REALTIME", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RealtimeRedis, cfg.Realtime)
}

func TestLoad_Production(t *testing.T) {
	t.Run("short session secret", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("DATABASE_URL", "postgres://db/feedback?sslmode=require")
		t.Setenv("SESSION_SECRET", "too-short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET must be at least 32 characters")
	})

	t.Run("sslmode disable rejected", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode=disable")
	})

	t.Run("valid", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("DATABASE_URL", "postgres://db/feedback?sslmode=require")
		t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}
