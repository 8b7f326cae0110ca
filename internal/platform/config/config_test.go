package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("TEST_STR", " value ")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_BAD_DUR", "soon")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_LIST", "a, b,,c ")

	assert.Equal(t, "value", GetEnv("TEST_STR", "def"))
	assert.Equal(t, "def", GetEnv("TEST_UNSET", "def"))
	assert.Equal(t, 42, GetInt("TEST_INT", 1))
	assert.Equal(t, 1, GetInt("TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, GetDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetDuration("TEST_BAD_DUR", time.Second))
	assert.True(t, GetBool("TEST_BOOL", false))
	assert.False(t, GetBool("TEST_UNSET", false))
	assert.Equal(t, []string{"a", "b", "c"}, GetList("TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, GetList("TEST_UNSET", []string{"x"}))
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "PUBLIC_BASE_URL", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW", "PRODUCT_CACHE_TTL", "JWT_REFRESH_EXPIRY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshExpiry)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://pricing.example.com/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg := Load()

	assert.Equal(t, "https://pricing.example.com", cfg.PublicBaseURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}
