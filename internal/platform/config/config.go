// Package config reads application settings from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the value of key, or def when it is unset or empty.
func GetEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// GetInt returns key parsed as an int, or def when unset or malformed.
func GetInt(key string, def int) int {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// GetDuration returns key parsed with time.ParseDuration, or def when unset or malformed.
func GetDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// GetBool returns key parsed with strconv.ParseBool, or def when unset or malformed.
func GetBool(key string, def bool) bool {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetList splits a comma separated value, dropping empty items.
func GetList(key string, def []string) []string {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// App holds settings for the HTTP server process.
type App struct {
	Port            string
	PublicBaseURL   string
	AllowedOrigins  []string
	LogLevel        slog.Level
	AuthRateLimit   int
	AuthRateWindow  time.Duration
	ProductCacheTTL time.Duration
	RefreshExpiry   time.Duration
	// LoginPageURL is linked from the activation success page when set.
	LoginPageURL string
}

// Load reads the App settings.
func Load() App {
	return App{
		Port:            GetEnv("PORT", "8080"),
		PublicBaseURL:   strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins:  GetList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:        parseLevel(GetEnv("LOG_LEVEL", "info")),
		AuthRateLimit:   GetInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:  GetDuration("AUTH_RATE_WINDOW", time.Minute),
		ProductCacheTTL: GetDuration("PRODUCT_CACHE_TTL", 5*time.Minute),
		RefreshExpiry:   GetDuration("JWT_REFRESH_EXPIRY", 24*time.Hour),
		LoginPageURL:    GetEnv("LOGIN_PAGE_URL", ""),
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
