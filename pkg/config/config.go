// Package config loads gateway configuration from environment variables,
// optionally layered with a YAML capture profile.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the capture gateway configuration.
type Config struct {
	Port     string
	LogLevel string

	// StoreDriver selects the record backend: "memory", "sqlite" or
	// "postgres".
	StoreDriver string
	// DatabaseURL is the Postgres DSN (postgres driver only).
	DatabaseURL string
	// SQLitePath is the database file path (sqlite driver only).
	SQLitePath string

	// RedisAddr, when set, stores session identifiers in Redis instead of
	// process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DebounceWindow is the capture engine's coalescing delay, served to
	// embedded storefront clients via the settings endpoint.
	DebounceWindow time.Duration

	// BeaconEndpoint is the unload-flush target served to embedded
	// storefront clients via the settings endpoint.
	BeaconEndpoint string

	// TriageJWTSecret signs and verifies triage bearer tokens.
	TriageJWTSecret string

	// RateLimitRPS / RateLimitBurst bound per-IP request rates on the
	// capture endpoints.
	RateLimitRPS   int
	RateLimitBurst int
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Port:            envOr("PORT", "8080"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		StoreDriver:     envOr("STORE_DRIVER", "sqlite"),
		DatabaseURL:     envOr("DATABASE_URL", "postgres://capture@localhost:5432/capture?sslmode=disable"),
		SQLitePath:      envOr("SQLITE_PATH", "capture.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		TriageJWTSecret: os.Getenv("TRIAGE_JWT_SECRET"),
		BeaconEndpoint:  envOr("BEACON_ENDPOINT", "/v1/captures/beacon"),
		DebounceWindow:  1500 * time.Millisecond,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("DEBOUNCE_WINDOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DebounceWindow = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitRPS = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		}
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
