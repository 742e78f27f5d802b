// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/alertctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names, matching internal/db/schema.sql
// --------------------------------------------------------------------------

const (
	AccessCodesTable = "access_codes"
	DevicesTable     = "devices"
	UserAlertsTable  = "user_alerts"
	HistoryTable     = "notification_history"
	PushTicketsTable = "push_tickets"
)

// Expo push service endpoints.
const (
	DefaultExpoPushURL     = "https://exp.host/--/api/v2/push/send"
	DefaultExpoReceiptsURL = "https://exp.host/--/api/v2/push/getReceipts"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Push gateway (Expo)
	ExpoPushURL           string
	ExpoReceiptsURL       string
	ExpoAccessToken       string
	PushBatchSize         int
	PushRequestsPerSecond int
	PushTimeout           time.Duration
	PushBreakerFailures   uint32
	PushBreakerCooldown   time.Duration

	// Receipt reconciliation
	ReceiptCheckInterval time.Duration
	ReceiptMinAge        time.Duration

	// Background consumers and observability
	ListenerEnabled bool
	MetricsEnabled  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:8081",
			"http://localhost:19006",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		ExpoPushURL:           envOr("EXPO_PUSH_URL", DefaultExpoPushURL),
		ExpoReceiptsURL:       envOr("EXPO_RECEIPTS_URL", DefaultExpoReceiptsURL),
		ExpoAccessToken:       envOr("EXPO_ACCESS_TOKEN", ""),
		PushBatchSize:         envInt("PUSH_BATCH_SIZE", 100),
		PushRequestsPerSecond: envInt("PUSH_REQUESTS_PER_SECOND", 6),
		PushTimeout:           time.Duration(envInt("PUSH_TIMEOUT_SECONDS", 15)) * time.Second,
		PushBreakerFailures:   uint32(envInt("PUSH_BREAKER_FAILURES", 5)),
		PushBreakerCooldown:   time.Duration(envInt("PUSH_BREAKER_COOLDOWN_SECONDS", 30)) * time.Second,

		ReceiptCheckInterval: time.Duration(envInt("RECEIPT_CHECK_MINUTES", 15)) * time.Minute,
		ReceiptMinAge:        time.Duration(envInt("RECEIPT_MIN_AGE_MINUTES", 15)) * time.Minute,

		ListenerEnabled: envBool("LISTENER_ENABLED", true),
		MetricsEnabled:  envBool("METRICS_ENABLED", true),
	}

	// Expo rejects requests carrying more than 100 messages.
	if cfg.PushBatchSize < 1 || cfg.PushBatchSize > 100 {
		return nil, fmt.Errorf("PUSH_BATCH_SIZE must be between 1 and 100, got %d", cfg.PushBatchSize)
	}
	if cfg.PushRequestsPerSecond < 1 {
		return nil, fmt.Errorf("PUSH_REQUESTS_PER_SECOND must be positive, got %d", cfg.PushRequestsPerSecond)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
