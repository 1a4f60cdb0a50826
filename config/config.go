package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port           string // Service port
	KratosURL      string // Kratos internal URL (Frontend API - port 4433)
	KratosAdminURL string // Kratos Admin API URL (port 4434)
	DatabaseURL    string // Postgres connection string
	RedisURL       string // Redis connection string

	// Booking automation webhook endpoints
	WebhookVerifyAddressURL string
	WebhookCreateBookingURL string
	WebhookRescheduleURL    string
	WebhookCancelURL        string
	WebhookFreeSlotsURL     string

	AuthCacheFreshTTL time.Duration // Fresh auth cache window
	AuthCacheStaleTTL time.Duration // Degraded window served only under backoff

	InternalSharedSecret string        // Shared secret for internal endpoints
	BackendTokenSecret   string        // Secret for signing backend JWT tokens
	BackendTokenIssuer   string        // JWT issuer claim
	BackendTokenAudience string        // JWT audience claim
	BackendTokenTTL      time.Duration // JWT token TTL

	ColorMemoryCapacity int // In-process palette LRU entries
	ColorRedisCapacity  int // Redis palette tier entries
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Port:           getEnv("PORT", "8888"),
		KratosURL:      getEnv("KRATOS_URL", "http://kratos:4433"),
		KratosAdminURL: getEnv("KRATOS_ADMIN_URL", "http://kratos:4434"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://redis:6379/0"),

		WebhookVerifyAddressURL: getEnv("WEBHOOK_VERIFY_ADDRESS_URL", ""),
		WebhookCreateBookingURL: getEnv("WEBHOOK_CREATE_BOOKING_URL", ""),
		WebhookRescheduleURL:    getEnv("WEBHOOK_RESCHEDULE_URL", ""),
		WebhookCancelURL:        getEnv("WEBHOOK_CANCEL_URL", ""),
		WebhookFreeSlotsURL:     getEnv("WEBHOOK_FREE_SLOTS_URL", ""),

		AuthCacheFreshTTL: 30 * time.Second,
		AuthCacheStaleTTL: 5 * time.Minute,

		InternalSharedSecret: getEnv("INTERNAL_SHARED_SECRET", ""),
		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "leadhub"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "leadhub-services"),
		BackendTokenTTL:      5 * time.Minute,

		ColorMemoryCapacity: 100,
		ColorRedisCapacity:  500,
	}

	if ttlStr := os.Getenv("AUTH_CACHE_FRESH_TTL"); ttlStr != "" {
		duration, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_CACHE_FRESH_TTL format: %w", err)
		}
		config.AuthCacheFreshTTL = duration
	}

	if ttlStr := os.Getenv("AUTH_CACHE_STALE_TTL"); ttlStr != "" {
		duration, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_CACHE_STALE_TTL format: %w", err)
		}
		config.AuthCacheStaleTTL = duration
	}

	if ttlStr := os.Getenv("BACKEND_TOKEN_TTL"); ttlStr != "" {
		duration, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BACKEND_TOKEN_TTL format: %w", err)
		}
		config.BackendTokenTTL = duration
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.KratosURL == "" {
		return fmt.Errorf("KRATOS_URL cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}

	if c.AuthCacheFreshTTL <= 0 {
		return fmt.Errorf("AUTH_CACHE_FRESH_TTL must be positive")
	}

	if c.AuthCacheStaleTTL < c.AuthCacheFreshTTL {
		return fmt.Errorf("AUTH_CACHE_STALE_TTL must not be shorter than AUTH_CACHE_FRESH_TTL")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
