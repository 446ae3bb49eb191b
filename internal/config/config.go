// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Taxonomy source and cache behavior
	SourceBaseURL string
	CacheTTLHours int
	// GroupedInvalidation selects prefix-scan invalidation of the whole
	// taxonomy namespace; when false only the tracked keys are deleted.
	GroupedInvalidation bool

	// Cache-clear schedule (UTC)
	ClearHour   int
	ClearMinute int
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first when present. Returns an error if critical values are
// missing in production mode.
func Load() (*Config, error) {
	// Missing .env is the normal case in production; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "adsouk"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "adsouk"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		SourceBaseURL:       envOrDefault("OLX_BASE_URL", "https://www.olx.com.lb/api"),
		CacheTTLHours:       envOrDefaultInt("TAXONOMY_CACHE_TTL_HOURS", 24),
		GroupedInvalidation: envOrDefaultBool("TAXONOMY_GROUPED_INVALIDATION", true),

		ClearHour:   envOrDefaultInt("CACHE_CLEAR_HOUR", 0),
		ClearMinute: envOrDefaultInt("CACHE_CLEAR_MINUTE", 0),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrDefaultInt reads an integer environment variable, returning a
// fallback if unset or unparsable.
func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envOrDefaultBool reads a boolean environment variable, returning a
// fallback if unset or unparsable.
func envOrDefaultBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
