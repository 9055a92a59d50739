// Package config provides configuration management for the coach-hub service.
// Values come from environment variables (a .env file is loaded first when
// present) with defaults suitable for local development.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Persistence:
//   - STORE_BACKEND: "rest" for the external persistence API or "sql" (default: rest)
//   - BACKEND_API_URL: Base URL of the persistence API (required for rest)
//   - BACKEND_API_KEY: API key sent as the apikey header
//   - BACKEND_TIMEOUT: Request timeout for the persistence API (default: 15s)
//   - DATABASE_TYPE: "sqlite" or "postgres" when STORE_BACKEND=sql (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./coach_hub.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD, POSTGRES_SSL_MODE
//
// Redis (optional feed cache):
//   - REDIS_ADDRESS: Redis server address, empty disables the cache
//   - REDIS_PASSWORD, REDIS_DB (0-15), REDIS_POOL_SIZE
//   - FEED_CACHE_TTL: Lifetime of a cached notification feed (default: 2m)
//   - UPLOAD_RATE_LIMIT: CSV uploads allowed per user and window, 0 disables (default: 30)
//   - UPLOAD_RATE_WINDOW: Window of the upload rate limit (default: 1m)
//
// Security:
//   - JWT_SECRET: HMAC secret for access tokens (required, minimum 32 characters)
//
// CSV uploads:
//   - SPOOL_DIR: Directory holding uploaded files between preview and commit
//   - SESSION_TTL: How long an uncommitted upload session is kept (default: 1h)
//   - SESSION_SWEEP_SCHEDULE: Cron spec of the session sweeper (default: @every 5m)
//   - MAX_UPLOAD_BYTES: Largest accepted CSV upload (default: 10 MiB)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration values for the service.
type Config struct {
	Port     string
	LogLevel string

	StoreBackend   string
	BackendAPIURL  string
	BackendAPIKey  string
	BackendTimeout time.Duration

	DatabaseType     string
	DatabasePath     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string
	FeedCacheTTL  time.Duration

	UploadRateLimit  int
	UploadRateWindow time.Duration

	JWTSecret string

	SpoolDir             string
	SessionTTL           time.Duration
	SessionSweepSchedule string
	MaxUploadBytes       int64
}

// Load creates a new Config from environment variables. It does not validate;
// call Validate on the result.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "rest")),
		BackendAPIURL:  strings.TrimRight(getEnv("BACKEND_API_URL", ""), "/"),
		BackendAPIKey:  getEnv("BACKEND_API_KEY", ""),
		BackendTimeout: getDurationEnv("BACKEND_TIMEOUT", 15*time.Second),

		DatabaseType:     strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath:     getEnv("DATABASE_PATH", "./coach_hub.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "coach_hub"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
		FeedCacheTTL:  getDurationEnv("FEED_CACHE_TTL", 2*time.Minute),

		UploadRateLimit:  int(getInt64Env("UPLOAD_RATE_LIMIT", 30)),
		UploadRateWindow: getDurationEnv("UPLOAD_RATE_WINDOW", time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),

		SpoolDir:             getEnv("SPOOL_DIR", filepath.Join(os.TempDir(), "coach-hub-uploads")),
		SessionTTL:           getDurationEnv("SESSION_TTL", time.Hour),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		MaxUploadBytes:       getInt64Env("MAX_UPLOAD_BYTES", 10<<20),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv falls back to defaultValue when the variable is unset or unparsable;
// Validate never sees a broken duration.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// UsesSQL reports whether the SQL store is selected.
func (c *Config) UsesSQL() bool {
	return c.StoreBackend == "sql"
}

// RedisEnabled reports whether a feed cache should be attempted.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

// UploadRateLimited reports whether uploads are throttled. The limit is
// shared through Redis, so it is off without it.
func (c *Config) UploadRateLimited() bool {
	return c.RedisEnabled() && c.UploadRateLimit > 0
}

// PostgresURL builds the pgx connection URL.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode)
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.StoreBackend {
	case "rest":
		if c.BackendAPIURL == "" {
			return fmt.Errorf("BACKEND_API_URL is required when STORE_BACKEND=rest")
		}
		if !strings.HasPrefix(c.BackendAPIURL, "http://") && !strings.HasPrefix(c.BackendAPIURL, "https://") {
			return fmt.Errorf("BACKEND_API_URL must be an http(s) URL")
		}
	case "sql":
		if err := c.validateDatabase(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be 'rest' or 'sql'")
	}

	if c.RedisEnabled() {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.UploadRateLimit < 0 {
		return fmt.Errorf("UPLOAD_RATE_LIMIT must not be negative")
	}
	if c.UploadRateLimit > 0 && c.UploadRateWindow < time.Second {
		return fmt.Errorf("UPLOAD_RATE_WINDOW must be at least one second")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, err := cron.ParseStandard(c.SessionSweepSchedule); err != nil {
		return fmt.Errorf("SESSION_SWEEP_SCHEDULE is not a valid cron spec: %w", err)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	switch c.DatabaseType {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using SQLite")
		}
	case "postgres", "postgresql":
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}
	return nil
}
