// Package config provides environment-based configuration for the site builder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the site builder API.
type Config struct {
	// Env is "development", "production" or "testing".
	Env string

	// Storage backend: "postgres" or "memory".
	Store       string
	DatabaseDSN string

	// Authentication
	JWTSecret   string
	TokenExpiry time.Duration

	// Server configuration
	APIHost         string
	APIPort         int
	ShutdownTimeout time.Duration

	// Deploy configuration
	Deploy DeployConfig

	// Logging
	Log LogConfig
}

// DeployConfig holds deployment controller configuration.
type DeployConfig struct {
	// Provider selects the hosting adapter.
	Provider string
	// Timeout bounds the wait for a hosting provider to report completion.
	Timeout time.Duration
	// StubBaseDomain is the domain under which the stub adapter publishes sites.
	StubBaseDomain string
	// StubDelay simulates provider build time for the stub adapter.
	StubDelay time.Duration
	// RedisURL enables the cross-process in-flight guard when set.
	RedisURL string
	// HookSecret authenticates provider callbacks. Callbacks are rejected
	// when it is empty outside development.
	HookSecret string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
	File   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := LoadWithDefaults()
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

const devJWTSecret = "development-secret-key-min-32-chars"

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Store != "postgres" && c.Store != "memory" {
		return fmt.Errorf("STORE must be 'postgres' or 'memory', got %q", c.Store)
	}
	if c.Store == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE=postgres")
	}
	if c.Deploy.Timeout <= 0 {
		return fmt.Errorf("DEPLOY_TIMEOUT must be positive")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	return &Config{
		Env:             getEnv("APP_ENV", "development"),
		Store:           getEnv("STORE", "memory"),
		DatabaseDSN:     getEnv("DATABASE_URL", "postgres://localhost:5432/sitebuilder?sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", devJWTSecret),
		TokenExpiry:     getDurationEnv("TOKEN_EXPIRY", 24*time.Hour),
		APIHost:         getEnv("API_HOST", "0.0.0.0"),
		APIPort:         getIntEnv("API_PORT", 8080),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		Deploy: DeployConfig{
			Provider:       getEnv("DEPLOY_PROVIDER", "stub"),
			Timeout:        getDurationEnv("DEPLOY_TIMEOUT", 10*time.Minute),
			StubBaseDomain: getEnv("STUB_BASE_DOMAIN", "sites.localhost"),
			StubDelay:      getDurationEnv("STUB_DELAY", 2*time.Second),
			RedisURL:       getEnv("REDIS_URL", ""),
			HookSecret:     getEnv("DEPLOY_HOOK_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
