package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 10*time.Minute, cfg.Deploy.Timeout)
	assert.Equal(t, "stub", cfg.Deploy.Provider)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.True(t, cfg.IsDev())
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")

	t.Setenv("JWT_SECRET", "too-short")
	_, err = Load()
	assert.EqualError(t, err, "JWT_SECRET must be at least 32 characters")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://db/sites")
	t.Setenv("API_PORT", "9090")
	t.Setenv("DEPLOY_TIMEOUT", "90s")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("DEPLOY_HOOK_SECRET", "s3cret")
	t.Setenv("TOKEN_EXPIRY", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "postgres://db/sites", cfg.DatabaseDSN)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, 90*time.Second, cfg.Deploy.Timeout)
	assert.Equal(t, "redis://cache:6379/0", cfg.Deploy.RedisURL)
	assert.Equal(t, "s3cret", cfg.Deploy.HookSecret)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.False(t, cfg.IsDev())
}

func TestValidate(t *testing.T) {
	cfg := LoadWithDefaults()
	cfg.JWTSecret = devJWTSecret

	cfg.Store = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg.Store = "postgres"
	cfg.DatabaseDSN = ""
	assert.Error(t, cfg.Validate())

	cfg.Store = "memory"
	cfg.Deploy.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg.Deploy.Timeout = time.Minute
	assert.NoError(t, cfg.Validate())
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("API_PORT", "eighty")
	t.Setenv("DEPLOY_TIMEOUT", "soon")

	cfg := LoadWithDefaults()
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 10*time.Minute, cfg.Deploy.Timeout)
}
