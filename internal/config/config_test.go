package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("AccessTTL converts days to duration", func(t *testing.T) {
		cfg := &Config{AccessTTLDays: 365}
		assert.Equal(t, 365*24*time.Hour, cfg.AccessTTL())
	})

	t.Run("SessionTTL converts days to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLDays: 30}
		assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL())
	})

	t.Run("ShareURL joins base URL and token", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://calendar.test"}
		assert.Equal(t, "https://calendar.test/r/abc", cfg.ShareURL("abc"))
	})

	t.Run("ShareURL trims a trailing slash", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://calendar.test/"}
		assert.Equal(t, "https://calendar.test/r/abc", cfg.ShareURL("abc"))
	})
}

func TestValidate(t *testing.T) {
	strongSecret := "a-strong-session-secret-of-enough-length"

	t.Run("accepts a reasonable production config", func(t *testing.T) {
		cfg := &Config{
			SessionSecret: strongSecret,
			BaseURL:       "https://calendar.test",
			RedisURL:      "rediss://localhost:6379",
		}
		assert.NoError(t, cfg.Validate(true))
	})

	t.Run("rejects a short session secret in production", func(t *testing.T) {
		cfg := &Config{SessionSecret: "short"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects a known weak secret in production", func(t *testing.T) {
		cfg := &Config{SessionSecret: "change-me"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("allows weak secrets outside production", func(t *testing.T) {
		cfg := &Config{SessionSecret: "dev"}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects a non-bcrypt admin password hash", func(t *testing.T) {
		cfg := &Config{SessionSecret: strongSecret, AdminPasswordHash: "plaintext-password"}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts a bcrypt admin password hash", func(t *testing.T) {
		cfg := &Config{
			SessionSecret:     strongSecret,
			AdminPasswordHash: "$2a$12$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
		}
		assert.NoError(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":             os.Getenv("PORT"),
		"DATABASE_URL":     os.Getenv("DATABASE_URL"),
		"REDIS_URL":        os.Getenv("REDIS_URL"),
		"SESSION_SECRET":   os.Getenv("SESSION_SECRET"),
		"DEFAULT_TIMEZONE": os.Getenv("DEFAULT_TIMEZONE"),
		"ACCESS_TTL_DAYS":  os.Getenv("ACCESS_TTL_DAYS"),
		"LOG_LEVEL":        os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("SESSION_SECRET", "test-secret")
		os.Unsetenv("PORT")
		os.Unsetenv("DEFAULT_TIMEZONE")
		os.Unsetenv("ACCESS_TTL_DAYS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "Europe/Paris", cfg.DefaultTimezone)
		assert.Equal(t, 365, cfg.AccessTTLDays)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("fails without required values", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("SESSION_SECRET", "test-secret")

		_, err := Load()
		assert.Error(t, err)
	})
}
