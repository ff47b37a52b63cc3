package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	BaseURL              string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret        string `env:"SESSION_SECRET,required"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
	AdminPasswordHash    string `env:"ADMIN_PASSWORD_HASH"`
	AdminSessionSecret   string `env:"ADMIN_SESSION_SECRET"`
	EncryptionKey        string `env:"ENCRYPTION_KEY"`
	DefaultTimezone      string `env:"DEFAULT_TIMEZONE" envDefault:"Europe/Paris"`
	AccessTTLDays        int    `env:"ACCESS_TTL_DAYS" envDefault:"365"`
	SessionTTLDays       int    `env:"SESSION_TTL_DAYS" envDefault:"30"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLDays) * 24 * time.Hour
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ShareURL builds the recipient share link for a plaintext bearer token.
func (c *Config) ShareURL(token string) string {
	return fmt.Sprintf("%s/r/%s", strings.TrimSuffix(c.BaseURL, "/"), token)
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if c.AdminSessionSecret != "" {
			if err := validateSecret("ADMIN_SESSION_SECRET", c.AdminSessionSecret); err != nil {
				return err
			}
		}

		if c.PaymentWebhookSecret == "" {
			log.Warn().Msg("PAYMENT_WEBHOOK_SECRET is empty in production: webhook signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: day content will not be encrypted at rest")
		}
		if !strings.HasPrefix(c.BaseURL, "https://") {
			log.Warn().Msg("BASE_URL is not https in production: share links carry bearer tokens and must use TLS")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
