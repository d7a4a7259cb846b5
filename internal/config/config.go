package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds process configuration read from the environment (and .env).
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DatabaseDriver  string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"host=db user=postgres password=1234 dbname=testdb port=5432 sslmode=disable"`
	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	ConnectBackoff  time.Duration `env:"DB_CONNECT_BACKOFF" envDefault:"2s"`
	SeedDemo        bool          `env:"SEED_DEMO" envDefault:"false"`

	SessionKey    string `env:"SESSION_KEY"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	LogMode           string `env:"LOG_MODE" envDefault:"development"`
	CertificateIssuer string `env:"CERTIFICATE_ISSUER" envDefault:"E-Learner"`
}

// DefaultSessionKey is only meant for local development.
const DefaultSessionKey = "super-secret-default-key"

// Load reads .env (when present) and parses the environment into Config.
// The returned flag reports whether a .env file was loaded.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, dotenv, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.ConnectAttempts < 1 {
		return errors.New("DB_CONNECT_ATTEMPTS must be at least 1")
	}
	if strings.TrimSpace(c.CertificateIssuer) == "" {
		return errors.New("CERTIFICATE_ISSUER must not be empty")
	}
	return nil
}

// OAuthEnabled reports whether all Google OAuth settings are present.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// SessionSecret returns the configured session key or the development default.
func (c *Config) SessionSecret() (string, bool) {
	if c.SessionKey == "" {
		return DefaultSessionKey, false
	}
	return c.SessionKey, true
}
