package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// JWTSecret signs session tokens; JWTResetSecret signs password-reset
	// tokens. The two must differ so one purpose cannot impersonate the
	// other.
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTResetSecret string        `env:"JWT_RESET_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL, default=24h"`
	ResetTTL       time.Duration `env:"RESET_TTL,   default=1h"`

	// FrontendURL is the base for reset links embedded in email.
	FrontendURL    string   `env:"FRONTEND_URL,    default=http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:3000"`

	Database DatabaseConfig
	SMTP     SMTPConfig
}

type DatabaseConfig struct {
	DSN string `env:"DATABASE_URL, default=postgres://localhost:5432/auth?sslmode=disable"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST, default=localhost"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate fails fast on settings that would weaken the token scheme. In
// production both secrets are mandatory and must differ; reusing the session
// secret for reset tokens would let a stolen session token pass as a reset
// link.
func (c *Config) Validate() error {
	if c.ResetTTL < 15*time.Minute || c.ResetTTL > time.Hour {
		return fmt.Errorf("RESET_TTL must be between 15m and 1h, got %s", c.ResetTTL)
	}

	if c.Env != EnvProduction {
		return nil
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.JWTResetSecret == "" {
		return errors.New("JWT_RESET_SECRET is required in production")
	}
	if c.JWTResetSecret == c.JWTSecret {
		return errors.New("JWT_RESET_SECRET must differ from JWT_SECRET")
	}
	if c.SMTP.From == "" {
		return errors.New("SMTP_FROM is required in production")
	}
	return nil
}
