package config

import (
	"testing"
	"time"
)

func validProdConfig() *Config {
	return &Config{
		Env:            EnvProduction,
		JWTSecret:      "session-secret",
		JWTResetSecret: "reset-secret",
		ResetTTL:       time.Hour,
		SMTP:           SMTPConfig{From: "noreply@example.com"},
	}
}

func TestValidate_ProductionOK(t *testing.T) {
	if err := validProdConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_ProductionMissingSecrets(t *testing.T) {
	cfg := validProdConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}

	cfg = validProdConfig()
	cfg.JWTResetSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing JWT_RESET_SECRET")
	}
}

func TestValidate_SharedSecretRejected(t *testing.T) {
	cfg := validProdConfig()
	cfg.JWTResetSecret = cfg.JWTSecret
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when reset secret equals session secret")
	}
}

func TestValidate_ResetTTLBounds(t *testing.T) {
	cfg := &Config{Env: "development", ResetTTL: 5 * time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for reset TTL below 15m")
	}

	cfg.ResetTTL = 2 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for reset TTL above 1h")
	}

	cfg.ResetTTL = 15 * time.Minute
	if err := cfg.Validate(); err != nil {
		t.Fatalf("15m should be allowed: %v", err)
	}
}

func TestValidate_DevelopmentAllowsMissingSecrets(t *testing.T) {
	cfg := &Config{Env: "development", ResetTTL: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("development config should pass: %v", err)
	}
}
