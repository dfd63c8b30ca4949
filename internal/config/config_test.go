package config

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/shop")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{
		"PORT", "API_URL", "REDIS_URL", "SESSION_TTL", "OTP_TTL",
		"CACHE_TTL", "BCRYPT_COST", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.APIBase != "/api/v1" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.OTPTTL != 60*time.Second {
		t.Errorf("OTPTTL = %v", cfg.OTPTTL)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.BcryptCost != bcrypt.DefaultCost {
		t.Errorf("BcryptCost = %d", cfg.BcryptCost)
	}
	if cfg.LogFile != "logs/server.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.Email.Enabled() {
		t.Error("email should be disabled without a host and sender")
	}
}

func TestLoadRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	if _, err := Load(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/shop")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}

func TestLoadNormalizesAPIBase(t *testing.T) {
	setRequired(t)

	t.Setenv("API_URL", "api/v2/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBase != "/api/v2" {
		t.Errorf("APIBase = %q, want /api/v2", cfg.APIBase)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("BCRYPT_COST", "6")
	t.Setenv("EMAIL_SERVER_HOST", "smtp.example.com")
	t.Setenv("EMAIL_SERVER_PORT", "465")
	t.Setenv("EMAIL_SERVER_SECURE", "true")
	t.Setenv("EMAIL_FROM", "\"shop@example.com\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.OTPTTL != 90*time.Second {
		t.Errorf("OTPTTL = %v", cfg.OTPTTL)
	}
	if cfg.BcryptCost != 6 {
		t.Errorf("BcryptCost = %d", cfg.BcryptCost)
	}
	if cfg.Email.Port != 465 {
		t.Errorf("Email.Port = %d", cfg.Email.Port)
	}
	if !cfg.Email.Secure {
		t.Error("Email.Secure = false, want true")
	}
	if cfg.Email.From != "shop@example.com" {
		t.Errorf("Email.From = %q, want quotes stripped", cfg.Email.From)
	}
	if !cfg.Email.Enabled() {
		t.Error("email should be enabled")
	}
}

func TestLoadBadDurationsFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TTL", "eventually")
	t.Setenv("OTP_TTL", "-5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v, want default", cfg.SessionTTL)
	}
	if cfg.OTPTTL != 60*time.Second {
		t.Errorf("OTPTTL = %v, want default", cfg.OTPTTL)
	}
}
