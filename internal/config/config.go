package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port          string
	APIBase       string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	SessionTTL    time.Duration
	OTPTTL        time.Duration
	CacheTTL      time.Duration
	BcryptCost    int
	LogFile       string
	AdminName     string
	AdminEmail    string
	AdminPassword string
	Email         EmailConfig
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

func Load() (Config, error) {
	clean := func(val string) string {
		return strings.Trim(val, "\"' \t\r\n")
	}

	emailPort, err := strconv.Atoi(strings.Trim(getenvDefault("EMAIL_SERVER_PORT", "587"), "\"' "))
	if err != nil {
		emailPort = 587
	}

	cfg := Config{
		Port:          getenvDefault("PORT", "8080"),
		APIBase:       getenvDefault("API_URL", "/api/v1"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getenvDefault("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionTTL:    parseDuration(os.Getenv("SESSION_TTL"), 7*24*time.Hour),
		OTPTTL:        parseDuration(os.Getenv("OTP_TTL"), 60*time.Second),
		CacheTTL:      parseDuration(os.Getenv("CACHE_TTL"), 30*time.Second),
		BcryptCost:    parseInt(os.Getenv("BCRYPT_COST"), bcrypt.DefaultCost),
		LogFile:       getenvDefault("LOG_FILE", "logs/server.log"),
		AdminName:     getenvDefault("ADMIN_NAME", "Admin"),
		AdminEmail:    clean(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	cfg.Email = EmailConfig{
		Host:     clean(os.Getenv("EMAIL_SERVER_HOST")),
		Port:     emailPort,
		Username: clean(os.Getenv("EMAIL_SERVER_USER")),
		Password: clean(os.Getenv("EMAIL_SERVER_PASSWORD")),
		From:     clean(os.Getenv("EMAIL_FROM")),
		Secure:   parseBool(os.Getenv("EMAIL_SERVER_SECURE")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if !strings.HasPrefix(cfg.APIBase, "/") {
		cfg.APIBase = "/" + cfg.APIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseBool(val string) bool {
	if val == "" {
		return false
	}
	val = strings.ToLower(strings.Trim(val, "\"' "))
	return val == "1" || val == "true" || val == "yes"
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return def
	}
	return n
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
