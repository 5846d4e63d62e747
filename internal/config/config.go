package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret  string
	SessionTTL time.Duration
	CookieName string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint   string
	AllowedOrigins []string
}

// Load reads the process environment. The signing secret, the database URL
// and the listening port are mandatory; a missing one aborts startup.
func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 0),
		DBURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("SECRET_KEY"),
		SessionTTL:     time.Hour,
		CookieName:     "token",
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminName:      getEnv("ADMIN_NAME", "Administrator"),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: SECRET_KEY is required")
	}

	if cfg.DBURL == "" {
		return Config{}, errors.New("config: DATABASE_URL is required")
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT must be a valid port, got %d", cfg.Port)
	}

	return cfg, nil
}

// IsProd reports whether the process runs in a production deployment.
// Session cookies are only marked Secure in prod.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)

	if err != nil {
		return fallback
	}

	return num
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)

		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
