// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the server needs at startup. Values come from
// environment variables with sensible defaults for local development.
type Config struct {
	Host string
	Port int

	// DatabaseURL enables the PostgreSQL stores when set. Empty means the
	// in-memory stores.
	DatabaseURL string

	// RedisAddr enables the Redis session store when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL time.Duration

	LogLevel  string
	LogFormat string

	// Bootstrap admin credentials. When both are set an active SUPER_ADMIN
	// account is ensured at startup.
	AdminEmail    string
	AdminPassword string

	// RateLimitRPS caps per-client request throughput. Zero disables the
	// limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Host:           envString("SERVER_HOST", "0.0.0.0"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		LogLevel:       envString("LOG_LEVEL", "info"),
		LogFormat:      envString("LOG_FORMAT", "json"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		RateLimitBurst: 20,
	}

	port, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return Config{}, err
	}
	cfg.Port = port

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB = redisDB

	ttlDays, err := envInt("SESSION_TTL_DAYS", 15)
	if err != nil {
		return Config{}, err
	}
	if ttlDays <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_DAYS must be positive, got %d", ttlDays)
	}
	cfg.SessionTTL = time.Duration(ttlDays) * 24 * time.Hour

	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = rps
	}
	burst, err := envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitBurst = burst

	return cfg, nil
}

// Addr is the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
