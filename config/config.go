// Package config loads the daemon settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/localpi/pilocal/market"
)

// Backend names accepted in PILOCAL_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPAddr          string
	Backend           string
	SQLitePath        string
	RedisAddr         string
	PostgresDSN       string
	EscrowPolicy      market.EscrowPolicy
	CommissionPercent float64
	SeedDefaults      bool
	ShutdownTimeout   time.Duration
	LogLevel          slog.Level
	LogFormat         string
}

// Load reads .env files (if any) and the environment. Unset variables take
// their defaults; malformed ones are an error.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		HTTPAddr:    getEnv("PILOCAL_HTTP_ADDR", "127.0.0.1:8080"),
		Backend:     getEnv("PILOCAL_BACKEND", BackendSQLite),
		SQLitePath:  getEnv("PILOCAL_SQLITE_PATH", "./data/pilocal.db"),
		RedisAddr:   getEnv("PILOCAL_REDIS_ADDR", "localhost:6379"),
		PostgresDSN: getEnv("PILOCAL_POSTGRES_DSN", ""),
		LogFormat:   getEnv("PILOCAL_LOG_FORMAT", "json"),
	}

	var err error
	switch cfg.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("PILOCAL_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown PILOCAL_BACKEND %q", cfg.Backend)
	}
	if cfg.EscrowPolicy, err = market.ParseEscrowPolicy(getEnv("PILOCAL_ESCROW_POLICY", "strict")); err != nil {
		return nil, fmt.Errorf("PILOCAL_ESCROW_POLICY: %w", err)
	}
	if cfg.CommissionPercent, err = getEnvAsFloat("PILOCAL_COMMISSION_PERCENT", 5); err != nil {
		return nil, err
	}
	if cfg.CommissionPercent < 0 {
		return nil, fmt.Errorf("PILOCAL_COMMISSION_PERCENT must not be negative")
	}
	if cfg.SeedDefaults, err = getEnvAsBool("PILOCAL_SEED_DEFAULTS", true); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvAsDuration("PILOCAL_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("PILOCAL_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("PILOCAL_LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PILOCAL_LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
