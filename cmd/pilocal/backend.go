package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/localpi/pilocal/config"
	"github.com/localpi/pilocal/market"
	"github.com/localpi/pilocal/postgres"
	"github.com/localpi/pilocal/redis"
	"github.com/localpi/pilocal/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openBackend connects the storage selected by cfg.Backend.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (market.KV, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		return market.NewMemoryKV(), nopCloser{}, nil
	case config.BackendSQLite:
		kv, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("Opened SQLite storage", "path", cfg.SQLitePath)
		return kv, kv, nil
	case config.BackendRedis:
		kv, err := redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("Connected to Redis", "addr", cfg.RedisAddr)
		return kv, kv, nil
	case config.BackendPostgres:
		kv, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("Connected to PostgreSQL")
		return kv, kv, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// openStore loads the configuration and returns a store on the configured
// backend. The returned closer releases the backend.
func openStore(ctx context.Context) (*config.Config, *slog.Logger, *market.Store, io.Closer, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := cfg.NewLogger()

	kv, closer, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store := market.New(kv, market.WithLogger(logger), market.WithEscrowPolicy(cfg.EscrowPolicy))
	return cfg, logger, store, closer, nil
}
