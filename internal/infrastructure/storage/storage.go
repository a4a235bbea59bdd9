package storage

import (
	"context"
	"fmt"

	"sigtrader/internal/application/port"
	"sigtrader/internal/infrastructure/config"
	"sigtrader/internal/infrastructure/storage/postgres"
	"sigtrader/internal/infrastructure/storage/redis"
	"sigtrader/internal/infrastructure/storage/sqlite"
)

// Open creates the configured store backend.
func Open(ctx context.Context, cfg *config.Config) (port.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.New(cfg.Storage.Path)
	case "redis":
		return redis.New(cfg.Storage.Addr, cfg.Storage.Password, cfg.Storage.DB, cfg.Storage.Prefix), nil
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
