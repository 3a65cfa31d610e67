package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Coxinelcops/Test/internal/config"
)

// Open picks the subscription backend. An explicit STORE_BACKEND must
// succeed; in auto mode DATABASE_URL selects PostgreSQL, REDIS_ADDR selects
// Redis, and a failure there falls back to the SQLite file.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return NewPostgresRepository(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr)
	case "sqlite":
		return NewSQLiteRepository(ctx, cfg.DatabasePath)
	case "memory":
		return NewMemoryStore(), nil
	case "auto":
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.DatabaseURL != "" {
		repo, err := NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err == nil {
			return repo, nil
		}
		slog.Warn("PostgreSQL unavailable, falling back to SQLite", "error", err)
	} else if cfg.RedisAddr != "" {
		store, err := NewRedisStore(ctx, cfg.RedisAddr)
		if err == nil {
			return store, nil
		}
		slog.Warn("Redis unavailable, falling back to SQLite", "error", err)
	}

	return NewSQLiteRepository(ctx, cfg.DatabasePath)
}
