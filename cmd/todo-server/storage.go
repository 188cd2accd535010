package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"todo/internal/server/config"
	"todo/internal/server/storage/memory"
	"todo/internal/server/storage/postgres"
	"todo/internal/server/storage/sqlite"
	"todo/internal/server/tasks"
)

// openRepository returns the repository selected by cfg.Driver and a func
// releasing it. Postgres and SQLite schemas are migrated first.
func openRepository(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (tasks.Repository, func(), error) {
	switch cfg.Driver {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage; tasks are lost on restart")
		return memory.New(), func() {}, nil

	case config.StoragePostgres:
		if _, err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("connected to postgres")
		return postgres.New(pool), pool.Close, nil

	case config.StorageSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite database")
		return repo, func() { repo.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
