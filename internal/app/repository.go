package app

import (
	"context"
	"fmt"

	"bpmonitor/internal/config"
	"bpmonitor/internal/repository"
	"bpmonitor/internal/repository/memory"
	"bpmonitor/internal/repository/redis"
	"bpmonitor/internal/repository/sqlite"
)

// OpenHistoryRepository opens the store selected by HISTORY_BACKEND.
func OpenHistoryRepository(ctx context.Context, cfg *config.Config) (repository.HistoryRepository, error) {
	switch cfg.HistoryBackend {
	case "", "sqlite":
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewHistoryRepository(db), nil
	case "redis":
		return redis.New(ctx, cfg.RedisURL, cfg.HistoryKey)
	case "memory":
		return memory.NewHistoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
}
