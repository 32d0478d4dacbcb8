package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tokenFaucet/internal/config"
	"tokenFaucet/internal/storage"
	"tokenFaucet/internal/storage/bolt"
	"tokenFaucet/internal/storage/memory"
	"tokenFaucet/internal/storage/postgres"
)

func openStore(ctx context.Context, kind, dsn, boltPath string, migrate bool, logger *zap.Logger) (storage.Store, error) {
	switch kind {
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		return store, nil
	case config.StoreBolt:
		if dir := filepath.Dir(boltPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create bolt dir: %w", err)
			}
		}
		store, err := bolt.Open(boltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return store, nil
	case config.StoreMemory:
		logger.Warn("using the in-memory store; claims are lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}
