// Package storage opens the run repository selected by configuration.
package storage

import (
	"fmt"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage/badger"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage/memory"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage/sqlite"
)

// Open returns the repository for cfg. The none backend returns nil.
func Open(cfg config.StorageConfig) (run.Repository, error) {
	switch cfg.Backend {
	case "", config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return memory.NewRunStore(), nil
	case config.BackendSQLite:
		store, err := sqlite.NewRunStore(sqlite.DefaultConfig(), sqlite.WithPath(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.Path, err)
		}
		return store, nil
	case config.BackendBadger:
		store, err := badger.NewRunStore(badger.DefaultConfig(), badger.WithDir(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open badger store %s: %w", cfg.Path, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
