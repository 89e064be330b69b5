// Package storage selects the loot template store named by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/storage/postgres"
	"github.com/cory-johannsen/lootengine/internal/storage/sqlite"
)

// Store reads and replaces loot template rows.
type Store interface {
	loot.RowSource
	Replace(ctx context.Context, table string, rows []loot.Row) error
	Close() error
}

type pgStore struct {
	*postgres.LootTemplateRepository
	pool *postgres.Pool
}

func (s pgStore) Close() error {
	s.pool.Close()
	return nil
}

// Open connects to the store selected by cfg.Driver. The sqlite store is
// migrated on open; postgres expects cmd/migrate to have run and fails with
// postgres.ErrSchemaMissing otherwise.
//
// Precondition: cfg has passed config validation.
// Postcondition: Returns an open Store the caller must Close, or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pool.CheckSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pgStore{LootTemplateRepository: postgres.NewLootTemplateRepository(pool.DB()), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
