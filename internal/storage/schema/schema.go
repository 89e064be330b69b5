// Package schema applies the embedded loot template migrations with golang-migrate.
package schema

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/migrations"
)

// Migration directions understood by Run.
const (
	Up   = "up"
	Down = "down"
)

// URL returns the golang-migrate database URL for cfg.
//
// Precondition: cfg has passed config validation.
func URL(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return "sqlite://" + cfg.Path
	}
	return cfg.DSN()
}

// New creates a migrator over the embedded migrations for the database at url.
//
// Postcondition: The caller must Close the returned Migrate.
func New(url string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Run moves m in direction by steps (0 = all the way).
//
// Postcondition: Returns nil when already at the target, like a successful migration.
func Run(m *migrate.Migrate, direction string, steps int) error {
	var err error
	switch direction {
	case Up:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case Down:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("invalid direction %q: must be %q or %q", direction, Up, Down)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}
	return nil
}

// Apply migrates the database at url all the way up.
func Apply(url string) error {
	m, err := New(url)
	if err != nil {
		return err
	}
	defer m.Close()
	return Run(m, Up, 0)
}
