// Package sqlite loads loot template rows from an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/storage/schema"
)

// Store reads and replaces loot template rows in SQLite. It implements loot.RowSource.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and applies the embedded migrations.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a ready Store, or a non-nil error with nothing left open.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if err := schema.Apply("sqlite://" + clean); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadRows returns every row of table ordered by entry and item.
//
// Precondition: table must be a standard loot table name.
func (s *Store) LoadRows(ctx context.Context, table string) ([]loot.Row, error) {
	if !loot.IsTable(table) {
		return nil, fmt.Errorf("%w: %s", loot.ErrUnknownTable, table)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry, item, reference, chance, quest_required,
		       loot_mode, group_id, min_count, max_count
		FROM `+table+`
		ORDER BY entry, item`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []loot.Row
	for rows.Next() {
		var (
			entry, item, reference, mode int64
			row                          loot.Row
		)
		if err := rows.Scan(&entry, &item, &reference, &row.Chance, &row.QuestRequired,
			&mode, &row.GroupID, &row.MinCount, &row.MaxCount); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		row.Entry = uint32(entry)
		row.Item = uint32(item)
		row.Reference = int32(reference)
		row.LootMode = uint16(mode)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return out, nil
}

// Replace swaps the contents of table for rows in one transaction.
//
// Precondition: table must be a standard loot table name.
// Postcondition: On error the table is unchanged.
func (s *Store) Replace(ctx context.Context, table string, rows []loot.Row) error {
	if !loot.IsTable(table) {
		return fmt.Errorf("%w: %s", loot.ErrUnknownTable, table)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+table+` (entry, item, reference, chance, quest_required,
		                       loot_mode, group_id, min_count, max_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", table, err)
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Entry, row.Item, row.Reference, row.Chance, row.QuestRequired,
			row.LootMode, row.GroupID, row.MinCount, row.MaxCount); err != nil {
			return fmt.Errorf("inserting %s row %d/%d: %w", table, row.Entry, row.Item, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}
