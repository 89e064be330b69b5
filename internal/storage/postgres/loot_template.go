package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

var lootColumns = []string{
	"entry", "item", "reference", "chance", "quest_required",
	"loot_mode", "group_id", "min_count", "max_count",
}

// LootTemplateRepository reads and replaces loot template rows. It implements loot.RowSource.
type LootTemplateRepository struct {
	db *pgxpool.Pool
}

// NewLootTemplateRepository creates a LootTemplateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewLootTemplateRepository(db *pgxpool.Pool) *LootTemplateRepository {
	return &LootTemplateRepository{db: db}
}

func tableIdent(table string) (string, error) {
	if !loot.IsTable(table) {
		return "", fmt.Errorf("%w: %s", loot.ErrUnknownTable, table)
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

// LoadRows returns every row of table ordered by entry and item.
//
// Precondition: table must be a standard loot table name.
// Postcondition: Returns the rows, or a non-nil error wrapping loot.ErrUnknownTable
// for an unknown table.
func (r *LootTemplateRepository) LoadRows(ctx context.Context, table string) ([]loot.Row, error) {
	ident, err := tableIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT entry, item, reference, chance, quest_required,
		       loot_mode, group_id, min_count, max_count
		FROM `+ident+`
		ORDER BY entry, item`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []loot.Row
	for rows.Next() {
		var (
			entry, item, reference, mode int64
			group, minCount, maxCount    int16
			row                          loot.Row
		)
		if err := rows.Scan(&entry, &item, &reference, &row.Chance, &row.QuestRequired,
			&mode, &group, &minCount, &maxCount); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		row.Entry = uint32(entry)
		row.Item = uint32(item)
		row.Reference = int32(reference)
		row.LootMode = uint16(mode)
		row.GroupID = int(group)
		row.MinCount = int(minCount)
		row.MaxCount = int(maxCount)
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
func (r *LootTemplateRepository) Replace(ctx context.Context, table string, rows []loot.Row) error {
	ident, err := tableIdent(table)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM `+ident); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{table}, lootColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				int64(row.Entry), int64(row.Item), int64(row.Reference), row.Chance, row.QuestRequired,
				int64(row.LootMode), int16(row.GroupID), int16(row.MinCount), int16(row.MaxCount),
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("copying %s rows: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing %s: %w", table, err)
	}
	return nil
}
