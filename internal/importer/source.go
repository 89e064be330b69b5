package importer

import (
	"context"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

// TableData is the common intermediate format produced by all Source
// implementations: the full contents of one loot table.
type TableData struct {
	Table string    `yaml:"table"`
	Rows  []RowSpec `yaml:"rows"`
}

// RowSpec holds a single template row. Omitted loot_mode, min_count and
// max_count default to 1.
type RowSpec struct {
	Entry         uint32  `yaml:"entry"`
	Item          uint32  `yaml:"item"`
	Reference     int32   `yaml:"reference,omitempty"`
	Chance        float64 `yaml:"chance"`
	QuestRequired bool    `yaml:"quest_required,omitempty"`
	LootMode      *uint16 `yaml:"loot_mode,omitempty"`
	GroupID       int     `yaml:"group_id,omitempty"`
	MinCount      *int    `yaml:"min_count,omitempty"`
	MaxCount      *int    `yaml:"max_count,omitempty"`
	Comment       string  `yaml:"comment,omitempty"`
}

// Source loads loot tables from a format-specific source directory.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// Postcondition: returns at least one TableData, or a non-nil error.
type Source interface {
	Load(sourceDir string) ([]*TableData, error)
}

// Sink replaces the stored contents of a loot table.
type Sink interface {
	Replace(ctx context.Context, table string, rows []loot.Row) error
}
