package importer

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

const tableSuffix = "_loot_template"

// NameToID converts a display name to a stable snake_case identifier.
//
// Postcondition: result is lowercase, contains only [a-z0-9_], and is
// idempotent (NameToID(NameToID(s)) == NameToID(s)).
func NameToID(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TableFor resolves a collection name such as "Creature" or
// "creature_loot_template" to its standard table name.
//
// Postcondition: Returns a name accepted by loot.IsTable, or an error.
func TableFor(name string) (string, error) {
	id := NameToID(name)
	if !strings.HasSuffix(id, tableSuffix) {
		id += tableSuffix
	}
	if !loot.IsTable(id) {
		return "", fmt.Errorf("%w: %q", loot.ErrUnknownTable, name)
	}
	return id, nil
}

// ToRows converts row specs to loot rows.
func ToRows(specs []RowSpec) []loot.Row {
	out := make([]loot.Row, len(specs))
	for i, s := range specs {
		mode := uint16(1)
		if s.LootMode != nil {
			mode = *s.LootMode
		}
		minCount, maxCount := 1, 1
		if s.MinCount != nil {
			minCount = *s.MinCount
		}
		if s.MaxCount != nil {
			maxCount = *s.MaxCount
		}
		out[i] = loot.Row{
			Entry:         s.Entry,
			Item:          s.Item,
			Reference:     s.Reference,
			Chance:        s.Chance,
			QuestRequired: s.QuestRequired,
			LootMode:      mode,
			GroupID:       s.GroupID,
			MinCount:      minCount,
			MaxCount:      maxCount,
		}
	}
	return out
}
