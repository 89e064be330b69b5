package loot

import (
	"errors"
	"fmt"
)

// Mode is a bitmask of active loot modes.
type Mode uint16

// Loot modes. Entries drop only when their mask intersects the active mode.
const (
	ModeDefault Mode = 1 << iota
	ModeHard1
	ModeHard2
	ModeHard3
	ModeHard4
	ModeJunkFish Mode = 0x8000
	ModeAll      Mode = 0xFFFF
)

const (
	// MaxGroupID is the exclusive upper bound of a group id.
	MaxGroupID = 1 << 7
	// MinChance is the smallest non-zero chance accepted at load.
	MinChance = 0.000001
	maxCount  = 255
)

// Row is one template row as stored by the data source.
type Row struct {
	Entry         uint32
	Item          uint32
	Reference     int32
	Chance        float64
	QuestRequired bool
	LootMode      uint16
	GroupID       int
	MinCount      int
	MaxCount      int
}

// Entry is a candidate drop of a Template, immutable once loaded except for
// attached conditions.
type Entry struct {
	ItemID     uint32
	Reference  int32
	Chance     float64
	NeedsQuest bool
	Mode       Mode
	GroupID    uint8
	MinCount   uint32
	MaxCount   uint32
	Conditions []string
}

// IsReference reports whether the entry expands another template instead of
// naming an item.
func (e *Entry) IsReference() bool {
	return e.Reference != 0
}

// ReferencedID returns the id of the referenced template.
func (e *Entry) ReferencedID() uint32 {
	if e.Reference < 0 {
		return uint32(-int64(e.Reference))
	}
	return uint32(e.Reference)
}

// groupOverride returns the group a reference expands into; only grouped
// (negative) references restrict expansion to one group.
func (e *Entry) groupOverride() uint8 {
	if e.Reference < 0 {
		return e.GroupID
	}
	return 0
}

// grouped reports whether the entry belongs to one of its template's groups.
// Positive references are always ungrouped.
func (e *Entry) grouped() bool {
	return e.GroupID > 0 && e.Reference <= 0
}

var (
	errGroupID      = errors.New("group id out of range")
	errMinCount     = errors.New("min count is zero")
	errMaxCount     = errors.New("max count too large")
	errUnknownItem  = errors.New("item entry not listed in the item catalog")
	errEqualNoGroup = errors.New("equal-chanced entry, but group not defined")
	errLowChance    = errors.New("chance below the minimum")
	errMaxBelowMin  = errors.New("max count less than min count")
	errRefNoChance  = errors.New("zero chance is specified for a reference")
)

// validateRow checks a row's values. Referenced template existence is checked
// at registry level.
func validateRow(row Row, cat Catalog) error {
	if row.MaxCount > maxCount {
		return fmt.Errorf("%w: %d must be at most %d", errMaxCount, row.MaxCount, maxCount)
	}
	if row.GroupID < 0 || row.GroupID >= MaxGroupID {
		return fmt.Errorf("%w: %d must be less than %d", errGroupID, row.GroupID, MaxGroupID)
	}
	if row.MinCount <= 0 {
		return fmt.Errorf("%w: %d", errMinCount, row.MinCount)
	}

	if row.Reference == 0 {
		if _, ok := cat.Lookup(row.Item); !ok {
			return errUnknownItem
		}
		if row.Chance == 0 && row.GroupID == 0 {
			return errEqualNoGroup
		}
		if row.Chance != 0 && row.Chance < MinChance {
			return fmt.Errorf("%w: %v", errLowChance, row.Chance)
		}
		if row.MaxCount < row.MinCount {
			return fmt.Errorf("%w: max %d, min %d", errMaxBelowMin, row.MaxCount, row.MinCount)
		}
		return nil
	}

	// A quest-flagged reference keeps its row; the flag is dropped with a log.
	if !row.QuestRequired && row.Chance == 0 {
		return errRefNoChance
	}
	return nil
}

// entryFromRow converts a validated row.
func entryFromRow(row Row) Entry {
	e := Entry{
		ItemID:     row.Item,
		Reference:  row.Reference,
		Chance:     row.Chance,
		NeedsQuest: row.QuestRequired,
		Mode:       Mode(row.LootMode),
		GroupID:    uint8(row.GroupID),
		MinCount:   uint32(row.MinCount),
		MaxCount:   uint32(row.MaxCount),
	}
	if e.Mode == 0 {
		e.Mode = ModeDefault
	}
	if e.IsReference() {
		e.NeedsQuest = false
	}
	return e
}
