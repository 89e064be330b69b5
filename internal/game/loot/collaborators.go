// Package loot resolves loot templates into per-source loot sessions, decides
// which items each viewer may see and take, and encodes a viewer's loot window.
//
// The engine is single-threaded per session: a Session is only touched by the
// goroutine owning its map. The Registry is shared read-only between goroutines
// and replaced wholesale through a Handle.
package loot

import (
	"context"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
)

// Catalog resolves item metadata by id.
type Catalog interface {
	Lookup(id uint32) (*catalog.Item, bool)
}

// Origin identifies and positions the lootable source of a session.
type Origin struct {
	ID  uint64
	Map uint32
	X   float64
	Y   float64
	Z   float64
}

// Viewer is a participant inspecting or claiming loot.
type Viewer interface {
	ID() uint64
	Level() int
	Team() string
	HasSkill(skill uint32) bool
	KnowsSpell(spell uint32) bool
	// QuestStarted reports whether the quest has any status other than "none".
	QuestStarted(quest uint32) bool
	// HasQuestForItem reports whether an active quest needs the item and, when
	// it does not, whether the item should still be shown in loot.
	HasQuestForItem(item uint32) (needed, showInLoot bool)
	InRewardRange(o Origin) bool
}

// Directory finds viewers by participant id.
type Directory interface {
	Find(id uint64) (Viewer, bool)
}

// GroupInfo is the loot-relevant view of a participant's party.
type GroupInfo struct {
	Members      []uint64
	MasterLooter uint64
	Threshold    catalog.Quality
}

// Groups answers party membership questions.
type Groups interface {
	GroupOf(participant uint64) (GroupInfo, bool)
}

// Conditions evaluates the condition ids attached to an entry against a viewer.
// An empty id list always passes.
type Conditions interface {
	Check(ids []string, v Viewer) bool
}

// RowSource loads every template row of one named table.
type RowSource interface {
	LoadRows(ctx context.Context, table string) ([]Row, error)
}

// Notifier delivers removal events to viewers with an open loot window.
type Notifier interface {
	ItemRemoved(viewer uint64, slot uint8)
	MoneyRemoved(viewer uint64)
}

// AutoLooter stores free-for-all currency tokens as soon as a viewer's loot is computed.
type AutoLooter interface {
	AutoLoot(s *Session, slot uint8, v Viewer)
}

// NoConditions passes every check.
type NoConditions struct{}

// Check always returns true.
func (NoConditions) Check([]string, Viewer) bool { return true }

// NoGroups reports every participant as ungrouped.
type NoGroups struct{}

// GroupOf always returns false.
func (NoGroups) GroupOf(uint64) (GroupInfo, bool) { return GroupInfo{}, false }
