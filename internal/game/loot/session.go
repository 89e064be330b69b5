package loot

import (
	"github.com/google/uuid"
)

// Item is one materialized stack in a Session.
type Item struct {
	ItemID           uint32
	Index            uint8
	Count            uint32
	GroupID          uint8
	Conditions       []string
	FreeForAll       bool
	FollowsLootRules bool
	NeedsQuest       bool
	RandomSuffix     uint32
	RandomProperty   uint32

	Looted         bool
	Blocked        bool
	UnderThreshold bool
	Counted        bool
	// RollWinner is the participant a distribution roll awarded the item to, or 0.
	RollWinner uint64

	allowed map[uint64]struct{}
}

// AllowedLooter reports whether id was confirmed eligible while building views.
func (it *Item) AllowedLooter(id uint64) bool {
	_, ok := it.allowed[id]
	return ok
}

func (it *Item) addAllowedLooter(id uint64) {
	if it.allowed == nil {
		it.allowed = make(map[uint64]struct{})
	}
	it.allowed[id] = struct{}{}
}

// SubsetEntry references an item of a viewer subset by its pool index.
type SubsetEntry struct {
	Index  uint8
	Looted bool
}

// ViewerSubset is the cached per-viewer partition of a Session.
// Quest indexes QuestItems; FreeForAll and Conditional index Items.
type ViewerSubset struct {
	Quest       []SubsetEntry
	FreeForAll  []SubsetEntry
	Conditional []SubsetEntry
}

// Session is the materialized loot of one source instance.
//
// A Session is owned by a single goroutine; it performs no locking.
type Session struct {
	ID     uuid.UUID
	Source Origin
	Table  string
	LootID uint32

	Items      []*Item
	QuestItems []*Item
	Currency   uint32

	Owner uint64
	// RoundRobin is the participant whose turn it is to loot, or 0 once released.
	RoundRobin uint64
	// Unlooted counts items still expected to be looted; informational only.
	Unlooted int

	limits  Limits
	views   map[uint64]*ViewerSubset
	looters map[uint64]struct{}
}

// NewSession creates an empty session for source.
//
// Postcondition: the session has a fresh ID and no items.
func NewSession(source Origin, limits Limits) *Session {
	return &Session{
		ID:      uuid.New(),
		Source:  source,
		limits:  limits,
		views:   make(map[uint64]*ViewerSubset),
		looters: make(map[uint64]struct{}),
	}
}

// View returns the cached subset of viewer, if computed.
func (s *Session) View(viewer uint64) (*ViewerSubset, bool) {
	v, ok := s.views[viewer]
	return v, ok
}

// Clear drops every item, subset and looter and zeroes the currency.
func (s *Session) Clear() {
	s.Items = nil
	s.QuestItems = nil
	s.Currency = 0
	s.Unlooted = 0
	s.RoundRobin = 0
	s.views = make(map[uint64]*ViewerSubset)
	s.looters = make(map[uint64]struct{})
}

// IsLooted reports whether nothing is left to take.
func (s *Session) IsLooted() bool {
	return s.Currency == 0 && s.Unlooted == 0
}

// AddLooter records a viewer with an open loot window.
func (s *Session) AddLooter(id uint64) {
	s.looters[id] = struct{}{}
}

// RemoveLooter forgets a viewer's open loot window.
func (s *Session) RemoveLooter(id uint64) {
	delete(s.looters, id)
}

// Looters returns the viewers with an open loot window.
func (s *Session) Looters() []uint64 {
	out := make([]uint64, 0, len(s.looters))
	for id := range s.looters {
		out = append(out, id)
	}
	return out
}

// MaxSlotFor returns the number of slots the viewer's window addresses.
func (s *Session) MaxSlotFor(viewer uint64) int {
	n := len(s.Items)
	if v, ok := s.views[viewer]; ok {
		n += len(v.Quest)
	}
	return n
}

// HasItemForAll reports whether currency or an unconditioned shared item remains.
func (s *Session) HasItemForAll() bool {
	if s.Currency > 0 {
		return true
	}
	for _, it := range s.Items {
		if !it.Looted && !it.FreeForAll && len(it.Conditions) == 0 {
			return true
		}
	}
	return false
}

// HasItemFor reports whether any quest, free-for-all or conditional item
// remains in the viewer's subset.
func (s *Session) HasItemFor(viewer uint64) bool {
	v, ok := s.views[viewer]
	if !ok {
		return false
	}
	for _, e := range v.Quest {
		if !e.Looted && !s.QuestItems[e.Index].Looted {
			return true
		}
	}
	for _, list := range [][]SubsetEntry{v.FreeForAll, v.Conditional} {
		for _, e := range list {
			if !e.Looted && !s.Items[e.Index].Looted {
				return true
			}
		}
	}
	return false
}

// HasOverThresholdItem reports whether a shared item subject to group
// distribution remains.
func (s *Session) HasOverThresholdItem() bool {
	for _, it := range s.Items {
		if !it.Looted && !it.UnderThreshold && !it.FreeForAll {
			return true
		}
	}
	return false
}

// SetRollWinner awards the shared item at slot to winner and unblocks it.
//
// Postcondition: returns false if slot does not address Items.
func (s *Session) SetRollWinner(slot uint8, winner uint64) bool {
	if int(slot) >= len(s.Items) {
		return false
	}
	it := s.Items[slot]
	it.RollWinner = winner
	it.Blocked = false
	return true
}

// Block marks the shared item at slot as pending a distribution roll.
func (s *Session) Block(slot uint8, blocked bool) bool {
	if int(slot) >= len(s.Items) {
		return false
	}
	s.Items[slot].Blocked = blocked
	return true
}

// ReleaseRoundRobin ends the round-robin owner's exclusive turn.
func (s *Session) ReleaseRoundRobin() {
	s.RoundRobin = 0
}

func (s *Session) questListOwners() int {
	n := 0
	for _, v := range s.views {
		if len(v.Quest) > 0 {
			n++
		}
	}
	return n
}
