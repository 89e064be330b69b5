package loot

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
)

// Claim errors.
var (
	ErrSlotEmpty   = errors.New("loot slot is empty or already looted")
	ErrSlotBlocked = errors.New("loot slot is pending a distribution roll")
	ErrNotWinner   = errors.New("loot slot was awarded to another participant")
	ErrNotAllowed  = errors.New("loot item is not allowed for this participant")
)

// Compositor decides per-viewer visibility and applies claims.
type Compositor struct {
	catalog    Catalog
	conditions Conditions
	groups     Groups
	directory  Directory
	hooks      Hooks
	notifier   Notifier
	autoLooter AutoLooter
	limits     Limits
	logger     *zap.Logger
}

// Claim is a resolved viewer slot. At most one of Quest, FreeForAll and
// Conditional is set, pointing into the viewer's cached subset.
type Claim struct {
	Item        *Item
	Slot        uint8
	Quest       *SubsetEntry
	FreeForAll  *SubsetEntry
	Conditional *SubsetEntry
}

func (c *Compositor) isMasterLooter(v Viewer) bool {
	g, ok := c.groups.GroupOf(v.ID())
	return ok && g.MasterLooter == v.ID()
}

// Eligible reports whether v may see it in s.
func (c *Compositor) Eligible(s *Session, it *Item, v Viewer) bool {
	proto, ok := c.catalog.Lookup(it.ItemID)
	if !ok {
		return false
	}
	master := c.isMasterLooter(v) && it.FollowsLootRules && !it.UnderThreshold

	if !c.conditions.Check(it.Conditions, v) {
		// The master looter still sees conditioned recipes to hand them out.
		return master && (proto.Has(catalog.FlagHideUnusableRecipe) || proto.SoulboundRecipe())
	}
	if proto.Team != "" && proto.Team != v.Team() {
		return false
	}
	if master {
		return true
	}
	if proto.Has(catalog.FlagHideUnusableRecipe) && (!v.HasSkill(proto.RequiredSkill) || v.KnowsSpell(proto.RecipeSpell)) {
		return false
	}
	if proto.SoulboundRecipe() && v.KnowsSpell(proto.RecipeSpell) {
		return false
	}
	if !proto.Has(catalog.FlagIgnoreQuestStatus) {
		questGated := it.NeedsQuest || (proto.StartQuest != 0 && v.QuestStarted(proto.StartQuest))
		if questGated {
			if needed, _ := v.HasQuestForItem(it.ItemID); !needed {
				return false
			}
		}
	}
	return c.hooks.AllowLoot(v.ID(), s.Source.ID)
}

// ComputeView returns the viewer's subset of s, computing and caching it on
// first use.
//
// Postcondition: repeated calls for the same viewer return the same pointer.
func (c *Compositor) ComputeView(s *Session, v Viewer) *ViewerSubset {
	if view, ok := s.views[v.ID()]; ok {
		return view
	}
	view := &ViewerSubset{
		Quest:       c.fillQuest(s, v),
		FreeForAll:  c.fillFreeForAll(s, v),
		Conditional: c.fillConditional(s, v),
	}
	s.views[v.ID()] = view
	return view
}

// FillNotNormalFor computes the viewer's subset and auto-loots visible
// free-for-all currency tokens.
func (c *Compositor) FillNotNormalFor(s *Session, v Viewer) {
	view := c.ComputeView(s, v)
	if c.autoLooter == nil {
		return
	}
	maxSlot := s.MaxSlotFor(v.ID())
	for i := 0; i < maxSlot; i++ {
		var it *Item
		if i < len(s.Items) {
			it = s.Items[i]
		} else {
			it = s.QuestItems[view.Quest[i-len(s.Items)].Index]
		}
		if it.Looted || !it.FreeForAll || !c.Eligible(s, it, v) {
			continue
		}
		if proto, ok := c.catalog.Lookup(it.ItemID); ok && proto.Has(catalog.FlagCurrencyToken) {
			c.autoLooter.AutoLoot(s, uint8(i), v)
		}
	}
}

func (c *Compositor) fillQuest(s *Session, v Viewer) []SubsetEntry {
	if len(s.Items) >= c.limits.MaxLootItems {
		return nil
	}

	owner := v
	if s.RoundRobin != 0 {
		owner = nil
		if rr, ok := c.directory.Find(s.RoundRobin); ok {
			owner = rr
		}
	}

	var out []SubsetEntry
	for i, it := range s.QuestItems {
		if it.Blocked || !c.Eligible(s, it, v) {
			continue
		}
		// The round-robin owner keeps first claim on items they still need.
		if !it.FreeForAll && owner != nil && owner.ID() != v.ID() && c.Eligible(s, it, owner) {
			continue
		}
		out = append(out, SubsetEntry{Index: uint8(i)})
		s.Unlooted++
		if !it.FreeForAll {
			it.Blocked = true
		}
		if len(s.Items)+len(out) == c.limits.MaxLootItems {
			break
		}
	}
	return out
}

func (c *Compositor) fillFreeForAll(s *Session, v Viewer) []SubsetEntry {
	var out []SubsetEntry
	for i, it := range s.Items {
		if !it.Looted && it.FreeForAll && c.Eligible(s, it, v) {
			out = append(out, SubsetEntry{Index: uint8(i)})
			s.Unlooted++
		}
	}
	return out
}

func (c *Compositor) fillConditional(s *Session, v Viewer) []SubsetEntry {
	var out []SubsetEntry
	for i, it := range s.Items {
		if it.Looted || it.FreeForAll || !c.Eligible(s, it, v) {
			continue
		}
		it.addAllowedLooter(v.ID())
		if len(it.Conditions) == 0 {
			continue
		}
		out = append(out, SubsetEntry{Index: uint8(i)})
		if !it.Counted {
			s.Unlooted++
			it.Counted = true
		}
	}
	return out
}

// ItemInSlot resolves a viewer-relative slot: slots below len(s.Items) address
// the shared pool, the rest address the viewer's quest subset.
//
// Postcondition: returns false if the slot is empty or already looted for v,
// or holds a free-for-all or conditioned item missing from v's subset.
func (c *Compositor) ItemInSlot(s *Session, slot uint8, v Viewer) (Claim, bool) {
	claim := Claim{Slot: slot}
	view := s.views[v.ID()]

	if int(slot) >= len(s.Items) {
		q := int(slot) - len(s.Items)
		if view == nil || q >= len(view.Quest) {
			return Claim{}, false
		}
		entry := &view.Quest[q]
		it := s.QuestItems[entry.Index]
		// Rule-following quest copies go to every viewer; recheck the claimant.
		if it.FollowsLootRules && !c.Eligible(s, it, v) {
			return Claim{}, false
		}
		if entry.Looted {
			return Claim{}, false
		}
		claim.Item, claim.Quest = it, entry
		return claim, true
	}

	it := s.Items[slot]
	looted := it.Looted
	// Free-for-all and conditioned items are claimable only through the
	// viewer's own subset entry.
	switch {
	case it.FreeForAll:
		if view == nil {
			return Claim{}, false
		}
		claim.FreeForAll = findEntry(view.FreeForAll, slot)
		if claim.FreeForAll == nil {
			return Claim{}, false
		}
		looted = claim.FreeForAll.Looted
	case len(it.Conditions) > 0:
		if view == nil {
			return Claim{}, false
		}
		claim.Conditional = findEntry(view.Conditional, slot)
		if claim.Conditional == nil {
			return Claim{}, false
		}
		looted = claim.Conditional.Looted
	}
	if looted {
		return Claim{}, false
	}
	claim.Item = it
	return claim, true
}

func findEntry(list []SubsetEntry, index uint8) *SubsetEntry {
	for i := range list {
		if list[i].Index == index {
			return &list[i]
		}
	}
	return nil
}

// Take claims the item in the viewer-relative slot for v and notifies the
// other viewers with an open window.
//
// Postcondition: on success the item, or the viewer's copy of it, is marked
// looted. Returns ErrNotAllowed, changing nothing, if v is no longer eligible.
func (c *Compositor) Take(s *Session, slot uint8, v Viewer) (*Item, error) {
	claim, ok := c.ItemInSlot(s, slot, v)
	if !ok {
		return nil, ErrSlotEmpty
	}
	it := claim.Item
	if !c.Eligible(s, it, v) {
		return nil, ErrNotAllowed
	}
	if claim.Quest == nil && it.Blocked {
		return nil, ErrSlotBlocked
	}
	if it.RollWinner != 0 && it.RollWinner != v.ID() {
		return nil, ErrNotWinner
	}

	switch {
	case claim.Quest != nil:
		claim.Quest.Looted = true
		if it.FreeForAll || s.questListOwners() == 1 {
			c.notifyViewer(v.ID(), slot)
		} else {
			c.notifyQuestItemRemoved(s, claim.Quest.Index)
		}
	case claim.FreeForAll != nil:
		claim.FreeForAll.Looted = true
		c.notifyViewer(v.ID(), slot)
	default:
		if claim.Conditional != nil {
			claim.Conditional.Looted = true
		}
		c.notifyItemRemoved(s, slot)
	}

	if !it.FreeForAll {
		it.Looted = true
	}
	s.Unlooted--
	c.logger.Debug("loot item taken",
		zap.Stringer("session", s.ID),
		zap.Uint64("viewer", v.ID()),
		zap.Uint32("item", it.ItemID),
		zap.Uint8("slot", slot),
	)
	return it, nil
}

// TakeCurrency claims all currency of s and notifies open windows.
func (c *Compositor) TakeCurrency(s *Session) uint32 {
	amount := s.Currency
	if amount == 0 {
		return 0
	}
	s.Currency = 0
	c.eachLooter(s, func(id uint64) {
		if c.notifier != nil {
			c.notifier.MoneyRemoved(id)
		}
	})
	return amount
}

func (c *Compositor) notifyViewer(viewer uint64, slot uint8) {
	if c.notifier != nil {
		c.notifier.ItemRemoved(viewer, slot)
	}
}

func (c *Compositor) notifyItemRemoved(s *Session, slot uint8) {
	c.eachLooter(s, func(id uint64) { c.notifyViewer(id, slot) })
}

// notifyQuestItemRemoved tells each looter holding the quest item its
// viewer-relative slot.
func (c *Compositor) notifyQuestItemRemoved(s *Session, questIndex uint8) {
	c.eachLooter(s, func(id uint64) {
		view, ok := s.views[id]
		if !ok {
			return
		}
		for j, e := range view.Quest {
			if e.Index == questIndex {
				c.notifyViewer(id, uint8(len(s.Items)+j))
				return
			}
		}
	})
}

// eachLooter visits looters still known to the directory, dropping the rest.
func (c *Compositor) eachLooter(s *Session, fn func(id uint64)) {
	for _, id := range s.Looters() {
		if _, ok := c.directory.Find(id); !ok {
			s.RemoveLooter(id)
			continue
		}
		fn(id)
	}
}
