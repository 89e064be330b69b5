package loot

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
)

// uncappedDuplicateItem may drop from the same group any number of times.
const uncappedDuplicateItem = 47242

const (
	maxNonEquipDuplicates = 3
	maxEquipDuplicates    = 1
	// legacyCurrencySpan is the widest range sampled at full precision.
	legacyCurrencySpan = 32700
)

// FillOptions controls Resolver.Fill.
type FillOptions struct {
	// Personal skips group distribution even when the owner is grouped.
	Personal bool
	// NoEmptyError suppresses the warning for a loot id without a template.
	NoEmptyError bool
	// Mode is the active loot mode; zero selects ModeDefault.
	Mode Mode
}

// Resolver expands templates into session items.
type Resolver struct {
	registry   *Handle
	catalog    Catalog
	groups     Groups
	directory  Directory
	hooks      Hooks
	roller     *dice.Roller
	rates      Rates
	limits     Limits
	compositor *Compositor
	logger     *zap.Logger
}

// resolution carries the state of one Process call down the reference tree.
type resolution struct {
	store   *Store
	ref     *Store
	session *Session
	mode    Mode
	viewer  uint64
	budget  *expansionBudget
}

// expansionBudget counts the reference expansions one resolution may still
// perform. It is shared by every branch of the reference tree.
type expansionBudget struct {
	left   int
	warned bool
}

func (b *expansionBudget) spend() bool {
	if b.left <= 0 {
		return false
	}
	b.left--
	return true
}

// Fill resolves template lootID of table into s on behalf of owner and
// prepares the per-viewer subsets.
//
// Precondition: s must be a fresh session.
// Postcondition: Returns false, leaving s empty, if owner is nil or no template exists.
func (r *Resolver) Fill(s *Session, table string, lootID uint32, owner Viewer, opts FillOptions) bool {
	if owner == nil {
		return false
	}
	s.Owner = owner.ID()

	reg := r.registry.Load()
	store, ok := reg.Store(table)
	if !ok {
		r.logger.Error("fill from unknown table", zap.String("table", table), zap.Uint32("loot_id", lootID))
		return false
	}
	t, ok := store.Get(lootID)
	if !ok {
		if !opts.NoEmptyError {
			r.logger.Warn("loot id used but it doesn't have records",
				zap.String("table", table),
				zap.Uint32("loot_id", lootID),
			)
		}
		return false
	}
	s.Table = table
	s.LootID = lootID

	mode := opts.Mode
	if mode == 0 {
		mode = ModeDefault
	}
	r.process(r.newResolution(reg, store, s, mode, owner.ID()), t, 0, 0)
	r.hooks.OnAfterProcess(s, table, owner.ID())

	group, grouped := r.groups.GroupOf(owner.ID())
	if opts.Personal || !grouped {
		r.compositor.FillNotNormalFor(s, owner)
		return true
	}

	s.RoundRobin = owner.ID()
	for _, id := range group.Members {
		v, ok := r.directory.Find(id)
		if !ok || !v.InRewardRange(s.Source) {
			continue
		}
		r.compositor.FillNotNormalFor(s, v)
	}
	for _, it := range s.Items {
		if proto, ok := r.catalog.Lookup(it.ItemID); ok && proto.Quality < group.Threshold {
			it.UnderThreshold = true
		}
	}
	return true
}

// Process resolves t into s under mode. A non-zero group restricts
// resolution to that group of t.
//
// Precondition: store is the collection t was taken from.
func (r *Resolver) Process(t *Template, store *Store, s *Session, mode Mode, viewer uint64, group uint8) {
	r.process(r.newResolution(r.registry.Load(), store, s, mode, viewer), t, group, 0)
}

func (r *Resolver) newResolution(reg *Registry, store *Store, s *Session, mode Mode, viewer uint64) resolution {
	return resolution{
		store:   store,
		ref:     reg.Reference(),
		session: s,
		mode:    mode,
		viewer:  viewer,
		budget:  &expansionBudget{left: r.limits.MaxReferenceExpansions},
	}
}

func (r *Resolver) process(rc resolution, t *Template, group uint8, depth int) {
	if group != 0 {
		if g := t.Group(group); g != nil {
			r.processGroup(rc, g, depth)
		}
		return
	}

	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Mode&rc.mode == 0 {
			continue
		}
		if !r.rollEntry(rc, e) {
			continue
		}
		if e.IsReference() {
			r.expandReference(rc, e, depth)
			continue
		}
		r.AddItem(rc.session, e)
	}

	for _, g := range t.Groups {
		if g != nil {
			r.processGroup(rc, g, depth)
		}
	}
}

func (r *Resolver) processGroup(rc resolution, g *Group, depth int) {
	e := r.rollGroup(rc, g)
	if e == nil {
		return
	}
	if e.IsReference() {
		r.expandReference(rc, e, depth)
		return
	}
	r.AddItem(rc.session, e)
}

func (r *Resolver) rollEntry(rc resolution, e *Entry) bool {
	chance, ok := r.hooks.OnItemRoll(rc.viewer, e, e.Chance, rc.session, rc.store.name)
	if !ok {
		return false
	}
	if chance >= 100 {
		return true
	}
	if e.IsReference() {
		rate := 1.0
		if rc.store.ratesAllowed {
			rate = r.rates.Referenced
		}
		return r.roller.RollChance(chance * rate)
	}
	rate := 1.0
	if proto, ok := r.catalog.Lookup(e.ItemID); ok && rc.store.ratesAllowed {
		rate = r.rates.ForQuality(proto.Quality)
	}
	return r.roller.RollChance(chance * rate)
}

// rollGroup picks at most one entry of g.
func (r *Resolver) rollGroup(rc resolution, g *Group) *Entry {
	explicit := r.candidates(rc, g.Explicit)
	if len(explicit) > 0 {
		roll := r.roller.Chance()
		for _, e := range explicit {
			chance, ok := r.hooks.OnItemRoll(rc.viewer, e, e.Chance, rc.session, rc.store.name)
			if !ok {
				return nil
			}
			if chance >= 100 {
				return e
			}
			roll -= chance
			if roll < 0 {
				return e
			}
		}
	}

	if !r.hooks.OnEqualChanced(rc.viewer, g.Equal, rc.session, rc.store.name) {
		return nil
	}
	equal := r.candidates(rc, g.Equal)
	if len(equal) == 0 {
		return nil
	}
	return equal[r.roller.Pick(len(equal))]
}

// candidates filters out entries of the wrong mode, unknown items and items
// already dropped from the same group as often as allowed.
func (r *Resolver) candidates(rc resolution, entries []Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Mode&rc.mode == 0 {
			continue
		}
		if !e.IsReference() && r.duplicateCapped(rc.session, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *Resolver) duplicateCapped(s *Session, e *Entry) bool {
	proto, ok := r.catalog.Lookup(e.ItemID)
	if !ok {
		return true
	}
	found := 0
	for _, it := range s.Items {
		if it.ItemID != e.ItemID || it.GroupID != e.GroupID {
			continue
		}
		found++
		if !proto.Equippable() && found >= maxNonEquipDuplicates && proto.ID != uncappedDuplicateItem {
			return true
		}
		if proto.Equippable() && found >= maxEquipDuplicates {
			return true
		}
	}
	return false
}

func (r *Resolver) expandReference(rc resolution, e *Entry, depth int) {
	t, ok := rc.ref.Get(e.ReferencedID())
	if !ok {
		return
	}
	if depth >= r.limits.MaxReferenceDepth {
		r.logger.Warn("reference expansion too deep, stopping",
			zap.String("table", rc.store.name),
			zap.Uint32("reference", e.ReferencedID()),
			zap.Int("depth", depth),
		)
		return
	}
	repeat := uint32(float64(e.MaxCount) * r.rates.ReferencedAmount)
	for i := uint32(0); i < repeat; i++ {
		if !rc.budget.spend() {
			if !rc.budget.warned {
				rc.budget.warned = true
				r.logger.Warn("reference expansion budget exhausted, stopping",
					zap.String("table", rc.store.name),
					zap.Uint32("loot_id", rc.session.LootID),
					zap.Uint32("reference", e.ReferencedID()),
					zap.Int("budget", r.limits.MaxReferenceExpansions),
				)
			}
			return
		}
		r.process(rc, t, e.groupOverride(), depth+1)
	}
}

// AddItem materializes e into s, split into stacks. A missing catalog item is
// a no-op; stacks beyond the pool capacity are dropped.
func (r *Resolver) AddItem(s *Session, e *Entry) {
	proto, ok := r.catalog.Lookup(e.ItemID)
	if !ok {
		return
	}

	count := r.roller.URand(e.MinCount, e.MaxCount)
	stack := proto.StackSize()
	stacks := count / stack
	if count%stack != 0 {
		stacks++
	}

	pool, limit := &s.Items, r.limits.MaxLootItems
	if e.NeedsQuest {
		pool, limit = &s.QuestItems, r.limits.MaxQuestItems
	}

	for i := uint32(0); i < stacks && len(*pool) < limit; i++ {
		it := newItem(e, proto, min(count, stack), uint8(len(*pool)))
		*pool = append(*pool, it)
		if count > stack {
			count -= stack
		} else {
			count = 0
		}

		if !r.visibleToAny(s, it) {
			r.logger.Debug("skipping unlooted count for unlootable item", zap.Uint32("item", e.ItemID))
			continue
		}
		if !it.NeedsQuest && len(it.Conditions) == 0 && !it.FreeForAll {
			s.Unlooted++
		}
	}
}

func newItem(e *Entry, proto *catalog.Item, count uint32, index uint8) *Item {
	var conds []string
	if len(e.Conditions) > 0 {
		conds = append(conds, e.Conditions...)
	}
	return &Item{
		ItemID:           e.ItemID,
		Index:            index,
		Count:            count,
		GroupID:          e.GroupID,
		Conditions:       conds,
		FreeForAll:       proto.Has(catalog.FlagMultiDrop),
		FollowsLootRules: proto.Has(catalog.FlagFollowLootRules),
		NeedsQuest:       e.NeedsQuest,
		RandomSuffix:     proto.RandomSuffix,
		RandomProperty:   proto.RandomProp,
	}
}

// visibleToAny reports whether the owner, or a grouped member in reward
// range, may currently see it.
func (r *Resolver) visibleToAny(s *Session, it *Item) bool {
	owner, ok := r.directory.Find(s.Owner)
	if !ok {
		return false
	}
	group, grouped := r.groups.GroupOf(owner.ID())
	if !grouped {
		return r.compositor.Eligible(s, it, owner)
	}
	for _, id := range group.Members {
		v, ok := r.directory.Find(id)
		if !ok || (id != owner.ID() && !v.InRewardRange(s.Source)) {
			continue
		}
		if r.compositor.Eligible(s, it, v) {
			return true
		}
	}
	return false
}

// GenerateCurrency sets the session currency from the range [min, max].
// Spans of legacyCurrencySpan or more are sampled in units of 256.
func (r *Resolver) GenerateCurrency(s *Session, min, max uint32) {
	if max == 0 {
		return
	}
	rate := r.rates.Money
	switch {
	case max <= min:
		s.Currency = uint32(float64(max) * rate)
	case max-min < legacyCurrencySpan:
		s.Currency = uint32(float64(r.roller.URand(min, max)) * rate)
	default:
		s.Currency = uint32(float64(r.roller.URand(min>>8, max>>8))*rate) << 8
	}
}
