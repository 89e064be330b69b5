package loot

// Hooks is the closed set of script override points consulted by the engine.
type Hooks interface {
	// OnItemRoll may replace an entry's chance before it is rolled; returning
	// false fails the roll outright.
	OnItemRoll(viewer uint64, e *Entry, chance float64, s *Session, table string) (float64, bool)
	// OnEqualChanced runs before the equal-chance pool of a group is consulted;
	// returning false yields no drop from the group.
	OnEqualChanced(viewer uint64, equal []Entry, s *Session, table string) bool
	// OnAfterProcess is notified once a template has been fully resolved into s.
	OnAfterProcess(s *Session, table string, viewer uint64)
	// AllowLoot is the final per-viewer eligibility veto.
	AllowLoot(viewer uint64, source uint64) bool
}

// NopHooks leaves every decision unchanged.
type NopHooks struct{}

// OnItemRoll returns chance unchanged.
func (NopHooks) OnItemRoll(_ uint64, _ *Entry, chance float64, _ *Session, _ string) (float64, bool) {
	return chance, true
}

// OnEqualChanced returns true.
func (NopHooks) OnEqualChanced(uint64, []Entry, *Session, string) bool { return true }

// OnAfterProcess does nothing.
func (NopHooks) OnAfterProcess(*Session, string, uint64) {}

// AllowLoot returns true.
func (NopHooks) AllowLoot(uint64, uint64) bool { return true }
