package loot

// Permission governs how a viewer's window enumerates the shared pool.
type Permission uint8

// Permissions.
const (
	PermissionAll Permission = iota + 1
	PermissionGroup
	PermissionMaster
	PermissionRoundRobin
	PermissionOwner
	PermissionNone
	PermissionRestricted
)

var permissionNames = map[Permission]string{
	PermissionAll:        "all",
	PermissionGroup:      "group",
	PermissionMaster:     "master",
	PermissionRoundRobin: "round_robin",
	PermissionOwner:      "owner",
	PermissionNone:       "none",
	PermissionRestricted: "restricted",
}

func (p Permission) String() string {
	if n, ok := permissionNames[p]; ok {
		return n
	}
	return "unknown"
}

// ParsePermission converts a permission name.
func ParsePermission(name string) (Permission, bool) {
	for p, n := range permissionNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// SlotType tells the client how a listed item may be taken.
type SlotType uint8

// Slot types.
const (
	SlotAllowLoot SlotType = iota
	SlotRollOngoing
	SlotMaster
	SlotLocked
	SlotOwner
)

// poolState is the viewer-relative state of a shared-pool item.
type poolState struct {
	Blocked bool
	// HasWinner and IsWinner describe the item's roll winner relative to the viewer.
	HasWinner bool
	IsWinner  bool
	// HasRoundRobin and IsRoundRobin describe the session's round-robin owner.
	HasRoundRobin  bool
	IsRoundRobin   bool
	UnderThreshold bool
	InGroup        bool
	IsMaster       bool
}

type slotRule struct {
	perms []Permission
	when  func(poolState) bool
	slot  SlotType
	show  bool
}

func always(poolState) bool { return true }

// poolRules is evaluated in order; the first rule matching both the
// permission and the state decides.
var poolRules = []slotRule{
	{[]Permission{PermissionAll}, always, SlotAllowLoot, true},
	{[]Permission{PermissionOwner}, always, SlotOwner, true},

	{[]Permission{PermissionRoundRobin}, func(st poolState) bool { return st.HasWinner }, 0, false},
	{[]Permission{PermissionRoundRobin}, func(st poolState) bool { return st.HasRoundRobin && !st.IsRoundRobin }, 0, false},
	{[]Permission{PermissionRoundRobin}, always, SlotAllowLoot, true},

	{[]Permission{PermissionGroup}, func(st poolState) bool { return st.Blocked }, SlotRollOngoing, true},
	{[]Permission{PermissionMaster}, func(st poolState) bool { return st.Blocked && st.InGroup && st.IsMaster }, SlotMaster, true},
	{[]Permission{PermissionMaster}, func(st poolState) bool { return st.Blocked && st.InGroup }, SlotLocked, true},
	{[]Permission{PermissionMaster}, func(st poolState) bool { return st.Blocked }, SlotAllowLoot, true},
	{[]Permission{PermissionRestricted}, func(st poolState) bool { return st.Blocked }, SlotLocked, true},

	{[]Permission{PermissionGroup, PermissionMaster, PermissionRestricted}, func(st poolState) bool { return st.HasWinner && st.IsWinner }, SlotOwner, true},
	{[]Permission{PermissionGroup, PermissionMaster, PermissionRestricted}, func(st poolState) bool { return st.HasWinner }, 0, false},
	{[]Permission{PermissionGroup, PermissionMaster, PermissionRestricted}, func(st poolState) bool {
		return !st.HasRoundRobin || st.IsRoundRobin || !st.UnderThreshold
	}, SlotAllowLoot, true},
}

// poolSlot returns the slot type of a shared-pool item for a viewer, or
// false when the item is hidden from them.
func poolSlot(perm Permission, st poolState) (SlotType, bool) {
	for _, r := range poolRules {
		if !hasPermission(r.perms, perm) || !r.when(st) {
			continue
		}
		return r.slot, r.show
	}
	return 0, false
}

func hasPermission(perms []Permission, p Permission) bool {
	for _, q := range perms {
		if q == p {
			return true
		}
	}
	return false
}

// baseSlot is the slot type of personal items under perm.
func baseSlot(perm Permission) SlotType {
	if perm == PermissionOwner {
		return SlotOwner
	}
	return SlotAllowLoot
}

// subsetSlot returns the slot type of a quest or conditional subset item.
func subsetSlot(perm Permission, followsLootRules, blocked, freeForAll bool) SlotType {
	base := baseSlot(perm)
	if !followsLootRules {
		if freeForAll {
			return base
		}
		if perm == PermissionMaster {
			return SlotMaster
		}
		return base
	}
	switch perm {
	case PermissionMaster:
		return SlotMaster
	case PermissionRestricted:
		if blocked {
			return SlotLocked
		}
		return base
	case PermissionGroup, PermissionRoundRobin:
		if blocked {
			return SlotRollOngoing
		}
		return SlotAllowLoot
	default:
		return base
	}
}

// unneededQuestSlot is the slot type of a quest item shown to a viewer who no longer needs it.
func unneededQuestSlot(perm Permission) SlotType {
	if perm == PermissionMaster {
		return SlotMaster
	}
	return SlotLocked
}
