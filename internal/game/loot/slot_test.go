package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolSlot(t *testing.T) {
	tests := []struct {
		name  string
		perm  Permission
		state poolState
		want  SlotType
		show  bool
	}{
		{"all", PermissionAll, poolState{Blocked: true}, SlotAllowLoot, true},
		{"owner", PermissionOwner, poolState{}, SlotOwner, true},

		{"group blocked", PermissionGroup, poolState{Blocked: true}, SlotRollOngoing, true},
		{"master blocked as master", PermissionMaster, poolState{Blocked: true, InGroup: true, IsMaster: true}, SlotMaster, true},
		{"master blocked as member", PermissionMaster, poolState{Blocked: true, InGroup: true}, SlotLocked, true},
		{"master blocked ungrouped", PermissionMaster, poolState{Blocked: true}, SlotAllowLoot, true},
		{"restricted blocked", PermissionRestricted, poolState{Blocked: true}, SlotLocked, true},

		{"group own winner", PermissionGroup, poolState{HasWinner: true, IsWinner: true}, SlotOwner, true},
		{"group other winner", PermissionGroup, poolState{HasWinner: true}, 0, false},
		{"restricted other winner", PermissionRestricted, poolState{HasWinner: true, HasRoundRobin: true, IsRoundRobin: true}, 0, false},

		{"group no round robin", PermissionGroup, poolState{UnderThreshold: true}, SlotAllowLoot, true},
		{"group is round robin", PermissionGroup, poolState{HasRoundRobin: true, IsRoundRobin: true, UnderThreshold: true}, SlotAllowLoot, true},
		{"group over threshold", PermissionGroup, poolState{HasRoundRobin: true}, SlotAllowLoot, true},
		{"group under threshold other turn", PermissionGroup, poolState{HasRoundRobin: true, UnderThreshold: true}, 0, false},
		{"master under threshold other turn", PermissionMaster, poolState{HasRoundRobin: true, UnderThreshold: true}, 0, false},

		{"round robin free", PermissionRoundRobin, poolState{}, SlotAllowLoot, true},
		{"round robin own turn", PermissionRoundRobin, poolState{HasRoundRobin: true, IsRoundRobin: true}, SlotAllowLoot, true},
		{"round robin other turn", PermissionRoundRobin, poolState{HasRoundRobin: true}, 0, false},
		{"round robin has winner", PermissionRoundRobin, poolState{HasWinner: true, IsWinner: true}, 0, false},

		{"none", PermissionNone, poolState{}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, show := poolSlot(tc.perm, tc.state)
			assert.Equal(t, tc.show, show)
			if tc.show {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSubsetSlot(t *testing.T) {
	tests := []struct {
		name    string
		perm    Permission
		follows bool
		blocked bool
		ffa     bool
		want    SlotType
	}{
		{"owner personal", PermissionOwner, false, false, false, SlotOwner},
		{"all personal", PermissionAll, false, false, false, SlotAllowLoot},
		{"master personal", PermissionMaster, false, false, false, SlotMaster},
		{"master free for all", PermissionMaster, false, false, true, SlotAllowLoot},
		{"group personal", PermissionGroup, false, true, false, SlotAllowLoot},

		{"rules master", PermissionMaster, true, false, false, SlotMaster},
		{"rules restricted blocked", PermissionRestricted, true, true, false, SlotLocked},
		{"rules restricted open", PermissionRestricted, true, false, false, SlotAllowLoot},
		{"rules group blocked", PermissionGroup, true, true, false, SlotRollOngoing},
		{"rules round robin open", PermissionRoundRobin, true, false, false, SlotAllowLoot},
		{"rules owner", PermissionOwner, true, true, false, SlotOwner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, subsetSlot(tc.perm, tc.follows, tc.blocked, tc.ffa))
		})
	}
}

func TestUnneededQuestSlot(t *testing.T) {
	assert.Equal(t, SlotMaster, unneededQuestSlot(PermissionMaster))
	assert.Equal(t, SlotLocked, unneededQuestSlot(PermissionGroup))
}

func TestPermissionNames(t *testing.T) {
	for p := PermissionAll; p <= PermissionRestricted; p++ {
		got, ok := ParsePermission(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParsePermission("everyone")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Permission(0).String())
}
