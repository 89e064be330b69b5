package loot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

func TestSession_Queries(t *testing.T) {
	h := newHarness(t, creatureRows(
		row(creatureKey, itemCloth, 100, 0, 1, 1),
		row(creatureKey, itemGem, 100, 0, 1, 1),
	))
	owner := h.viewer(1)
	s := h.fill(t, owner, loot.FillOptions{})
	assert.NotEqual(t, s.ID.String(), h.engine.NewSession(loot.Origin{}).ID.String())

	assert.True(t, s.HasItemForAll())
	assert.True(t, s.HasItemFor(owner.ID()))
	assert.False(t, s.HasItemFor(42))
	assert.True(t, s.HasOverThresholdItem())
	assert.False(t, s.IsLooted())

	_, err := h.engine.Take(s, 0, owner)
	require.NoError(t, err)
	assert.False(t, s.HasItemForAll())
	assert.False(t, s.HasOverThresholdItem(), "free-for-all items are not distributed")

	_, err = h.engine.Take(s, 1, owner)
	require.NoError(t, err)
	assert.False(t, s.HasItemFor(owner.ID()))
	assert.True(t, s.IsLooted())

	s.Currency = 5
	assert.True(t, s.HasItemForAll())
}

func TestSession_SlotMutatorsBounds(t *testing.T) {
	s := loot.NewSession(loot.Origin{}, loot.DefaultLimits())
	assert.False(t, s.SetRollWinner(0, 1))
	assert.False(t, s.Block(0, true))
}

func TestSession_ClearAndLooters(t *testing.T) {
	h := newHarness(t, creatureRows(row(creatureKey, itemCloth, 100, 0, 1, 1)))
	owner := h.viewer(1)
	s := h.fill(t, owner, loot.FillOptions{})
	s.AddLooter(1)
	s.AddLooter(2)
	s.RemoveLooter(2)
	assert.Equal(t, []uint64{1}, s.Looters())

	s.Clear()
	assert.Empty(t, s.Items)
	assert.Empty(t, s.Looters())
	_, ok := s.View(owner.ID())
	assert.False(t, ok)
	assert.Zero(t, s.MaxSlotFor(owner.ID()))
}

func TestEntry_ReferencedID(t *testing.T) {
	assert.Equal(t, uint32(12), (&loot.Entry{Reference: -12}).ReferencedID())
	assert.Equal(t, uint32(12), (&loot.Entry{Reference: 12}).ReferencedID())
	assert.False(t, (&loot.Entry{ItemID: 3}).IsReference())
}
