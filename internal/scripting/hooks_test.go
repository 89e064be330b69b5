package scripting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/scripting"
)

func hookManager(t *testing.T, src string) *scripting.Manager {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadTable(loot.TableCreature, writeTempLua(t, "hooks.lua", src), 0))
	return mgr
}

func emptySession() *loot.Session {
	return loot.NewSession(loot.Origin{ID: 5}, loot.DefaultLimits())
}

func TestOnItemRoll_ReturnValues(t *testing.T) {
	mgr := hookManager(t, `
		function on_loot_item_roll(tbl, viewer, entry, chance, session)
			if entry.item_id == 1 then return chance / 2 end
			if entry.item_id == 2 then return false end
			if entry.item_id == 3 then error("boom") end
			return nil
		end
	`)
	s := emptySession()
	cases := []struct {
		item   uint32
		chance float64
		ok     bool
	}{
		{1, 20, true},
		{2, 40, false},
		{3, 40, true},
		{4, 40, true},
	}
	for _, tc := range cases {
		chance, ok := mgr.OnItemRoll(1, &loot.Entry{ItemID: tc.item}, 40, s, loot.TableCreature)
		assert.Equal(t, tc.chance, chance, "item %d", tc.item)
		assert.Equal(t, tc.ok, ok, "item %d", tc.item)
	}
}

func TestOnItemRoll_NoVMKeepsChance(t *testing.T) {
	mgr, _ := newTestManager(t)
	chance, ok := mgr.OnItemRoll(1, &loot.Entry{ItemID: 1}, 33, emptySession(), loot.TableSkinning)
	assert.Equal(t, 33.0, chance)
	assert.True(t, ok)
}

func TestOnEqualChanced_SeesEntries(t *testing.T) {
	mgr := hookManager(t, `
		function on_loot_equal_chanced(tbl, viewer, entries, session)
			return #entries ~= 2
		end
	`)
	s := emptySession()
	assert.False(t, mgr.OnEqualChanced(1, []loot.Entry{{ItemID: 1}, {ItemID: 2}}, s, loot.TableCreature))
	assert.True(t, mgr.OnEqualChanced(1, []loot.Entry{{ItemID: 1}}, s, loot.TableCreature))
}

func TestOnAfterProcess_ReceivesSnapshot(t *testing.T) {
	mgr := hookManager(t, `
		seen = ""
		function on_loot_processed(tbl, viewer, session)
			seen = tbl .. ":" .. viewer .. ":" .. session.loot_id .. ":" .. #session.items .. ":" .. session.currency
		end
		function last_seen() return seen end
	`)
	s := emptySession()
	s.LootID = 12
	s.Currency = 300
	s.Items = append(s.Items, &loot.Item{ItemID: 9, Count: 2})
	mgr.OnAfterProcess(s, loot.TableCreature, 4)

	ret, err := mgr.CallHook(loot.TableCreature, "last_seen")
	require.NoError(t, err)
	assert.Equal(t, lua.LString(loot.TableCreature+":4:12:1:300"), ret)
}

func TestAllowLoot_UsesGlobalVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(writeTempLua(t, "allow.lua", `
		function on_loot_allowed(viewer, source) return viewer ~= 13 end
	`), 0))
	assert.True(t, mgr.AllowLoot(1, 5))
	assert.False(t, mgr.AllowLoot(13, 5))
}

type hookRows map[string][]loot.Row

func (r hookRows) LoadRows(_ context.Context, table string) ([]loot.Row, error) {
	return r[table], nil
}

type hookDirectory map[uint64]loot.Viewer

func (d hookDirectory) Find(id uint64) (loot.Viewer, bool) {
	v, ok := d[id]
	return v, ok
}

func TestHooks_DriveEngineResolution(t *testing.T) {
	cat, err := catalog.NewRegistryFrom([]*catalog.Item{
		{ID: 100, Name: "helm", MaxStack: 1},
		{ID: 200, Name: "boots", MaxStack: 1},
	})
	require.NoError(t, err)
	reg := loot.NewRegistry(zap.NewNop())
	_, err = reg.LoadAll(context.Background(), hookRows{
		loot.TableCreature: {
			{Entry: 1, Item: 100, Chance: 100, LootMode: 1, MinCount: 1, MaxCount: 1},
			{Entry: 1, Item: 200, Chance: 0.5, LootMode: 1, MinCount: 1, MaxCount: 1},
		},
	}, cat)
	require.NoError(t, err)

	mgr := hookManager(t, `
		function on_loot_item_roll(tbl, viewer, entry, chance)
			if entry.item_id == 100 then return false end
			return 100
		end
	`)
	owner := luaViewer{id: 1}
	engine := loot.New(loot.Deps{
		Registry:  loot.NewHandle(reg),
		Catalog:   cat,
		Directory: hookDirectory{1: owner},
		Roller:    dice.NewLoggedRoller(dice.NewSeededSource(3), zap.NewNop()),
		Hooks:     mgr,
	})
	for i := 0; i < 20; i++ {
		s := engine.NewSession(loot.Origin{ID: 5})
		require.True(t, engine.Fill(s, loot.TableCreature, 1, owner, loot.FillOptions{}))
		require.Len(t, s.Items, 1)
		assert.Equal(t, uint32(200), s.Items[0].ItemID)
	}
}
