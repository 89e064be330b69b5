package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/importer"
	"github.com/cory-johannsen/lootengine/internal/server"
)

// memRows serves the repository's YAML loot content as a RowSource.
type memRows map[string][]loot.Row

func (m memRows) LoadRows(_ context.Context, table string) ([]loot.Row, error) {
	return m[table], nil
}

func contentRows(t *testing.T) memRows {
	t.Helper()
	tables, err := importer.NewYAMLSource().Load("../../content/loot")
	require.NoError(t, err)
	rows := make(memRows)
	for _, td := range tables {
		rows[td.Table] = importer.ToRows(td.Rows)
	}
	return rows
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("content.items_dir", "../../content/items")
	v.Set("content.conditions_dir", "../../content/conditions")
	v.Set("content.scripts_dir", "../../content/scripts/loot")
	cfg, err := config.LoadFromViper(v)
	require.NoError(t, err)
	return cfg
}

func newTestWorld(t *testing.T, seed uint64) *world {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), logger)
	w, err := buildWorld(context.Background(), testConfig(t), contentRows(t), roller, logger)
	require.NoError(t, err)
	t.Cleanup(w.scripts.Close)
	return w
}

func brute(runs, party int) scenario {
	return scenario{
		Table:  loot.TableCreature,
		LootID: 100,
		Runs:   runs,
		Party:  party,
		Level:  80,
		Team:   "alliance",
		Quests: map[uint32][]uint32{1200: {5000}},
		Mode:   loot.ModeDefault,
	}
}

func TestBuildWorld_LoadsContent(t *testing.T) {
	w := newTestWorld(t, 1)
	reg := w.registry.Load()

	creature, ok := reg.Store(loot.TableCreature)
	require.True(t, ok)
	assert.Equal(t, 2, creature.Len())
	ref, _ := reg.Store(loot.TableReference)
	assert.Equal(t, 2, ref.Len())

	_, ok = w.items.Lookup(40752)
	assert.True(t, ok)
	assert.Equal(t, 32, w.limits.MaxReferenceDepth)
	assert.Equal(t, 1024, w.limits.MaxReferenceExpansions)
}

func TestSimulate_TalliesEveryRun(t *testing.T) {
	w := newTestWorld(t, 7)
	sc := brute(200, 1)
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	tl, err := w.simulate(sc, owner)
	require.NoError(t, err)
	assert.Equal(t, 200, tl.Runs)
	// The emblem is a guaranteed drop.
	assert.Equal(t, 200, tl.Drops[40752])
	// Exactly one item of the equal-chanced group drops per run.
	assert.Equal(t, 200, tl.Drops[15000]+tl.Drops[15001]+tl.Drops[20000])
	assert.Zero(t, tl.Empty)

	var out bytes.Buffer
	report(&out, tl, w.items)
	assert.Contains(t, out.String(), "Emblem of Valor")
	assert.Contains(t, out.String(), "runs 200")
}

func TestFill_QuestItemNeedsActiveQuest(t *testing.T) {
	w := newTestWorld(t, 3)
	sc := brute(1, 1)
	sc.Quests = nil
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		s, ok := w.fill(sc, owner)
		require.True(t, ok)
		view, ok := s.View(owner.ID())
		require.True(t, ok)
		assert.Empty(t, view.Quest)
	}
}

func TestParseQuests(t *testing.T) {
	got, err := parseQuests("1200:5000+5001, 1201")
	require.NoError(t, err)
	assert.Equal(t, map[uint32][]uint32{1200: {5000, 5001}, 1201: nil}, got)

	_, err = parseQuests("x:1")
	assert.Error(t, err)
	_, err = parseQuests("1:y")
	assert.Error(t, err)
}

func TestSimulate_UnknownTemplate(t *testing.T) {
	w := newTestWorld(t, 1)
	sc := brute(1, 1)
	sc.LootID = 4242
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	_, err = w.simulate(sc, owner)
	assert.Error(t, err)
}

func TestSetupParty_FormsPartyWithThreshold(t *testing.T) {
	w := newTestWorld(t, 1)
	sc := brute(1, 3)
	sc.Threshold = "rare"
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	info, ok := w.participants.GroupOf(owner.ID())
	require.True(t, ok)
	assert.Len(t, info.Members, 3)
	assert.Equal(t, owner.ID(), info.MasterLooter)

	sc.Threshold = "shiny"
	_, err = setupParty(newTestWorld(t, 1).participants, sc)
	assert.Error(t, err)
}

func TestDumpViews_EncodesEveryMember(t *testing.T) {
	w := newTestWorld(t, 11)
	sc := brute(1, 2)
	sc.MoneyMin, sc.MoneyMax = 100, 500
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, w.dumpViews(&out, sc, owner, loot.PermissionGroup))
	assert.Contains(t, out.String(), "viewer 1 group")
	assert.Contains(t, out.String(), "viewer 2 group")
}

func TestAutoLooter_TakesCurrencyTokens(t *testing.T) {
	w := newTestWorld(t, 5)
	sc := brute(1, 1)
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	s, ok := w.fill(sc, owner)
	require.True(t, ok)
	view, ok := s.View(owner.ID())
	require.True(t, ok)
	var emblem bool
	for _, fe := range view.FreeForAll {
		if s.Items[fe.Index].ItemID == 40752 {
			emblem = true
			assert.True(t, fe.Looted, "currency tokens are stored as soon as the view is built")
		}
	}
	assert.True(t, emblem)
}

func TestReload_SwapsTemplatesUnderTheEngine(t *testing.T) {
	w := newTestWorld(t, 9)
	sc := brute(20, 1)
	owner, err := setupParty(w.participants, sc)
	require.NoError(t, err)

	trimmed := memRows{
		loot.TableCreature: {{Entry: 100, Item: 40752, Chance: 100, LootMode: 1, MinCount: 1, MaxCount: 1}},
	}
	logger := zaptest.NewLogger(t)
	r := server.NewReloader(w.registry, func(ctx context.Context) (*loot.Registry, error) {
		return loadRegistry(ctx, trimmed, w.items, w.conditions, w.limits, logger)
	}, nil, logger)
	require.True(t, r.Reload(context.Background()))

	tl, err := w.simulate(sc, owner)
	require.NoError(t, err)
	assert.Equal(t, map[uint32]int{40752: 20}, tl.Drops)

	sc.LootID = 101
	_, err = w.simulate(sc, owner)
	assert.Error(t, err, "template 101 is gone after the reload")
}
