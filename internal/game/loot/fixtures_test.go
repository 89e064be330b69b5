package loot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

type viewer struct {
	id         uint64
	team       string
	skills     map[uint32]bool
	spells     map[uint32]bool
	questItems map[uint32]bool
	showItems  map[uint32]bool
	started    map[uint32]bool
	far        bool
}

func newViewer(id uint64) *viewer {
	return &viewer{
		id:         id,
		team:       "alliance",
		skills:     map[uint32]bool{},
		spells:     map[uint32]bool{},
		questItems: map[uint32]bool{},
		showItems:  map[uint32]bool{},
		started:    map[uint32]bool{},
	}
}

func (v *viewer) ID() uint64                     { return v.id }
func (v *viewer) Level() int                     { return 80 }
func (v *viewer) Team() string                   { return v.team }
func (v *viewer) HasSkill(s uint32) bool         { return v.skills[s] }
func (v *viewer) KnowsSpell(s uint32) bool       { return v.spells[s] }
func (v *viewer) QuestStarted(q uint32) bool     { return v.started[q] }
func (v *viewer) InRewardRange(loot.Origin) bool { return !v.far }
func (v *viewer) HasQuestForItem(item uint32) (bool, bool) {
	return v.questItems[item], v.showItems[item]
}

type directory map[uint64]*viewer

func (d directory) Find(id uint64) (loot.Viewer, bool) {
	v, ok := d[id]
	if !ok {
		return nil, false
	}
	return v, true
}

type groups map[uint64]loot.GroupInfo

func (g groups) GroupOf(id uint64) (loot.GroupInfo, bool) {
	info, ok := g[id]
	return info, ok
}

// party registers every member under the same GroupInfo.
func (g groups) party(info loot.GroupInfo) {
	for _, id := range info.Members {
		g[id] = info
	}
}

type memSource map[string][]loot.Row

func (m memSource) LoadRows(_ context.Context, table string) ([]loot.Row, error) {
	return m[table], nil
}

type removal struct {
	viewer uint64
	slot   uint8
}

type recorder struct {
	removed []removal
	money   []uint64
}

func (r *recorder) ItemRemoved(viewer uint64, slot uint8) {
	r.removed = append(r.removed, removal{viewer, slot})
}

func (r *recorder) MoneyRemoved(viewer uint64) { r.money = append(r.money, viewer) }

type conditionSet map[string]map[uint64]bool

func (c conditionSet) Check(ids []string, v loot.Viewer) bool {
	for _, id := range ids {
		if !c[id][v.ID()] {
			return false
		}
	}
	return true
}

const (
	itemSword   = 100 // equippable, rare
	itemCloth   = 200 // stack 20, poor
	itemOre     = 300 // stack 5
	itemQuest   = 500
	itemGem     = 600 // multi drop
	itemToken   = 700 // multi drop currency token
	itemRecipe  = 800 // soulbound recipe
	itemHorde   = 900
	itemFlask   = 1000
	itemUncap   = 47242
	refID       = 9000
	creatureKey = 1
)

func testCatalog(t *testing.T) *catalog.Registry {
	t.Helper()
	items := []*catalog.Item{
		{ID: itemSword, Name: "sword", MaxStack: 1, DisplayID: 11, InventoryType: 13, Quality: catalog.QualityRare},
		{ID: itemCloth, Name: "cloth", MaxStack: 20, DisplayID: 22, Quality: catalog.QualityPoor},
		{ID: itemOre, Name: "ore", MaxStack: 5, DisplayID: 33, Quality: catalog.QualityNormal},
		{ID: itemQuest, Name: "quest", MaxStack: 1, DisplayID: 55, Quality: catalog.QualityNormal},
		{ID: itemGem, Name: "gem", MaxStack: 1, DisplayID: 66, Quality: catalog.QualityUncommon, Flags: catalog.FlagMultiDrop},
		{ID: itemToken, Name: "token", MaxStack: 1, DisplayID: 77, Flags: catalog.FlagMultiDrop | catalog.FlagCurrencyToken},
		{ID: itemRecipe, Name: "recipe", MaxStack: 1, DisplayID: 88, Class: catalog.ClassRecipe, Bonding: catalog.BondingOnPickup, RecipeSpell: 4242},
		{ID: itemHorde, Name: "horde", MaxStack: 1, DisplayID: 99, Team: "horde"},
		{ID: itemFlask, Name: "flask", MaxStack: 1, DisplayID: 101, Quality: catalog.QualityEpic},
		{ID: itemUncap, Name: "trophy", MaxStack: 1, DisplayID: 102},
	}
	reg, err := catalog.NewRegistryFrom(items)
	require.NoError(t, err)
	return reg
}

func row(entry, item uint32, chance float64, group, min, max int) loot.Row {
	return loot.Row{Entry: entry, Item: item, Chance: chance, LootMode: 1, GroupID: group, MinCount: min, MaxCount: max}
}

func refRow(entry uint32, ref int32, chance float64, group, max int) loot.Row {
	return loot.Row{Entry: entry, Item: uint32(refID), Reference: ref, Chance: chance, LootMode: 1, GroupID: group, MinCount: 1, MaxCount: max}
}

type harness struct {
	engine   *loot.Engine
	registry *loot.Registry
	catalog  *catalog.Registry
	dir      directory
	groups   groups
	notifier *recorder
	conds    conditionSet
	hooks    loot.Hooks
	rates    loot.Rates
	limits   loot.Limits
	seed     uint64
	autoLoot loot.AutoLooter
	logger   *zap.Logger
}

func newHarness(t *testing.T, rows memSource) *harness {
	t.Helper()
	h := &harness{
		catalog:  testCatalog(t),
		dir:      directory{},
		groups:   groups{},
		notifier: &recorder{},
		conds:    conditionSet{},
		rates:    loot.DefaultRates(),
		limits:   loot.DefaultLimits(),
		seed:     1,
		logger:   zap.NewNop(),
	}
	h.registry = loot.NewRegistry(h.logger)
	_, err := h.registry.LoadAll(context.Background(), rows, h.catalog)
	require.NoError(t, err)
	h.build()
	return h
}

// build rewires the engine after a harness field changed.
func (h *harness) build() {
	h.engine = loot.New(loot.Deps{
		Registry:   loot.NewHandle(h.registry),
		Catalog:    h.catalog,
		Directory:  h.dir,
		Roller:     dice.NewLoggedRoller(dice.NewSeededSource(h.seed), h.logger),
		Conditions: h.conds,
		Groups:     h.groups,
		Hooks:      h.hooks,
		Notifier:   h.notifier,
		AutoLooter: h.autoLoot,
		Rates:      &h.rates,
		Limits:     &h.limits,
		Logger:     h.logger,
	})
}

func (h *harness) viewer(id uint64) *viewer {
	v := newViewer(id)
	h.dir[id] = v
	return v
}

func (h *harness) fill(t *testing.T, owner *viewer, opts loot.FillOptions) *loot.Session {
	t.Helper()
	s := h.engine.NewSession(loot.Origin{ID: 77})
	require.True(t, h.engine.Fill(s, loot.TableCreature, creatureKey, owner, opts))
	return s
}

func itemIDs(items []*loot.Item) []uint32 {
	out := make([]uint32, len(items))
	for i, it := range items {
		out[i] = it.ItemID
	}
	return out
}
