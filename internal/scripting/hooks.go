package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

// Lua globals consulted by the loot.Hooks implementation.
const (
	HookItemRoll     = "on_loot_item_roll"
	HookEqualChanced = "on_loot_equal_chanced"
	HookProcessed    = "on_loot_processed"
	HookAllowed      = "on_loot_allowed"
)

var _ loot.Hooks = (*Manager)(nil)

// OnItemRoll calls on_loot_item_roll(table, viewer, entry, chance, session).
// A number return replaces the chance, false fails the roll, anything else
// keeps chance.
func (m *Manager) OnItemRoll(viewer uint64, e *loot.Entry, chance float64, s *loot.Session, table string) (float64, bool) {
	ret, _ := m.call(table, HookItemRoll, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(table), lua.LNumber(viewer), entryTable(L, e), lua.LNumber(chance), sessionTable(L, s)}
	})
	switch v := ret.(type) {
	case lua.LNumber:
		return float64(v), true
	case lua.LBool:
		return chance, bool(v)
	}
	return chance, true
}

// OnEqualChanced calls on_loot_equal_chanced(table, viewer, entries, session);
// false yields no drop from the group.
func (m *Manager) OnEqualChanced(viewer uint64, equal []loot.Entry, s *loot.Session, table string) bool {
	ret, _ := m.call(table, HookEqualChanced, func(L *lua.LState) []lua.LValue {
		list := L.NewTable()
		for i := range equal {
			list.Append(entryTable(L, &equal[i]))
		}
		return []lua.LValue{lua.LString(table), lua.LNumber(viewer), list, sessionTable(L, s)}
	})
	return ret != lua.LFalse
}

// OnAfterProcess calls on_loot_processed(table, viewer, session).
func (m *Manager) OnAfterProcess(s *loot.Session, table string, viewer uint64) {
	_, _ = m.call(table, HookProcessed, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(table), lua.LNumber(viewer), sessionTable(L, s)}
	})
}

// AllowLoot calls on_loot_allowed(viewer, source) in the global VM; false vetoes.
func (m *Manager) AllowLoot(viewer, source uint64) bool {
	ret, _ := m.call(globalKey, HookAllowed, func(*lua.LState) []lua.LValue {
		return []lua.LValue{lua.LNumber(viewer), lua.LNumber(source)}
	})
	return ret != lua.LFalse
}

func entryTable(L *lua.LState, e *loot.Entry) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("item_id", lua.LNumber(e.ItemID))
	t.RawSetString("reference", lua.LNumber(e.Reference))
	t.RawSetString("chance", lua.LNumber(e.Chance))
	t.RawSetString("needs_quest", lua.LBool(e.NeedsQuest))
	t.RawSetString("group_id", lua.LNumber(e.GroupID))
	t.RawSetString("min_count", lua.LNumber(e.MinCount))
	t.RawSetString("max_count", lua.LNumber(e.MaxCount))
	return t
}

// sessionTable is a read-only snapshot; scripts cannot mutate the session.
func sessionTable(L *lua.LState, s *loot.Session) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(s.ID.String()))
	t.RawSetString("table", lua.LString(s.Table))
	t.RawSetString("loot_id", lua.LNumber(s.LootID))
	t.RawSetString("source", lua.LNumber(s.Source.ID))
	t.RawSetString("owner", lua.LNumber(s.Owner))
	t.RawSetString("currency", lua.LNumber(s.Currency))
	t.RawSetString("items", itemsTable(L, s.Items))
	t.RawSetString("quest_items", itemsTable(L, s.QuestItems))
	return t
}

func itemsTable(L *lua.LState, items []*loot.Item) *lua.LTable {
	list := L.NewTable()
	for _, it := range items {
		row := L.NewTable()
		row.RawSetString("item_id", lua.LNumber(it.ItemID))
		row.RawSetString("count", lua.LNumber(it.Count))
		row.RawSetString("group_id", lua.LNumber(it.GroupID))
		row.RawSetString("free_for_all", lua.LBool(it.FreeForAll))
		list.Append(row)
	}
	return list
}
