package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
// engine.log, engine.dice, engine.item and engine.participant.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "item", m.itemModule(L))
	L.SetField(engine, "participant", m.participantModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "chance", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.roller.Chance()))
		return 1
	}))
	L.SetField(mod, "roll_chance", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(m.roller.RollChance(float64(L.CheckNumber(1)))))
		return 1
	}))
	L.SetField(mod, "urand", L.NewFunction(func(L *lua.LState) int {
		lo, hi := L.CheckInt(1), L.CheckInt(2)
		if lo < 0 || hi < 0 {
			L.ArgError(1, "bounds must be non-negative")
			return 0
		}
		L.Push(lua.LNumber(m.roller.URand(uint32(lo), uint32(hi))))
		return 1
	}))
	return mod
}

func (m *Manager) itemModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt(1)
		if m.LookupItem == nil || id < 0 {
			L.Push(lua.LNil)
			return 1
		}
		it, ok := m.LookupItem(uint32(id))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(it.ID))
		t.RawSetString("name", lua.LString(it.Name))
		t.RawSetString("quality", lua.LNumber(it.Quality))
		t.RawSetString("max_stack", lua.LNumber(it.StackSize()))
		t.RawSetString("team", lua.LString(it.Team))
		L.Push(t)
		return 1
	}))
	return mod
}

func (m *Manager) participantModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt64(1)
		if m.FindParticipant == nil || id < 0 {
			L.Push(lua.LNil)
			return 1
		}
		v, ok := m.FindParticipant(uint64(id))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(v.ID()))
		t.RawSetString("level", lua.LNumber(v.Level()))
		t.RawSetString("team", lua.LString(v.Team()))
		L.Push(t)
		return 1
	}))
	L.SetField(mod, "quest_started", L.NewFunction(func(L *lua.LState) int {
		id, quest := L.CheckInt64(1), L.CheckInt(2)
		if m.FindParticipant == nil {
			L.Push(lua.LFalse)
			return 1
		}
		v, ok := m.FindParticipant(uint64(id))
		L.Push(lua.LBool(ok && quest > 0 && v.QuestStarted(uint32(quest))))
		return 1
	}))
	return mod
}
