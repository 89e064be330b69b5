package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no table VM is found.
const globalKey = "__global__"

// vm is one sandboxed LState. An LState is single-threaded; mu serializes calls.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel context.CancelFunc
	limit  int
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancel()
	v.L.Close()
}

// Manager owns one sandboxed LState per loot table, plus an optional global
// VM, and exposes hook dispatch. It implements loot.Hooks.
//
// Manager is safe for concurrent use. Calls into the same VM are serialized;
// different VMs run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = engine.item / engine.participant return nil.
	LookupItem      func(id uint32) (*catalog.Item, bool)
	FindParticipant func(id uint64) (loot.Viewer, bool)
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager called with nil roller")
	}
	if logger == nil {
		panic("scripting: NewManager called with nil logger")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadTable creates a sandboxed VM for a loot table, registers all engine.*
// modules, then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: table must be non-empty; scriptDir must be a readable directory.
// Postcondition: Table VM is registered; returns error on Lua load failure.
func (m *Manager) LoadTable(table, scriptDir string, instLimit int) error {
	return m.loadInto(table, scriptDir, instLimit)
}

// LoadGlobal creates the global VM used as a CallHook fallback from any table.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalKey, scriptDir, instLimit)
}

// LoadDir loads root's own *.lua files into the global VM and every
// subdirectory named after a loot table into that table's VM.
//
// Postcondition: Returns the number of table VMs loaded, or the first error.
func (m *Manager) LoadDir(root string, instLimit int) (int, error) {
	if err := m.LoadGlobal(root, instLimit); err != nil {
		return 0, err
	}
	known := make(map[string]bool)
	for _, t := range loot.Tables() {
		known[t] = true
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !known[e.Name()] {
			m.logger.Warn("scripting: ignoring directory not named after a loot table", zap.String("dir", e.Name()))
			continue
		}
		if err := m.LoadTable(e.Name(), filepath.Join(root, e.Name()), instLimit); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	next := &vm{L: L, cancel: cancel, limit: effectiveLimit(instLimit)}
	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = next
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// Close releases every VM.
//
// Postcondition: later CallHook calls find no VM and return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}

func (m *Manager) lookup(key string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[key]; ok {
		return v
	}
	return m.vms[globalKey]
}

// CallHook calls the named Lua global function in table's VM. If the table has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(table, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(table, hook, func(*lua.LState) []lua.LValue { return args })
}

// call runs hook with arguments built inside the VM lock.
func (m *Manager) call(table, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.lookup(table)
	if v == nil {
		m.logger.Debug("scripting: no VM for table",
			zap.String("table", table),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	// Each call gets a fresh opcode budget.
	ctx, cancel := newCountingContext(v.limit)
	defer cancel()
	v.L.SetContext(ctx)

	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("table", table),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}
