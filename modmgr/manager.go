// Package modmgr implements the Module Manager: atomic hot-swap install
// plus periodic reclaim of displaced modules (spec.md §4.6), grounded on
// original_source/src/runtime/module.cpp's ModuleManager.
package modmgr

import (
	"sync"
	"sync/atomic"

	"unitrt/compiler"
)

// Module owns a compiled unit and its in-flight call counter (spec.md
// §3.6). ActiveCalls is bumped by the VM around each handler invocation;
// a Module is only freed once it has been displaced from both the active
// map and the pending-reclaim list and ActiveCalls observes zero.
type Module struct {
	Name        string
	Bytecode    compiler.ByteModule
	ActiveCalls atomic.Int64
}

// FromCompiledUnit adapts a freshly compiled unit into an installable Module.
func FromCompiledUnit(cu compiler.CompiledUnit) *Module {
	return &Module{Name: cu.Module.Name, Bytecode: cu.Module}
}

// Manager holds the currently installed modules and the queue of modules
// displaced by a hot-swap, each independently locked (spec.md §4.6, §5).
type Manager struct {
	modulesMu sync.Mutex
	modules   map[string]*Module

	reclaimMu sync.Mutex
	pending   []*Module
}

func NewManager() *Manager {
	return &Manager{modules: make(map[string]*Module)}
}

// Install inserts m by name. If a module with that name already exists it
// is displaced — not freed — onto the pending-reclaim list; the swap is
// atomic with respect to concurrent Get calls because both happen under
// modulesMu (spec.md §4.6).
func (mgr *Manager) Install(m *Module) {
	var old *Module

	mgr.modulesMu.Lock()
	if existing, ok := mgr.modules[m.Name]; ok {
		old = existing
	}
	mgr.modules[m.Name] = m
	mgr.modulesMu.Unlock()

	if old != nil {
		mgr.reclaimMu.Lock()
		mgr.pending = append(mgr.pending, old)
		mgr.reclaimMu.Unlock()
	}
}

// Get returns the currently installed module for name, or nil.
func (mgr *Manager) Get(name string) *Module {
	mgr.modulesMu.Lock()
	defer mgr.modulesMu.Unlock()
	return mgr.modules[name]
}

// TickReclaim frees every pending module whose ActiveCalls has settled at
// zero; modules still in flight are retained for a later tick (spec.md
// §4.6's safety invariant).
func (mgr *Manager) TickReclaim() {
	mgr.reclaimMu.Lock()
	defer mgr.reclaimMu.Unlock()

	keep := mgr.pending[:0:0]
	for _, m := range mgr.pending {
		if m.ActiveCalls.Load() > 0 {
			keep = append(keep, m)
		}
		// else: m is dropped here; Go's GC reclaims it once unreferenced.
	}
	mgr.pending = keep
}

// PendingCount reports how many modules currently await reclaim, for
// tests and diagnostics.
func (mgr *Manager) PendingCount() int {
	mgr.reclaimMu.Lock()
	defer mgr.reclaimMu.Unlock()
	return len(mgr.pending)
}
