package host

import "sync/atomic"

// RegisteredFunctionGuard is an owning handle that unregisters its
// function name when Close is called. It is the Go analogue of the
// C++ prototype's move-only guard (original_source's
// RegisteredFunctionGuard): Go has no copy constructors to delete, so
// non-copyability is enforced by convention — callers pass *Guard, never
// Guard by value — and idempotent Close stands in for "move leaves the
// source inert" (spec.md §4.4).
type RegisteredFunctionGuard struct {
	bridge *Bridge
	name   string
	closed atomic.Bool
}

// RegisterGuarded registers fn under name and returns a guard that
// unregisters it on Close. Used by embedders to scope temporary host
// functions (spec.md §4.4).
func RegisterGuarded(b *Bridge, name string, fn Func) *RegisteredFunctionGuard {
	b.RegisterFunction(name, fn)
	return &RegisteredFunctionGuard{bridge: b, name: name}
}

// Close unregisters the guarded function. Safe to call more than once;
// only the first call has effect.
func (g *RegisteredFunctionGuard) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	g.bridge.UnregisterFunction(g.name)
	return nil
}

// Release detaches the guard from its function without unregistering it
// — the Go equivalent of the move-from side of a moved-out guard
// becoming inert, used when ownership is being handed elsewhere.
func (g *RegisteredFunctionGuard) Release() {
	g.closed.Store(true)
}
