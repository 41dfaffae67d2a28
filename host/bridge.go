// Package host implements the Host Bridge: a registry of host functions,
// the rule-id allocator, and the function manifest (spec.md §4.4).
package host

import (
	"fmt"
	"sync"
	"sync/atomic"

	"unitrt/value"
)

// Func is the erased host function contract: takes a list of Values,
// returns a Value, may raise (spec.md §9: "Dynamic dispatch... a single
// 'takes a list of Values, returns a Value, may raise' contract").
type Func func(args []value.Value) (value.Value, error)

// Bridge is the registry embedders use to expose host functionality to
// the VM, plus the Rule-handle allocator. It is not a package-level
// global: each NewBridge call returns an independent instance.
//
// Concurrency: funcs is protected by its own RWMutex; manifest is
// protected by an independent RWMutex; nextRuleID is lock-free
// (spec.md §4.4, §5).
type Bridge struct {
	funcsMu sync.RWMutex
	funcs   map[string]Func

	manifestMu sync.RWMutex
	manifest   map[string]struct{}

	nextRuleID atomic.Uint32

	stdoutMu sync.Mutex // serializes prints so concurrent calls emit whole lines
}

// NewBridge constructs an empty Bridge. nextRuleID starts such that the
// first minted id is 1 (0 is the reserved "no rule" sentinel).
func NewBridge() *Bridge {
	return &Bridge{
		funcs:    make(map[string]Func),
		manifest: make(map[string]struct{}),
	}
}

// CreateRule mints a fresh Rule handle with a monotonically increasing id
// starting at 1 (spec.md §4.4, §3.5). typ is accepted for symmetry with
// the host contract but does not affect the encoded handle in this spec.
func (b *Bridge) CreateRule(typ string) value.Rule {
	id := b.nextRuleID.Add(1)
	return value.Rule{TypeTag: value.RuleTypeTag, ID: id}
}

// ReleaseRule is an acknowledged no-op, reserved for future pooling
// (spec.md §4.4, §9).
func (b *Bridge) ReleaseRule(value.Rule) {}

// RegisterFunction inserts or replaces a host function and records its
// name in the manifest.
func (b *Bridge) RegisterFunction(name string, fn Func) {
	b.funcsMu.Lock()
	b.funcs[name] = fn
	b.funcsMu.Unlock()

	b.manifestMu.Lock()
	b.manifest[name] = struct{}{}
	b.manifestMu.Unlock()
}

// UnregisterFunction removes the function and its manifest entry,
// reporting whether anything was removed.
func (b *Bridge) UnregisterFunction(name string) bool {
	b.funcsMu.Lock()
	_, existed := b.funcs[name]
	delete(b.funcs, name)
	b.funcsMu.Unlock()

	b.manifestMu.Lock()
	delete(b.manifest, name)
	b.manifestMu.Unlock()

	return existed
}

// HasFunction reports whether name is currently registered.
func (b *Bridge) HasFunction(name string) bool {
	b.funcsMu.RLock()
	defer b.funcsMu.RUnlock()
	_, ok := b.funcs[name]
	return ok
}

// CallFunction looks up name and invokes it, returning ok=false if not
// found. The read lock is released before invoking the function body, so
// a callee that registers or unregisters functions cannot deadlock
// against this call (spec.md §4.4).
func (b *Bridge) CallFunction(name string, args []value.Value) (result value.Value, ok bool, err error) {
	b.funcsMu.RLock()
	fn, found := b.funcs[name]
	b.funcsMu.RUnlock()

	if !found {
		return value.Nil, false, nil
	}
	result, err = fn(args)
	return result, true, err
}

// Manifest returns a snapshot of currently registered function names.
func (b *Bridge) Manifest() []string {
	b.manifestMu.RLock()
	defer b.manifestMu.RUnlock()
	names := make([]string, 0, len(b.manifest))
	for name := range b.manifest {
		names = append(names, name)
	}
	return names
}

// Print serializes a line of output across concurrent callers (spec.md §5:
// "Stdout: serialized via an I/O mutex inside host print functions").
func (b *Bridge) Print(line string) {
	b.stdoutMu.Lock()
	defer b.stdoutMu.Unlock()
	fmt.Println(line)
}
