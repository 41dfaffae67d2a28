// Package vm executes compiled handlers against a Frame of local slots
// (spec.md §4.5), grounded on original_source/src/vm.cpp's
// execute_handler_idx and the teacher's instruction-loop idiom.
package vm

import (
	"fmt"
	"os"

	"unitrt/compiler"
	"unitrt/host"
	"unitrt/modmgr"
	"unitrt/value"
)

// Frame pairs one invocation with its slot vector, sized to the func's
// locals table and allocated fresh per call (spec.md §3.4). Frames never
// escape the invocation that created them.
type Frame struct {
	locals []value.Value
}

// GlobalLoader resolves a named global for LOAD_GLOBAL. The minimal core's
// default always returns Nil (spec.md §4.5: "load_global(name) returns
// Nil in the minimal core"); embedders may supply their own.
type GlobalLoader func(name string) value.Value

// NilGlobals is the default GlobalLoader: spec.md's documented no-globals
// behavior, logged so a missing global is observable.
func NilGlobals(name string) value.Value {
	fmt.Fprintf(os.Stderr, "vm: load_global(%q): no globals table in minimal core, returning nil\n", name)
	return value.Nil
}

// VM runs compiled handlers against a Host Bridge. It holds no per-call
// state itself — everything live during an invocation lives in that
// invocation's Frame — so one VM value can safely serve concurrent
// dispatches (spec.md §5: "The VM itself is single-threaded within one
// invocation").
type VM struct {
	Bridge  *host.Bridge
	Globals GlobalLoader
}

func New(bridge *host.Bridge) *VM {
	return &VM{Bridge: bridge, Globals: NilGlobals}
}

// ExecuteHandler looks up name in module and runs it. A miss is logged and
// non-fatal (spec.md §4.5, §7 "Dispatch miss").
func (vm *VM) ExecuteHandler(module *modmgr.Module, name string) error {
	idx, ok := module.Bytecode.ByName[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "vm: dispatch miss: module %q has no handler %q\n", module.Name, name)
		return nil
	}
	return vm.ExecuteHandlerIdx(module, idx)
}

// ExecuteHandlerIdx runs the idx'th function of module's bytecode
// following the execution protocol of spec.md §4.5.
func (vm *VM) ExecuteHandlerIdx(module *modmgr.Module, idx int) (err error) {
	if idx < 0 || idx >= len(module.Bytecode.Funcs) {
		fmt.Fprintf(os.Stderr, "vm: dispatch miss: index %d out of range for module %q\n", idx, module.Name)
		return nil
	}
	fn := module.Bytecode.Funcs[idx]

	frame := &Frame{locals: make([]value.Value, len(fn.Locals))}

	// active_calls is incremented before any instruction runs and
	// decremented on every exit path, including a host function raise
	// (spec.md §4.5 step 3, §7 "Host function error", P6).
	module.ActiveCalls.Add(1)
	defer module.ActiveCalls.Add(-1)

	for _, instr := range fn.Code {
		if execErr := vm.exec(instr, fn, frame); execErr != nil {
			return execErr
		}
	}
	// Falling off the end gets identical cleanup to RET (spec.md §4.5
	// step 6); RET itself already clears locals within exec, so nothing
	// further is needed here.
	return nil
}

func (vm *VM) exec(instr compiler.Instr, fn compiler.ByteFunc, frame *Frame) error {
	switch instr.Op {
	case compiler.LOAD_NUM:
		c, err := constAt(fn, instr.A)
		if err != nil {
			return err
		}
		num, ok := c.(float64)
		if !ok {
			return RuntimeError{Message: fmt.Sprintf("LOAD_NUM: const[%d] is not a number", instr.A)}
		}
		vm.storeSlot(frame, instr.B, value.Number(num))
	case compiler.LOAD_STR:
		c, err := constAt(fn, instr.A)
		if err != nil {
			return err
		}
		str, ok := c.(string)
		if !ok {
			return RuntimeError{Message: fmt.Sprintf("LOAD_STR: const[%d] is not a string", instr.A)}
		}
		vm.storeSlot(frame, instr.B, value.String(str))
	case compiler.LOAD_GLOBAL:
		vm.storeSlot(frame, instr.B, vm.Globals(instr.S))
	case compiler.STORE_GLOBAL:
		// reserved, no-op (spec.md §3.3)
	case compiler.PRINT:
		vm.Bridge.Print(printSlots(frame.locals))
	case compiler.SPAWN:
		c, err := constAt(fn, instr.A)
		if err != nil {
			return err
		}
		typ, ok := c.(string)
		if !ok {
			return RuntimeError{Message: fmt.Sprintf("SPAWN: const[%d] is not a string", instr.A)}
		}
		r := vm.Bridge.CreateRule(typ)
		slot := instr.B
		if slot == compiler.LastSlot {
			slot = compiler.TmpSlot
		}
		vm.storeSlot(frame, slot, value.FromRule(r))
	case compiler.DROP:
		vm.dropSlot(frame, instr.A)
	case compiler.RET:
		for i := range frame.locals {
			frame.locals[i] = value.Nil
		}
	case compiler.NOP:
		// no effect
	default:
		return RuntimeError{Message: fmt.Sprintf("unknown opcode %v", instr.Op)}
	}
	return nil
}

// constAt bounds-checks a constant-pool index, turning a malformed
// instruction (one a well-behaved compiler would never emit) into a
// RuntimeError instead of an out-of-range panic (spec.md §4.5, §7).
func constAt(fn compiler.ByteFunc, idx int) (any, error) {
	if idx < 0 || idx >= len(fn.Consts) {
		return nil, RuntimeError{Message: fmt.Sprintf("const index %d out of range (pool size %d)", idx, len(fn.Consts))}
	}
	return fn.Consts[idx], nil
}

// storeSlot writes v into locals[slot], silently ignoring an out-of-range
// write (spec.md §4.5 step 4: "Out-of-range slot writes are silently
// ignored").
func (vm *VM) storeSlot(frame *Frame, slot int, v value.Value) {
	if slot < 0 || slot >= len(frame.locals) {
		return
	}
	frame.locals[slot] = v
}

// dropSlot clears a single slot to Nil, or the highest slot when a is the
// LastSlot sentinel (spec.md §3.3's DROP semantics).
func (vm *VM) dropSlot(frame *Frame, a int) {
	slot := a
	if slot == compiler.LastSlot {
		slot = len(frame.locals) - 1
	}
	if slot < 0 || slot >= len(frame.locals) {
		return
	}
	frame.locals[slot] = value.Nil
}

// printSlots implements the observable PRINT contract: scan from the
// highest slot down, print the first non-Nil value, else "nil". This is
// deliberately preserved as specified rather than "fixed" (spec.md §4.5,
// §9 Open Questions).
func printSlots(locals []value.Value) string {
	for i := len(locals) - 1; i >= 0; i-- {
		if !locals[i].IsNil() {
			return locals[i].String()
		}
	}
	return "nil"
}
