package vm

import (
	"testing"

	"unitrt/compiler"
	"unitrt/host"
	"unitrt/lexer"
	"unitrt/modmgr"
	"unitrt/parser"
)

func compileModule(t *testing.T, src string) *modmgr.Module {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cu, err := compiler.CompileUnit(prog.Units[0])
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return modmgr.FromCompiledUnit(cu)
}

func TestExecuteHandlerSpawnCallsCreateRuleOnce(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () r = Spawn("X"); end }`)
	b := host.NewBridge()
	machine := New(b)

	if err := machine.ExecuteHandler(m, "E"); err != nil {
		t.Fatalf("ExecuteHandler: %v", err)
	}
	if got := b.CreateRule("X").ID; got != 2 {
		t.Fatalf("expected handler to have consumed id 1, next mint got %d", got)
	}
}

func TestExecuteHandlerDispatchMissIsNonFatal(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () end }`)
	machine := New(host.NewBridge())
	if err := machine.ExecuteHandler(m, "DoesNotExist"); err != nil {
		t.Fatalf("expected non-fatal nil error on dispatch miss, got %v", err)
	}
}

// TestActiveCallsRestoredAfterExecution exercises P6: active_calls returns
// to its prior value regardless of the execution path.
func TestActiveCallsRestoredAfterExecution(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () Spawn("X"); end }`)
	machine := New(host.NewBridge())
	before := m.ActiveCalls.Load()
	if err := machine.ExecuteHandler(m, "E"); err != nil {
		t.Fatalf("ExecuteHandler: %v", err)
	}
	if after := m.ActiveCalls.Load(); after != before {
		t.Fatalf("active_calls = %d, want %d (unchanged)", after, before)
	}
}

func TestGlobalLoadDefaultsToNil(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () x = g; end }`)
	machine := New(host.NewBridge())
	if err := machine.ExecuteHandler(m, "E"); err != nil {
		t.Fatalf("ExecuteHandler: %v", err)
	}
}

// TestExecuteHandlerUnknownOpcodeIsRuntimeError exercises the VM's own
// malformed-bytecode error path: a well-formed compiler never emits an
// unrecognized opcode, but the VM must still fail loudly rather than
// silently skip it (spec.md §4.5, §7).
func TestExecuteHandlerUnknownOpcodeIsRuntimeError(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () end }`)
	m.Bytecode.Funcs[0].Code = []compiler.Instr{{Op: compiler.Opcode(250)}}

	machine := New(host.NewBridge())
	err := machine.ExecuteHandler(m, "E")
	if err == nil {
		t.Fatal("expected a RuntimeError for an unknown opcode")
	}
	if _, ok := err.(RuntimeError); !ok {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
}

// TestExecuteHandlerOutOfRangeConstIsRuntimeError covers the same
// malformed-bytecode guard for an out-of-range constant-pool index.
func TestExecuteHandlerOutOfRangeConstIsRuntimeError(t *testing.T) {
	m := compileModule(t, `unit U { on E -> () end }`)
	m.Bytecode.Funcs[0].Code = []compiler.Instr{{Op: compiler.LOAD_NUM, A: 99, B: compiler.TmpSlot}}

	machine := New(host.NewBridge())
	err := machine.ExecuteHandler(m, "E")
	if err == nil {
		t.Fatal("expected a RuntimeError for an out-of-range const index")
	}
	if _, ok := err.(RuntimeError); !ok {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
}
