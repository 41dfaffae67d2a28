// Package engine ties the Lexer, Parser, Compiler, Module Manager, VM and
// Host Bridge together behind the embedding contract of spec.md §6.1.
//
// spec.md §9 notes that the prototype makes the HostBridge and
// ModuleManager process-wide singletons "by design," but recommends that
// "an implementation with pluggable runtimes... pass them explicitly
// instead." Engine follows that second path: it is a plain value type,
// not a package-level global, so an embedder can run several independent
// runtimes in one process (grounded on the overall wiring shape of the
// teacher's main.go/cmd_*.go, elevated out of package-level functions).
package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"unitrt/ast"
	"unitrt/compiler"
	"unitrt/host"
	"unitrt/lexer"
	"unitrt/modmgr"
	"unitrt/parser"
	"unitrt/vm"
)

// Engine is one embeddable runtime instance.
type Engine struct {
	InstanceID uuid.UUID

	Bridge  *host.Bridge
	Modules *modmgr.Manager
	VM      *vm.VM

	reclaimStop chan struct{}
}

// New constructs a fresh runtime with its own Bridge, Module Manager and VM.
func New() *Engine {
	bridge := host.NewBridge()
	return &Engine{
		InstanceID: uuid.New(),
		Bridge:     bridge,
		Modules:    modmgr.NewManager(),
		VM:         vm.New(bridge),
	}
}

// CompileSource runs the full load-time pipeline — lex, parse, compile —
// for every unit in source, returning one CompiledUnit per unit (spec.md
// §2's "source text → Lexer → ... → Bytecode Compiler").
func (e *Engine) CompileSource(source string) ([]compiler.CompiledUnit, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, fmt.Errorf("engine: lex error: %w", err)
	}

	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("engine: parse error: %w", err)
	}

	return e.CompileProgram(program)
}

// CompileProgram compiles an already-parsed Program.
func (e *Engine) CompileProgram(program ast.Program) ([]compiler.CompiledUnit, error) {
	units := make([]compiler.CompiledUnit, 0, len(program.Units))
	for _, u := range program.Units {
		cu, err := compiler.CompileUnit(u)
		if err != nil {
			return nil, fmt.Errorf("engine: compile error in unit %q: %w", u.Name, err)
		}
		units = append(units, cu)
	}
	return units, nil
}

// Install installs every compiled unit into the Module Manager, hot-
// swapping any unit that shares a name with one already installed
// (spec.md §4.6).
func (e *Engine) Install(units []compiler.CompiledUnit) {
	for _, cu := range units {
		e.Modules.Install(modmgr.FromCompiledUnit(cu))
	}
}

// LoadAndInstall is the common embedder path: compile source and install
// every resulting unit in one call.
func (e *Engine) LoadAndInstall(source string) error {
	units, err := e.CompileSource(source)
	if err != nil {
		return err
	}
	e.Install(units)
	return nil
}

// Dispatch invokes handler on the named module (spec.md §6.1's "invoke
// handlers by (module, handler-name)"). A missing module or handler is
// non-fatal, matching the VM's own dispatch-miss handling.
func (e *Engine) Dispatch(module, handler string) error {
	m := e.Modules.Get(module)
	if m == nil {
		fmt.Fprintf(os.Stderr, "engine: dispatch miss: no module named %q\n", module)
		return nil
	}
	return e.VM.ExecuteHandler(m, handler)
}

// StartReclaimLoop periodically invokes tick_reclaim() on its own
// goroutine (spec.md §6.1's "periodically invoke tick_reclaim()") until
// StopReclaimLoop is called.
func (e *Engine) StartReclaimLoop(interval time.Duration) {
	e.reclaimStop = make(chan struct{})
	go func(stop chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Modules.TickReclaim()
			case <-stop:
				return
			}
		}
	}(e.reclaimStop)
}

// StopReclaimLoop stops a loop started by StartReclaimLoop. Safe to call
// even if no loop is running.
func (e *Engine) StopReclaimLoop() {
	if e.reclaimStop == nil {
		return
	}
	close(e.reclaimStop)
	e.reclaimStop = nil
}
