// Package hostlib registers a small, illustrative set of host functions —
// proof that the registration contract in package host works end to end,
// not a catalogue (spec.md §1 scopes the full standard library out; the
// original prototype's equivalent catalogue lives in
// original_source/src/runtime/host_core_funcs.cpp).
package hostlib

import (
	"fmt"
	"time"

	"unitrt/host"
	"unitrt/value"
)

// Register installs "io.print" and "time.now" on bridge, returning guards
// the caller may Close to unregister them.
func Register(bridge *host.Bridge) []*host.RegisteredFunctionGuard {
	return []*host.RegisteredFunctionGuard{
		host.RegisterGuarded(bridge, "io.print", ioPrint(bridge)),
		host.RegisterGuarded(bridge, "time.now", timeNow),
	}
}

// ioPrint mirrors the VM's own PRINT opcode formatting so host-invoked
// output and bytecode-invoked output stay consistent (spec.md §6.3).
func ioPrint(bridge *host.Bridge) host.Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			bridge.Print("nil")
			return value.Nil, nil
		}
		var line string
		for i, a := range args {
			if i > 0 {
				line += " "
			}
			line += a.String()
		}
		bridge.Print(line)
		return value.Nil, nil
	}
}

func timeNow(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("time.now: expects no arguments, got %d", len(args))
	}
	return value.Number(float64(time.Now().UnixMilli())), nil
}
