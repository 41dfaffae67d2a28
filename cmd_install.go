package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"unitrt/engine"
)

// installCmd implements the install command: it loads source text,
// compiles every unit in it, and installs the results into the shared
// engine (spec.md §4.6's hot-swap install). Passing -handler additionally
// dispatches once, so a single invocation can exercise install+dispatch
// end to end.
type installCmd struct {
	engine  *engine.Engine
	handler string
}

func (*installCmd) Name() string     { return "install" }
func (*installCmd) Synopsis() string { return "Compile a source file and install its units" }
func (*installCmd) Usage() string {
	return `install [-handler Module.Handler] <file>:
  Compile every unit in <file> and install it, hot-swapping any unit
  already installed under the same name. -handler dispatches once after
  installing.
`
}

func (cmd *installCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.handler, "handler", "", "Module.Handler to dispatch immediately after installing")
}

func (cmd *installCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	units, err := cmd.engine.CompileSource(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	cmd.engine.Install(units)
	for _, u := range units {
		fmt.Printf("installed unit %q (%d handler(s))\n", u.Module.Name, len(u.Module.Funcs))
	}

	if cmd.handler == "" {
		return subcommands.ExitSuccess
	}

	module, handler, ok := strings.Cut(cmd.handler, ".")
	if !ok {
		fmt.Fprintf(os.Stderr, "💥 -handler expects Module.Handler, got %q\n", cmd.handler)
		return subcommands.ExitUsageError
	}
	if err := cmd.engine.Dispatch(module, handler); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
