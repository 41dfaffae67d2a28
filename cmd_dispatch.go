package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"unitrt/engine"
)

// dispatchCmd runs a file through engine.LoadAndInstall then invokes a
// single (module, handler) pair, the one-shot path spec.md §6.1 expects
// an embedder to take for a triggered event.
type dispatchCmd struct {
	engine *engine.Engine
}

func (*dispatchCmd) Name() string     { return "dispatch" }
func (*dispatchCmd) Synopsis() string { return "Install a source file and dispatch one handler" }
func (*dispatchCmd) Usage() string {
	return `dispatch <file> <module> <handler>:
  Compile and install <file>, then invoke <module>'s <handler>.
`
}

func (cmd *dispatchCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *dispatchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 3 {
		fmt.Fprintf(os.Stderr, "💥 Usage: dispatch <file> <module> <handler>\n")
		return subcommands.ExitUsageError
	}
	file, module, handler := args[0], args[1], args[2]

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := cmd.engine.LoadAndInstall(string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	if err := cmd.engine.Dispatch(module, handler); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
