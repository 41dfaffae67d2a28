package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"unitrt/engine"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	e := engine.New()

	subcommands.Register(&installCmd{engine: e}, "")
	subcommands.Register(&dispatchCmd{engine: e}, "")
	subcommands.Register(&replCmd{engine: e}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	fmt.Fprintf(os.Stderr, "unitrt runtime %s\n", e.InstanceID)
	os.Exit(int(subcommands.Execute(ctx)))
}
