package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"unitrt/engine"
	"unitrt/lexer"
	"unitrt/token"
)

// replCmd is an interactive session over one shared engine: type a unit
// definition across as many lines as needed, it installs as soon as its
// braces balance, and "dispatch Module.Handler" invokes a handler already
// installed earlier in the session.
type replCmd struct {
	engine *engine.Engine
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Type unit definitions to install them; "dispatch Module.Handler" to run
  one. "exit" or Ctrl-D quits.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Printf("💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("unitrt interactive session — type \"exit\" to quit")
	runREPL(rl, r.engine)
	return subcommands.ExitSuccess
}

func runREPL(rl *readline.Instance, e *engine.Engine) {
	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			if err == io.EOF || err == readline.ErrInterrupt {
				return
			}
			fmt.Printf("💥 %v\n", err)
			return
		}

		trimmed := strings.TrimSpace(line)
		if buffer.Len() == 0 && trimmed == "exit" {
			return
		}
		if buffer.Len() == 0 && strings.HasPrefix(trimmed, "dispatch ") {
			handleDispatchLine(e, strings.TrimPrefix(trimmed, "dispatch "))
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		tokens, lexErr := lexer.New(buffer.String()).Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}
		if !bracesBalanced(tokens) {
			continue
		}

		units, err := e.CompileSource(buffer.String())
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}
		e.Install(units)
		for _, u := range units {
			fmt.Printf("installed unit %q\n", u.Module.Name)
		}
		buffer.Reset()
	}
}

func handleDispatchLine(e *engine.Engine, rest string) {
	module, handler, ok := strings.Cut(strings.TrimSpace(rest), ".")
	if !ok {
		fmt.Printf("💥 expected \"dispatch Module.Handler\", got %q\n", rest)
		return
	}
	if err := e.Dispatch(module, handler); err != nil {
		fmt.Printf("💥 %v\n", err)
	}
}

// bracesBalanced reports whether every "{" seen so far has a matching
// "}", the same incremental check the teacher's prototype REPL used to
// decide whether to keep reading lines before compiling.
func bracesBalanced(tokens []token.Token) bool {
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	return depth <= 0
}
