package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"unitrt/compiler"
	"unitrt/lexer"
	"unitrt/parser"
)

// disasmCmd compiles a source file without installing it anywhere and
// prints the resulting bytecode for every handler of every unit, one
// Instr per line (spec.md §3.3). -ast additionally writes the parsed AST
// as JSON alongside the source file.
type disasmCmd struct {
	dumpAST bool
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm [-ast] <file>:
  Lex, parse and compile <file>, printing the resulting instructions for
  every handler. -ast also writes <file>.ast.json (a trailing .ut is
  dropped from <file> first).
`
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpAST, "ast", false, "also write the parsed AST as JSON")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	program, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	if cmd.dumpAST {
		astPath := strings.TrimSuffix(args[0], ".ut") + ".ast.json"
		if err := parser.WriteASTJSONToFile(program, astPath); err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("wrote %s\n", astPath)
	}

	for _, u := range program.Units {
		cu, err := compiler.CompileUnit(u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 unit %q: %v\n", u.Name, err)
			return subcommands.ExitFailure
		}
		printDisassembly(cu.Module)
	}
	return subcommands.ExitSuccess
}

func printDisassembly(mod compiler.ByteModule) {
	fmt.Printf("unit %s\n", mod.Name)
	for _, fn := range mod.Funcs {
		fmt.Printf("  handler %s(%s)  locals=%v\n", fn.Name, strings.Join(fn.Params, ", "), fn.Locals)
		for i, instr := range fn.Code {
			fmt.Printf("    %4d  %s\n", i, instr)
		}
	}
}
