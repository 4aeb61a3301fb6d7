package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/emberlang/emberc/compiler"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

// disasmCmd compiles a source file and prints its disassembly to
// stdout, stamped with a fresh build UUID so two disassembly runs of
// the same source (e.g. before/after a compiler change) can be told
// apart when diffed side by side.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a compiled Ember source file" }
func (*disasmCmd) Usage() string {
	return `disasm <file.ember>:
  Compile a source file and print its disassembly.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

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

	fn, err := compiler.NewContext().Compile(string(data), os.Stderr)
	if err != nil {
		os.Exit(65)
	}

	buildID := uuid.New()
	fmt.Printf("== build %s ==\n", buildID)
	fmt.Print(compiler.Disassemble(fn))
	return subcommands.ExitSuccess
}
