package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/emberlang/emberc/compiler"
	"github.com/emberlang/emberc/vm"

	"github.com/google/subcommands"
)

// runCmd compiles and executes a single Ember source file.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and execute an Ember source file" }
func (*runCmd) Usage() string {
	return `run <file.ember>:
  Compile and execute an Ember source file.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	fn, err := compiler.NewContext().Compile(string(data), os.Stderr)
	if err != nil {
		// Diagnostics already written to stderr by Compile.
		os.Exit(65)
	}

	machine := vm.New(os.Stdout)
	if err := machine.Run(fn); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(70)
	}

	return subcommands.ExitSuccess
}
