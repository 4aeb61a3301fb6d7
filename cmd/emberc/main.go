// Command emberc is the command-line driver for the Ember bytecode
// compiler and virtual machine: run scripts, disassemble compiled
// bytecode, dump it to disk, or drop into an interactive REPL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")
	subcommands.Register(&buildCmd{}, "")

	var err error
	projectConfig, err = loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "🤖 DeveloperError: failed to read .emberc.yaml: %v\n", err)
		os.Exit(70)
	}

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
