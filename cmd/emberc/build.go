package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/emberlang/emberc/compiler"
	"github.com/emberlang/emberc/value"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

// buildCmd compiles a source file to a .ebc artifact: a hex dump of its
// bytecode plus a disassembly listing, both stamped with the same build
// UUID.
type buildCmd struct {
	dumpBytecode bool
	disassemble  bool
	maxConstants int
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "Compile an Ember source file to a .ebc artifact" }
func (*buildCmd) Usage() string {
	return `build <file.ember>:
  Compile a source file and write its bytecode/disassembly to <file>.ebc.
`
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	dumpDefault, disasmDefault, maxConstDefault := true, true, 256
	if projectConfig != nil {
		dumpDefault = projectConfig.BoolDefault(projectConfig.DumpBytecode, dumpDefault)
		disasmDefault = projectConfig.BoolDefault(projectConfig.Disassemble, disasmDefault)
		maxConstDefault = projectConfig.IntDefault(projectConfig.MaxConstants, maxConstDefault)
	}
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", dumpDefault, "write the raw bytecode as hex")
	f.BoolVar(&cmd.disassemble, "disassemble", disasmDefault, "append a human-readable disassembly")
	f.IntVar(&cmd.maxConstants, "maxConstants", maxConstDefault,
		"warn (without relaxing the hard 256 limit) when any function's constant pool exceeds this count")
}

func (cmd *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourcePath := args[0]

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	fn, err := compiler.NewContext().Compile(string(data), os.Stderr)
	if err != nil {
		os.Exit(65)
	}

	buildID := uuid.New()
	warnOversizedConstantPools(fn, cmd.maxConstants, os.Stderr)

	outPath := strings.TrimSuffix(sourcePath, filepathExt(sourcePath)) + ".ebc"
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to create %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	fmt.Fprintf(out, "build %s\n", buildID)

	if cmd.dumpBytecode {
		fmt.Fprintf(out, "%x\n", fn.Chunk.Code)
	}
	if cmd.disassemble {
		fmt.Fprint(out, compiler.Disassemble(fn))
	}

	return subcommands.ExitSuccess
}

func warnOversizedConstantPools(fn *value.ObjFunction, max int, errOut *os.File) {
	if len(fn.Chunk.Constants) > max {
		fmt.Fprintf(errOut, "warning: %s has %d constants, over the configured threshold of %d\n",
			fn.String(), len(fn.Chunk.Constants), max)
	}
	for _, c := range fn.Chunk.Constants {
		if !c.IsObj() {
			continue
		}
		if nestedFn, ok := c.AsObj().(*value.ObjFunction); ok {
			warnOversizedConstantPools(nestedFn, max, errOut)
		}
	}
}

func filepathExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
