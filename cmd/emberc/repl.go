package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/emberlang/emberc/compiler"
	"github.com/emberlang/emberc/lexer"
	"github.com/emberlang/emberc/token"
	"github.com/emberlang/emberc/vm"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
)

// replCmd starts an interactive Ember session: each accepted chunk of
// input is compiled against a single long-lived compiler.Context (so
// global declarations and their mutability persist across lines) and
// run against a single long-lived vm.VM.
type replCmd struct {
	disassemble bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Ember REPL" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Ember session.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	fallback := false
	if projectConfig != nil {
		fallback = projectConfig.BoolDefault(projectConfig.Disassemble, fallback)
	}
	f.BoolVar(&cmd.disassemble, "disassemble", fallback, "print disassembly for every compiled chunk")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	interactive := isatty.IsTerminal(os.Stdin.Fd())

	if interactive {
		fmt.Println("\nWelcome to Ember!")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      ">>> ",
		HistoryFile: "",
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	compileCtx := compiler.NewContext()
	machine := vm.New(os.Stdout)

	var buffer string
	for {
		if buffer == "" {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buffer == "" {
				continue
			}
			buffer = ""
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if line == "exit" && buffer == "" {
			return subcommands.ExitSuccess
		}

		if buffer != "" {
			buffer += "\n"
		}
		buffer += line

		if !isInputReady(buffer) {
			continue
		}

		source := buffer
		buffer = ""

		var diagnostics bytes.Buffer
		fn, err := compileCtx.Compile(source, &diagnostics)
		if err != nil {
			os.Stderr.Write(diagnostics.Bytes())
			continue
		}

		if cmd.disassemble {
			fmt.Fprint(os.Stdout, compiler.Disassemble(fn))
		}

		if runErr := machine.Run(fn); runErr != nil {
			fmt.Fprintln(os.Stderr, runErr.Error())
		}
	}
}

// isInputReady reports whether source contains balanced braces and does
// not end mid-expression, so the REPL knows to keep reading lines
// instead of compiling (and reporting spurious "Expect expression"
// errors for) an unfinished block or binary expression.
func isInputReady(source string) bool {
	lex := lexer.New(source)
	var tokens []token.Token
	for {
		tok := lex.NextToken()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			break
		}
	}

	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV,
		token.BANG, token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS,
		token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL, token.COMMA,
		token.LPA, token.LCUR, token.IF, token.ELSE, token.WHILE,
		token.FOR, token.FUNC, token.RETURN, token.VAR, token.VAL,
		token.AND, token.OR, token.PRINT:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}
