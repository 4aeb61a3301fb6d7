// Package compiler implements Ember's single-pass compiler: a scanner
// driven directly by a Pratt/precedence-climbing parser that resolves
// locals and globals and emits bytecode as it goes, with no separate
// AST or IR stage in between.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/emberlang/emberc/lexer"
	"github.com/emberlang/emberc/token"
	"github.com/emberlang/emberc/value"
)

// ErrCompileFailed is returned by Context.Compile when the sticky
// had-error flag was set at any point during compilation. The partial
// chunk is discarded; callers must not use the returned function.
var ErrCompileFailed = errors.New("compilation failed")

// Context bundles the state that spans multiple calls to Compile: the
// interned-string table and the global-immutability side table. Bundling
// these into one explicit object (rather than process globals) lets a
// REPL compile one line at a time while preserving global declarations
// and their mutability across lines.
type Context struct {
	Strings *value.Table
	globals *globalTable
}

// NewContext creates an empty compilation context with a fresh string
// table and global-immutability table.
func NewContext() *Context {
	return &Context{
		Strings: value.NewTable(),
		globals: newGlobalTable(),
	}
}

// Compiler holds the transient state for one compile(source) call:
// parser state (previous/current tokens, had-error, panic-mode) and the
// live stack of compilation frames.
type Compiler struct {
	lexer   *lexer.Lexer
	strings *value.Table
	globals *globalTable
	errOut  io.Writer

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool

	top *frame
}

// Compile compiles source into a top-level function object. On success
// it returns a function with frame kind "script" whose chunk, when run
// to completion by the VM, executes every top-level statement. On
// failure it returns ErrCompileFailed and a nil function; diagnostics
// have already been written to errOut (os.Stderr if nil).
func (ctx *Context) Compile(source string, errOut io.Writer) (*value.ObjFunction, error) {
	if errOut == nil {
		errOut = os.Stderr
	}

	fn := value.NewFunction()
	c := &Compiler{
		lexer:   lexer.New(source),
		strings: ctx.Strings,
		globals: ctx.globals,
		errOut:  errOut,
		top:     newFrame(nil, frameScript, fn),
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	function := c.endCompiler()

	if c.hadError {
		return nil, ErrCompileFailed
	}
	return function, nil
}

// --- parser driver ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lexer.NextToken()
		if c.current.TokenType != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(kind token.TokenType, message string) {
	if c.current.TokenType == kind {
		c.advance()
		return
	}
	err := SyntaxError{Message: message}
	c.errorAtCurrent(err.Message)
}

func (c *Compiler) check(kind token.TokenType) bool {
	return c.current.TokenType == kind
}

func (c *Compiler) match(kind token.TokenType) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

// errorAt reports message at tok, formatted per the compiler's
// diagnostics contract. It is a no-op while panic-mode is already set,
// so a single syntax error does not cascade into a wall of follow-on
// noise.
func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	location := ""
	switch tok.TokenType {
	case token.EOF:
		location = " at end"
	case token.ERROR:
		// no suffix — the lexeme already is the message
	default:
		location = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.errOut, "[line %d] Error%s: %s\n", tok.Line, location, message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous, message)
}

// --- emission helpers ---

func (c *Compiler) emitOpcode(op value.Opcode, line int32, operand ...byte) {
	c.top.chunk().WriteOpcode(op, line, operand...)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.top.chunk().AddConstant(v)
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}
	c.emitOpcode(value.OpConstant, c.previous.Line, byte(idx))
}

// emitJump writes opcode plus a two-byte 0xffff placeholder and returns
// the offset of the first placeholder byte (the patch site).
func (c *Compiler) emitJump(op value.Opcode) int {
	ch := c.top.chunk()
	line := c.previous.Line
	ch.WriteByte(byte(op), line)
	ch.WriteByte(0xff, line)
	ch.WriteByte(0xff, line)
	return len(ch.Code) - 2
}

// patchJump overwrites the placeholder at offset with the big-endian
// distance from just past the operand to the current code position.
func (c *Compiler) patchJump(offset int) {
	ch := c.top.chunk()
	jump := len(ch.Code) - offset - 2
	if jump > 0xffff {
		err := DeveloperError{Message: "Too much code to jump over."}
		c.errorAtPrevious(err.Message)
		return
	}
	ch.PatchUint16(offset, uint16(jump))
}

// emitLoop writes OP_LOOP with the big-endian backward distance to
// loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	ch := c.top.chunk()
	line := c.previous.Line
	ch.WriteByte(byte(value.OpLoop), line)

	offset := len(ch.Code) - loopStart + 2
	if offset > 0xffff {
		err := DeveloperError{Message: "Loop body too large."}
		c.errorAtPrevious(err.Message)
		offset = 0
	}
	ch.WriteByte(byte(offset>>8), line)
	ch.WriteByte(byte(offset), line)
}

// emitReturn appends the implicit `nil; return` every function body
// ends with, whether or not a `return` statement already ran.
func (c *Compiler) emitReturn() {
	c.emitOpcode(value.OpNil, c.previous.Line)
	c.emitOpcode(value.OpReturn, c.previous.Line)
}

// endCompiler finalizes the current frame's function, pops the frame,
// and returns the completed function object to the enclosing frame (or
// to the caller of Compile at the top level).
func (c *Compiler) endCompiler() *value.ObjFunction {
	c.emitReturn()
	fn := c.top.function
	c.top = c.top.enclosing
	return fn
}

// --- variable resolution and assignment ---

// identifierConstant interns name and records it as a constant, for use
// as the operand of a GET_GLOBAL/DEFINE_GLOBAL/SET_GLOBAL instruction.
func (c *Compiler) identifierConstant(name string) (byte, *value.ObjString) {
	obj := c.strings.Intern(name)
	idx, err := c.top.chunk().AddConstant(value.FromObject(obj))
	if err != nil {
		c.errorAtPrevious(err.Error())
		return 0, obj
	}
	return byte(idx), obj
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.Opcode
	var operand byte
	var globalName *value.ObjString
	isLocal := false

	if slot, ok := c.top.resolveLocal(name.Lexeme); ok {
		if c.top.locals[slot].depth == -1 {
			err := SemanticError{Message: "Can't read local variable in its initializer"}
			c.errorAtPrevious(err.Message)
		}
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
		operand = byte(slot)
		isLocal = true
	} else {
		operand, globalName = c.identifierConstant(name.Lexeme)
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && c.match(token.ASSIGN) {
		if isLocal && c.top.locals[operand].immutable {
			err := SemanticError{Message: "Cannot reassign immutable variables"}
			c.errorAtPrevious(err.Message)
		}
		if !isLocal && c.globals.isImmutable(globalName) {
			err := SemanticError{Message: "Cannot reassign immutable variables"}
			c.errorAtPrevious(err.Message)
		}
		c.expression()
		c.emitOpcode(setOp, name.Line, operand)
		return
	}

	c.emitOpcode(getOp, name.Line, operand)
}
