package compiler

import (
	"github.com/emberlang/emberc/token"
	"github.com/emberlang/emberc/value"
)

// declaration parses one declaration — a variable or function
// declaration, or falls through to statement() — and synchronizes on
// error so one bad declaration does not abort the whole compile.
func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration(false)
	case c.match(token.VAL):
		c.varDeclaration(true)
	case c.match(token.FUNC):
		c.funDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

// varDeclaration parses `var`/`val` name [= expr] ; . `val` requires an
// initializer; an absent initializer otherwise emits NIL.
func (c *Compiler) varDeclaration(immutable bool) {
	c.consume(token.IDENTIFIER, "Expect variable name.")
	name := c.previous

	isGlobal := c.top.scopeDepth == 0
	var globalConst byte
	var globalName *value.ObjString
	if isGlobal {
		globalConst, globalName = c.identifierConstant(name.Lexeme)
	} else {
		if err := c.top.declareLocal(name.Lexeme, immutable); err != nil {
			c.errorAtPrevious(err.(SemanticError).Message)
		}
	}

	hasInitializer := c.match(token.ASSIGN)
	if hasInitializer {
		c.expression()
	} else {
		if immutable {
			err := SemanticError{Message: "Can't declare immutable variable without initializer"}
			c.errorAtPrevious(err.Message)
		}
		c.emitOpcode(value.OpNil, name.Line)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	if isGlobal {
		c.globals.declare(globalName, immutable)
		c.emitOpcode(value.OpDefineGlobal, name.Line, globalConst)
	} else {
		c.top.markInitialized()
	}
}

// funDeclaration parses `fun name ( params ) { body }`. The function's
// own name slot is marked initialized before the body compiles, so a
// function may call itself recursively.
func (c *Compiler) funDeclaration() {
	c.consume(token.IDENTIFIER, "Expect function name.")
	name := c.previous

	isGlobal := c.top.scopeDepth == 0
	var globalConst byte
	var globalName *value.ObjString
	if isGlobal {
		globalConst, globalName = c.identifierConstant(name.Lexeme)
	} else {
		if err := c.top.declareLocal(name.Lexeme, true); err != nil {
			c.errorAtPrevious(err.(SemanticError).Message)
		}
		c.top.markInitialized()
	}

	c.compileFunction(name.Lexeme)

	if isGlobal {
		c.globals.declare(globalName, true)
		c.emitOpcode(value.OpDefineGlobal, name.Line, globalConst)
	}
}

// compileFunction opens a new frame of kind "function", parses the
// parameter list and body block, closes the frame, and emits CLOSURE in
// the enclosing frame referencing the completed function constant.
func (c *Compiler) compileFunction(name string) {
	fn := value.NewFunction()
	fn.Name = c.strings.Intern(name)

	enclosing := c.top
	c.top = newFrame(enclosing, frameFunction, fn)
	c.top.beginScope()

	c.consume(token.LPA, "Expect '(' after function name.")
	if !c.check(token.RPA) {
		for {
			fn.Arity++
			if fn.Arity > 255 {
				err := SemanticError{Message: "Can't have more than 255 parameters."}
				c.errorAtCurrent(err.Message)
			}
			c.consume(token.IDENTIFIER, "Expect parameter name.")
			paramName := c.previous.Lexeme
			if err := c.top.declareLocal(paramName, false); err != nil {
				c.errorAtPrevious(err.(SemanticError).Message)
			}
			c.top.markInitialized()
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after parameters.")
	c.consume(token.LCUR, "Expect '{' before function body.")
	c.block()

	function := c.endCompiler()
	enclosingFn := enclosing.function
	idx, err := enclosingFn.Chunk.AddConstant(value.FromObject(function))
	if err != nil {
		c.top = enclosing
		c.errorAtPrevious(err.Error())
		return
	}
	c.top = enclosing
	c.emitOpcode(value.OpClosure, c.previous.Line, byte(idx))
}

// statement dispatches to the handler for one non-declaration statement.
func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.LCUR):
		c.top.beginScope()
		c.block()
		c.endScopeEmittingPops()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOpcode(value.OpPrint, c.previous.Line)
}

func (c *Compiler) returnStatement() {
	line := c.previous.Line
	if c.top.kind == frameScript {
		err := SemanticError{Message: "Can't return from top-level code"}
		c.errorAtPrevious(err.Message)
	}
	if c.match(token.SEMICOLON) {
		c.emitOpcode(value.OpNil, line)
		c.emitOpcode(value.OpReturn, line)
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOpcode(value.OpReturn, c.previous.Line)
}

// breakStatement pops the locals the jump is escaping and emits an
// unpatched JUMP that the enclosing loop statement patches to land just
// past the loop once it knows where that is.
func (c *Compiler) breakStatement() {
	line := c.previous.Line
	loop := c.top.currentLoop()
	if loop == nil {
		err := SemanticError{Message: "Can't use 'break' outside of a loop."}
		c.errorAtPrevious(err.Message)
		c.consume(token.SEMICOLON, "Expect ';' after 'break'.")
		return
	}
	for i := 0; i < c.top.localsAboveDepth(loop.scopeDepth); i++ {
		c.emitOpcode(value.OpPop, line)
	}
	loop.breakJumps = append(loop.breakJumps, c.emitJump(value.OpJump))
	c.consume(token.SEMICOLON, "Expect ';' after 'break'.")
}

// continueStatement pops the locals the jump is escaping and loops back
// to the loop's continue target (the condition for `while`, the
// increment clause for `for`).
func (c *Compiler) continueStatement() {
	line := c.previous.Line
	loop := c.top.currentLoop()
	if loop == nil {
		err := SemanticError{Message: "Can't use 'continue' outside of a loop."}
		c.errorAtPrevious(err.Message)
		c.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
		return
	}
	for i := 0; i < c.top.localsAboveDepth(loop.scopeDepth); i++ {
		c.emitOpcode(value.OpPop, line)
	}
	c.emitLoop(loop.continueTarget)
	c.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOpcode(value.OpPop, c.previous.Line)
}

// block compiles declarations until '}' or end-of-file. It does not
// open or close the scope itself — callers (the block statement and
// function bodies) own that so function parameter scopes and block
// scopes nest correctly.
func (c *Compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "Expect '}' after block.")
}

// endScopeEmittingPops closes the current scope and emits one POP per
// local that went out of scope — deliberately not the single
// consolidated pop-count instruction some bytecode VMs in this family
// use, since the wire format here has no such opcode.
func (c *Compiler) endScopeEmittingPops() {
	popped := c.top.endScope()
	line := c.previous.Line
	for range popped {
		c.emitOpcode(value.OpPop, line)
	}
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPA, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOpcode(value.OpPop, c.previous.Line)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emitOpcode(value.OpPop, c.previous.Line)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.top.chunk().Code)

	c.consume(token.LPA, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOpcode(value.OpPop, c.previous.Line)

	c.top.pushLoop(loopStart)
	c.statement()
	loop := c.top.popLoop()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOpcode(value.OpPop, c.previous.Line)

	for _, jump := range loop.breakJumps {
		c.patchJump(jump)
	}
}

// forStatement desugars `for (init; cond; incr) body` into the
// equivalent while-loop bytecode shape.
func (c *Compiler) forStatement() {
	c.top.beginScope()
	c.consume(token.LPA, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration(false)
	case c.match(token.VAL):
		c.varDeclaration(true)
	default:
		c.expressionStatement()
	}

	loopStart := len(c.top.chunk().Code)
	exitJump := -1
	if !c.check(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emitOpcode(value.OpPop, c.previous.Line)
	} else {
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
	}

	if !c.check(token.RPA) {
		bodyJump := c.emitJump(value.OpJump)

		incrementStart := len(c.top.chunk().Code)
		c.expression()
		c.emitOpcode(value.OpPop, c.previous.Line)
		c.consume(token.RPA, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPA, "Expect ')' after for clauses.")
	}

	c.top.pushLoop(loopStart)
	c.statement()
	loop := c.top.popLoop()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOpcode(value.OpPop, c.previous.Line)
	}

	for _, jump := range loop.breakJumps {
		c.patchJump(jump)
	}

	c.endScopeEmittingPops()
}

// synchronize discards tokens until a likely statement/declaration
// boundary, clearing panic-mode but preserving had-error.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.TokenType != token.EOF {
		if c.previous.TokenType == token.SEMICOLON {
			return
		}
		switch c.current.TokenType {
		case token.CLASS, token.FUNC, token.VAR, token.VAL, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN,
			token.BREAK, token.CONTINUE:
			return
		}
		c.advance()
	}
}
