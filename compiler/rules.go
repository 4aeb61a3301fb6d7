package compiler

import (
	"fmt"
	"strconv"

	"github.com/emberlang/emberc/token"
	"github.com/emberlang/emberc/value"
)

// precedence levels, ascending.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// ruleTable maps each token kind to its (prefix, infix, infix-precedence)
// triple; the handlers are stored as plain function values. getRule reads
// it through rules, which init assigns: several handlers reach getRule
// again via parsePrecedence, so reading ruleTable directly from getRule
// would make a package initialization cycle.
var ruleTable = map[token.TokenType]parseRule{
	token.LPA:          {prefix: grouping, infix: call, precedence: precCall},
	token.RPA:          {},
	token.LCUR:         {},
	token.RCUR:         {},
	token.COMMA:        {},
	token.DOT:          {},
	token.SEMICOLON:    {},
	token.SUB:          {prefix: unary, infix: binary, precedence: precTerm},
	token.ADD:          {infix: binary, precedence: precTerm},
	token.MULT:         {infix: binary, precedence: precFactor},
	token.DIV:          {infix: binary, precedence: precFactor},
	token.BANG:         {prefix: unary},
	token.NOT_EQUAL:    {infix: binary, precedence: precEquality},
	token.ASSIGN:       {},
	token.EQUAL_EQUAL:  {infix: binary, precedence: precEquality},
	token.LESS:         {infix: binary, precedence: precComparison},
	token.LESS_EQUAL:   {infix: binary, precedence: precComparison},
	token.LARGER:       {infix: binary, precedence: precComparison},
	token.LARGER_EQUAL: {infix: binary, precedence: precComparison},
	token.IDENTIFIER:   {prefix: variable},
	token.STRING:       {prefix: stringLiteral},
	token.INT:          {prefix: number},
	token.FLOAT:        {prefix: number},
	token.AND:          {infix: and_, precedence: precAnd},
	token.OR:           {infix: or_, precedence: precOr},
	token.FALSE:        {prefix: literal},
	token.TRUE:         {prefix: literal},
	token.NULL:         {prefix: literal},
}

var rules map[token.TokenType]parseRule

func init() {
	rules = ruleTable
}

func getRule(kind token.TokenType) parseRule {
	return rules[kind]
}

// parsePrecedence implements the Pratt/precedence-climbing core: consume
// a token, dispatch its prefix parselet, then keep consuming infix
// operators whose precedence is at least minPrec.
func (c *Compiler) parsePrecedence(minPrec precedence) {
	c.advance()
	rule := getRule(c.previous.TokenType)
	if rule.prefix == nil {
		err := SyntaxError{Message: "Expect expression"}
		c.errorAtPrevious(err.Message)
		return
	}

	canAssign := minPrec <= precAssignment
	rule.prefix(c, canAssign)

	for minPrec <= getRule(c.current.TokenType).precedence {
		c.advance()
		infixRule := getRule(c.previous.TokenType)
		infixRule.infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		err := SyntaxError{Message: "Invalid assignment target"}
		c.errorAtPrevious(err.Message)
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opType := c.previous.TokenType
	line := c.previous.Line
	c.parsePrecedence(precUnary)

	switch opType {
	case token.SUB:
		c.emitOpcode(value.OpNegate, line)
	case token.BANG:
		c.emitOpcode(value.OpNot, line)
	}
}

func binary(c *Compiler, _ bool) {
	opType := c.previous.TokenType
	line := c.previous.Line
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.ADD:
		c.emitOpcode(value.OpAdd, line)
	case token.SUB:
		c.emitOpcode(value.OpSubtract, line)
	case token.MULT:
		c.emitOpcode(value.OpMultiply, line)
	case token.DIV:
		c.emitOpcode(value.OpDivide, line)
	case token.EQUAL_EQUAL:
		c.emitOpcode(value.OpEqual, line)
	case token.NOT_EQUAL:
		c.emitOpcode(value.OpEqual, line)
		c.emitOpcode(value.OpNot, line)
	case token.LESS:
		c.emitOpcode(value.OpLess, line)
	case token.LESS_EQUAL:
		c.emitOpcode(value.OpGreater, line)
		c.emitOpcode(value.OpNot, line)
	case token.LARGER:
		c.emitOpcode(value.OpGreater, line)
	case token.LARGER_EQUAL:
		c.emitOpcode(value.OpLess, line)
		c.emitOpcode(value.OpNot, line)
	}
}

func literal(c *Compiler, _ bool) {
	line := c.previous.Line
	switch c.previous.TokenType {
	case token.FALSE:
		c.emitOpcode(value.OpFalse, line)
	case token.TRUE:
		c.emitOpcode(value.OpTrue, line)
	case token.NULL:
		c.emitOpcode(value.OpNil, line)
	}
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		syntaxErr := SyntaxError{Message: fmt.Sprintf("Invalid number literal '%s'.", c.previous.Lexeme)}
		c.errorAtPrevious(syntaxErr.Message)
		return
	}
	c.emitConstant(value.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	contents, _ := c.previous.Literal.(string)
	obj := c.strings.Intern(contents)
	c.emitConstant(value.FromObject(obj))
}

// and_ implements short-circuiting `and`: if the left operand is falsey,
// jump over the right operand (it stays on the stack as the result);
// otherwise pop it and evaluate the right operand.
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOpcode(value.OpPop, c.previous.Line)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ implements short-circuiting `or`: if the left operand is falsey,
// jump to the right operand; otherwise jump past it, keeping the left
// operand as the result.
func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(value.OpJumpIfFalse)
	endJump := c.emitJump(value.OpJump)

	c.patchJump(elseJump)
	c.emitOpcode(value.OpPop, c.previous.Line)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// call parses a comma-separated, parenthesized argument list (cap 255)
// and emits CALL argcount.
func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpcode(value.OpCall, c.previous.Line, byte(argCount))
}

func (c *Compiler) argumentList() int {
	count := 0
	if !c.check(token.RPA) {
		for {
			c.expression()
			if count == 255 {
				err := SemanticError{Message: "Can't have more than 255 arguments."}
				c.errorAtPrevious(err.Message)
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after arguments.")
	return count
}
