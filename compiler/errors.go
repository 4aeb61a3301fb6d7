package compiler

import (
	"fmt"

	"github.com/emberlang/emberc/value"
)

// SyntaxError reports a parser-level failure: a missing expected token,
// an unparseable expression, or an invalid assignment target.
type SyntaxError struct {
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 SyntaxError: %s", e.Message)
}

// SemanticError reports a single-pass resolver/emitter failure: duplicate
// local name, initializer self-reference, reassignment of an immutable
// binding, a missing initializer for `val`, return from top-level code,
// break/continue outside a loop, or a resource limit (too many locals,
// parameters, or arguments). Constant-pool overflow is reported through
// value.ErrTooManyConstants instead.
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// DeveloperError reports an invariant violated by the compiler itself
// rather than by the Ember source being compiled — a jump too long to
// encode, an unknown opcode, a wrong operand count. It is defined in
// package value (the assembler raises it directly when asked to write an
// unknown opcode) and re-exported here under its advertised name.
type DeveloperError = value.DeveloperError
