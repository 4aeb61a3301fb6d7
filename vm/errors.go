package vm

import "fmt"

// RuntimeError reports a failure raised while executing bytecode: a type
// mismatch in an arithmetic/comparison operator, an undefined global, or
// a call-arity mismatch. It carries the source line the failing
// instruction was compiled from, so the CLI driver can print the same
// `[line <N>] ...` shape the compiler uses for its own diagnostics.
type RuntimeError struct {
	Line    int32
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: [line %d] %s", e.Line, e.Message)
}
