package value

import "fmt"

const maxConstants = 256

// ErrTooManyConstants is returned by AddConstant once a chunk's constant
// pool would exceed the single-byte index space.
var ErrTooManyConstants = fmt.Errorf("too many constants in one chunk (max %d)", maxConstants)

// Chunk is the compiled representation of one function: its opcode bytes,
// a parallel line-number vector of identical length, and a constant pool
// indexed by a single byte. Chunks are append-only during compilation and
// grow by doubling, like a standard bytecode buffer.
type Chunk struct {
	Code      []byte
	Lines     []int32
	Constants []Value
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 8),
		Lines:     make([]int32, 0, 8),
		Constants: make([]Value, 0, 8),
	}
}

// WriteByte appends one byte to the chunk's code, recording line as the
// source line that produced it. Code and Lines always grow together.
func (c *Chunk) WriteByte(b byte, line int32) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// Callers must check for ErrTooManyConstants before emitting a CONSTANT
// instruction that references the returned index.
func (c *Chunk) AddConstant(v Value) (int, error) {
	if len(c.Constants) >= maxConstants {
		return 0, ErrTooManyConstants
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}
