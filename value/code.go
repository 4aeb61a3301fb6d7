package value

import "fmt"

// DeveloperError reports an invariant violated by the compiler itself
// rather than by the Ember source being compiled — a jump too long to
// encode, an unknown opcode, a wrong operand count. Defined here
// rather than in package compiler so the assembler can raise it directly
// without an import cycle; package compiler re-exports it as
// DeveloperError.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}

// Opcode identifies one bytecode instruction. The set and operand widths
// below are the wire format's external interface: a separate VM decodes
// exactly this contract.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpClosure
	OpReturn
)

// OperandWidths gives the number of operand bytes following each opcode.
// Two-byte operands are encoded big-endian; WriteOpcode and the
// disassembler both consult this table for operand widths.
var OperandWidths = map[Opcode]int{
	OpConstant:     1,
	OpNil:          0,
	OpTrue:         0,
	OpFalse:        0,
	OpPop:          0,
	OpGetLocal:     1,
	OpSetLocal:     1,
	OpGetGlobal:    1,
	OpDefineGlobal: 1,
	OpSetGlobal:    1,
	OpEqual:        0,
	OpGreater:      0,
	OpLess:         0,
	OpAdd:          0,
	OpSubtract:     0,
	OpMultiply:     0,
	OpDivide:       0,
	OpNot:          0,
	OpNegate:       0,
	OpPrint:        0,
	OpJump:         2,
	OpJumpIfFalse:  2,
	OpLoop:         2,
	OpCall:         1,
	OpClosure:      1,
	OpReturn:       0,
}

var opcodeNames = map[Opcode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpClosure:      "OP_CLOSURE",
	OpReturn:       "OP_RETURN",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// Width returns the operand byte count for op, and false if op is unknown.
func Width(op Opcode) (int, bool) {
	w, ok := OperandWidths[op]
	return w, ok
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// WriteOpcode appends op and its given operand bytes (none, one or two)
// to the chunk at line. It panics if op's declared width doesn't match
// the number of operand bytes supplied — a programmer error, not a
// compile-time user error.
func (c *Chunk) WriteOpcode(op Opcode, line int32, operand ...byte) {
	width, ok := OperandWidths[op]
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("unknown opcode %v", op)})
	}
	if len(operand) != width {
		panic(DeveloperError{Message: fmt.Sprintf("opcode %v expects %d operand bytes, got %d", op, width, len(operand))})
	}
	c.WriteByte(byte(op), line)
	for _, b := range operand {
		c.WriteByte(b, line)
	}
}

// WriteUint16Operand appends a two-byte opcode (JUMP, JUMP_IF_FALSE, LOOP)
// with a big-endian placeholder or resolved operand.
func (c *Chunk) WriteUint16Operand(op Opcode, operand uint16, line int32) {
	var buf [2]byte
	putUint16(buf[:], operand)
	c.WriteOpcode(op, line, buf[0], buf[1])
}

// PatchUint16 overwrites the two operand bytes starting at codeOffset
// (which must point at the first operand byte, i.e. one past the opcode
// byte) with operand, big-endian.
func (c *Chunk) PatchUint16(codeOffset int, operand uint16) {
	putUint16(c.Code[codeOffset:codeOffset+2], operand)
}

// ReadUint16 reads the two-byte big-endian operand starting at codeOffset.
func (c *Chunk) ReadUint16(codeOffset int) uint16 {
	return getUint16(c.Code[codeOffset : codeOffset+2])
}

// DisassembleInstruction renders the single instruction at offset as
// "<offset> <line> <OP_NAME> <operand?>" and returns the offset of the
// next instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	op := Opcode(c.Code[offset])
	width, ok := OperandWidths[op]
	if !ok {
		return fmt.Sprintf("%04d %4d %s", offset, c.Lines[offset], op), offset + 1
	}

	line := fmt.Sprintf("%4d", c.Lines[offset])
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		line = "   |"
	}

	switch width {
	case 0:
		return fmt.Sprintf("%04d %s %s", offset, line, op), offset + 1
	case 1:
		operand := c.Code[offset+1]
		extra := ""
		if op == OpConstant {
			extra = fmt.Sprintf(" = %s", c.Constants[operand].String())
		}
		return fmt.Sprintf("%04d %s %-18s %4d%s", offset, line, op, operand, extra), offset + 2
	case 2:
		operand := c.ReadUint16(offset + 1)
		return fmt.Sprintf("%04d %s %-18s %4d", offset, line, op, operand), offset + 3
	default:
		return fmt.Sprintf("%04d %s %s <unsupported width %d>", offset, line, op, width), offset + 1 + width
	}
}

// Disassemble renders every instruction in c under a "== name ==" header,
// in the classic per-instruction listing format used by this VM family's
// disassemblers.
func Disassemble(c *Chunk, name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = DisassembleInstruction(c, offset)
		out += line + "\n"
	}
	return out
}
