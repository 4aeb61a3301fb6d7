// Package vm implements the stack-based virtual machine that executes
// the bytecode produced by package compiler, per their shared wire
// format.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/emberlang/emberc/value"
)

const maxFrames = 256

// callFrame tracks one in-flight call: the closure being executed, the
// instruction pointer into that closure's function's chunk, and the
// stack height at which the frame's local slots begin (slot 0 is the
// closure itself, per the compiler's reserved receiver slot).
type callFrame struct {
	closure   *value.ObjClosure
	ip        int
	slotsBase int
}

func (f *callFrame) chunk() *value.Chunk {
	return f.closure.Function.Chunk
}

// VM is Ember's bytecode interpreter: an operand stack, a stack of call
// frames, and the runtime globals table (name -> value, distinct from
// the compiler's compile-time immutability side table).
type VM struct {
	stack   *stack
	frames  []callFrame
	globals map[*value.ObjString]value.Value
	out     io.Writer
}

// New creates a VM that writes PRINT output to out (os.Stdout if nil).
func New(out io.Writer) *VM {
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		stack:   newStack(),
		globals: make(map[*value.ObjString]value.Value),
		out:     out,
	}
}

// Run wraps fn in a closure, pushes the initial call frame, and executes
// until the outermost frame returns.
func (vm *VM) Run(fn *value.ObjFunction) error {
	closure := value.NewClosure(fn)
	vm.stack.push(value.FromObject(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) currentFrame() *callFrame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) runtimeError(format string, args ...any) error {
	line := int32(0)
	if len(vm.frames) > 0 {
		f := vm.currentFrame()
		if f.ip > 0 && f.ip <= len(f.chunk().Lines) {
			line = f.chunk().Lines[f.ip-1]
		}
	}
	return RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

func (vm *VM) readByte(f *callFrame) byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readUint16(f *callFrame) uint16 {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(f *callFrame) value.Value {
	idx := vm.readByte(f)
	return f.chunk().Constants[idx]
}

// call pushes a new call frame for closure, checking arity against the
// argCount arguments already sitting on the stack just above the closure
// itself (compiler-enforced receiver-slot-0 convention).
func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure:   closure,
		slotsBase: vm.stack.height() - argCount - 1,
	})
	return nil
}

func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObj() {
		switch callable := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(callable, argCount)
		case *value.ObjNative:
			if argCount != callable.Arity {
				return vm.runtimeError("Expected %d arguments but got %d.", callable.Arity, argCount)
			}
			args := vm.stack.values[vm.stack.height()-argCount:]
			result, err := callable.Fn(args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stack.truncateTo(vm.stack.height() - argCount - 1)
			vm.stack.push(result)
			return nil
		}
	}
	return vm.runtimeError("Can only call functions.")
}

// run is the fetch-decode-execute loop. It returns when the outermost
// call frame returns, or on the first runtime error.
func (vm *VM) run() error {
	for {
		f := vm.currentFrame()
		op := value.Opcode(vm.readByte(f))

		switch op {
		case value.OpConstant:
			vm.stack.push(vm.readConstant(f))

		case value.OpNil:
			vm.stack.push(value.Nil())
		case value.OpTrue:
			vm.stack.push(value.Bool(true))
		case value.OpFalse:
			vm.stack.push(value.Bool(false))

		case value.OpPop:
			vm.stack.pop()

		case value.OpGetLocal:
			slot := vm.readByte(f)
			vm.stack.push(vm.stack.values[f.slotsBase+int(slot)])
		case value.OpSetLocal:
			slot := vm.readByte(f)
			vm.stack.values[f.slotsBase+int(slot)] = vm.stack.peek(0)

		case value.OpGetGlobal:
			name := vm.readConstant(f).AsObj().(*value.ObjString)
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.stack.push(v)
		case value.OpDefineGlobal:
			name := vm.readConstant(f).AsObj().(*value.ObjString)
			vm.globals[name] = vm.stack.pop()
		case value.OpSetGlobal:
			name := vm.readConstant(f).AsObj().(*value.ObjString)
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals[name] = vm.stack.peek(0)

		case value.OpEqual:
			b := vm.stack.pop()
			a := vm.stack.pop()
			vm.stack.push(value.Bool(a.Equal(b)))
		case value.OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case value.OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case value.OpAdd:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a + b) }); err != nil {
				return err
			}
		case value.OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case value.OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case value.OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case value.OpNot:
			vm.stack.push(value.Bool(vm.stack.pop().IsFalsey()))
		case value.OpNegate:
			v := vm.stack.pop()
			if !v.IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.stack.push(value.Number(-v.AsNumber()))

		case value.OpPrint:
			fmt.Fprintln(vm.out, vm.stack.pop().String())

		case value.OpJump:
			offset := vm.readUint16(f)
			f.ip += int(offset)
		case value.OpJumpIfFalse:
			offset := vm.readUint16(f)
			if vm.stack.peek(0).IsFalsey() {
				f.ip += int(offset)
			}
		case value.OpLoop:
			offset := vm.readUint16(f)
			f.ip -= int(offset)

		case value.OpCall:
			argCount := int(vm.readByte(f))
			callee := vm.stack.peek(argCount)
			if err := vm.callValue(callee, argCount); err != nil {
				return err
			}

		case value.OpClosure:
			fn := vm.readConstant(f).AsObj().(*value.ObjFunction)
			vm.stack.push(value.FromObject(value.NewClosure(fn)))

		case value.OpReturn:
			result := vm.stack.pop()
			finishedFrame := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.stack.truncateTo(finishedFrame.slotsBase)
			vm.stack.push(result)

		default:
			return vm.runtimeError("unknown opcode %v", op)
		}
	}
}

func (vm *VM) binaryNumberOp(apply func(a, b float64) value.Value) error {
	b := vm.stack.pop()
	a := vm.stack.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.stack.push(apply(a.AsNumber(), b.AsNumber()))
	return nil
}
