package compiler

import "github.com/emberlang/emberc/value"

// Disassemble renders fn's chunk as human-readable text, recursing into
// any nested function constants so a single call dumps a whole program.
func Disassemble(fn *value.ObjFunction) string {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	out := value.Disassemble(fn.Chunk, name)

	for _, constant := range fn.Chunk.Constants {
		if constant.IsObj() {
			if nested, ok := constant.AsObj().(*value.ObjFunction); ok {
				out += "\n" + Disassemble(nested)
			}
		}
	}
	return out
}
