// Package value defines Ember's runtime value representation: the tagged
// Value union, the Object heap types it can reference, and the Chunk
// bytecode container that both the compiler and the VM operate on.
//
// Chunk and Object live here rather than in package compiler because an
// ObjFunction owns a Chunk and a Chunk's constant pool holds Values —
// splitting them across packages would force an import cycle between
// this package and whichever package held Chunk.
package value

import "fmt"

// Type tags a Value's contents. The zero Type is ValNil so a zero Value
// behaves as nil without explicit initialization.
type Type uint8

const (
	ValNil Type = iota
	ValBool
	ValNumber
	ValObj
)

// Value is Ember's tagged runtime value: boolean, nil, double-precision
// number, or a reference into the object heap. Equality is structural per
// tag for Bool/Number/Nil; objects compare by identity (see object.go —
// interning makes identity and content-equality coincide for strings).
type Value struct {
	Type   Type
	Number float64
	Obj    Object
}

func Nil() Value               { return Value{Type: ValNil} }
func Bool(b bool) Value        { return Value{Type: ValBool, Number: boolToFloat(b)} }
func Number(n float64) Value   { return Value{Type: ValNumber, Number: n} }
func FromObject(o Object) Value { return Value{Type: ValObj, Obj: o} }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) AsBool() bool      { return v.Number != 0 }
func (v Value) AsNumber() float64 { return v.Number }
func (v Value) AsObj() Object     { return v.Obj }

// IsFalsey implements Ember's truthiness rule: nil and false are falsey,
// everything else — including 0 and the empty string — is truthy.
func (v Value) IsFalsey() bool {
	return v.Type == ValNil || (v.Type == ValBool && !v.AsBool())
}

// Equal implements Value equality: structural for Bool/Number/Nil, by
// object identity for Obj (string interning makes equal-content strings
// identical objects, so this also covers string equality).
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return v.AsBool() == other.AsBool()
	case ValNumber:
		return v.Number == other.Number
	case ValObj:
		return v.Obj == other.Obj
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		return fmt.Sprintf("%t", v.AsBool())
	case ValNumber:
		return formatNumber(v.Number)
	case ValObj:
		if v.Obj == nil {
			return "<nil obj>"
		}
		return v.Obj.String()
	default:
		return "<?>"
	}
}

func formatNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}
