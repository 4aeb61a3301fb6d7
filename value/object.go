package value

import "fmt"

// Object is the tag interface for everything on Ember's object heap.
// Only ObjString and ObjFunction are produced by the compiler core;
// ObjNative and ObjClosure are produced or consumed only at the VM
// boundary.
type Object interface {
	objectMarker()
	String() string
}

// ObjString is an interned string: identical byte content always maps to
// the same *ObjString, so Value equality for strings reduces to pointer
// comparison. Use the Table type below to intern rather than
// constructing ObjString directly.
type ObjString struct {
	Chars string
	Hash  uint32
}

func (*ObjString) objectMarker() {}
func (s *ObjString) String() string { return s.Chars }

func hashString(s string) uint32 {
	// FNV-1a.
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Table interns strings so that two literals with identical bytes always
// resolve to the same *ObjString. A compiler.Context creates one table and
// shares it across every Compile call made on that context.
type Table struct {
	strings map[string]*ObjString
}

func NewTable() *Table {
	return &Table{strings: make(map[string]*ObjString)}
}

// Intern returns the canonical *ObjString for s, allocating and
// registering one on first sight.
func (t *Table) Intern(s string) *ObjString {
	if existing, ok := t.strings[s]; ok {
		return existing
	}
	obj := &ObjString{Chars: s, Hash: hashString(s)}
	t.strings[s] = obj
	return obj
}

// ObjFunction is a compiled function: its arity, an optional name (nil
// for the implicit top-level script), its owned chunk, and its upvalue
// count. Upvalue capture itself is not implemented by the core compiler —
// the field exists so a VM-side closure extension has somewhere to read
// the count from.
type ObjFunction struct {
	Arity        int
	Name         *ObjString
	Chunk        *Chunk
	UpvalueCount int
}

func NewFunction() *ObjFunction {
	return &ObjFunction{Chunk: NewChunk()}
}

func (*ObjFunction) objectMarker() {}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is a Go function exposed to Ember code as a callable value.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a Go-implemented function for the VM to call directly,
// bypassing the bytecode interpreter loop.
type ObjNative struct {
	Name  string
	Arity int
	Fn    NativeFn
}

func (*ObjNative) objectMarker() {}
func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjClosure wraps a function for invocation by the VM. Upvalues are
// reserved per UpvalueCount but unpopulated until capture is implemented.
type ObjClosure struct {
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
}

func (*ObjClosure) objectMarker() {}
func (c *ObjClosure) String() string { return c.Function.String() }

// ObjUpvalue is the planned capture cell for a closed-over local. Nothing
// in the core compiler populates Location today; it is defined so the
// VM's call-frame machinery has a concrete type to size for.
type ObjUpvalue struct {
	Location *Value
	Closed   Value
}

func (*ObjUpvalue) objectMarker() {}
func (u *ObjUpvalue) String() string { return "upvalue" }
