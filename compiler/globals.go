package compiler

import "github.com/emberlang/emberc/value"

// globalTable is the process-wide mapping from an interned global
// identifier to whether it is immutable.
//
// Keying by constant-pool index would be ambiguous: two `val`
// declarations in different frames can end up with different constant
// indices for the same name. This keys by the interned *value.ObjString
// identity instead, which is unambiguous because string interning
// guarantees one object per distinct name regardless of which frame or
// chunk referenced it.
type globalTable struct {
	immutable map[*value.ObjString]bool
}

func newGlobalTable() *globalTable {
	return &globalTable{immutable: make(map[*value.ObjString]bool)}
}

func (g *globalTable) declare(name *value.ObjString, immutable bool) {
	g.immutable[name] = immutable
}

func (g *globalTable) isImmutable(name *value.ObjString) bool {
	return g.immutable[name]
}
