package compiler

import "github.com/emberlang/emberc/value"

// frameKind distinguishes the implicit top-level script frame from a
// frame opened for a `fun` body.
type frameKind int

const (
	frameScript frameKind = iota
	frameFunction
)

const maxLocals = 256

// local is a compile-time local-variable slot: its source name, the
// scope depth it was declared at (-1 meaning "declared but not yet
// initialized" — the initializer-self-reference guard), its slot index,
// and whether it was declared with `val`.
type local struct {
	name      string
	depth     int
	slot      int
	immutable bool
}

// loopContext tracks one in-flight `while`/`for` loop so `break` and
// `continue` know where to jump: continueTarget is the bytecode offset
// a `continue` loops back to (the condition test for `while`, the
// increment clause for `for`), scopeDepth is the scope depth the loop
// body runs at (so break/continue know how many locals to pop before
// jumping), and breakJumps collects the offsets of `break`'s JUMP
// placeholders for the enclosing loop statement to patch once it knows
// where the loop ends.
type loopContext struct {
	continueTarget int
	scopeDepth     int
	breakJumps     []int
}

// frame is the mutable state for compiling one function: a link to the
// enclosing frame, the function object under construction, the frame's
// kind, its local slot table, the current scope depth, and a stack of
// in-flight loops. Frames are strictly LIFO, pushed on function entry
// and popped on function close; loopContexts is scoped per-frame so a
// `break` inside a function body can never reach an enclosing function's
// loop.
type frame struct {
	enclosing  *frame
	function   *value.ObjFunction
	kind       frameKind
	locals     []local
	scopeDepth int
	loops      []loopContext
}

func newFrame(enclosing *frame, kind frameKind, fn *value.ObjFunction) *frame {
	f := &frame{
		enclosing: enclosing,
		function:  fn,
		kind:      kind,
		locals:    make([]local, 0, maxLocals),
	}
	// Slot 0 is reserved with an empty name — the VM's receiver slot
	// for the function being called.
	f.locals = append(f.locals, local{name: "", depth: 0, slot: 0})
	return f
}

func (f *frame) chunk() *value.Chunk {
	return f.function.Chunk
}

// beginScope opens a new lexical scope.
func (f *frame) beginScope() {
	f.scopeDepth++
}

// endScope closes the current scope and returns the locals that are
// going out of scope, newest first, so the caller can emit one POP per
// local.
func (f *frame) endScope() []local {
	f.scopeDepth--

	var popped []local
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		n := len(f.locals) - 1
		popped = append(popped, f.locals[n])
		f.locals = f.locals[:n]
	}
	return popped
}

// declareLocal reserves a slot for name in the current scope with depth
// -1 (not yet initialized). It returns a SemanticError if name is already
// declared at the same depth, or if the function's local budget (256,
// including the reserved slot 0) is exhausted.
func (f *frame) declareLocal(name string, immutable bool) error {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].depth != -1 && f.locals[i].depth < f.scopeDepth {
			break
		}
		if f.locals[i].name == name {
			return SemanticError{Message: "Already a variable with this name in this scope."}
		}
	}

	if len(f.locals) >= maxLocals {
		return SemanticError{Message: "Too many local variables in function."}
	}

	f.locals = append(f.locals, local{
		name:      name,
		depth:     -1,
		slot:      len(f.locals),
		immutable: immutable,
	})
	return nil
}

// markInitialized sets the most recently declared local's depth to the
// current scope depth, completing its declaration.
func (f *frame) markInitialized() {
	if len(f.locals) == 0 {
		return
	}
	f.locals[len(f.locals)-1].depth = f.scopeDepth
}

// resolveLocal walks locals newest-to-oldest looking for name. It
// returns the slot index and true, or -1 and false if not found. The
// caller is responsible for checking the uninitialized-slot hazard.
func (f *frame) resolveLocal(name string) (int, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return i, true
		}
	}
	return -1, false
}

// pushLoop opens a new loop context.
func (f *frame) pushLoop(continueTarget int) {
	f.loops = append(f.loops, loopContext{continueTarget: continueTarget, scopeDepth: f.scopeDepth})
}

// currentLoop returns the innermost loop context, or nil if not inside
// a loop in this frame.
func (f *frame) currentLoop() *loopContext {
	if len(f.loops) == 0 {
		return nil
	}
	return &f.loops[len(f.loops)-1]
}

// popLoop discards the innermost loop context, returning it so the
// caller can patch its collected break jumps.
func (f *frame) popLoop() loopContext {
	lc := f.loops[len(f.loops)-1]
	f.loops = f.loops[:len(f.loops)-1]
	return lc
}

// localsAboveDepth counts locals declared deeper than depth — exactly
// the locals a `break`/`continue` jumping out of those scopes must pop
// at runtime, since it bypasses the normal endScopeEmittingPops calls
// for the scopes it's escaping.
func (f *frame) localsAboveDepth(depth int) int {
	count := 0
	for i := len(f.locals) - 1; i >= 0 && f.locals[i].depth > depth; i-- {
		count++
	}
	return count
}
