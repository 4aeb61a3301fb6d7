package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emberlang/emberc/value"
)

// opNames walks a chunk's code and returns the sequence of opcode names,
// ignoring operand bytes — enough to assert against the concrete
// end-to-end scenarios without hardcoding constant-pool indices.
func opNames(t *testing.T, ch *value.Chunk) []string {
	t.Helper()
	var names []string
	offset := 0
	for offset < len(ch.Code) {
		op := value.Opcode(ch.Code[offset])
		width, ok := value.Width(op)
		if !ok {
			t.Fatalf("unknown opcode byte %d at offset %d", ch.Code[offset], offset)
		}
		names = append(names, op.String())
		offset += 1 + width
	}
	return names
}

func compileOK(t *testing.T, source string) *value.ObjFunction {
	t.Helper()
	var errOut bytes.Buffer
	ctx := NewContext()
	fn, err := ctx.Compile(source, &errOut)
	if err != nil {
		t.Fatalf("compile(%q) returned error: %v\ndiagnostics:\n%s", source, err, errOut.String())
	}
	return fn
}

func compileErr(t *testing.T, source string) string {
	t.Helper()
	var errOut bytes.Buffer
	ctx := NewContext()
	_, err := ctx.Compile(source, &errOut)
	if err == nil {
		t.Fatalf("compile(%q) succeeded, want error", source)
	}
	return errOut.String()
}

func TestCompileExpressionStatement(t *testing.T) {
	fn := compileOK(t, "3 + 2;")
	want := []string{"OP_CONSTANT", "OP_CONSTANT", "OP_ADD", "OP_POP", "OP_NIL", "OP_RETURN"}
	got := opNames(t, fn.Chunk)
	assertOpsEqual(t, got, want)
}

func TestCompilePrecedence(t *testing.T) {
	fn := compileOK(t, "1 + 2 * 3;")
	want := []string{
		"OP_CONSTANT", "OP_CONSTANT", "OP_CONSTANT", "OP_MULTIPLY", "OP_ADD",
		"OP_POP", "OP_NIL", "OP_RETURN",
	}
	assertOpsEqual(t, opNames(t, fn.Chunk), want)
}

func TestCompileGrouping(t *testing.T) {
	fn := compileOK(t, "(1 + 2) * 3;")
	want := []string{
		"OP_CONSTANT", "OP_CONSTANT", "OP_ADD", "OP_CONSTANT", "OP_MULTIPLY",
		"OP_POP", "OP_NIL", "OP_RETURN",
	}
	assertOpsEqual(t, opNames(t, fn.Chunk), want)
}

func TestCompileEqualityAfterMultiplication(t *testing.T) {
	fn := compileOK(t, "12 == 6 * 2;")
	want := []string{
		"OP_CONSTANT", "OP_CONSTANT", "OP_CONSTANT", "OP_MULTIPLY", "OP_EQUAL",
		"OP_POP", "OP_NIL", "OP_RETURN",
	}
	assertOpsEqual(t, opNames(t, fn.Chunk), want)
}

func TestCompileIfElse(t *testing.T) {
	fn := compileOK(t, "if (true) print 1; else print 2;")
	want := []string{
		"OP_TRUE", "OP_JUMP_IF_FALSE", "OP_POP",
		"OP_CONSTANT", "OP_PRINT", "OP_JUMP", "OP_POP",
		"OP_CONSTANT", "OP_PRINT",
		"OP_NIL", "OP_RETURN",
	}
	assertOpsEqual(t, opNames(t, fn.Chunk), want)
}

func TestCompileWhileLoopEmitsExactlyOneLoop(t *testing.T) {
	fn := compileOK(t, "var i = 0; while (i < 3) i = i + 1;")
	count := 0
	for _, name := range opNames(t, fn.Chunk) {
		if name == "OP_LOOP" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("got %d OP_LOOP instructions, want exactly 1", count)
	}
}

func TestCompileNoUnpatchedJumpPlaceholders(t *testing.T) {
	fn := compileOK(t, `
		var i = 0;
		while (i < 3) {
			if (i == 1) {
				print "one";
			} else {
				print "other";
			}
			i = i + 1;
		}
	`)
	ch := fn.Chunk
	offset := 0
	for offset < len(ch.Code) {
		op := value.Opcode(ch.Code[offset])
		width, _ := value.Width(op)
		if width == 2 && (op == value.OpJump || op == value.OpJumpIfFalse) {
			operand := ch.ReadUint16(offset + 1)
			if operand == 0xffff {
				t.Fatalf("unpatched jump placeholder at offset %d", offset)
			}
		}
		offset += 1 + width
	}
}

func TestCompileFunctionDeclarationEmitsClosure(t *testing.T) {
	fn := compileOK(t, `
		fun add(a, b) {
			return a + b;
		}
		print add(1, 2);
	`)
	names := opNames(t, fn.Chunk)
	if !contains(names, "OP_CLOSURE") {
		t.Fatalf("expected OP_CLOSURE in %v", names)
	}
	if !contains(names, "OP_CALL") {
		t.Fatalf("expected OP_CALL in %v", names)
	}
}

func TestCompileImmutableWithoutInitializerErrors(t *testing.T) {
	out := compileErr(t, "val x;")
	if !strings.Contains(out, "Can't declare immutable variable without initializer") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileReassignImmutableErrors(t *testing.T) {
	out := compileErr(t, "val x = 1; x = 2;")
	if !strings.Contains(out, "Cannot reassign immutable variables") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileInitializerSelfReferenceErrors(t *testing.T) {
	out := compileErr(t, "{ var a = a; }")
	if !strings.Contains(out, "Can't read local variable in its initializer") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileReturnFromTopLevelErrors(t *testing.T) {
	out := compileErr(t, "return 1;")
	if !strings.Contains(out, "Can't return from top-level code") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileExpectExpressionErrors(t *testing.T) {
	out := compileErr(t, "1 + ;")
	if !strings.Contains(out, "Expect expression") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileInvalidAssignmentTargetErrors(t *testing.T) {
	out := compileErr(t, "a + b = c;")
	if !strings.Contains(out, "Invalid assignment target") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileBreakOutsideLoopErrors(t *testing.T) {
	out := compileErr(t, "break;")
	if !strings.Contains(out, "Can't use 'break' outside of a loop") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileContinueOutsideLoopErrors(t *testing.T) {
	out := compileErr(t, "continue;")
	if !strings.Contains(out, "Can't use 'continue' outside of a loop") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileBreakInsideLoopEmitsJump(t *testing.T) {
	fn := compileOK(t, `
		while (true) {
			break;
		}
	`)
	names := opNames(t, fn.Chunk)
	if !contains(names, "OP_JUMP") {
		t.Fatalf("expected a break OP_JUMP in %v", names)
	}
}

func TestCompileDuplicateLocalErrors(t *testing.T) {
	out := compileErr(t, "{ var a = 1; var a = 2; }")
	if !strings.Contains(out, "Already a variable with this name in this scope") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestCompileExactly256ConstantsSucceeds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 256; i++ {
		b.WriteString("1;\n")
	}
	compileOK(t, b.String())
}

func TestCompile257ConstantsErrors(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 257; i++ {
		b.WriteString("1;\n")
	}
	out := compileErr(t, b.String())
	if !strings.Contains(out, "too many constants") {
		t.Fatalf("got diagnostics %q", out)
	}
}

func TestContextPersistsGlobalsAcrossCompiles(t *testing.T) {
	ctx := NewContext()
	var errOut bytes.Buffer

	if _, err := ctx.Compile("val x = 1;", &errOut); err != nil {
		t.Fatalf("first compile failed: %v (%s)", err, errOut.String())
	}

	errOut.Reset()
	_, err := ctx.Compile("x = 2;", &errOut)
	if err == nil {
		t.Fatal("expected reassignment of a val declared in an earlier compile to fail")
	}
	if !strings.Contains(errOut.String(), "Cannot reassign immutable variables") {
		t.Fatalf("got diagnostics %q", errOut.String())
	}
}

func assertOpsEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("at index %d: got %s, want %s\nfull got: %v\nfull want: %v", i, got[i], want[i], got, want)
		}
	}
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
