package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emberlang/emberc/compiler"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var compileErrs bytes.Buffer
	ctx := compiler.NewContext()
	fn, err := ctx.Compile(source, &compileErrs)
	if err != nil {
		t.Fatalf("compile(%q) failed: %v\n%s", source, err, compileErrs.String())
	}

	var out bytes.Buffer
	machine := New(&out)
	runErr := machine.Run(fn)
	return out.String(), runErr
}

func TestRunPrintArithmetic(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("got %q, want \"7\"", out)
	}
}

func TestRunGlobalsAndAssignment(t *testing.T) {
	out, err := run(t, `
		var x = 1;
		x = x + 1;
		print x;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("got %q, want \"2\"", out)
	}
}

func TestRunIfElse(t *testing.T) {
	out, err := run(t, `
		if (1 < 2) {
			print "yes";
		} else {
			print "no";
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("got %q, want \"yes\"", out)
	}
}

func TestRunWhileLoop(t *testing.T) {
	out, err := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n2\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunForLoop(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 3; i = i + 1) {
			print i;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n2\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunFunctionCallAndRecursion(t *testing.T) {
	out, err := run(t, `
		fun fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("got %q, want \"55\"", out)
	}
}

func TestRunLogicalAndOrShortCircuit(t *testing.T) {
	out, err := run(t, `
		var x = 0;
		false and (x = 1);
		print x;

		var y = 0;
		true or (y = 1);
		print y;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n0\n"
	if out != want {
		t.Fatalf("got %q, want %q — right operand should not have been evaluated", out, want)
	}
}

func TestRunBreakExitsLoopEarly(t *testing.T) {
	out, err := run(t, `
		var i = 0;
		while (true) {
			if (i == 3) {
				break;
			}
			print i;
			i = i + 1;
		}
		print "done";
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n2\ndone\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunContinueSkipsToIncrement(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 2) {
				continue;
			}
			print i;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n3\n4\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunBreakPopsLoopLocalsCorrectly(t *testing.T) {
	out, err := run(t, `
		var count = 0;
		while (true) {
			var marker = count;
			if (marker >= 2) {
				break;
			}
			print marker;
			count = count + 1;
		}
		print count;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n2\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunEqualityAcrossTypes(t *testing.T) {
	out, err := run(t, `
		print nil == nil;
		print 0 == false;
		print "" == false;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "true\nfalse\nfalse\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunUndefinedGlobalErrors(t *testing.T) {
	_, err := run(t, `print undefinedThing;`)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
	if !strings.Contains(err.Error(), "Undefined variable") {
		t.Fatalf("got error %v", err)
	}
}

func TestRunTypeMismatchErrors(t *testing.T) {
	_, err := run(t, `print 1 + "a";`)
	if err == nil {
		t.Fatal("expected a runtime error for mismatched operand types")
	}
	if !strings.Contains(err.Error(), "Operands must be numbers") {
		t.Fatalf("got error %v", err)
	}
}
