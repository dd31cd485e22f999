package compiler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"tacc/pkg/ir"
	"tacc/pkg/vm"
)

func translate(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Translate(src)
	if err != nil {
		t.Fatalf("Translate failed: %v\nSource:\n%s", err, src)
	}
	return res
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected %q to contain %q", got, want)
	}
}

// runProgram translates src and runs it to completion.
func runProgram(t *testing.T, src string) *vm.Machine {
	t.Helper()
	res := translate(t, src)
	m, err := vm.New(res.Program.Instrs)
	if err != nil {
		t.Fatalf("vm.New failed: %v\nCode:\n%s", err, res.Program)
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v\nCode:\n%s", err, res.Program)
	}
	return m
}

// cell returns the value of the first frame location named name.
func cell(t *testing.T, m *vm.Machine, name string) vm.Value {
	t.Helper()
	for _, c := range m.Cells() {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("%s was never written", name)
	return vm.Value{}
}

func TestTranslateScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "SingleAssignment",
			src:  "{ int i; i = 1; }",
			want: "\tmove i <- 1\n",
		},
		{
			name: "WhileLoop",
			src:  "{ int i; int j; i = 0; while (i < 10) { j = j + i; i = i + 1; } }",
			want: "\tmove i <- 0\n" +
				"L1:\n" +
				"\tiffalse < i 10 goto L2\n" +
				"\tadd j <- j + i\n" +
				"\tadd i <- i + 1\n" +
				"\tgoto L1\n" +
				"L2:\n",
		},
		{
			name: "ArrayStore",
			src:  "{ int a[3]; int i; i = 1; a[i] = 5; }",
			want: "\tmove i <- 1\n" +
				"\tmul t1 <- i * 4\n" +
				"\tstoreindexed a[t1] <- 5\n",
		},
		{
			name: "LiteralTrueCondition",
			src:  "{ bool b; if (true) b = true; else b = false; }",
			want: "\tmove b <- true\n" +
				"\tgoto L2\n" +
				"\tmove b <- false\n" +
				"L2:\n",
		},
		{
			name: "Empty",
			src:  "{ }",
			want: "",
		},
		{
			name: "IfWithoutElse",
			src:  "{ int x; if (x != 0) x = 0; }",
			want: "\tiffalse != x 0 goto L1\n" +
				"\tmove x <- 0\n" +
				"L1:\n",
		},
		{
			name: "DoWhile",
			src:  "{ int i; do i = i + 1; while (i < 3); }",
			want: "L1:\n" +
				"\tadd i <- i + 1\n" +
				"\tif < i 3 goto L1\n",
		},
		{
			name: "NestedArithmetic",
			src:  "{ int a; int b; int c; a = -(b + c) * 2; }",
			want: "\tadd t1 <- b + c\n" +
				"\tneg t2 <- - t1\n" +
				"\tmul a <- t2 * 2\n",
		},
		{
			name: "ArrayLoad",
			src:  "{ int a[2][3]; int i; int x; x = a[i][1]; }",
			want: "\tmul t1 <- i * 12\n" +
				"\tmul t2 <- 1 * 4\n" +
				"\tadd t3 <- t1 + t2\n" +
				"\tloadindexed x <- a[t3]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := translate(t, tt.src)
			if got := res.Program.String(); got != tt.want {
				t.Errorf("code mismatch:\n got:\n%s\n want:\n%s", got, tt.want)
			}
		})
	}
}

func TestLiteralTrueEmitsNoTest(t *testing.T) {
	res := translate(t, "{ bool b; if (true) b = true; else b = false; }")
	if n := res.Program.Count(ir.OpIf) + res.Program.Count(ir.OpIfFalse); n != 0 {
		t.Errorf("got %d conditional jumps, want 0:\n%s", n, res.Program)
	}
}

func TestLabelsOnlyWhenReferenced(t *testing.T) {
	srcs := []string{
		"{ int i; while (i < 3) { if (i == 1) break; i = i + 1; } }",
		"{ bool a; bool b; bool c; a = b && c || !a; }",
		"{ int i; do { if (i > 2 && i < 9 || i == 0) i = i + 2; else i = i + 1; } while (!(i >= 10)); }",
	}
	for _, src := range srcs {
		res := translate(t, src)
		jumped := map[ir.Label]bool{}
		for _, in := range res.Program.Instrs {
			if in.Op.IsJump() {
				jumped[in.Target] = true
			}
		}
		for _, in := range res.Program.Instrs {
			if in.Op == ir.OpLabel && !jumped[in.Target] {
				t.Errorf("%s defined but never jumped to:\n%s", in.Target, res.Program)
			}
		}
		// every jump resolves, and no label is defined twice
		if _, err := vm.New(res.Program.Instrs); err != nil {
			t.Errorf("%v\n%s", err, res.Program)
		}
	}
}

// Each condition is used both as an if test and as a stored value. z is
// zero, so evaluating a guarded 1 / z fails the run.
func TestShortCircuit(t *testing.T) {
	tests := []struct {
		cond string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"!true", false},
		{"!!false", false},
		{"false && 1 / z > 0", false},
		{"true || 1 / z > 0", true},
		{"!(true && false)", true},
		{"1 < 2 && 3 >= 3", true},
		{"1 > 2 || 2 != 2", false},
		{"!(1 < 2) || !false", true},
		{"true && true && !false", true},
		{"false || false || 4 == 4", true},
		{"z == 0 || 1 / z > 0", true},
		{"z != 0 && 1 / z > 0", false},
		{"(z < 1 || z > 5) && !(z == 3)", true},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			m := runProgram(t, "{ int z; bool r; r = false; if ("+tt.cond+") r = true; }")
			if got := cell(t, m, "r"); got.B != tt.want {
				t.Errorf("as condition: got %v, want %v", got, tt.want)
			}
			m = runProgram(t, "{ int z; bool r; r = "+tt.cond+"; }")
			if got := cell(t, m, "r"); got.B != tt.want {
				t.Errorf("as value: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunPrograms(t *testing.T) {
	t.Run("NestedLoopsWithBreak", func(t *testing.T) {
		m := runProgram(t, `{
			int i; int n;
			i = 0; n = 0;
			while (true) {
				i = i + 1;
				if (i > 5) break;
				do { n = n + 1; break; } while (true);
			}
		}`)
		if got := cell(t, m, "i"); got.I != 6 {
			t.Errorf("i: got %v, want 6", got)
		}
		if got := cell(t, m, "n"); got.I != 5 {
			t.Errorf("n: got %v, want 5", got)
		}
	})

	t.Run("DoRunsOnce", func(t *testing.T) {
		m := runProgram(t, "{ int i; i = 10; do i = i + 1; while (i < 5); }")
		if got := cell(t, m, "i"); got.I != 11 {
			t.Errorf("i: got %v, want 11", got)
		}
	})

	t.Run("TwoDimensionalArray", func(t *testing.T) {
		m := runProgram(t, `{
			int a[2][3]; int i; int j; int s;
			i = 0;
			while (i < 2) {
				j = 0;
				while (j < 3) { a[i][j] = i * 10 + j; j = j + 1; }
				i = i + 1;
			}
			s = a[1][2] + a[0][1];
		}`)
		if got := cell(t, m, "s"); got.I != 13 {
			t.Errorf("s: got %v, want 13", got)
		}
	})

	t.Run("Widening", func(t *testing.T) {
		m := runProgram(t, "{ float f; int i; i = 3; f = i / 2; f = f + 0.5; }")
		if got := cell(t, m, "f"); got.Kind != vm.KindFloat || got.F != 1.5 {
			t.Errorf("f: got %v, want 1.5", got)
		}
	})

	t.Run("Shadowing", func(t *testing.T) {
		m := runProgram(t, "{ int x; { float x; x = 1.5; } x = 2; }")
		outer, _ := m.Var(0)
		inner, _ := m.Var(4)
		if outer.Kind != vm.KindInt || outer.I != 2 {
			t.Errorf("outer x: got %v, want 2", outer)
		}
		if inner.Kind != vm.KindFloat || inner.F != 1.5 {
			t.Errorf("inner x: got %v, want 1.5", inner)
		}
	})

	t.Run("CharKeepsLowByte", func(t *testing.T) {
		m := runProgram(t, "{ char c; char d; int i; char s[2]; c = 65; c = c + 1; i = 300; d = i; s[1] = 200; }")
		if got := cell(t, m, "c"); got.I != 66 {
			t.Errorf("c: got %v, want 66", got)
		}
		if got := cell(t, m, "d"); got.I != 44 {
			t.Errorf("d: got %v, want 44", got)
		}
		if got := cell(t, m, "s+1"); got.I != -56 {
			t.Errorf("s[1]: got %v, want -56", got)
		}
	})

	t.Run("BoolEquality", func(t *testing.T) {
		m := runProgram(t, "{ bool a; bool r; a = true; r = a == true && a != false; }")
		if got := cell(t, m, "r"); !got.B {
			t.Errorf("r: got %v, want true", got)
		}
	})
}

func TestResult(t *testing.T) {
	res := translate(t, "{ int i; float f; int a[2][3];\n  if (i < 1) i = 2; else ; }")
	if res.FrameSize != 36 {
		t.Errorf("FrameSize: got %d, want 36", res.FrameSize)
	}
	if res.Labels != 2 {
		t.Errorf("Labels: got %d, want 2", res.Labels)
	}
	if got := res.Tree.String(); got != "if (i < 1) i = 2; else ;" {
		t.Errorf("Tree: got %q", got)
	}
	if line := res.Program.Instrs[0].Line; line != 2 {
		t.Errorf("first instruction line: got %d, want 2", line)
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
		msg  string
	}{
		{"NarrowingAssign", "{ int i; i = 1.5; }", KindType, "cannot assign float to int i"},
		{"IntToBool", "{ bool b; b = 1; }", KindType, "cannot assign int"},
		{"NonBoolCondition", "{ int i; if (i) i = 1; }", KindType, "not bool"},
		{"NonBoolWhile", "{ int i; while (i + 1) i = 1; }", KindType, "not bool"},
		{"BoolArithmetic", "{ bool b; int i; i = b + 1; }", KindType, "must be numeric"},
		{"OrderedBools", "{ bool b; b = true < false; }", KindType, "cannot compare"},
		{"IntAnd", "{ int i; bool b; b = i && true; }", KindType, "must be bool"},
		{"NotInt", "{ int i; bool b; b = !i; }", KindType, "must be bool"},
		{"NegateBool", "{ bool b; b = -b; }", KindType, "must be numeric"},
		{"FloatIndex", "{ int a[3]; float f; a[f] = 1; }", KindType, "not an integer"},
		{"IndexScalar", "{ int i; i[0] = 1; }", KindType, "not an array"},
		{"TooManySubscripts", "{ int a[3]; a[0][1] = 1; }", KindType, "too many subscripts"},
		{"AssignArray", "{ int a[3]; int b[3]; a = b; }", KindType, "cannot assign"},
		{"BreakOutsideLoop", "{ int i; if (i < 1) break; }", KindSemantic, "unenclosed break"},
		{"Redeclared", "{ int x; char x; }", KindSemantic, "already declared"},
		{"MissingSemicolon", "{ int i; i = 1 }", KindSyntax, "expected SEMICOLON"},
		{"MissingIdent", "{ int ; }", KindSyntax, "expected ID"},
		{"ZeroDimension", "{ int a[0]; }", KindSyntax, "positive integer"},
		{"DimensionBeforeName", "{ int[3] a; }", KindSyntax, "expected ID"},
		{"UnclosedDimension", "{ int a[3; }", KindSyntax, "expected RBRACKET"},
		{"CharFromFloat", "{ char c; c = 1.5; }", KindType, "cannot assign float to char c"},
		{"CharToBool", "{ char c; bool b; b = c; }", KindType, "cannot assign char to bool b"},
		{"ArrayTooWide", "{ int a[3000000000000000000][4]; int i; i = 1; }", KindSemantic, "too large"},
		{"FrameOverflow", "{ int a[2000000000000000000]; int b[2000000000000000000]; }", KindSemantic, "does not fit in the frame"},
		{"TrailingInput", "{ } }", KindSyntax, "after end of program"},
		{"Unbalanced", "{ int i; i = (1 + 2; }", KindSyntax, "expected RPAREN"},
		{"EmptyInput", "", KindSyntax, "end of input"},
		{"Unclosed", "{ int i; i = 1;", KindSyntax, "end of input"},
		{"BadStatement", "{ 1 = 2; }", KindSyntax, "start of statement"},
		{"IllegalChar", "{ int i; i = 1 # 2; }", KindSyntax, "unexpected character"},
		{"DeclAfterStmt", "{ int i; i = 1; int j; }", KindSyntax, "start of statement"},
		{"UndeclaredTarget", "{ x = 1; }", KindUndeclared, "x undeclared"},
		{"OutOfScope", "{ { int y; } y = 1; }", KindUndeclared, "y undeclared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.src)
			if err == nil {
				t.Fatalf("expected %s, got success", tt.kind)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("kind: want %s, got %v", tt.kind, err)
			}
			assertContains(t, err.Error(), tt.msg)
		})
	}
}

func TestUndeclaredReportsTokenAndLine(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		source string
		ident  string
	}{
		{
			name:   "AssignmentTarget",
			src:    "{\n  int i;\n  count = 1;\n}",
			line:   3,
			source: "  count = 1;",
			ident:  "count",
		},
		{
			name:   "NestedExpression",
			src:    "{\n  int i;\n  i = (1 + (i * y)) - 2;\n}",
			line:   3,
			source: "  i = (1 + (i * y)) - 2;",
			ident:  "y",
		},
		{
			name:   "InsideCondition",
			src:    "{ int i;\n while (i < 3 && !done) i = i + 1; }",
			line:   2,
			source: " while (i < 3 && !done) i = i + 1; }",
			ident:  "done",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.src)
			ce, ok := err.(*Error)
			if !ok {
				t.Fatalf("want *Error, got %T: %v", err, err)
			}
			if ce.Kind != KindUndeclared {
				t.Errorf("kind: got %s", ce.Kind)
			}
			if ce.Line != tt.line {
				t.Errorf("line: got %d, want %d", ce.Line, tt.line)
			}
			if ce.Source != tt.source {
				t.Errorf("source: got %q, want %q", ce.Source, tt.source)
			}
			if !strings.HasPrefix(ce.Msg, tt.ident+" ") {
				t.Errorf("message %q does not name %s", ce.Msg, tt.ident)
			}
		})
	}
}

func TestErrorFormat(t *testing.T) {
	_, err := Translate("{\n  x = 1;\n}")
	want := "line 2: undeclared identifier: x undeclared\n  |> x = 1;"
	if err == nil || err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}
}

// Sessions share no state, so concurrent translations of the same source
// produce the same code as a sequential one.
func TestConcurrentSessions(t *testing.T) {
	src := "{ int i; int a[4]; i = 0; while (i < 4) { a[i] = i * i; if (i == 2 || i == 3) break; i = i + 1; } }"
	want := translate(t, src).Program.String()

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Translate(src)
			if err != nil {
				errs <- err.Error()
				return
			}
			if got := res.Program.String(); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent session diverged:\n%s", e)
	}
}

type countingSink struct{ n int }

func (c *countingSink) Emit(ir.Instr) { c.n++ }

func TestTranslateFromCustomSink(t *testing.T) {
	sink := &countingSink{}
	res, err := TranslateFrom(NewLexer("{ int i; i = 1; i = i + 1; }"), sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Program != nil {
		t.Error("Program should be nil for a non-Program sink")
	}
	if sink.n != 2 {
		t.Errorf("emitted %d instructions, want 2", sink.n)
	}
}
