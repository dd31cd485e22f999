package compiler

import "tacc/pkg/ir"

// Result is a completed translation.
type Result struct {
	Program   *ir.Program // nil when the caller supplied its own sink
	Tree      Stmt        // statements of the program block, as translated
	Labels    int         // labels allocated, including ones never placed
	Temps     int         // temporaries allocated
	FrameSize int         // bytes of variable storage
}

// Translate compiles one program, a single { ... } block, into
// three-address code. It either returns the whole instruction stream or
// fails on the first error; there is no partial result.
func Translate(src string) (*Result, error) {
	return TranslateFrom(NewLexer(src), &ir.Program{})
}

// TranslateFrom runs one session over tokens from s, emitting into sink.
// On error, whatever was already emitted into sink is meaningless and
// should be discarded.
func TranslateFrom(s Scanner, sink ir.Sink) (*Result, error) {
	p, err := NewParser(s, sink)
	if err != nil {
		return nil, withSource(err, s)
	}
	tree, err := p.program()
	if err != nil {
		return nil, withSource(err, s)
	}
	res := &Result{Tree: tree, Labels: p.labels, Temps: p.temps, FrameSize: p.used}
	if prog, ok := sink.(*ir.Program); ok {
		res.Program = prog
	}
	return res, nil
}
