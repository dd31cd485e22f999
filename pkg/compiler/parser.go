package compiler

import (
	"math"
	"strconv"

	"tacc/pkg/ir"
)

// Parser recognises a program and emits its three-address code in the same
// pass. Expressions are built as small trees and translated as soon as the
// statement holding them is recognised; statements are never revisited.
//
// Grammar:
//
//	program  = block EOF
//	block    = "{" decls stmts "}"
//	decls    = (BASIC ID ("[" NUM "]")* ";")*
//	stmt     = ";" | "if" "(" bool ")" stmt ("else" stmt)?
//	         | "while" "(" bool ")" stmt | "do" stmt "while" "(" bool ")" ";"
//	         | "break" ";" | block | ID offset? "=" bool ";"
//	bool     = join ("||" join)*
//	join     = equality ("&&" equality)*
//	equality = rel (("==" | "!=") rel)*
//	rel      = expr (("<" | "<=" | ">=" | ">") expr)*
//	expr     = term (("+" | "-") term)*
//	term     = unary (("*" | "/") unary)*
//	unary    = ("-" | "!") unary | factor
//	factor   = "(" bool ")" | NUM | REAL | "true" | "false" | ID offset?
//	offset   = ("[" bool "]")+
//
// A Parser is one translation session; it must not be shared.
type Parser struct {
	lex  Scanner
	look Token
	sink ir.Sink

	top   *Env        // innermost scope
	used  int         // bytes of frame allocated so far
	loops []loopFrame // enclosing loops, innermost last

	labels int // last label allocated
	temps  int // last temporary allocated
	refs   map[ir.Label]bool
	line   int // line of the statement being translated
}

type loopFrame struct {
	begin, exit ir.Label
}

// NewParser starts a session reading from lex and emitting into sink.
func NewParser(lex Scanner, sink ir.Sink) (*Parser, error) {
	p := &Parser{lex: lex, sink: sink, refs: make(map[ir.Label]bool)}
	if err := p.move(); err != nil {
		return nil, err
	}
	return p, nil
}

// move advances the lookahead by one token.
func (p *Parser) move() error {
	tok, err := p.lex.Scan()
	if err != nil {
		return err
	}
	p.look = tok
	return nil
}

// match consumes the lookahead if it has tag tag, otherwise fails.
func (p *Parser) match(tag Tag) (Token, error) {
	tok := p.look
	if tok.Tag != tag {
		return tok, p.unexpected(tag)
	}
	return tok, p.move()
}

func (p *Parser) unexpected(want Tag) error {
	if p.look.Tag == EOF {
		return newError(KindSyntax, p.look, "expected %s, got end of input", want)
	}
	return newError(KindSyntax, p.look, "expected %s, got %s (%q)", want, p.look.Tag, p.look.Lexeme)
}

// enterScope opens a nested scope and returns the func that restores the
// enclosing one. Use with defer so every exit path restores it.
func (p *Parser) enterScope() func() {
	saved := p.top
	p.top = NewEnv(saved)
	return func() { p.top = saved }
}

// pushLoop allocates the labels of a loop, makes it the break target and
// returns the func that pops it again.
func (p *Parser) pushLoop() (loopFrame, func()) {
	frame := loopFrame{begin: p.newLabel(), exit: p.newLabel()}
	p.loops = append(p.loops, frame)
	return frame, func() { p.loops = p.loops[:len(p.loops)-1] }
}

func (p *Parser) newLabel() ir.Label {
	p.labels++
	return ir.Label(p.labels)
}

func (p *Parser) emit(in ir.Instr) {
	if in.Line == 0 {
		in.Line = p.line
	}
	if in.Op.IsJump() {
		p.refs[in.Target] = true
	}
	p.sink.Emit(in)
}

func (p *Parser) emitGoto(l ir.Label) {
	p.emit(ir.Instr{Op: ir.OpGoto, Target: l})
}

// placeLabel defines l at the current position. Every jump to a forward
// label is emitted before the label is placed, so a label nothing has
// jumped to yet is never a target and is left out of the stream.
func (p *Parser) placeLabel(l ir.Label) {
	if p.refs[l] {
		p.emit(ir.Instr{Op: ir.OpLabel, Target: l})
	}
}

// pinLabel places a label that later code jumps back to.
func (p *Parser) pinLabel(l ir.Label) {
	p.refs[l] = true
	p.placeLabel(l)
}

// program = block EOF
func (p *Parser) program() (Stmt, error) {
	s, err := p.block()
	if err != nil {
		return nil, err
	}
	if p.look.Tag != EOF {
		return nil, newError(KindSyntax, p.look, "unexpected %s (%q) after end of program", p.look.Tag, p.look.Lexeme)
	}
	return s, nil
}

// block = "{" decls stmts "}"
func (p *Parser) block() (Stmt, error) {
	if _, err := p.match(LBRACE); err != nil {
		return nil, err
	}
	defer p.enterScope()()

	if err := p.decls(); err != nil {
		return nil, err
	}
	s, err := p.stmts()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(RBRACE); err != nil {
		return nil, err
	}
	return s, nil
}

// decls = (BASIC ID ("[" NUM "]")* ";")*
func (p *Parser) decls() error {
	for p.look.Tag == BASIC {
		basic, err := p.match(BASIC)
		if err != nil {
			return err
		}
		tok, err := p.match(ID)
		if err != nil {
			return err
		}
		t := basicTypes[basic.Lexeme]
		if p.look.Tag == LBRACKET {
			if t, err = p.dims(t); err != nil {
				return err
			}
		}
		if _, err := p.match(SEMICOLON); err != nil {
			return err
		}
		if t.Width > math.MaxInt-p.used {
			return newError(KindSemantic, tok, "%s does not fit in the frame", tok.Lexeme)
		}
		id := NewId(tok.Lexeme, t, p.used, tok.Line)
		if !p.top.Put(id) {
			return newError(KindSemantic, tok, "%s already declared in this block", tok.Lexeme)
		}
		p.used += t.Width
	}
	return nil
}

// dims parses the array suffixes after a declared name. The rightmost
// dimension binds first: int a[2][3] is 2 arrays of 3 ints.
func (p *Parser) dims(elem *Type) (*Type, error) {
	if _, err := p.match(LBRACKET); err != nil {
		return nil, err
	}
	tok, err := p.match(NUM)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil || n <= 0 {
		return nil, newError(KindSyntax, tok, "array dimension must be a positive integer, got %s", tok.Lexeme)
	}
	if _, err := p.match(RBRACKET); err != nil {
		return nil, err
	}
	if p.look.Tag == LBRACKET {
		if elem, err = p.dims(elem); err != nil {
			return nil, err
		}
	}
	if n > math.MaxInt/elem.Width {
		return nil, newError(KindSemantic, tok, "array of %d %s is too large", n, elem)
	}
	return NewArray(n, elem), nil
}

// stmts collects statements up to the closing brace.
func (p *Parser) stmts() (Stmt, error) {
	var list []Stmt
	for p.look.Tag != RBRACE {
		if p.look.Tag == EOF {
			return nil, p.unexpected(RBRACE)
		}
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if len(list) == 0 {
		return &Null{}, nil
	}
	s := list[len(list)-1]
	for i := len(list) - 2; i >= 0; i-- {
		s = &Seq{First: list[i], Rest: s}
	}
	return s, nil
}

func (p *Parser) stmt() (Stmt, error) {
	p.line = p.look.Line
	switch p.look.Tag {
	case SEMICOLON:
		return &Null{}, p.move()
	case IF:
		return p.ifStmt()
	case WHILE:
		return p.whileStmt()
	case DO:
		return p.doStmt()
	case BREAK:
		return p.breakStmt()
	case LBRACE:
		return p.block()
	case ID:
		return p.assign()
	}
	return nil, newError(KindSyntax, p.look, "unexpected %s (%q) at start of statement", p.look.Tag, p.look.Lexeme)
}

// bool = join ("||" join)*
func (p *Parser) parseOr() (Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == OR {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if x, err = NewOr(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// join = equality ("&&" equality)*
func (p *Parser) parseAnd() (Expr, error) {
	x, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == AND {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		if x, err = NewAnd(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// equality = rel (("==" | "!=") rel)*
func (p *Parser) parseEquality() (Expr, error) {
	x, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == EQ || p.look.Tag == NE {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		if x, err = NewRel(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// rel = expr (("<" | "<=" | ">=" | ">") expr)*
func (p *Parser) parseRelational() (Expr, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == LT || p.look.Tag == LE || p.look.Tag == GE || p.look.Tag == GT {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if x, err = NewRel(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// expr = term (("+" | "-") term)*
func (p *Parser) parseAdditive() (Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == PLUS || p.look.Tag == MINUS {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if x, err = NewArith(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// term = unary (("*" | "/") unary)*
func (p *Parser) parseMultiplicative() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.look.Tag == STAR || p.look.Tag == SLASH {
		op := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if x, err = NewArith(op, x, right); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// unary = ("-" | "!") unary | factor
func (p *Parser) parseUnary() (Expr, error) {
	op := p.look
	switch op.Tag {
	case MINUS, NOT:
		if err := p.move(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op.Tag == MINUS {
			return NewUnary(op, x)
		}
		return NewNot(op, x)
	}
	return p.parsePrimary()
}

// factor = "(" bool ")" | NUM | REAL | "true" | "false" | ID offset?
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.look
	switch tok.Tag {
	case LPAREN:
		if err := p.move(); err != nil {
			return nil, err
		}
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	case NUM:
		return &Constant{Tok: tok, typ: Int}, p.move()
	case REAL:
		return &Constant{Tok: tok, typ: Float}, p.move()
	case TRUE, FALSE:
		return &Constant{Tok: tok, typ: Bool}, p.move()
	case ID:
		id, ok := p.top.Lookup(tok.Lexeme)
		if !ok {
			return nil, newError(KindUndeclared, tok, "%s undeclared", tok.Lexeme)
		}
		if err := p.move(); err != nil {
			return nil, err
		}
		if p.look.Tag != LBRACKET {
			return id, nil
		}
		return p.offset(id)
	case EOF:
		return nil, newError(KindSyntax, tok, "unexpected end of input in expression")
	}
	return nil, newError(KindSyntax, tok, "unexpected %s (%q) in expression", tok.Tag, tok.Lexeme)
}
