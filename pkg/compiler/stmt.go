package compiler

import "tacc/pkg/ir"

// cond parses "(" bool ")" and checks the result is a bool.
func (p *Parser) cond() (Expr, error) {
	if _, err := p.match(LPAREN); err != nil {
		return nil, err
	}
	open := p.look
	x, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(RPAREN); err != nil {
		return nil, err
	}
	if x.Type() != Bool {
		return nil, newError(KindType, open, "condition %s is %s, not bool", x, x.Type())
	}
	return x, nil
}

// if (c) s              if (c) s1 else s2
//
//	iffalse c goto L1     iffalse c goto L1
//	s                     s1
//	L1:                   goto L2
//	                      L1: s2
//	                      L2:
func (p *Parser) ifStmt() (Stmt, error) {
	if _, err := p.match(IF); err != nil {
		return nil, err
	}
	x, err := p.cond()
	if err != nil {
		return nil, err
	}
	lfalse := p.newLabel()
	if err := p.jumping(x, ir.Next, lfalse); err != nil {
		return nil, err
	}
	then, err := p.stmt()
	if err != nil {
		return nil, err
	}
	if p.look.Tag != ELSE {
		p.placeLabel(lfalse)
		return &If{Cond: x, Body: then}, nil
	}

	p.line = p.look.Line
	if err := p.move(); err != nil {
		return nil, err
	}
	done := p.newLabel()
	p.emitGoto(done)
	p.placeLabel(lfalse)
	els, err := p.stmt()
	if err != nil {
		return nil, err
	}
	p.placeLabel(done)
	return &Else{Cond: x, Then: then, Else: els}, nil
}

// while (c) s
//
//	L1: iffalse c goto L2
//	    s
//	    goto L1
//	L2:
func (p *Parser) whileStmt() (Stmt, error) {
	if _, err := p.match(WHILE); err != nil {
		return nil, err
	}
	loop, pop := p.pushLoop()
	defer pop()

	p.pinLabel(loop.begin)
	x, err := p.cond()
	if err != nil {
		return nil, err
	}
	if err := p.jumping(x, ir.Next, loop.exit); err != nil {
		return nil, err
	}
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	p.emitGoto(loop.begin)
	p.placeLabel(loop.exit)
	return &While{Cond: x, Body: body}, nil
}

// do s while (c);
//
//	L1: s
//	    if c goto L1
//	L2:
func (p *Parser) doStmt() (Stmt, error) {
	if _, err := p.match(DO); err != nil {
		return nil, err
	}
	loop, pop := p.pushLoop()
	defer pop()

	p.pinLabel(loop.begin)
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	p.line = p.look.Line
	if _, err := p.match(WHILE); err != nil {
		return nil, err
	}
	x, err := p.cond()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(SEMICOLON); err != nil {
		return nil, err
	}
	if err := p.jumping(x, loop.begin, ir.Next); err != nil {
		return nil, err
	}
	p.placeLabel(loop.exit)
	return &Do{Body: body, Cond: x}, nil
}

func (p *Parser) breakStmt() (Stmt, error) {
	tok, err := p.match(BREAK)
	if err != nil {
		return nil, err
	}
	if len(p.loops) == 0 {
		return nil, newError(KindSemantic, tok, "unenclosed break")
	}
	if _, err := p.match(SEMICOLON); err != nil {
		return nil, err
	}
	p.emitGoto(p.loops[len(p.loops)-1].exit)
	return &Break{Line: tok.Line}, nil
}

// assign = ID offset? "=" bool ";"
func (p *Parser) assign() (Stmt, error) {
	tok, err := p.match(ID)
	if err != nil {
		return nil, err
	}
	id, ok := p.top.Lookup(tok.Lexeme)
	if !ok {
		return nil, newError(KindUndeclared, tok, "%s undeclared", tok.Lexeme)
	}

	if p.look.Tag == ASSIGN {
		eq := p.look
		if err := p.move(); err != nil {
			return nil, err
		}
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(SEMICOLON); err != nil {
			return nil, err
		}
		if !assignable(id.Type(), x.Type()) {
			return nil, newError(KindType, eq, "cannot assign %s to %s %s", x.Type(), id.Type(), id.Name)
		}
		in, err := p.gen(x)
		if err != nil {
			return nil, err
		}
		in.Dst = id.operand()
		p.emit(in)
		return &Set{Id: id, Expr: x}, nil
	}

	target, err := p.offset(id)
	if err != nil {
		return nil, err
	}
	eq, err := p.match(ASSIGN)
	if err != nil {
		return nil, err
	}
	x, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(SEMICOLON); err != nil {
		return nil, err
	}
	if !assignable(target.Type(), x.Type()) {
		return nil, newError(KindType, eq, "cannot assign %s to %s element of %s", x.Type(), target.Type(), id.Name)
	}
	off, err := p.reduce(target.Index)
	if err != nil {
		return nil, err
	}
	val, err := p.reduce(x)
	if err != nil {
		return nil, err
	}
	p.emit(ir.Instr{Op: ir.OpStoreIndexed, Base: id.operand(), A: off, B: val})
	return &SetElem{Target: target, Expr: x}, nil
}

// offset parses the subscripts after an array name and builds the byte
// offset i1*w1 + i2*w2 + ..., where wk is the width of the element type
// left after k subscripts.
func (p *Parser) offset(a *Id) (*Access, error) {
	t := a.Type()
	var loc Expr
	for loc == nil || p.look.Tag == LBRACKET {
		lb, err := p.match(LBRACKET)
		if err != nil {
			return nil, err
		}
		if !t.IsArray() {
			if loc == nil {
				return nil, newError(KindType, lb, "%s is %s, not an array", a.Name, t)
			}
			return nil, newError(KindType, lb, "too many subscripts for %s %s", a.Type(), a.Name)
		}
		i, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(RBRACKET); err != nil {
			return nil, err
		}
		if !Integral(i.Type()) {
			return nil, newError(KindType, lb, "array index %s is %s, not an integer", i, i.Type())
		}
		t = t.Of
		star := Token{Tag: STAR, Lexeme: "*", Line: lb.Line}
		term, err := NewArith(star, i, intConstant(t.Width, lb.Line))
		if err != nil {
			return nil, err
		}
		if loc == nil {
			loc = term
			continue
		}
		plus := Token{Tag: PLUS, Lexeme: "+", Line: lb.Line}
		if loc, err = NewArith(plus, loc, term); err != nil {
			return nil, err
		}
	}
	return &Access{Array: a, Index: loc, typ: t}, nil
}
