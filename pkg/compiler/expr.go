package compiler

import "tacc/pkg/ir"

// gen translates e into the right-hand side of one three-address
// instruction. Sub-expressions are reduced first; the caller supplies Dst.
func (p *Parser) gen(e Expr) (ir.Instr, error) {
	return matchExpr[ir.Instr](e, generator{p})
}

// reduce translates e into a single operand, emitting the instructions that
// compute it into a temporary when e is not already atomic.
func (p *Parser) reduce(e Expr) (ir.Operand, error) {
	return matchExpr[ir.Operand](e, reducer{p})
}

func (p *Parser) newTemp(t *Type) *Temp {
	p.temps++
	return &Temp{N: p.temps, typ: t}
}

// toTemp emits e into a fresh temporary.
func (p *Parser) toTemp(e Expr) (ir.Operand, error) {
	in, err := p.gen(e)
	if err != nil {
		return ir.Operand{}, err
	}
	t := p.newTemp(e.Type())
	in.Dst = t.operand()
	p.emit(in)
	return in.Dst, nil
}

// materialize evaluates a boolean expression for its value. The truth value
// is still decided by jumping code; only the outcome is stored.
//
//	iffalse ... goto Lf
//	t <- true
//	goto Lout
//	Lf: t <- false
//	Lout:
func (p *Parser) materialize(e Expr) (ir.Operand, error) {
	f := p.newLabel()
	out := p.newLabel()
	if err := p.jumping(e, ir.Next, f); err != nil {
		return ir.Operand{}, err
	}
	t := p.newTemp(Bool).operand()
	p.emit(ir.Instr{Op: ir.OpMove, Dst: t, A: boolOperand(true)})
	p.emitGoto(out)
	p.placeLabel(f)
	p.emit(ir.Instr{Op: ir.OpMove, Dst: t, A: boolOperand(false)})
	p.placeLabel(out)
	return t, nil
}

func boolOperand(v bool) ir.Operand {
	name := "false"
	if v {
		name = "true"
	}
	return ir.Operand{Kind: ir.Const, Name: name, Type: Bool.String()}
}

var arithOps = map[Tag]ir.Op{
	PLUS:  ir.OpAdd,
	MINUS: ir.OpSub,
	STAR:  ir.OpMul,
	SLASH: ir.OpDiv,
}

type generator struct{ p *Parser }

func moveFrom(a ir.Operand) ir.Instr { return ir.Instr{Op: ir.OpMove, A: a} }

func (g generator) id(n *Id) (ir.Instr, error)             { return moveFrom(n.operand()), nil }
func (g generator) temp(n *Temp) (ir.Instr, error)         { return moveFrom(n.operand()), nil }
func (g generator) constant(n *Constant) (ir.Instr, error) { return moveFrom(n.operand()), nil }

func (g generator) arith(n *Arith) (ir.Instr, error) {
	a, err := g.p.reduce(n.Left)
	if err != nil {
		return ir.Instr{}, err
	}
	b, err := g.p.reduce(n.Right)
	if err != nil {
		return ir.Instr{}, err
	}
	return ir.Instr{Op: arithOps[n.Op.Tag], A: a, B: b}, nil
}

func (g generator) unary(n *Unary) (ir.Instr, error) {
	a, err := g.p.reduce(n.Operand)
	if err != nil {
		return ir.Instr{}, err
	}
	return ir.Instr{Op: ir.OpNeg, A: a}, nil
}

func (g generator) logical(e Expr) (ir.Instr, error) {
	t, err := g.p.materialize(e)
	if err != nil {
		return ir.Instr{}, err
	}
	return moveFrom(t), nil
}

func (g generator) rel(n *Rel) (ir.Instr, error) { return g.logical(n) }
func (g generator) and(n *And) (ir.Instr, error) { return g.logical(n) }
func (g generator) or(n *Or) (ir.Instr, error)   { return g.logical(n) }
func (g generator) not(n *Not) (ir.Instr, error) { return g.logical(n) }

func (g generator) access(n *Access) (ir.Instr, error) {
	off, err := g.p.reduce(n.Index)
	if err != nil {
		return ir.Instr{}, err
	}
	return ir.Instr{Op: ir.OpLoadIndexed, Base: n.Array.operand(), A: off}, nil
}

type reducer struct{ p *Parser }

func (r reducer) id(n *Id) (ir.Operand, error)             { return n.operand(), nil }
func (r reducer) temp(n *Temp) (ir.Operand, error)         { return n.operand(), nil }
func (r reducer) constant(n *Constant) (ir.Operand, error) { return n.operand(), nil }
func (r reducer) arith(n *Arith) (ir.Operand, error)       { return r.p.toTemp(n) }
func (r reducer) unary(n *Unary) (ir.Operand, error)       { return r.p.toTemp(n) }
func (r reducer) rel(n *Rel) (ir.Operand, error)           { return r.p.materialize(n) }
func (r reducer) and(n *And) (ir.Operand, error)           { return r.p.materialize(n) }
func (r reducer) or(n *Or) (ir.Operand, error)             { return r.p.materialize(n) }
func (r reducer) not(n *Not) (ir.Operand, error)           { return r.p.materialize(n) }
func (r reducer) access(n *Access) (ir.Operand, error)     { return r.p.toTemp(n) }
