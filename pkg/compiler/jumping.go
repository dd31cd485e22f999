package compiler

import (
	"fmt"

	"tacc/pkg/ir"
)

// jumping emits code that transfers control to t when e is true and to f
// when it is false. Either destination may be ir.Next, meaning fall through.
// No truth value is stored.
func (p *Parser) jumping(e Expr, t, f ir.Label) error {
	_, err := matchExpr[struct{}](e, jumper{p: p, t: t, f: f})
	return err
}

// emitJumps emits the cheapest test for the (t, f) pair.
func (p *Parser) emitJumps(rel string, a, b ir.Operand, t, f ir.Label) {
	switch {
	case t != ir.Next && f != ir.Next:
		p.emit(ir.Instr{Op: ir.OpIf, Rel: rel, A: a, B: b, Target: t})
		p.emitGoto(f)
	case t != ir.Next:
		p.emit(ir.Instr{Op: ir.OpIf, Rel: rel, A: a, B: b, Target: t})
	case f != ir.Next:
		p.emit(ir.Instr{Op: ir.OpIfFalse, Rel: rel, A: a, B: b, Target: f})
	}
}

type jumper struct {
	p    *Parser
	t, f ir.Label
}

// test jumps on a bool-valued operand.
func (j jumper) test(e Expr) (struct{}, error) {
	if e.Type() != Bool {
		return struct{}{}, &Error{Kind: KindType, Line: j.p.line, Msg: fmt.Sprintf("condition %s is %s, not bool", e, e.Type())}
	}
	a, err := j.p.reduce(e)
	if err != nil {
		return struct{}{}, err
	}
	j.p.emitJumps("", a, ir.Operand{}, j.t, j.f)
	return struct{}{}, nil
}

func (j jumper) id(n *Id) (struct{}, error)         { return j.test(n) }
func (j jumper) temp(n *Temp) (struct{}, error)     { return j.test(n) }
func (j jumper) access(n *Access) (struct{}, error) { return j.test(n) }
func (j jumper) arith(n *Arith) (struct{}, error)   { return j.test(n) }
func (j jumper) unary(n *Unary) (struct{}, error)   { return j.test(n) }

func (j jumper) constant(n *Constant) (struct{}, error) {
	switch n.Tok.Tag {
	case TRUE:
		if j.t != ir.Next {
			j.p.emitGoto(j.t)
		}
	case FALSE:
		if j.f != ir.Next {
			j.p.emitGoto(j.f)
		}
	default:
		return j.test(n)
	}
	return struct{}{}, nil
}

func (j jumper) rel(n *Rel) (struct{}, error) {
	a, err := j.p.reduce(n.Left)
	if err != nil {
		return struct{}{}, err
	}
	b, err := j.p.reduce(n.Right)
	if err != nil {
		return struct{}{}, err
	}
	j.p.emitJumps(n.Op.Lexeme, a, b, j.t, j.f)
	return struct{}{}, nil
}

// and: if Left is false go straight to f; otherwise Right decides.
func (j jumper) and(n *And) (struct{}, error) {
	label := j.f
	if label == ir.Next {
		label = j.p.newLabel()
	}
	if err := j.p.jumping(n.Left, ir.Next, label); err != nil {
		return struct{}{}, err
	}
	if err := j.p.jumping(n.Right, j.t, j.f); err != nil {
		return struct{}{}, err
	}
	if j.f == ir.Next {
		j.p.placeLabel(label)
	}
	return struct{}{}, nil
}

// or: if Left is true go straight to t; otherwise Right decides.
func (j jumper) or(n *Or) (struct{}, error) {
	label := j.t
	if label == ir.Next {
		label = j.p.newLabel()
	}
	if err := j.p.jumping(n.Left, label, ir.Next); err != nil {
		return struct{}{}, err
	}
	if err := j.p.jumping(n.Right, j.t, j.f); err != nil {
		return struct{}{}, err
	}
	if j.t == ir.Next {
		j.p.placeLabel(label)
	}
	return struct{}{}, nil
}

func (j jumper) not(n *Not) (struct{}, error) {
	return struct{}{}, j.p.jumping(n.Operand, j.f, j.t)
}
