package compiler

import (
	"fmt"
	"strconv"

	"tacc/pkg/ir"
)

//  Expression nodes

// Expr is implemented by every expression node. The set of node types is
// closed: only this package can add one, and adding one means adding a
// method to exprCases, which every translation of expressions implements.
type Expr interface {
	exprNode()
	Type() *Type
	String() string
}

// Temp is a compiler temporary holding an intermediate value.
type Temp struct {
	N   int
	typ *Type
}

func (*Temp) exprNode()        {}
func (t *Temp) Type() *Type    { return t.typ }
func (t *Temp) String() string { return "t" + strconv.Itoa(t.N) }
func (t *Temp) operand() ir.Operand {
	return ir.Operand{Kind: ir.Temp, Name: t.String(), Type: t.typ.String()}
}

// Constant is a literal.
//
//	i = 10;   Constant{Tok: NUM "10", typ: Int}
//	b = true; Constant{Tok: TRUE "true", typ: Bool}
type Constant struct {
	Tok Token
	typ *Type
}

func (*Constant) exprNode()        {}
func (c *Constant) Type() *Type    { return c.typ }
func (c *Constant) String() string { return c.Tok.Lexeme }
func (c *Constant) operand() ir.Operand {
	return ir.Operand{Kind: ir.Const, Name: c.Tok.Lexeme, Type: c.typ.String()}
}

// intConstant is an int literal synthesised by the translator, such as an
// element width in an address computation.
func intConstant(n, line int) *Constant {
	return &Constant{Tok: Token{Tag: NUM, Lexeme: strconv.Itoa(n), Line: line}, typ: Int}
}

// Arith is a binary arithmetic operation: Left Op Right.
type Arith struct {
	Op          Token
	Left, Right Expr
	typ         *Type
}

func (*Arith) exprNode()        {}
func (a *Arith) Type() *Type    { return a.typ }
func (a *Arith) String() string { return fmt.Sprintf("%s %s %s", a.Left, a.Op.Lexeme, a.Right) }

// NewArith checks that both operands are numeric; the result has the wider
// of the two types.
func NewArith(op Token, left, right Expr) (*Arith, error) {
	t := Max(left.Type(), right.Type())
	if t == nil {
		return nil, newError(KindType, op, "operands of %s must be numeric, got %s and %s", op.Lexeme, left.Type(), right.Type())
	}
	return &Arith{Op: op, Left: left, Right: right, typ: t}, nil
}

// Unary is arithmetic negation.
type Unary struct {
	Op      Token
	Operand Expr
	typ     *Type
}

func (*Unary) exprNode()        {}
func (u *Unary) Type() *Type    { return u.typ }
func (u *Unary) String() string { return fmt.Sprintf("%s %s", u.Op.Lexeme, u.Operand) }

func NewUnary(op Token, x Expr) (*Unary, error) {
	if !Numeric(x.Type()) {
		return nil, newError(KindType, op, "operand of unary %s must be numeric, got %s", op.Lexeme, x.Type())
	}
	t := x.Type()
	if t == Char {
		t = Int
	}
	return &Unary{Op: op, Operand: x, typ: t}, nil
}

// Rel is a comparison. Its value only ever exists as control flow.
type Rel struct {
	Op          Token
	Left, Right Expr
}

func (*Rel) exprNode()        {}
func (*Rel) Type() *Type      { return Bool }
func (r *Rel) String() string { return fmt.Sprintf("%s %s %s", r.Left, r.Op.Lexeme, r.Right) }

// NewRel accepts two numeric operands, or two bools for == and !=.
func NewRel(op Token, left, right Expr) (*Rel, error) {
	lt, rt := left.Type(), right.Type()
	ok := Max(lt, rt) != nil
	if !ok && (op.Tag == EQ || op.Tag == NE) {
		ok = lt == Bool && rt == Bool
	}
	if !ok {
		return nil, newError(KindType, op, "cannot compare %s %s %s", lt, op.Lexeme, rt)
	}
	return &Rel{Op: op, Left: left, Right: right}, nil
}

// And is short-circuit conjunction.
type And struct {
	Op          Token
	Left, Right Expr
}

func (*And) exprNode()        {}
func (*And) Type() *Type      { return Bool }
func (a *And) String() string { return fmt.Sprintf("%s && %s", a.Left, a.Right) }

func NewAnd(op Token, left, right Expr) (*And, error) {
	if err := checkLogical(op, left, right); err != nil {
		return nil, err
	}
	return &And{Op: op, Left: left, Right: right}, nil
}

// Or is short-circuit disjunction.
type Or struct {
	Op          Token
	Left, Right Expr
}

func (*Or) exprNode()        {}
func (*Or) Type() *Type      { return Bool }
func (o *Or) String() string { return fmt.Sprintf("%s || %s", o.Left, o.Right) }

func NewOr(op Token, left, right Expr) (*Or, error) {
	if err := checkLogical(op, left, right); err != nil {
		return nil, err
	}
	return &Or{Op: op, Left: left, Right: right}, nil
}

// Not is logical negation.
type Not struct {
	Op      Token
	Operand Expr
}

func (*Not) exprNode()        {}
func (*Not) Type() *Type      { return Bool }
func (n *Not) String() string { return fmt.Sprintf("! %s", n.Operand) }

func NewNot(op Token, x Expr) (*Not, error) {
	if x.Type() != Bool {
		return nil, newError(KindType, op, "operand of ! must be bool, got %s", x.Type())
	}
	return &Not{Op: op, Operand: x}, nil
}

func checkLogical(op Token, left, right Expr) error {
	if left.Type() != Bool || right.Type() != Bool {
		return newError(KindType, op, "operands of %s must be bool, got %s and %s", op.Lexeme, left.Type(), right.Type())
	}
	return nil
}

// Access is an element of an array: Array at byte offset Index.
//
//	a[i][j]   with int a[2][3]
//	Access{Array: a, Index: i * 12 + j * 4, typ: Int}
type Access struct {
	Array *Id
	Index Expr
	typ   *Type
}

func (*Access) exprNode()        {}
func (a *Access) Type() *Type    { return a.typ }
func (a *Access) String() string { return fmt.Sprintf("%s[%s]", a.Array.Name, a.Index) }

func (*Id) exprNode()         {}
func (id *Id) String() string { return id.Name }

// exprCases is one translation of expressions, with a case for every node
// type. A missing case is a compile error in the implementing type.
type exprCases[R any] interface {
	id(*Id) (R, error)
	temp(*Temp) (R, error)
	constant(*Constant) (R, error)
	arith(*Arith) (R, error)
	unary(*Unary) (R, error)
	rel(*Rel) (R, error)
	and(*And) (R, error)
	or(*Or) (R, error)
	not(*Not) (R, error)
	access(*Access) (R, error)
}

func matchExpr[R any](e Expr, c exprCases[R]) (R, error) {
	switch n := e.(type) {
	case *Id:
		return c.id(n)
	case *Temp:
		return c.temp(n)
	case *Constant:
		return c.constant(n)
	case *Arith:
		return c.arith(n)
	case *Unary:
		return c.unary(n)
	case *Rel:
		return c.rel(n)
	case *And:
		return c.and(n)
	case *Or:
		return c.or(n)
	case *Not:
		return c.not(n)
	case *Access:
		return c.access(n)
	}
	var zero R
	return zero, fmt.Errorf("compiler: unhandled expression node %T", e)
}

//  Statement nodes

// Stmt is a statement the translator has finished emitting code for. The
// parser returns one per recognised statement; it is a record of what was
// translated, complete when it is returned.
type Stmt interface {
	stmtNode()
	String() string
}

// Null is the empty statement ";" or an empty statement list.
type Null struct{}

func (*Null) stmtNode()      {}
func (*Null) String() string { return ";" }

// Seq is First followed by Rest.
type Seq struct {
	First, Rest Stmt
}

func (*Seq) stmtNode()        {}
func (s *Seq) String() string { return fmt.Sprintf("%s %s", s.First, s.Rest) }

type If struct {
	Cond Expr
	Body Stmt
}

func (*If) stmtNode()        {}
func (s *If) String() string { return fmt.Sprintf("if (%s) %s", s.Cond, s.Body) }

// Else is an if statement with an else branch.
type Else struct {
	Cond       Expr
	Then, Else Stmt
}

func (*Else) stmtNode() {}
func (s *Else) String() string {
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

type While struct {
	Cond Expr
	Body Stmt
}

func (*While) stmtNode()        {}
func (s *While) String() string { return fmt.Sprintf("while (%s) %s", s.Cond, s.Body) }

type Do struct {
	Body Stmt
	Cond Expr
}

func (*Do) stmtNode()        {}
func (s *Do) String() string { return fmt.Sprintf("do %s while (%s);", s.Body, s.Cond) }

// Break leaves the innermost enclosing loop.
type Break struct {
	Line int
}

func (*Break) stmtNode()      {}
func (*Break) String() string { return "break;" }

// Set assigns to a scalar variable.
type Set struct {
	Id   *Id
	Expr Expr
}

func (*Set) stmtNode()        {}
func (s *Set) String() string { return fmt.Sprintf("%s = %s;", s.Id, s.Expr) }

// SetElem assigns to an array element.
type SetElem struct {
	Target *Access
	Expr   Expr
}

func (*SetElem) stmtNode()        {}
func (s *SetElem) String() string { return fmt.Sprintf("%s = %s;", s.Target, s.Expr) }
