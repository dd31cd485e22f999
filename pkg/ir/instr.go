// Package ir defines the three-address instruction stream produced by the
// translator and consumed by printers and the reference interpreter.
package ir

import "fmt"

// Label is a jump target. Labels are numbered from 1 within one translation
// session; the zero value is the "fall through to the next instruction"
// sentinel.
type Label int

// Next means "no jump, continue with the following instruction".
const Next Label = 0

func (l Label) String() string {
	if l == Next {
		return "next"
	}
	return fmt.Sprintf("L%d", int(l))
}

// Op identifies the kind of an instruction.
type Op int

const (
	OpLabel        Op = iota // Target:
	OpGoto                   // goto Target
	OpIf                     // if Rel A B goto Target
	OpIfFalse                // iffalse Rel A B goto Target
	OpMove                   // Dst <- A
	OpNeg                    // Dst <- -A
	OpAdd                    // Dst <- A + B
	OpSub                    // Dst <- A - B
	OpMul                    // Dst <- A * B
	OpDiv                    // Dst <- A / B
	OpLoadIndexed            // Dst <- Base[A]
	OpStoreIndexed           // Base[A] <- B
)

var opNames = [...]string{
	OpLabel:        "label",
	OpGoto:         "goto",
	OpIf:           "if",
	OpIfFalse:      "iffalse",
	OpMove:         "move",
	OpNeg:          "neg",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpLoadIndexed:  "loadindexed",
	OpStoreIndexed: "storeindexed",
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsJump reports whether the instruction transfers control to Target.
func (o Op) IsJump() bool {
	return o == OpGoto || o == OpIf || o == OpIfFalse
}

// Symbol returns the infix operator of an arithmetic op, or "" for others.
func (o Op) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return ""
}

// OperandKind says where an operand's value lives.
type OperandKind int

const (
	None  OperandKind = iota // unused slot
	Var                      // declared variable, addressed by frame Offset
	Temp                     // compiler temporary t1, t2, ...
	Const                    // literal; Name holds its source text
)

func (k OperandKind) String() string {
	switch k {
	case Var:
		return "var"
	case Temp:
		return "temp"
	case Const:
		return "const"
	}
	return "none"
}

// Operand is an atomic address: a variable, a temporary or a constant.
type Operand struct {
	Kind   OperandKind
	Name   string
	Type   string // "int", "float", "char", "bool" or an array type like "[3]int"
	Offset int    // byte offset in the frame; Var only
	Width  int    // storage width of Type; Var only
}

// IsZero reports whether the operand slot is unused.
func (o Operand) IsZero() bool { return o.Kind == None }

func (o Operand) String() string { return o.Name }

// Instr is one three-address instruction. Which fields are meaningful depends
// on Op; see the Op constants.
type Instr struct {
	Op     Op
	Dst    Operand
	A, B   Operand
	Base   Operand // array variable of an indexed load/store
	Rel    string  // comparison of an If/IfFalse; empty tests A on its own
	Target Label
	Line   int // source line the instruction was translated from
}

func (in Instr) String() string {
	switch in.Op {
	case OpLabel:
		return fmt.Sprintf("label %s", in.Target)
	case OpGoto:
		return fmt.Sprintf("goto %s", in.Target)
	case OpIf, OpIfFalse:
		if in.Rel == "" {
			return fmt.Sprintf("%s %s goto %s", in.Op, in.A, in.Target)
		}
		return fmt.Sprintf("%s %s %s %s goto %s", in.Op, in.Rel, in.A, in.B, in.Target)
	case OpMove:
		return fmt.Sprintf("move %s <- %s", in.Dst, in.A)
	case OpNeg:
		return fmt.Sprintf("neg %s <- - %s", in.Dst, in.A)
	case OpAdd, OpSub, OpMul, OpDiv:
		return fmt.Sprintf("%s %s <- %s %s %s", in.Op, in.Dst, in.A, in.Op.Symbol(), in.B)
	case OpLoadIndexed:
		return fmt.Sprintf("loadindexed %s <- %s[%s]", in.Dst, in.Base, in.A)
	case OpStoreIndexed:
		return fmt.Sprintf("storeindexed %s[%s] <- %s", in.Base, in.A, in.B)
	}
	return in.Op.String()
}
