// Package vm executes the three-address instruction stream produced by the
// compiler. It exists to check translations by running them.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tacc/pkg/ir"
)

// ErrStepLimit is returned by Run when the program does not finish within
// the configured number of steps.
var ErrStepLimit = errors.New("vm: step limit exceeded")

const defaultMaxSteps = 1_000_000

// Machine holds the state of one program run. Variables live in a single
// byte-addressed frame keyed by offset; temporaries are held by name.
type Machine struct {
	prog   []ir.Instr
	labels map[ir.Label]int

	PC     int
	Steps  int
	Halted bool

	frame map[int]Value
	temps map[string]Value
	names map[int]string // frame offset -> variable name, for Cells

	maxSteps int
}

type Option func(*Machine)

// WithMaxSteps bounds Run. n <= 0 keeps the default.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// New resolves the labels of prog and returns a machine ready to run it.
func New(prog []ir.Instr, opts ...Option) (*Machine, error) {
	m := &Machine{
		prog:     prog,
		labels:   make(map[ir.Label]int),
		frame:    make(map[int]Value),
		temps:    make(map[string]Value),
		names:    make(map[int]string),
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(m)
	}
	for pc, in := range prog {
		if in.Op != ir.OpLabel {
			continue
		}
		if _, dup := m.labels[in.Target]; dup {
			return nil, fmt.Errorf("vm: label %s defined twice", in.Target)
		}
		m.labels[in.Target] = pc
	}
	for pc, in := range prog {
		if in.Op.IsJump() {
			if _, ok := m.labels[in.Target]; !ok {
				return nil, fmt.Errorf("vm: instruction %d jumps to undefined label %s", pc, in.Target)
			}
		}
		for _, op := range []ir.Operand{in.Dst, in.A, in.B, in.Base} {
			if op.Kind == ir.Var {
				m.names[op.Offset] = op.Name
			}
		}
	}
	m.Halted = len(prog) == 0
	return m, nil
}

// Run steps the machine until the end of the program, an error, the step
// limit, or cancellation of ctx.
func (m *Machine) Run(ctx context.Context) error {
	for !m.Halted {
		if m.Steps >= m.maxSteps {
			return ErrStepLimit
		}
		if m.Steps&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	in := m.prog[m.PC]
	m.PC++
	m.Steps++
	if err := m.exec(in); err != nil {
		return fmt.Errorf("vm: line %d: %s: %w", in.Line, in, err)
	}
	if m.PC >= len(m.prog) {
		m.Halted = true
	}
	return nil
}

func (m *Machine) exec(in ir.Instr) error {
	switch in.Op {
	case ir.OpLabel:
		return nil

	case ir.OpGoto:
		m.PC = m.labels[in.Target]
		return nil

	case ir.OpIf, ir.OpIfFalse:
		ok, err := m.test(in)
		if err != nil {
			return err
		}
		if ok == (in.Op == ir.OpIf) {
			m.PC = m.labels[in.Target]
		}
		return nil

	case ir.OpMove:
		v, err := m.Load(in.A)
		if err != nil {
			return err
		}
		return m.store(in.Dst, v)

	case ir.OpNeg:
		v, err := m.Load(in.A)
		if err != nil {
			return err
		}
		switch v.Kind {
		case KindInt:
			v.I = -v.I
		case KindFloat:
			v.F = -v.F
		default:
			return fmt.Errorf("cannot negate %v", v)
		}
		return m.store(in.Dst, v)

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		a, err := m.Load(in.A)
		if err != nil {
			return err
		}
		b, err := m.Load(in.B)
		if err != nil {
			return err
		}
		v, err := arith(in.Op, a, b)
		if err != nil {
			return err
		}
		return m.store(in.Dst, v)

	case ir.OpLoadIndexed:
		addr, err := m.address(in.Base, in.A)
		if err != nil {
			return err
		}
		v, ok := m.frame[addr]
		if !ok {
			v = zero(in.Base.Type)
		}
		return m.store(in.Dst, v)

	case ir.OpStoreIndexed:
		addr, err := m.address(in.Base, in.A)
		if err != nil {
			return err
		}
		v, err := m.Load(in.B)
		if err != nil {
			return err
		}
		if v, err = convert(v, in.Base.Type); err != nil {
			return err
		}
		m.frame[addr] = v
		return nil
	}
	return fmt.Errorf("unknown op %s", in.Op)
}

// Load reads an operand. Unwritten variables read as the zero value of
// their type.
func (m *Machine) Load(op ir.Operand) (Value, error) {
	if op.IsZero() {
		return Value{}, errors.New("missing operand")
	}
	switch op.Kind {
	case ir.Const:
		v, err := parseConst(op.Name, op.Type)
		if err != nil {
			return Value{}, fmt.Errorf("bad constant %q: %w", op.Name, err)
		}
		return v, nil
	case ir.Var:
		if v, ok := m.frame[op.Offset]; ok {
			return v, nil
		}
		return zero(op.Type), nil
	case ir.Temp:
		v, ok := m.temps[op.Name]
		if !ok {
			return Value{}, fmt.Errorf("temporary %s read before write", op.Name)
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("unknown operand kind %s", op.Kind)
}

func (m *Machine) store(dst ir.Operand, v Value) error {
	v, err := convert(v, dst.Type)
	if err != nil {
		return err
	}
	switch dst.Kind {
	case ir.Var:
		m.frame[dst.Offset] = v
	case ir.Temp:
		m.temps[dst.Name] = v
	default:
		return fmt.Errorf("cannot store into %s operand", dst.Kind)
	}
	return nil
}

// address checks a byte offset into an array variable and returns the frame
// address it names.
func (m *Machine) address(base, off ir.Operand) (int, error) {
	v, err := m.Load(off)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindInt {
		return 0, fmt.Errorf("offset %v is not an integer", v)
	}
	if v.I < 0 || v.I >= int64(base.Width) {
		return 0, fmt.Errorf("offset %d outside %s (width %d)", v.I, base.Name, base.Width)
	}
	return base.Offset + int(v.I), nil
}

func (m *Machine) test(in ir.Instr) (bool, error) {
	a, err := m.Load(in.A)
	if err != nil {
		return false, err
	}
	if in.Rel == "" {
		if a.Kind != KindBool {
			return false, fmt.Errorf("condition %v is not bool", a)
		}
		return a.B, nil
	}
	b, err := m.Load(in.B)
	if err != nil {
		return false, err
	}
	return compare(in.Rel, a, b)
}

func arith(op ir.Op, a, b Value) (Value, error) {
	if a.Kind == KindBool || b.Kind == KindBool {
		return Value{}, fmt.Errorf("arithmetic on bool")
	}
	if a.Kind == KindFloat || b.Kind == KindFloat {
		x, y := a.float(), b.float()
		switch op {
		case ir.OpAdd:
			return Float(x + y), nil
		case ir.OpSub:
			return Float(x - y), nil
		case ir.OpMul:
			return Float(x * y), nil
		}
		return Float(x / y), nil
	}
	switch op {
	case ir.OpAdd:
		return Int(a.I + b.I), nil
	case ir.OpSub:
		return Int(a.I - b.I), nil
	case ir.OpMul:
		return Int(a.I * b.I), nil
	}
	if b.I == 0 {
		return Value{}, errors.New("integer division by zero")
	}
	return Int(a.I / b.I), nil
}

func compare(rel string, a, b Value) (bool, error) {
	if a.Kind == KindBool || b.Kind == KindBool {
		if a.Kind != b.Kind {
			return false, fmt.Errorf("cannot compare %v %s %v", a, rel, b)
		}
		switch rel {
		case "==":
			return a.B == b.B, nil
		case "!=":
			return a.B != b.B, nil
		}
		return false, fmt.Errorf("cannot order bools with %s", rel)
	}
	x, y := a.float(), b.float()
	if a.Kind == KindInt && b.Kind == KindInt {
		// exact for large ints
		switch rel {
		case "<":
			return a.I < b.I, nil
		case "<=":
			return a.I <= b.I, nil
		case ">":
			return a.I > b.I, nil
		case ">=":
			return a.I >= b.I, nil
		case "==":
			return a.I == b.I, nil
		case "!=":
			return a.I != b.I, nil
		}
	}
	switch rel {
	case "<":
		return x < y, nil
	case "<=":
		return x <= y, nil
	case ">":
		return x > y, nil
	case ">=":
		return x >= y, nil
	case "==":
		return x == y, nil
	case "!=":
		return x != y, nil
	}
	return false, fmt.Errorf("unknown comparison %q", rel)
}

// Var returns the value at a frame offset and whether it was ever written.
func (m *Machine) Var(offset int) (Value, bool) {
	v, ok := m.frame[offset]
	return v, ok
}

// Cell is one written frame location.
type Cell struct {
	Name   string // variable name, with +n for an element n bytes into an array
	Offset int
	Value  Value
}

// Cells returns every written frame location in offset order.
func (m *Machine) Cells() []Cell {
	offsets := make([]int, 0, len(m.frame))
	for off := range m.frame {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	bases := make([]int, 0, len(m.names))
	for off := range m.names {
		bases = append(bases, off)
	}
	sort.Ints(bases)

	cells := make([]Cell, 0, len(offsets))
	for _, off := range offsets {
		name := fmt.Sprintf("@%d", off)
		// the owning variable is the one with the greatest base <= off
		i := sort.SearchInts(bases, off+1) - 1
		if i >= 0 {
			base := bases[i]
			name = m.names[base]
			if off != base {
				name = fmt.Sprintf("%s+%d", name, off-base)
			}
		}
		cells = append(cells, Cell{Name: name, Offset: off, Value: m.frame[off]})
	}
	return cells
}
