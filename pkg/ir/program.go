package ir

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink receives instructions in emission order.
type Sink interface {
	Emit(in Instr)
}

// Program is an append-only Sink that keeps every instruction.
type Program struct {
	Instrs []Instr
}

func (p *Program) Emit(in Instr) { p.Instrs = append(p.Instrs, in) }

// Len returns the number of emitted instructions.
func (p *Program) Len() int { return len(p.Instrs) }

func (p *Program) String() string { return Format(p.Instrs) }

// Count returns how many instructions have the given op.
func (p *Program) Count(op Op) int {
	n := 0
	for _, in := range p.Instrs {
		if in.Op == op {
			n++
		}
	}
	return n
}

// Printer renders instructions one per line. Label definitions start in
// column 0, everything else is indented by a tab.
type Printer struct {
	// Annotate appends the source line of each instruction as a comment.
	Annotate bool
}

func (pr Printer) Fprint(w io.Writer, instrs []Instr) error {
	for _, in := range instrs {
		var line string
		if in.Op == OpLabel {
			line = in.Target.String() + ":"
		} else {
			line = "\t" + in.String()
		}
		if pr.Annotate && in.Op != OpLabel && in.Line > 0 {
			line = fmt.Sprintf("%-40s; line %d", line, in.Line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Format renders instrs with the default Printer.
func Format(instrs []Instr) string {
	var sb strings.Builder
	_ = Printer{}.Fprint(&sb, instrs)
	return sb.String()
}

type yamlInstr struct {
	Op     string `yaml:"op"`
	Dst    string `yaml:"dst,omitempty"`
	Base   string `yaml:"base,omitempty"`
	Rel    string `yaml:"rel,omitempty"`
	A      string `yaml:"a,omitempty"`
	B      string `yaml:"b,omitempty"`
	Target string `yaml:"target,omitempty"`
	Line   int    `yaml:"line,omitempty"`
}

// MarshalYAML encodes instrs as a YAML sequence, one mapping per instruction.
func MarshalYAML(instrs []Instr) ([]byte, error) {
	out := make([]yamlInstr, 0, len(instrs))
	for _, in := range instrs {
		y := yamlInstr{
			Op:   in.Op.String(),
			Dst:  in.Dst.Name,
			Base: in.Base.Name,
			Rel:  in.Rel,
			A:    in.A.Name,
			B:    in.B.Name,
			Line: in.Line,
		}
		if in.Op == OpLabel || in.Op.IsJump() {
			y.Target = in.Target.String()
		}
		out = append(out, y)
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}
	return data, nil
}
