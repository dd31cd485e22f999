package compiler

import (
	"fmt"
	"sort"
	"strings"

	"tacc/pkg/ir"
)

// Id is a declared variable. It is created once at its declaration and is
// also the expression node for a reference to that variable.
type Id struct {
	Name   string
	Offset int // byte offset in the program frame
	Line   int // declaration line
	typ    *Type
}

// NewId returns the symbol for a variable of type t stored at offset.
func NewId(name string, t *Type, offset, line int) *Id {
	return &Id{Name: name, Offset: offset, Line: line, typ: t}
}

func (id *Id) Type() *Type { return id.typ }

// Env is one scope: the names declared in a block plus a link to the
// enclosing block's scope.
type Env struct {
	table map[string]*Id
	prev  *Env
}

// NewEnv opens a scope nested in prev. prev may be nil for the outermost one.
func NewEnv(prev *Env) *Env {
	return &Env{table: make(map[string]*Id), prev: prev}
}

// Parent returns the enclosing scope, or nil.
func (e *Env) Parent() *Env { return e.prev }

// Put declares id in this scope. It reports false, leaving the scope
// unchanged, if the name is already declared here.
func (e *Env) Put(id *Id) bool {
	if _, ok := e.table[id.Name]; ok {
		return false
	}
	e.table[id.Name] = id
	return true
}

// Lookup finds name in this scope or the nearest enclosing one.
func (e *Env) Lookup(name string) (*Id, bool) {
	for env := e; env != nil; env = env.prev {
		if id, ok := env.table[name]; ok {
			return id, true
		}
	}
	return nil, false
}

// String returns a deterministically ordered dump of the chain, innermost
// scope first.
func (e *Env) String() string {
	var sb strings.Builder
	depth := 0
	for env := e; env != nil; env = env.prev {
		fmt.Fprintf(&sb, "Scope %d:\n", depth)
		names := make([]string, 0, len(env.table))
		for name := range env.table {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			id := env.table[name]
			fmt.Fprintf(&sb, "  %-20s  Offset: %d (Width: %d, Type: %s)\n", name, id.Offset, id.typ.Width, id.typ)
		}
		depth++
	}
	return sb.String()
}

func (id *Id) operand() ir.Operand {
	return ir.Operand{Kind: ir.Var, Name: id.Name, Type: id.typ.String(), Offset: id.Offset, Width: id.typ.Width}
}
