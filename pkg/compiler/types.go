package compiler

import "fmt"

// Type is either a basic type (Of == nil) or an array of Size elements of
// type Of. Width is the storage size in bytes; for arrays it is always
// Size * Of.Width.
type Type struct {
	Name  string
	Width int
	Size  int
	Of    *Type
}

// Basic types. These are shared singletons; compare them by pointer.
var (
	Int   = &Type{Name: "int", Width: 4}
	Float = &Type{Name: "float", Width: 8}
	Char  = &Type{Name: "char", Width: 1}
	Bool  = &Type{Name: "bool", Width: 1}
)

var basicTypes = map[string]*Type{
	"int":   Int,
	"float": Float,
	"char":  Char,
	"bool":  Bool,
}

// NewArray returns the type of an array of size elements of type of.
func NewArray(size int, of *Type) *Type {
	return &Type{Name: "[]", Size: size, Of: of, Width: size * of.Width}
}

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool { return t.Of != nil }

func (t *Type) String() string {
	if t.IsArray() {
		return fmt.Sprintf("[%d]%s", t.Size, t.Of)
	}
	return t.Name
}

// Numeric reports whether t takes part in arithmetic.
func Numeric(t *Type) bool {
	return t == Char || t == Int || t == Float
}

// Integral reports whether t can be used as an array index.
func Integral(t *Type) bool {
	return t == Char || t == Int
}

// Max returns the wider of two numeric types in the order char < int < float,
// or nil if either is not numeric.
func Max(a, b *Type) *Type {
	switch {
	case !Numeric(a) || !Numeric(b):
		return nil
	case a == Float || b == Float:
		return Float
	case a == Int || b == Int:
		return Int
	}
	return Char
}

// assignable reports whether a value of type src may be stored into dst.
// Numeric values may only widen, except that any integral value may be
// stored into a char, keeping its low byte.
func assignable(dst, src *Type) bool {
	if dst.IsArray() || src.IsArray() {
		return false
	}
	if dst == Bool || src == Bool {
		return dst == src
	}
	if dst == Char {
		return Integral(src)
	}
	return Max(dst, src) == dst
}
