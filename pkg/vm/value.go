package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the runtime representation of a value.
type Kind int

const (
	KindInt Kind = iota // int and char
	KindFloat
	KindBool
)

// Value is a scalar held in a frame cell or a temporary.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
}

func Int(i int64) Value     { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.B)
	}
	return strconv.FormatInt(v.I, 10)
}

func (v Value) float() float64 {
	if v.Kind == KindFloat {
		return v.F
	}
	return float64(v.I)
}

// elemType strips array suffixes: "[2][3]int" -> "int".
func elemType(t string) string {
	if i := strings.LastIndexByte(t, ']'); i >= 0 {
		return t[i+1:]
	}
	return t
}

// zero returns the zero value of a type name.
func zero(t string) Value {
	switch elemType(t) {
	case "float":
		return Float(0)
	case "bool":
		return Bool(false)
	}
	return Int(0)
}

// convert stores v as type t, widening ints to floats.
func convert(v Value, t string) (Value, error) {
	want := zero(t).Kind
	switch {
	case v.Kind == want:
		if elemType(t) == "char" {
			return Int(int64(int8(v.I))), nil
		}
		return v, nil
	case want == KindFloat && v.Kind == KindInt:
		return Float(float64(v.I)), nil
	}
	return Value{}, fmt.Errorf("cannot store %v into %s", v, t)
}

// parseConst decodes a constant operand's source text.
func parseConst(text, t string) (Value, error) {
	switch elemType(t) {
	case "bool":
		b, err := strconv.ParseBool(text)
		return Bool(b), err
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		return Float(f), err
	}
	i, err := strconv.ParseInt(text, 10, 64)
	return Int(i), err
}
