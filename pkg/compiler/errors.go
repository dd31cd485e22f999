package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies translation errors.
type Kind int

const (
	KindSyntax     Kind = iota // token does not fit the production being parsed
	KindUndeclared             // identifier used without a declaration in scope
	KindType                   // operand type incompatible with operator or target
	KindSemantic               // break outside a loop, redeclaration in one block
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindUndeclared:
		return "undeclared identifier"
	case KindType:
		return "type error"
	case KindSemantic:
		return "semantic error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type a translation session fails with. Every
// error is fatal to the session.
type Error struct {
	Kind   Kind
	Line   int
	Source string // text of the offending line as written, if known
	Msg    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
	if src := strings.TrimSpace(e.Source); src != "" {
		msg += "\n  |> " + src
	}
	return msg
}

// IsKind reports whether err is, or wraps, an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

func newError(kind Kind, tok Token, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: tok.Line, Msg: fmt.Sprintf(format, args...)}
}

// withSource fills in the source snippet of an *Error from s.
func withSource(err error, s Scanner) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Source == "" {
		ce.Source = s.SourceLine(ce.Line)
	}
	return err
}
