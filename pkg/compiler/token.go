package compiler

import "fmt"

// Tag identifies the category of a lexed token.
type Tag int

const (
	EOF Tag = iota // sentinel: end of input

	// Literals and names
	ID    // identifier
	NUM   // integer literal
	REAL  // floating-point literal
	BASIC // basic type name: int, float, char, bool

	// Keywords
	IF
	ELSE
	WHILE
	DO
	BREAK
	TRUE
	FALSE

	// Delimiters
	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	SEMICOLON // ;

	// Operators
	ASSIGN // =
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	NOT    // !
	AND    // &&
	OR     // ||
	EQ     // ==
	NE     // !=
	LT     // <
	LE     // <=
	GT     // >
	GE     // >=
)

var tagNames = [...]string{
	EOF:       "EOF",
	ID:        "ID",
	NUM:       "NUM",
	REAL:      "REAL",
	BASIC:     "BASIC",
	IF:        "IF",
	ELSE:      "ELSE",
	WHILE:     "WHILE",
	DO:        "DO",
	BREAK:     "BREAK",
	TRUE:      "TRUE",
	FALSE:     "FALSE",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	SEMICOLON: "SEMICOLON",
	ASSIGN:    "ASSIGN",
	PLUS:      "PLUS",
	MINUS:     "MINUS",
	STAR:      "STAR",
	SLASH:     "SLASH",
	NOT:       "NOT",
	AND:       "AND",
	OR:        "OR",
	EQ:        "EQ",
	NE:        "NE",
	LT:        "LT",
	LE:        "LE",
	GT:        "GT",
	GE:        "GE",
}

func (t Tag) String() string {
	if int(t) >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// keywords maps reserved words to their tag. Basic type names lex as BASIC.
var keywords = map[string]Tag{
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"do":    DO,
	"break": BREAK,
	"true":  TRUE,
	"false": FALSE,
	"int":   BASIC,
	"float": BASIC,
	"char":  BASIC,
	"bool":  BASIC,
}

// Token is a single lexical unit produced by a Scanner.
type Token struct {
	Tag    Tag
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Tag, t.Lexeme, t.Line)
}
