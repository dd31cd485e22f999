package compiler

import (
	"strconv"
	"strings"
	"unicode"
)

// Scanner is the token source the translator pulls from, one token of
// lookahead at a time.
type Scanner interface {
	// Scan returns the next token. After the input is exhausted it keeps
	// returning an EOF token.
	Scan() (Token, error)
	// Line is the current 1-based line of the scanner.
	Line() int
	// SourceLine returns the raw text of line n, or "" if there is none.
	SourceLine(n int) string
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src   []rune
	pos   int // index of the next rune to consume
	line  int // current 1-based source line
	lines []string
}

// NewLexer returns a Scanner over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, lines: strings.Split(src, "\n")}
}

func (l *Lexer) Line() int { return l.line }

func (l *Lexer) SourceLine(n int) string {
	if n < 1 || n > len(l.lines) {
		return ""
	}
	return l.lines[n-1]
}

// at returns the rune k places past pos, or 0 past the end of src.
func (l *Lexer) at(k int) rune {
	if l.pos+k >= len(l.src) {
		return 0
	}
	return l.src[l.pos+k]
}

func (l *Lexer) next() rune {
	r := l.at(0)
	if l.pos < len(l.src) {
		l.pos++
		if r == '\n' {
			l.line++
		}
	}
	return r
}

// takeWhile consumes runes while ok holds and returns them.
func (l *Lexer) takeWhile(ok func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && ok(l.at(0)) {
		l.next()
	}
	return string(l.src[start:l.pos])
}

// skipSpace consumes white space, // comments and /* */ comments.
func (l *Lexer) skipSpace() error {
	for {
		l.takeWhile(unicode.IsSpace)
		switch {
		case l.at(0) == '/' && l.at(1) == '/':
			l.takeWhile(func(r rune) bool { return r != '\n' })
		case l.at(0) == '/' && l.at(1) == '*':
			open := l.line
			l.pos += 2
			for !(l.at(0) == '*' && l.at(1) == '/') {
				if l.pos >= len(l.src) {
					return &Error{Kind: KindSyntax, Line: open, Msg: "unterminated block comment"}
				}
				l.next()
			}
			l.pos += 2
		default:
			return nil
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// word scans an identifier, or a keyword if the map has it.
func (l *Lexer) word() Token {
	line := l.line
	lexeme := l.takeWhile(isWordRune)
	if kw, ok := keywords[lexeme]; ok {
		return Token{Tag: kw, Lexeme: lexeme, Line: line}
	}
	return Token{Tag: ID, Lexeme: lexeme, Line: line}
}

// number scans NUM, or REAL when a '.' sits between two digit runs.
func (l *Lexer) number() Token {
	line := l.line
	whole := l.takeWhile(unicode.IsDigit)
	if l.at(0) != '.' || !unicode.IsDigit(l.at(1)) {
		return Token{Tag: NUM, Lexeme: whole, Line: line}
	}
	l.next()
	return Token{Tag: REAL, Lexeme: whole + "." + l.takeWhile(unicode.IsDigit), Line: line}
}

// Scan returns the next token after any space and comments.
func (l *Lexer) Scan() (Token, error) {
	if err := l.skipSpace(); err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) {
		return Token{Tag: EOF, Line: l.line}, nil
	}

	ch := l.at(0)
	line := l.line

	if unicode.IsLetter(ch) || ch == '_' {
		return l.word(), nil
	}
	if unicode.IsDigit(ch) {
		return l.number(), nil
	}

	// pair distinguishes ch from ch followed by second, e.g. = vs ==
	pair := func(second rune, long, short Tag) Token {
		if l.at(0) == second {
			l.next()
			return Token{long, string([]rune{ch, second}), line}
		}
		return Token{short, string(ch), line}
	}

	l.next()
	switch ch {
	case '{':
		return Token{LBRACE, "{", line}, nil
	case '}':
		return Token{RBRACE, "}", line}, nil
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case '[':
		return Token{LBRACKET, "[", line}, nil
	case ']':
		return Token{RBRACKET, "]", line}, nil
	case ';':
		return Token{SEMICOLON, ";", line}, nil
	case '+':
		return Token{PLUS, "+", line}, nil
	case '-':
		return Token{MINUS, "-", line}, nil
	case '*':
		return Token{STAR, "*", line}, nil
	case '/':
		return Token{SLASH, "/", line}, nil
	case '=':
		return pair('=', EQ, ASSIGN), nil
	case '!':
		return pair('=', NE, NOT), nil
	case '<':
		return pair('=', LE, LT), nil
	case '>':
		return pair('=', GE, GT), nil
	case '&':
		if l.at(0) == '&' {
			l.next()
			return Token{AND, "&&", line}, nil
		}
	case '|':
		if l.at(0) == '|' {
			l.next()
			return Token{OR, "||", line}, nil
		}
	}
	return Token{}, &Error{Kind: KindSyntax, Line: line, Msg: "unexpected character " + strconv.QuoteRune(ch)}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It stops at the first illegal character or unterminated comment.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok, err := l.Scan()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Tag == EOF {
			return tokens, nil
		}
	}
}
