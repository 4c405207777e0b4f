package cria

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cria-lang/cria/pkg/ty"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenString
	TokenNumber
	TokenBoolean
	TokenType
	TokenVar    // cria
	TokenFunc   // pegaVisao
	TokenReturn // tomali
	TokenIf     // qualfoi?
	TokenEqual
	TokenArrow
	TokenLParen
	TokenRParen
	TokenComma
	TokenLBrace
	TokenRBrace
	TokenColon
	TokenSemicolon
	TokenOp
)

var tokenKindNames = [...]string{
	TokenIdent:     "identifier",
	TokenString:    "string",
	TokenNumber:    "number",
	TokenBoolean:   "boolean",
	TokenType:      "type",
	TokenVar:       "'cria'",
	TokenFunc:      "'pegaVisao'",
	TokenReturn:    "'tomali'",
	TokenIf:        "'qualfoi?'",
	TokenEqual:     "'='",
	TokenArrow:     "'=>'",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenComma:     "','",
	TokenLBrace:    "'{'",
	TokenRBrace:    "'}'",
	TokenColon:     "':'",
	TokenSemicolon: "';'",
	TokenOp:        "operator",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexeme with its position. Text is the raw spelling, except for
// strings where it is the unquoted contents.
type Token struct {
	Kind TokenKind
	Text string
	Loc  *SourceLocation
}

func (t Token) String() string {
	switch t.Kind {
	case TokenIdent, TokenNumber, TokenBoolean, TokenType, TokenOp:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case TokenString:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return t.Kind.String()
	}
}

// Number returns the value of a TokenNumber.
func (t Token) Number() float64 {
	v, _ := strconv.ParseFloat(t.Text, 64)
	return v
}

// TypeValue returns the primitive type named by a TokenType.
func (t Token) TypeValue() ty.Type {
	return ty.TypeConst(t.Text)
}

var keywords = map[string]TokenKind{
	"cria":      TokenVar,
	"pegaVisao": TokenFunc,
	"tomali":    TokenReturn,
	"true":      TokenBoolean,
	"false":     TokenBoolean,
	"string":    TokenType,
	"number":    TokenType,
	"boolean":   TokenType,
	"void":      TokenType,
}

const ifKeyword = "qualfoi"

type lexer struct {
	filename string
	src      string
	pos      int
	line     int
	col      int
	tokens   []Token
}

// Lex splits source into tokens. Keywords are recognized only as whole
// words, so "criado" is an identifier.
func Lex(filename, source string) ([]Token, error) {
	l := &lexer{filename: filename, src: source, line: 1, col: 1}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return l.tokens, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) loc(length int) *SourceLocation {
	return &SourceLocation{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.col,
		Length:   length,
	}
}

func (l *lexer) emit(kind TokenKind, text string, width int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Loc: l.loc(width)})
	l.advance(width)
}

func (l *lexer) advance(n int) {
	for range n {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else if utf8.RuneStart(l.src[l.pos]) {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance(1)
		default:
			return
		}
	}
}

func (l *lexer) next() error {
	rest := l.src[l.pos:]
	c := rest[0]

	switch {
	case isDigit(c):
		n := takeWhile(rest, isDigit)
		if n < len(rest)-1 && rest[n] == '.' && isDigit(rest[n+1]) {
			n += 1 + takeWhile(rest[n+1:], isDigit)
		}
		l.emit(TokenNumber, rest[:n], n)
		return nil

	case isLetter(c):
		n := takeWhile(rest, isIdentChar)
		word := rest[:n]
		if word == ifKeyword && n < len(rest) && rest[n] == '?' {
			l.emit(TokenIf, word+"?", n+1)
			return nil
		}
		if kind, ok := keywords[word]; ok {
			l.emit(kind, word, n)
			return nil
		}
		l.emit(TokenIdent, word, n)
		return nil

	case c == '"' || c == '\'':
		end := strings.IndexByte(rest[1:], c)
		if end < 0 {
			return &ParseError{
				Message:    "unterminated string literal",
				Location:   l.loc(1),
				Incomplete: true,
			}
		}
		l.emit(TokenString, rest[1:end+1], end+2)
		return nil
	}

	if strings.HasPrefix(rest, "=>") {
		l.emit(TokenArrow, "=>", 2)
		return nil
	}
	for _, op := range Operators {
		if strings.HasPrefix(rest, string(op)) {
			l.emit(TokenOp, string(op), len(op))
			return nil
		}
	}

	switch c {
	case '=':
		l.emit(TokenEqual, "=", 1)
	case '(':
		l.emit(TokenLParen, "(", 1)
	case ')':
		l.emit(TokenRParen, ")", 1)
	case ',':
		l.emit(TokenComma, ",", 1)
	case '{':
		l.emit(TokenLBrace, "{", 1)
	case '}':
		l.emit(TokenRBrace, "}", 1)
	case ':':
		l.emit(TokenColon, ":", 1)
	case ';':
		l.emit(TokenSemicolon, ";", 1)
	default:
		r, _ := utf8.DecodeRuneInString(rest)
		return &ParseError{
			Message:  fmt.Sprintf("unexpected character %q", r),
			Location: l.loc(1),
		}
	}
	return nil
}

func takeWhile(s string, pred func(byte) bool) int {
	n := 0
	for n < len(s) && pred(s[n]) {
		n++
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-'
}
