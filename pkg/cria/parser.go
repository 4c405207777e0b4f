package cria

import (
	"fmt"
	"os"

	"github.com/cria-lang/cria/pkg/ty"
)

// PrintName is the callee name that the parser turns into a Print node.
const PrintName = "radinho"

// DefaultMaxDepth bounds the nesting of expressions, both while parsing and
// while checking.
const DefaultMaxDepth = 1000

// Option configures Parse.
type Option func(*parser)

// MaxDepth sets the deepest expression nesting the parser accepts.
func MaxDepth(depth int) Option {
	return func(p *parser) {
		p.maxDepth = depth
	}
}

type parser struct {
	filename string
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
	eofLoc   *SourceLocation
}

// Parse lexes and parses a whole program.
func Parse(filename, source string, opts ...Option) ([]Node, error) {
	tokens, err := Lex(filename, source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(filename, tokens, opts...)
}

// ParseFile reads and parses the named file.
func ParseFile(filename string, opts ...Option) ([]Node, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(filename, string(source), opts...)
}

// ParseTokens parses an already lexed program.
func ParseTokens(filename string, tokens []Token, opts ...Option) ([]Node, error) {
	p := &parser{
		filename: filename,
		tokens:   tokens,
		maxDepth: DefaultMaxDepth,
		eofLoc:   &SourceLocation{Filename: filename, Line: 1, Column: 1, Length: 1},
	}
	for _, opt := range opts {
		opt(p)
	}
	if n := len(tokens); n > 0 {
		last := tokens[n-1].Loc
		p.eofLoc = &SourceLocation{
			Filename: filename,
			Line:     last.Line,
			Column:   last.Column + last.Length,
			Length:   1,
		}
	}

	var nodes []Node
	for !p.atEOF() {
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (p *parser) atEOF() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() (Token, bool) {
	if p.atEOF() {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekIs(kind TokenKind) bool {
	tok, ok := p.peek()
	return ok && tok.Kind == kind
}

func (p *parser) peekAt(offset int, kind TokenKind) bool {
	i := p.pos + offset
	return i < len(p.tokens) && p.tokens[i].Kind == kind
}

func (p *parser) errorf(tok *Token, format string, args ...any) *ParseError {
	if tok == nil {
		return &ParseError{
			Message:    fmt.Sprintf(format, args...) + ", but found end of input",
			Location:   p.eofLoc,
			Incomplete: true,
		}
	}
	return &ParseError{
		Message:  fmt.Sprintf(format, args...) + ", but found " + tok.String(),
		Location: tok.Loc,
	}
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok, ok := p.peek()
	if !ok {
		return Token{}, p.errorf(nil, "expected %s", kind)
	}
	if tok.Kind != kind {
		return Token{}, p.errorf(&tok, "expected %s", kind)
	}
	p.pos++
	return tok, nil
}

func (p *parser) skipSemicolon() {
	if p.peekIs(TokenSemicolon) {
		p.pos++
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		loc := p.eofLoc
		if tok, ok := p.peek(); ok {
			loc = tok.Loc
		}
		return &ParseError{
			Message:  fmt.Sprintf("expression nested deeper than %d levels", p.maxDepth),
			Location: loc,
		}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok, ok := p.peek()
	if !ok {
		return nil, p.errorf(nil, "expected expression")
	}

	switch tok.Kind {
	case TokenVar:
		return p.parseVariable()
	case TokenFunc:
		return p.parseFunction()
	case TokenIf:
		return p.parseIf()
	case TokenReturn:
		return p.parseReturn()
	case TokenOp:
		return p.parseBinaryOp(false)
	case TokenLParen:
		if p.peekAt(1, TokenOp) {
			return p.parseBinaryOp(true)
		}
	case TokenIdent:
		if p.peekAt(1, TokenLParen) {
			return p.parseCall()
		}
		p.pos++
		return &Symbol{Name: tok.Text, Loc: tok.Loc}, nil
	case TokenString:
		p.pos++
		return &String{Value: tok.Text, Loc: tok.Loc}, nil
	case TokenNumber:
		p.pos++
		return &Number{Value: tok.Number(), Loc: tok.Loc}, nil
	case TokenBoolean:
		p.pos++
		return &Boolean{Value: tok.Text == "true", Loc: tok.Loc}, nil
	}
	return nil, p.errorf(&tok, "expected expression")
}

func (p *parser) parseVariable() (Node, error) {
	if _, err := p.expect(TokenVar); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSemicolon()
	return &Variable{Name: name.Text, Value: value, Loc: name.Loc}, nil
}

func (p *parser) parseFunction() (Node, error) {
	if _, err := p.expect(TokenFunc); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var params []*Param
	if !p.peekIs(TokenRParen) {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.peekIs(TokenComma) {
				break
			}
			p.pos++
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &Function{
		Name:       name.Text,
		Params:     params,
		Body:       body,
		ReturnType: ret,
		Loc:        name.Loc,
	}, nil
}

func (p *parser) parseParam() (*Param, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &Param{Name: name.Text, Type: t, Loc: name.Loc}, nil
}

// parseType reads a primitive type name or an arrow type such as
// (number, number) => number.
func (p *parser) parseType() (ty.Type, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok, ok := p.peek()
	if !ok {
		return nil, p.errorf(nil, "expected type")
	}
	switch tok.Kind {
	case TokenType:
		p.pos++
		return tok.TypeValue(), nil
	case TokenLParen:
		p.pos++
		var params ty.Types
		if !p.peekIs(TokenRParen) {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
				if !p.peekIs(TokenComma) {
					break
				}
				p.pos++
			}
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenArrow); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return ty.NewArrowType(params, ret), nil
	}
	return nil, p.errorf(&tok, "expected type")
}

func (p *parser) parseBlock() ([]Node, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var body []Node
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, p.errorf(nil, "expected %s", TokenRBrace)
		}
		if tok.Kind == TokenRBrace {
			p.pos++
			return body, nil
		}
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, node)
	}
}

func (p *parser) parseIf() (Node, error) {
	kw, err := p.expect(TokenIf)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &If{Condition: cond, Then: then, Loc: kw.Loc}, nil
}

func (p *parser) parseReturn() (Node, error) {
	kw, err := p.expect(TokenReturn)
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSemicolon()
	return &Return{Value: value, Loc: kw.Loc}, nil
}

// parseBinaryOp reads prefix operator syntax: "+ a b" or "(+ a b)".
func (p *parser) parseBinaryOp(parens bool) (Node, error) {
	if parens {
		if _, err := p.expect(TokenLParen); err != nil {
			return nil, err
		}
	}
	op, err := p.expect(TokenOp)
	if err != nil {
		return nil, err
	}
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if parens {
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
	}
	return &BinaryOp{Op: Operator(op.Text), Left: left, Right: right, Loc: op.Loc}, nil
}

func (p *parser) parseCall() (Node, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var args []Node
	if !p.peekIs(TokenRParen) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.peekIs(TokenComma) {
				break
			}
			p.pos++
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	p.skipSemicolon()

	if name.Text == PrintName {
		return &Print{Values: args, Loc: name.Loc}, nil
	}
	return &FunctionApp{Name: name.Text, Args: args, Loc: name.Loc}, nil
}
