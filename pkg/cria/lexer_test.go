package cria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

func TestLexVariable(t *testing.T) {
	tokens, err := Lex("test", `cria test = "test";`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenVar, TokenIdent, TokenEqual, TokenString, TokenSemicolon}, kinds(tokens))
	assert.Equal(t, []string{"cria", "test", "=", "test", ";"}, texts(tokens))
}

func TestLexFunction(t *testing.T) {
	tokens, err := Lex("test", "pegaVisao f(x: string, y: number): boolean { tomali true; }")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		TokenFunc, TokenIdent, TokenLParen,
		TokenIdent, TokenColon, TokenType, TokenComma,
		TokenIdent, TokenColon, TokenType,
		TokenRParen, TokenColon, TokenType,
		TokenLBrace, TokenReturn, TokenBoolean, TokenSemicolon, TokenRBrace,
	}, kinds(tokens))
	assert.Equal(t, "string", tokens[5].Text)
	assert.Equal(t, "boolean", tokens[12].Text)
}

func TestLexOperators(t *testing.T) {
	tokens, err := Lex("test", "+ - * / % < > == != <= >= = =>")
	require.NoError(t, err)
	assert.Equal(t, []string{"+", "-", "*", "/", "%", "<", ">", "==", "!=", "<=", ">=", "=", "=>"}, texts(tokens))
	for _, tok := range tokens[:11] {
		assert.Equal(t, TokenOp, tok.Kind, tok.Text)
	}
	assert.Equal(t, TokenEqual, tokens[11].Kind)
	assert.Equal(t, TokenArrow, tokens[12].Kind)
}

func TestLexIf(t *testing.T) {
	tokens, err := Lex("test", "qualfoi?(== n 1) { tomali 1 }")
	require.NoError(t, err)
	assert.Equal(t, TokenIf, tokens[0].Kind)
	assert.Equal(t, "qualfoi?", tokens[0].Text)

	tokens, err = Lex("test", "qualfoi")
	require.NoError(t, err)
	assert.Equal(t, TokenIdent, tokens[0].Kind)
}

func TestLexKeywordsAreWholeWords(t *testing.T) {
	tokens, err := Lex("test", "criado trueish numbers tomalis")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenIdent, TokenIdent, TokenIdent, TokenIdent}, kinds(tokens))
}

func TestLexIdentifiers(t *testing.T) {
	tokens, err := Lex("test", "fat-n snake_case x1 - y")
	require.NoError(t, err)
	assert.Equal(t, []string{"fat-n", "snake_case", "x1", "-", "y"}, texts(tokens))
	assert.Equal(t, TokenOp, tokens[3].Kind)
}

func TestLexLiterals(t *testing.T) {
	tokens, err := Lex("test", `42 3.14 'single' "dou'ble" true false`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		TokenNumber, TokenNumber, TokenString, TokenString, TokenBoolean, TokenBoolean,
	}, kinds(tokens))
	assert.Equal(t, []string{"42", "3.14", "single", "dou'ble", "true", "false"}, texts(tokens))
	assert.Equal(t, 3.14, tokens[1].Number())
}

func TestLexPositions(t *testing.T) {
	tokens, err := Lex("main.cria", "cria x = 1\n  radinho(x)")
	require.NoError(t, err)
	require.Len(t, tokens, 8)
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 1, Column: 6, Length: 1}, tokens[1].Loc)
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 2, Column: 3, Length: 7}, tokens[4].Loc)
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 2, Column: 11, Length: 1}, tokens[6].Loc)
}

func TestLexErrors(t *testing.T) {
	_, err := Lex("test", "cria x = 1 @")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "syntax error: unexpected character '@'", parseErr.Error())
	assert.Equal(t, 12, parseErr.Location.Column)
	assert.False(t, IsIncomplete(err))

	_, err = Lex("test", `cria x = "open`)
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "unterminated")
	assert.True(t, IsIncomplete(err))
}
