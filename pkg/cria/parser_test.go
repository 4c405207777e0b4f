package cria

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cria-lang/cria/pkg/ty"
)

// stripLocations clears source positions so parsed trees can be compared
// with hand-built ones.
func stripLocations(nodes []Node) []Node {
	walk(func(n Node) bool {
		switch x := n.(type) {
		case *Symbol:
			x.Loc = nil
		case *String:
			x.Loc = nil
		case *Number:
			x.Loc = nil
		case *Boolean:
			x.Loc = nil
		case *Variable:
			x.Loc = nil
		case *Function:
			x.Loc = nil
			for _, p := range x.Params {
				p.Loc = nil
			}
		case *FunctionApp:
			x.Loc = nil
		case *Return:
			x.Loc = nil
		case *BinaryOp:
			x.Loc = nil
		case *If:
			x.Loc = nil
		case *Print:
			x.Loc = nil
		}
		return true
	}, nodes...)
	return nodes
}

func parse(t *testing.T, source string) []Node {
	t.Helper()
	nodes, err := Parse("test", source)
	require.NoError(t, err)
	return stripLocations(nodes)
}

func TestParseVariable(t *testing.T) {
	assert.Equal(t, []Node{variable("test", str("test"))}, parse(t, `cria test = "test";`))
	assert.Equal(t, []Node{variable("test", num(1))}, parse(t, `cria test = 1`))
}

func TestParseFunction(t *testing.T) {
	expected := fn("test", []*Param{param("x", ty.String), param("y", ty.Number)}, ty.Boolean,
		ret(boolean(true)))
	assert.Equal(t, []Node{expected},
		parse(t, "pegaVisao test(x: string, y: number): boolean { tomali true; }"))

	assert.Equal(t, []Node{fn("nothing", nil, ty.Void, ret(printNode(str("hi"))))},
		parse(t, `pegaVisao nothing(): void { tomali radinho("hi") }`))
}

func TestParseVariableAndFunction(t *testing.T) {
	nodes := parse(t, `
cria test = "test";
pegaVisao test(x: string): string { tomali x }
`)
	assert.Equal(t, []Node{
		variable("test", str("test")),
		fn("test", []*Param{param("x", ty.String)}, ty.String, ret(sym("x"))),
	}, nodes)
}

func TestParseArrowTypes(t *testing.T) {
	nodes := parse(t, "pegaVisao apply(f: (number, number) => number, g: () => (string) => void): number { tomali 1 }")
	require.Len(t, nodes, 1)
	f := nodes[0].(*Function)
	requireType(t, arrow(ty.Number, ty.Number, ty.Number), f.Params[0].Type)
	requireType(t, arrow(arrow(ty.Void, ty.String)), f.Params[1].Type)
}

func TestParseBinaryOps(t *testing.T) {
	assert.Equal(t, []Node{op(OpAdd, num(1), num(2))}, parse(t, "+ 1 2"))
	assert.Equal(t, []Node{op(OpAdd, num(1), num(2))}, parse(t, "(+ 1 2)"))
	assert.Equal(t,
		[]Node{op(OpMul, op(OpAdd, sym("a"), sym("b")), sym("c"))},
		parse(t, "* (+ a b) c"))
	assert.Equal(t,
		[]Node{op(OpEq, sym("n"), num(1))},
		parse(t, "== n 1"))
}

func TestParseIf(t *testing.T) {
	assert.Equal(t,
		[]Node{ifThen(op(OpLte, sym("n"), num(1)), ret(num(1)))},
		parse(t, "qualfoi?(<= n 1) { tomali 1 }"))
}

func TestParseCalls(t *testing.T) {
	assert.Equal(t, []Node{call("f")}, parse(t, "f()"))
	assert.Equal(t, []Node{call("f", num(1), call("g", sym("x")), op(OpSub, num(1), num(2)))},
		parse(t, "f(1, g(x), - 1 2);"))
	assert.Equal(t, []Node{printNode(str("a"), num(1))}, parse(t, `radinho("a", 1)`))
}

func TestParseFunctionArgument(t *testing.T) {
	nodes := parse(t, "apply(pegaVisao mul(a: number, b: number): number { tomali * a b }, 2, 3)")
	assert.Equal(t, []Node{call("apply",
		fn("mul", []*Param{param("a", ty.Number), param("b", ty.Number)}, ty.Number,
			ret(op(OpMul, sym("a"), sym("b")))),
		num(2), num(3),
	)}, nodes)
}

func TestParseFactorial(t *testing.T) {
	nodes := parse(t, `
pegaVisao factorial(n: number): number {
  qualfoi?(== n 1) {
    tomali 1;
  }
  tomali * n factorial(- n 1);
}
`)
	assert.Equal(t, []Node{factorialFn()}, nodes)
}

func TestParseLocations(t *testing.T) {
	nodes, err := Parse("main.cria", "cria x = 1\npegaVisao f(): number { tomali x }")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 1, Column: 6, Length: 1}, nodes[0].GetSourceLocation())
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 2, Column: 11, Length: 1}, nodes[1].GetSourceLocation())
	body := nodes[1].(*Function).Body
	assert.Equal(t, &SourceLocation{Filename: "main.cria", Line: 2, Column: 25, Length: 6}, body[0].GetSourceLocation())
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		source     string
		message    string
		incomplete bool
	}{
		{"cria = 1", "expected identifier, but found '='", false},
		{"cria x 1", "expected '=', but found number \"1\"", false},
		{"}", "expected expression, but found '}'", false},
		{"pegaVisao f(x): number { tomali x }", "expected ':', but found ')'", false},
		{"pegaVisao f(x: number) { tomali x }", "expected ':', but found '{'", false},
		{"pegaVisao f(x: nada): number { tomali x }", "expected type, but found identifier \"nada\"", false},
		{"cria x =", "expected expression, but found end of input", true},
		{"pegaVisao f(): number {", "expected '}', but found end of input", true},
		{"qualfoi?(true) { tomali 1", "expected '}', but found end of input", true},
		{"f(1, 2", "expected ')', but found end of input", true},
	} {
		t.Run(tc.source, func(t *testing.T) {
			_, err := Parse("test", tc.source)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.message, parseErr.Message)
			assert.Equal(t, tc.incomplete, IsIncomplete(err))
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	source := strings.Repeat("+ 1 ", 50) + "1"
	_, err := Parse("test", source, MaxDepth(10))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, fmt.Sprintf("expression nested deeper than %d levels", 10), parseErr.Message)

	nodes, err := Parse("test", source)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
