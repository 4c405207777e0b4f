package cria

import (
	"github.com/stretchr/testify/require"

	"github.com/cria-lang/cria/pkg/ty"
)

func sym(name string) *Symbol         { return &Symbol{Name: name} }
func num(v float64) *Number           { return &Number{Value: v} }
func str(s string) *String            { return &String{Value: s} }
func boolean(b bool) *Boolean         { return &Boolean{Value: b} }
func ret(v Node) *Return              { return &Return{Value: v} }
func param(n string, t ty.Type) *Param { return &Param{Name: n, Type: t} }
func variable(name string, v Node) *Variable {
	return &Variable{Name: name, Value: v}
}

func op(o Operator, l, r Node) *BinaryOp {
	return &BinaryOp{Op: o, Left: l, Right: r}
}

func call(name string, args ...Node) *FunctionApp {
	return &FunctionApp{Name: name, Args: args}
}

func ifThen(cond Node, then ...Node) *If {
	return &If{Condition: cond, Then: then}
}

func printNode(values ...Node) *Print {
	return &Print{Values: values}
}

func fn(name string, params []*Param, rt ty.Type, body ...Node) *Function {
	return &Function{Name: name, Params: params, ReturnType: rt, Body: body}
}

func arrow(rt ty.Type, params ...ty.Type) *ty.ArrowType {
	return ty.NewArrowType(params, rt)
}

func requireType(t require.TestingT, expected, actual ty.Type) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Truef(t, ty.Equal(expected, actual), "expected %s, got %s", ty.Show(expected), ty.Show(actual))
}

func requireKind(t require.TestingT, kind ErrorKind, err error) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Error(t, err)
	require.Equalf(t, kind, KindOf(err), "error: %v", err)
}

// factorialFn is
//
//	pegaVisao factorial(n: number): number {
//	  qualfoi?(== n 1) { tomali 1 }
//	  tomali * n factorial(- n 1)
//	}
func factorialFn() *Function {
	return fn("factorial", []*Param{param("n", ty.Number)}, ty.Number,
		ifThen(op(OpEq, sym("n"), num(1)), ret(num(1))),
		ret(op(OpMul, sym("n"), call("factorial", op(OpSub, sym("n"), num(1))))),
	)
}

func addFn() *Function {
	return fn("add", []*Param{param("x", ty.Number), param("y", ty.Number)}, ty.Number,
		ret(op(OpAdd, sym("x"), sym("y"))),
	)
}

// applyFn takes a binary number function and applies it.
func applyFn() *Function {
	return fn("apply", []*Param{
		param("f", arrow(ty.Number, ty.Number, ty.Number)),
		param("x", ty.Number),
		param("y", ty.Number),
	}, ty.Number,
		ret(call("f", sym("x"), sym("y"))),
	)
}
