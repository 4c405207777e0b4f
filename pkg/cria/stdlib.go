package cria

import (
	"context"
	"math"
	"unicode/utf8"

	"github.com/cria-lang/cria/pkg/ty"
)

func init() {
	registerStdlib()
}

// registerStdlib registers the prelude builtins
func registerStdlib() {
	Builtin("toString").
		Doc("renders a number as a string").
		Params("n", ty.Number).
		JS("function toString(n) {\n  return String(n);\n}").
		Returns(ty.String).
		Impl(func(ctx context.Context, args Args) (Value, error) {
			return StringValue{Val: FormatNumber(args.GetNumber("n"))}, nil
		})

	Builtin("length").
		Doc("counts the characters in a string").
		Params("s", ty.String).
		JS("function length(s) {\n  return [...s].length;\n}").
		Returns(ty.Number).
		Impl(func(ctx context.Context, args Args) (Value, error) {
			return NumberValue{Val: float64(utf8.RuneCountInString(args.GetString("s")))}, nil
		})

	Builtin("floor").
		Doc("rounds a number down to an integer").
		Params("n", ty.Number).
		JS("function floor(n) {\n  return Math.floor(n);\n}").
		Returns(ty.Number).
		Impl(func(ctx context.Context, args Args) (Value, error) {
			return NumberValue{Val: math.Floor(args.GetNumber("n"))}, nil
		})

	Builtin("sqrt").
		Doc("square root").
		Params("n", ty.Number).
		JS("function sqrt(n) {\n  return Math.sqrt(n);\n}").
		Returns(ty.Number).
		Impl(func(ctx context.Context, args Args) (Value, error) {
			return NumberValue{Val: math.Sqrt(args.GetNumber("n"))}, nil
		})

	Builtin("not").
		Doc("negates a boolean").
		Params("b", ty.Boolean).
		JS("function not(b) {\n  return !b;\n}").
		Returns(ty.Boolean).
		Impl(func(ctx context.Context, args Args) (Value, error) {
			return BoolValue{Val: !args.GetBool("b")}, nil
		})
}
