package cria

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cria-lang/cria/pkg/ty"
)

// Value is a runtime value.
type Value interface {
	Type() ty.Type
	String() string
}

type NumberValue struct {
	Val float64
}

func (n NumberValue) Type() ty.Type   { return ty.Number }
func (n NumberValue) String() string { return FormatNumber(n.Val) }

type StringValue struct {
	Val string
}

func (s StringValue) Type() ty.Type   { return ty.String }
func (s StringValue) String() string { return s.Val }

type BoolValue struct {
	Val bool
}

func (b BoolValue) Type() ty.Type   { return ty.Boolean }
func (b BoolValue) String() string { return strconv.FormatBool(b.Val) }

// VoidValue is the result of expressions that produce nothing, such as
// printing.
type VoidValue struct{}

func (VoidValue) Type() ty.Type   { return ty.Void }
func (VoidValue) String() string { return "undefined" }

// FunctionValue is a user-defined function closed over its defining scope,
// which includes the function itself.
type FunctionValue struct {
	Fn      *Function
	Closure *EvalEnv
}

func (f *FunctionValue) Type() ty.Type   { return f.Fn.Signature() }
func (f *FunctionValue) String() string { return fmt.Sprintf("[Function: %s]", f.Fn.Name) }

// BuiltinFunction is a function implemented in Go.
type BuiltinFunction struct {
	Def BuiltinDef
}

func (b BuiltinFunction) Type() ty.Type   { return b.Def.Signature() }
func (b BuiltinFunction) String() string { return fmt.Sprintf("[Function: %s]", b.Def.Name) }

var (
	_ Value = NumberValue{}
	_ Value = StringValue{}
	_ Value = BoolValue{}
	_ Value = VoidValue{}
	_ Value = (*FunctionValue)(nil)
	_ Value = BuiltinFunction{}
)

// FormatNumber renders a number the way JavaScript's console.log does: the
// shortest digits that round-trip, switching to exponent notation when the
// decimal exponent is at least 21 or below -6.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	exp, err := strconv.Atoi(expPart)
	if err != nil || (exp < 21 && exp >= -6) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	sign := "+"
	if exp < 0 {
		sign = "-"
		exp = -exp
	}
	return mantissa + "e" + sign + strconv.Itoa(exp)
}

// FormatValues joins values the way console.log separates its arguments.
func FormatValues(vals []Value) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = v.String()
	}
	return strings.Join(strs, " ")
}

// valuesEqual compares two values of the same cria type.
func valuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && x.Val == y.Val
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x.Val == y.Val
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x.Val == y.Val
	case VoidValue:
		_, ok := b.(VoidValue)
		return ok
	case *FunctionValue:
		y, ok := b.(*FunctionValue)
		return ok && x == y
	case BuiltinFunction:
		y, ok := b.(BuiltinFunction)
		return ok && x.Def.Name == y.Def.Name
	default:
		return false
	}
}

// compareValues orders numbers, strings and booleans (false < true). ok is
// false for values without an ordering.
func compareValues(a, b Value) (cmp int, ok bool) {
	switch x := a.(type) {
	case NumberValue:
		y, ok := b.(NumberValue)
		if !ok || math.IsNaN(x.Val) || math.IsNaN(y.Val) {
			return 0, false
		}
		switch {
		case x.Val < y.Val:
			return -1, true
		case x.Val > y.Val:
			return 1, true
		}
		return 0, true
	case StringValue:
		y, ok := b.(StringValue)
		if !ok {
			return 0, false
		}
		return strings.Compare(x.Val, y.Val), true
	case BoolValue:
		y, ok := b.(BoolValue)
		if !ok {
			return 0, false
		}
		switch {
		case x.Val == y.Val:
			return 0, true
		case !x.Val:
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}
