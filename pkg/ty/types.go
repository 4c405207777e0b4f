package ty

import (
	"fmt"
	"strings"
)

// Type is a cria type. The set of implementations is closed: TypeConst and
// *ArrowType.
type Type interface {
	Name() string
	Eq(Type) bool
	fmt.Stringer
}

// TypeConst is a primitive type.
type TypeConst string

const (
	String  TypeConst = "string"
	Number  TypeConst = "number"
	Boolean TypeConst = "boolean"
	Void    TypeConst = "void"
)

func (tc TypeConst) Name() string {
	return string(tc)
}

func (tc TypeConst) Eq(other Type) bool {
	if ot, ok := other.(TypeConst); ok {
		return tc == ot
	}
	return false
}

func (tc TypeConst) String() string {
	return string(tc)
}

// ArrowType is the type of a function: an ordered parameter list and a
// return type.
type ArrowType struct {
	params Types
	ret    Type
}

func NewArrowType(params Types, ret Type) *ArrowType {
	return &ArrowType{params: params, ret: ret}
}

func (at *ArrowType) Name() string {
	return at.String()
}

// Eq compares structurally: same arity, pairwise equal parameters and equal
// return types. Two distinct *ArrowType values can be equal.
func (at *ArrowType) Eq(other Type) bool {
	ot, ok := other.(*ArrowType)
	if !ok || at == nil || ot == nil {
		return ok && at == ot
	}
	return Equal(at.ret, ot.ret) && at.params.Eq(ot.params)
}

func (at *ArrowType) String() string {
	return fmt.Sprintf("(%s) => %s", at.params, at.ret)
}

// Params returns the parameter types in declaration order.
func (at *ArrowType) Params() Types {
	return at.params
}

// Ret returns the return type.
func (at *ArrowType) Ret() Type {
	return at.ret
}

// Types represents a slice of types
type Types []Type

// Eq reports whether both lists have the same length and are pairwise equal.
func (ts Types) Eq(other Types) bool {
	if len(ts) != len(other) {
		return false
	}
	for i := range ts {
		if !Equal(ts[i], other[i]) {
			return false
		}
	}
	return true
}

func (ts Types) String() string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = Show(t)
	}
	return strings.Join(strs, ", ")
}

// Equal is structural type equality. A nil type only equals nil.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Eq(b)
}

// Show renders a type for messages, tolerating nil.
func Show(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
