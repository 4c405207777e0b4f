package cria

import (
	"github.com/cria-lang/cria/pkg/ty"
)

// Node is a cria expression. The set of implementations is closed; the
// checker, emitter and evaluator each switch over it exhaustively.
type Node interface {
	GetSourceLocation() *SourceLocation

	// Walk visits this node and then its children, depth first. Returning
	// false from fn skips the children.
	Walk(fn func(Node) bool)

	node()
}

// Symbol is a reference to a bound name.
type Symbol struct {
	Name string
	Loc  *SourceLocation
}

// String is a string literal.
type String struct {
	Value string
	Loc   *SourceLocation
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Loc   *SourceLocation
}

// Boolean is a boolean literal.
type Boolean struct {
	Value bool
	Loc   *SourceLocation
}

// Variable declares Name with the type and value of Value.
type Variable struct {
	Name  string
	Value Node
	Loc   *SourceLocation
}

// Param is a typed function parameter.
type Param struct {
	Name string
	Type ty.Type
	Loc  *SourceLocation
}

// Function declares a named function. The name is visible inside Body, so
// functions may recurse.
type Function struct {
	Name       string
	Params     []*Param
	Body       []Node
	ReturnType ty.Type
	Loc        *SourceLocation
}

// FunctionApp calls the function bound to Name.
type FunctionApp struct {
	Name string
	Args []Node
	Loc  *SourceLocation
}

// Return yields Value from the enclosing function or branch.
type Return struct {
	Value Node
	Loc   *SourceLocation
}

// BinaryOp applies an infix operator.
type BinaryOp struct {
	Op    Operator
	Left  Node
	Right Node
	Loc   *SourceLocation
}

// If runs Then when Condition holds. It has no else branch.
type If struct {
	Condition Node
	Then      []Node
	Loc       *SourceLocation
}

// Print writes its values to program output.
type Print struct {
	Values []Node
	Loc    *SourceLocation
}

var (
	_ Node = (*Symbol)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Number)(nil)
	_ Node = (*Boolean)(nil)
	_ Node = (*Variable)(nil)
	_ Node = (*Function)(nil)
	_ Node = (*FunctionApp)(nil)
	_ Node = (*Return)(nil)
	_ Node = (*BinaryOp)(nil)
	_ Node = (*If)(nil)
	_ Node = (*Print)(nil)
)

func (*Symbol) node()      {}
func (*String) node()      {}
func (*Number) node()      {}
func (*Boolean) node()     {}
func (*Variable) node()    {}
func (*Function) node()    {}
func (*FunctionApp) node() {}
func (*Return) node()      {}
func (*BinaryOp) node()    {}
func (*If) node()          {}
func (*Print) node()       {}

func (n *Param) GetSourceLocation() *SourceLocation       { return n.Loc }
func (n *Symbol) GetSourceLocation() *SourceLocation      { return n.Loc }
func (n *String) GetSourceLocation() *SourceLocation      { return n.Loc }
func (n *Number) GetSourceLocation() *SourceLocation      { return n.Loc }
func (n *Boolean) GetSourceLocation() *SourceLocation     { return n.Loc }
func (n *Variable) GetSourceLocation() *SourceLocation    { return n.Loc }
func (n *Function) GetSourceLocation() *SourceLocation    { return n.Loc }
func (n *FunctionApp) GetSourceLocation() *SourceLocation { return n.Loc }
func (n *Return) GetSourceLocation() *SourceLocation      { return n.Loc }
func (n *BinaryOp) GetSourceLocation() *SourceLocation    { return n.Loc }
func (n *If) GetSourceLocation() *SourceLocation          { return n.Loc }
func (n *Print) GetSourceLocation() *SourceLocation       { return n.Loc }

func (n *Symbol) Walk(fn func(Node) bool)  { fn(n) }
func (n *String) Walk(fn func(Node) bool)  { fn(n) }
func (n *Number) Walk(fn func(Node) bool)  { fn(n) }
func (n *Boolean) Walk(fn func(Node) bool) { fn(n) }

func (n *Variable) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Value)
	}
}

func (n *Function) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Body...)
	}
}

func (n *FunctionApp) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Args...)
	}
}

func (n *Return) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Value)
	}
}

func (n *BinaryOp) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Left, n.Right)
	}
}

func (n *If) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Condition)
		walk(fn, n.Then...)
	}
}

func (n *Print) Walk(fn func(Node) bool) {
	if fn(n) {
		walk(fn, n.Values...)
	}
}

func walk(fn func(Node) bool, nodes ...Node) {
	for _, n := range nodes {
		if n != nil {
			n.Walk(fn)
		}
	}
}

// Signature is the declared type of the function, available before its body
// has been checked.
func (n *Function) Signature() *ty.ArrowType {
	params := make(ty.Types, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Type
	}
	return ty.NewArrowType(params, n.ReturnType)
}

// DeclaredName returns the name a node binds, if it is a declaration.
func DeclaredName(n Node) (string, bool) {
	switch x := n.(type) {
	case *Variable:
		return x.Name, true
	case *Function:
		return x.Name, true
	default:
		return "", false
	}
}
