package cria

import (
	"context"
	"fmt"

	"github.com/cria-lang/cria/pkg/ty"
)

// Args provides access to builtin arguments by parameter name
type Args struct {
	Values map[string]Value
}

// Get retrieves an argument value by name
func (a Args) Get(name string) (Value, bool) {
	val, ok := a.Values[name]
	return val, ok
}

// GetString retrieves a string argument
func (a Args) GetString(name string) string {
	if v, ok := a.Values[name].(StringValue); ok {
		return v.Val
	}
	return ""
}

// GetNumber retrieves a number argument
func (a Args) GetNumber(name string) float64 {
	if v, ok := a.Values[name].(NumberValue); ok {
		return v.Val
	}
	return 0
}

// GetBool retrieves a boolean argument
func (a Args) GetBool(name string) bool {
	if v, ok := a.Values[name].(BoolValue); ok {
		return v.Val
	}
	return false
}

// ParamDef defines a builtin parameter
type ParamDef struct {
	Name string
	Type ty.Type
}

// BuiltinDef defines a builtin function
type BuiltinDef struct {
	Name       string
	Doc        string
	Params     []ParamDef
	ReturnType ty.Type
	Impl       func(ctx context.Context, args Args) (Value, error)
	// JS is a JavaScript definition of the builtin, prepended to emitted
	// programs that call it.
	JS string
}

// Signature is the arrow type the checker sees for the builtin.
func (def BuiltinDef) Signature() *ty.ArrowType {
	params := make(ty.Types, len(def.Params))
	for i, p := range def.Params {
		params[i] = p.Type
	}
	return ty.NewArrowType(params, def.ReturnType)
}

// Call binds positional arguments to parameter names and runs the builtin.
func (def BuiltinDef) Call(ctx context.Context, args []Value) (Value, error) {
	if len(args) != len(def.Params) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", def.Name, len(def.Params), len(args))
	}
	named := Args{Values: make(map[string]Value, len(args))}
	for i, p := range def.Params {
		named.Values[p.Name] = args[i]
	}
	return def.Impl(ctx, named)
}

// BuiltinBuilder provides a fluent API for defining builtin functions
type BuiltinBuilder struct {
	def BuiltinDef
}

// Builtin creates a new builtin function builder
func Builtin(name string) *BuiltinBuilder {
	return &BuiltinBuilder{
		def: BuiltinDef{Name: name},
	}
}

// Doc sets the documentation string
func (b *BuiltinBuilder) Doc(doc string) *BuiltinBuilder {
	b.def.Doc = doc
	return b
}

// Params adds parameters as name/type pairs: Params("x", ty.Number, "y", ty.Number)
func (b *BuiltinBuilder) Params(pairs ...any) *BuiltinBuilder {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("Params: odd number of arguments for %s", b.def.Name))
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("Params: expected string at position %d, got %T", i, pairs[i]))
		}
		typ, ok := pairs[i+1].(ty.Type)
		if !ok {
			panic(fmt.Sprintf("Params: expected ty.Type at position %d, got %T", i+1, pairs[i+1]))
		}
		b.def.Params = append(b.def.Params, ParamDef{Name: name, Type: typ})
	}
	return b
}

// JS sets the JavaScript definition used by the emitter
func (b *BuiltinBuilder) JS(src string) *BuiltinBuilder {
	b.def.JS = src
	return b
}

// Returns sets the return type
func (b *BuiltinBuilder) Returns(typ ty.Type) *BuiltinBuilder {
	b.def.ReturnType = typ
	return b
}

// Impl sets the implementation and registers the builtin
func (b *BuiltinBuilder) Impl(fn func(context.Context, Args) (Value, error)) {
	b.def.Impl = fn
	Register(b.def)
}

var registry []BuiltinDef

// Register adds a builtin definition to the registry
func Register(def BuiltinDef) {
	registry = append(registry, def)
}

// ForEachBuiltin iterates over all registered builtins in registration order
func ForEachBuiltin(fn func(BuiltinDef)) {
	for _, def := range registry {
		fn(def)
	}
}

// LookupBuiltin finds a registered builtin by name.
func LookupBuiltin(name string) (BuiltinDef, bool) {
	for _, def := range registry {
		if def.Name == name {
			return def, true
		}
	}
	return BuiltinDef{}, false
}

// PreludeEnv is the typing context seeded with every builtin.
func PreludeEnv() *ty.Env {
	var env *ty.Env
	ForEachBuiltin(func(def BuiltinDef) {
		env = env.Add(def.Name, def.Signature())
	})
	return env
}

// PreludeEvalEnv is the evaluation environment seeded with every builtin.
func PreludeEvalEnv() *EvalEnv {
	var env *EvalEnv
	ForEachBuiltin(func(def BuiltinDef) {
		env = env.Add(def.Name, BuiltinFunction{Def: def})
	})
	return env
}
