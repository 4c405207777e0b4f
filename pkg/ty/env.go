package ty

import (
	"fmt"
	"iter"
	"strings"
)

// Binding is a single name/type pair in an Env.
type Binding struct {
	Name string
	Type Type
}

// Env is a persistent typing context: an ordered list of bindings, most
// recent first. Add never mutates the receiver, so an Env may be shared
// freely between callers and goroutines. The nil *Env is the empty context.
type Env struct {
	name   string
	typ    Type
	parent *Env
	size   int
}

// NewEnv builds an Env whose front is bindings[0].
func NewEnv(bindings ...Binding) *Env {
	var env *Env
	for i := len(bindings) - 1; i >= 0; i-- {
		env = env.Add(bindings[i].Name, bindings[i].Type)
	}
	return env
}

// Add returns a new Env with name bound to t in front of the receiver.
func (env *Env) Add(name string, t Type) *Env {
	return &Env{
		name:   name,
		typ:    t,
		parent: env,
		size:   env.Len() + 1,
	}
}

// Lookup returns the type of the nearest binding for name.
func (env *Env) Lookup(name string) (Type, bool) {
	for e := env; e != nil; e = e.parent {
		if e.name == name {
			return e.typ, true
		}
	}
	return nil, false
}

// Has reports whether name is bound anywhere in the context.
func (env *Env) Has(name string) bool {
	_, found := env.Lookup(name)
	return found
}

// Len returns the number of bindings, shadowed ones included.
func (env *Env) Len() int {
	if env == nil {
		return 0
	}
	return env.size
}

// All iterates over every binding, most recent first.
func (env *Env) All() iter.Seq2[string, Type] {
	return func(yield func(string, Type) bool) {
		for e := env; e != nil; e = e.parent {
			if !yield(e.name, e.typ) {
				return
			}
		}
	}
}

// Bindings returns every binding, most recent first.
func (env *Env) Bindings() []Binding {
	bindings := make([]Binding, 0, env.Len())
	for name, t := range env.All() {
		bindings = append(bindings, Binding{Name: name, Type: t})
	}
	return bindings
}

// Since returns the bindings added on top of base, most recent first. If
// base is not an ancestor of env, every binding is returned.
func (env *Env) Since(base *Env) []Binding {
	var bindings []Binding
	for e := env; e != nil && e != base; e = e.parent {
		bindings = append(bindings, Binding{Name: e.name, Type: e.typ})
	}
	return bindings
}

func (env *Env) String() string {
	parts := make([]string, 0, env.Len())
	for name, t := range env.All() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, Show(t)))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
