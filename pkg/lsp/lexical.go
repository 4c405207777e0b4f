package lsp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cria-lang/cria/pkg/cria"
	"github.com/cria-lang/cria/pkg/ty"
)

// LexicalBinding is a name introduced by a declaration, a parameter or the
// prelude.
type LexicalBinding struct {
	Symbol   string
	Type     ty.Type              // nil when the declaration does not type check
	Location *cria.SourceLocation // nil for builtins
	Kind     SymbolKind
	Doc      string
	// Params holds a function's parameter bindings.
	Params []*LexicalBinding
}

// Reference is one occurrence of a binding's name, including the
// declaration itself.
type Reference struct {
	Location *cria.SourceLocation
	Binding  *LexicalBinding
}

// LexicalAnalyzer resolves every name in a file to the binding it refers
// to, following the same scoping rules as the checker.
type LexicalAnalyzer struct {
	// Bindings are the file's own declarations in source order.
	Bindings []*LexicalBinding
	// TopLevel are the declarations visible to the whole file.
	TopLevel   []*LexicalBinding
	References []Reference
}

// NewLexicalAnalyzer creates a new lexical analyzer
func NewLexicalAnalyzer() *LexicalAnalyzer {
	return &LexicalAnalyzer{}
}

// scope is a persistent chain of bindings alongside the typing context the
// checker would see at the same point.
type scope struct {
	binding *LexicalBinding
	parent  *scope
	env     *ty.Env
}

func (s *scope) add(b *LexicalBinding) *scope {
	var env *ty.Env
	if s != nil {
		env = s.env
	}
	if b.Type != nil {
		env = env.Add(b.Symbol, b.Type)
	}
	return &scope{binding: b, parent: s, env: env}
}

func (s *scope) typeEnv() *ty.Env {
	if s == nil {
		return nil
	}
	return s.env
}

func (s *scope) lookup(name string) *LexicalBinding {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.binding.Symbol == name {
			return sc.binding
		}
	}
	return nil
}

// Analyze walks the AST and collects bindings and references. With prelude
// set, builtins resolve too.
func (la *LexicalAnalyzer) Analyze(ctx context.Context, nodes []cria.Node, prelude bool) {
	var sc *scope
	if prelude {
		cria.ForEachBuiltin(func(def cria.BuiltinDef) {
			sc = sc.add(&LexicalBinding{
				Symbol: def.Name,
				Type:   def.Signature(),
				Kind:   SKFunction,
				Doc:    def.Doc,
			})
		})
	}
	la.block(ctx, nodes, sc, true)
}

func (la *LexicalAnalyzer) block(ctx context.Context, nodes []cria.Node, sc *scope, top bool) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *cria.Variable:
			la.expr(ctx, n.Value, sc)
			// Errors here were already reported by the checker.
			t, err := cria.Infer(ctx, n.Value, sc.typeEnv())
			if err != nil {
				slog.DebugContext(ctx, "lexical: untyped variable", "name", n.Name, "error", err)
			}
			sc = la.declare(sc, &LexicalBinding{
				Symbol:   n.Name,
				Type:     t,
				Location: n.Loc,
				Kind:     SKVariable,
			}, top)
		case *cria.Function:
			b := la.function(ctx, n, sc)
			sc = la.declare(sc, b, top)
		default:
			la.expr(ctx, node, sc)
		}
	}
}

func (la *LexicalAnalyzer) declare(sc *scope, b *LexicalBinding, top bool) *scope {
	la.Bindings = append(la.Bindings, b)
	if top {
		la.TopLevel = append(la.TopLevel, b)
	}
	la.refer(b.Location, b)
	return sc.add(b)
}

// function analyzes a function body in its own scope: parameters, then the
// function itself so the body can recurse.
func (la *LexicalAnalyzer) function(ctx context.Context, fn *cria.Function, sc *scope) *LexicalBinding {
	b := &LexicalBinding{
		Symbol:   fn.Name,
		Type:     fn.Signature(),
		Location: fn.Loc,
		Kind:     SKFunction,
	}
	inner := sc
	for _, p := range fn.Params {
		pb := &LexicalBinding{
			Symbol:   p.Name,
			Type:     p.Type,
			Location: p.GetSourceLocation(),
			Kind:     SKVariable,
		}
		b.Params = append(b.Params, pb)
		la.Bindings = append(la.Bindings, pb)
		la.refer(pb.Location, pb)
		inner = inner.add(pb)
	}
	inner = inner.add(b)
	la.block(ctx, fn.Body, inner, false)
	return b
}

func (la *LexicalAnalyzer) expr(ctx context.Context, node cria.Node, sc *scope) {
	switch n := node.(type) {
	case *cria.Symbol:
		la.refer(n.Loc, sc.lookup(n.Name))
	case *cria.FunctionApp:
		la.refer(n.Loc, sc.lookup(n.Name))
		for _, arg := range n.Args {
			la.expr(ctx, arg, sc)
		}
	case *cria.Function:
		// A function passed as an argument is only visible to itself.
		b := la.function(ctx, n, sc)
		la.Bindings = append(la.Bindings, b)
		la.refer(b.Location, b)
	case *cria.BinaryOp:
		la.expr(ctx, n.Left, sc)
		la.expr(ctx, n.Right, sc)
	case *cria.If:
		la.expr(ctx, n.Condition, sc)
		la.block(ctx, n.Then, sc, false)
	case *cria.Return:
		la.expr(ctx, n.Value, sc)
	case *cria.Print:
		la.block(ctx, n.Values, sc, false)
	case *cria.Variable:
		la.block(ctx, []cria.Node{n}, sc, false)
	case *cria.String, *cria.Number, *cria.Boolean:
	default:
		slog.DebugContext(ctx, "lexical: unhandled node type", "type", fmt.Sprintf("%T", node))
	}
}

func (la *LexicalAnalyzer) refer(loc *cria.SourceLocation, b *LexicalBinding) {
	if loc == nil || b == nil {
		return
	}
	la.References = append(la.References, Reference{Location: loc, Binding: b})
}

// ReferenceAt returns the reference under an LSP (0-based) position.
func (la *LexicalAnalyzer) ReferenceAt(pos Position) (Reference, bool) {
	for _, ref := range la.References {
		if ref.Location.Contains(pos.Line+1, pos.Character+1) {
			return ref, true
		}
	}
	return Reference{}, false
}

// ReferencesTo returns every occurrence of b, declaration included.
func (la *LexicalAnalyzer) ReferencesTo(b *LexicalBinding) []Reference {
	var refs []Reference
	for _, ref := range la.References {
		if ref.Binding == b {
			refs = append(refs, ref)
		}
	}
	return refs
}
