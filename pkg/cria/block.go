package cria

import (
	"context"
	"log/slog"

	"github.com/cria-lang/cria/pkg/ty"
)

// typed pairs a node with its inferred type.
type typed struct {
	node Node
	typ  ty.Type
}

// blockResult is what a pass over a block learned: the extended scope, the
// direct return statements and the direct nested conditionals.
type blockResult struct {
	env      *ty.Env
	returns  []typed
	branches []typed
}

// resultType is the type of the block's first return. Every direct nested
// conditional must agree with it; later returns are only validated.
func (res blockResult) resultType() (ty.Type, error) {
	if len(res.returns) == 0 {
		return nil, &TypeError{Kind: Internal, Message: "block has no return statement"}
	}
	first := res.returns[0]
	for _, other := range res.branches {
		if !ty.Equal(other.typ, first.typ) {
			return nil, newTypeError(InconsistentBranchTypes, other.node,
				"every path must return the same type, but found %s and %s",
				ty.Show(first.typ), ty.Show(other.typ))
		}
	}
	return first.typ, nil
}

func hasReturn(nodes []Node) bool {
	for _, n := range nodes {
		if _, ok := n.(*Return); ok {
			return true
		}
	}
	return false
}

// checkBlock is the sequence fold: declarations extend the scope for the
// nodes after them, everything else is inferred for validation only.
func (infer *inferer) checkBlock(ctx context.Context, nodes []Node, env *ty.Env) (blockResult, error) {
	var loc SourceLocatable
	if len(nodes) > 0 {
		loc = nodes[0]
	}
	if err := infer.enter(loc); err != nil {
		return blockResult{}, err
	}
	defer infer.leave()

	res := blockResult{env: env}
	for _, node := range nodes {
		switch n := node.(type) {
		case *Variable:
			if res.env.Has(n.Name) {
				return blockResult{}, newTypeError(DuplicateBinding, n, "%q is already defined", n.Name)
			}
			t, err := infer.infer(ctx, n, res.env)
			if err != nil {
				return blockResult{}, err
			}
			res.env = infer.bind(ctx, res.env, n.Name, t)
		case *Function:
			t, err := infer.declareFunction(ctx, n, res.env)
			if err != nil {
				return blockResult{}, err
			}
			res.env = infer.bind(ctx, res.env, n.Name, t)
		case *Return:
			t, err := infer.infer(ctx, n, res.env)
			if err != nil {
				return blockResult{}, err
			}
			res.returns = append(res.returns, typed{n, t})
		case *If:
			t, err := infer.infer(ctx, n, res.env)
			if err != nil {
				return blockResult{}, err
			}
			res.branches = append(res.branches, typed{n, t})
		default:
			if _, err := infer.infer(ctx, node, res.env); err != nil {
				return blockResult{}, err
			}
		}
	}
	return res, nil
}

// declareFunction applies the declaration rules for a function and then
// types it. Parameters may not shadow anything in the enclosing scope, the
// function itself, or each other.
func (infer *inferer) declareFunction(ctx context.Context, fn *Function, env *ty.Env) (ty.Type, error) {
	if env.Has(fn.Name) {
		return nil, newTypeError(DuplicateBinding, fn, "%q is already defined", fn.Name)
	}
	seen := map[string]bool{fn.Name: true}
	for _, p := range fn.Params {
		if env.Has(p.Name) || seen[p.Name] {
			return nil, newTypeError(InvalidParameterName, paramLocatable(p, fn),
				"invalid parameter name %q in function %q", p.Name, fn.Name)
		}
		seen[p.Name] = true
	}
	return infer.inferFunction(ctx, fn, env)
}

func paramLocatable(p *Param, fn *Function) SourceLocatable {
	if p.Loc != nil {
		return p
	}
	return fn
}

func (infer *inferer) bind(ctx context.Context, env *ty.Env, name string, t ty.Type) *ty.Env {
	slog.DebugContext(ctx, "bound", "name", name, "type", ty.Show(t))
	return env.Add(name, t)
}
