package cria

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/cria-lang/cria/pkg/ty"
)

// Checker type checks cria programs. The zero value uses DefaultMaxDepth.
// A Checker holds no per-run state and may be shared between goroutines.
type Checker struct {
	// MaxDepth bounds the nesting of infer/check steps. Deeper programs fail
	// with DepthExceeded.
	MaxDepth int
}

// Check validates nodes in order against env and returns env extended with
// every top-level declaration, most recent first. The first failure aborts
// the pass and is returned as a *TypeError.
func Check(ctx context.Context, nodes []Node, env *ty.Env) (*ty.Env, error) {
	return (&Checker{}).Check(ctx, nodes, env)
}

// Infer computes the type of a single node without the declaration rules
// that Check applies.
func Infer(ctx context.Context, node Node, env *ty.Env) (ty.Type, error) {
	return (&Checker{}).Infer(ctx, node, env)
}

func (c *Checker) Check(ctx context.Context, nodes []Node, env *ty.Env) (result *ty.Env, err error) {
	infer := c.newInferer()
	defer infer.recover(ctx, &err)
	res, err := infer.checkBlock(ctx, nodes, env)
	if err != nil {
		return nil, err
	}
	return res.env, nil
}

func (c *Checker) Infer(ctx context.Context, node Node, env *ty.Env) (t ty.Type, err error) {
	infer := c.newInferer()
	defer infer.recover(ctx, &err)
	return infer.infer(ctx, node, env)
}

func (c *Checker) newInferer() *inferer {
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &inferer{maxDepth: maxDepth}
}

// inferer carries the state of one Check or Infer call.
type inferer struct {
	maxDepth int
	depth    int
}

func (infer *inferer) recover(ctx context.Context, err *error) {
	r := recover()
	if r == nil {
		return
	}
	perr := errors.Errorf("unexpected panic: %v", r)
	slog.DebugContext(ctx, "type checker panicked", "error", fmt.Sprintf("%+v", perr))
	*err = &TypeError{Kind: Internal, Message: perr.Error()}
}

func (infer *inferer) enter(node SourceLocatable) error {
	infer.depth++
	if infer.depth > infer.maxDepth {
		return newTypeError(DepthExceeded, node,
			"program nests deeper than %d levels", infer.maxDepth)
	}
	return nil
}

func (infer *inferer) leave() {
	infer.depth--
}

func (infer *inferer) infer(ctx context.Context, node Node, env *ty.Env) (ty.Type, error) {
	if node == nil {
		return nil, &TypeError{Kind: Internal, Message: "cannot infer a nil expression"}
	}
	if err := infer.enter(node); err != nil {
		return nil, err
	}
	defer infer.leave()

	switch n := node.(type) {
	case *Symbol:
		t, found := env.Lookup(n.Name)
		if !found {
			return nil, newTypeError(UnresolvedName, n, "cannot find %q", n.Name)
		}
		return t, nil
	case *String:
		return ty.String, nil
	case *Number:
		return ty.Number, nil
	case *Boolean:
		return ty.Boolean, nil
	case *Variable:
		return infer.infer(ctx, n.Value, env)
	case *BinaryOp:
		return infer.inferBinaryOp(ctx, n, env)
	case *FunctionApp:
		return infer.inferFunctionApp(ctx, n, env)
	case *Return:
		return infer.infer(ctx, n.Value, env)
	case *If:
		return infer.inferIf(ctx, n, env)
	case *Function:
		return infer.inferFunction(ctx, n, env)
	case *Print:
		return infer.inferPrint(ctx, n, env)
	default:
		return nil, newTypeError(Internal, node, "unexpected expression of type %T", node)
	}
}

func (infer *inferer) inferBinaryOp(ctx context.Context, op *BinaryOp, env *ty.Env) (ty.Type, error) {
	lt, err := infer.infer(ctx, op.Left, env)
	if err != nil {
		return nil, err
	}
	rt, err := infer.infer(ctx, op.Right, env)
	if err != nil {
		return nil, err
	}

	switch {
	case op.Op.IsComparison():
		if ty.Equal(lt, rt) {
			return ty.Boolean, nil
		}
		return nil, newTypeError(TypeMismatch, op,
			"%q compares %s with %s; this condition will always return false since the types have no overlap",
			op.Op, ty.Show(lt), ty.Show(rt))
	case op.Op == OpAdd:
		if ty.Equal(lt, ty.Number) && ty.Equal(rt, ty.Number) {
			return ty.Number, nil
		}
		if ty.Equal(lt, ty.String) && ty.Equal(rt, ty.String) {
			return ty.String, nil
		}
		return nil, newTypeError(TypeMismatch, op,
			"both sides of %q must be numbers or both strings, got %s and %s",
			op.Op, ty.Show(lt), ty.Show(rt))
	case op.Op.Valid():
		if ty.Equal(lt, ty.Number) && ty.Equal(rt, ty.Number) {
			return ty.Number, nil
		}
		return nil, newTypeError(TypeMismatch, op,
			"both sides of %q must be numbers, got %s and %s",
			op.Op, ty.Show(lt), ty.Show(rt))
	default:
		return nil, newTypeError(Internal, op, "unknown operator %q", op.Op)
	}
}

func (infer *inferer) inferFunctionApp(ctx context.Context, app *FunctionApp, env *ty.Env) (ty.Type, error) {
	callee, found := env.Lookup(app.Name)
	if !found {
		return nil, newTypeError(UnresolvedName, app, "cannot find %q", app.Name)
	}
	fn, ok := callee.(*ty.ArrowType)
	if !ok {
		return nil, newTypeError(NotCallable, app, "%q is not a function, it has type %s", app.Name, ty.Show(callee))
	}

	argTypes := make(ty.Types, len(app.Args))
	for i, arg := range app.Args {
		t, err := infer.inferArgument(ctx, arg, env)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	if !argTypes.Eq(fn.Params()) {
		return nil, newTypeError(ArgumentTypeMismatch, app,
			"wrong argument types for %q: expected (%s), got (%s)",
			app.Name, fn.Params(), argTypes)
	}
	return fn.Ret(), nil
}

// inferArgument types one call argument. Only value-producing shapes are
// accepted; a function literal is declared in place, so it is subject to
// the same name rules as a declaration.
func (infer *inferer) inferArgument(ctx context.Context, arg Node, env *ty.Env) (ty.Type, error) {
	switch a := arg.(type) {
	case *String, *Number, *Boolean, *BinaryOp, *FunctionApp, *Symbol:
		return infer.infer(ctx, a, env)
	case *Function:
		return infer.declareFunction(ctx, a, env)
	case *Variable, *Return, *If, *Print:
		return nil, newTypeError(UnsupportedArgument, arg,
			"%s cannot be used as an argument", describeNode(arg))
	default:
		return nil, newTypeError(Internal, arg, "unexpected argument of type %T", arg)
	}
}

func (infer *inferer) inferIf(ctx context.Context, n *If, env *ty.Env) (ty.Type, error) {
	ct, err := infer.infer(ctx, n.Condition, env)
	if err != nil {
		return nil, err
	}
	if !ty.Equal(ct, ty.Boolean) {
		return nil, newTypeError(NonBooleanCondition, n.Condition,
			"condition must be a boolean, got %s", ty.Show(ct))
	}
	if !hasReturn(n.Then) {
		return nil, newTypeError(MissingReturn, n, "branch must contain a return statement")
	}

	// Declarations inside the branch stay inside the branch.
	res, err := infer.checkBlock(ctx, n.Then, env)
	if err != nil {
		return nil, err
	}
	return res.resultType()
}

// inferFunction types a function in the forward-reference context: its own
// declared signature, then its parameters, then the outer scope. The
// declared signature becomes the result only once the body agrees with it.
func (infer *inferer) inferFunction(ctx context.Context, fn *Function, env *ty.Env) (ty.Type, error) {
	if !hasReturn(fn.Body) {
		return nil, newTypeError(MissingReturn, fn, "function %q must contain a return statement", fn.Name)
	}

	sig := fn.Signature()
	internal := env
	for i := len(fn.Params) - 1; i >= 0; i-- {
		internal = internal.Add(fn.Params[i].Name, fn.Params[i].Type)
	}
	internal = internal.Add(fn.Name, sig)

	res, err := infer.checkBlock(ctx, fn.Body, internal)
	if err != nil {
		return nil, err
	}
	ret, err := res.resultType()
	if err != nil {
		return nil, err
	}
	if !ty.Equal(ret, fn.ReturnType) {
		return nil, newTypeError(ReturnTypeMismatch, res.returns[0].node,
			"function %q is declared to return %s, but returns %s",
			fn.Name, ty.Show(fn.ReturnType), ty.Show(ret))
	}
	return sig, nil
}

func (infer *inferer) inferPrint(ctx context.Context, n *Print, env *ty.Env) (ty.Type, error) {
	if len(n.Values) == 0 {
		return nil, newTypeError(EmptyPrintArguments, n, "%s needs at least one value", PrintName)
	}
	if _, err := infer.checkBlock(ctx, n.Values, env); err != nil {
		return nil, err
	}
	return ty.Void, nil
}

func describeNode(n Node) string {
	switch x := n.(type) {
	case *Variable:
		return fmt.Sprintf("declaration of %q", x.Name)
	case *Return:
		return "a return statement"
	case *If:
		return "a conditional"
	case *Print:
		return "a " + PrintName + " call"
	default:
		return fmt.Sprintf("%T", n)
	}
}
