package cria

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/cria-lang/cria/pkg/ioctx"
)

// DefaultMaxCallDepth bounds nested function calls during evaluation.
const DefaultMaxCallDepth = 10000

// EvalEnv is a persistent runtime scope, mirroring ty.Env for values.
type EvalEnv struct {
	name   string
	val    Value
	parent *EvalEnv
}

// Add returns a new scope with name bound to v in front of the receiver.
func (env *EvalEnv) Add(name string, v Value) *EvalEnv {
	return &EvalEnv{name: name, val: v, parent: env}
}

// Lookup returns the value of the nearest binding for name.
func (env *EvalEnv) Lookup(name string) (Value, bool) {
	for e := env; e != nil; e = e.parent {
		if e.name == name {
			return e.val, true
		}
	}
	return nil, false
}

// Evaluator runs checked programs. The zero value uses DefaultMaxCallDepth.
type Evaluator struct {
	MaxCallDepth int
}

// Eval runs nodes with the default Evaluator.
func Eval(ctx context.Context, nodes []Node, env *EvalEnv) (Value, *EvalEnv, error) {
	return (&Evaluator{}).Eval(ctx, nodes, env)
}

// Eval runs nodes in order. It returns the value of the last node (or of a
// top-level return, which ends the program) and env extended with every
// top-level declaration. Program output goes to ioctx.Stdout(ctx).
func (ev *Evaluator) Eval(ctx context.Context, nodes []Node, env *EvalEnv) (Value, *EvalEnv, error) {
	maxDepth := ev.MaxCallDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}
	run := &evaluation{maxDepth: maxDepth, stdout: ioctx.Stdout(ctx)}

	var last Value = VoidValue{}
	for _, node := range nodes {
		val, next, returned, err := run.statement(ctx, node, env)
		if err != nil {
			return nil, nil, err
		}
		env = next
		last = val
		if returned {
			break
		}
	}
	slog.DebugContext(ctx, "evaluation completed", "result", last.String())
	return last, env, nil
}

type evaluation struct {
	maxDepth int
	depth    int
	stdout   io.Writer
}

func runtimeErrorf(node SourceLocatable, format string, args ...any) *RuntimeError {
	var loc *SourceLocation
	if node != nil {
		loc = node.GetSourceLocation()
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Location: loc}
}

// block runs a body in its own scope. returned reports whether a return
// statement (possibly in a nested conditional) ended it.
func (run *evaluation) block(ctx context.Context, nodes []Node, env *EvalEnv) (Value, bool, error) {
	for _, node := range nodes {
		val, next, returned, err := run.statement(ctx, node, env)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return val, true, nil
		}
		env = next
	}
	return VoidValue{}, false, nil
}

func (run *evaluation) statement(ctx context.Context, node Node, env *EvalEnv) (Value, *EvalEnv, bool, error) {
	switch n := node.(type) {
	case *Variable:
		val, err := run.expr(ctx, n.Value, env)
		if err != nil {
			return nil, nil, false, err
		}
		return val, env.Add(n.Name, val), false, nil
	case *Function:
		fn := run.closure(n, env)
		return fn, fn.Closure, false, nil
	case *Return:
		val, err := run.expr(ctx, n.Value, env)
		if err != nil {
			return nil, nil, false, err
		}
		return val, env, true, nil
	case *If:
		val, returned, err := run.conditional(ctx, n, env)
		if err != nil {
			return nil, nil, false, err
		}
		return val, env, returned, nil
	default:
		val, err := run.expr(ctx, node, env)
		if err != nil {
			return nil, nil, false, err
		}
		return val, env, false, nil
	}
}

// closure binds fn in its own scope so the body can call itself.
func (run *evaluation) closure(fn *Function, env *EvalEnv) *FunctionValue {
	val := &FunctionValue{Fn: fn}
	val.Closure = env.Add(fn.Name, val)
	return val
}

func (run *evaluation) conditional(ctx context.Context, n *If, env *EvalEnv) (Value, bool, error) {
	cond, err := run.expr(ctx, n.Condition, env)
	if err != nil {
		return nil, false, err
	}
	b, ok := cond.(BoolValue)
	if !ok {
		return nil, false, runtimeErrorf(n.Condition, "condition is %s, not a boolean", cond.Type())
	}
	if !b.Val {
		return VoidValue{}, false, nil
	}
	return run.block(ctx, n.Then, env)
}

func (run *evaluation) expr(ctx context.Context, node Node, env *EvalEnv) (Value, error) {
	switch n := node.(type) {
	case *Symbol:
		val, found := env.Lookup(n.Name)
		if !found {
			return nil, runtimeErrorf(n, "%q is not defined", n.Name)
		}
		return val, nil
	case *String:
		return StringValue{Val: n.Value}, nil
	case *Number:
		return NumberValue{Val: n.Value}, nil
	case *Boolean:
		return BoolValue{Val: n.Value}, nil
	case *Variable:
		return run.expr(ctx, n.Value, env)
	case *Function:
		return run.closure(n, env), nil
	case *Return:
		return run.expr(ctx, n.Value, env)
	case *If:
		val, _, err := run.conditional(ctx, n, env)
		return val, err
	case *BinaryOp:
		return run.binaryOp(ctx, n, env)
	case *FunctionApp:
		return run.call(ctx, n, env)
	case *Print:
		vals := make([]Value, len(n.Values))
		for i, v := range n.Values {
			val, err := run.expr(ctx, v, env)
			if err != nil {
				return nil, err
			}
			vals[i] = val
		}
		if _, err := fmt.Fprintln(run.stdout, FormatValues(vals)); err != nil {
			return nil, err
		}
		return VoidValue{}, nil
	default:
		return nil, runtimeErrorf(node, "cannot evaluate %T", node)
	}
}

func (run *evaluation) binaryOp(ctx context.Context, op *BinaryOp, env *EvalEnv) (Value, error) {
	left, err := run.expr(ctx, op.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := run.expr(ctx, op.Right, env)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case OpEq:
		return BoolValue{Val: valuesEqual(left, right)}, nil
	case OpNeq:
		return BoolValue{Val: !valuesEqual(left, right)}, nil
	case OpLt, OpLte, OpGt, OpGte:
		cmp, ok := compareValues(left, right)
		if !ok {
			return BoolValue{Val: false}, nil
		}
		switch op.Op {
		case OpLt:
			return BoolValue{Val: cmp < 0}, nil
		case OpLte:
			return BoolValue{Val: cmp <= 0}, nil
		case OpGt:
			return BoolValue{Val: cmp > 0}, nil
		default:
			return BoolValue{Val: cmp >= 0}, nil
		}
	}

	if op.Op == OpAdd {
		if l, ok := left.(StringValue); ok {
			if r, ok := right.(StringValue); ok {
				return StringValue{Val: l.Val + r.Val}, nil
			}
		}
	}
	l, lok := left.(NumberValue)
	r, rok := right.(NumberValue)
	if !lok || !rok {
		return nil, runtimeErrorf(op, "cannot apply %q to %s and %s", op.Op, left.Type(), right.Type())
	}
	switch op.Op {
	case OpAdd:
		return NumberValue{Val: l.Val + r.Val}, nil
	case OpSub:
		return NumberValue{Val: l.Val - r.Val}, nil
	case OpMul:
		return NumberValue{Val: l.Val * r.Val}, nil
	case OpDiv:
		return NumberValue{Val: l.Val / r.Val}, nil
	case OpMod:
		return NumberValue{Val: math.Mod(l.Val, r.Val)}, nil
	default:
		return nil, runtimeErrorf(op, "unknown operator %q", op.Op)
	}
}

func (run *evaluation) call(ctx context.Context, app *FunctionApp, env *EvalEnv) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callee, found := env.Lookup(app.Name)
	if !found {
		return nil, runtimeErrorf(app, "%q is not defined", app.Name)
	}

	args := make([]Value, len(app.Args))
	for i, arg := range app.Args {
		val, err := run.expr(ctx, arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	run.depth++
	defer func() { run.depth-- }()
	if run.depth > run.maxDepth {
		return nil, runtimeErrorf(app, "maximum call depth of %d exceeded", run.maxDepth)
	}

	switch fn := callee.(type) {
	case *FunctionValue:
		if len(args) != len(fn.Fn.Params) {
			return nil, runtimeErrorf(app, "%q expects %d arguments, got %d", app.Name, len(fn.Fn.Params), len(args))
		}
		scope := fn.Closure
		for i := len(fn.Fn.Params) - 1; i >= 0; i-- {
			scope = scope.Add(fn.Fn.Params[i].Name, args[i])
		}
		scope = scope.Add(fn.Fn.Name, fn)
		val, _, err := run.block(ctx, fn.Fn.Body, scope)
		return val, err
	case BuiltinFunction:
		val, err := fn.Def.Call(ctx, args)
		if err != nil {
			return nil, runtimeErrorf(app, "%s", err)
		}
		return val, nil
	default:
		return nil, runtimeErrorf(app, "%q is not a function", app.Name)
	}
}
