package cria

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/cria-lang/cria/pkg/ty"
)

// Program is a parsed and type checked source file.
type Program struct {
	Filename string
	Source   string
	Nodes    []Node
	// Env holds the prelude (if enabled) plus every top-level declaration.
	Env *ty.Env
	// Prelude is the initial context the program was checked against.
	Prelude *ty.Env
}

// Bindings returns the program's own top-level declarations, most recent
// first.
func (p *Program) Bindings() []ty.Binding {
	return p.Env.Since(p.Prelude)
}

// CheckSource parses and type checks source using the configuration stored
// in ctx. Errors carry source context for rendering.
func CheckSource(ctx context.Context, filename, source string) (*Program, error) {
	config := ProjectConfigFromContext(ctx)

	nodes, err := Parse(filename, source, config.ParseOptions()...)
	if err != nil {
		return nil, ConvertError(err, source)
	}

	prelude := config.TypeEnv()
	env, err := config.Checker().Check(ctx, nodes, prelude)
	if err != nil {
		return nil, ConvertError(err, source)
	}
	slog.DebugContext(ctx, "type check completed", "file", filename, "bindings", env.Len()-prelude.Len())

	return &Program{
		Filename: filename,
		Source:   source,
		Nodes:    nodes,
		Env:      env,
		Prelude:  prelude,
	}, nil
}

// CheckFile reads and type checks a file.
func CheckFile(ctx context.Context, filename string) (*Program, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return CheckSource(ctx, filename, string(source))
}

// Run evaluates a checked program, writing output to ioctx.Stdout(ctx).
func (p *Program) Run(ctx context.Context) (Value, error) {
	config := ProjectConfigFromContext(ctx)
	val, _, err := config.Evaluator().Eval(ctx, p.Nodes, config.EvalEnv())
	if err != nil {
		return nil, ConvertError(err, p.Source)
	}
	return val, nil
}

// Emit renders a checked program as JavaScript.
func (p *Program) Emit(ctx context.Context) string {
	return Emit(p.Nodes, ProjectConfigFromContext(ctx).EmitOptions())
}

// RunFile checks and then evaluates a file.
func RunFile(ctx context.Context, filename string) (Value, error) {
	prog, err := CheckFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	val, err := prog.Run(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "running %s", filename)
	}
	return val, nil
}

// EmitFile checks a file and renders it as JavaScript.
func EmitFile(ctx context.Context, filename string) (string, error) {
	prog, err := CheckFile(ctx, filename)
	if err != nil {
		return "", err
	}
	return prog.Emit(ctx), nil
}
