package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cria-lang/cria/pkg/cria"
)

// newTestREPL sends results and diagnostics to the same buffer.
func newTestREPL() (*repl, *bytes.Buffer) {
	var out bytes.Buffer
	return newREPL(cria.DefaultProjectConfig(), &out, &out, false), &out
}

func TestREPLDeclarations(t *testing.T) {
	ctx := context.Background()
	r, out := newTestREPL()

	require.True(t, r.handle(ctx, "cria x = 1"))
	assert.Equal(t, "x: number\n", out.String())

	out.Reset()
	r.handle(ctx, "pegaVisao inc(n: number): number {\n  tomali + n x\n}")
	assert.Equal(t, "inc: (number) => number\n", out.String())

	out.Reset()
	r.handle(ctx, "inc(41)")
	assert.Equal(t, "=> 42\n", out.String())

	out.Reset()
	r.handle(ctx, `radinho("oi", x)`)
	assert.Equal(t, "oi 1\n", out.String())

	out.Reset()
	r.handle(ctx, "   ")
	assert.Empty(t, out.String())
}

func TestREPLErrorsKeepState(t *testing.T) {
	ctx := context.Background()
	r, out := newTestREPL()

	r.handle(ctx, "cria x = 1")
	out.Reset()

	r.handle(ctx, `cria y = + x "one"`)
	assert.Contains(t, out.String(), `both sides of "+" must be numbers or both strings`)

	out.Reset()
	r.handle(ctx, "y")
	assert.Contains(t, out.String(), "y")

	out.Reset()
	r.handle(ctx, ":env")
	assert.Equal(t, "x: number\n", out.String())
}

func TestREPLRedeclaration(t *testing.T) {
	ctx := context.Background()
	r, out := newTestREPL()

	r.handle(ctx, "cria x = 1")
	r.handle(ctx, "cria name = \"cria\"")
	out.Reset()

	r.handle(ctx, "cria x = true")
	assert.Contains(t, out.String(), `"x" is already defined`)

	out.Reset()
	r.handle(ctx, ":env")
	assert.Equal(t, "x: number\nname: string\n", out.String())

	out.Reset()
	r.handle(ctx, "x")
	assert.Equal(t, "=> 1\n", out.String())
}

func TestREPLCommands(t *testing.T) {
	ctx := context.Background()
	r, out := newTestREPL()

	r.handle(ctx, "cria x = 2")

	t.Run("type", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":type * x 3")
		assert.Equal(t, "number\n", out.String())

		out.Reset()
		r.handle(ctx, ":type toString")
		assert.Equal(t, "(number) => string\n", out.String())

		out.Reset()
		r.handle(ctx, ":type 1 2")
		assert.Equal(t, ":type takes a single expression, got 2\n", out.String())
	})

	t.Run("js", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":js cria doubled = * x 2")
		assert.Equal(t, "const doubled = x * 2;\n", out.String())

		out.Reset()
		r.handle(ctx, ":js cria bad = + 1 true")
		assert.Contains(t, out.String(), "TypeMismatch")
		assert.NotContains(t, out.String(), "const bad")

		out.Reset()
		r.handle(ctx, ":js radinho(nowhere)")
		assert.Contains(t, out.String(), "UnresolvedName")

		out.Reset()
		r.handle(ctx, ":env")
		assert.Equal(t, "x: number\n", out.String())
	})

	t.Run("ast", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":ast cria y = 1")
		assert.Contains(t, out.String(), "cria.Variable")
		assert.Contains(t, out.String(), `"y"`)
	})

	t.Run("help", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":help")
		for _, cmd := range replCommandDefs {
			assert.Contains(t, out.String(), ":"+cmd.name)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":nope")
		assert.Equal(t, "unknown command :nope (try :help)\n", out.String())
	})

	t.Run("reset", func(t *testing.T) {
		out.Reset()
		r.handle(ctx, ":reset")
		r.handle(ctx, ":env")
		assert.Equal(t, "Environment reset.\nnothing declared yet\n", out.String())
	})

	assert.False(t, r.handle(ctx, ":quit"))
	assert.False(t, r.handle(ctx, ":exit"))
}

func TestREPLWithoutPrelude(t *testing.T) {
	ctx := context.Background()
	off := false

	var out bytes.Buffer
	r := newREPL(&cria.ProjectConfig{Prelude: &off}, &out, &out, false)
	r.handle(ctx, "toString(1)")
	assert.Contains(t, out.String(), "toString")

	out.Reset()
	r.handle(ctx, ":env")
	assert.Equal(t, "nothing declared yet\n", out.String())
}

func TestREPLDiagnosticsGoToErrOut(t *testing.T) {
	ctx := context.Background()

	var out, errs bytes.Buffer
	r := newREPL(cria.DefaultProjectConfig(), &out, &errs, false)

	r.handle(ctx, `cria x = + 1 "one"`)
	assert.Empty(t, out.String())
	assert.Contains(t, errs.String(), "Error: TypeMismatch")

	errs.Reset()
	r.handle(ctx, ":nope")
	assert.Empty(t, out.String())
	assert.Equal(t, "unknown command :nope (try :help)\n", errs.String())

	errs.Reset()
	r.handle(ctx, `radinho("oi")`)
	assert.Equal(t, "oi\n", out.String())
	assert.Empty(t, errs.String())
}

func TestHistoryFilePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, "/data/cria/history", historyFilePath())
}
