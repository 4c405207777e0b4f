// Package ioctx carries the output streams of a running cria program in a
// context.Context.
package ioctx

import (
	"context"
	"io"
)

type streamKey int

const (
	stdoutKey streamKey = iota
	stderrKey
)

// WithStdout returns a context whose program output goes to w.
func WithStdout(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey, w)
}

// WithStderr returns a context whose diagnostics go to w.
func WithStderr(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stderrKey, w)
}

// Stdout returns the program output writer, or io.Discard.
func Stdout(ctx context.Context) io.Writer {
	return stream(ctx, stdoutKey)
}

// Stderr returns the diagnostics writer, or io.Discard.
func Stderr(ctx context.Context) io.Writer {
	return stream(ctx, stderrKey)
}

func stream(ctx context.Context, key streamKey) io.Writer {
	if w, ok := ctx.Value(key).(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}
