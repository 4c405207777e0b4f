package ioctx

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamsDefaultToDiscard(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, io.Discard, Stdout(ctx))
	assert.Equal(t, io.Discard, Stderr(ctx))
}

func TestStreamsAreIndependent(t *testing.T) {
	var out, errs bytes.Buffer
	ctx := WithStderr(WithStdout(context.Background(), &out), &errs)

	_, _ = io.WriteString(Stdout(ctx), "out")
	_, _ = io.WriteString(Stderr(ctx), "err")

	assert.Equal(t, "out", out.String())
	assert.Equal(t, "err", errs.String())
}
