package doc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrettyText(t *testing.T) {
	assert.Equal(t, "", Pretty(Nil()))
	assert.Equal(t, "hello world", Pretty(Append(Text("hello"), Space(), Text("world"))))
}

func TestPrettyNest(t *testing.T) {
	d := Append(
		Text("{"),
		Nest(2, Append(Line(), Text("a"), Line(), Text("b"))),
		Line(),
		Text("}"),
	)
	assert.Equal(t, "{\n  a\n  b\n}", Pretty(d))
}

func TestPrettyNestedNest(t *testing.T) {
	inner := Append(Text("{"), Nest(2, Append(Line(), Text("x"))), Line(), Text("}"))
	outer := Append(Text("{"), Nest(2, Append(Line(), inner)), Line(), Text("}"))
	assert.Equal(t, "{\n  {\n    x\n  }\n}", Pretty(outer))
}

func TestJoin(t *testing.T) {
	d := Join(Text(", "), []Doc{Text("a"), Text("b"), Text("c")})
	assert.Equal(t, "a, b, c", Pretty(d))
	assert.Equal(t, "", Pretty(Join(Text(", "), nil)))
}

func TestPrettyDeep(t *testing.T) {
	d := Nil()
	for range 100000 {
		d = Concat(Text("x"), d)
	}
	assert.Equal(t, strings.Repeat("x", 100000), Pretty(d))
}
