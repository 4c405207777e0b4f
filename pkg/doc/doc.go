// Package doc is a small document layout algebra in the style of Wadler's
// "prettier printer", without the group/flatten choice: every Line is a
// newline followed by the current indentation.
package doc

import "strings"

// Doc is a layout document.
type Doc interface {
	doc()
}

type (
	nilDoc    struct{}
	concatDoc struct{ left, right Doc }
	nestDoc   struct {
		indent int
		body   Doc
	}
	textDoc string
	lineDoc struct{}
)

func (nilDoc) doc()    {}
func (concatDoc) doc() {}
func (nestDoc) doc()   {}
func (textDoc) doc()   {}
func (lineDoc) doc()   {}

// Nil is the empty document.
func Nil() Doc { return nilDoc{} }

// Text is a literal string. It should not contain newlines.
func Text(s string) Doc { return textDoc(s) }

// Line is a newline followed by the enclosing indentation.
func Line() Doc { return lineDoc{} }

// Space is a single space.
func Space() Doc { return textDoc(" ") }

// Nest indents every Line inside body by indent more columns.
func Nest(indent int, body Doc) Doc {
	return nestDoc{indent: indent, body: body}
}

// Concat places right after left.
func Concat(left, right Doc) Doc {
	return concatDoc{left: left, right: right}
}

// Append concatenates docs left to right.
func Append(docs ...Doc) Doc {
	if len(docs) == 0 {
		return Nil()
	}
	result := docs[len(docs)-1]
	for i := len(docs) - 2; i >= 0; i-- {
		result = Concat(docs[i], result)
	}
	return result
}

// Join places sep between each of docs.
func Join(sep Doc, docs []Doc) Doc {
	parts := make([]Doc, 0, len(docs)*2)
	for i, d := range docs {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, d)
	}
	return Append(parts...)
}

type frame struct {
	indent int
	doc    Doc
}

// Pretty lays out d. The traversal keeps an explicit work stack so that deep
// documents do not grow the Go stack.
func Pretty(d Doc) string {
	var out strings.Builder
	stack := []frame{{0, d}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch x := top.doc.(type) {
		case nilDoc, nil:
		case concatDoc:
			stack = append(stack, frame{top.indent, x.right}, frame{top.indent, x.left})
		case nestDoc:
			stack = append(stack, frame{top.indent + x.indent, x.body})
		case textDoc:
			out.WriteString(string(x))
		case lineDoc:
			out.WriteByte('\n')
			out.WriteString(strings.Repeat(" ", top.indent))
		}
	}
	return out.String()
}
