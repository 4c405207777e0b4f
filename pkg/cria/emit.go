package cria

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/cria-lang/cria/pkg/doc"
)

// EmitOptions controls JavaScript output.
type EmitOptions struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// Prelude prepends JavaScript definitions of the builtins the program
	// calls.
	Prelude bool
}

// DefaultEmitIndent is the indentation used when EmitOptions.Indent is unset.
const DefaultEmitIndent = 2

// Emit renders a checked program as JavaScript. Callers must run Check
// first; Emit performs no validation of its own.
func Emit(nodes []Node, opts EmitOptions) string {
	if opts.Indent <= 0 {
		opts.Indent = DefaultEmitIndent
	}
	e := &emitter{indent: opts.Indent, names: jsNames(nodes)}
	out := doc.Pretty(e.sequence(nodes))
	if opts.Prelude {
		var defs []string
		for _, def := range usedBuiltins(nodes) {
			defs = append(defs, def.JS)
		}
		if len(defs) > 0 {
			out = strings.Join(defs, "\n\n") + "\n\n" + out
		}
	}
	if out == "" {
		return ""
	}
	return trimTrailingWhitespace(out) + "\n"
}

// usedBuiltins returns the builtins referenced by nodes that the program
// does not declare itself, in registration order.
func usedBuiltins(nodes []Node) []BuiltinDef {
	declared := map[string]bool{}
	referenced := map[string]bool{}
	walk(func(n Node) bool {
		switch x := n.(type) {
		case *Variable:
			declared[x.Name] = true
		case *Function:
			declared[x.Name] = true
			for _, p := range x.Params {
				declared[p.Name] = true
			}
		case *Symbol:
			referenced[x.Name] = true
		case *FunctionApp:
			referenced[x.Name] = true
		}
		return true
	}, nodes...)

	var defs []BuiltinDef
	ForEachBuiltin(func(def BuiltinDef) {
		if referenced[def.Name] && !declared[def.Name] && def.JS != "" {
			defs = append(defs, def)
		}
	})
	return defs
}

// trimTrailingWhitespace removes trailing whitespace from each line
func trimTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

type emitter struct {
	indent int
	// names maps dashed cria identifiers to their JavaScript spelling.
	names map[string]string
}

func (e *emitter) ident(name string) string {
	if js, ok := e.names[name]; ok {
		return js
	}
	return name
}

// sequence separates statements with a blank line.
func (e *emitter) sequence(nodes []Node) doc.Doc {
	docs := make([]doc.Doc, len(nodes))
	for i, n := range nodes {
		docs[i] = e.node(n)
	}
	return doc.Join(doc.Append(doc.Line(), doc.Line()), docs)
}

func (e *emitter) list(nodes []Node) doc.Doc {
	docs := make([]doc.Doc, len(nodes))
	for i, n := range nodes {
		docs[i] = e.node(n)
	}
	return doc.Join(doc.Text(", "), docs)
}

func (e *emitter) block(body []Node) doc.Doc {
	return doc.Append(
		doc.Text("{"),
		doc.Nest(e.indent, doc.Append(doc.Line(), e.sequence(body))),
		doc.Line(),
		doc.Text("}"),
	)
}

func (e *emitter) node(node Node) doc.Doc {
	switch n := node.(type) {
	case *Symbol:
		return doc.Text(e.ident(n.Name))
	case *String:
		return doc.Text(strconv.Quote(n.Value))
	case *Number:
		return doc.Text(FormatNumber(n.Value))
	case *Boolean:
		return doc.Text(strconv.FormatBool(n.Value))
	case *Variable:
		return doc.Append(
			doc.Text("const "), doc.Text(e.ident(n.Name)), doc.Text(" = "),
			e.node(n.Value), doc.Text(";"),
		)
	case *Function:
		params := make([]doc.Doc, len(n.Params))
		for i, p := range n.Params {
			params[i] = doc.Text(e.ident(p.Name))
		}
		return doc.Append(
			doc.Text("function "), doc.Text(e.ident(n.Name)),
			doc.Text("("), doc.Join(doc.Text(", "), params), doc.Text(") "),
			e.block(n.Body),
		)
	case *FunctionApp:
		return doc.Append(
			doc.Text(e.ident(n.Name)), doc.Text("("), e.list(n.Args), doc.Text(")"),
		)
	case *Return:
		return doc.Append(doc.Text("return "), e.node(n.Value), doc.Text(";"))
	case *BinaryOp:
		return doc.Append(
			e.operand(n.Left), doc.Space(), doc.Text(jsOperator(n.Op)), doc.Space(), e.operand(n.Right),
		)
	case *If:
		return doc.Append(
			doc.Text("if ("), e.node(n.Condition), doc.Text(") "), e.block(n.Then),
		)
	case *Print:
		return doc.Append(
			doc.Text("console.log("), e.list(n.Values), doc.Text(");"),
		)
	default:
		return doc.Nil()
	}
}

// operand parenthesizes nested operators; prefix syntax carries no
// precedence, so (* (+ a b) c) must not become a + b * c.
func (e *emitter) operand(n Node) doc.Doc {
	if _, ok := n.(*BinaryOp); ok {
		return doc.Append(doc.Text("("), e.node(n), doc.Text(")"))
	}
	return e.node(n)
}

// jsOperator maps equality to JavaScript's strict forms, which agree with
// cria's same-type comparisons.
func jsOperator(op Operator) string {
	switch op {
	case OpEq:
		return "==="
	case OpNeq:
		return "!=="
	default:
		return string(op)
	}
}

// jsIdent turns a cria identifier into a valid JavaScript one. Dashes are
// legal in cria names, so my-var becomes myVar.
func jsIdent(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	return strcase.ToLowerCamel(name)
}

// jsNames picks a JavaScript name for every dashed identifier in nodes. The
// camel case form is used unless the program or the prelude already uses it,
// in which case '$' (never part of a cria name) is appended until it is free.
func jsNames(nodes []Node) map[string]string {
	var order []string
	seen := map[string]bool{}
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	walk(func(n Node) bool {
		switch x := n.(type) {
		case *Variable:
			note(x.Name)
		case *Function:
			note(x.Name)
			for _, p := range x.Params {
				note(p.Name)
			}
		case *Symbol:
			note(x.Name)
		case *FunctionApp:
			note(x.Name)
		}
		return true
	}, nodes...)

	taken := map[string]bool{}
	ForEachBuiltin(func(def BuiltinDef) {
		taken[def.Name] = true
	})
	for _, name := range order {
		if !strings.Contains(name, "-") {
			taken[name] = true
		}
	}

	names := map[string]string{}
	for _, name := range order {
		if !strings.Contains(name, "-") {
			continue
		}
		js := jsIdent(name)
		for taken[js] {
			js += "$"
		}
		taken[js] = true
		names[name] = js
	}
	return names
}
