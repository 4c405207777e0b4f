package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/kr/pretty"
	"github.com/peterh/liner"

	"github.com/cria-lang/cria/pkg/cria"
	"github.com/cria-lang/cria/pkg/ioctx"
	"github.com/cria-lang/cria/pkg/ty"
)

var (
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	welcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	promptMain = "cria> "
	promptCont = "  ... "
)

type replCommand struct {
	name string
	args string
	desc string
}

var replCommandDefs = []replCommand{
	{"help", "", "show this help"},
	{"quit", "", "leave the REPL"},
	{"reset", "", "forget every declaration"},
	{"env", "", "list declarations and their types"},
	{"type", "<expr>", "show the type of an expression"},
	{"js", "<code>", "show the JavaScript for some code"},
	{"ast", "<code>", "show the parsed syntax tree"},
}

// repl holds the state carried from one input to the next.
type repl struct {
	config  *cria.ProjectConfig
	prelude *ty.Env
	typeEnv *ty.Env
	evalEnv *cria.EvalEnv
	out     io.Writer
	errOut  io.Writer
	color   bool
}

// newREPL writes results to out and diagnostics to errOut.
func newREPL(config *cria.ProjectConfig, out, errOut io.Writer, color bool) *repl {
	r := &repl{
		config: config,
		out:    out,
		errOut: errOut,
		color:  color,
	}
	r.reset()
	return r
}

func (r *repl) reset() {
	r.prelude = r.config.TypeEnv()
	r.typeEnv = r.prelude
	r.evalEnv = r.config.EvalEnv()
}

func (r *repl) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *repl) println(text string) {
	fmt.Fprintln(r.out, text)
}

// handle processes one complete input. It reports false once the user asks
// to leave.
func (r *repl) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	if strings.HasPrefix(input, ":") {
		return r.command(ctx, input[1:])
	}
	if err := r.eval(ctx, input); err != nil {
		r.printError(err)
	}
	return true
}

func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "help":
		r.println("Available commands:")
		width := 0
		for _, cmd := range replCommandDefs {
			width = max(width, len(cmd.name)+len(cmd.args)+1)
		}
		for _, cmd := range replCommandDefs {
			usage := strings.TrimSpace(cmd.name + " " + cmd.args)
			r.println(r.style(dimStyle, fmt.Sprintf("  :%-*s  %s", width, usage, cmd.desc)))
		}
		r.println("")
		r.println(r.style(dimStyle, "Anything else is checked and run as cria code."))

	case "quit", "exit":
		return false

	case "reset":
		r.reset()
		r.println(r.style(resultStyle, "Environment reset."))

	case "env":
		bindings := r.typeEnv.Since(r.prelude)
		if len(bindings) == 0 {
			r.println(r.style(dimStyle, "nothing declared yet"))
			break
		}
		for _, b := range slices.Backward(bindings) {
			r.println(fmt.Sprintf("%s: %s", b.Name, r.style(resultStyle, ty.Show(b.Type))))
		}

	case "type":
		if err := r.showType(ctx, arg); err != nil {
			r.printError(err)
		}

	case "js":
		nodes, err := cria.Parse("<repl>", arg, r.config.ParseOptions()...)
		if err != nil {
			r.printError(cria.ConvertError(err, arg))
			break
		}
		// Checked against the session, but nothing is declared.
		if _, err := r.config.Checker().Check(ctx, nodes, r.typeEnv); err != nil {
			r.printError(cria.ConvertError(err, arg))
			break
		}
		opts := r.config.EmitOptions()
		opts.Prelude = false
		fmt.Fprint(r.out, cria.Emit(nodes, opts))

	case "ast":
		nodes, err := cria.Parse("<repl>", arg, r.config.ParseOptions()...)
		if err != nil {
			r.printError(cria.ConvertError(err, arg))
			break
		}
		for _, node := range nodes {
			pretty.Fprintf(r.out, "%# v\n", node)
		}

	default:
		fmt.Fprintln(r.errOut, r.style(errorStyle, fmt.Sprintf("unknown command :%s (try :help)", name)))
	}
	return true
}

func (r *repl) showType(ctx context.Context, src string) error {
	nodes, err := cria.Parse("<repl>", src, r.config.ParseOptions()...)
	if err != nil {
		return cria.ConvertError(err, src)
	}
	if len(nodes) != 1 {
		return fmt.Errorf(":type takes a single expression, got %d", len(nodes))
	}
	t, err := r.config.Checker().Infer(ctx, nodes[0], r.typeEnv)
	if err != nil {
		return cria.ConvertError(err, src)
	}
	r.println(r.style(resultStyle, ty.Show(t)))
	return nil
}

// eval checks and runs input against the accumulated environments. Nothing
// is kept when either step fails.
func (r *repl) eval(ctx context.Context, input string) error {
	nodes, err := cria.Parse("<repl>", input, r.config.ParseOptions()...)
	if err != nil {
		return cria.ConvertError(err, input)
	}

	typeEnv, err := r.config.Checker().Check(ctx, nodes, r.typeEnv)
	if err != nil {
		return cria.ConvertError(err, input)
	}

	ctx = ioctx.WithStdout(ctx, r.out)
	val, evalEnv, err := r.config.Evaluator().Eval(ctx, nodes, r.evalEnv)
	if err != nil {
		return cria.ConvertError(err, input)
	}

	declared := typeEnv.Since(r.typeEnv)
	r.typeEnv = typeEnv
	r.evalEnv = evalEnv

	if len(declared) > 0 {
		for _, b := range slices.Backward(declared) {
			r.println(fmt.Sprintf("%s: %s", b.Name, r.style(dimStyle, ty.Show(b.Type))))
		}
		return nil
	}
	if _, void := val.(cria.VoidValue); !void {
		r.println(r.style(resultStyle, "=> "+val.String()))
	}
	return nil
}

func (r *repl) printError(err error) {
	var srcErr *cria.SourceError
	if errors.As(err, &srcErr) {
		fmt.Fprintln(r.errOut, srcErr.Format(r.color))
		return
	}
	fmt.Fprintln(r.errOut, r.style(errorStyle, err.Error()))
}

// historyFilePath returns the path to the history file, respecting
// XDG_DATA_HOME (default ~/.local/share/cria/history).
func historyFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "cria_history")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "cria", "history")
}

func loadHistory(ln *liner.State, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close() //nolint:errcheck
	if _, err := ln.ReadHistory(f); err != nil {
		slog.Debug("reading history", "path", path, "error", err)
	}
}

func saveHistory(ln *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Debug("creating history dir", "error", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Debug("writing history", "path", path, "error", err)
		return
	}
	defer f.Close() //nolint:errcheck
	if _, err := ln.WriteHistory(f); err != nil {
		slog.Debug("writing history", "path", path, "error", err)
	}
}

// readInput keeps prompting while the parser reports that the input so far
// is only the start of a program.
func readInput(ln *liner.State, config *cria.ProjectConfig) (string, error) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			return "", err
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, nil
		}
		if _, err := cria.Parse("<repl>", src, config.ParseOptions()...); cria.IsIncomplete(err) {
			continue
		}
		return src, nil
	}
}

func runREPLLoop(ctx context.Context, config *cria.ProjectConfig) error {
	color := liner.TerminalSupported() && os.Getenv("NO_COLOR") == ""
	r := newREPL(config, ioctx.Stdout(ctx), ioctx.Stderr(ctx), color)

	ln := liner.NewLiner()
	defer ln.Close() //nolint:errcheck
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	histPath := historyFilePath()
	loadHistory(ln, histPath)
	defer saveHistory(ln, histPath)

	r.println(r.style(welcomeStyle, "cria REPL")+" "+r.style(dimStyle, "(:help for commands, Ctrl+D to quit)"))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := readInput(ln, config)
		switch {
		case errors.Is(err, io.EOF):
			r.println("")
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		}
		if !r.handle(ctx, input) {
			return nil
		}
	}
}
