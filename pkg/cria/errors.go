package cria

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Length   int // Length of the syntax node that caused the error
}

func (loc *SourceLocation) String() string {
	if loc == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", loc.Filename, loc.Line, loc.Column)
}

// Contains reports whether line/column (1-based) falls inside the span.
func (loc *SourceLocation) Contains(line, column int) bool {
	if loc == nil || loc.Line != line {
		return false
	}
	return column >= loc.Column && column < loc.Column+max(1, loc.Length)
}

type SourceLocatable interface {
	GetSourceLocation() *SourceLocation
}

// ErrorKind classifies a type error.
type ErrorKind int

const (
	// Internal is an unexpected condition inside the checker, such as an
	// unknown node type.
	Internal ErrorKind = iota
	UnresolvedName
	NotCallable
	DuplicateBinding
	InvalidParameterName
	TypeMismatch
	ArgumentTypeMismatch
	UnsupportedArgument
	NonBooleanCondition
	MissingReturn
	InconsistentBranchTypes
	ReturnTypeMismatch
	EmptyPrintArguments
	// DepthExceeded means the program nests deeper than the checker allows.
	DepthExceeded
)

var errorKindNames = map[ErrorKind]string{
	Internal:                "Internal",
	UnresolvedName:          "UnresolvedName",
	NotCallable:             "NotCallable",
	DuplicateBinding:        "DuplicateBinding",
	InvalidParameterName:    "InvalidParameterName",
	TypeMismatch:            "TypeMismatch",
	ArgumentTypeMismatch:    "ArgumentTypeMismatch",
	UnsupportedArgument:     "UnsupportedArgument",
	NonBooleanCondition:     "NonBooleanCondition",
	MissingReturn:           "MissingReturn",
	InconsistentBranchTypes: "InconsistentBranchTypes",
	ReturnTypeMismatch:      "ReturnTypeMismatch",
	EmptyPrintArguments:     "EmptyPrintArguments",
	DepthExceeded:           "DepthExceeded",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// TypeError is the single failure produced by Check or Infer.
type TypeError struct {
	Kind     ErrorKind
	Message  string
	Location *SourceLocation
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// GetSourceLocation implements SourceLocatable.
func (e *TypeError) GetSourceLocation() *SourceLocation {
	return e.Location
}

func newTypeError(kind ErrorKind, node SourceLocatable, format string, args ...any) *TypeError {
	var loc *SourceLocation
	if node != nil {
		loc = node.GetSourceLocation()
	}
	return &TypeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

// KindOf returns the kind of the TypeError wrapped in err. Errors that are
// not type errors report Internal.
func KindOf(err error) ErrorKind {
	var typeErr *TypeError
	if errors.As(err, &typeErr) {
		return typeErr.Kind
	}
	return Internal
}

// ParseError is a lexing or parsing failure.
type ParseError struct {
	Message  string
	Location *SourceLocation
	// Incomplete is set when the input ended in the middle of a form, so
	// more input could make it valid.
	Incomplete bool
}

func (e *ParseError) Error() string {
	return "syntax error: " + e.Message
}

func (e *ParseError) GetSourceLocation() *SourceLocation {
	return e.Location
}

// IsIncomplete reports whether err is a parse error caused by input ending
// too early.
func IsIncomplete(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr) && parseErr.Incomplete
}

// RuntimeError is a failure while evaluating a checked program.
type RuntimeError struct {
	Message  string
	Location *SourceLocation
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Message
}

func (e *RuntimeError) GetSourceLocation() *SourceLocation {
	return e.Location
}

// SourceError represents an error with source location information
type SourceError struct {
	Inner    error
	Location *SourceLocation
	Source   string // The source code of the file
}

// NewSourceError creates a new SourceError
func NewSourceError(inner error, location *SourceLocation, source string) *SourceError {
	return &SourceError{
		Inner:    inner,
		Location: location,
		Source:   source,
	}
}

func (e *SourceError) Unwrap() error {
	return e.Inner
}

func (e *SourceError) Error() string {
	if e.Location == nil {
		return e.Inner.Error()
	}
	return e.FormatWithHighlighting()
}

// FormatWithHighlighting returns a nicely formatted error with syntax highlighting
func (e *SourceError) FormatWithHighlighting() string {
	return e.Format(true)
}

// Format renders the error with a few lines of surrounding source and a
// caret under the offending node.
func (e *SourceError) Format(color bool) string {
	if e.Location == nil {
		return e.Inner.Error()
	}

	if e.Source == "" && e.Location.Filename != "" {
		contents, err := os.ReadFile(e.Location.Filename)
		if err == nil {
			e.Source = string(contents)
		}
	}

	lines := strings.Split(e.Source, "\n")
	if e.Location.Line < 1 || e.Location.Line > len(lines) {
		return e.Inner.Error()
	}

	var red, blue, bold, reset, dim string
	if color {
		red = "\033[31m"
		blue = "\033[34m"
		bold = "\033[1m"
		reset = "\033[0m"
		dim = "\033[2m"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s%sError:%s %s\n", bold, red, reset, e.Inner))
	result.WriteString(fmt.Sprintf("  %s%s--> %s%s\n", dim, blue, e.Location, reset))
	result.WriteString(fmt.Sprintf(" %s%s |%s\n", dim, padLeft("", 3), reset))

	startLine := max(1, e.Location.Line-2)
	endLine := min(len(lines), e.Location.Line+2)

	for i := startLine; i <= endLine; i++ {
		lineStr := padLeft(fmt.Sprintf("%d", i), 3)
		if i == e.Location.Line {
			result.WriteString(fmt.Sprintf(" %s%s%s%s | %s%s\n",
				dim, blue, bold, lineStr, reset, lines[i-1]))

			// 1 space + 3 for line number + " | " + column offset
			padding := strings.Repeat(" ", 1+3+3+e.Location.Column-1)
			underline := strings.Repeat("^", max(1, e.Location.Length))
			result.WriteString(fmt.Sprintf("%s%s%s%s%s\n",
				dim, padding, red, underline, reset))
		} else {
			result.WriteString(fmt.Sprintf(" %s%s | %s%s\n",
				dim, lineStr, lines[i-1], reset))
		}
	}

	result.WriteString(fmt.Sprintf(" %s%s |%s\n", dim, padLeft("", 3), reset))

	return result.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// ConvertError attaches source context to any located error so that it can
// be rendered with FormatWithHighlighting. Errors without a location are
// returned unchanged.
func ConvertError(err error, source string) error {
	if err == nil {
		return nil
	}
	var sourceErr *SourceError
	if errors.As(err, &sourceErr) {
		return err
	}
	var locatable SourceLocatable
	if !errors.As(err, &locatable) {
		return err
	}
	loc := locatable.GetSourceLocation()
	if loc == nil {
		return err
	}
	return NewSourceError(err, loc, source)
}

// CheckErrors collects the failures of several independently checked files.
type CheckErrors struct {
	Errors []error
}

func (ce *CheckErrors) Add(err error) {
	ce.Errors = append(ce.Errors, err)
}

func (ce *CheckErrors) Unwrap() []error {
	return ce.Errors
}

func (ce *CheckErrors) HasErrors() bool {
	return len(ce.Errors) > 0
}

func (ce *CheckErrors) Error() string {
	if len(ce.Errors) == 1 {
		return ce.Errors[0].Error()
	}
	var msgs []string
	for i, err := range ce.Errors {
		msgs = append(msgs, fmt.Sprintf("Error %d:\n%s", i+1, err.Error()))
	}
	return fmt.Sprintf("%d errors:\n\n%s", len(ce.Errors), strings.Join(msgs, "\n\n"))
}
