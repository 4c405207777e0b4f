package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"unicode"

	"github.com/creachadair/jrpc2"

	"github.com/cria-lang/cria/pkg/cria"
)

// Handler serves the language server protocol for cria files. It is a
// jrpc2.Assigner; pass it to jrpc2.NewServer and then to SetServer so it can
// push diagnostics.
type Handler struct {
	mu       sync.Mutex
	files    map[DocumentURI]*File
	srv      *jrpc2.Server
	rootPath string
}

// File is an open document and what the checker learned about it.
type File struct {
	LanguageID  string
	Text        string
	Version     int
	Diagnostics []Diagnostic
	// Nodes is nil when the text does not parse.
	Nodes   []cria.Node
	Lexical *LexicalAnalyzer
}

// NewHandler create JSON-RPC handler for this language server.
func NewHandler(ctx context.Context) *Handler {
	return &Handler{
		files: make(map[DocumentURI]*File),
	}
}

// SetServer stores the server used for notifications to the client.
func (h *Handler) SetServer(srv *jrpc2.Server) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.srv = srv
}

func (h *Handler) server() *jrpc2.Server {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.srv
}

// Assign implements jrpc2.Assigner.
func (h *Handler) Assign(ctx context.Context, method string) jrpc2.Handler {
	slog.DebugContext(ctx, "assign", "method", method)

	switch method {
	case "initialize":
		return h.handleInitialize
	case "initialized":
		return h.handleInitialized
	case "shutdown":
		return h.handleShutdown
	case "exit":
		return h.handleExit
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose
	case "textDocument/hover":
		return h.handleTextDocumentHover
	case "textDocument/definition":
		return h.handleTextDocumentDefinition
	case "textDocument/documentSymbol":
		return h.handleTextDocumentDocumentSymbol
	case "textDocument/rename":
		return h.handleTextDocumentRename
	case "workspace/symbol":
		return h.handleWorkspaceSymbol
	}
	return nil
}

func isWindowsDrivePath(path string) bool {
	if len(path) < 4 {
		return false
	}
	return unicode.IsLetter(rune(path[0])) && path[1] == ':'
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return u.Path, nil
}

func toURI(path string) DocumentURI {
	if isWindowsDrivePath(path) {
		path = "/" + path
	}
	return DocumentURI((&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}).String())
}

func (h *Handler) logMessage(ctx context.Context, typ MessageType, message string) {
	srv := h.server()
	if srv == nil {
		return
	}
	if err := srv.Notify(ctx, "window/logMessage", &LogMessageParams{
		Type:    typ,
		Message: message,
	}); err != nil {
		slog.WarnContext(ctx, "failed to log message", "error", err)
	}
}

func (h *Handler) file(uri DocumentURI) *File {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[uri]
}

func (h *Handler) openFile(uri DocumentURI, languageID string, version int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &File{
		LanguageID: languageID,
		Version:    version,
		Lexical:    NewLexicalAnalyzer(),
	}
}

func (h *Handler) closeFile(ctx context.Context, uri DocumentURI) {
	h.mu.Lock()
	delete(h.files, uri)
	h.mu.Unlock()

	// Clear whatever the client is still showing for the file.
	h.publishDiagnostics(ctx, uri, &File{})
}

// updateFile re-checks a document and publishes its diagnostics. Updates
// older than the current version are dropped.
func (h *Handler) updateFile(ctx context.Context, uri DocumentURI, text string, version int) error {
	fp, err := fromURI(uri)
	if err != nil {
		return fmt.Errorf("file path from URI: %w", err)
	}

	config, err := cria.ResolveProjectConfig(filepath.Dir(fp))
	if err != nil {
		h.logMessage(ctx, MTWarning, fmt.Sprintf("ignoring project config: %s", err))
		config = cria.DefaultProjectConfig()
	}

	f := &File{
		Text:        text,
		Version:     version,
		Diagnostics: []Diagnostic{},
		Lexical:     NewLexicalAnalyzer(),
	}

	nodes, err := cria.Parse(fp, text, config.ParseOptions()...)
	if err != nil {
		f.Diagnostics = errorToDiagnostics(err)
	} else {
		f.Nodes = nodes
		if _, err := config.Checker().Check(ctx, nodes, config.TypeEnv()); err != nil {
			f.Diagnostics = errorToDiagnostics(err)
		}
		f.Lexical.Analyze(ctx, nodes, config.UsePrelude())
	}

	h.mu.Lock()
	existing, ok := h.files[uri]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("document not found: %v", uri)
	}
	if version < existing.Version {
		h.mu.Unlock()
		slog.DebugContext(ctx, "dropping stale update", "uri", uri, "version", version, "current", existing.Version)
		return nil
	}
	f.LanguageID = existing.LanguageID
	h.files[uri] = f
	h.mu.Unlock()

	slog.InfoContext(ctx, "file updated", "path", fp, "diagnostics", len(f.Diagnostics))
	h.publishDiagnostics(ctx, uri, f)
	return nil
}

func (h *Handler) publishDiagnostics(ctx context.Context, uri DocumentURI, f *File) {
	srv := h.server()
	if srv == nil {
		return
	}

	diagnostics := f.Diagnostics
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}

	err := srv.Notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
		Version:     f.Version,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish diagnostics", "error", err)
	}
}

// errorToDiagnostics converts a parse or type error to LSP diagnostics.
func errorToDiagnostics(err error) []Diagnostic {
	var checkErrs *cria.CheckErrors
	if errors.As(err, &checkErrs) {
		var ds []Diagnostic
		for _, e := range checkErrs.Errors {
			ds = append(ds, errorToDiagnostics(e)...)
		}
		return ds
	}

	diag := Diagnostic{
		Severity: DSError,
		Source:   "cria",
		Message:  err.Error(),
	}

	var loc *cria.SourceLocation
	var typeErr *cria.TypeError
	var parseErr *cria.ParseError
	switch {
	case errors.As(err, &typeErr):
		diag.Code = typeErr.Kind.String()
		diag.Message = typeErr.Message
		loc = typeErr.Location
	case errors.As(err, &parseErr):
		diag.Code = "SyntaxError"
		diag.Message = parseErr.Message
		loc = parseErr.Location
	}
	diag.Range = toRange(loc)

	return []Diagnostic{diag}
}

// toRange converts a 1-based source location to a 0-based LSP range. Errors
// without a location land on the first character.
func toRange(loc *cria.SourceLocation) Range {
	if loc == nil {
		return Range{End: Position{Character: 1}}
	}
	start := Position{Line: loc.Line - 1, Character: loc.Column - 1}
	return Range{
		Start: start,
		End:   Position{Line: start.Line, Character: start.Character + max(1, loc.Length)},
	}
}
