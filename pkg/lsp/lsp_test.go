package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cria-lang/cria/pkg/cria"
)

func TestMain(m *testing.M) {
	os.Exit(oteltest.Main(m))
}

type LSPSuite struct{}

func TestLSP(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(LSPSuite{})
}

const sample = `pegaVisao double(n: number): number {
  tomali * n 2
}

cria answer = double(21)
radinho(toString(answer))
`

// session is a client connected to an in-process server.
type session struct {
	client      *jrpc2.Client
	diagnostics chan PublishDiagnosticsParams
	uri         DocumentURI
}

func newSession(ctx context.Context, t *testctx.T) *session {
	s := &session{
		diagnostics: make(chan PublishDiagnosticsParams, 16),
		uri:         toURI(filepath.Join(t.TempDir(), "main.cria")),
	}

	handler := NewHandler(ctx)
	local := server.NewLocal(handler, &server.LocalOptions{
		Server: &jrpc2.ServerOptions{AllowPush: true},
		Client: &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				if req.Method() != "textDocument/publishDiagnostics" {
					return
				}
				var params PublishDiagnosticsParams
				if err := req.UnmarshalParams(&params); err == nil {
					s.diagnostics <- params
				}
			},
		},
	})
	handler.SetServer(local.Server)
	t.Cleanup(func() { local.Close() })

	s.client = local.Client
	return s
}

func (s *session) call(ctx context.Context, t *testctx.T, method string, params, result any) {
	require.NoError(t, s.client.CallResult(ctx, method, params, result))
}

func (s *session) notify(ctx context.Context, t *testctx.T, method string, params any) PublishDiagnosticsParams {
	require.NoError(t, s.client.Notify(ctx, method, params))
	select {
	case diags := <-s.diagnostics:
		return diags
	case <-time.After(10 * time.Second):
		t.Fatalf("no diagnostics after %s", method)
		return PublishDiagnosticsParams{}
	}
}

func (s *session) open(ctx context.Context, t *testctx.T, text string) PublishDiagnosticsParams {
	return s.notify(ctx, t, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: s.uri, LanguageID: "cria", Version: 1, Text: text},
	})
}

func (s *session) at(line, character int) TextDocumentPositionParams {
	return TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: s.uri},
		Position:     Position{Line: line, Character: character},
	}
}

func (LSPSuite) TestInitialize(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)

	var result InitializeResult
	s.call(ctx, t, "initialize", InitializeParams{RootURI: toURI(t.TempDir())}, &result)
	assert.Equal(t, TDSKFull, result.Capabilities.TextDocumentSync)
	assert.True(t, result.Capabilities.HoverProvider)
	assert.True(t, result.Capabilities.RenameProvider)
	assert.Equal(t, "cria", result.ServerInfo.Name)

	var none any
	assert.Error(t, s.client.CallResult(ctx, "initialize", nil, &none))
	assert.Error(t, s.client.CallResult(ctx, "textDocument/formatting", nil, &none))
	s.call(ctx, t, "shutdown", nil, &none)
}

func (LSPSuite) TestDiagnostics(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)

	diags := s.open(ctx, t, "cria x = 1\ncria y = + x \"one\"\n")
	assert.Equal(t, s.uri, diags.URI)
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, Diagnostic{
		Range: Range{
			Start: Position{Line: 1, Character: 9},
			End:   Position{Line: 1, Character: 10},
		},
		Severity: DSError,
		Code:     "TypeMismatch",
		Source:   "cria",
		Message:  `both sides of "+" must be numbers or both strings, got number and string`,
	}, diags.Diagnostics[0])

	diags = s.notify(ctx, t, "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: s.uri, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "cria x = 1\ncria y = + x 2\n"}},
	})
	assert.Equal(t, 2, diags.Version)
	assert.Empty(t, diags.Diagnostics)

	diags = s.notify(ctx, t, "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: s.uri, Version: 3},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "cria x ="}},
	})
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "SyntaxError", diags.Diagnostics[0].Code)
	assert.Equal(t, "expected expression, but found end of input", diags.Diagnostics[0].Message)

	diags = s.notify(ctx, t, "textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: s.uri},
	})
	assert.Empty(t, diags.Diagnostics)
}

func (LSPSuite) TestHover(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)
	diags := s.open(ctx, t, sample)
	require.Empty(t, diags.Diagnostics)

	var hover *Hover
	// "answer" in the radinho call
	s.call(ctx, t, "textDocument/hover", HoverParams{s.at(5, 18)}, &hover)
	require.NotNil(t, hover)
	assert.Equal(t, "```cria\nanswer: number\n```", hover.Contents.Value)
	assert.Equal(t, &Range{
		Start: Position{Line: 5, Character: 17},
		End:   Position{Line: 5, Character: 23},
	}, hover.Range)

	// the parameter inside the body
	s.call(ctx, t, "textDocument/hover", HoverParams{s.at(1, 11)}, &hover)
	require.NotNil(t, hover)
	assert.Equal(t, "```cria\nn: number\n```", hover.Contents.Value)

	// a builtin carries its documentation
	s.call(ctx, t, "textDocument/hover", HoverParams{s.at(5, 10)}, &hover)
	require.NotNil(t, hover)
	assert.Equal(t, "```cria\ntoString: (number) => string\n```\n\nrenders a number as a string", hover.Contents.Value)

	hover = nil
	s.call(ctx, t, "textDocument/hover", HoverParams{s.at(3, 0)}, &hover)
	assert.Nil(t, hover)
}

func (LSPSuite) TestDefinition(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)
	s.open(ctx, t, sample)

	var loc *Location
	// "double" in the call on line 5
	s.call(ctx, t, "textDocument/definition", DocumentDefinitionParams{s.at(4, 15)}, &loc)
	require.NotNil(t, loc)
	assert.Equal(t, s.uri, loc.URI)
	assert.Equal(t, Range{
		Start: Position{Line: 0, Character: 10},
		End:   Position{Line: 0, Character: 16},
	}, loc.Range)

	loc = nil
	s.call(ctx, t, "textDocument/definition", DocumentDefinitionParams{s.at(5, 10)}, &loc)
	assert.Nil(t, loc)
}

func (LSPSuite) TestRename(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)
	s.open(ctx, t, sample)

	var edit WorkspaceEdit
	s.call(ctx, t, "textDocument/rename", RenameParams{
		TextDocumentPositionParams: s.at(0, 12),
		NewName:                    "twice",
	}, &edit)
	edits := edit.Changes[s.uri]
	require.Len(t, edits, 2)
	assert.Equal(t, Position{Line: 0, Character: 10}, edits[0].Range.Start)
	assert.Equal(t, Position{Line: 4, Character: 14}, edits[1].Range.Start)
	assert.Equal(t, "twice", edits[1].NewText)

	var none any
	assert.Error(t, s.client.CallResult(ctx, "textDocument/rename", RenameParams{
		TextDocumentPositionParams: s.at(0, 12),
		NewName:                    "cria",
	}, &none))
	assert.Error(t, s.client.CallResult(ctx, "textDocument/rename", RenameParams{
		TextDocumentPositionParams: s.at(5, 10),
		NewName:                    "show",
	}, &none))
}

func (LSPSuite) TestSymbols(ctx context.Context, t *testctx.T) {
	s := newSession(ctx, t)
	s.open(ctx, t, sample)

	var symbols []DocumentSymbol
	s.call(ctx, t, "textDocument/documentSymbol", DocumentSymbolParams{
		TextDocument: TextDocumentIdentifier{URI: s.uri},
	}, &symbols)
	require.Len(t, symbols, 2)
	assert.Equal(t, "double", symbols[0].Name)
	assert.Equal(t, SKFunction, symbols[0].Kind)
	assert.Equal(t, "(number) => number", symbols[0].Detail)
	require.Len(t, symbols[0].Children, 1)
	assert.Equal(t, "n", symbols[0].Children[0].Name)
	assert.Equal(t, "answer", symbols[1].Name)
	assert.Equal(t, SKVariable, symbols[1].Kind)

	var found []SymbolInformation
	s.call(ctx, t, "workspace/symbol", WorkspaceSymbolParams{Query: "ANS"}, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "answer", found[0].Name)
	assert.Equal(t, Position{Line: 4, Character: 5}, found[0].Location.Range.Start)
}

func TestErrorToDiagnostics(t *testing.T) {
	typeErr := &cria.TypeError{
		Kind:    cria.ReturnTypeMismatch,
		Message: "bad return",
		Location: &cria.SourceLocation{
			Filename: "test.cria",
			Line:     5,
			Column:   10,
			Length:   8,
		},
	}

	diags := errorToDiagnostics(typeErr)
	require.Len(t, diags, 1)
	assert.Equal(t, "bad return", diags[0].Message)
	assert.Equal(t, "ReturnTypeMismatch", diags[0].Code)
	assert.Equal(t, Position{Line: 4, Character: 9}, diags[0].Range.Start)
	assert.Equal(t, Position{Line: 4, Character: 17}, diags[0].Range.End)

	t.Run("wrapped in source context", func(t *testing.T) {
		diags := errorToDiagnostics(cria.ConvertError(typeErr, "source"))
		require.Len(t, diags, 1)
		assert.Equal(t, "bad return", diags[0].Message)
	})

	t.Run("several files", func(t *testing.T) {
		errs := &cria.CheckErrors{}
		errs.Add(typeErr)
		errs.Add(&cria.ParseError{Message: "nope"})
		diags := errorToDiagnostics(errs)
		require.Len(t, diags, 2)
		assert.Equal(t, "SyntaxError", diags[1].Code)
		assert.Equal(t, Range{End: Position{Character: 1}}, diags[1].Range)
	})
}

func TestURIs(t *testing.T) {
	uri := toURI("/tmp/some dir/main.cria")
	assert.Equal(t, DocumentURI("file:///tmp/some%20dir/main.cria"), uri)

	path, err := fromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/some dir/main.cria", path)

	_, err = fromURI("https://example.com/main.cria")
	assert.Error(t, err)
}
