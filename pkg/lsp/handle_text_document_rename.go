package lsp

import (
	"context"
	"log/slog"

	"github.com/creachadair/jrpc2"

	"github.com/cria-lang/cria/pkg/cria"
)

func (h *Handler) handleTextDocumentRename(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params RenameParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	if !isIdentifier(params.NewName) {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "%q is not a valid name", params.NewName)
	}

	f := h.file(params.TextDocument.URI)
	if f == nil {
		return nil, nil
	}

	ref, ok := f.Lexical.ReferenceAt(params.Position)
	if !ok {
		return nil, nil
	}
	if ref.Binding.Location == nil {
		return nil, jrpc2.Errorf(jrpc2.InvalidRequest, "cannot rename builtin %q", ref.Binding.Symbol)
	}

	var edits []TextEdit
	for _, r := range f.Lexical.ReferencesTo(ref.Binding) {
		edits = append(edits, TextEdit{
			Range:   toRange(r.Location),
			NewText: params.NewName,
		})
	}
	slog.InfoContext(ctx, "rename", "symbol", ref.Binding.Symbol, "newName", params.NewName, "edits", len(edits))

	return &WorkspaceEdit{
		Changes: map[DocumentURI][]TextEdit{
			params.TextDocument.URI: edits,
		},
	}, nil
}

// isIdentifier reports whether name lexes as a single plain identifier, so
// keywords and operators are rejected.
func isIdentifier(name string) bool {
	tokens, err := cria.Lex("", name)
	return err == nil && len(tokens) == 1 && tokens[0].Kind == cria.TokenIdent && tokens[0].Text == name
}
