package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleTextDocumentDidOpen(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DidOpenTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	h.openFile(params.TextDocument.URI, params.TextDocument.LanguageID, params.TextDocument.Version)
	return nil, h.updateFile(ctx, params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
}
