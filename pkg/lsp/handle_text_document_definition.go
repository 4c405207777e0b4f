package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleTextDocumentDefinition(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DocumentDefinitionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	f := h.file(params.TextDocument.URI)
	if f == nil {
		return nil, nil
	}

	ref, ok := f.Lexical.ReferenceAt(params.Position)
	if !ok || ref.Binding.Location == nil {
		// Builtins have no source to jump to.
		return nil, nil
	}

	return &Location{
		URI:   params.TextDocument.URI,
		Range: toRange(ref.Binding.Location),
	}, nil
}
