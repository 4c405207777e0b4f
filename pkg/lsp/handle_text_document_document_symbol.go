package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleTextDocumentDocumentSymbol(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DocumentSymbolParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	symbols := []DocumentSymbol{}
	f := h.file(params.TextDocument.URI)
	if f == nil {
		return symbols, nil
	}
	for _, b := range f.Lexical.TopLevel {
		symbols = append(symbols, documentSymbol(b))
	}
	return symbols, nil
}

func documentSymbol(b *LexicalBinding) DocumentSymbol {
	rng := toRange(b.Location)
	sym := DocumentSymbol{
		Name:           b.Symbol,
		Kind:           b.Kind,
		Range:          rng,
		SelectionRange: rng,
	}
	if b.Type != nil {
		sym.Detail = b.Type.String()
	}
	for _, p := range b.Params {
		sym.Children = append(sym.Children, documentSymbol(p))
	}
	return sym
}
