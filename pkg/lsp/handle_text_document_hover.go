package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleTextDocumentHover(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params HoverParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	f := h.file(params.TextDocument.URI)
	if f == nil {
		return nil, nil
	}

	ref, ok := f.Lexical.ReferenceAt(params.Position)
	if !ok {
		return nil, nil
	}
	slog.InfoContext(ctx, "hover", "uri", params.TextDocument.URI, "position", params.Position, "symbol", ref.Binding.Symbol)

	rng := toRange(ref.Location)
	return &Hover{
		Contents: MarkupContent{
			Kind:  "markdown",
			Value: hoverText(ref.Binding),
		},
		Range: &rng,
	}, nil
}

func hoverText(b *LexicalBinding) string {
	var content strings.Builder
	content.WriteString("```cria\n")
	if b.Type != nil {
		fmt.Fprintf(&content, "%s: %s", b.Symbol, b.Type)
	} else {
		content.WriteString(b.Symbol)
	}
	content.WriteString("\n```")
	if b.Doc != "" {
		content.WriteString("\n\n")
		content.WriteString(b.Doc)
	}
	return content.String()
}
