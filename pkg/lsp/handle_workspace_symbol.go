package lsp

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleWorkspaceSymbol(ctx context.Context, req *jrpc2.Request) (any, error) {
	var params WorkspaceSymbolParams
	if req.HasParams() {
		if err := req.UnmarshalParams(&params); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	files := maps.Clone(h.files)
	h.mu.Unlock()

	symbols := []SymbolInformation{}
	query := strings.ToLower(params.Query)
	for _, uri := range slices.Sorted(maps.Keys(files)) {
		for _, b := range files[uri].Lexical.TopLevel {
			if query != "" && !strings.Contains(strings.ToLower(b.Symbol), query) {
				continue
			}
			symbols = append(symbols, SymbolInformation{
				Name: b.Symbol,
				Kind: b.Kind,
				Location: Location{
					URI:   uri,
					Range: toRange(b.Location),
				},
			})
		}
	}

	slog.InfoContext(ctx, "workspace symbol results", "query", params.Query, "total", len(symbols))
	return symbols, nil
}
