package lsp

import (
	"context"
	"path/filepath"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleInitialize(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params InitializeParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	if params.RootURI != "" {
		rootPath, err := fromURI(params.RootURI)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.rootPath = filepath.Clean(rootPath)
		h.mu.Unlock()
	}

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:        TDSKFull,
			HoverProvider:           true,
			DefinitionProvider:      true,
			DocumentSymbolProvider:  true,
			RenameProvider:          true,
			WorkspaceSymbolProvider: true,
		},
		ServerInfo: &ServerInfo{Name: "cria"},
	}, nil
}

func (h *Handler) handleInitialized(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.logMessage(ctx, MTInfo, "cria language server ready")
	return nil, nil
}
