package brlspdaemon

import (
	"context"

	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"go.lsp.dev/protocol"
)

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.DidOpen(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidOpen, call, call)
}

func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.DidChange(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidChange, call, call)
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.DidClose(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidClose, call, call)
}

func (c *controller) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.DidSave(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodTextDocumentDidSave, call, call)
}
