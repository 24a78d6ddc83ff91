package brlspdaemon

import (
	"context"

	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"go.lsp.dev/protocol"
)

func (c *controller) WorkDoneProgressCancel(ctx context.Context, params *protocol.WorkDoneProgressCancelParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.WorkDoneProgressCancel(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodWorkDoneProgressCancel, call, call)
}
