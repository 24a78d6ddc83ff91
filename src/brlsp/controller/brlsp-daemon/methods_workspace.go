package brlspdaemon

import (
	"context"
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"go.lsp.dev/protocol"
)

// DidChangeWorkspaceFolders records the session's new folders before plugins see the change.
func (c *controller) DidChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	added, skipped := mapper.WorkspaceFoldersToEntities(params.Event.Added)
	if len(skipped) > 0 {
		c.logger.Infow("ignoring workspace folders outside the local file system", "session", s.UUID, "folders", skipped)
	}
	removed, _ := mapper.WorkspaceFoldersToEntities(params.Event.Removed)

	s.WorkspaceFolders = applyFolderChanges(s.WorkspaceFolders, added, removed)
	c.refreshEnv(ctx, s)
	if err := c.sessions.Set(ctx, s); err != nil {
		return fmt.Errorf("setting updated session state: %w", err)
	}

	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.DidChangeWorkspaceFolders(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	return c.executePluginMethods(ctx, protocol.MethodWorkspaceDidChangeWorkspaceFolders, call, call)
}

// ExecuteCommand offers the command to every plugin. The reply is whatever the owning plugin wrote.
func (c *controller) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	var result interface{}

	callSync := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.ExecuteCommand(ctx, params, &result); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	callAsync := func(ctx context.Context, m *brlspplugin.Methods) {
		var discarded interface{}
		if err := m.ExecuteCommand(ctx, params, &discarded); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}

	if err := c.executePluginMethods(ctx, protocol.MethodWorkspaceExecuteCommand, callSync, callAsync); err != nil {
		return nil, fmt.Errorf(_errBadPluginCall, err)
	}
	return result, nil
}

// applyFolderChanges drops removed folders, then appends added ones, keeping the existing order and skipping duplicates.
func applyFolderChanges(current, added, removed []entity.WorkspaceFolder) []entity.WorkspaceFolder {
	drop := make(map[entity.FolderKey]struct{}, len(removed))
	for _, f := range removed {
		drop[f.Key()] = struct{}{}
	}

	result := []entity.WorkspaceFolder{}
	seen := map[entity.FolderKey]struct{}{}
	keep := func(f entity.WorkspaceFolder) {
		if _, ok := seen[f.Key()]; ok {
			return
		}
		seen[f.Key()] = struct{}{}
		result = append(result, f)
	}

	for _, f := range current {
		if _, ok := drop[f.Key()]; !ok {
			keep(f)
		}
	}
	for _, f := range added {
		keep(f)
	}
	return result
}
