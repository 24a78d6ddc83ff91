package mapper

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// InitializeResultAppendExecuteCommandProvider appends ExecuteCommandOptions into an existing InitializeResult.
// Commands must be unique across all plugins, and this function will fail if a duplicate is found.
func InitializeResultAppendExecuteCommandProvider(initResult *protocol.InitializeResult, newOptions *protocol.ExecuteCommandOptions) error {
	if initResult.Capabilities.ExecuteCommandProvider == nil {
		initResult.Capabilities.ExecuteCommandProvider = newOptions
		return nil
	}

	if newOptions.Commands == nil {
		return nil
	}

	if initResult.Capabilities.ExecuteCommandProvider.Commands == nil {
		initResult.Capabilities.ExecuteCommandProvider.Commands = newOptions.Commands
		return nil
	}

	seen := map[string]struct{}{}
	combined := []string{}
	for _, cmd := range initResult.Capabilities.ExecuteCommandProvider.Commands {
		seen[cmd] = struct{}{}
		combined = append(combined, cmd)
	}
	for _, cmd := range newOptions.Commands {
		if _, ok := seen[cmd]; ok {
			return fmt.Errorf("command %q in ExecuteCommandOptions already exists and cannot be duplicated", cmd)
		}
		combined = append(combined, cmd)
	}
	initResult.Capabilities.ExecuteCommandProvider.Commands = combined

	return nil
}

// InitializeResultEnsureWorkspaceFolders declares support for multiple workspace folders and change notifications for them.
func InitializeResultEnsureWorkspaceFolders(initResult *protocol.InitializeResult) {
	if initResult.Capabilities.Workspace == nil {
		initResult.Capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{}
	}

	if initResult.Capabilities.Workspace.WorkspaceFolders == nil {
		initResult.Capabilities.Workspace.WorkspaceFolders = &protocol.ServerCapabilitiesWorkspaceFolders{}
	}

	initResult.Capabilities.Workspace.WorkspaceFolders.Supported = true
	initResult.Capabilities.Workspace.WorkspaceFolders.ChangeNotifications = true
}
