// Package folderpicker asks the user of an IDE session to choose one workspace folder.
package folderpicker

import (
	"context"
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
)

const (
	_placeholder    = "Select a workspace folder"
	_detailWatching = "Currently watching"
	_detailIdle     = "Not watching"
	_fmtActionTitle = "%s (%s) - %s"
)

// Module provides the folder picker.
var Module = fx.Provide(New)

// Picker resolves a choice among workspace folders.
type Picker interface {
	// Pick returns the chosen folder, or nil when the user dismissed the prompt.
	// Folders whose key is in watching are labeled as currently watched.
	Pick(ctx context.Context, folders []entity.WorkspaceFolder, watching map[entity.FolderKey]bool) (*entity.WorkspaceFolder, error)
}

type picker struct {
	ideGateway ideclient.Gateway
}

// New creates a Picker that prompts with window/showMessageRequest.
func New(ideGateway ideclient.Gateway) Picker {
	return &picker{ideGateway: ideGateway}
}

func (p *picker) Pick(ctx context.Context, folders []entity.WorkspaceFolder, watching map[entity.FolderKey]bool) (*entity.WorkspaceFolder, error) {
	if len(folders) == 0 {
		return nil, nil
	}

	byTitle := make(map[string]entity.WorkspaceFolder, len(folders))
	actions := make([]protocol.MessageActionItem, 0, len(folders))
	for _, folder := range folders {
		title := ActionTitle(folder, watching[folder.Key()])
		byTitle[title] = folder
		actions = append(actions, protocol.MessageActionItem{Title: title})
	}

	selection, err := p.ideGateway.ShowMessageRequest(ctx, &protocol.ShowMessageRequestParams{
		Type:    protocol.MessageTypeInfo,
		Message: _placeholder,
		Actions: actions,
	})
	if err != nil {
		return nil, fmt.Errorf("asking for a workspace folder: %w", err)
	}
	if selection == nil {
		return nil, nil
	}

	folder, ok := byTitle[selection.Title]
	if !ok {
		return nil, fmt.Errorf("unknown folder selection %q", selection.Title)
	}
	return &folder, nil
}

// ActionTitle is the label shown for a folder: its name, path, and watch status.
func ActionTitle(folder entity.WorkspaceFolder, watching bool) string {
	detail := _detailIdle
	if watching {
		detail = _detailWatching
	}
	return fmt.Sprintf(_fmtActionTitle, folder.Name, folder.Path, detail)
}
