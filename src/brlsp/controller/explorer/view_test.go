package explorer

import (
	"testing"

	"github.com/dart-tools/brlsp/src/brlsp/controller/commands"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusBar(t *testing.T) {
	app := factory.WorkspaceFolder()
	app.Name = "app"
	other := factory.WorkspaceFolder()

	tests := []struct {
		name     string
		sessions []entity.WatchSession
		text     string
		tooltip  string
	}{
		{
			name:    "idle",
			text:    "$(eye-closed) Watch",
			tooltip: "Start build_runner watch",
		},
		{
			name:     "single folder",
			sessions: []entity.WatchSession{{Folder: app, State: entity.WatchStateRunning}},
			text:     "$(watch) Watching app",
			tooltip:  "Stop build_runner watch",
		},
		{
			name: "several folders",
			sessions: []entity.WatchSession{
				{Folder: app, State: entity.WatchStateRunning},
				{Folder: other, State: entity.WatchStateStarting},
			},
			text:    "$(watch) Watching 2 folders",
			tooltip: "Stop build_runner watch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewStatusBar(tt.sessions)
			assert.Equal(t, tt.text, bar.Text)
			assert.Equal(t, tt.tooltip, bar.Tooltip)
			assert.Equal(t, commands.CommandToggleWatch, bar.Command)
		})
	}
}

func TestNewView(t *testing.T) {
	watched := factory.WorkspaceFolder()
	idle := factory.WorkspaceFolder()
	unsupported := factory.WorkspaceFolder()
	unchecked := factory.WorkspaceFolder()

	capabilities := map[entity.FolderKey]bool{
		watched.Key():     true,
		idle.Key():        true,
		unsupported.Key(): false,
	}
	sessions := []entity.WatchSession{{Folder: watched, State: entity.WatchStateRunning, PID: 10}}

	view := NewView([]entity.WorkspaceFolder{watched, idle, unsupported, unchecked}, capabilities, sessions)

	require.Len(t, view.Folders, 3)
	assert.True(t, view.HasFolders)
	assert.Equal(t, sessions, view.Sessions)

	first := view.Folders[0]
	assert.Equal(t, watched, first.Folder)
	assert.Equal(t, watched.Name, first.Label)
	assert.True(t, first.Watching)
	assert.Equal(t, "Currently watching", first.Description)
	assert.Equal(t, ContextValueWatching, first.ContextValue)
	assert.Equal(t, "eye", first.Icon)
	assert.Equal(t, watched.Path, first.Tooltip)
	assert.Equal(t, commands.CommandToggleWatch, first.Command.Command)
	assert.Equal(t, "Toggle build_runner watch", first.Command.Title)
	require.Len(t, first.Command.Arguments, 1)

	second := view.Folders[1]
	assert.False(t, second.Watching)
	assert.Equal(t, "Not watching", second.Description)
	assert.Equal(t, ContextValueIdle, second.ContextValue)
	assert.Equal(t, "eye-closed", second.Icon)

	assert.Equal(t, unchecked, view.Folders[2].Folder)
}

func TestNewViewWithoutSupportedFolders(t *testing.T) {
	folder := factory.WorkspaceFolder()
	view := NewView([]entity.WorkspaceFolder{folder}, map[entity.FolderKey]bool{folder.Key(): false}, nil)

	assert.False(t, view.HasFolders)
	assert.Empty(t, view.Folders)
	assert.NotNil(t, view.Sessions)
	assert.Equal(t, "$(eye-closed) Watch", view.StatusBar.Text)
}
