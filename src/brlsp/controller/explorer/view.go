package explorer

import (
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/controller/commands"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"go.lsp.dev/protocol"
)

// Context values attached to folder items, used by the IDE to pick inline actions.
const (
	ContextValueWatching = "buildRunnerFolderWatching"
	ContextValueIdle     = "buildRunnerFolderIdle"
)

const (
	_iconWatching        = "eye"
	_iconIdle            = "eye-closed"
	_descriptionWatching = "Currently watching"
	_descriptionIdle     = "Not watching"
	_toggleTitle         = "Toggle build_runner watch"

	_statusIdleText        = "$(eye-closed) Watch"
	_statusIdleTooltip     = "Start build_runner watch"
	_statusActiveTooltip   = "Stop build_runner watch"
	_fmtStatusSingleText   = "$(watch) Watching %s"
	_fmtStatusMultipleText = "$(watch) Watching %d folders"
)

// StatusBar is the state of the build_runner status bar entry.
type StatusBar struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Command string `json:"command"`
}

// FolderItem is one row of the build_runner folder tree.
type FolderItem struct {
	Folder       entity.WorkspaceFolder `json:"folder"`
	Label        string                 `json:"label"`
	Watching     bool                   `json:"watching"`
	Description  string                 `json:"description"`
	ContextValue string                 `json:"contextValue"`
	Icon         string                 `json:"icon"`
	Tooltip      string                 `json:"tooltip"`
	Command      protocol.Command       `json:"command"`
}

// View is everything an IDE needs to render the build_runner status bar and folder tree.
type View struct {
	StatusBar  StatusBar             `json:"statusBar"`
	Folders    []FolderItem          `json:"folders"`
	HasFolders bool                  `json:"hasFolders"`
	Sessions   []entity.WatchSession `json:"sessions"`
}

// NewStatusBar renders the status bar for the given watch sessions.
func NewStatusBar(sessions []entity.WatchSession) StatusBar {
	bar := StatusBar{Command: commands.CommandToggleWatch}
	switch len(sessions) {
	case 0:
		bar.Text = _statusIdleText
		bar.Tooltip = _statusIdleTooltip
	case 1:
		bar.Text = fmt.Sprintf(_fmtStatusSingleText, sessions[0].Folder.Name)
		bar.Tooltip = _statusActiveTooltip
	default:
		bar.Text = fmt.Sprintf(_fmtStatusMultipleText, len(sessions))
		bar.Tooltip = _statusActiveTooltip
	}
	return bar
}

// NewView renders the folders of one IDE session.
// Folders whose capability is known to be false are hidden, unknown ones are listed.
func NewView(folders []entity.WorkspaceFolder, capabilities map[entity.FolderKey]bool, sessions []entity.WatchSession) *View {
	watching := make(map[entity.FolderKey]bool, len(sessions))
	for _, s := range sessions {
		watching[s.Folder.Key()] = true
	}

	view := &View{
		StatusBar: NewStatusBar(sessions),
		Folders:   []FolderItem{},
		Sessions:  sessions,
	}
	if view.Sessions == nil {
		view.Sessions = []entity.WatchSession{}
	}

	for _, folder := range folders {
		supported, known := capabilities[folder.Key()]
		if supported {
			view.HasFolders = true
		}
		if known && !supported {
			continue
		}
		view.Folders = append(view.Folders, newFolderItem(folder, watching[folder.Key()]))
	}
	return view
}

func newFolderItem(folder entity.WorkspaceFolder, watching bool) FolderItem {
	item := FolderItem{
		Folder:       folder,
		Label:        folder.Name,
		Watching:     watching,
		Description:  _descriptionIdle,
		ContextValue: ContextValueIdle,
		Icon:         _iconIdle,
		Tooltip:      folder.Path,
		Command: protocol.Command{
			Title:     _toggleTitle,
			Command:   commands.CommandToggleWatch,
			Arguments: []interface{}{map[string]interface{}{"folder": folder}},
		},
	}
	if watching {
		item.Description = _descriptionWatching
		item.ContextValue = ContextValueWatching
		item.Icon = _iconWatching
	}
	return item
}
