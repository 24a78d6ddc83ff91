// Package entity contains the domain logic for the brlsp daemon.
package entity

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// Session entity representing a single IDE session.
type Session struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Conn             *jsonrpc2.Conn             `json:"-" zap:"-"`
	WorkspaceFolders []WorkspaceFolder          `json:"workspaceFolders" zap:"workspaceFolders"`
	Env              []string                   `json:"-" zap:"-"`
}

// FolderKey is the normalized identity of a workspace folder.
// Two folders with the same FolderKey refer to the same directory on disk.
type FolderKey string

// caseInsensitivePaths reports whether the host file system compares paths without regard to case.
var caseInsensitivePaths = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// NewFolderKey builds the FolderKey for a file system path.
func NewFolderKey(path string) FolderKey {
	cleaned := filepath.Clean(path)
	if caseInsensitivePaths {
		cleaned = strings.ToLower(cleaned)
	}
	return FolderKey(cleaned)
}

// WorkspaceFolder is a root folder opened in the editor.
type WorkspaceFolder struct {
	URI  uri.URI `json:"uri"`
	Name string  `json:"name"`
	Path string  `json:"path"`
}

// Key returns the identity used to look up this folder.
func (f WorkspaceFolder) Key() FolderKey {
	return NewFolderKey(f.Path)
}

// WatchState describes the lifecycle of a watch session.
type WatchState string

const (
	// WatchStateStarting is set while the watch process is being spawned.
	WatchStateStarting WatchState = "starting"
	// WatchStateRunning is set once the watch process has been spawned.
	WatchStateRunning WatchState = "running"
	// WatchStateRestarting is set while a replacement process is spawned after a benign exit.
	WatchStateRestarting WatchState = "restarting"
	// WatchStateStopped describes a folder with no watch process.
	WatchStateStopped WatchState = "stopped"
)

// WatchSession is the externally visible state of one folder's watch process.
type WatchSession struct {
	Folder WorkspaceFolder `json:"folder"`
	State  WatchState      `json:"state"`
	PID    int             `json:"pid,omitempty"`
}
