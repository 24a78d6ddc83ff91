package model

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Session is the repository layer model for an individual IDE session.
type Session struct {
	UUID             uuid.UUID
	InitializeParams *protocol.InitializeParams
	Conn             *jsonrpc2.Conn
	WorkspaceFolders []WorkspaceFolder
	Env              []string
}

// WorkspaceFolder is the repository layer model for a folder opened by a session.
type WorkspaceFolder struct {
	URI  string
	Name string
	Path string
}
