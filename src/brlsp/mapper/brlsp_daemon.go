package mapper

import (
	"context"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/model"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/uri"
)

// SessionToModel maps a Session entity to its model equivalent.
func SessionToModel(f *entity.Session) *model.Session {
	folders := make([]model.WorkspaceFolder, 0, len(f.WorkspaceFolders))
	for _, folder := range f.WorkspaceFolders {
		folders = append(folders, model.WorkspaceFolder{
			URI:  string(folder.URI),
			Name: folder.Name,
			Path: folder.Path,
		})
	}

	return &model.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		WorkspaceFolders: folders,
		Env:              f.Env,
	}
}

// ModelToSession maps a model Session to its entity equivalent.
func ModelToSession(f *model.Session) (*entity.Session, error) {
	folders := make([]entity.WorkspaceFolder, 0, len(f.WorkspaceFolders))
	for _, folder := range f.WorkspaceFolders {
		folders = append(folders, entity.WorkspaceFolder{
			URI:  uri.URI(folder.URI),
			Name: folder.Name,
			Path: folder.Path,
		})
	}

	return &entity.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		WorkspaceFolders: folders,
		Env:              f.Env,
	}, nil
}

// UUIDToSession initializes a new Session entity with the assigned uuid and connection.
func UUIDToSession(u uuid.UUID, c *jsonrpc2.Conn) *entity.Session {
	return &entity.Session{
		UUID: u,
		Conn: c,
	}
}

// ContextToSessionUUID extracts the UUID from a context
func ContextToSessionUUID(c context.Context) (uuid.UUID, error) {
	s, ok := c.Value(entity.SessionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoSessionFoundError{}
	}
	return s, nil
}

// SessionUUIDToContext returns a context carrying the given session UUID, detached from the cancellation of ctx.
// Used for work that outlives the request which triggered it, such as process output routed back to the IDE.
func SessionUUIDToContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(context.WithoutCancel(ctx), entity.SessionContextKey, id)
}
