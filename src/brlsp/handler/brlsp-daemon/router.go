package brlspdaemon

import (
	"context"

	controller "github.com/dart-tools/brlsp/src/brlsp/controller/brlsp-daemon"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// MethodRequestFullShutdown directs the server to shut down on the next JSON-RPC 'exit' method call.
const MethodRequestFullShutdown = "brlsp/requestFullShutdown"

type jsonRPCRouter struct {
	brlspdaemon controller.Controller
	uuid        uuid.UUID
	stats       tally.Scope
}

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.SessionContextKey, r.uuid)
	r.stats.Counter("requests").Inc(1)

	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return r.Initialized(ctx, reply, req)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	case MethodRequestFullShutdown:
		return r.RequestFullShutdown(ctx, reply, req)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange:
		return r.DidChange(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	case protocol.MethodTextDocumentDidSave:
		return r.DidSave(ctx, reply, req)

	// Workspace methods
	case protocol.MethodWorkspaceDidChangeWorkspaceFolders:
		return r.DidChangeWorkspaceFolders(ctx, reply, req)

	case protocol.MethodWorkspaceExecuteCommand:
		return r.ExecuteCommand(ctx, reply, req)

	// Window methods
	case protocol.MethodWorkDoneProgressCancel:
		return r.WorkDoneProgressCancel(ctx, reply, req)

	default:
		r.stats.Counter("unknown_methods").Inc(1)
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}
