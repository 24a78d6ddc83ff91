package brlspdaemon

import (
	"context"

	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) DidChangeWorkspaceFolders(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeWorkspaceFoldersParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.brlspdaemon.DidChangeWorkspaceFolders(ctx, params)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) ExecuteCommand(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToExecuteCommandParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.brlspdaemon.ExecuteCommand(ctx, params)
	return reply(ctx, result, err)
}
