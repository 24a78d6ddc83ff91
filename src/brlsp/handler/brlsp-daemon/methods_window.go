package brlspdaemon

import (
	"context"

	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) WorkDoneProgressCancel(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkDoneProgressCancelParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.brlspdaemon.WorkDoneProgressCancel(ctx, params)
	return reply(ctx, nil, err)
}
