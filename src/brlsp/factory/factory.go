package factory

import (
	"context"
	"fmt"

	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a user-defined factory for a JSON-RPC notification containing the specified method and parameters.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// PluginInfoValid is a factory for PluginInfo that passes validation.
func PluginInfoValid(id int) brlspplugin.PluginInfo {
	sampleDidOpenFunc := func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
		return nil
	}
	return brlspplugin.PluginInfo{
		Priorities: map[string]brlspplugin.Priority{
			protocol.MethodTextDocumentDidOpen: brlspplugin.PriorityHigh,
		},
		Methods: &brlspplugin.Methods{
			PluginNameKey: fmt.Sprintf("test-plugin-%v", id),

			DidOpen: sampleDidOpenFunc,
		},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}

// PluginInfoInvalid is a factory for PluginInfo that fails validation.
func PluginInfoInvalid(id int) brlspplugin.PluginInfo {
	return brlspplugin.PluginInfo{
		Priorities: map[string]brlspplugin.Priority{
			protocol.MethodTextDocumentDidOpen: brlspplugin.PriorityHigh,
		},
		Methods: &brlspplugin.Methods{},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}
