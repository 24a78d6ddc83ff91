package mapper

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// RequestToInitializeParams maps the parameters from a jsconrpc2.Request into protocol.InitializeParams.
func RequestToInitializeParams(req jsonrpc2.Request) (*protocol.InitializeParams, error) {
	params := protocol.InitializeParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToInitializedParams maps the parameters from a jsconrpc2.Request into protocol.InitializedParams.
func RequestToInitializedParams(req jsonrpc2.Request) (*protocol.InitializedParams, error) {
	params := protocol.InitializedParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidOpenTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidOpenTextDocumentParams.
func RequestToDidOpenTextDocumentParams(req jsonrpc2.Request) (*protocol.DidOpenTextDocumentParams, error) {
	params := protocol.DidOpenTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidChangeTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidChangeTextDocumentParams.
func RequestToDidChangeTextDocumentParams(req jsonrpc2.Request) (*protocol.DidChangeTextDocumentParams, error) {
	params := protocol.DidChangeTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidCloseTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidCloseTextDocumentParams.
func RequestToDidCloseTextDocumentParams(req jsonrpc2.Request) (*protocol.DidCloseTextDocumentParams, error) {
	params := protocol.DidCloseTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidSaveTextDocumentParams maps the parameters from a jsconrpc2.Request into protocol.DidSaveTextDocumentParams.
func RequestToDidSaveTextDocumentParams(req jsonrpc2.Request) (*protocol.DidSaveTextDocumentParams, error) {
	params := protocol.DidSaveTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidChangeWorkspaceFoldersParams maps the parameters from a jsconrpc2.Request into protocol.DidChangeWorkspaceFoldersParams.
func RequestToDidChangeWorkspaceFoldersParams(req jsonrpc2.Request) (*protocol.DidChangeWorkspaceFoldersParams, error) {
	params := protocol.DidChangeWorkspaceFoldersParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToExecuteCommandParams maps the parameters from a jsconrpc2.Request into protocol.ExecuteCommandParams.
func RequestToExecuteCommandParams(req jsonrpc2.Request) (*protocol.ExecuteCommandParams, error) {
	params := protocol.ExecuteCommandParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}

	// store params.Arguments as []byte instead of []map[string]interface{}
	// this will allow plugins to handle unmarshalling the arguments themselves
	rawArgs := []interface{}{}
	for _, arg := range params.Arguments {
		rawArg, err := json.Marshal(arg)
		if err != nil {
			return nil, wrapErrParse(err)
		}
		rawArgs = append(rawArgs, rawArg)
	}

	params.Arguments = rawArgs
	return &params, nil
}

// RequestToWorkDoneProgressCancelParams maps the parameters from a jsconrpc2.Request into protocol.WorkDoneProgressCancelParams.
func RequestToWorkDoneProgressCancelParams(req jsonrpc2.Request) (*protocol.WorkDoneProgressCancelParams, error) {
	params := protocol.WorkDoneProgressCancelParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// ContentChangesToText returns the document text after applying full-text content changes.
// Only full document sync is advertised, so the final change carries the complete text.
func ContentChangesToText(initialText string, changes []protocol.TextDocumentContentChangeEvent) string {
	if len(changes) == 0 {
		return initialText
	}
	return changes[len(changes)-1].Text
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
