package brlspplugin

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

const (
	_errorUnrecognizedMethod = "%q included in priority config, but is not a recognized method. Method name must be a valid LSP method. If method is new to brlsp, ensure that brlspplugin.Validate is updated."
	_errorMissingMethod      = "%q is included in the priority configuration, but is nil in Methods"
	_errorMissingField       = "missing %q field for this plugin"

	// MethodEndSession is an additional method outside of LSP protocol, which is called when the JSON-RPC connection has been closed.
	// This should be used to ensure cleanup of resources even if the client exits before calling 'shutdown' and 'exit'.
	MethodEndSession = "end_session"
)

// RuntimePrioritizedMethods represents ordered list of modules to run for a given method.
type RuntimePrioritizedMethods map[string]MethodLists

// MethodLists maintains ordered list of modules to run, segmented by sync and async.
type MethodLists struct {
	Sync  []*Methods
	Async []*Methods
}

// Priority represents the ranked priority in which a plugin method will be run for a given method.
type Priority int64

const (
	// PriorityHigh for plugin methods that should be run in the highest priority group.
	PriorityHigh Priority = iota
	// PriorityRegular for plugins methods that should be run with regular priority.
	PriorityRegular
	// PriorityAsync for plugin methods should be run asynchronously and won't be included in the response.
	PriorityAsync
)

// Plugin defines a plugin which contributes a portion of the daemon's functionality.
type Plugin interface {
	StartupInfo(ctx context.Context) (PluginInfo, error)
}

// Methods defines methods which can be optionally implemented by a module, based on the protocol.Server interface.
type Methods struct {
	// PluginNameKey identifies the name of the plugin that provides these method implementations.
	PluginNameKey string

	// Lifecycle related methods.
	Initialize  func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error
	Initialized func(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown    func(ctx context.Context) error
	Exit        func(ctx context.Context) error

	// Document related methods.
	DidOpen   func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange func(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose  func(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave   func(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	// Workspace related methods.
	DidChangeWorkspaceFolders func(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error
	// ExecuteCommand is offered every command. Plugins ignore commands they do not own, and write the reply for those they do into result.
	ExecuteCommand func(ctx context.Context, params *protocol.ExecuteCommandParams, result *interface{}) error

	// Window related methods.
	WorkDoneProgressCancel func(ctx context.Context, params *protocol.WorkDoneProgressCancelParams) error

	// Connection related methods outside of the LSP protocol.
	EndSession func(ctx context.Context, uuid uuid.UUID) error
}

// PluginInfo provides both prioritization for each method, as well as access to call each method implemented by this plugin.
type PluginInfo struct {
	Priorities map[string]Priority
	Methods    *Methods
	NameKey    string
}

// Validate provides runtime validation that the a Plugin implementation returns valid PluginInfo.
func (m *PluginInfo) Validate() error {
	// Required fields.
	if len(m.Priorities) == 0 {
		return fmt.Errorf(_errorMissingField, "Priorities")
	} else if m.Methods == nil {
		return fmt.Errorf(_errorMissingField, "Methods")
	} else if m.NameKey == "" {
		return fmt.Errorf(_errorMissingField, "NameKey")
	} else if m.Methods.PluginNameKey != m.NameKey {
		return fmt.Errorf(_errorMissingField, "Methods.PluginNameKey")
	}

	// Each configuration key must have a matching entry in Methods.
	for key := range m.Priorities {
		var present bool
		switch key {
		case protocol.MethodInitialize:
			present = m.Methods.Initialize != nil
		case protocol.MethodInitialized:
			present = m.Methods.Initialized != nil
		case protocol.MethodShutdown:
			present = m.Methods.Shutdown != nil
		case protocol.MethodExit:
			present = m.Methods.Exit != nil
		case protocol.MethodTextDocumentDidOpen:
			present = m.Methods.DidOpen != nil
		case protocol.MethodTextDocumentDidChange:
			present = m.Methods.DidChange != nil
		case protocol.MethodTextDocumentDidClose:
			present = m.Methods.DidClose != nil
		case protocol.MethodTextDocumentDidSave:
			present = m.Methods.DidSave != nil
		case protocol.MethodWorkspaceDidChangeWorkspaceFolders:
			present = m.Methods.DidChangeWorkspaceFolders != nil
		case protocol.MethodWorkspaceExecuteCommand:
			present = m.Methods.ExecuteCommand != nil
		case protocol.MethodWorkDoneProgressCancel:
			present = m.Methods.WorkDoneProgressCancel != nil
		case MethodEndSession:
			present = m.Methods.EndSession != nil
		default:
			return fmt.Errorf(_errorUnrecognizedMethod, key)
		}

		if !present {
			return fmt.Errorf(_errorMissingMethod, key)
		}
	}
	return nil
}
