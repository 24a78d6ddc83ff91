package brlspdaemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

const (
	_serverName = "build_runner Language Server"

	_msgNoLocalFolders = "build_runner commands are unavailable: no local workspace folder is open."
)

// Initialize will store information about a new connection and perform any setup needed.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	result := &protocol.InitializeResult{
		ServerInfo: &protocol.ServerInfo{
			Name: _serverName,
		},
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	s.InitializeParams = params
	folders, skipped := mapper.WorkspaceFoldersToEntities(initialWorkspaceFolders(params))
	if len(skipped) > 0 {
		c.logger.Infow("ignoring workspace folders outside the local file system", "session", s.UUID, "folders", skipped)
	}
	s.WorkspaceFolders = folders
	c.refreshEnv(ctx, s)

	if err := c.sessions.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("setting updated session state: %w", err)
	}

	result.Capabilities = protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindFull,
			Save: &protocol.SaveOptions{
				IncludeText: true,
			},
		},
	}
	mapper.InitializeResultEnsureWorkspaceFolders(result)

	if err := c.registerSessionPlugins(ctx); err != nil {
		return nil, fmt.Errorf("registering session plugins: %w", err)
	}

	callSync := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.Initialize(ctx, params, result); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	callAsync := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.Initialize(ctx, params, nil); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodInitialize, callSync, callAsync); err != nil {
		return nil, fmt.Errorf(_errBadPluginCall, err)
	}

	return result, nil
}

// Initialized handles any actions that need to occur immediately after initialization.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.Initialized(ctx, params); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodInitialized, call, call); err != nil {
		return fmt.Errorf(_errBadPluginCall, err)
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	c.logger.Infow("session initialized", "session", s.UUID, "folders", len(s.WorkspaceFolders))
	if len(s.WorkspaceFolders) == 0 {
		if err := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
			Message: _msgNoLocalFolders,
			Type:    protocol.MessageTypeWarning,
		}); err != nil {
			c.logger.Warnf("showing message: %s", err)
		}
	}

	return nil
}

// Shutdown is sent just before Exit to indicate that the session will exit.
func (c *controller) Shutdown(ctx context.Context) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.Shutdown(ctx); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodShutdown, call, call); err != nil {
		return fmt.Errorf(_errBadPluginCall, err)
	}
	return nil
}

// Exit will be used to either clean up from an individual connection, or shutdown the whole server.
func (c *controller) Exit(ctx context.Context) error {
	call := func(ctx context.Context, m *brlspplugin.Methods) {
		if err := m.Exit(ctx); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	if err := c.executePluginMethods(ctx, protocol.MethodExit, call, call); err != nil {
		c.logger.Errorf(_errBadPluginCall, err)
	}

	if c.fullShutdown {
		// Zero out the timer to trigger immediate shutdown.
		c.idleTimerMu.Lock()
		c.idleTimer.Reset(0)
		c.idleTimerMu.Unlock()
		return nil
	}
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("error during session exit: %w", err)
	}

	return c.EndSession(ctx, s.UUID)
}

// RequestFullShutdown will set the controller to treat subsequent Shutdown and Exit requests as requests to exit the entire process.
func (c *controller) RequestFullShutdown(ctx context.Context) error {
	c.fullShutdown = true

	return nil
}

// InitSession creates a new empty session and returns its UUID.
func (c *controller) InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimer(ctx)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	session := mapper.UUIDToSession(id, conn)
	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}

	if err := c.sessions.Set(ctx, session); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndSession includes any cleanup at the end of the session, during or after the last JSON-RPC request.
// Plugins release what the session held, so watches on folders no other session has open are stopped.
func (c *controller) EndSession(ctx context.Context, uuid uuid.UUID) error {
	defer c.refreshIdleTimer(ctx)

	c.pluginMethodsMu.RLock()
	_, ok := c.pluginMethods[uuid]
	c.pluginMethodsMu.RUnlock()

	if ok {
		call := func(ctx context.Context, m *brlspplugin.Methods) {
			if err := m.EndSession(ctx, uuid); err != nil {
				c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
			}
		}
		if err := c.executePluginMethods(mapper.SessionUUIDToContext(ctx, uuid), brlspplugin.MethodEndSession, call, call); err != nil {
			c.logger.Errorf(_errBadPluginCall, err)
		}
	}

	err := c.ideGateway.DeregisterClient(ctx, uuid)
	if err != nil {
		c.logger.Error(err)
	}

	c.pluginMethodsMu.Lock()
	delete(c.pluginMethods, uuid)
	c.pluginMethodsMu.Unlock()
	return c.sessions.Delete(ctx, uuid)
}

// refreshIdleTimer ensures that the service shuts down after a defined inactivity period with no connections.
func (c *controller) refreshIdleTimer(ctx context.Context) error {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	// First call initializes new timer and leaves it running prior to first connection.
	if c.idleTimer == nil {
		c.idleTimer = time.NewTimer(c.idleTimeoutMinutes)
		go func(timer *time.Timer, done <-chan struct{}) {
			select {
			case <-timer.C:
			case <-done:
				return
			}
			c.logger.Info("Shutdown signal received.")
			if err := c.shutdowner.Shutdown(); err != nil {
				os.Exit(1)
			}
		}(c.idleTimer, c.idleDone)
		return nil
	}

	// Subsequent calls stop the timer and reset it only if no connections are active.
	currentSessions, err := c.sessions.SessionCount(ctx)
	if err != nil {
		return fmt.Errorf("error resetting timeout: %w", err)
	}

	c.idleTimer.Stop()
	if currentSessions == 0 {
		c.idleTimer.Reset(c.idleTimeoutMinutes)
	}
	return nil
}

// initialWorkspaceFolders falls back to the root URI for clients that do not send workspace folders.
func initialWorkspaceFolders(params *protocol.InitializeParams) []protocol.WorkspaceFolder {
	if len(params.WorkspaceFolders) > 0 {
		return params.WorkspaceFolders
	}
	if params.RootURI != "" {
		return []protocol.WorkspaceFolder{{URI: string(params.RootURI)}}
	}
	return nil
}

// refreshEnv loads the process environment for the session from its first folder when it has none yet.
func (c *controller) refreshEnv(ctx context.Context, s *entity.Session) {
	if len(s.Env) > 0 || len(s.WorkspaceFolders) == 0 {
		return
	}

	env, err := c.workspaceUtils.GetEnv(ctx, s.WorkspaceFolders[0].Path)
	if err != nil {
		c.logger.Warnf("getting environment: %s", err)
		return
	}
	s.Env = env
}
