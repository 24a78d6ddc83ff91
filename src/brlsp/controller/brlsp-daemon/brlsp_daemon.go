// Package brlspdaemon implements the brlsp-daemon business logic.
package brlspdaemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/controller/commands"
	docsync "github.com/dart-tools/brlsp/src/brlsp/controller/doc-sync"
	"github.com/dart-tools/brlsp/src/brlsp/controller/explorer"
	"github.com/dart-tools/brlsp/src/brlsp/controller/watch"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	workspaceutils "github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Error templates
	_errBadPluginCall       = "calling plugin: %s"
	_errPluginReturnedError = "plugin %q returned error: %s"

	// Configuration keys
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"
	_pluginsKey            = "plugins"

	_contextTimeoutSecondsAsync = 300
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) (err error)
	Shutdown(ctx context.Context) (err error)
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	// Workspace related methods.
	DidChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error)

	// Window related methods.
	WorkDoneProgressCancel(ctx context.Context, params *protocol.WorkDoneProgressCancelParams) error

	// Custom methods for use within this service.
	RequestFullShutdown(ctx context.Context) error
	InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	EndSession(ctx context.Context, uuid uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Lifecycle      fx.Lifecycle
	Shutdowner     fx.Shutdowner
	Sessions       session.Repository
	IdeGateway     ideclient.Gateway
	Logger         *zap.SugaredLogger
	Config         config.Provider
	WorkspaceUtils workspaceutils.WorkspaceUtils

	PluginDocSync  docsync.Controller
	PluginWatch    watch.Controller
	PluginCommands commands.Controller
	PluginExplorer explorer.Controller
}

type controller struct {
	sessions           session.Repository
	shutdowner         fx.Shutdowner
	fullShutdown       bool
	idleTimer          *time.Timer
	idleTimerMu        sync.Mutex
	idleTimeoutMinutes time.Duration
	idleDone           chan struct{}
	logger             *zap.SugaredLogger
	ideGateway         ideclient.Gateway
	pluginMethods      map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods
	pluginMethodsMu    sync.RWMutex
	pluginConfig       map[string]bool
	pluginsAll         []brlspplugin.Plugin
	wg                 sync.WaitGroup
	workspaceUtils     workspaceutils.WorkspaceUtils
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	ctx := context.Background()

	var timeoutMinutesRaw int64
	if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutesRaw); err != nil || timeoutMinutesRaw == 0 {
		return nil, fmt.Errorf("unable to get idle timeout from config: %w", err)
	}
	var pluginConfig map[string]bool
	if err := p.Config.Get(_pluginsKey).Populate(&pluginConfig); err != nil {
		return nil, fmt.Errorf("unable to get plugin keys from config: %w", err)
	}

	// When creating a new plugin, add it as a dependency in Params, then add it to the list of available plugins here.
	availablePlugins := []brlspplugin.Plugin{p.PluginDocSync, p.PluginWatch, p.PluginCommands, p.PluginExplorer}

	c := &controller{
		sessions:       p.Sessions,
		shutdowner:     p.Shutdowner,
		logger:         p.Logger,
		ideGateway:     p.IdeGateway,
		workspaceUtils: p.WorkspaceUtils,

		idleTimeoutMinutes: time.Duration(timeoutMinutesRaw) * time.Minute,
		idleDone:           make(chan struct{}),
		pluginMethods:      map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{},
		pluginConfig:       pluginConfig,
		pluginsAll:         availablePlugins,
	}
	c.refreshIdleTimer(ctx)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.idleTimerMu.Lock()
			defer c.idleTimerMu.Unlock()
			c.idleTimer.Stop()
			close(c.idleDone)
			return nil
		},
	})
	return c, nil
}

func (c *controller) registerSessionPlugins(ctx context.Context) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	enabledPlugins := []brlspplugin.PluginInfo{}
	for _, plugin := range c.pluginsAll {
		if plugin == nil {
			continue
		}
		info, err := plugin.StartupInfo(ctx)
		if err != nil {
			return fmt.Errorf("getting plugin startup info: %w", err)
		}

		if isEnabled := c.pluginConfig[info.NameKey]; isEnabled {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "enabled")
			enabledPlugins = append(enabledPlugins, info)
		} else {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "disabled")
		}
	}

	methods, err := mapper.PluginInfoToRuntimePrioritizedMethods(enabledPlugins)
	if err != nil {
		return fmt.Errorf("prioritizing plugin methods: %w", err)
	}

	c.pluginMethodsMu.Lock()
	defer c.pluginMethodsMu.Unlock()
	if c.pluginMethods == nil {
		c.pluginMethods = map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{}
	}
	c.pluginMethods[s.UUID] = methods
	return nil
}

// executePluginMethods will execute modules in the order defined for the given method.
// The caller is responsible for defining and providing a handlerSync and handlerAsync function, which should call the corresponding method with proper arguments.
// The same function may be passed in for both sync and async if no difference is needed.
func (c *controller) executePluginMethods(ctx context.Context, method string, handlerSync func(ctx context.Context, m *brlspplugin.Methods), handlerAsync func(ctx context.Context, m *brlspplugin.Methods)) error {
	if handlerSync == nil || handlerAsync == nil {
		return fmt.Errorf("handlers cannot be nil")
	}

	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	c.pluginMethodsMu.RLock()
	sessionMethods, ok := c.pluginMethods[id]
	c.pluginMethodsMu.RUnlock()
	if !ok {
		return nil
	}

	methodLists, ok := sessionMethods[method]
	if !ok {
		// No need to execute if this method has no registered plugins.
		return nil
	}

	for _, current := range methodLists.Sync {
		handlerSync(ctx, current)
	}

	if len(methodLists.Async) == 0 {
		return nil
	}

	// Outer goroutine will spawn a goroutine for each asynchronous plugin method, then wait for them to complete with a timeout.
	// Plugins that implement asynchronous methods are responsible for respecting the context timeout or cancellation signal.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// New context with its own timeout for asynchronous calls.
		asyncCtx := context.WithValue(context.Background(), entity.SessionContextKey, ctx.Value(entity.SessionContextKey))
		asyncCtx, cancel := context.WithTimeout(asyncCtx, _contextTimeoutSecondsAsync*time.Second)
		defer cancel()

		var innerWg sync.WaitGroup
		for _, current := range methodLists.Async {
			currentMethods := current
			innerWg.Add(1)
			go func() {
				defer innerWg.Done()
				handlerAsync(asyncCtx, currentMethods)
			}()
		}

		innerWg.Wait()
	}()

	return nil
}
