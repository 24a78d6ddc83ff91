// Package explorer publishes the status bar and folder tree state of build_runner watches to IDE sessions.
package explorer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/controller/watch"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec"
	workspaceutils "github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "explorer"

	_configKeyManifestDebounce = "buildRunner.manifestDebounceMillis"
	_defaultManifestDebounce   = 300 * time.Millisecond
)

const (
	// CommandListFolders returns the View of the calling session.
	CommandListFolders = "buildRunner.listFolders"

	// MethodSessionsChanged is notified with a View whenever watch sessions start or stop.
	MethodSessionsChanged = "buildRunner/sessionsChanged"
	// MethodFoldersChanged is notified with a View whenever the listed folders may have changed.
	MethodFoldersChanged = "buildRunner/foldersChanged"
)

// Controller defines the methods that this controller provides.
type Controller interface {
	StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error)
	// View renders the presentation state for the IDE session in ctx.
	View(ctx context.Context) (*View, error)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Lifecycle      fx.Lifecycle
	Config         config.Provider
	Sessions       session.Repository
	IdeGateway     ideclient.Gateway
	Watch          watch.Controller
	Detector       pubspec.Detector
	WorkspaceUtils workspaceutils.WorkspaceUtils
	Logger         *zap.SugaredLogger
	Stats          tally.Scope
}

type controller struct {
	sessions       session.Repository
	ideGateway     ideclient.Gateway
	watch          watch.Controller
	detector       pubspec.Detector
	workspaceUtils workspaceutils.WorkspaceUtils
	logger         *zap.SugaredLogger
	stats          tally.Scope
	debounce       time.Duration

	capabilitiesMu sync.Mutex
	capabilities   map[entity.FolderKey]bool

	watcher     *fsnotify.Watcher
	watchedMu   sync.Mutex
	watched     map[entity.FolderKey]string
	watchCloser chan struct{}
	watchDone   chan struct{}

	debounceMu     sync.Mutex
	debounceTimers map[entity.FolderKey]*time.Timer
	stopped        bool
	inflight       sync.WaitGroup

	unsubscribe func()
}

// New creates a new controller for the build_runner explorer.
func New(p Params) (Controller, error) {
	debounceMillis := 0
	if err := p.Config.Get(_configKeyManifestDebounce).Populate(&debounceMillis); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyManifestDebounce, err)
	}
	debounce := _defaultManifestDebounce
	if debounceMillis > 0 {
		debounce = time.Duration(debounceMillis) * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher for explorer: %w", err)
	}

	c := &controller{
		sessions:       p.Sessions,
		ideGateway:     p.IdeGateway,
		watch:          p.Watch,
		detector:       p.Detector,
		workspaceUtils: p.WorkspaceUtils,
		logger:         p.Logger.With("plugin", _nameKey),
		stats:          p.Stats.SubScope("explorer"),
		debounce:       debounce,
		capabilities:   make(map[entity.FolderKey]bool),
		watcher:        watcher,
		watched:        make(map[entity.FolderKey]string),
		watchCloser:    make(chan struct{}),
		watchDone:      make(chan struct{}),
		debounceTimers: make(map[entity.FolderKey]*time.Timer),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.unsubscribe = c.watch.OnSessionsChanged(c.onSessionsChanged)
			go c.handleChanges()
			return nil
		},
		OnStop: c.stop,
	})
	return c, nil
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error) {
	priorities := map[string]brlspplugin.Priority{
		protocol.MethodInitialize:                         brlspplugin.PriorityRegular,
		protocol.MethodInitialized:                        brlspplugin.PriorityAsync,
		protocol.MethodWorkspaceDidChangeWorkspaceFolders: brlspplugin.PriorityAsync,
		protocol.MethodWorkspaceExecuteCommand:            brlspplugin.PriorityRegular,
		brlspplugin.MethodEndSession:                      brlspplugin.PriorityRegular,
	}

	methods := &brlspplugin.Methods{
		PluginNameKey: _nameKey,

		Initialize:                c.initialize,
		Initialized:               c.initialized,
		DidChangeWorkspaceFolders: c.didChangeWorkspaceFolders,
		ExecuteCommand:            c.executeCommand,
		EndSession:                c.endSession,
	}

	return brlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) View(ctx context.Context) (*View, error) {
	return c.view(ctx, c.watch.GetActiveSessions())
}

func (c *controller) view(ctx context.Context, sessions []entity.WatchSession) (*View, error) {
	folders, err := c.workspaceUtils.ProjectFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing project folders: %w", err)
	}

	unknown := []entity.WorkspaceFolder{}
	c.capabilitiesMu.Lock()
	for _, folder := range folders {
		if _, ok := c.capabilities[folder.Key()]; !ok {
			unknown = append(unknown, folder)
		}
	}
	c.capabilitiesMu.Unlock()

	if len(unknown) > 0 {
		if err := c.refreshCapabilities(ctx, unknown); err != nil {
			return nil, err
		}
	}

	c.capabilitiesMu.Lock()
	defer c.capabilitiesMu.Unlock()
	return NewView(folders, c.capabilities, sessions), nil
}

// refreshCapabilities re-reads the manifests of the given folders.
func (c *controller) refreshCapabilities(ctx context.Context, folders []entity.WorkspaceFolder) error {
	supported, err := c.detector.Supported(ctx, folders)
	if err != nil {
		return fmt.Errorf("detecting build_runner: %w", err)
	}

	found := make(map[entity.FolderKey]bool, len(supported))
	for _, folder := range supported {
		found[folder.Key()] = true
	}

	c.capabilitiesMu.Lock()
	defer c.capabilitiesMu.Unlock()
	for _, folder := range folders {
		c.capabilities[folder.Key()] = found[folder.Key()]
	}
	return nil
}

func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	if err := mapper.InitializeResultAppendExecuteCommandProvider(result, &protocol.ExecuteCommandOptions{Commands: []string{CommandListFolders}}); err != nil {
		return fmt.Errorf("failed to append ExecuteCommandProvider: %w", err)
	}
	return nil
}

func (c *controller) initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return c.refreshSession(ctx)
}

func (c *controller) didChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	removed, _ := mapper.WorkspaceFoldersToEntities(params.Event.Removed)
	var current uuid.UUID
	if s, err := c.sessions.GetFromContext(ctx); err == nil {
		current = s.UUID
	}
	c.unwatchUnshared(ctx, current, removed)

	return c.refreshSession(ctx)
}

// refreshSession re-reads the manifests of the session's folders, watches them and publishes the result.
func (c *controller) refreshSession(ctx context.Context) error {
	folders, err := c.workspaceUtils.ProjectFolders(ctx)
	if err != nil {
		return fmt.Errorf("listing project folders: %w", err)
	}

	if err := c.refreshCapabilities(ctx, folders); err != nil {
		return err
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}
	// Watching the folder itself also reports manifests that are created or replaced.
	for _, folder := range s.WorkspaceFolders {
		c.watchFolder(folder)
	}

	c.publish(ctx, MethodFoldersChanged, c.watch.GetActiveSessions())
	return nil
}

func (c *controller) executeCommand(ctx context.Context, params *protocol.ExecuteCommandParams, result *interface{}) error {
	if params.Command != CommandListFolders {
		return nil
	}

	view, err := c.View(ctx)
	if err != nil {
		return fmt.Errorf("running %q: %w", CommandListFolders, err)
	}
	*result = view
	return nil
}

func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	c.unwatchUnshared(ctx, id, s.WorkspaceFolders)
	return nil
}

// onSessionsChanged pushes the new watch state to every connected IDE session.
func (c *controller) onSessionsChanged(sessions []entity.WatchSession) {
	ctx := context.Background()
	all, err := c.sessions.GetAll(ctx)
	if err != nil {
		c.logger.Warnf("listing sessions: %s", err)
		return
	}
	for _, s := range all {
		c.publish(mapper.SessionUUIDToContext(ctx, s.UUID), MethodSessionsChanged, sessions)
	}
}

// publish notifies the session in ctx of its current View. Failures are logged.
func (c *controller) publish(ctx context.Context, method string, sessions []entity.WatchSession) {
	view, err := c.view(ctx, sessions)
	if err != nil {
		c.logger.Warnf("building view for %s: %s", method, err)
		return
	}
	if err := c.ideGateway.Notify(ctx, method, view); err != nil {
		c.logger.Warnf("sending %s: %s", method, err)
		return
	}
	c.stats.Counter("notifications").Inc(1)
}

func (c *controller) watchFolder(folder entity.WorkspaceFolder) {
	c.watchedMu.Lock()
	defer c.watchedMu.Unlock()

	key := folder.Key()
	if _, ok := c.watched[key]; ok {
		return
	}
	if err := c.watcher.Add(folder.Path); err != nil {
		c.logger.Warnf("unable to watch %q for manifest changes: %s", folder.Path, err)
		return
	}
	c.watched[key] = folder.Path
}

// unwatchUnshared stops watching folders that no other session has open.
func (c *controller) unwatchUnshared(ctx context.Context, owner uuid.UUID, folders []entity.WorkspaceFolder) {
	for _, folder := range folders {
		others, err := c.sessions.GetAllWithFolder(ctx, folder.Key())
		if err != nil {
			c.logger.Warnf("looking up sessions for %q: %s", folder.Path, err)
			continue
		}
		shared := false
		for _, s := range others {
			if s.UUID != owner {
				shared = true
				break
			}
		}
		if shared {
			continue
		}

		c.watchedMu.Lock()
		if path, ok := c.watched[folder.Key()]; ok {
			if err := c.watcher.Remove(path); err != nil {
				c.logger.Debugf("removing watch for %q: %s", path, err)
			}
			delete(c.watched, folder.Key())
		}
		c.watchedMu.Unlock()

		c.capabilitiesMu.Lock()
		delete(c.capabilities, folder.Key())
		c.capabilitiesMu.Unlock()
	}
}

func (c *controller) handleChanges() {
	defer close(c.watchDone)
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != pubspec.FileName {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			c.handleDebounce(filepath.Dir(event.Name))

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warnf("Failure in manifest change watcher: %v", err)
		case <-c.watchCloser:
			return
		}
	}
}

// handleDebounce collapses bursts of manifest events for one folder into a single refresh.
func (c *controller) handleDebounce(dir string) {
	key := entity.NewFolderKey(dir)

	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()
	if c.stopped {
		return
	}

	if timer, exists := c.debounceTimers[key]; exists {
		timer.Stop()
	}

	c.debounceTimers[key] = time.AfterFunc(c.debounce, func() {
		c.debounceMu.Lock()
		if c.stopped {
			c.debounceMu.Unlock()
			return
		}
		delete(c.debounceTimers, key)
		c.inflight.Add(1)
		c.debounceMu.Unlock()

		defer c.inflight.Done()
		c.manifestChanged(key, dir)
	})
}

// manifestChanged re-reads one folder's manifest and notifies the sessions showing it when the result differs.
func (c *controller) manifestChanged(key entity.FolderKey, dir string) {
	supported := c.detector.HasBuildRunner(dir)

	c.capabilitiesMu.Lock()
	previous, known := c.capabilities[key]
	c.capabilities[key] = supported
	c.capabilitiesMu.Unlock()

	if known && previous == supported {
		return
	}
	c.stats.Counter("manifest_changes").Inc(1)

	ctx := context.Background()
	sessions, err := c.sessions.GetAllWithFolder(ctx, key)
	if err != nil {
		c.logger.Warnf("looking up sessions for %q: %s", dir, err)
		return
	}
	active := c.watch.GetActiveSessions()
	for _, s := range sessions {
		c.publish(mapper.SessionUUIDToContext(ctx, s.UUID), MethodFoldersChanged, active)
	}
}

func (c *controller) stop(ctx context.Context) error {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}

	c.debounceMu.Lock()
	c.stopped = true
	for _, timer := range c.debounceTimers {
		timer.Stop()
	}
	c.debounceTimers = make(map[entity.FolderKey]*time.Timer)
	c.debounceMu.Unlock()

	close(c.watchCloser)
	<-c.watchDone
	c.inflight.Wait()

	if err := c.watcher.Close(); err != nil {
		return fmt.Errorf("closing manifest change watcher: %w", err)
	}
	return nil
}
