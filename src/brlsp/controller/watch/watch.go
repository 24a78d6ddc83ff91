// Package watch supervises one long-running build_runner watch process per workspace folder.
package watch

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	outputchannel "github.com/dart-tools/brlsp/src/brlsp/gateway/output-channel"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_nameKey = "watch"

	_msgStarted         = "Build runner watch started for %s."
	_msgStartFailed     = "Failed to run build_runner watch for %s: %s"
	_msgStopFailed      = "Error stopping process: %s"
	_msgStopped         = "Build runner watch stopped for %s."
	_msgRestarted       = "Build runner watch restarted for %s."
	_msgStoppedUnexpect = "Build runner watch stopped unexpectedly for %s with code %s."

	_fmtOutputPrefix = "[build_runner:%s]: "
	_fmtErrorPrefix  = "[build_runner error:%s]: "
)

var _watchArgs = []string{"run", "build_runner", "watch", "--delete-conflicting-outputs"}

// Controller owns the watch processes of every workspace folder known to the daemon.
type Controller interface {
	StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error)

	// IsWatching reports whether a watch session is registered for the folder.
	IsWatching(folder entity.WorkspaceFolder) bool
	// Start spawns a watch process for the folder unless one is already registered.
	// User facing outcomes are reported to the IDE session in ctx, the returned error is informational.
	Start(ctx context.Context, folder entity.WorkspaceFolder, restart bool) error
	// Stop interrupts the folder's watch process. The session is removed once the process exits.
	Stop(ctx context.Context, folder entity.WorkspaceFolder, silent bool) error
	// StopAll silently stops every registered folder.
	StopAll(ctx context.Context) error
	// HandleWorkspaceRemoved silently stops the watch processes of folders that are no longer open.
	HandleWorkspaceRemoved(ctx context.Context, folders ...entity.WorkspaceFolder) error
	// GetActiveSessions returns a snapshot of the registered sessions in the order they were started.
	GetActiveSessions() []entity.WatchSession
	// OnSessionsChanged registers a listener called with a fresh snapshot after every registry change.
	// Listeners are called one at a time and must not start or stop watches synchronously.
	OnSessionsChanged(listener func([]entity.WatchSession)) (unsubscribe func())
	// Dispose stops every watch process and waits for them to exit, or for ctx to be done.
	Dispose(ctx context.Context) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Sessions   session.Repository
	IdeGateway ideclient.Gateway
	Output     outputchannel.Channel
	Runner     process.Runner
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
}

type watcherEntry struct {
	folder entity.WorkspaceFolder
	state  entity.WatchState
	handle process.Handle
	// ctx routes notifications to the session that started the watch.
	ctx               context.Context
	userInitiatedStop bool
	silentStop        bool
	unsubscribe       []func()
}

type controller struct {
	sessions   session.Repository
	ideGateway ideclient.Gateway
	output     outputchannel.Channel
	runner     process.Runner
	logger     *zap.SugaredLogger
	stats      tally.Scope

	mu       sync.Mutex
	watchers map[entity.FolderKey]*watcherEntry
	order    []entity.FolderKey
	disposed bool
	// live counts registered entries, so that Dispose can wait for the last exit.
	live sync.WaitGroup

	emitMu      sync.Mutex
	listenersMu sync.Mutex
	listeners   map[int]func([]entity.WatchSession)
	nextID      int
}

// New creates a new watch controller.
func New(p Params) Controller {
	c := &controller{
		sessions:   p.Sessions,
		ideGateway: p.IdeGateway,
		output:     p.Output,
		runner:     p.Runner,
		logger:     p.Logger.With("plugin", _nameKey),
		stats:      p.Stats.SubScope("watch"),
		watchers:   make(map[entity.FolderKey]*watcherEntry),
		listeners:  make(map[int]func([]entity.WatchSession)),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: c.Dispose,
	})
	return c
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error) {
	priorities := map[string]brlspplugin.Priority{
		protocol.MethodWorkspaceDidChangeWorkspaceFolders: brlspplugin.PriorityRegular,
		brlspplugin.MethodEndSession:                      brlspplugin.PriorityHigh,
	}

	methods := &brlspplugin.Methods{
		PluginNameKey:             _nameKey,
		DidChangeWorkspaceFolders: c.didChangeWorkspaceFolders,
		EndSession:                c.endSession,
	}

	return brlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) IsWatching(folder entity.WorkspaceFolder) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.watchers[folder.Key()]
	return ok
}

func (c *controller) Start(ctx context.Context, folder entity.WorkspaceFolder, restart bool) error {
	key := folder.Key()
	entry := &watcherEntry{
		folder: folder,
		state:  entity.WatchStateStarting,
		ctx:    context.WithoutCancel(ctx),
	}
	if restart {
		entry.state = entity.WatchStateRestarting
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("watch controller is disposed")
	}
	if _, ok := c.watchers[key]; ok {
		c.mu.Unlock()
		return nil
	}
	// The placeholder keeps concurrent starts for the same folder out while the process spawns.
	c.watchers[key] = entry
	c.order = append(c.order, key)
	c.live.Add(1)
	c.mu.Unlock()

	handle, err := c.runner.RunDart(_watchArgs, process.Options{
		Dir: folder.Path,
		Env: c.sessionEnv(ctx),
	})
	if err != nil {
		c.mu.Lock()
		c.removeLocked(key)
		c.mu.Unlock()
		c.live.Done()

		c.stats.Counter("spawn_failed").Inc(1)
		c.showMessage(entry, protocol.MessageTypeError, fmt.Sprintf(_msgStartFailed, folder.Name, err.Error()))
		return fmt.Errorf("starting watch for %q: %w", folder.Path, err)
	}

	c.mu.Lock()
	entry.handle = handle
	entry.state = entity.WatchStateRunning
	stopRequested := entry.userInitiatedStop
	c.mu.Unlock()

	outputPrefix := fmt.Sprintf(_fmtOutputPrefix, folder.Name)
	errorPrefix := fmt.Sprintf(_fmtErrorPrefix, folder.Name)
	unsubscribe := []func(){
		handle.OnStdout(func(line string) { c.appendOutput(entry, outputPrefix+line) }),
		handle.OnStderr(func(line string) { c.appendOutput(entry, errorPrefix+line) }),
		handle.OnExit(func(status process.ExitStatus) { c.handleExit(entry, status) }),
	}
	c.mu.Lock()
	entry.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.updateGauge()
	c.emitSessions()

	if err := c.output.Show(entry.ctx); err != nil {
		c.logger.Debugf("showing output: %s", err)
	}
	c.appendOutput(entry, outputPrefix+"watch started")
	if restart {
		c.stats.Counter("restarted").Inc(1)
	} else {
		c.stats.Counter("started").Inc(1)
		c.showMessage(entry, protocol.MessageTypeInfo, fmt.Sprintf(_msgStarted, folder.Name))
	}

	// A stop that arrived while the process was spawning is delivered now.
	if stopRequested {
		c.terminate(entry)
	}
	return nil
}

func (c *controller) Stop(ctx context.Context, folder entity.WorkspaceFolder, silent bool) error {
	c.mu.Lock()
	entry, ok := c.watchers[folder.Key()]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	entry.userInitiatedStop = true
	entry.silentStop = silent
	spawned := entry.handle != nil
	c.mu.Unlock()

	if !spawned {
		// Start terminates the process as soon as it has been spawned.
		return nil
	}
	return c.terminate(entry)
}

func (c *controller) StopAll(ctx context.Context) error {
	var errs error
	for _, s := range c.GetActiveSessions() {
		errs = multierr.Append(errs, c.Stop(ctx, s.Folder, true))
	}
	return errs
}

func (c *controller) HandleWorkspaceRemoved(ctx context.Context, folders ...entity.WorkspaceFolder) error {
	var errs error
	for _, folder := range folders {
		errs = multierr.Append(errs, c.Stop(ctx, folder, true))
	}
	return errs
}

func (c *controller) GetActiveSessions() []entity.WatchSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *controller) OnSessionsChanged(listener func([]entity.WatchSession)) (unsubscribe func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *controller) Dispose(ctx context.Context) error {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()

	errs := c.StopAll(ctx)

	done := make(chan struct{})
	go func() {
		c.live.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = multierr.Append(errs, fmt.Errorf("waiting for watch processes to exit: %w", ctx.Err()))
	}

	c.listenersMu.Lock()
	clear(c.listeners)
	c.listenersMu.Unlock()
	return errs
}

// handleExit runs exactly once per spawned process.
func (c *controller) handleExit(entry *watcherEntry, status process.ExitStatus) {
	key := entry.folder.Key()

	c.mu.Lock()
	if current, ok := c.watchers[key]; !ok || current != entry {
		// A newer session owns the folder, or this exit was already handled.
		c.mu.Unlock()
		return
	}
	c.removeLocked(key)
	userInitiated := entry.userInitiatedStop
	silent := entry.silentStop
	disposed := c.disposed
	unsubscribe := entry.unsubscribe
	c.mu.Unlock()

	for _, u := range unsubscribe {
		u()
	}
	entry.handle.Dispose()
	c.live.Done()
	c.updateGauge()
	c.emitSessions()

	folder := entry.folder
	switch {
	case userInitiated || disposed:
		c.stats.Counter("stopped").Inc(1)
		if !silent && !disposed {
			c.showMessage(entry, protocol.MessageTypeInfo, fmt.Sprintf(_msgStopped, folder.Name))
		}
	case IsBenignExit(status):
		c.showMessage(entry, protocol.MessageTypeInfo, fmt.Sprintf(_msgRestarted, folder.Name))
		if err := c.Start(entry.ctx, folder, true); err != nil {
			c.logger.Warnf("restarting watch for %q: %s", folder.Path, err)
		}
	default:
		c.stats.Counter("crashed").Inc(1)
		c.showMessage(entry, protocol.MessageTypeError, fmt.Sprintf(_msgStoppedUnexpect, folder.Name, status.CodeString()))
	}
}

// IsBenignExit reports whether an exit that nobody asked for should restart the watch.
// Exits without a signal, exits by SIGKILL and clean exits are all treated as restart triggers,
// since external recycling of the process cannot be told apart from a normal termination.
func IsBenignExit(status process.ExitStatus) bool {
	return status.Signal == "" || status.Signal == "SIGKILL" || status.Success()
}

func (c *controller) terminate(entry *watcherEntry) error {
	if err := entry.handle.Terminate(os.Interrupt); err != nil {
		c.showMessage(entry, protocol.MessageTypeError, fmt.Sprintf(_msgStopFailed, err.Error()))
		return fmt.Errorf("stopping watch for %q: %w", entry.folder.Path, err)
	}
	return nil
}

func (c *controller) removeLocked(key entity.FolderKey) {
	delete(c.watchers, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *controller) snapshotLocked() []entity.WatchSession {
	result := make([]entity.WatchSession, 0, len(c.order))
	for _, key := range c.order {
		entry := c.watchers[key]
		s := entity.WatchSession{
			Folder: entry.folder,
			State:  entry.state,
		}
		if entry.handle != nil {
			s.PID = entry.handle.PID()
		}
		result = append(result, s)
	}
	return result
}

// emitSessions delivers a snapshot to every listener. Snapshots are taken under emitMu so that listeners observe changes in order.
func (c *controller) emitSessions() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	snapshot := c.GetActiveSessions()

	c.listenersMu.Lock()
	listeners := make([]func([]entity.WatchSession), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenersMu.Unlock()

	for _, l := range listeners {
		c.notifyListener(l, snapshot)
	}
}

func (c *controller) notifyListener(listener func([]entity.WatchSession), snapshot []entity.WatchSession) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("sessions listener panicked: %v", r)
		}
	}()
	listener(append([]entity.WatchSession(nil), snapshot...))
}

func (c *controller) updateGauge() {
	c.mu.Lock()
	count := len(c.watchers)
	c.mu.Unlock()
	c.stats.Gauge("active").Update(float64(count))
}

func (c *controller) appendOutput(entry *watcherEntry, line string) {
	if err := c.output.AppendLine(c.deliveryContext(entry), line); err != nil {
		c.logger.Debugf("writing watch output for %q: %s", entry.folder.Name, err)
	}
}

func (c *controller) showMessage(entry *watcherEntry, messageType protocol.MessageType, message string) {
	if err := c.ideGateway.ShowMessage(c.deliveryContext(entry), &protocol.ShowMessageParams{
		Type:    messageType,
		Message: message,
	}); err != nil {
		c.logger.Warnf("unable to show message %q: %s", message, err)
	}
}

// deliveryContext returns a context for the session that started the watch, or for another session
// that still has the folder open when the original one has disconnected.
func (c *controller) deliveryContext(entry *watcherEntry) context.Context {
	if _, err := c.sessions.GetFromContext(entry.ctx); err == nil {
		return entry.ctx
	}

	others, err := c.sessions.GetAllWithFolder(entry.ctx, entry.folder.Key())
	if err != nil || len(others) == 0 {
		return entry.ctx
	}
	return mapper.SessionUUIDToContext(entry.ctx, others[0].UUID)
}

func (c *controller) sessionEnv(ctx context.Context) []string {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil
	}
	return s.Env
}

// didChangeWorkspaceFolders stops watches for removed folders that no other session still has open.
func (c *controller) didChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	removed, _ := mapper.WorkspaceFoldersToEntities(params.Event.Removed)
	if len(removed) == 0 {
		return nil
	}

	var current uuid.UUID
	if s, err := c.sessions.GetFromContext(ctx); err == nil {
		current = s.UUID
	}
	return c.HandleWorkspaceRemoved(ctx, c.unshared(ctx, current, removed)...)
}

// endSession stops watches for folders that only the ending session had open.
func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.HandleWorkspaceRemoved(ctx, c.unshared(ctx, id, s.WorkspaceFolders)...)
}

func (c *controller) unshared(ctx context.Context, owner uuid.UUID, folders []entity.WorkspaceFolder) []entity.WorkspaceFolder {
	result := []entity.WorkspaceFolder{}
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
		if !shared {
			result = append(result, folder)
		}
	}
	return result
}
