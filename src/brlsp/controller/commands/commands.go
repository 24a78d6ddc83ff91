// Package commands implements the build_runner commands offered through workspace/executeCommand.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	docsync "github.com/dart-tools/brlsp/src/brlsp/controller/doc-sync"
	fluttersdk "github.com/dart-tools/brlsp/src/brlsp/controller/flutter-sdk"
	"github.com/dart-tools/brlsp/src/brlsp/controller/watch"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	folderpicker "github.com/dart-tools/brlsp/src/brlsp/gateway/folder-picker"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	outputchannel "github.com/dart-tools/brlsp/src/brlsp/gateway/output-channel"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec"
	workspaceutils "github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const _nameKey = "commands"

// Command names registered with the IDE.
const (
	CommandToggleWatch   = "buildRunner.toggleWatch"
	CommandWatchStart    = "buildRunner.watch.start"
	CommandWatchStop     = "buildRunner.watch.stop"
	CommandBuildSelected = "buildRunner.buildSelected"
	CommandClean         = "buildRunner.clean"
)

// Params defines the dependencies that will be available to this controller.
type Params struct {
	fx.In

	Lifecycle      fx.Lifecycle
	Sessions       session.Repository
	IdeGateway     ideclient.Gateway
	Documents      docsync.Controller
	Watch          watch.Controller
	FlutterSDK     fluttersdk.Controller
	Picker         folderpicker.Picker
	Detector       pubspec.Detector
	WorkspaceUtils workspaceutils.WorkspaceUtils
	Output         outputchannel.Channel
	Runner         process.Runner
	FS             fs.BrlspFS
	Logger         *zap.SugaredLogger
	Stats          tally.Scope
}

// Controller defines the methods that this controller provides.
type Controller interface {
	StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error)
}

// commandFunc runs one command. A non-nil result is returned to the IDE as the command's reply.
type commandFunc func(ctx context.Context, args []json.RawMessage) (interface{}, error)

type controller struct {
	sessions       session.Repository
	ideGateway     ideclient.Gateway
	documents      docsync.Controller
	watch          watch.Controller
	flutterSDK     fluttersdk.Controller
	picker         folderpicker.Picker
	detector       pubspec.Detector
	workspaceUtils workspaceutils.WorkspaceUtils
	output         outputchannel.Channel
	runner         process.Runner
	fs             fs.BrlspFS
	logger         *zap.SugaredLogger
	stats          tally.Scope

	commands map[string]commandFunc
	pending  *pendingRunStore
	// runs counts one-shot processes whose exit has not been handled yet.
	runs sync.WaitGroup
}

// New creates a new controller for build_runner commands.
func New(p Params) Controller {
	c := &controller{
		sessions:       p.Sessions,
		ideGateway:     p.IdeGateway,
		documents:      p.Documents,
		watch:          p.Watch,
		flutterSDK:     p.FlutterSDK,
		picker:         p.Picker,
		detector:       p.Detector,
		workspaceUtils: p.WorkspaceUtils,
		output:         p.Output,
		runner:         p.Runner,
		fs:             p.FS,
		logger:         p.Logger.With("plugin", _nameKey),
		stats:          p.Stats,
		pending:        newPendingRunStore(),
	}

	c.commands = map[string]commandFunc{
		CommandToggleWatch:   c.toggleWatch,
		CommandWatchStart:    c.startWatch,
		CommandWatchStop:     c.stopWatch,
		CommandBuildSelected: c.buildSelected,
		CommandClean:         c.clean,
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: c.stop,
	})
	return c
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error) {
	// Commands wait on the client (progress, prompts, configuration), so they must not hold the connection's reader.
	priorities := map[string]brlspplugin.Priority{
		protocol.MethodInitialize:              brlspplugin.PriorityRegular,
		protocol.MethodWorkspaceExecuteCommand: brlspplugin.PriorityAsync,
		protocol.MethodWorkDoneProgressCancel:  brlspplugin.PriorityRegular,
		brlspplugin.MethodEndSession:           brlspplugin.PriorityRegular,
	}

	methods := &brlspplugin.Methods{
		PluginNameKey: _nameKey,

		Initialize:             c.initialize,
		ExecuteCommand:         c.executeCommand,
		WorkDoneProgressCancel: c.workDoneProgressCancel,
		EndSession:             c.endSession,
	}

	return brlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	commands := []string{
		CommandToggleWatch,
		CommandWatchStart,
		CommandWatchStop,
		CommandBuildSelected,
		CommandClean,
	}
	if err := mapper.InitializeResultAppendExecuteCommandProvider(result, &protocol.ExecuteCommandOptions{Commands: commands}); err != nil {
		return fmt.Errorf("failed to append ExecuteCommandProvider: %w", err)
	}
	return nil
}

func (c *controller) executeCommand(ctx context.Context, params *protocol.ExecuteCommandParams, result *interface{}) error {
	run, ok := c.commands[params.Command]
	if !ok {
		return nil
	}

	value, err := run(ctx, argumentsToRaw(params.Arguments))
	if err != nil {
		return c.reportCommandError(ctx, params.Command, err)
	}
	if value != nil {
		*result = value
	}
	return nil
}

// reportCommandError shows precondition failures to the user. Dismissed prompts end the command quietly.
func (c *controller) reportCommandError(ctx context.Context, command string, err error) error {
	if errors.Is(err, brlsperrors.SelectionCancelledError) {
		return nil
	}

	if brlsperrors.IsPrecondition(err) {
		c.showError(ctx, err.Error())
		return nil
	}

	c.logger.Errorf("running %q: %s", command, err)
	return fmt.Errorf("running %q: %w", command, err)
}

func (c *controller) workDoneProgressCancel(ctx context.Context, params *protocol.WorkDoneProgressCancelParams) error {
	c.logger.Infof("Received cancel request for token: %s", params.Token)
	return c.cancelRun(params.Token)
}

func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	var errs error
	for _, token := range c.pending.SessionTokens(id) {
		errs = multierr.Append(errs, c.cancelRun(token))
	}
	return errs
}

// stop interrupts every one-shot run and waits for their exit handling to finish.
func (c *controller) stop(ctx context.Context) error {
	var errs error
	for _, token := range c.pending.Tokens() {
		errs = multierr.Append(errs, c.cancelRun(token))
	}

	done := make(chan struct{})
	go func() {
		c.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = multierr.Append(errs, fmt.Errorf("waiting for build_runner runs to exit: %w", ctx.Err()))
	}
	return errs
}

func (c *controller) cancelRun(token protocol.ProgressToken) error {
	handle := c.pending.Get(token)
	if handle == nil {
		c.logger.Infof("no pending run found for token: %s", token)
		return nil
	}
	if err := handle.Terminate(os.Interrupt); err != nil {
		return fmt.Errorf("cancelling run %s: %w", token, err)
	}
	return nil
}

func (c *controller) showInfo(ctx context.Context, message string) {
	c.showMessage(ctx, protocol.MessageTypeInfo, message)
}

func (c *controller) showError(ctx context.Context, message string) {
	c.showMessage(ctx, protocol.MessageTypeError, message)
}

func (c *controller) showMessage(ctx context.Context, messageType protocol.MessageType, message string) {
	if err := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
		Type:    messageType,
		Message: message,
	}); err != nil {
		c.logger.Warnf("unable to show message %q: %s", message, err)
	}
}

// appendLines writes each line to the output channel, stopping at the first failure.
func (c *controller) appendLines(ctx context.Context, lines ...string) error {
	for _, line := range lines {
		if err := c.output.AppendLine(ctx, line); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

// resetOutput clears the output channel and brings it to the front.
func (c *controller) resetOutput(ctx context.Context) error {
	if err := c.output.Clear(ctx); err != nil {
		return fmt.Errorf("clearing output: %w", err)
	}
	if err := c.output.Show(ctx); err != nil {
		return fmt.Errorf("showing output: %w", err)
	}
	return nil
}
