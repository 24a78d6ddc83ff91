// Package outputchannel writes build_runner output to the output panel of the IDE session in the context.
package outputchannel

import (
	"context"
	"fmt"
	"io"

	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/logfilewriter"
	"github.com/dart-tools/brlsp/src/brlsp/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// MethodClear asks the client to empty its build_runner output panel.
	MethodClear = "buildRunner/output/clear"
	// MethodShow asks the client to reveal its build_runner output panel without taking focus.
	MethodShow = "buildRunner/output/show"

	_outputName = "brlsp-build-runner"
)

// Module provides the output channel.
var Module = fx.Provide(New)

// Channel is the build_runner output panel of an IDE session.
// Every line is also mirrored into a file shared by all sessions, whose path is published in the server info file.
type Channel interface {
	Clear(ctx context.Context) error
	Show(ctx context.Context) error
	Append(ctx context.Context, text string) error
	AppendLine(ctx context.Context, line string) error
}

// Params are inbound parameters to initialize a new Channel.
type Params struct {
	fx.In

	IdeGateway     ideclient.Gateway
	Lifecycle      fx.Lifecycle
	FS             fs.BrlspFS
	ServerInfoFile serverinfofile.ServerInfoFile
	Logger         *zap.SugaredLogger
}

type channel struct {
	ideGateway ideclient.Gateway
	mirror     io.Writer
	logger     *zap.SugaredLogger
}

// New creates a Channel.
func New(p Params) (Channel, error) {
	mirror, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
		FS:             p.FS,
		Lifecycle:      p.Lifecycle,
		ServerInfoFile: p.ServerInfoFile,
	}, _outputName)
	if err != nil {
		return nil, fmt.Errorf("setting up output file: %w", err)
	}

	return &channel{
		ideGateway: p.IdeGateway,
		mirror:     mirror,
		logger:     p.Logger,
	}, nil
}

func (c *channel) Clear(ctx context.Context) error {
	return c.ideGateway.Notify(ctx, MethodClear, nil)
}

func (c *channel) Show(ctx context.Context) error {
	return c.ideGateway.Notify(ctx, MethodShow, nil)
}

// Append sends text as is. Clients render each log message on its own line.
func (c *channel) Append(ctx context.Context, text string) error {
	c.writeMirror(text)
	return c.send(ctx, text)
}

func (c *channel) AppendLine(ctx context.Context, line string) error {
	c.writeMirror(line + "\n")
	return c.send(ctx, line)
}

func (c *channel) send(ctx context.Context, message string) error {
	w, err := c.ideGateway.GetLogMessageWriter(ctx, "")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, message)
	return err
}

func (c *channel) writeMirror(text string) {
	if _, err := io.WriteString(c.mirror, text); err != nil {
		c.logger.Warnf("writing build_runner output file: %s", err)
	}
}
