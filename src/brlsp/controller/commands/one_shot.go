package commands

import (
	"context"
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
)

// oneShotRun describes a build_runner invocation that runs to completion.
type oneShotRun struct {
	folder entity.WorkspaceFolder
	args   []string

	title        string
	message      string
	outputPrefix string
	errorPrefix  string

	// successMessage is shown on exit code 0, failureFormat otherwise with the exit code.
	successMessage string
	failureFormat  string
	stats          tally.Scope
}

// runOneShot spawns the process for a token reserved in the pending store and returns once
// it is running. Output and the final message are delivered to the session as the process progresses.
// The reservation is released when the process exits, or right away when it cannot be started.
func (c *controller) runOneShot(ctx context.Context, s *entity.Session, token protocol.ProgressToken, r oneShotRun) error {
	handle, err := c.runner.RunDart(r.args, process.Options{
		Dir: r.folder.Path,
		Env: s.Env,
	})
	if err != nil {
		c.pending.Delete(token)
		return err
	}
	r.stats.Counter("runs").Inc(1)

	// The request context ends with the executeCommand call, the process does not.
	runCtx := context.WithoutCancel(ctx)
	c.pending.Attach(token, handle)
	c.beginProgress(runCtx, token, r.title, r.message)

	unsubscribe := []func(){
		handle.OnStdout(func(line string) { c.appendRunOutput(runCtx, r.outputPrefix+line) }),
		handle.OnStderr(func(line string) { c.appendRunOutput(runCtx, r.errorPrefix+line) }),
	}

	c.runs.Add(1)
	handle.OnExit(func(status process.ExitStatus) {
		defer c.runs.Done()

		for _, u := range unsubscribe {
			u()
		}
		handle.Dispose()
		c.pending.Delete(token)
		c.endProgress(runCtx, token)

		if status.Success() {
			r.stats.Counter("succeeded").Inc(1)
			c.showInfo(runCtx, r.successMessage)
			return
		}
		r.stats.Counter("failed").Inc(1)
		c.showError(runCtx, fmt.Sprintf(r.failureFormat, status.CodeString()))
	})
	return nil
}

func (c *controller) appendRunOutput(ctx context.Context, line string) {
	if err := c.output.AppendLine(ctx, line); err != nil {
		c.logger.Debugf("writing run output: %s", err)
	}
}

func (c *controller) beginProgress(ctx context.Context, token protocol.ProgressToken, title string, message string) {
	if err := c.ideGateway.WorkDoneProgressCreate(ctx, &protocol.WorkDoneProgressCreateParams{Token: token}); err != nil {
		c.logger.Debugf("creating progress %s: %s", token, err)
		return
	}
	if err := c.ideGateway.Progress(ctx, &protocol.ProgressParams{
		Token: token,
		Value: protocol.WorkDoneProgressBegin{
			Kind:        protocol.WorkDoneProgressKindBegin,
			Title:       title,
			Message:     message,
			Cancellable: true,
		},
	}); err != nil {
		c.logger.Debugf("starting progress %s: %s", token, err)
	}
}

func (c *controller) endProgress(ctx context.Context, token protocol.ProgressToken) {
	if err := c.ideGateway.Progress(ctx, &protocol.ProgressParams{
		Token: token,
		Value: protocol.WorkDoneProgressEnd{
			Kind: protocol.WorkDoneProgressKindEnd,
		},
	}); err != nil {
		c.logger.Debugf("ending progress %s: %s", token, err)
	}
}
