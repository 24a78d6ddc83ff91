package executor

import (
	"bytes"
	"io"
	"os/exec"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Provide(func(logger *zap.SugaredLogger) Executor {
		return NewExecutor(WithLogger(logger.With("component", "executor")))
	}),
)

// Executor wraps the execution of "os/exec".Cmd's to allow adding logs/metrics to
// each exec and makes it easier to test.
type Executor interface {
	// Run - logs and executes the Cmd specified overriding its Stdout/Stderr to return their content
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
	// Start - logs and starts the Cmd specified without waiting for it to complete
	Start(cmd *exec.Cmd) error
}

// executorImp implements Executor
type executorImp struct {
	Logger *zap.SugaredLogger
	// ExecFunc may be nil to use executorImp in tests.
	ExecFunc func(e *exec.Cmd) error
	// StartFunc may be nil to use executorImp in tests.
	StartFunc func(e *exec.Cmd) error
}

// Option defines options to customize executorImp's behavior
type Option func(*executorImp)

// WithLogger overrides the default noop logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImp) {
		executor.Logger = logger
	}
}

// WithExecFunc provides customized exec behavior for executorImp
func WithExecFunc(execFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.ExecFunc = execFunc
	}
}

// WithStartFunc provides customized start behavior for executorImp
func WithStartFunc(startFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.StartFunc = startFunc
	}
}

// NewExecutor - creates a new executorImp with a noop logger and default exec and start functions
func NewExecutor(opts ...Option) Executor {
	executor := &executorImp{
		Logger:    zap.NewNop().Sugar(),
		ExecFunc:  func(cmd *exec.Cmd) error { return cmd.Run() },
		StartFunc: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Run - logs the Path/Args and calls ExecFunc if it is set.
func (l *executorImp) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	if err := l.logCommand(cmd); err != nil {
		return "", "", -1, err
	}

	if l.ExecFunc == nil {
		l.Logger.Warn("missing ExecFunc - skipped execution")
		return "", "", 0, nil
	}

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.ExecFunc(cmd)

	return stdoutB.String(), stderrB.String(), cmd.ProcessState.ExitCode(), err
}

// Start - logs the Path/Args and calls StartFunc if it is set.
// The caller owns the started process and is responsible for waiting on it.
func (l *executorImp) Start(cmd *exec.Cmd) error {
	if err := l.logCommand(cmd); err != nil {
		return err
	}

	if l.StartFunc == nil {
		l.Logger.Warn("missing StartFunc - skipped execution")
		return nil
	}

	if err := l.StartFunc(cmd); err != nil {
		return err
	}
	if cmd.Process != nil {
		l.Logger.Infow("Started", "Path", cmd.Path, "Pid", cmd.Process.Pid)
	}
	return nil
}

// Logs the command specified: Path, Dir, Args, Stdin (if available)
func (l *executorImp) logCommand(cmd *exec.Cmd) error {
	logKeysAndValues := []interface{}{
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", cmd.Args[1:], // First arg is always the command itself
	}

	if cmd.Stdin != nil {
		stdinBytes, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return err
		}
		logKeysAndValues = append(logKeysAndValues, "Stdin", string(stdinBytes))
		cmd.Stdin = bytes.NewReader(stdinBytes)
	}

	l.Logger.Infow("Exec", logKeysAndValues...)
	return nil
}
