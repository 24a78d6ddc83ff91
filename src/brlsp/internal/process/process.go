// Package process runs the dart tool as child processes and supervises their output and exit.
package process

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/internal/executor"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyDartExecutable = "buildRunner.dartExecutable"
	_defaultDartExecutable   = "dart"
	_waitDelay               = 5 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// ExitStatus is the raw outcome of a process exit.
// Code is nil when the process was terminated by a signal, or never reported a status.
type ExitStatus struct {
	Code   *int
	Signal string
}

// CodeString formats the exit code for messages, using "unknown" when there is none.
func (s ExitStatus) CodeString() string {
	if s.Code == nil {
		return "unknown"
	}
	return strconv.Itoa(*s.Code)
}

// Success reports whether the process exited normally with code 0.
func (s ExitStatus) Success() bool {
	return s.Code != nil && *s.Code == 0
}

// Handle is one spawned process, owned by the component that started it.
type Handle interface {
	// PID returns the operating system process id.
	PID() int
	// OnStdout registers a listener for each line written to stdout. The returned func unsubscribes it.
	OnStdout(listener func(line string)) func()
	// OnStderr registers a listener for each line written to stderr. The returned func unsubscribes it.
	OnStderr(listener func(line string)) func()
	// OnExit registers a listener that fires exactly once when the process exits.
	// Listeners registered after the exit receive the recorded status asynchronously.
	OnExit(listener func(ExitStatus)) func()
	// Terminate delivers sig to the process and its descendants. A process that is already gone is not an error.
	Terminate(sig os.Signal) error
	// Dispose releases every listener. It is safe to call more than once.
	Dispose()
}

// Options configure a spawned process.
type Options struct {
	Dir string
	Env []string
}

// Runner spawns dart tool processes.
type Runner interface {
	RunDart(args []string, opts Options) (Handle, error)
}

// Params are inbound parameters to initialize a Runner.
type Params struct {
	fx.In

	Config   config.Provider
	Executor executor.Executor
	Logger   *zap.SugaredLogger
}

type runner struct {
	executor       executor.Executor
	logger         *zap.SugaredLogger
	dartExecutable string
	goos           string
}

// New creates a Runner that launches the configured dart executable.
func New(p Params) (Runner, error) {
	r := &runner{
		executor: p.Executor,
		logger:   p.Logger.With("component", "process"),
		goos:     runtime.GOOS,
	}
	if err := p.Config.Get(_configKeyDartExecutable).Populate(&r.dartExecutable); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyDartExecutable, err)
	}
	if r.dartExecutable == "" {
		r.dartExecutable = _defaultDartExecutable
	}
	return r, nil
}

// RunDart starts the dart executable with the given arguments.
// On Windows the command is run through cmd /c so that dart.bat shims resolve.
func (r *runner) RunDart(args []string, opts Options) (Handle, error) {
	name, cmdArgs := ShellCommand(r.goos, r.dartExecutable, args)
	cmd := exec.Command(name, cmdArgs...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}

	h := newHandle(cmd, r.logger)
	if err := r.executor.Start(cmd); err != nil {
		return nil, err
	}
	if cmd.Process == nil {
		return nil, fmt.Errorf("process for %q was not started", name)
	}

	h.pid = cmd.Process.Pid
	go h.wait()
	return h, nil
}

// ShellCommand returns the program and arguments used to run executable on the given platform.
func ShellCommand(goos string, executable string, args []string) (string, []string) {
	if goos == "windows" {
		return "cmd", append([]string{"/c", executable}, args...)
	}
	return executable, append([]string{}, args...)
}

// exitStatusFromState converts a finished process state into an ExitStatus.
func exitStatusFromState(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{}
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Signal: SignalName(ws.Signal())}
	}

	code := state.ExitCode()
	if code < 0 {
		return ExitStatus{}
	}
	return ExitStatus{Code: &code}
}

var _signalNames = map[syscall.Signal]string{
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGINT:  "SIGINT",
	syscall.SIGQUIT: "SIGQUIT",
	syscall.SIGABRT: "SIGABRT",
	syscall.SIGKILL: "SIGKILL",
	syscall.SIGSEGV: "SIGSEGV",
	syscall.SIGPIPE: "SIGPIPE",
	syscall.SIGTERM: "SIGTERM",
}

// SignalName returns the conventional name of a signal, such as SIGINT.
func SignalName(sig syscall.Signal) string {
	if name, ok := _signalNames[sig]; ok {
		return name
	}
	return fmt.Sprintf("SIG%d", int(sig))
}
