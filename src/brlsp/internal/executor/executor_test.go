package executor

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Instantiates the new Executor through fx provider
func fxExecutor(t *testing.T) (Executor, *observer.ObservedLogs) {
	var e Executor
	core, recorded := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	fxtest.New(t,
		fx.Supply(logger),
		Module,
		fx.Populate(&e),
	).RequireStart().RequireStop()

	return e, recorded
}

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires posix tools")
	}
}

func TestRun(t *testing.T) {
	skipOnWindows(t)
	tempDir := t.TempDir()
	e, recorded := fxExecutor(t)

	t.Run("touch", func(t *testing.T) {
		cmd := exec.Command("touch", "pubspec.yaml")
		cmd.Dir = tempDir
		cmd.Env = os.Environ()
		stdOut, stdErr, exitCode, err := e.Run(cmd)

		assert.Equal(t, "", stdOut)
		assert.Empty(t, stdErr)
		assert.Equal(t, 0, exitCode)
		assert.NoError(t, err)
	})

	t.Run("ls", func(t *testing.T) {
		cmd := exec.Command("ls")
		cmd.Dir = tempDir
		cmd.Env = os.Environ()
		stdOut, stdErr, exitCode, err := e.Run(cmd)

		assert.Equal(t, "pubspec.yaml\n", stdOut)
		assert.Empty(t, stdErr)
		assert.Equal(t, 0, exitCode)
		assert.NoError(t, err)
	})

	t.Run("logs command", func(t *testing.T) {
		recorded.TakeAll()
		binPath, err := exec.LookPath("true")
		if errors.Is(err, exec.ErrNotFound) {
			t.Skip("no true available")
		}
		require.NoError(t, err)

		cmd := exec.Command("true", "1", "2")
		cmd.Dir = "/"
		cmd.Stdin = strings.NewReader("SomeInput")
		_, _, _, err = e.Run(cmd)
		assert.NoError(t, err)

		logs := recorded.FilterMessage("Exec").TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, map[string]interface{}{
			"component": "executor",
			"Path":      binPath,
			"Dir":       "/",
			"Args":      []interface{}{"1", "2"},
			"Stdin":     "SomeInput",
		}, logs[0].ContextMap())
	})
}

func TestRunFails(t *testing.T) {
	skipOnWindows(t)
	tempDir := t.TempDir()
	e, _ := fxExecutor(t)

	t.Run("rm dir", func(t *testing.T) {
		cmd := exec.Command("rm", tempDir)
		cmd.Dir = tempDir
		cmd.Env = os.Environ()
		stdOut, stdErr, exitCode, err := e.Run(cmd)

		assert.Empty(t, stdOut)
		assert.Contains(t, strings.ToLower(stdErr), "is a directory")
		assert.Equal(t, 1, exitCode)
		assert.Error(t, err)
		assert.Equal(t, "exit status 1", err.Error())
	})

	t.Run("Unknown Command", func(t *testing.T) {
		cmd := exec.Command("no_valid_command_")
		cmd.Dir = tempDir
		cmd.Env = os.Environ()
		stdOut, stdErr, exitCode, err := e.Run(cmd)

		assert.Empty(t, stdOut)
		assert.Empty(t, stdErr)
		assert.Equal(t, -1, exitCode)
		assert.Error(t, err)
	})
}

func TestStart(t *testing.T) {
	skipOnWindows(t)

	t.Run("success", func(t *testing.T) {
		e, recorded := fxExecutor(t)
		cmd := exec.Command("sh", "-c", "exit 3")
		require.NoError(t, e.Start(cmd))
		require.NotNil(t, cmd.Process)

		err := cmd.Wait()
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.ExitCode())

		assert.Equal(t, 1, recorded.FilterMessage("Exec").Len())
		started := recorded.FilterMessage("Started").TakeAll()
		require.Len(t, started, 1)
		assert.Equal(t, int64(cmd.Process.Pid), started[0].ContextMap()["Pid"])
	})

	t.Run("start failure", func(t *testing.T) {
		e, recorded := fxExecutor(t)
		cmd := exec.Command("no_valid_command_")
		assert.Error(t, e.Start(cmd))
		assert.Equal(t, 0, recorded.FilterMessage("Started").Len())
	})

	t.Run("custom start func", func(t *testing.T) {
		var started *exec.Cmd
		e := NewExecutor(WithStartFunc(func(cmd *exec.Cmd) error {
			started = cmd
			return nil
		}))
		cmd := exec.Command("dart", "run", "build_runner", "watch")
		cmd.Dir = filepath.Join(t.TempDir(), "app")
		assert.NoError(t, e.Start(cmd))
		assert.Equal(t, cmd, started)
	})

	t.Run("missing start func", func(t *testing.T) {
		e := NewExecutor(WithStartFunc(nil))
		assert.NoError(t, e.Start(exec.Command("dart")))
	})
}
