//go:build !windows
// +build !windows

package process

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const _exitTimeout = 4 * time.Second

func shellRunner(t *testing.T) Runner {
	t.Helper()
	r, err := newRunner(t, map[string]interface{}{
		"buildRunner": map[string]interface{}{"dartExecutable": "sh"},
	}, executor.NewExecutor())
	require.NoError(t, err)
	return r
}

func awaitExit(t *testing.T, h Handle) ExitStatus {
	t.Helper()
	ch := make(chan ExitStatus, 1)
	h.OnExit(func(status ExitStatus) { ch <- status })
	select {
	case status := <-ch:
		return status
	case <-time.After(_exitTimeout):
		t.Fatal("process did not exit")
		return ExitStatus{}
	}
}

func TestRunDartOutputAndExit(t *testing.T) {
	h, err := shellRunner(t).RunDart([]string{"-c", "echo building; echo failed 1>&2; exit 3"}, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Greater(t, h.PID(), 0)

	var mu sync.Mutex
	var stdout, stderr []string
	h.OnStdout(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		stdout = append(stdout, line)
	})
	h.OnStderr(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		stderr = append(stderr, line)
	})

	status := awaitExit(t, h)
	require.NotNil(t, status.Code)
	assert.Equal(t, 3, *status.Code)
	assert.Empty(t, status.Signal)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"building"}, stdout)
	assert.Equal(t, []string{"failed"}, stderr)
}

func TestRunDartEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	h, err := shellRunner(t).RunDart([]string{"-c", "echo $BRLSP_TEST_VALUE; pwd"}, Options{Dir: dir, Env: []string{"BRLSP_TEST_VALUE=from-env"}})
	require.NoError(t, err)

	assert.True(t, awaitExit(t, h).Success())

	var lines []string
	h.OnStdout(func(line string) { lines = append(lines, line) })
	require.Len(t, lines, 2)
	assert.Equal(t, "from-env", lines[0])
	assert.NotEmpty(t, lines[1])
}

func TestTerminateSignalsProcessTree(t *testing.T) {
	h, err := shellRunner(t).RunDart([]string{"-c", "sleep 5 & wait"}, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	ch := make(chan ExitStatus, 1)
	h.OnExit(func(status ExitStatus) { ch <- status })

	// Give the shell time to fork its child.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, h.Terminate(syscall.SIGTERM))

	select {
	case status := <-ch:
		assert.Nil(t, status.Code)
		assert.Equal(t, "SIGTERM", status.Signal)
	case <-time.After(_waitDelay + _exitTimeout):
		t.Fatal("process tree was not terminated")
	}

	assert.NoError(t, h.Terminate(syscall.SIGTERM), "terminating an exited process is not an error")
	h.Dispose()
}

func TestOnExitAfterExitReplays(t *testing.T) {
	h, err := shellRunner(t).RunDart([]string{"-c", "exit 0"}, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	first := awaitExit(t, h)
	second := awaitExit(t, h)
	assert.Equal(t, first, second)
	assert.True(t, second.Success())
}

func TestTerminateTreeMissingProcess(t *testing.T) {
	h, err := shellRunner(t).RunDart([]string{"-c", "exit 0"}, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	pid := h.PID()
	awaitExit(t, h)

	assert.NoError(t, terminateTree(pid, syscall.SIGINT))
}
