package process

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Lines written before anyone subscribes to a stream are kept up to this limit and replayed to the first subscriber.
const _maxPendingLines = 512

type lineStream struct {
	subs    map[int]func(string)
	pending []string
}

type handle struct {
	cmd    *exec.Cmd
	logger *zap.SugaredLogger
	pid    int

	stdoutWriter *lineWriter
	stderrWriter *lineWriter

	mu            sync.Mutex
	nextID        int
	stdout        lineStream
	stderr        lineStream
	exitSubs      map[int]func(ExitStatus)
	exited        bool
	status        ExitStatus
	disposed      bool
	terminateTree func(pid int, sig os.Signal) error
}

func newHandle(cmd *exec.Cmd, logger *zap.SugaredLogger) *handle {
	h := &handle{
		cmd:           cmd,
		logger:        logger,
		stdout:        lineStream{subs: make(map[int]func(string))},
		stderr:        lineStream{subs: make(map[int]func(string))},
		exitSubs:      make(map[int]func(ExitStatus)),
		terminateTree: terminateTree,
	}
	h.stdoutWriter = &lineWriter{emit: func(line string) { h.emitLine(&h.stdout, line) }}
	h.stderrWriter = &lineWriter{emit: func(line string) { h.emitLine(&h.stderr, line) }}
	cmd.Stdout = h.stdoutWriter
	cmd.Stderr = h.stderrWriter
	cmd.WaitDelay = _waitDelay
	return h
}

func (h *handle) PID() int {
	return h.pid
}

func (h *handle) OnStdout(listener func(line string)) func() {
	return h.subscribeLines(&h.stdout, listener)
}

func (h *handle) OnStderr(listener func(line string)) func() {
	return h.subscribeLines(&h.stderr, listener)
}

func (h *handle) OnExit(listener func(ExitStatus)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return func() {}
	}
	if h.exited {
		go h.notifyExit(listener, h.status)
		return func() {}
	}

	id := h.nextID
	h.nextID++
	h.exitSubs[id] = listener
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.exitSubs, id)
	}
}

func (h *handle) Terminate(sig os.Signal) error {
	h.mu.Lock()
	exited := h.exited
	h.mu.Unlock()

	if exited || h.pid == 0 {
		return nil
	}
	return h.terminateTree(h.pid, sig)
}

func (h *handle) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return
	}
	h.disposed = true
	clear(h.stdout.subs)
	clear(h.stderr.subs)
	h.stdout.pending = nil
	h.stderr.pending = nil
	clear(h.exitSubs)
}

func (h *handle) subscribeLines(s *lineStream, listener func(string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return func() {}
	}
	id := h.nextID
	h.nextID++
	s.subs[id] = listener

	// Replay under the lock so that newer lines cannot overtake buffered ones.
	pending := s.pending
	s.pending = nil
	for _, line := range pending {
		h.notifyLine(listener, line)
	}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(s.subs, id)
	}
}

func (h *handle) emitLine(s *lineStream, line string) {
	h.mu.Lock()
	if len(s.subs) == 0 {
		if !h.disposed && len(s.pending) < _maxPendingLines {
			s.pending = append(s.pending, line)
		}
		h.mu.Unlock()
		return
	}
	listeners := make([]func(string), 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		h.notifyLine(l, line)
	}
}

func (h *handle) notifyLine(listener func(string), line string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorf("output listener for process %d panicked: %v", h.pid, r)
		}
	}()
	listener(line)
}

// wait blocks until the process exits, then delivers the exit status once.
func (h *handle) wait() {
	err := h.cmd.Wait()
	h.stdoutWriter.Flush()
	h.stderrWriter.Flush()

	status := exitStatusFromState(h.cmd.ProcessState)
	if err != nil && h.cmd.ProcessState == nil {
		h.logger.Warnf("waiting for process %d: %v", h.pid, err)
	}

	h.mu.Lock()
	h.exited = true
	h.status = status
	listeners := make([]func(ExitStatus), 0, len(h.exitSubs))
	for _, l := range h.exitSubs {
		listeners = append(listeners, l)
	}
	clear(h.exitSubs)
	h.mu.Unlock()

	for _, l := range listeners {
		h.notifyExit(l, status)
	}
}

func (h *handle) notifyExit(listener func(ExitStatus), status ExitStatus) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorf("exit listener for process %d panicked: %v", h.pid, r)
		}
	}()
	listener(status)
}

// lineWriter splits written output into lines, holding back an unterminated tail until more data or Flush.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(line string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		w.emit(line)
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(strings.TrimSuffix(string(w.buf), "\r"))
		w.buf = nil
	}
}
