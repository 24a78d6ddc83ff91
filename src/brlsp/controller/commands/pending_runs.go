package commands

import (
	"sync"

	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

type runIdentifier struct {
	session uuid.UUID
	command string
	// argsKey tells apart runs of the same command, such as builds of different files.
	argsKey string
}

type pendingRun struct {
	id     runIdentifier
	handle process.Handle
}

// pendingRunStore tracks one-shot build_runner processes by the progress token reported to the IDE.
type pendingRunStore struct {
	mu   sync.Mutex
	runs map[protocol.ProgressToken]*pendingRun
}

func newPendingRunStore() *pendingRunStore {
	return &pendingRunStore{
		runs: make(map[protocol.ProgressToken]*pendingRun),
	}
}

// Reserve claims a slot for the command and returns the token that identifies it.
// It returns false when the same command is already pending with the same arguments.
func (s *pendingRunStore) Reserve(sessionUUID uuid.UUID, command string, argsKey string) (protocol.ProgressToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newRunIdentifier(sessionUUID, command, argsKey)
	for _, r := range s.runs {
		if r.id == id {
			return protocol.ProgressToken{}, false
		}
	}

	token := *protocol.NewProgressToken(uuid.Must(uuid.NewV4()).String())
	s.runs[token] = &pendingRun{id: id}
	return token, true
}

// Attach records the process started for a reserved token.
func (s *pendingRunStore) Attach(token protocol.ProgressToken, handle process.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[token]; ok {
		r.handle = handle
	}
}

// Delete removes the run for token, if there is one.
func (s *pendingRunStore) Delete(token protocol.ProgressToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, token)
}

// Get returns the process for token, or nil while the run has not started.
func (s *pendingRunStore) Get(token protocol.ProgressToken) process.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[token]; ok {
		return r.handle
	}
	return nil
}

// SessionTokens returns the tokens of all runs started by the session.
func (s *pendingRunStore) SessionTokens(sessionUUID uuid.UUID) []protocol.ProgressToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]protocol.ProgressToken, 0)
	for token, r := range s.runs {
		if r.id.session == sessionUUID {
			result = append(result, token)
		}
	}
	return result
}

// Tokens returns the tokens of all runs.
func (s *pendingRunStore) Tokens() []protocol.ProgressToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]protocol.ProgressToken, 0, len(s.runs))
	for token := range s.runs {
		result = append(result, token)
	}
	return result
}

func newRunIdentifier(sessionUUID uuid.UUID, command string, argsKey string) runIdentifier {
	return runIdentifier{
		session: sessionUUID,
		command: command,
		argsKey: argsKey,
	}
}
