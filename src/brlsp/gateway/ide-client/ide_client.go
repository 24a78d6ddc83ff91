// Package ideclient routes outbound notifications and calls to connected IDE sessions.
package ideclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_promptReminderAfter = time.Second * 5
	_promptGiveUpAfter   = time.Minute * 2

	_promptProgressTitle    = "User Input Needed"
	_promptProgressMessage  = "Please make a selection from the prompt."
	_promptProgressReminder = "Waiting for a selection. Click here to expand notifications if you don't see a prompt."
)

// Module provides the IDE gateway.
var Module = fx.Provide(New)

// Gateway sends notifications and calls to the IDE session whose UUID is stored in the context.
type Gateway interface {
	// RegisterClient makes conn reachable for contexts carrying id. Called once per initialized connection.
	RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error
	// DeregisterClient forgets the connection of id. Called when the connection closes.
	DeregisterClient(ctx context.Context, id uuid.UUID) error

	Progress(ctx context.Context, params *protocol.ProgressParams) (err error)
	WorkDoneProgressCreate(ctx context.Context, params *protocol.WorkDoneProgressCreateParams) (err error)
	LogMessage(ctx context.Context, params *protocol.LogMessageParams) (err error)
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) (err error)
	ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (result *protocol.MessageActionItem, err error)
	Configuration(ctx context.Context, params *protocol.ConfigurationParams) (result []interface{}, err error)

	// Notify sends a notification that is not part of the LSP protocol.
	Notify(ctx context.Context, method string, params interface{}) error

	// GetLogMessageWriter returns a writer whose every Write becomes one window/logMessage of the session in ctx.
	// The writer is bound to ctx, so get a new one per request.
	GetLogMessageWriter(ctx context.Context, prefix string) (io.Writer, error)
}

// ideSession is what the gateway keeps per registered connection.
type ideSession struct {
	client protocol.Client
	conn   jsonrpc2.Conn
}

type gateway struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]ideSession
	logger   *zap.Logger
}

// New returns a Gateway for sending IDE notifications and calls.
func New(logger *zap.Logger) Gateway {
	return &gateway{
		sessions: make(map[uuid.UUID]ideSession),
		logger:   logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
	if conn == nil || *conn == nil {
		return fmt.Errorf("registering client %q: missing connection", id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id] = ideSession{
		client: protocol.ClientDispatcher(*conn, g.logger),
		conn:   *conn,
	}
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, id)
	return nil
}

// lookup finds the connection of the session in ctx.
func (g *gateway) lookup(ctx context.Context) (ideSession, error) {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return ideSession{}, fmt.Errorf("routing to IDE: %w", err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.sessions[id]
	if !ok {
		return ideSession{}, fmt.Errorf("routing to IDE: no client registered for session %q", id)
	}
	return s, nil
}

func (g *gateway) Progress(ctx context.Context, params *protocol.ProgressParams) error {
	s, err := g.lookup(ctx)
	if err != nil {
		return err
	}
	return s.client.Progress(ctx, params)
}

func (g *gateway) WorkDoneProgressCreate(ctx context.Context, params *protocol.WorkDoneProgressCreateParams) error {
	s, err := g.lookup(ctx)
	if err != nil {
		return err
	}
	return s.client.WorkDoneProgressCreate(ctx, params)
}

func (g *gateway) LogMessage(ctx context.Context, params *protocol.LogMessageParams) error {
	s, err := g.lookup(ctx)
	if err != nil {
		return err
	}
	return s.client.LogMessage(ctx, params)
}

func (g *gateway) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	s, err := g.lookup(ctx)
	if err != nil {
		return err
	}
	return s.client.ShowMessage(ctx, params)
}

// ShowMessageRequest asks the user to pick an action.
// Prompts below error level can be hidden by the client's notification settings, so a progress
// notification stays open until the user answers.
func (g *gateway) ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	s, err := g.lookup(ctx)
	if err != nil {
		return nil, err
	}

	if params.Type > protocol.MessageTypeError {
		p, err := startPromptProgress(ctx, s.client)
		if err != nil {
			return nil, err
		}
		defer p.end()
	}
	return s.client.ShowMessageRequest(ctx, params)
}

func (g *gateway) Configuration(ctx context.Context, params *protocol.ConfigurationParams) ([]interface{}, error) {
	s, err := g.lookup(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Configuration(ctx, params)
}

func (g *gateway) Notify(ctx context.Context, method string, params interface{}) error {
	s, err := g.lookup(ctx)
	if err != nil {
		return err
	}
	if err := s.conn.Notify(ctx, method, params); err != nil {
		return fmt.Errorf("notifying %s: %w", method, err)
	}
	return nil
}

func (g *gateway) GetLogMessageWriter(ctx context.Context, prefix string) (io.Writer, error) {
	if _, err := g.lookup(ctx); err != nil {
		return nil, err
	}
	return &logMessageWriter{gateway: g, ctx: ctx, prefix: prefix}, nil
}

type logMessageWriter struct {
	gateway *gateway
	ctx     context.Context
	prefix  string
}

// Write sends p as one log message, dropping a single trailing newline.
func (w *logMessageWriter) Write(p []byte) (int, error) {
	message := w.prefix + strings.TrimSuffix(string(p), "\n")
	if err := w.gateway.LogMessage(w.ctx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeLog,
		Message: message,
	}); err != nil {
		return 0, fmt.Errorf("writing log message: %w", err)
	}
	return len(p), nil
}

// promptProgress is the progress notification shown while a prompt waits for the user.
type promptProgress struct {
	ctx      context.Context
	client   protocol.Client
	token    protocol.ProgressToken
	reminder *time.Timer
	giveUp   *time.Timer
	once     sync.Once
}

func startPromptProgress(ctx context.Context, client protocol.Client) (*promptProgress, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("creating prompt progress token: %w", err)
	}

	p := &promptProgress{ctx: ctx, client: client, token: *protocol.NewProgressToken(id.String())}
	if err := client.WorkDoneProgressCreate(ctx, &protocol.WorkDoneProgressCreateParams{Token: p.token}); err != nil {
		return nil, fmt.Errorf("creating prompt progress: %w", err)
	}
	if err := p.send(&protocol.WorkDoneProgressBegin{
		Kind:        protocol.WorkDoneProgressKindBegin,
		Title:       _promptProgressTitle,
		Message:     _promptProgressMessage,
		Cancellable: true,
	}); err != nil {
		return nil, fmt.Errorf("beginning prompt progress: %w", err)
	}

	p.reminder = time.AfterFunc(_promptReminderAfter, func() {
		p.send(&protocol.WorkDoneProgressReport{
			Kind:    protocol.WorkDoneProgressKindReport,
			Message: _promptProgressReminder,
		})
	})
	p.giveUp = time.AfterFunc(_promptGiveUpAfter, p.end)
	return p, nil
}

// end closes the progress. Safe to call more than once.
func (p *promptProgress) end() {
	p.once.Do(func() {
		p.reminder.Stop()
		p.giveUp.Stop()
		p.send(&protocol.WorkDoneProgressEnd{Kind: protocol.WorkDoneProgressKindEnd})
	})
}

func (p *promptProgress) send(value interface{}) error {
	return p.client.Progress(p.ctx, &protocol.ProgressParams{Token: p.token, Value: value})
}
