// Package brlspdaemon implements the brlsp-daemon service's JSON-RPC handlers.
package brlspdaemon

import (
	"context"
	"fmt"
	"sync"

	controller "github.com/dart-tools/brlsp/src/brlsp/controller/brlsp-daemon"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/internal/jsonrpcfx"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
)

// Handler represents the brlsp-daemon service's inbound API.
type Handler interface {
	// ActiveConnections returns the number of editor connections currently open.
	ActiveConnections() int
}

type handler struct {
	brlspdaemon       controller.Controller
	connectionManager *jsonRPCConnectionManager
	stats             tally.Scope
}

// New constructs a new brlsp-daemon Handler and registers it to receive JSON-RPC connections.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := jsonRPCConnectionManager{
		ctrl:   ctrl,
		stats:  stats.SubScope("json_rpc"),
		active: map[uuid.UUID]struct{}{},
	}
	if err := jsonrpcmod.RegisterConnectionManager(&c); err != nil {
		return nil, fmt.Errorf("registering connection manager: %w", err)
	}

	return &handler{
		brlspdaemon:       ctrl,
		connectionManager: &c,
		stats:             stats,
	}, nil
}

func (h *handler) ActiveConnections() int {
	return h.connectionManager.count()
}

type jsonRPCConnectionManager struct {
	ctrl  controller.Controller
	stats tally.Scope

	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	c.mu.Lock()
	if c.active == nil {
		c.active = map[uuid.UUID]struct{}{}
	}
	c.active[id] = struct{}{}
	c.stats.Gauge("connections").Update(float64(len(c.active)))
	c.mu.Unlock()

	r := jsonRPCRouter{
		brlspdaemon: c.ctrl,
		uuid:        id,
		stats:       c.stats,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	delete(c.active, id)
	c.stats.Gauge("connections").Update(float64(len(c.active)))
	c.mu.Unlock()

	// Ensure session is removed even if no Exit call has been received.
	ctx = context.WithValue(ctx, entity.SessionContextKey, id)
	c.ctrl.EndSession(ctx, id)
}

func (c *jsonRPCConnectionManager) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}
