// Package jsonrpcfx serves JSON-RPC connections from editors over TCP.
package jsonrpcfx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/dart-tools/brlsp/src/brlsp/internal/serverinfofile"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAddress = "jsonrpc.address"
	_outputKey        = "lsp-address"
)

// Module is an fx module to handle JSON-RPC requests.
var Module = fx.Provide(New)

// JSONRPCModule represents a module to manage JSON-RPC requests.
type JSONRPCModule interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	ServeStream(ctx context.Context, conn jsonrpc2.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
}

// Router serves as the interface through which handling of requests will be implemented.
type Router interface {
	HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
	UUID() uuid.UUID
}

// ConnectionManager will manage each active connection and its corresponding Router throughout the lifecycle of a connection.
type ConnectionManager interface {
	NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Address string `json:"address"`

	connectionMgr  ConnectionManager
	ln             *net.TCPListener
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile

	mu      sync.Mutex
	stopped bool
	served  chan struct{}
	conns   map[jsonrpc2.Conn]struct{}
}

// Params define values to be used by JsonRpcHandler.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

// New creates a new server to handle JSON-RPC requests on the configured address.
func New(p Params) (JSONRPCModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := &module{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
		conns:          make(map[jsonrpc2.Conn]struct{}),
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})

	return m, nil
}

// OnStart opens the listener, publishes its address and begins accepting connections.
func (m *module) OnStart(ctx context.Context) error {
	if err := m.setup(); err != nil {
		return err
	}

	if err := m.serverInfoFile.UpdateField(_outputKey, m.ln.Addr().String()); err != nil {
		m.ln.Close()
		return fmt.Errorf("publishing address: %w", err)
	}

	m.served = make(chan struct{})
	go func() {
		defer close(m.served)
		m.start()
	}()
	return nil
}

// OnStop closes the listener and any open connections, then waits for serving to end.
func (m *module) OnStop(ctx context.Context) error {
	m.mu.Lock()
	if m.ln == nil || m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	err := m.ln.Close()
	for conn := range m.conns {
		conn.Close()
	}
	m.mu.Unlock()

	if m.served != nil {
		select {
		case <-m.served:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// ServeStream is called when a new connection is initiated. Requests received via the connection will be routed to the handler, and answered via the connection's replier.
func (m *module) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	if m.connectionMgr == nil {
		m.logger.Errorf("cannot serve connection, no connection manager set")
		return errors.New("cannot serve connection, no connection manager set")
	}

	m.trackConn(conn, true)
	defer m.trackConn(conn, false)

	handler, err := m.connectionMgr.NewConnection(ctx, &conn)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", handler.UUID()))
	conn.Go(ctx, handler.HandleReq)

	// Block until the connection is closed.
	<-conn.Done()

	m.connectionMgr.RemoveConnection(ctx, handler.UUID())
	m.logger.Infow("client disconnected", zap.Stringer("uuid", handler.UUID()))

	return conn.Err()
}

func (m *module) trackConn(conn jsonrpc2.Conn, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns == nil {
		m.conns = make(map[jsonrpc2.Conn]struct{})
	}
	if open {
		if m.stopped {
			conn.Close()
			return
		}
		m.conns[conn] = struct{}{}
	} else {
		delete(m.conns, conn)
	}
}

// RegisterConnectionManager sets the connection manager, which keeps track of current active connections and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

// setup should be called after creation of a new handler to set initial values.
func (m *module) setup() error {
	if m.Address == "" {
		return errors.New("setup called before address is set")
	}

	addr, err := net.ResolveTCPAddr("tcp", m.Address)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ln, err = net.ListenTCP("tcp", addr)
	return err
}

// start serves connections until the listener is closed.
func (m *module) start() {
	m.logger.Infow("started JSON-RPC inbound", zap.String("address", m.ln.Addr().String()))
	err := jsonrpc2.Serve(context.Background(), m.ln, m, 0)

	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if err != nil && !stopped {
		m.logger.Errorw("JSON-RPC inbound stopped unexpectedly", zap.Error(err))
	}
}

// processConfig will parse the configuration for any values required by this module.
func (m *module) processConfig(cfg config.Provider) error {
	val := cfg.Get(_configKeyAddress)
	if err := val.Populate(&m.Address); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	if m.Address == "" {
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	return nil
}
