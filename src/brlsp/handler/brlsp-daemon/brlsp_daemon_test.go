package brlspdaemon

import (
	"context"
	"errors"
	"testing"

	"github.com/dart-tools/brlsp/src/brlsp/controller/brlsp-daemon/brlspdaemonmock"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/dart-tools/brlsp/src/brlsp/internal/jsonrpcfx/jsonrpcfxmock"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/mock/jsonrpc2mock"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	t.Run("registers connection manager", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jsonRPCMock := jsonrpcfxmock.NewMockJSONRPCModule(ctrl)
		jsonRPCMock.EXPECT().RegisterConnectionManager(gomock.Any()).Return(nil)

		testScope := tally.NewTestScope("testing", make(map[string]string, 0))

		c := brlspdaemonmock.NewMockController(ctrl)
		h, err := New(c, jsonRPCMock, testScope)
		require.NoError(t, err)
		assert.Equal(t, 0, h.ActiveConnections())
	})

	t.Run("duplicate connection manager", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jsonRPCMock := jsonrpcfxmock.NewMockJSONRPCModule(ctrl)
		jsonRPCMock.EXPECT().RegisterConnectionManager(gomock.Any()).Return(errors.New("duplicate"))

		testScope := tally.NewTestScope("testing", make(map[string]string, 0))

		_, err := New(brlspdaemonmock.NewMockController(ctrl), jsonRPCMock, testScope)
		assert.Error(t, err)
	})
}

func TestNewConnection(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	c := brlspdaemonmock.NewMockController(ctrl)
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))

	mgr := jsonRPCConnectionManager{
		stats: testScope,
		ctrl:  c,
	}

	mockConn := jsonrpc2mock.NewMockConn(ctrl)
	var conn jsonrpc2.Conn = mockConn

	t.Run("create success", func(t *testing.T) {
		c.EXPECT().InitSession(gomock.Any(), gomock.Any()).Return(factory.UUID(), nil)
		router, err := mgr.NewConnection(ctx, &conn)
		assert.IsType(t, &jsonRPCRouter{}, router)
		assert.NoError(t, err)
		assert.Equal(t, 1, mgr.count())
		assert.Equal(t, float64(1), testScope.Snapshot().Gauges()["testing.connections+"].Value())
	})

	t.Run("create failure", func(t *testing.T) {
		c.EXPECT().InitSession(gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.New("error"))
		_, err := mgr.NewConnection(ctx, &conn)
		assert.Error(t, err)
		assert.Equal(t, 1, mgr.count())
	})
}

func TestRemoveConnection(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	c := brlspdaemonmock.NewMockController(ctrl)
	id := factory.UUID()
	c.EXPECT().InitSession(gomock.Any(), gomock.Any()).Return(id, nil)
	c.EXPECT().EndSession(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, id uuid.UUID) error {
		resultID, err := mapper.ContextToSessionUUID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, id, resultID)
		return nil
	})

	testScope := tally.NewTestScope("testing", make(map[string]string, 0))

	mgr := jsonRPCConnectionManager{
		stats: testScope,
		ctrl:  c,
	}

	mockConn := jsonrpc2mock.NewMockConn(ctrl)
	var conn jsonrpc2.Conn = mockConn
	router, err := mgr.NewConnection(ctx, &conn)
	require.NoError(t, err)

	mgr.RemoveConnection(ctx, router.UUID())
	assert.Equal(t, 0, mgr.count())
	assert.Equal(t, float64(0), testScope.Snapshot().Gauges()["testing.connections+"].Value())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMockReplier() jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		return err
	}
}

func newTestRouter(c *brlspdaemonmock.MockController) jsonRPCRouter {
	return jsonRPCRouter{
		brlspdaemon: c,
		stats:       tally.NoopScope,
	}
}
