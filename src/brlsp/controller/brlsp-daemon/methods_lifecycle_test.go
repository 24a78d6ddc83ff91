package brlspdaemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin/pluginmock"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client/ideclientmock"
	"github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils/workspaceutilsmock"
	"github.com/dart-tools/brlsp/src/brlsp/mock/fxmock"
	"github.com/dart-tools/brlsp/src/brlsp/mock/jsonrpc2mock"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session/repositorymock"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func initializePlugins(ctrl *gomock.Controller) []brlspplugin.Plugin {
	samplePlugin1 := pluginmock.NewMockPlugin(ctrl)
	samplePlugin1.EXPECT().StartupInfo(gomock.Any()).Return(brlspplugin.PluginInfo{
		Priorities: map[string]brlspplugin.Priority{
			protocol.MethodInitialize: brlspplugin.PriorityHigh,
		},
		Methods: &brlspplugin.Methods{
			PluginNameKey: "sample1",
			Initialize: func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
				result.Capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{Commands: []string{"sample.command"}}
				return nil
			},
		},
		NameKey: "sample1",
	}, nil)

	samplePlugin2 := pluginmock.NewMockPlugin(ctrl)
	samplePlugin2.EXPECT().StartupInfo(gomock.Any()).Return(brlspplugin.PluginInfo{
		Priorities: map[string]brlspplugin.Priority{
			protocol.MethodInitialize: brlspplugin.PriorityHigh,
		},
		Methods: &brlspplugin.Methods{
			PluginNameKey: "sample2",
			Initialize: func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
				return errors.New("sample")
			},
		},
		NameKey: "sample2",
	}, nil)

	return []brlspplugin.Plugin{samplePlugin1, samplePlugin2}
}

func TestInitialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)
	root := filepath.Join(t.TempDir(), "app")

	t.Run("initialize success", func(t *testing.T) {
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()
		var stored *entity.Session
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, updated *entity.Session) error {
			stored = updated
			return nil
		})

		utils := workspaceutilsmock.NewMockWorkspaceUtils(ctrl)
		utils.EXPECT().GetEnv(gomock.Any(), root).Return([]string{"PATH=/usr/bin"}, nil)

		core, recorded := observer.New(zap.ErrorLevel)
		c := controller{
			logger:         zap.New(core).Sugar(),
			sessions:       sessionRepository,
			workspaceUtils: utils,
			pluginsAll:     initializePlugins(ctrl),
			pluginConfig:   map[string]bool{"sample1": true, "sample2": true},
			pluginMethods:  map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{},
		}

		params := &protocol.InitializeParams{
			WorkspaceFolders: []protocol.WorkspaceFolder{
				{URI: string(uri.File(root)), Name: "app"},
				{URI: "untitled:scratch", Name: "scratch"},
			},
		}

		res, err := c.Initialize(ctx, params)
		c.wg.Wait()
		require.NoError(t, err, "Unexpected initialize error.")
		assert.Equal(t, "build_runner Language Server", res.ServerInfo.Name)
		assert.Equal(t, protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindFull,
			Save: &protocol.SaveOptions{
				IncludeText: true,
			},
		}, res.Capabilities.TextDocumentSync)
		assert.True(t, res.Capabilities.Workspace.WorkspaceFolders.Supported)
		assert.Equal(t, []string{"sample.command"}, res.Capabilities.ExecuteCommandProvider.Commands)
		assert.Equal(t, 1, recorded.Len())

		require.NotNil(t, stored)
		require.Len(t, stored.WorkspaceFolders, 1)
		assert.Equal(t, root, stored.WorkspaceFolders[0].Path)
		assert.Equal(t, []string{"PATH=/usr/bin"}, stored.Env)
		assert.Equal(t, params, stored.InitializeParams)
	})

	t.Run("root uri fallback", func(t *testing.T) {
		s := &entity.Session{UUID: s.UUID}
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil)

		utils := workspaceutilsmock.NewMockWorkspaceUtils(ctrl)
		utils.EXPECT().GetEnv(gomock.Any(), root).Return(nil, errors.New("no shell"))

		c := controller{
			logger:         zap.NewNop().Sugar(),
			sessions:       sessionRepository,
			workspaceUtils: utils,
			pluginMethods:  map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{},
		}

		_, err := c.Initialize(ctx, &protocol.InitializeParams{RootURI: protocol.DocumentURI(uri.File(root))})
		require.NoError(t, err)
		require.Len(t, s.WorkspaceFolders, 1)
		assert.Equal(t, "app", s.WorkspaceFolders[0].Name)
		assert.Nil(t, s.Env)
	})

	t.Run("missing session uuid in context", func(t *testing.T) {
		ctx := context.Background()

		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("sample"))
		c := controller{
			logger:   zap.NewNop().Sugar(),
			sessions: sessionRepository,
		}

		_, err := c.Initialize(ctx, &protocol.InitializeParams{})
		assert.Error(t, err)
	})

	t.Run("session update failure", func(t *testing.T) {
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: s.UUID}, nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("sample"))
		c := controller{
			logger:   zap.NewNop().Sugar(),
			sessions: sessionRepository,
		}

		_, err := c.Initialize(ctx, &protocol.InitializeParams{})
		assert.Error(t, err)
	})

	t.Run("plugin registration failure", func(t *testing.T) {
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: s.UUID}, nil).AnyTimes()
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil)

		plugin := pluginmock.NewMockPlugin(ctrl)
		plugin.EXPECT().StartupInfo(gomock.Any()).Return(brlspplugin.PluginInfo{}, errors.New("sample"))
		c := controller{
			logger:     zap.NewNop().Sugar(),
			sessions:   sessionRepository,
			pluginsAll: []brlspplugin.Plugin{plugin},
		}

		_, err := c.Initialize(ctx, &protocol.InitializeParams{})
		assert.Error(t, err)
	})
}

func TestInitialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	sWithFolders := &entity.Session{
		UUID:             factory.UUID(),
		WorkspaceFolders: []entity.WorkspaceFolder{factory.WorkspaceFolder()},
	}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, sWithFolders.UUID)

	sessionRepository := repositorymock.NewMockRepository(ctrl)
	mockIdeGateway := ideclientmock.NewMockGateway(ctrl)

	pluginMethods := map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{sWithFolders.UUID: {}}
	pluginMethods[sWithFolders.UUID][protocol.MethodInitialized] = brlspplugin.MethodLists{
		Sync: []*brlspplugin.Methods{
			{
				Initialized: func(ctx context.Context, params *protocol.InitializedParams) error {
					return nil
				},
			},
			{
				Initialized: func(ctx context.Context, params *protocol.InitializedParams) error {
					return errors.New("sample")
				},
			},
		},
		Async: []*brlspplugin.Methods{
			{
				Initialized: func(ctx context.Context, params *protocol.InitializedParams) error {
					return nil
				},
			},
			{
				Initialized: func(ctx context.Context, params *protocol.InitializedParams) error {
					return errors.New("sample")
				},
			},
		},
	}

	core, recorded := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	c := controller{
		logger:        logger.Sugar(),
		pluginMethods: pluginMethods,
		sessions:      sessionRepository,
		ideGateway:    mockIdeGateway,
	}

	t.Run("initialized success", func(t *testing.T) {
		params := &protocol.InitializedParams{}
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(sWithFolders, nil)
		err := c.Initialized(ctx, params)
		c.wg.Wait()
		assert.NoError(t, err)
		assert.Equal(t, 2, recorded.Len())
	})

	t.Run("no local folders", func(t *testing.T) {
		params := &protocol.InitializedParams{}
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: sWithFolders.UUID}, nil)
		mockIdeGateway.EXPECT().ShowMessage(gomock.Any(), &protocol.ShowMessageParams{
			Message: _msgNoLocalFolders,
			Type:    protocol.MessageTypeWarning,
		}).Return(nil)

		err := c.Initialized(ctx, params)
		c.wg.Wait()
		assert.NoError(t, err)
	})

	t.Run("missing session", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("sample"))
		err := c.Initialized(ctx, &protocol.InitializedParams{})
		c.wg.Wait()
		assert.Error(t, err)
	})
}

func TestShutdown(t *testing.T) {
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	pluginMethods := map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{s.UUID: {}}
	pluginMethods[s.UUID][protocol.MethodShutdown] = brlspplugin.MethodLists{
		Sync: []*brlspplugin.Methods{
			{
				Shutdown: func(ctx context.Context) error {
					return nil
				},
			},
			{
				Shutdown: func(ctx context.Context) error {
					return errors.New("sample")
				},
			},
		},
		Async: []*brlspplugin.Methods{
			{
				Shutdown: func(ctx context.Context) error {
					return errors.New("sample")
				},
			},
		},
	}

	core, recorded := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	c := controller{
		logger:        logger.Sugar(),
		pluginMethods: pluginMethods,
	}
	assert.NoError(t, c.Shutdown(ctx))
	c.wg.Wait()
	assert.Equal(t, 2, recorded.Len())

	assert.Error(t, c.Shutdown(context.Background()))
}

func TestExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockShutdowner := fxmock.NewMockShutdowner(ctrl)

	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(1, nil)
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	mockIdeGateway := ideclientmock.NewMockGateway(ctrl)
	mockIdeGateway.EXPECT().DeregisterClient(gomock.Any(), gomock.Any()).Return(nil)

	exitMethods := func() map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods {
		pluginMethods := map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{s.UUID: {}}
		pluginMethods[s.UUID][protocol.MethodExit] = brlspplugin.MethodLists{
			Sync: []*brlspplugin.Methods{
				{
					Exit: func(ctx context.Context) error {
						return nil
					},
				},
				{
					Exit: func(ctx context.Context) error {
						return errors.New("sample")
					},
				},
			},
			Async: []*brlspplugin.Methods{
				{
					Exit: func(ctx context.Context) error {
						return errors.New("sample")
					},
				},
			},
		}
		return pluginMethods
	}

	t.Run("full shutdown enabled", func(t *testing.T) {
		c := controller{
			shutdowner:         mockShutdowner,
			fullShutdown:       true,
			sessions:           sessionRepository,
			idleTimeoutMinutes: time.Duration(5) * time.Minute,
			pluginMethods:      exitMethods(),
			ideGateway:         mockIdeGateway,
		}
		core, recorded := observer.New(zap.ErrorLevel)
		c.logger = zap.New(core).Sugar()
		c.refreshIdleTimer(ctx)

		mockShutdowner.EXPECT().Shutdown().Return(nil).Times(1)
		c.Exit(ctx)
		c.wg.Wait()
		assert.Equal(t, 2, recorded.Len())

		// Allow the idle goroutine to observe the reset timer.
		time.Sleep(100 * time.Millisecond)
	})

	t.Run("full shutdown disabled", func(t *testing.T) {
		c := controller{
			shutdowner:         mockShutdowner,
			fullShutdown:       false,
			sessions:           sessionRepository,
			idleTimeoutMinutes: time.Duration(5) * time.Minute,
			pluginMethods:      exitMethods(),
			ideGateway:         mockIdeGateway,
		}
		core, recorded := observer.New(zap.ErrorLevel)
		c.logger = zap.New(core).Sugar()
		c.refreshIdleTimer(ctx)

		sessionRepository.EXPECT().Delete(gomock.Any(), s.UUID).Return(nil)

		c.Exit(ctx)
		c.wg.Wait()
		assert.Equal(t, 2, recorded.Len())
		assert.NotContains(t, c.pluginMethods, s.UUID)

		// Ensure proper cleanup of running goroutine by calling again with full shutdown enabled.
		mockShutdowner.EXPECT().Shutdown().Return(nil).Times(1)
		c.fullShutdown = true
		c.Exit(ctx)
		time.Sleep(100 * time.Millisecond)
	})
}

func TestRequestFullShutdown(t *testing.T) {
	c := controller{}

	// fullShutdown is set to true
	assert.False(t, c.fullShutdown)
	c.RequestFullShutdown(context.Background())
	assert.True(t, c.fullShutdown)

	// Duplicate calls have no effect
	c.RequestFullShutdown(context.Background())
	assert.True(t, c.fullShutdown)
}

func TestInitSession(t *testing.T) {
	ctrl := gomock.NewController(t)

	sessionRepository := repositorymock.NewMockRepository(ctrl)
	ctx := context.Background()

	mockIdeGateway := ideclientmock.NewMockGateway(ctrl)

	c := controller{
		sessions:           sessionRepository,
		logger:             zap.NewNop().Sugar(),
		idleTimer:          time.NewTimer(time.Hour),
		idleTimeoutMinutes: time.Hour,
		ideGateway:         mockIdeGateway,
	}

	mockConn := jsonrpc2mock.NewMockConn(ctrl)
	var conn jsonrpc2.Conn = mockConn

	t.Run("value set successfully", func(t *testing.T) {
		var registered uuid.UUID
		mockIdeGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), &conn).DoAndReturn(func(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
			registered = id
			return nil
		})
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, s *entity.Session) error {
			assert.Equal(t, registered, s.UUID)
			assert.Equal(t, &conn, s.Conn)
			return nil
		})
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(1, nil)

		id, err := c.InitSession(ctx, &conn)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.UUID{}, id)
		assert.Equal(t, registered, id)

		// Timer should be stopped when a value is set.
		assert.False(t, c.idleTimer.Stop())
	})

	t.Run("error registering client", func(t *testing.T) {
		mockIdeGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("error"))
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, nil)
		_, err := c.InitSession(ctx, &conn)
		assert.Error(t, err)
		assert.True(t, c.idleTimer.Stop())
	})

	t.Run("error setting value", func(t *testing.T) {
		mockIdeGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("error"))
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, nil)
		_, err := c.InitSession(ctx, &conn)
		assert.Error(t, err)

		// Timer should be running when no sessions are active.
		assert.True(t, c.idleTimer.Stop())
	})
}

func TestEndSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(1, nil).AnyTimes()
	sessionRepository.EXPECT().Delete(gomock.Any(), s.UUID).Return(nil).AnyTimes()

	// Connections closing without exit carry no session in their context.
	ctx := context.Background()

	mockIdeGateway := ideclientmock.NewMockGateway(ctrl)
	mockIdeGateway.EXPECT().DeregisterClient(gomock.Any(), s.UUID).Return(nil).AnyTimes()

	var ended []uuid.UUID
	pluginMethods := map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{s.UUID: {}}
	pluginMethods[s.UUID][brlspplugin.MethodEndSession] = brlspplugin.MethodLists{
		Sync: []*brlspplugin.Methods{
			{
				EndSession: func(ctx context.Context, id uuid.UUID) error {
					ended = append(ended, id)
					return nil
				},
			},
			{
				EndSession: func(ctx context.Context, id uuid.UUID) error {
					return errors.New("sample")
				},
			},
		},
		Async: []*brlspplugin.Methods{
			{
				EndSession: func(ctx context.Context, id uuid.UUID) error {
					return errors.New("sample")
				},
			},
		},
	}

	t.Run("plugins registered", func(t *testing.T) {
		c := controller{
			sessions:           sessionRepository,
			idleTimeoutMinutes: time.Duration(5) * time.Minute,
			pluginMethods:      pluginMethods,
			ideGateway:         mockIdeGateway,
			idleTimer:          time.NewTimer(time.Hour),
		}

		core, recorded := observer.New(zap.ErrorLevel)
		c.logger = zap.New(core).Sugar()

		assert.NoError(t, c.EndSession(ctx, s.UUID))
		c.wg.Wait()
		assert.Equal(t, 2, recorded.Len())
		assert.Equal(t, []uuid.UUID{s.UUID}, ended)
		assert.NotContains(t, c.pluginMethods, s.UUID)
		c.idleTimer.Stop()
	})

	t.Run("no plugins registered", func(t *testing.T) {
		c := controller{
			sessions:           sessionRepository,
			idleTimeoutMinutes: time.Duration(5) * time.Minute,
			pluginMethods:      map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{},
			ideGateway:         mockIdeGateway,
			idleTimer:          time.NewTimer(time.Hour),
		}

		core, recorded := observer.New(zap.ErrorLevel)
		c.logger = zap.New(core).Sugar()

		err := c.EndSession(ctx, s.UUID)
		c.wg.Wait()
		assert.Equal(t, 0, recorded.Len())
		assert.NoError(t, err)
		c.idleTimer.Stop()
	})
}
