package fluttersdk

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client/ideclientmock"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/internal/executor/executormock"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs/fsmock"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session/repositorymock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type mocks struct {
	executor   *executormock.MockExecutor
	fs         *fsmock.MockBrlspFS
	ideGateway *ideclientmock.MockGateway
	sessions   *repositorymock.MockRepository
}

func newTestController(t *testing.T, goos string, sdkPath string) (*controller, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		executor:   executormock.NewMockExecutor(ctrl),
		fs:         fsmock.NewMockBrlspFS(ctrl),
		ideGateway: ideclientmock.NewMockGateway(ctrl),
		sessions:   repositorymock.NewMockRepository(ctrl),
	}

	provider, err := config.NewStaticProvider(map[string]interface{}{
		"buildRunner": map[string]interface{}{
			"flutterSdkPath": sdkPath,
		},
	})
	require.NoError(t, err)

	c, err := New(Params{
		Config:     provider,
		Executor:   m.executor,
		FS:         m.fs,
		IdeGateway: m.ideGateway,
		Sessions:   m.sessions,
		Logger:     zap.NewNop().Sugar(),
		Stats:      tally.NewTestScope("testing", map[string]string{}),
	})
	require.NoError(t, err)

	result := c.(*controller)
	result.goos = goos
	return result, m
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("found on path", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{Env: []string{"PATH=/sdk/bin"}}, nil)
		m.executor.EXPECT().Run(gomock.Any()).DoAndReturn(func(cmd *exec.Cmd) (string, string, int, error) {
			assert.Equal(t, []string{"flutter", "--version"}, cmd.Args)
			assert.Equal(t, []string{"PATH=/sdk/bin"}, cmd.Env)
			return "Flutter 3.22.0", "", 0, nil
		})

		sdk, err := c.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "flutter", sdk)

		// The result is cached, so no second version check runs.
		sdk, err = c.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "flutter", sdk)
	})

	t.Run("windows goes through cmd", func(t *testing.T) {
		c, m := newTestController(t, "windows", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("no session"))
		m.executor.EXPECT().Run(gomock.Any()).DoAndReturn(func(cmd *exec.Cmd) (string, string, int, error) {
			assert.Equal(t, []string{"cmd", "/c", "flutter", "--version"}, cmd.Args)
			return "", "", 0, nil
		})

		sdk, err := c.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "cmd", sdk)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("no session"))
		m.executor.EXPECT().Run(gomock.Any()).Return("", "not found", 127, nil)

		sdk, err := c.Resolve(ctx)
		require.NoError(t, err)
		assert.Empty(t, sdk)
	})

	t.Run("spawn error", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("no session"))
		m.executor.EXPECT().Run(gomock.Any()).Return("", "", -1, exec.ErrNotFound)

		sdk, err := c.Resolve(ctx)
		require.NoError(t, err)
		assert.Empty(t, sdk)
	})
}

func TestPrompt(t *testing.T) {
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, factory.UUID())
	sdkDir := filepath.Join(string(filepath.Separator), "opt", "flutter")

	t.Run("client setting", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.ideGateway.EXPECT().Configuration(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, params *protocol.ConfigurationParams) ([]interface{}, error) {
				assert.Equal(t, SettingSdkPath, params.Items[0].Section)
				return []interface{}{sdkDir}, nil
			})
		m.fs.EXPECT().FileExists(filepath.Join(sdkDir, "bin", "flutter")).Return(true, nil)

		sdk, err := c.Prompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdkDir, sdk)
	})

	t.Run("falls back to daemon config", func(t *testing.T) {
		c, m := newTestController(t, "linux", sdkDir)
		m.ideGateway.EXPECT().Configuration(gomock.Any(), gomock.Any()).Return(nil, errors.New("unsupported"))
		m.fs.EXPECT().FileExists(filepath.Join(sdkDir, "bin", "flutter")).Return(true, nil)

		sdk, err := c.Prompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdkDir, sdk)
	})

	t.Run("windows batch shim", func(t *testing.T) {
		c, m := newTestController(t, "windows", "")
		m.ideGateway.EXPECT().Configuration(gomock.Any(), gomock.Any()).Return([]interface{}{sdkDir}, nil)
		m.fs.EXPECT().FileExists(filepath.Join(sdkDir, "bin", "flutter")).Return(false, nil)
		m.fs.EXPECT().FileExists(filepath.Join(sdkDir, "bin", "flutter.bat")).Return(true, nil)

		sdk, err := c.Prompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdkDir, sdk)
	})

	t.Run("nothing usable", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.ideGateway.EXPECT().Configuration(gomock.Any(), gomock.Any()).Return([]interface{}{sdkDir}, nil)
		m.fs.EXPECT().FileExists(gomock.Any()).Return(false, nil)

		sdk, err := c.Prompt(ctx)
		require.NoError(t, err)
		assert.Empty(t, sdk)
	})
}

func TestEnsure(t *testing.T) {
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, factory.UUID())

	t.Run("resolved", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("no session"))
		m.executor.EXPECT().Run(gomock.Any()).Return("", "", 0, nil)

		sdk, err := c.Ensure(ctx)
		require.NoError(t, err)
		assert.Equal(t, "flutter", sdk)
	})

	t.Run("unavailable", func(t *testing.T) {
		c, m := newTestController(t, "linux", "")
		m.sessions.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("no session"))
		m.executor.EXPECT().Run(gomock.Any()).Return("", "", 1, nil)
		m.ideGateway.EXPECT().Configuration(gomock.Any(), gomock.Any()).Return([]interface{}{nil}, nil)
		// Ensure shows nothing; the caller reports the error.

		_, err := c.Ensure(ctx)
		var sdkErr *brlsperrors.SDKUnavailableError
		require.ErrorAs(t, err, &sdkErr)
		assert.Equal(t, SettingSdkPath, sdkErr.Setting)
		assert.Equal(t, "Flutter SDK is required to run this command. Set buildRunner.flutterSdkPath to its installation path.", err.Error())
	})
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
