package brlspdaemon

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/controller/commands"
	"github.com/dart-tools/brlsp/src/brlsp/controller/doc-sync/docsyncmock"
	"github.com/dart-tools/brlsp/src/brlsp/controller/flutter-sdk/fluttersdkmock"
	"github.com/dart-tools/brlsp/src/brlsp/controller/watch/watchmock"
	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/dart-tools/brlsp/src/brlsp/gateway/folder-picker/folderpickermock"
	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"github.com/dart-tools/brlsp/src/brlsp/gateway/output-channel/outputchannelmock"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process/processmock"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec/pubspecmock"
	"github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils/workspaceutilsmock"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session/repositorymock"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// clientRecorder answers every server call and keeps the methods it saw, in order.
type clientRecorder struct {
	mu      sync.Mutex
	methods []string
}

func (r *clientRecorder) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	r.mu.Lock()
	r.methods = append(r.methods, req.Method())
	r.mu.Unlock()
	return reply(ctx, nil, nil)
}

func (r *clientRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.methods...)
}

func TestExecuteCommandOverConnection(t *testing.T) {
	ctrl := gomock.NewController(t)

	folder := factory.DartProject(t, "app", true)
	text := "part 'model.g.dart';"
	path := filepath.Join(folder.Path, "lib", "model.dart")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	doc := factory.DartDocument(path, text)

	s := &entity.Session{UUID: factory.UUID(), WorkspaceFolders: []entity.WorkspaceFolder{folder}}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	sessions := repositorymock.NewMockRepository(ctrl)
	sessions.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()
	documents := docsyncmock.NewMockController(ctrl)
	documents.EXPECT().GetActiveDocument(gomock.Any()).Return(&doc, nil)
	workspaceUtils := workspaceutilsmock.NewMockWorkspaceUtils(ctrl)
	workspaceUtils.EXPECT().FolderForPath(gomock.Any(), path).Return(&folder, nil)
	workspaceUtils.EXPECT().IsProjectFolder(folder).Return(true)
	sdk := fluttersdkmock.NewMockController(ctrl)
	sdk.EXPECT().Ensure(gomock.Any()).Return("flutter", nil)
	output := outputchannelmock.NewMockChannel(ctrl)
	output.EXPECT().Clear(gomock.Any()).Return(nil).AnyTimes()
	output.EXPECT().Show(gomock.Any()).Return(nil).AnyTimes()
	output.EXPECT().AppendLine(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	exitListeners := make(chan func(process.ExitStatus), 1)
	runner := processmock.NewMockRunner(ctrl)
	handle := processmock.NewMockHandle(ctrl)
	runner.EXPECT().RunDart(gomock.Any(), gomock.Any()).Return(handle, nil)
	handle.EXPECT().OnStdout(gomock.Any()).Return(func() {})
	handle.EXPECT().OnStderr(gomock.Any()).Return(func() {})
	handle.EXPECT().OnExit(gomock.Any()).DoAndReturn(func(l func(process.ExitStatus)) func() {
		exitListeners <- l
		return func() {}
	})
	handle.EXPECT().Dispose()

	gateway := ideclient.New(zap.NewNop())
	lc := fxtest.NewLifecycle(t)
	plugin := commands.New(commands.Params{
		Lifecycle:      lc,
		Sessions:       sessions,
		IdeGateway:     gateway,
		Documents:      documents,
		Watch:          watchmock.NewMockController(ctrl),
		FlutterSDK:     sdk,
		Picker:         folderpickermock.NewMockPicker(ctrl),
		Detector:       pubspecmock.NewMockDetector(ctrl),
		WorkspaceUtils: workspaceUtils,
		Output:         output,
		Runner:         runner,
		FS:             fs.New(),
		Logger:         zap.NewNop().Sugar(),
		Stats:          tally.NoopScope,
	})
	lc.RequireStart()

	c := &controller{
		logger:        zap.NewNop().Sugar(),
		sessions:      sessions,
		ideGateway:    gateway,
		pluginMethods: map[uuid.UUID]brlspplugin.RuntimePrioritizedMethods{},
		pluginConfig:  map[string]bool{"commands": true},
		pluginsAll:    []brlspplugin.Plugin{plugin},
	}
	require.NoError(t, c.registerSessionPlugins(ctx))

	serverPipe, clientPipe := net.Pipe()
	serverConn := jsonrpc2.NewConn(jsonrpc2.NewStream(serverPipe))
	clientConn := jsonrpc2.NewConn(jsonrpc2.NewStream(clientPipe))
	require.NoError(t, gateway.RegisterClient(ctx, s.UUID, &serverConn))

	serverConn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		ctx = context.WithValue(ctx, entity.SessionContextKey, s.UUID)
		var params protocol.ExecuteCommandParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}
		result, err := c.ExecuteCommand(ctx, &params)
		return reply(ctx, result, err)
	})
	client := &clientRecorder{}
	clientConn.Go(ctx, client.handle)

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var result interface{}
	_, err := clientConn.Call(callCtx, protocol.MethodWorkspaceExecuteCommand, &protocol.ExecuteCommandParams{
		Command: commands.CommandBuildSelected,
	}, &result)
	require.NoError(t, err, "the reply must not wait for calls the command makes back to the client")

	var exit func(process.ExitStatus)
	select {
	case exit = <-exitListeners:
	case <-time.After(5 * time.Second):
		t.Fatal("build did not start")
	}
	assert.Contains(t, client.seen(), protocol.MethodWorkDoneProgressCreate)

	code := 0
	exit(process.ExitStatus{Code: &code})
	assert.Eventually(t, func() bool {
		seen := client.seen()
		return len(seen) > 0 && seen[len(seen)-1] == protocol.MethodWindowShowMessage
	}, 5*time.Second, 10*time.Millisecond)

	c.wg.Wait()
	lc.RequireStop()
	clientConn.Close()
	serverConn.Close()
	<-clientConn.Done()
	<-serverConn.Done()
}
