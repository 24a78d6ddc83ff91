package app

import (
	"context"
	"time"

	"github.com/dart-tools/brlsp/src/brlsp/gateway"
	notifier "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"github.com/dart-tools/brlsp/src/brlsp/handler"
	"github.com/dart-tools/brlsp/src/brlsp/internal/core"
	"github.com/dart-tools/brlsp/src/brlsp/internal/executor"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/jsonrpcfx"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec"
	"github.com/dart-tools/brlsp/src/brlsp/internal/serverinfofile"
	workspaceutils "github.com/dart-tools/brlsp/src/brlsp/internal/workspace-utils"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
)

// Module defines the brlsp-daemon application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	executor.Module,
	process.Module,
	pubspec.Module,
	serverinfofile.Module,
	workspaceutils.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(notifier.New),
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "brlsp-daemon",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
