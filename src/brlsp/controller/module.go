package controller

import (
	brlspdaemon "github.com/dart-tools/brlsp/src/brlsp/controller/brlsp-daemon"
	"github.com/dart-tools/brlsp/src/brlsp/controller/commands"
	docsync "github.com/dart-tools/brlsp/src/brlsp/controller/doc-sync"
	"github.com/dart-tools/brlsp/src/brlsp/controller/explorer"
	fluttersdk "github.com/dart-tools/brlsp/src/brlsp/controller/flutter-sdk"
	"github.com/dart-tools/brlsp/src/brlsp/controller/watch"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(brlspdaemon.New),
	fx.Provide(docsync.New),
	fx.Provide(watch.New),
	fx.Provide(commands.New),
	fx.Provide(explorer.New),
	fx.Provide(fluttersdk.New),
)
