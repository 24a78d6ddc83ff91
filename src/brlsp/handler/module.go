package handler

import (
	controller "github.com/dart-tools/brlsp/src/brlsp/controller"
	brlspdaemon "github.com/dart-tools/brlsp/src/brlsp/controller/brlsp-daemon"
	handler "github.com/dart-tools/brlsp/src/brlsp/handler/brlsp-daemon"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"go.uber.org/fx"
)

// Module provides the brlsp-daemon server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(handler.New),
	fx.Invoke(outputLogPaths),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m brlspdaemon.Controller) {}),
)
