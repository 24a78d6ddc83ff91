package gateway

import (
	folderpicker "github.com/dart-tools/brlsp/src/brlsp/gateway/folder-picker"
	outputchannel "github.com/dart-tools/brlsp/src/brlsp/gateway/output-channel"
	"go.uber.org/fx"
)

// Module provides the outbound gateways that talk back to connected editors.
var Module = fx.Options(
	folderpicker.Module,
	outputchannel.Module,
)
