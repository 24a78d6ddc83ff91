// Package fluttersdk locates the Flutter SDK required before build_runner commands are run.
package fluttersdk

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ideclient "github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client"
	"github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/internal/executor"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/process"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyFlutterExecutable = "buildRunner.flutterExecutable"
	_configKeyFlutterSdkPath    = "buildRunner.flutterSdkPath"
	_defaultFlutterExecutable   = "flutter"

	// SettingSdkPath is the client setting read when no SDK is found on the PATH.
	SettingSdkPath = "buildRunner.flutterSdkPath"
)

// Controller resolves the Flutter SDK.
type Controller interface {
	// Resolve runs the flutter version check and returns the command that succeeded, or "" when it did not.
	Resolve(ctx context.Context) (string, error)
	// Prompt asks the IDE session in the context for an SDK path, returning "" when none is usable.
	// It shows nothing itself; Ensure turns an empty result into an error that names the setting.
	Prompt(ctx context.Context) (string, error)
	// Ensure resolves the SDK, falls back to Prompt, and returns SDKUnavailableError when both come up empty.
	Ensure(ctx context.Context) (string, error)
}

// Params are inbound parameters to initialize a new Controller.
type Params struct {
	fx.In

	Config     config.Provider
	Executor   executor.Executor
	FS         fs.BrlspFS
	IdeGateway ideclient.Gateway
	Sessions   session.Repository
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
}

type controller struct {
	executor          executor.Executor
	fs                fs.BrlspFS
	ideGateway        ideclient.Gateway
	sessions          session.Repository
	logger            *zap.SugaredLogger
	stats             tally.Scope
	flutterExecutable string
	configuredSdkPath string
	goos              string

	// resolved caches the first successful version check for the lifetime of the daemon.
	resolvedMu sync.Mutex
	resolved   string
}

// New creates a new Controller.
func New(p Params) (Controller, error) {
	c := &controller{
		executor:   p.Executor,
		fs:         p.FS,
		ideGateway: p.IdeGateway,
		sessions:   p.Sessions,
		logger:     p.Logger.With("plugin", "flutter-sdk"),
		stats:      p.Stats.SubScope("flutter_sdk"),
		goos:       runtime.GOOS,
	}

	if err := p.Config.Get(_configKeyFlutterExecutable).Populate(&c.flutterExecutable); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyFlutterExecutable, err)
	}
	if c.flutterExecutable == "" {
		c.flutterExecutable = _defaultFlutterExecutable
	}
	if err := p.Config.Get(_configKeyFlutterSdkPath).Populate(&c.configuredSdkPath); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyFlutterSdkPath, err)
	}
	return c, nil
}

func (c *controller) Ensure(ctx context.Context) (string, error) {
	sdk, err := c.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if sdk != "" {
		return sdk, nil
	}

	sdk, err = c.Prompt(ctx)
	if err != nil {
		return "", err
	}
	if sdk == "" {
		c.stats.Counter("unavailable").Inc(1)
		return "", &errors.SDKUnavailableError{Setting: SettingSdkPath}
	}
	return sdk, nil
}

func (c *controller) Resolve(ctx context.Context) (string, error) {
	c.resolvedMu.Lock()
	defer c.resolvedMu.Unlock()
	if c.resolved != "" {
		return c.resolved, nil
	}

	name, args := process.ShellCommand(c.goos, c.flutterExecutable, []string{"--version"})
	cmd := exec.CommandContext(ctx, name, args...)
	if s, err := c.sessions.GetFromContext(ctx); err == nil && len(s.Env) > 0 {
		cmd.Env = s.Env
	}

	_, stderr, code, err := c.executor.Run(cmd)
	if err != nil || code != 0 {
		c.logger.Infof("flutter version check failed (code %d): %v %s", code, err, strings.TrimSpace(stderr))
		c.stats.Counter("not_found").Inc(1)
		return "", nil
	}

	c.resolved = name
	c.stats.Counter("resolved").Inc(1)
	return c.resolved, nil
}

func (c *controller) Prompt(ctx context.Context) (string, error) {
	candidates := []string{}

	result, err := c.ideGateway.Configuration(ctx, &protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{Section: SettingSdkPath}},
	})
	if err != nil {
		c.logger.Warnf("reading %s from client: %s", SettingSdkPath, err)
	} else if len(result) > 0 {
		if value, ok := result[0].(string); ok && value != "" {
			candidates = append(candidates, value)
		}
	}
	if c.configuredSdkPath != "" {
		candidates = append(candidates, c.configuredSdkPath)
	}

	for _, candidate := range candidates {
		if c.isSdkPath(candidate) {
			return candidate, nil
		}
		c.logger.Warnf("ignoring %q: no flutter executable found under bin", candidate)
	}
	return "", nil
}

// isSdkPath reports whether dir looks like a Flutter SDK installation.
func (c *controller) isSdkPath(dir string) bool {
	executable := c.flutterExecutable
	if filepath.IsAbs(executable) {
		executable = filepath.Base(executable)
	}

	names := []string{executable}
	if c.goos == "windows" {
		names = append(names, executable+".bat")
	}
	for _, name := range names {
		exists, err := c.fs.FileExists(filepath.Join(dir, "bin", name))
		if err == nil && exists {
			return true
		}
	}
	return false
}
