// Package pubspec inspects pubspec.yaml manifests of Dart packages.
package pubspec

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// FileName is the manifest file name of a Dart package.
	FileName = "pubspec.yaml"

	_maxConcurrentReads = 8
)

// _buildRunnerPattern matches a build_runner key anywhere in the manifest.
var _buildRunnerPattern = regexp.MustCompile(`build_runner\s*:`)

// Module provides the manifest detector.
var Module = fx.Provide(New)

// Detector reports whether Dart packages depend on build_runner.
type Detector interface {
	// HasBuildRunner reports whether the pubspec.yaml in dir declares build_runner. A missing or unreadable manifest reports false.
	HasBuildRunner(dir string) bool
	// Supported returns the folders which declare build_runner, keeping their order.
	Supported(ctx context.Context, folders []entity.WorkspaceFolder) ([]entity.WorkspaceFolder, error)
}

// Params are inbound parameters to create a Detector.
type Params struct {
	fx.In

	FS     fs.BrlspFS
	Logger *zap.SugaredLogger
}

type detector struct {
	fs     fs.BrlspFS
	logger *zap.SugaredLogger
}

// New creates a Detector.
func New(p Params) Detector {
	return &detector{
		fs:     p.FS,
		logger: p.Logger,
	}
}

func (d *detector) HasBuildRunner(dir string) bool {
	content, err := d.fs.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return false
	}
	if !declaresBuildRunner(content) {
		d.logger.Debugw("no build_runner key in manifest", zap.String("dir", dir))
		return false
	}
	return true
}

func (d *detector) Supported(ctx context.Context, folders []entity.WorkspaceFolder) ([]entity.WorkspaceFolder, error) {
	found := make([]bool, len(folders))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(_maxConcurrentReads)
	for i, folder := range folders {
		i, folder := i, folder
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found[i] = d.HasBuildRunner(folder.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]entity.WorkspaceFolder, 0, len(folders))
	for i, folder := range folders {
		if found[i] {
			result = append(result, folder)
		}
	}
	return result, nil
}

// declaresBuildRunner is a text match on the manifest, so commented-out or quoted keys count too.
func declaresBuildRunner(content []byte) bool {
	return _buildRunnerPattern.Match(content)
}
