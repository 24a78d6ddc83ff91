package workspaceutils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/internal/executor"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_dirEnvDeniedSubstring = "Run `direnv allow` to approve its content"

	// Loads the direnv environment when direnv is installed, then prints the resulting environment.
	_getEnvScript = `
		set -e
		if command -v direnv >/dev/null 2>&1; then
			output=$(direnv export bash)
			eval "$output"
		fi
		env
	`
)

// Module provides a new WorkspaceUtils.
var Module = fx.Provide(New)

// WorkspaceUtils is a utility interface for getting workspace related information.
type WorkspaceUtils interface {
	// ProjectFolders returns the workspace folders of the session in the context that contain a pubspec.yaml.
	ProjectFolders(ctx context.Context) ([]entity.WorkspaceFolder, error)
	// IsProjectFolder reports whether the folder contains a pubspec.yaml.
	IsProjectFolder(folder entity.WorkspaceFolder) bool
	// FolderForPath returns the innermost workspace folder of the session in the context that contains path, or nil.
	FolderForPath(ctx context.Context, path string) (*entity.WorkspaceFolder, error)
	// GetEnv returns the environment that processes started in dir should use.
	GetEnv(ctx context.Context, dir string) ([]string, error)
}

// Params are the parameters required to create a new WorkspaceUtils.
type Params struct {
	fx.In

	Sessions session.Repository
	Logger   *zap.SugaredLogger
	FS       fs.BrlspFS
	Executor executor.Executor
}

type workspaceUtilsImpl struct {
	sessions session.Repository
	logger   *zap.SugaredLogger
	fs       fs.BrlspFS
	executor executor.Executor
	goos     string
}

// New creates a new WorkspaceUtils.
func New(p Params) WorkspaceUtils {
	return &workspaceUtilsImpl{
		sessions: p.Sessions,
		logger:   p.Logger,
		fs:       p.FS,
		executor: p.Executor,
		goos:     runtime.GOOS,
	}
}

func (c *workspaceUtilsImpl) ProjectFolders(ctx context.Context) ([]entity.WorkspaceFolder, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	result := make([]entity.WorkspaceFolder, 0, len(s.WorkspaceFolders))
	for _, folder := range s.WorkspaceFolders {
		if c.IsProjectFolder(folder) {
			result = append(result, folder)
		}
	}
	return result, nil
}

func (c *workspaceUtilsImpl) IsProjectFolder(folder entity.WorkspaceFolder) bool {
	if folder.Path == "" {
		return false
	}

	exists, err := c.fs.FileExists(filepath.Join(folder.Path, pubspec.FileName))
	if err != nil {
		c.logger.Warnf("checking for %s in %q: %s", pubspec.FileName, folder.Path, err)
		return false
	}
	return exists
}

func (c *workspaceUtilsImpl) FolderForPath(ctx context.Context, path string) (*entity.WorkspaceFolder, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	var best *entity.WorkspaceFolder
	for i := range s.WorkspaceFolders {
		folder := s.WorkspaceFolders[i]
		if !contains(folder.Path, path) {
			continue
		}
		if best == nil || len(folder.Path) > len(best.Path) {
			best = &folder
		}
	}
	return best, nil
}

func (c *workspaceUtilsImpl) GetEnv(ctx context.Context, dir string) ([]string, error) {
	if c.goos == "windows" {
		return os.Environ(), nil
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", _getEnvScript)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	stdout, stderr, _, err := c.executor.Run(cmd)
	if err != nil {
		if strings.Contains(stderr, _dirEnvDeniedSubstring) {
			return nil, fmt.Errorf("please run `direnv allow` inside %s to approve the latest .envrc content, then reload this window", dir)
		}

		return nil, fmt.Errorf("loading environment: %w", err)
	}

	result := strings.Split(strings.TrimSpace(stdout), "\n")
	return result, nil
}

// contains reports whether path is root or lies below it, using the same case rules as folder identity.
func contains(root string, path string) bool {
	rootKey := string(entity.NewFolderKey(root))
	pathKey := string(entity.NewFolderKey(path))
	if rootKey == pathKey {
		return true
	}
	rel, err := filepath.Rel(rootKey, pathKey)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
