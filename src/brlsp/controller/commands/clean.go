package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
)

const (
	_msgCleanCompleted   = "Build runner cache cleaned."
	_fmtCleanRunning     = "build_runner clean is already running for %s."
	_fmtCleanFailed      = "Build runner clean failed with code %s."
	_fmtCleanStartFailed = "Failed to run build_runner clean: %s"
)

var _cleanArgs = []string{"run", "build_runner", "clean"}

// clean removes the build_runner cache of the folder named by the first argument, or of a folder chosen by the user.
func (c *controller) clean(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	candidates, err := c.workspaceUtils.ProjectFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing project folders: %w", err)
	}
	supported, err := c.detector.Supported(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("detecting build_runner: %w", err)
	}

	if len(supported) == 0 {
		if len(candidates) > 0 {
			return nil, brlsperrors.NoBuildRunnerError
		}
		return nil, brlsperrors.NoDartProjectError
	}

	var folder *entity.WorkspaceFolder
	if len(args) > 0 {
		folder, err = findTargetFolder(supported, candidates, parseFolderTarget(args[0]))
	} else {
		folder, err = c.chooseFolder(ctx, supported, map[entity.FolderKey]bool{})
	}
	if err != nil {
		return nil, err
	}

	if _, err := c.flutterSDK.Ensure(ctx); err != nil {
		return nil, err
	}

	token, ok := c.pending.Reserve(s.UUID, CommandClean, string(folder.Key()))
	if !ok {
		c.showInfo(ctx, fmt.Sprintf(_fmtCleanRunning, folder.Name))
		return nil, nil
	}

	outputPrefix := fmt.Sprintf("[build_runner:%s]: ", folder.Name)
	if err := c.resetOutput(ctx); err != nil {
		c.pending.Delete(token)
		return nil, err
	}
	if err := c.appendLines(ctx, outputPrefix+"cleaning build cache", ""); err != nil {
		c.pending.Delete(token)
		return nil, err
	}

	err = c.runOneShot(ctx, s, token, oneShotRun{
		folder:         *folder,
		args:           _cleanArgs,
		title:          "build_runner clean",
		message:        folder.Name,
		outputPrefix:   outputPrefix,
		errorPrefix:    fmt.Sprintf("[build_runner error:%s]: ", folder.Name),
		successMessage: _msgCleanCompleted,
		failureFormat:  _fmtCleanFailed,
		stats:          c.stats.SubScope("clean"),
	})
	if err != nil {
		c.showError(ctx, fmt.Sprintf(_fmtCleanStartFailed, err.Error()))
	}
	return nil, nil
}

// chooseFolder uses the only folder directly and asks the user to pick one otherwise.
func (c *controller) chooseFolder(ctx context.Context, folders []entity.WorkspaceFolder, watching map[entity.FolderKey]bool) (*entity.WorkspaceFolder, error) {
	if len(folders) == 1 {
		return &folders[0], nil
	}

	folder, err := c.picker.Pick(ctx, folders, watching)
	if err != nil {
		return nil, fmt.Errorf("picking folder: %w", err)
	}
	if folder == nil {
		return nil, brlsperrors.SelectionCancelledError
	}
	return folder, nil
}
