package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
)

type watchAction int

const (
	watchToggle watchAction = iota
	watchStart
	watchStop
)

func (c *controller) toggleWatch(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	return nil, c.runWatchAction(ctx, args, watchToggle)
}

func (c *controller) startWatch(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	return nil, c.runWatchAction(ctx, args, watchStart)
}

func (c *controller) stopWatch(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	return nil, c.runWatchAction(ctx, args, watchStop)
}

// runWatchAction resolves the target project folder, then starts or stops its watch session.
// Watch outcomes are reported to the user by the watch controller itself.
func (c *controller) runWatchAction(ctx context.Context, args []json.RawMessage, action watchAction) error {
	folders, err := c.workspaceUtils.ProjectFolders(ctx)
	if err != nil {
		return fmt.Errorf("listing project folders: %w", err)
	}
	if len(folders) == 0 {
		return brlsperrors.NoDartWorkspaceError
	}

	var folder *entity.WorkspaceFolder
	switch {
	case len(args) > 0:
		folder, err = findTargetFolder(folders, nil, parseFolderTarget(args[0]))
	case len(folders) == 1:
		folder = &folders[0]
	default:
		folder, err = c.chooseFolder(ctx, folders, c.watchingFolders())
	}
	if err != nil {
		return err
	}

	watching := c.watch.IsWatching(*folder)
	if action == watchStop || (action == watchToggle && watching) {
		if !watching {
			return nil
		}
		if err := c.watch.Stop(ctx, *folder, false); err != nil {
			c.logger.Warnf("stopping watch for %q: %s", folder.Path, err)
		}
		return nil
	}
	if watching {
		return nil
	}

	if _, err := c.flutterSDK.Ensure(ctx); err != nil {
		return err
	}
	if err := c.watch.Start(ctx, *folder, false); err != nil {
		c.logger.Warnf("starting watch for %q: %s", folder.Path, err)
	}
	return nil
}

func (c *controller) watchingFolders() map[entity.FolderKey]bool {
	result := make(map[entity.FolderKey]bool)
	for _, s := range c.watch.GetActiveSessions() {
		result[s.Folder.Key()] = true
	}
	return result
}
