package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	docsync "github.com/dart-tools/brlsp/src/brlsp/controller/doc-sync"
	buildfilter "github.com/dart-tools/brlsp/src/brlsp/internal/build-filter"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"go.lsp.dev/protocol"
)

const (
	_buildOutputPrefix = "[build_runner]: "
	_buildErrorPrefix  = "[build_runner error]: "

	_msgBuildCompleted   = "Build completed."
	_fmtBuildRunning     = "A build is already running for %s."
	_fmtBuildFailed      = "Build failed with code %s."
	_fmtBuildStartFailed = "Failed to run build_runner build: %s"
)

var _buildArgs = []string{"run", "build_runner", "build", "--delete-conflicting-outputs"}

// buildSelected runs a targeted build for the document named by the first argument, or the active document.
func (c *controller) buildSelected(ctx context.Context, args []json.RawMessage) (interface{}, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	doc, err := c.targetDocument(ctx, args)
	if err != nil {
		return nil, err
	}
	if doc == nil || !docsync.IsDartDocument(*doc) {
		return nil, brlsperrors.NoActiveDocumentError
	}
	documentPath := doc.URI.Filename()

	folder, err := c.workspaceUtils.FolderForPath(ctx, documentPath)
	if err != nil {
		return nil, fmt.Errorf("finding workspace folder: %w", err)
	}
	if folder == nil || !c.workspaceUtils.IsProjectFolder(*folder) {
		return nil, brlsperrors.NoDartProjectError
	}

	if _, err := c.flutterSDK.Ensure(ctx); err != nil {
		return nil, err
	}

	resolution := buildfilter.Resolve(buildfilter.Params{
		DocumentPath:  documentPath,
		DocumentText:  doc.Text,
		WorkspaceRoot: folder.Path,
		FileExists: func(path string) bool {
			ok, err := c.fs.FileExists(path)
			return err == nil && ok
		},
	})
	if resolution == nil {
		return nil, brlsperrors.NoDartProjectError
	}

	// A second request for the same file leaves the running build and its output alone.
	token, ok := c.pending.Reserve(s.UUID, CommandBuildSelected, documentPath)
	if !ok {
		c.showInfo(ctx, fmt.Sprintf(_fmtBuildRunning, resolution.RelativeDocumentPath))
		return nil, nil
	}
	handedOff := false
	defer func() {
		if !handedOff {
			c.pending.Delete(token)
		}
	}()

	stats := c.stats.SubScope("build")
	if err := c.resetOutput(ctx); err != nil {
		return nil, err
	}

	if len(resolution.BuildFilters) == 0 {
		stats.Counter("skipped").Inc(1)
		return resolution, c.appendLines(ctx,
			_buildOutputPrefix+"No generated file targets found for: "+resolution.RelativeDocumentPath,
			_buildOutputPrefix+`Add part directives (e.g. part "*.g.dart";) to enable targeted builds.`,
		)
	}

	lines := []string{
		_buildOutputPrefix + "Building generated files for: " + resolution.RelativeDocumentPath,
		"",
		_buildOutputPrefix + "Using build filters:",
	}
	for _, f := range resolution.BuildFilters {
		lines = append(lines, "  - "+f)
	}
	lines = append(lines, "")
	if len(resolution.MissingFilters) > 0 {
		lines = append(lines, _buildOutputPrefix+"Pending generated files will be created if needed:")
		for _, f := range resolution.MissingFilters {
			lines = append(lines, "  - "+f)
		}
		lines = append(lines, "")
	}
	if err := c.appendLines(ctx, lines...); err != nil {
		return nil, err
	}

	handedOff = true
	err = c.runOneShot(ctx, s, token, oneShotRun{
		folder:         *folder,
		args:           append(append([]string{}, _buildArgs...), resolution.Args()...),
		title:          "build_runner build",
		message:        resolution.RelativeDocumentPath,
		outputPrefix:   _buildOutputPrefix,
		errorPrefix:    _buildErrorPrefix,
		successMessage: _msgBuildCompleted,
		failureFormat:  _fmtBuildFailed,
		stats:          stats,
	})
	if err != nil {
		c.showError(ctx, fmt.Sprintf(_fmtBuildStartFailed, err.Error()))
		return nil, nil
	}
	return resolution, nil
}

// targetDocument returns the document named by the first argument, or the session's active document.
func (c *controller) targetDocument(ctx context.Context, args []json.RawMessage) (*protocol.TextDocumentItem, error) {
	if len(args) == 0 {
		return c.documents.GetActiveDocument(ctx)
	}

	path := documentPath(args[0])
	if path == "" {
		return nil, nil
	}
	return c.documents.OpenDocument(ctx, path)
}

// documentPath accepts a file URI or path string, or an object with a uri, path or fsPath field.
func documentPath(raw json.RawMessage) string {
	target := parseFolderTarget(raw)
	if target == nil {
		return ""
	}
	if target.Path != "" {
		return target.Path
	}
	if !strings.Contains(target.URI, ":") || filepath.IsAbs(target.URI) {
		return target.URI
	}
	path, err := mapper.FileURIToPath(target.URI)
	if err != nil {
		return ""
	}
	return path
}
