package mapper

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const _fileScheme = "file"

// WorkspaceFolderToEntity maps a protocol.WorkspaceFolder to a WorkspaceFolder entity.
// Only local folders are supported, since build_runner has to be launched inside them.
func WorkspaceFolderToEntity(folder protocol.WorkspaceFolder) (entity.WorkspaceFolder, error) {
	path, err := FileURIToPath(folder.URI)
	if err != nil {
		return entity.WorkspaceFolder{}, fmt.Errorf("mapping workspace folder: %w", err)
	}

	name := folder.Name
	if name == "" {
		name = filepath.Base(path)
	}

	return entity.WorkspaceFolder{
		URI:  uri.URI(folder.URI),
		Name: name,
		Path: path,
	}, nil
}

// FileURIToPath returns the local path of a file URI.
func FileURIToPath(value string) (string, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parsing uri %q: %w", value, err)
	}
	if parsed.Scheme != _fileScheme {
		return "", fmt.Errorf("%q is not a local file uri", value)
	}
	return uri.URI(value).Filename(), nil
}

// WorkspaceFoldersToEntities maps each local protocol.WorkspaceFolder to an entity, dropping folders that cannot be mapped.
// Duplicates by folder identity are collapsed, keeping the first occurrence.
func WorkspaceFoldersToEntities(folders []protocol.WorkspaceFolder) (result []entity.WorkspaceFolder, skipped []string) {
	seen := make(map[entity.FolderKey]struct{})
	result = []entity.WorkspaceFolder{}
	for _, folder := range folders {
		f, err := WorkspaceFolderToEntity(folder)
		if err != nil {
			skipped = append(skipped, folder.URI)
			continue
		}
		if _, ok := seen[f.Key()]; ok {
			continue
		}
		seen[f.Key()] = struct{}{}
		result = append(result, f)
	}
	return result, skipped
}
