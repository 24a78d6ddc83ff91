package commands

import (
	"encoding/json"
	"strings"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
)

// folderTarget is the folder named by a command argument.
type folderTarget struct {
	URI  string
	Path string
}

// label is used in messages about a target that cannot be used.
func (t *folderTarget) label() string {
	if t.Path != "" {
		return t.Path
	}
	return t.URI
}

// parseFolderTarget accepts a folder URI string, an object with uri, path or fsPath fields,
// or an object wrapping such a folder under a folder field. Nil is returned for anything else.
func parseFolderTarget(raw json.RawMessage) *folderTarget {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return &folderTarget{URI: v}
	case map[string]interface{}:
		if t := folderLike(v); t != nil {
			return t
		}
		if nested, ok := v["folder"].(map[string]interface{}); ok {
			return folderLike(nested)
		}
	}
	return nil
}

func folderLike(v map[string]interface{}) *folderTarget {
	t := &folderTarget{}
	if s, ok := v["uri"].(string); ok {
		t.URI = s
	}
	if s, ok := v["path"].(string); ok {
		t.Path = s
	}
	if t.Path == "" {
		if s, ok := v["fsPath"].(string); ok {
			t.Path = s
		}
	}

	if t.URI == "" && t.Path == "" {
		return nil
	}
	return t
}

// findTargetFolder matches target against supported folders by URI, then by path ignoring case.
// When nothing matches, the returned FolderNotFoundError tells whether the target is at least one of the candidates.
func findTargetFolder(supported []entity.WorkspaceFolder, candidates []entity.WorkspaceFolder, target *folderTarget) (*entity.WorkspaceFolder, error) {
	if target == nil {
		return nil, &brlsperrors.FolderNotFoundError{}
	}

	if match := matchFolder(supported, target); match != nil {
		return match, nil
	}

	return nil, &brlsperrors.FolderNotFoundError{
		Label:           target.label(),
		CandidateExists: matchFolder(candidates, target) != nil,
	}
}

func matchFolder(folders []entity.WorkspaceFolder, target *folderTarget) *entity.WorkspaceFolder {
	if target.URI != "" {
		for i := range folders {
			if string(folders[i].URI) == target.URI {
				return &folders[i]
			}
		}
	}

	if target.Path != "" {
		path := strings.ToLower(target.Path)
		for i := range folders {
			if strings.ToLower(folders[i].Path) == path {
				return &folders[i]
			}
		}
	}
	return nil
}

// argumentsToRaw converts executeCommand arguments into raw JSON, skipping null values.
func argumentsToRaw(args []interface{}) []json.RawMessage {
	result := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		var raw json.RawMessage
		switch v := arg.(type) {
		case []byte:
			raw = v
		case json.RawMessage:
			raw = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			raw = b
		}
		if string(raw) == "null" {
			continue
		}
		result = append(result, raw)
	}
	return result
}
