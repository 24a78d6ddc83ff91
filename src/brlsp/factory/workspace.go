package factory

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const (
	_pubspecWithBuildRunner = `name: %s
environment:
  sdk: ">=3.0.0 <4.0.0"
dependencies:
  json_annotation: ^4.8.0
dev_dependencies:
  build_runner: ^2.4.0
  json_serializable: ^6.7.0
`
	_pubspecWithoutBuildRunner = `name: %s
environment:
  sdk: ">=3.0.0 <4.0.0"
dependencies:
  http: ^1.1.0
`
)

// WorkspaceFolder returns a WorkspaceFolder entity for a random path under /tmp.
func WorkspaceFolder() entity.WorkspaceFolder {
	name := fmt.Sprintf("app_%d", rand.Intn(100000))
	path := filepath.Join(os.TempDir(), name)
	return entity.WorkspaceFolder{
		URI:  uri.File(path),
		Name: name,
		Path: path,
	}
}

// WorkspaceFolderAt returns a WorkspaceFolder entity for path, named after its last element.
func WorkspaceFolderAt(path string) entity.WorkspaceFolder {
	return entity.WorkspaceFolder{
		URI:  uri.File(path),
		Name: filepath.Base(path),
		Path: path,
	}
}

// DartProject creates a Dart project folder inside a test temp directory and returns it as a WorkspaceFolder.
func DartProject(t testing.TB, name string, withBuildRunner bool) entity.WorkspaceFolder {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(dir, "lib"), os.ModePerm); err != nil {
		t.Fatalf("creating project dir: %v", err)
	}

	template := _pubspecWithoutBuildRunner
	if withBuildRunner {
		template = _pubspecWithBuildRunner
	}
	if err := os.WriteFile(filepath.Join(dir, "pubspec.yaml"), []byte(fmt.Sprintf(template, name)), 0644); err != nil {
		t.Fatalf("writing pubspec: %v", err)
	}

	return entity.WorkspaceFolder{
		URI:  uri.File(dir),
		Name: name,
		Path: dir,
	}
}

// ProtocolWorkspaceFolder maps a WorkspaceFolder entity back to its protocol form.
func ProtocolWorkspaceFolder(f entity.WorkspaceFolder) protocol.WorkspaceFolder {
	return protocol.WorkspaceFolder{
		URI:  string(f.URI),
		Name: f.Name,
	}
}

// DartDocument returns an opened Dart text document with the given path and contents.
func DartDocument(path string, text string) protocol.TextDocumentItem {
	return protocol.TextDocumentItem{
		URI:        protocol.DocumentURI(uri.File(path)),
		LanguageID: "dart",
		Version:    1,
		Text:       text,
	}
}
