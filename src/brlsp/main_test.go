package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	buildfilter "github.com/dart-tools/brlsp/src/brlsp/internal/build-filter"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/goleak"
)

func TestDependenciesAreSatisfied(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(opts()))
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestFiltersCommand(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, "pubspec.yaml"), "name: app\ndev_dependencies:\n  build_runner: ^2.4.0\n")
	document := filepath.Join(project, "lib", "models", "user.dart")
	writeFile(t, document, "part 'user.g.dart';\npart 'user.freezed.dart';\n")
	writeFile(t, filepath.Join(project, "lib", "models", "user.g.dart"), "")

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"filters", document})
		require.NoError(t, cmd.Execute())

		var resolution buildfilter.Resolution
		require.NoError(t, json.Unmarshal(out.Bytes(), &resolution))
		assert.Equal(t, "lib/models/user.dart", resolution.RelativeDocumentPath)
		assert.Equal(t, []string{"lib/models/user.g.dart", "lib/models/user.freezed.dart"}, resolution.BuildFilters)
		assert.Equal(t, []string{"lib/models/user.freezed.dart"}, resolution.MissingFilters)
	})

	t.Run("args", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"filters", document, "--args", "--root", project})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, "--build-filter lib/models/user.g.dart --build-filter lib/models/user.freezed.dart\n", out.String())
	})

	t.Run("outside root", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"filters", document, "--root", t.TempDir()})
		assert.Error(t, cmd.Execute())
	})

	t.Run("root is not a directory", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"filters", document, "--root", filepath.Join(project, "pubspec.yaml")})
		assert.ErrorContains(t, cmd.Execute(), "is not a directory")
	})

	t.Run("root does not exist", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"filters", document, "--root", filepath.Join(project, "nowhere")})
		assert.ErrorContains(t, cmd.Execute(), "is not a directory")
	})

	t.Run("missing file", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"filters", filepath.Join(project, "lib", "missing.dart")})
		assert.Error(t, cmd.Execute())
	})
}

func TestFindProjectRoot(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, "pubspec.yaml"), "name: app\n")
	nested := filepath.Join(project, "lib", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := findProjectRoot(fs.New(), nested)
	require.NoError(t, err)
	assert.Equal(t, project, root)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
