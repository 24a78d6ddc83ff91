package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp")
	fs := New()
	dir, err := fs.UserCacheDir()
	assert.NoError(t, err)
	assert.NotEmpty(t, dir)
}

func TestMkdirAll(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	err := fs.MkdirAll(filepath.Join(dir, "foo", "bar"))
	assert.NoError(t, err)
}

func TestDirExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.DirExists(dir)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.DirExists(dir + "foo")
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "pubspec.yaml")
		require.NoError(t, os.WriteFile(file, []byte("name: app"), 0666))
		result, err := New().DirExists(file)
		assert.NoError(t, err)
		assert.False(t, result)
	})
}

func TestFileExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "foo.g.dart")
		require.NoError(t, os.WriteFile(file, []byte("part of 'foo.dart';"), 0666))
		fs := New()
		result, err := fs.FileExists(file)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		fs := New()
		result, err := fs.FileExists(filepath.Join(t.TempDir(), "foo.g.dart"))
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("directory", func(t *testing.T) {
		fs := New()
		result, err := fs.FileExists(t.TempDir())
		assert.NoError(t, err)
		assert.False(t, result)
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a")
	os.WriteFile(file, []byte("contents"), 0666)
	fs := New()
	result, err := fs.ReadFile(file)
	assert.NoError(t, err)
	assert.Equal(t, "contents", string(result))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a")
	fs := New()
	err := fs.WriteFile(file, "data")
	assert.NoError(t, err)
	result, _ := os.ReadFile(file)
	assert.Equal(t, "data", string(result))
}

func TestTempFile(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	result, err := fs.TempFile(dir, "foo")
	require.NoError(t, err)
	defer result.Close()
	assert.True(t, strings.HasPrefix(result.Name(), filepath.Join(dir, "foo")))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a")
	os.WriteFile(file, []byte("contents"), 0666)
	fs := New()
	err := fs.Remove(file)
	assert.NoError(t, err)
}

func TestExistsFunc(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lib", "foo.g.dart")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), os.ModePerm))
	require.NoError(t, os.WriteFile(file, nil, 0666))

	exists := ExistsFunc(New())
	assert.True(t, exists(file))
	assert.False(t, exists(filepath.Join(dir, "lib", "foo.freezed.dart")))
	assert.False(t, exists(filepath.Join(dir, "lib")))
}
