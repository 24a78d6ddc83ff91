package fs

import (
	"os"
	"path/filepath"

	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// BrlspFS wraps the filesystem operations used by brlsp.
type BrlspFS interface {
	UserCacheDir() (string, error)
	MkdirAll(path string) error
	DirExists(path string) (bool, error)
	FileExists(path string) (bool, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data string) error
	TempFile(dir, pattern string) (*os.File, error)
	Remove(name string) error
}

type fsImpl struct{}

// New creates a new BrlspFS.
func New() BrlspFS {
	return fsImpl{}
}

// UserCacheDir returns the user's cache directory.
func (fsImpl) UserCacheDir() (string, error) { return os.UserCacheDir() }

// MkdirAll creates a directory and all its parents.
func (fsImpl) MkdirAll(path string) error { return os.MkdirAll(path, os.ModePerm) }

func (fsImpl) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (fsImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (fsImpl) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (fsImpl) WriteFile(name string, data string) error {
	return os.WriteFile(name, []byte(data), 0644)
}

func (fsImpl) TempFile(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func (fsImpl) Remove(name string) error {
	return os.Remove(name)
}

// ExistsFunc adapts FileExists into a predicate, treating stat errors as absence.
func ExistsFunc(f BrlspFS) func(path string) bool {
	return func(path string) bool {
		ok, err := f.FileExists(filepath.Clean(path))
		return err == nil && ok
	}
}
