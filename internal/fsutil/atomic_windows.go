//go:build windows

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// tempFile replaces its target with a temp file + rename. Windows has no
// fsync-before-rename guarantee, so this is best-effort atomic.
type tempFile struct {
	*os.File
	target string
	done   bool
}

func (t *tempFile) Commit() error {
	if err := t.File.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", filepath.Base(t.target), err)
	}
	if err := os.Rename(t.File.Name(), t.target); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(t.target), err)
	}
	t.done = true
	return nil
}

func (t *tempFile) Cleanup() error {
	if t.done {
		return nil
	}
	t.done = true
	t.File.Close()
	return os.Remove(t.File.Name())
}

func CreateAtomic(path string, perm os.FileMode) (AtomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	_ = f.Chmod(perm)
	return &tempFile{File: f, target: path}, nil
}
