// Package fsutil holds the file operations shared by the builder, deployer
// and release packager.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/copy"
)

// AtomicFile is a file that replaces its target path only on Commit.
// Cleanup is safe to call after Commit and removes the temporary file
// otherwise.
type AtomicFile interface {
	io.Writer
	Commit() error
	Cleanup() error
}

// WriteFileAtomic replaces path with data. Readers see either the old or the
// new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	f, err := CreateAtomic(path, perm)
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Commit()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// CopyFile copies a single file, preserving mode and modification time.
func CopyFile(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("copy %s: is a directory", src)
	}
	return copy.Copy(src, dst, copy.Options{PreserveTimes: true})
}

// CopyTree copies the directory src into dst, merging with whatever dst
// already contains.
func CopyTree(src, dst string) error {
	return copy.Copy(src, dst, copy.Options{
		PreserveTimes: true,
		OnDirExists: func(src, dest string) copy.DirExistsAction {
			return copy.Merge
		},
	})
}

// Glob returns the regular files directly inside dir whose extension matches
// ext (case-insensitive, with the leading dot), sorted by name. A missing dir
// yields no files and no error.
func Glob(dir, ext string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []os.DirEntry
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		files = append(files, e)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files, nil
}
