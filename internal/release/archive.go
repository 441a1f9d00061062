package release

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/broadsword-framework/broadsword/internal/fsutil"
)

// zipDir writes a zip archive at dest holding srcDir itself, so every entry
// is rooted at filepath.Base(srcDir). An existing archive is replaced only
// once the new one is complete.
func zipDir(srcDir, dest string) (err error) {
	f, err := fsutil.CreateAtomic(dest, 0o644)
	if err != nil {
		return err
	}
	defer f.Cleanup()

	w := zip.NewWriter(f)
	parent := filepath.Dir(srcDir)
	err = filepath.Walk(srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(parent, p)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
			_, err = w.CreateHeader(header)
			return err
		}
		header.Method = zip.Deflate

		writer, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(p)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(writer, file)
		return err
	})
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Commit()
}
