//go:build !windows

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

type pendingFile struct {
	*renameio.PendingFile
}

func (p pendingFile) Commit() error {
	// fsync + rename
	if err := p.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", filepath.Base(p.Name()), err)
	}
	return nil
}

// CreateAtomic opens a pending file for path. New files get perm; existing
// files keep their permissions.
func CreateAtomic(path string, perm os.FileMode) (AtomicFile, error) {
	f, err := renameio.NewPendingFile(path,
		renameio.WithPermissions(perm),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return nil, fmt.Errorf("create pending file for %s: %w", filepath.Base(path), err)
	}
	return pendingFile{f}, nil
}
