// Package userenv persists variables into the user's environment so they
// survive the current process.
package userenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/broadsword-framework/broadsword/internal/fsutil"
)

// Store persists user environment variables.
type Store interface {
	Persist(key, value string) error
	// Location describes where values go, for user-facing messages.
	Location() string
}

// File stores variables in a dotenv file that env.Load reads back.
type File struct {
	Path string
}

var _ Store = File{}

func (f File) Location() string { return f.Path }

// Persist sets key in the file, keeping every other variable already there.
func (f File) Persist(key, value string) error {
	if key == "" {
		return errors.New("empty variable name")
	}
	vars, err := godotenv.Read(f.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", f.Path, err)
		}
		vars = map[string]string{}
	}
	vars[key] = value

	content, err := godotenv.Marshal(vars)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(f.Path, []byte(content+"\n"), 0o600)
}
