package probe

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/ui"
)

// Detector locates an installation directory. Detection is best-effort:
// implementations report "not found" instead of failing.
type Detector interface {
	Detect() (path string, ok bool)
}

// Chain tries each detector in order; the first hit wins.
type Chain []Detector

func (c Chain) Detect() (string, bool) {
	for _, d := range c {
		if path, ok := d.Detect(); ok {
			return path, true
		}
	}
	return "", false
}

// FixedPaths returns the first path that is an existing directory.
type FixedPaths []string

func (f FixedPaths) Detect() (string, bool) {
	for _, path := range f {
		if fsutil.IsDir(path) {
			return path, true
		}
	}
	return "", false
}

// errNoRegistry means the platform has no Steam registry to consult.
var errNoRegistry = errors.New("steam registry not available on this platform")

// Steam finds the game below the Steam install root and then below every
// additional library folder Steam knows about.
type Steam struct {
	// Root returns the Steam install root.
	Root func() (string, error)
	// Subpath is the game's binaries directory relative to a library root.
	Subpath string
	// Warn receives lookup failures. May be nil.
	Warn func(error)
}

func (s Steam) Detect() (string, bool) {
	root, err := s.Root()
	if err != nil {
		if !errors.Is(err, errNoRegistry) {
			s.warn(err)
		}
		return "", false
	}

	if path := filepath.Join(root, s.Subpath); fsutil.IsDir(path) {
		return path, true
	}

	libraries, err := readLibraryFolders(filepath.Join(root, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn(err)
		}
		return "", false
	}
	for _, lib := range libraries {
		if path := filepath.Join(lib, s.Subpath); fsutil.IsDir(path) {
			return path, true
		}
	}
	return "", false
}

func (s Steam) warn(err error) {
	if s.Warn != nil {
		s.Warn(err)
	}
}

var vdfPathRE = regexp.MustCompile(`"path"\s+"([^"]+)"`)

// readLibraryFolders extracts the "path" values of a Steam
// libraryfolders.vdf file, in file order.
func readLibraryFolders(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return parseLibraryFolders(string(data)), nil
}

func parseLibraryFolders(content string) []string {
	var paths []string
	for _, m := range vdfPathRE.FindAllStringSubmatch(content, -1) {
		// VDF escapes backslashes.
		paths = append(paths, strings.ReplaceAll(m[1], `\\`, `\`))
	}
	return paths
}

// DefaultDetector returns the detection order: the Steam registry root and
// its library folders, then project-configured paths, then the default
// Steam install locations.
func DefaultDetector(cfg *env.Config, report *ui.Reporter) Detector {
	sub := cfg.Project.Game.SteamSubpath
	fixed := append(FixedPaths(nil), cfg.Project.Game.Paths...)
	fixed = append(fixed,
		filepath.Join("C:/Program Files (x86)/Steam", sub),
		filepath.Join("C:/Program Files/Steam", sub),
	)
	return Chain{
		Steam{
			Root:    steamRoot,
			Subpath: sub,
			Warn: func(err error) {
				report.Warning("Could not read Steam registry: %v", err)
			},
		},
		fixed,
	}
}
