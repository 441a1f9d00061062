// Package versions keeps the project version in sync across CMakeLists.txt
// and vcpkg.json.
//
// CMakeLists.txt is the source of truth: Current always reads it back.
package versions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/internal/vcs"
	"github.com/broadsword-framework/broadsword/pkgs/version"
)

const (
	CMakeFile    = "CMakeLists.txt"
	ManifestFile = "vcpkg.json"
)

// ErrVersionNotFound means CMakeLists.txt has no "project(<Name> VERSION x.y.z"
// declaration.
var ErrVersionNotFound = errors.New("could not find version in " + CMakeFile)

// CommitMessage is the commit subject recorded for a version bump.
func CommitMessage(v version.Version) string {
	return "chore: bump version to " + v.String()
}

// Manager reads and writes the project version.
type Manager struct {
	root   string
	read   *regexp.Regexp
	write  *regexp.Regexp
	vcs    vcs.VCS
	report *ui.Reporter
	log    zerolog.Logger
}

// New returns a Manager for the project named project rooted at root.
// Commits go through repo.
func New(root, project string, repo vcs.VCS, report *ui.Reporter) *Manager {
	name := regexp.QuoteMeta(project)
	return &Manager{
		root:   root,
		read:   regexp.MustCompile(`project\(` + name + ` VERSION ([\d.]+)`),
		write:  regexp.MustCompile(`(project\(` + name + ` VERSION )[\d.]+`),
		vcs:    repo,
		report: report,
		log:    log.WithComponent("version"),
	}
}

func (m *Manager) cmakePath() string    { return filepath.Join(m.root, CMakeFile) }
func (m *Manager) manifestPath() string { return filepath.Join(m.root, ManifestFile) }

// Current returns the version declared in CMakeLists.txt.
func (m *Manager) Current() (version.Version, error) {
	data, err := os.ReadFile(m.cmakePath())
	if err != nil {
		return version.Version{}, fmt.Errorf("read %s: %w", CMakeFile, err)
	}
	match := m.read.FindSubmatch(data)
	if match == nil {
		return version.Version{}, ErrVersionNotFound
	}
	return version.Parse(string(match[1]))
}

// ManifestVersion returns the "version" field of vcpkg.json.
func (m *Manager) ManifestVersion() (version.Version, error) {
	data, err := os.ReadFile(m.manifestPath())
	if err != nil {
		return version.Version{}, err
	}
	obj, err := parseObject(data)
	if err != nil {
		return version.Version{}, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	var v version.Version
	ok, err := obj.Get("version", &v)
	if err != nil {
		return version.Version{}, fmt.Errorf("%s version: %w", ManifestFile, err)
	}
	if !ok {
		return version.Version{}, fmt.Errorf("%s has no version field", ManifestFile)
	}
	return v, nil
}

// Set writes v into both files and, if commit is set, stages exactly those
// two files and commits them. A failed commit is returned but the files stay
// edited.
func (m *Manager) Set(ctx context.Context, v version.Version, commit bool) error {
	m.report.Section("Updating Version to %s", v)

	old, err := m.Current()
	if err != nil {
		return err
	}
	m.report.Info("Current version: %s", old)
	m.report.Info("New version: %s", v)

	// Both inputs are read and checked before either file is touched.
	cmake, err := os.ReadFile(m.cmakePath())
	if err != nil {
		return fmt.Errorf("read %s: %w", CMakeFile, err)
	}
	manifestData, err := os.ReadFile(m.manifestPath())
	if err != nil {
		return fmt.Errorf("read %s: %w", ManifestFile, err)
	}
	manifest, err := parseObject(manifestData)
	if err != nil {
		return fmt.Errorf("parse %s: %w", ManifestFile, err)
	}

	cmake = m.write.ReplaceAll(cmake, []byte("${1}"+v.String()))
	if err := fsutil.WriteFileAtomic(m.cmakePath(), cmake, 0o644); err != nil {
		return fmt.Errorf("update %s: %w", CMakeFile, err)
	}
	m.report.Success("Updated %s", CMakeFile)

	if err := manifest.Set("version", v); err != nil {
		return fmt.Errorf("update %s: %w", ManifestFile, err)
	}
	out, err := manifest.format()
	if err != nil {
		return fmt.Errorf("update %s: %w", ManifestFile, err)
	}
	if err := fsutil.WriteFileAtomic(m.manifestPath(), out, 0o644); err != nil {
		return fmt.Errorf("update %s: %w", ManifestFile, err)
	}
	m.report.Success("Updated %s", ManifestFile)
	m.log.Info().Stringer("from", old).Stringer("to", v).Msg("version updated")

	if !commit {
		return nil
	}
	return m.commit(ctx, old, v)
}

func (m *Manager) commit(ctx context.Context, old, v version.Version) error {
	m.report.Step("Creating git commit")
	if err := m.vcs.Add(ctx, m.root, CMakeFile, ManifestFile); err != nil {
		return m.report.Fail(err, "Could not stage version files: %v", err)
	}
	if err := m.vcs.Commit(ctx, m.root, CommitMessage(v)); err != nil {
		err = m.report.Fail(err, "Could not commit version bump: %v", err)
		m.report.Info("Files were updated; commit them manually")
		return err
	}
	m.report.Success("Committed version bump: %s → %s", old, v)
	return nil
}
