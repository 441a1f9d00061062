// Package release assembles a versioned release directory from the Release
// build, compresses it and tags the repository.
package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/internal/vcs"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
	"github.com/broadsword-framework/broadsword/pkgs/version"
)

// Dir is the releases folder under the project root.
const Dir = "releases"

// ErrNoReleaseBuild means the Release configuration has not been built.
var ErrNoReleaseBuild = errors.New("release build not found")

// Doc is a documentation file copied into every release.
type Doc struct {
	Source string // relative to the project root
	Name   string // name inside the release directory
}

// Docs is the fixed documentation set.
var Docs = []Doc{
	{"README.md", "README.md"},
	{filepath.Join("docs", "BUILD_TOOL.md"), "BUILD.md"},
}

// Current reports the project version.
type Current interface {
	Current() (version.Version, error)
}

// Manager creates release packages.
type Manager struct {
	cfg     *env.Config
	builder *build.Builder
	current Current
	vcs     vcs.VCS
	report  *ui.Reporter
	log     zerolog.Logger
}

// Result describes a created release.
type Result struct {
	Version version.Version
	Dir     string
	Archive string
	Tagged  bool
}

func New(cfg *env.Config, builder *build.Builder, current Current, repo vcs.VCS, report *ui.Reporter) *Manager {
	return &Manager{
		cfg:     cfg,
		builder: builder,
		current: current,
		vcs:     repo,
		report:  report,
		log:     log.WithComponent("release"),
	}
}

// Name returns the release directory name for v, e.g. "Broadsword-v1.2.3".
func (m *Manager) Name(v version.Version) string {
	return fmt.Sprintf("%s-v%s", m.cfg.Project.Name, v)
}

// ArchiveName returns the archive file name for v,
// e.g. "Broadsword-v1.2.3-windows-x64.zip".
func (m *Manager) ArchiveName(v version.Version) string {
	return fmt.Sprintf("%s-%s.zip", m.Name(v), m.cfg.Project.Platform)
}

// Create packages the Release build as version v, or the current version
// when v is nil. With tag set it also creates the annotated tag v<version>;
// a tag failure is only a warning since the archive already exists.
func (m *Manager) Create(ctx context.Context, v *version.Version, tag bool) (*Result, error) {
	if v == nil {
		cur, err := m.current.Current()
		if err != nil {
			return nil, err
		}
		v = &cur
	}
	m.report.Header("Creating Release %s", v.Tag())

	output := m.builder.OutputDir(buildsys.Release)
	if !fsutil.IsDir(output) {
		return nil, m.report.Fail(fmt.Errorf("%w: %s", ErrNoReleaseBuild, output),
			"Release build not found. Build Release configuration first.")
	}

	res := &Result{
		Version: *v,
		Dir:     m.cfg.Path(Dir, m.Name(*v)),
		Archive: m.cfg.Path(Dir, m.ArchiveName(*v)),
	}
	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create release directory: %w", err)
	}

	if err := m.stage(output, res.Dir); err != nil {
		return nil, err
	}

	stop := m.report.Spin("Creating archive: " + m.ArchiveName(*v))
	err := zipDir(res.Dir, res.Archive)
	stop()
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	size := "?"
	if fi, err := os.Stat(res.Archive); err == nil {
		size = humanize.IBytes(uint64(fi.Size()))
	}
	m.report.Success("Release archive created: %s (%s)", m.ArchiveName(*v), size)

	if tag {
		res.Tagged = m.tag(ctx, *v)
	}

	m.report.Success("Release %s created successfully", v.Tag())
	m.report.Info("Location: %s", res.Dir)
	m.report.Info("Archive: %s", res.Archive)
	return res, nil
}

func (m *Manager) stage(output, dir string) error {
	for _, name := range []string{"dwmapi.dll", m.cfg.Project.Name + ".dll"} {
		src := filepath.Join(output, name)
		if !fsutil.Exists(src) {
			m.log.Debug().Str("file", name).Msg("not built, skipping")
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
		m.report.Success("Packaged %s", name)
	}

	if mods := filepath.Join(output, build.ModsDir); fsutil.IsDir(mods) {
		if err := fsutil.CopyTree(mods, filepath.Join(dir, build.ModsDir)); err != nil {
			return fmt.Errorf("package mods: %w", err)
		}
		m.report.Success("Packaged mods")
	}

	for _, doc := range Docs {
		src := m.cfg.Path(doc.Source)
		if !fsutil.Exists(src) {
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(dir, doc.Name)); err != nil {
			return fmt.Errorf("package %s: %w", doc.Name, err)
		}
	}
	return nil
}

func (m *Manager) tag(ctx context.Context, v version.Version) bool {
	name := v.Tag()
	m.report.Step("Creating git tag: %s", name)
	exists, err := m.vcs.TagExists(ctx, m.cfg.ProjectRoot, name)
	if err != nil {
		m.report.Warning("Could not create git tag: %v", err)
		return false
	}
	if exists {
		m.report.Warning("Git tag %s already exists, not moving it", name)
		m.report.Info("Bump the version or delete the tag with: git tag -d %s", name)
		return false
	}
	if err := m.vcs.Tag(ctx, m.cfg.ProjectRoot, name, "Release "+name); err != nil {
		m.report.Warning("Could not create git tag: %v", err)
		return false
	}
	m.report.Success("Git tag created: %s", name)
	m.report.Info("Push with: git push origin --tags")
	return true
}
