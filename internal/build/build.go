// Package build configures and compiles the project with the external
// build system.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys/cmake"
)

var (
	// ErrNotConfigured is returned by Build when the build directory is missing.
	ErrNotConfigured = errors.New("build directory not found, run configure first")
	// ErrPresetNotFound is returned by Configure when the preset descriptor
	// does not define the requested configure preset.
	ErrPresetNotFound = errors.New("configure preset not found")
)

// ModsDir is the plugin module subdirectory of a configuration's output.
const ModsDir = "Mods"

// Builder runs configure and build steps for one project.
type Builder struct {
	cfg    *env.Config
	cmake  *cmake.CMake
	report *ui.Reporter
	log    zerolog.Logger

	// DependencyRoot is exported to the configure step as VCPKG_ROOT.
	DependencyRoot string
}

// Options for a build step.
type Options struct {
	Clean    bool
	Parallel int
}

// NewBuilder creates a Builder driving c for the project described by cfg.
func NewBuilder(cfg *env.Config, c *cmake.CMake, report *ui.Reporter) *Builder {
	return &Builder{
		cfg:    cfg,
		cmake:  c,
		report: report,
		log:    log.WithComponent("build"),
	}
}

// OutputDir returns where binaries for config are written.
func (b *Builder) OutputDir(config buildsys.Config) string {
	return b.cmake.OutputDir(config)
}

// Configure runs the configure step for preset, optionally removing the
// build directory first. A missing preset descriptor is created.
func (b *Builder) Configure(ctx context.Context, preset string, clean bool) error {
	b.report.Section("Configuring CMake (%s)", preset)

	if clean && fsutil.Exists(b.cmake.BuildDir()) {
		b.report.Step("Cleaning build directory")
		if err := os.RemoveAll(b.cmake.BuildDir()); err != nil {
			return fmt.Errorf("clean build directory: %w", err)
		}
		b.report.Success("Build directory cleaned")
	}

	if err := b.ensurePresets(); err != nil {
		return err
	}
	if err := b.checkPreset(preset); err != nil {
		return err
	}

	if b.DependencyRoot != "" {
		b.cmake.Env(env.DependencyRootVar, b.DependencyRoot)
	}

	b.report.Step("Running CMake configure with preset: %s", preset)
	if err := b.cmake.Configure(ctx, preset); err != nil {
		return b.report.Fail(err, "CMake configuration failed")
	}
	b.report.Success("CMake configuration complete")
	return nil
}

// ensurePresets writes the default preset descriptor when none exists. An
// existing descriptor is never modified.
func (b *Builder) ensurePresets() error {
	path := filepath.Join(b.cmake.SourceDir, cmake.PresetsFile)
	if fsutil.Exists(path) {
		return nil
	}
	b.report.Warning("%s not found, creating...", cmake.PresetsFile)

	data, err := cmake.MarshalPresets(cmake.DefaultPresets())
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cmake.PresetsFile, err)
	}
	b.log.Debug().Str("path", path).Msg("created preset descriptor")
	b.report.Success("Created %s", cmake.PresetsFile)
	return nil
}

// checkPreset fails before cmake runs when the descriptor cannot provide
// preset. Descriptors pulling in other files are left to cmake.
func (b *Builder) checkPreset(preset string) error {
	path := filepath.Join(b.cmake.SourceDir, cmake.PresetsFile)
	presets, err := cmake.ReadPresets(path)
	if err != nil {
		return b.report.Fail(err, "Could not read %s: %v", cmake.PresetsFile, err)
	}
	if len(presets.Include) > 0 || presets.HasConfigurePreset(preset) {
		return nil
	}
	err = fmt.Errorf("%w: %q in %s", ErrPresetNotFound, preset, cmake.PresetsFile)
	err = b.report.Fail(err, "%s has no configure preset named %q", cmake.PresetsFile, preset)
	b.report.Info("Add a %q configure preset or delete %s to regenerate the defaults", preset, cmake.PresetsFile)
	return err
}

// Build compiles config. Configure must have run before.
func (b *Builder) Build(ctx context.Context, config buildsys.Config, opts Options) error {
	b.report.Section("Building %s (%s)", b.cfg.Project.Name, config)

	if !fsutil.IsDir(b.cmake.BuildDir()) {
		return b.report.Fail(ErrNotConfigured, "Build directory not found. Run configure first.")
	}

	args := cmake.BuildFlags(opts.Clean, opts.Parallel)
	b.report.Step("Running: cmake --build %s --config %s", b.cmake.BuildDir(), config)
	if err := b.cmake.Build(ctx, config, args...); err != nil {
		return b.report.Fail(err, "Build failed")
	}
	b.report.Success("%s build complete", config)
	if err := b.summarize(config); err != nil {
		return fmt.Errorf("summarize %s output: %w", config, err)
	}
	return nil
}

// Clean removes the build directory. It reports whether there was one.
func (b *Builder) Clean() (bool, error) {
	dir := b.cmake.BuildDir()
	if !fsutil.Exists(dir) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove %s: %w", dir, err)
	}
	return true, nil
}

// Artifact is a produced file.
type Artifact struct {
	Name string
	Size int64
}

// Artifacts lists the dynamic libraries and plugin modules produced for config.
func (b *Builder) Artifacts(config buildsys.Config) (libs, mods []Artifact, err error) {
	out := b.OutputDir(config)
	if libs, err = artifacts(out); err != nil {
		return nil, nil, err
	}
	if mods, err = artifacts(filepath.Join(out, ModsDir)); err != nil {
		return nil, nil, err
	}
	return libs, mods, nil
}

func artifacts(dir string) ([]Artifact, error) {
	entries, err := fsutil.Glob(dir, ".dll")
	if err != nil {
		return nil, err
	}
	var list []Artifact
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			return nil, err
		}
		list = append(list, Artifact{Name: e.Name(), Size: fi.Size()})
	}
	return list, nil
}

func (b *Builder) summarize(config buildsys.Config) error {
	out := b.OutputDir(config)
	if !fsutil.IsDir(out) {
		return nil
	}
	libs, mods, err := b.Artifacts(config)
	if err != nil {
		return err
	}

	b.report.Info("Output directory: %s", out)
	if len(libs) > 0 {
		b.report.Info("Built %d DLLs:", len(libs))
		rows := make([][]string, 0, len(libs))
		for _, a := range libs {
			rows = append(rows, []string{a.Name, humanize.IBytes(uint64(a.Size))})
		}
		b.report.Table([]string{"File", "Size"}, rows)
	}
	if len(mods) > 0 {
		b.report.Info("Built %d mods:", len(mods))
		for _, m := range mods {
			b.report.Info("  %s", m.Name)
		}
	}
	return nil
}
