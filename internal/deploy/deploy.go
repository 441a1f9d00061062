// Package deploy copies build outputs into the game installation.
package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

var (
	// ErrNoInstallation means no installation path was given or detected.
	ErrNoInstallation = errors.New("game installation not found")
	// ErrNoBuildOutput means the requested configuration was never built.
	ErrNoBuildOutput = errors.New("build output not found")
)

// Entry is one framework file to deploy.
type Entry struct {
	File        string
	Description string
}

// Manifest lists the framework files deployed for config, in copy order.
func Manifest(project string, config buildsys.Config) []Entry {
	return []Entry{
		{"dwmapi.dll", "Proxy loader"},
		{project + ".dll", "Framework core"},
		{config.Runtime(buildsys.RuntimeMinHook), "MinHook dependency"},
		{config.Runtime(buildsys.RuntimeFmt), "fmt dependency"},
	}
}

// Detector finds the installation when no path is given.
type Detector interface {
	DetectInstallation() (string, bool)
}

// Deployer copies a configuration's output into an installation directory.
type Deployer struct {
	cfg      *env.Config
	builder  *build.Builder
	detector Detector
	report   *ui.Reporter
	log      zerolog.Logger

	// Installation is a previously detected path, tried before detection.
	Installation string
}

// Result summarizes a deployment.
type Result struct {
	Target string
	Core   []string // deployed framework files
	Mods   []string // deployed plugin modules
}

func New(cfg *env.Config, builder *build.Builder, detector Detector, report *ui.Reporter) *Deployer {
	return &Deployer{
		cfg:      cfg,
		builder:  builder,
		detector: detector,
		report:   report,
		log:      log.WithComponent("deploy"),
	}
}

// Deploy copies the framework files and plugin modules built for config into
// override, or the known or detected installation when override is "".
// Manifest entries found in neither the build output nor the dependency
// install tree are skipped.
func (d *Deployer) Deploy(config buildsys.Config, override string) (*Result, error) {
	d.report.Section("Deploying %s (%s)", d.cfg.Project.Name, config)

	output := d.builder.OutputDir(config)
	if !fsutil.IsDir(output) {
		err := d.report.Fail(fmt.Errorf("%w: %s", ErrNoBuildOutput, output), "Build output not found: %s", output)
		d.report.Info("Run build first")
		return nil, err
	}

	target := d.resolveTarget(override)
	if target == "" || !fsutil.IsDir(target) {
		err := ErrNoInstallation
		if target != "" {
			err = fmt.Errorf("%w: %s", ErrNoInstallation, target)
		}
		err = d.report.Fail(err, "Game installation not found")
		d.report.Info("Use --installation-path to specify location")
		return nil, err
	}

	res := &Result{Target: target}
	depBin := config.DependencyBinDir(d.cfg.BuildDir(), d.cfg.Project.Triplet)
	for _, e := range Manifest(d.cfg.Project.Name, config) {
		src := firstExisting(filepath.Join(output, e.File), filepath.Join(depBin, e.File))
		if src == "" {
			d.log.Debug().Str("file", e.File).Msg("not built, skipping")
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(target, e.File)); err != nil {
			return res, fmt.Errorf("deploy %s: %w", e.File, err)
		}
		d.report.Success("Deployed %s (%s)", e.File, e.Description)
		res.Core = append(res.Core, e.File)
	}

	mods, err := d.deployMods(filepath.Join(output, build.ModsDir), filepath.Join(target, build.ModsDir))
	res.Mods = mods
	if err != nil {
		return res, err
	}
	if len(mods) > 0 {
		d.report.Info("Total mods deployed: %d", len(mods))
	}

	d.report.Success("Deployment complete to: %s", target)
	d.report.Info("%d framework files, %d mods", len(res.Core), len(res.Mods))
	return res, nil
}

func (d *Deployer) resolveTarget(override string) string {
	if override != "" {
		return override
	}
	if d.Installation != "" {
		return d.Installation
	}
	if d.detector == nil {
		return ""
	}
	path, _ := d.detector.DetectInstallation()
	return path
}

func (d *Deployer) deployMods(src, dst string) ([]string, error) {
	if !fsutil.IsDir(src) {
		return nil, nil
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	entries, err := fsutil.Glob(src, ".dll")
	if err != nil {
		return nil, err
	}
	var mods []string
	for _, e := range entries {
		if err := fsutil.CopyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return mods, fmt.Errorf("deploy mod %s: %w", e.Name(), err)
		}
		d.report.Success("Deployed mod: %s", e.Name())
		mods = append(mods, e.Name())
	}
	return mods, nil
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
