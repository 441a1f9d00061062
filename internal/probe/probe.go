// Package probe validates the local toolchain and locates the game
// installation.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys/cmake"
)

// ManifestFile is the dependency manifest that must exist in the project root.
const ManifestFile = "vcpkg.json"

// ErrInvalidEnvironment is returned by Validate when any required check fails.
var ErrInvalidEnvironment = errors.New("environment validation failed")

// Snapshot is what the probe found. Empty fields were not found.
type Snapshot struct {
	DependencyRoot   string
	BuildTool        string
	CompilerTool     string
	InstallationPath string
}

// BuildTool is the external build system as seen by the probe.
type BuildTool interface {
	Version(ctx context.Context) (string, error)
	LookPath() (string, error)
}

// Compiler reports the native compiler available on PATH.
type Compiler interface {
	Probe(ctx context.Context) (version, path string, err error)
}

// Probe runs the environment checks. The zero value is not usable; call New.
type Probe struct {
	cfg      *env.Config
	tool     BuildTool
	compiler Compiler
	detector Detector
	report   *ui.Reporter
	log      zerolog.Logger

	Snapshot Snapshot
}

// Option configures a Probe.
type Option func(*Probe)

// WithCompiler replaces the MSVC compiler probe.
func WithCompiler(c Compiler) Option {
	return func(p *Probe) { p.compiler = c }
}

// WithDetector replaces the default installation detector chain.
func WithDetector(d Detector) Option {
	return func(p *Probe) { p.detector = d }
}

// New creates a Probe for cfg that queries tool for the build system.
func New(cfg *env.Config, tool BuildTool, report *ui.Reporter, opts ...Option) *Probe {
	p := &Probe{
		cfg:      cfg,
		tool:     tool,
		compiler: MSVC{},
		report:   report,
		log:      log.WithComponent("probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.detector == nil {
		p.detector = DefaultDetector(cfg, report)
	}
	return p
}

// Validate runs every check and reports each outcome. Checks are
// independent: a failure never skips the checks after it. The returned error
// wraps ErrInvalidEnvironment and every individual failure.
func (p *Probe) Validate(ctx context.Context) error {
	p.report.Section("Validating Environment")

	var errs []error
	if err := p.checkDependencyRoot(); err != nil {
		errs = append(errs, err)
	}
	if err := p.checkBuildTool(ctx); err != nil {
		errs = append(errs, err)
	}
	p.checkCompiler(ctx)
	if err := p.checkProjectFiles(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		// each failed check has printed its own explanation
		return ui.Reported(fmt.Errorf("%w: %w", ErrInvalidEnvironment, errors.Join(errs...)))
	}
	return nil
}

func (p *Probe) checkDependencyRoot() error {
	if root := p.cfg.DependencyRoot; root != "" {
		if !fsutil.IsDir(root) {
			p.report.Error("%s set but path doesn't exist: %s", env.DependencyRootVar, root)
			return fmt.Errorf("%s=%s does not exist", env.DependencyRootVar, root)
		}
		p.Snapshot.DependencyRoot = root
		p.report.Success("vcpkg found: %s", root)
		return nil
	}

	for _, candidate := range p.cfg.DependencyRootCandidates() {
		p.log.Debug().Str("path", candidate).Msg("dependency root candidate")
		if fsutil.IsDir(candidate) {
			p.Snapshot.DependencyRoot = candidate
			p.report.Warning("vcpkg found at %s but %s not set", candidate, env.DependencyRootVar)
			p.report.Info("Run: broadsword setup --dependency-root %s", candidate)
			return nil
		}
	}
	p.report.Error("vcpkg not found. Install from: https://github.com/microsoft/vcpkg")
	p.report.Info("Then run: broadsword setup --dependency-root <path>")
	return errors.New("dependency root not found")
}

func (p *Probe) checkBuildTool(ctx context.Context) error {
	version, err := p.tool.Version(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("cmake version query failed")
		p.report.Error("CMake not found. Install CMake 3.28+")
		return fmt.Errorf("cmake: %w", err)
	}
	p.report.Success("CMake found: %s", version)
	if path, err := p.tool.LookPath(); err == nil {
		p.Snapshot.BuildTool = path
	}
	return nil
}

// checkCompiler is informational: CMake locates MSVC through the Visual
// Studio generator even when cl is not on PATH.
func (p *Probe) checkCompiler(ctx context.Context) {
	version, path, err := p.compiler.Probe(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("compiler probe")
		p.report.Warning("MSVC not in PATH (CMake will locate via Visual Studio)")
		p.report.Info("This is normal if not running from Developer Command Prompt")
		return
	}
	p.Snapshot.CompilerTool = path
	if version != "" {
		p.report.Success("MSVC found: Version %s", version)
	}
}

func (p *Probe) checkProjectFiles() error {
	var err error
	manifest := p.cfg.Path(ManifestFile)
	if fsutil.Exists(manifest) {
		p.report.Success("vcpkg manifest found: %s", filepath.Base(manifest))
	} else {
		p.report.Error("%s not found in project root", ManifestFile)
		err = fmt.Errorf("%s: %w", ManifestFile, os.ErrNotExist)
	}

	if fsutil.Exists(p.cfg.Path(cmake.PresetsFile)) {
		p.report.Success("CMake presets found: %s", cmake.PresetsFile)
	} else {
		p.report.Warning("%s not found (will be created)", cmake.PresetsFile)
	}
	return err
}

// DetectInstallation locates the game's binaries directory. The result is
// remembered in Snapshot. Lookup problems are reported as warnings.
func (p *Probe) DetectInstallation() (string, bool) {
	p.report.Section("Detecting Game Installation")

	path, ok := p.detector.Detect()
	if !ok {
		p.report.Warning("Game installation not found")
		p.report.Info("Use --installation-path to specify manually")
		return "", false
	}
	p.report.Success("Game found: %s", path)
	p.Snapshot.InstallationPath = path
	return path, true
}
