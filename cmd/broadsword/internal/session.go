package internal

import (
	"context"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/internal/deploy"
	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/probe"
	"github.com/broadsword-framework/broadsword/internal/release"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/internal/vcs"
	"github.com/broadsword-framework/broadsword/internal/versions"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys/cmake"
)

// session wires the components for one invocation.
type session struct {
	cfg    *env.Config
	report *ui.Reporter
	cmake  *cmake.CMake
	repo   vcs.VCS

	probe   *probe.Probe
	builder *build.Builder
}

func newSession(cfg *env.Config, report *ui.Reporter) *session {
	c := cmake.New(cfg.ProjectRoot,
		cmake.WithOutput(report.Out, report.Err),
		cmake.WithLogger(log.WithComponent("cmake")),
	)
	s := &session{
		cfg:    cfg,
		report: report,
		cmake:  c,
		repo:   vcs.NewGitVCS(),
	}
	s.probe = probe.New(cfg, c, report)
	s.builder = build.NewBuilder(cfg, c, report)
	s.builder.DependencyRoot = cfg.DependencyRoot
	return s
}

// validate runs the environment checks and hands the detected dependency
// root to the builder.
func (s *session) validate(ctx context.Context) error {
	if err := s.probe.Validate(ctx); err != nil {
		return err
	}
	if root := s.probe.Snapshot.DependencyRoot; root != "" {
		s.builder.DependencyRoot = root
	}
	return nil
}

// buildConfig configures and builds config.
func (s *session) buildConfig(ctx context.Context, config buildsys.Config, clean bool, opts build.Options) error {
	if err := s.builder.Configure(ctx, config.Preset(), clean); err != nil {
		return err
	}
	return s.builder.Build(ctx, config, opts)
}

func (s *session) deployer() *deploy.Deployer {
	d := deploy.New(s.cfg, s.builder, s.probe, s.report)
	d.Installation = s.probe.Snapshot.InstallationPath
	return d
}

func (s *session) versions() *versions.Manager {
	return versions.New(s.cfg.ProjectRoot, s.cfg.Project.Name, s.repo, s.report)
}

func (s *session) releases() *release.Manager {
	return release.New(s.cfg, s.builder, s.versions(), s.repo, s.report)
}
