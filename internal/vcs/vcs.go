// Package vcs records version bumps and releases in the project repository.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when dir is not inside a work tree.
var ErrNotRepository = errors.New("not a git repository")

// VCS defines the interface for version control operations.
type VCS interface {
	// Add stages paths, relative to dir.
	Add(ctx context.Context, dir string, paths ...string) error

	// Commit records the staged changes with message.
	Commit(ctx context.Context, dir, message string) error

	// Tag creates an annotated tag at HEAD.
	Tag(ctx context.Context, dir, name, message string) error

	// TagExists reports whether the tag name exists locally.
	TagExists(ctx context.Context, dir, name string) (bool, error)
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git string
	env []string
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// WithEnv appends KEY=VALUE pairs to the environment of every git call.
func WithEnv(kv ...string) GitOption {
	return func(g *gitVCS) {
		g.env = append(g.env, kv...)
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) ensureRepo(dir string) error {
	for d := dir; ; {
		if _, err := os.Stat(filepath.Join(d, ".git")); err == nil {
			return nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		d = parent
	}
}

func (g *gitVCS) Add(ctx context.Context, dir string, paths ...string) error {
	if err := g.ensureRepo(dir); err != nil {
		return err
	}
	args := append([]string{"add", "--"}, paths...)
	if err := g.run(ctx, dir, args...); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

func (g *gitVCS) Commit(ctx context.Context, dir, message string) error {
	if err := g.ensureRepo(dir); err != nil {
		return err
	}
	if err := g.run(ctx, dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (g *gitVCS) Tag(ctx context.Context, dir, name, message string) error {
	if err := g.ensureRepo(dir); err != nil {
		return err
	}
	if err := g.run(ctx, dir, "tag", "-a", name, "-m", message); err != nil {
		return fmt.Errorf("tag %s: %w", name, err)
	}
	return nil
}

func (g *gitVCS) TagExists(ctx context.Context, dir, name string) (bool, error) {
	if err := g.ensureRepo(dir); err != nil {
		return false, err
	}
	output, err := g.output(ctx, dir, "tag", "--list", name)
	if err != nil {
		return false, fmt.Errorf("list tags: %w", err)
	}
	return strings.TrimSpace(output) == name, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	_, err := g.output(ctx, dir, args...)
	return err
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(g.env) > 0 {
		cmd.Env = append(os.Environ(), g.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return stdout.String(), nil
}
