package cmake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

// CMake drives a preset-based CMake project.
type CMake struct {
	SourceDir string
	buildDir  string
	bin       string
	env       map[string]string
	stdout    io.Writer
	stderr    io.Writer
	log       zerolog.Logger
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// Option configures a CMake.
type Option func(*CMake)

// WithPath sets a custom cmake executable path.
func WithPath(bin string) Option {
	return func(c *CMake) {
		c.bin = bin
	}
}

// WithOutput redirects the streamed output of configure and build steps.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CMake) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithLogger sets the logger used to trace subprocess invocations.
func WithLogger(l zerolog.Logger) Option {
	return func(c *CMake) {
		c.log = l
	}
}

// New creates a CMake helper for the project in sourceDir. The binary
// directory is sourceDir/build, matching the default presets.
func New(sourceDir string, opts ...Option) *CMake {
	c := &CMake{
		SourceDir: sourceDir,
		buildDir:  filepath.Join(sourceDir, "build"),
		bin:       "cmake",
		env:       map[string]string{},
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildDir returns the binary directory.
func (c *CMake) BuildDir() string {
	return c.buildDir
}

// Env sets a variable for cmake subprocesses. The current process
// environment is left untouched.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// LookPath resolves the cmake executable.
func (c *CMake) LookPath() (string, error) {
	return exec.LookPath(c.bin)
}

// Version runs "cmake --version" and returns its first line,
// e.g. "cmake version 3.28.1".
func (c *CMake) Version(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, "", []string{"--version"})
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s --version: %s", c.bin, msg)
		}
		return "", fmt.Errorf("%s --version: %w", c.bin, err)
	}
	line := firstLine(&stdout)
	if line == "" {
		return "", errors.New("cmake --version: empty output")
	}
	return line, nil
}

// Configure runs "cmake --preset <preset>" in the source directory.
func (c *CMake) Configure(ctx context.Context, preset string, args ...string) error {
	cmdArgs := []string{"--preset", preset}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, c.SourceDir, cmdArgs)
}

// Build runs "cmake --build <buildDir> --config <config>".
func (c *CMake) Build(ctx context.Context, config buildsys.Config, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir, "--config", config.Name()}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, c.SourceDir, cmdArgs)
}

// BuildFlags returns the extra "cmake --build" flags for a clean rebuild
// and a parallel job count. parallel <= 0 leaves the choice to the
// native build tool.
func BuildFlags(clean bool, parallel int) []string {
	var args []string
	if clean {
		args = append(args, "--clean-first")
	}
	if parallel > 0 {
		args = append(args, "--parallel", strconv.Itoa(parallel))
	}
	return args
}

// OutputDir returns the directory the multi-config generator writes
// binaries for config into.
func (c *CMake) OutputDir(config buildsys.Config) string {
	return filepath.Join(c.buildDir, "bin", config.Name())
}

func (c *CMake) command(ctx context.Context, dir string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(c.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.env)
	}
	c.log.Debug().Str("dir", dir).Strs("args", args).Msg(c.bin)
	return cmd
}

func (c *CMake) run(ctx context.Context, dir string, args []string) error {
	cmd := c.command(ctx, dir, args)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", filepath.Base(c.bin), args[0], err)
	}
	return nil
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// firstLine returns the first non-empty line of r.
func firstLine(r io.Reader) string {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			return line
		}
	}
	return ""
}
