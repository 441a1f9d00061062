// Package env reads the tool's configuration once at startup. Every other
// package receives a *Config and never consults the process environment or
// working directory itself.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DependencyRootVar names the dependency-toolchain (vcpkg) root.
	DependencyRootVar = "VCPKG_ROOT"
	// LogLevelVar selects the debug log level.
	LogLevelVar = "LOG_LEVEL"

	// ProjectFile is the optional per-project settings file.
	ProjectFile = "broadsword.toml"
)

// Project holds per-project settings. Zero fields take their defaults.
type Project struct {
	Name            string   `toml:"name"`
	Platform        string   `toml:"platform"`
	Triplet         string   `toml:"triplet"`
	DependencyRoots []string `toml:"dependency_roots"`
	Game            Game     `toml:"game"`
}

// Game describes where the target application is installed.
type Game struct {
	// SteamSubpath is the binaries directory relative to a Steam library root.
	SteamSubpath string `toml:"steam_subpath"`
	// Paths are absolute candidates checked after the Steam lookups.
	Paths []string `toml:"paths"`
}

// Config is the configuration threaded through every component.
type Config struct {
	ProjectRoot string
	Home        string

	// DependencyRoot is the value of VCPKG_ROOT, "" when unset.
	DependencyRoot string
	LogLevel       string

	Project Project
}

// Options tells Load where to look.
type Options struct {
	// ProjectRoot defaults to the current working directory.
	ProjectRoot string
	// Environ defaults to os.Environ().
	Environ []string
	// UserEnvFile is the persisted user environment; "" disables it.
	UserEnvFile string
}

// Load builds a Config. Process environment wins over the persisted user
// environment; broadsword.toml is optional but must be valid when present.
func Load(opts Options) (*Config, error) {
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	vars := make(map[string]string)
	if opts.UserEnvFile != "" {
		persisted, err := godotenv.Read(opts.UserEnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", opts.UserEnvFile, err)
		}
		for k, v := range persisted {
			vars[k] = v
		}
	}
	for k, v := range parseEnviron(environ) {
		vars[k] = v
	}

	home, _ := os.UserHomeDir()
	cfg := &Config{
		ProjectRoot:    root,
		Home:           home,
		DependencyRoot: vars[DependencyRootVar],
		LogLevel:       vars[LogLevelVar],
	}

	if err := loadProject(filepath.Join(root, ProjectFile), &cfg.Project); err != nil {
		return nil, err
	}
	cfg.Project.setDefaults()
	return cfg, nil
}

func loadProject(path string, p *Project) error {
	md, err := toml.DecodeFile(path, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("parse %s: unknown key %q", filepath.Base(path), undecoded[0].String())
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.Name == "" {
		p.Name = "Broadsword"
	}
	if p.Platform == "" {
		p.Platform = "windows-x64"
	}
	if p.Triplet == "" {
		p.Triplet = "x64-windows"
	}
	if p.Game.SteamSubpath == "" {
		p.Game.SteamSubpath = filepath.Join("steamapps", "common", "Half Sword Demo", "HalfSwordUE5", "Binaries", "Win64")
	}
}

func parseEnviron(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		// Windows carries per-drive entries like "=C:=C:\\".
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			m[k] = v
		}
	}
	return m
}

// UserEnvFile returns the persisted user environment file used on platforms
// without a registry-backed environment store.
func UserEnvFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "broadsword", "env"), nil
}

// Path joins elem onto the project root.
func (c *Config) Path(elem ...string) string {
	return filepath.Join(append([]string{c.ProjectRoot}, elem...)...)
}

// BuildDir is the CMake binary directory.
func (c *Config) BuildDir() string {
	return c.Path("build")
}

// DependencyRootCandidates lists conventional dependency-root locations,
// checked in order when VCPKG_ROOT is unset.
func (c *Config) DependencyRootCandidates() []string {
	candidates := append([]string(nil), c.Project.DependencyRoots...)
	candidates = append(candidates, "C:/vcpkg", "C:/Projects/vcpkg")
	if c.Home != "" {
		candidates = append(candidates, filepath.Join(c.Home, "vcpkg"))
	}
	return candidates
}
