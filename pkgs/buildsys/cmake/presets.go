package cmake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PresetsFile is the preset descriptor CMake reads from the source directory.
const PresetsFile = "CMakePresets.json"

// Presets is the subset of the CMakePresets.json schema (version 3) the
// tool writes.
type Presets struct {
	Version          int               `json:"version"`
	Include          []string          `json:"include,omitempty"`
	ConfigurePresets []ConfigurePreset `json:"configurePresets"`
	BuildPresets     []BuildPreset     `json:"buildPresets"`
}

type ConfigurePreset struct {
	Name           string            `json:"name"`
	DisplayName    string            `json:"displayName,omitempty"`
	Hidden         bool              `json:"hidden,omitempty"`
	Generator      string            `json:"generator,omitempty"`
	Architecture   *Architecture     `json:"architecture,omitempty"`
	Inherits       []string          `json:"inherits,omitempty"`
	BinaryDir      string            `json:"binaryDir,omitempty"`
	CacheVariables map[string]string `json:"cacheVariables,omitempty"`
}

type Architecture struct {
	Value    string `json:"value"`
	Strategy string `json:"strategy"`
}

type BuildPreset struct {
	Name            string `json:"name"`
	ConfigurePreset string `json:"configurePreset"`
	Configuration   string `json:"configuration"`
}

// DefaultPresets returns the descriptor written when a project has none:
// a Visual Studio x64 base and a vcpkg toolchain base, inherited by one
// configure and one build preset per build configuration.
func DefaultPresets() *Presets {
	p := &Presets{
		Version: 3,
		ConfigurePresets: []ConfigurePreset{
			{
				Name:   "vcpkg",
				Hidden: true,
				CacheVariables: map[string]string{
					"CMAKE_TOOLCHAIN_FILE": "$env{VCPKG_ROOT}/scripts/buildsystems/vcpkg.cmake",
				},
			},
			{
				Name:         "windows-base",
				Hidden:       true,
				Generator:    "Visual Studio 17 2022",
				Architecture: &Architecture{Value: "x64", Strategy: "set"},
				CacheVariables: map[string]string{
					"CMAKE_EXPORT_COMPILE_COMMANDS": "ON",
				},
			},
		},
	}
	for _, cfg := range []struct{ preset, name string }{
		{"debug", "Debug"},
		{"release", "Release"},
	} {
		p.ConfigurePresets = append(p.ConfigurePresets, ConfigurePreset{
			Name:        cfg.preset,
			DisplayName: cfg.name,
			Inherits:    []string{"windows-base", "vcpkg"},
			BinaryDir:   "${sourceDir}/build",
			CacheVariables: map[string]string{
				"CMAKE_BUILD_TYPE": cfg.name,
			},
		})
		p.BuildPresets = append(p.BuildPresets, BuildPreset{
			Name:            cfg.preset,
			ConfigurePreset: cfg.preset,
			Configuration:   cfg.name,
		})
	}
	return p
}

// HasConfigurePreset reports whether a non-hidden configure preset named
// name exists.
func (p *Presets) HasConfigurePreset(name string) bool {
	for _, c := range p.ConfigurePresets {
		if c.Name == name && !c.Hidden {
			return true
		}
	}
	return false
}

// ReadPresets parses the preset descriptor at path.
func ReadPresets(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Presets
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

// MarshalPresets encodes p the way it is stored on disk.
func MarshalPresets(p *Presets) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
