package buildsys

import "path/filepath"

// Runtime dependency keys understood by Config.Runtime.
const (
	RuntimeMinHook = "minhook"
	RuntimeFmt     = "fmt"
)

// Config is a build configuration. Each value carries everything that differs
// between configurations, so callers never branch on the configuration name.
type Config struct {
	name      string
	preset    string
	depBinDir string            // below vcpkg_installed/<triplet>
	runtime   map[string]string // runtime key -> file name
}

var (
	Debug = Config{
		name:      "Debug",
		preset:    "debug",
		depBinDir: filepath.Join("debug", "bin"),
		runtime: map[string]string{
			RuntimeMinHook: "minhook.x64d.dll",
			RuntimeFmt:     "fmtd.dll",
		},
	}
	Release = Config{
		name:      "Release",
		preset:    "release",
		depBinDir: "bin",
		runtime: map[string]string{
			RuntimeMinHook: "minhook.x64.dll",
			RuntimeFmt:     "fmt.dll",
		},
	}
)

// Select returns Release when release is set, Debug otherwise.
func Select(release bool) Config {
	if release {
		return Release
	}
	return Debug
}

// Name is the configuration name passed to --config, e.g. "Debug".
func (c Config) Name() string { return c.name }

// Preset is the configure/build preset name, e.g. "debug".
func (c Config) Preset() string { return c.preset }

func (c Config) String() string { return c.name }

// Runtime returns the file name of a runtime dependency for this
// configuration, or "" when the key is unknown.
func (c Config) Runtime(key string) string {
	return c.runtime[key]
}

// DependencyBinDir returns the directory where the dependency manager
// installs runtime libraries for this configuration.
func (c Config) DependencyBinDir(buildDir, triplet string) string {
	return filepath.Join(buildDir, "vcpkg_installed", triplet, c.depBinDir)
}
