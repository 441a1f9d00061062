package buildsys

import "context"

// BuildSystem captures the capabilities the tool needs from an external
// build system. The CMake implementation lives in the cmake subpackage.
type BuildSystem interface {
	// Env sets a variable for the build system's subprocesses only.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, preset string, args ...string) error
	Build(ctx context.Context, config Config, args ...string) error

	// Version reports the build tool's own version line.
	Version(ctx context.Context) (string, error)

	// Where artifacts for config land.
	OutputDir(config Config) string
}
