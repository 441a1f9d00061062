package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broadsword-framework/broadsword/internal/userenv"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if v, ok := f.Value.(*versionValue); ok {
			*v = versionValue{}
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, root string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"-C", root, "--no-color"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	code := execute(context.Background(), rootCmd)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("VCPKG_ROOT", "")
	t.Setenv("LOG_LEVEL", "")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "CMakeLists.txt"), "project(Broadsword VERSION 1.2.3 LANGUAGES CXX)\n")
	writeFile(t, filepath.Join(root, "vcpkg.json"), "{\n  \"name\": \"broadsword\",\n  \"version\": \"1.2.3\"\n}\n")
	return root
}

func TestVersionShowIsDefault(t *testing.T) {
	root := newProject(t)

	for _, args := range [][]string{{"version"}, {"version", "--show"}} {
		res := run(t, root, args...)
		assert.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Version Information")
		assert.Contains(t, res.stdout, "Current version: 1.2.3")
	}
}

func TestVersionPatchNoCommit(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "version", "--patch", "--no-commit")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(filepath.Join(root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Equal(t, "project(Broadsword VERSION 1.2.4 LANGUAGES CXX)\n", string(data))

	res = run(t, root, "version")
	assert.Contains(t, res.stdout, "Current version: 1.2.4")
}

func TestVersionSet(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "version", "--set", "2.5.0", "--no-commit")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(filepath.Join(root, "vcpkg.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "2.5.0"`)
}

func TestVersionSetMalformed(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "version", "--set", "1.2", "--no-commit")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid version format")

	data, err := os.ReadFile(filepath.Join(root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "VERSION 1.2.3")
}

func TestVersionFlagsExclusive(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "version", "--major", "--minor")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR]")
}

func TestVersionCommitFailureExitsNonZero(t *testing.T) {
	// not a repository: the commit fails after the files are edited
	root := newProject(t)

	res := run(t, root, "version", "--minor")
	assert.Equal(t, 1, res.code)

	data, err := os.ReadFile(filepath.Join(root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "VERSION 1.3.0")
}

func TestClean(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "build", "CMakeCache.txt"), "")

	res := run(t, root, "clean")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Build directory removed")
	assert.NoDirExists(t, filepath.Join(root, "build"))

	res = run(t, root, "clean")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Build directory does not exist")
}

func TestSetup(t *testing.T) {
	root := newProject(t)
	envFile := filepath.Join(t.TempDir(), "env")
	saved := newUserEnv
	newUserEnv = func() (userenv.Store, error) { return userenv.File{Path: envFile}, nil }
	t.Cleanup(func() { newUserEnv = saved })

	res := run(t, root, "setup")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "No options specified")

	vcpkg := t.TempDir()
	// the old flag name is still accepted
	res = run(t, root, "setup", "--vcpkg-root", vcpkg)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "VCPKG_ROOT set successfully")

	vars, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Equal(t, vcpkg, vars["VCPKG_ROOT"])
}

func TestDeploy(t *testing.T) {
	root := newProject(t)
	output := filepath.Join(root, "build", "bin", "Debug")
	writeFile(t, filepath.Join(output, "Broadsword.dll"), "core")
	writeFile(t, filepath.Join(output, "dwmapi.dll"), "proxy")
	writeFile(t, filepath.Join(output, "Mods", "Enhancer.dll"), "mod")
	target := t.TempDir()

	res := run(t, root, "deploy", "--game-path", target)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(target, "Broadsword.dll"))
	assert.FileExists(t, filepath.Join(target, "dwmapi.dll"))
	assert.FileExists(t, filepath.Join(target, "Mods", "Enhancer.dll"))
	assert.Contains(t, res.stdout, "Deployment complete to: "+target)
}

func TestDeployWithoutBuild(t *testing.T) {
	root := newProject(t)
	target := t.TempDir()

	res := run(t, root, "deploy", "--release", "--installation-path", target)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Build output not found")
	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelease(t *testing.T) {
	root := newProject(t)
	output := filepath.Join(root, "build", "bin", "Release")
	writeFile(t, filepath.Join(output, "Broadsword.dll"), "core")
	writeFile(t, filepath.Join(root, "README.md"), "# Broadsword")

	res := run(t, root, "release", "--no-tag")
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(root, "releases", "Broadsword-v1.2.3-windows-x64.zip"))
	assert.FileExists(t, filepath.Join(root, "releases", "Broadsword-v1.2.3", "README.md"))
}

func TestReleaseWithoutBuild(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "release", "--no-tag")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Release build not found")
}

func TestProjectFileOverrides(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "broadsword.toml"), "name = \"Falchion\"\n")
	writeFile(t, filepath.Join(root, "CMakeLists.txt"), "project(Falchion VERSION 0.4.0)\n")

	res := run(t, root, "version")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Current version: 0.4.0")
}

func TestInvalidProjectFile(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "broadsword.toml"), "colour = \"red\"\n")

	res := run(t, root, "clean")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR]")
	assert.Contains(t, res.stderr, "colour")
}

func TestPanicIsRecovered(t *testing.T) {
	root := newProject(t)
	cmd := &cobra.Command{
		Use: "boom",
		RunE: func(*cobra.Command, []string) error {
			panic("boom")
		},
	}
	rootCmd.AddCommand(cmd)
	t.Cleanup(func() { rootCmd.RemoveCommand(cmd) })

	res := run(t, root, "boom")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Unexpected error: boom")
}

func TestVersionBrokenManifestIsReported(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "vcpkg.json"), "{broken")

	res := run(t, root, "version", "--patch", "--no-commit")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR] parse vcpkg.json")

	data, err := os.ReadFile(filepath.Join(root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "VERSION 1.2.3")
}

func TestReleaseUnwritableDirectoryIsReported(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "build", "bin", "Release", "Broadsword.dll"), "core")
	// a regular file where the releases directory should be
	writeFile(t, filepath.Join(root, "releases"), "")

	res := run(t, root, "release", "--no-tag")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR] create release directory")
}

func TestReportedFailuresPrintOnce(t *testing.T) {
	root := newProject(t)

	res := run(t, root, "release", "--no-tag")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, 1, strings.Count(res.stderr, "[ERROR]"), res.stderr)
}

func TestVersionMissingDeclarationIsReported(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "CMakeLists.txt"), "cmake_minimum_required(VERSION 3.25)\n")

	res := run(t, root, "version")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR] could not find version in CMakeLists.txt")
}

func TestVersionBumpOverflowIsReported(t *testing.T) {
	root := newProject(t)
	declared := "project(Broadsword VERSION 1.2147483647.0 LANGUAGES CXX)\n"
	writeFile(t, filepath.Join(root, "CMakeLists.txt"), declared)

	res := run(t, root, "version", "--minor", "--no-commit")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "[ERROR] version component overflow: minor 2147483647")

	data, err := os.ReadFile(filepath.Join(root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Equal(t, declared, string(data))
}
