package cmake

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

// fakeCMake writes a shell script standing in for cmake. It appends one line
// per invocation to the returned log: the working directory, VCPKG_ROOT and
// the arguments.
func fakeCMake(t *testing.T, exitCode int) (bin, logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake needs a POSIX shell")
	}
	dir := t.TempDir()
	logFile = filepath.Join(dir, "calls.log")
	bin = filepath.Join(dir, "cmake")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then\n" +
		"  echo 'cmake version 3.28.1'\n" +
		"  echo\n" +
		"  echo 'CMake suite maintained and supported by Kitware (kitware.com/cmake).'\n" +
		"  exit 0\n" +
		"fi\n" +
		"echo \"$(pwd)|$VCPKG_ROOT|$*\" >> '" + logFile + "'\n" +
		"echo 'streamed output'\n" +
		"exit " + string(rune('0'+exitCode)) + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, logFile
}

func readCalls(t *testing.T, logFile string) []string {
	t.Helper()
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestVersion(t *testing.T) {
	bin, _ := fakeCMake(t, 0)
	c := New(t.TempDir(), WithPath(bin))

	got, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "cmake version 3.28.1" {
		t.Errorf("Version = %q", got)
	}
}

func TestVersionMissingBinary(t *testing.T) {
	c := New(t.TempDir(), WithPath(filepath.Join(t.TempDir(), "no-such-cmake")))
	if _, err := c.Version(context.Background()); err == nil {
		t.Fatal("Version succeeded with a missing binary")
	}
	if _, err := c.LookPath(); err == nil {
		t.Fatal("LookPath succeeded with a missing binary")
	}
}

func TestConfigureInjectsEnv(t *testing.T) {
	bin, logFile := fakeCMake(t, 0)
	src := t.TempDir()
	var out bytes.Buffer
	c := New(src, WithPath(bin), WithOutput(&out, &out))
	c.Env("VCPKG_ROOT", "/opt/vcpkg")

	t.Setenv("VCPKG_ROOT", "")
	if err := c.Configure(context.Background(), "debug"); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	calls := readCalls(t, logFile)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	parts := strings.SplitN(calls[0], "|", 3)
	wantDir, _ := filepath.EvalSymlinks(src)
	gotDir, _ := filepath.EvalSymlinks(parts[0])
	if gotDir != wantDir {
		t.Errorf("configure ran in %q, want %q", parts[0], src)
	}
	if parts[1] != "/opt/vcpkg" {
		t.Errorf("VCPKG_ROOT = %q, want /opt/vcpkg", parts[1])
	}
	if parts[2] != "--preset debug" {
		t.Errorf("args = %q", parts[2])
	}
	if !strings.Contains(out.String(), "streamed output") {
		t.Errorf("subprocess output not streamed: %q", out.String())
	}
	if os.Getenv("VCPKG_ROOT") != "" {
		t.Error("Env leaked into the process environment")
	}
}

func TestBuildArgs(t *testing.T) {
	bin, logFile := fakeCMake(t, 0)
	src := t.TempDir()
	c := New(src, WithPath(bin), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	args := BuildFlags(true, 8)
	if err := c.Build(context.Background(), buildsys.Release, args...); err != nil {
		t.Fatalf("Build: %v", err)
	}

	calls := readCalls(t, logFile)
	parts := strings.SplitN(calls[0], "|", 3)
	want := "--build " + filepath.Join(src, "build") + " --config Release --clean-first --parallel 8"
	if parts[2] != want {
		t.Errorf("args = %q, want %q", parts[2], want)
	}
}

func TestBuildFailure(t *testing.T) {
	bin, _ := fakeCMake(t, 2)
	c := New(t.TempDir(), WithPath(bin), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	if err := c.Build(context.Background(), buildsys.Debug); err == nil {
		t.Fatal("Build succeeded with exit code 2")
	}
}

func TestBuildFlags(t *testing.T) {
	tests := []struct {
		clean    bool
		parallel int
		want     []string
	}{
		{false, 0, nil},
		{true, 0, []string{"--clean-first"}},
		{false, 4, []string{"--parallel", "4"}},
		{false, -1, nil},
		{true, 2, []string{"--clean-first", "--parallel", "2"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, BuildFlags(tt.clean, tt.parallel)); diff != "" {
			t.Errorf("BuildFlags(%v, %d) mismatch (-want +got):\n%s", tt.clean, tt.parallel, diff)
		}
	}
}

func TestOutputDir(t *testing.T) {
	c := New("proj")
	if got, want := c.BuildDir(), filepath.Join("proj", "build"); got != want {
		t.Errorf("BuildDir = %q, want %q", got, want)
	}
	if got, want := c.OutputDir(buildsys.Debug), filepath.Join("proj", "build", "bin", "Debug"); got != want {
		t.Errorf("OutputDir(Debug) = %q, want %q", got, want)
	}
	if got, want := c.OutputDir(buildsys.Release), filepath.Join("proj", "build", "bin", "Release"); got != want {
		t.Errorf("OutputDir(Release) = %q, want %q", got, want)
	}
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv([]string{"PATH=/bin", "VCPKG_ROOT=/old", "BROKEN"}, map[string]string{"VCPKG_ROOT": "/new"})
	want := []string{"PATH=/bin", "VCPKG_ROOT=/new"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mergeEnv mismatch (-want +got):\n%s", diff)
	}
}
