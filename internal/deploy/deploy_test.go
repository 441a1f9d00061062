package deploy

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/ui"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys/cmake"
)

type staticDetector struct {
	path  string
	calls int
}

func (s *staticDetector) DetectInstallation() (string, bool) {
	s.calls++
	return s.path, s.path != ""
}

type fixture struct {
	root   string
	cfg    *env.Config
	out    *bytes.Buffer
	errOut *bytes.Buffer
	det    *staticDetector
	d      *Deployer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := &env.Config{
		ProjectRoot: root,
		Project:     env.Project{Name: "Broadsword", Triplet: "x64-windows"},
	}
	var out, errOut bytes.Buffer
	report := ui.New(ui.Options{Out: &out, Err: &errOut, NoColor: true})
	b := build.NewBuilder(cfg, cmake.New(root), report)
	det := &staticDetector{}
	return &fixture{
		root:   root,
		cfg:    cfg,
		out:    &out,
		errOut: &errOut,
		det:    det,
		d:      New(cfg, b, det, report),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestManifest(t *testing.T) {
	assert.Equal(t, []Entry{
		{"dwmapi.dll", "Proxy loader"},
		{"Broadsword.dll", "Framework core"},
		{"minhook.x64d.dll", "MinHook dependency"},
		{"fmtd.dll", "fmt dependency"},
	}, Manifest("Broadsword", buildsys.Debug))

	release := Manifest("Broadsword", buildsys.Release)
	assert.Equal(t, "minhook.x64.dll", release[2].File)
	assert.Equal(t, "fmt.dll", release[3].File)
}

func TestDeployNoBuildOutputLeavesTargetUntouched(t *testing.T) {
	f := newFixture(t)
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "HalfSwordUE5-Win64-Shipping.exe"), "game")

	res, err := f.d.Deploy(buildsys.Debug, target)
	require.ErrorIs(t, err, ErrNoBuildOutput)
	assert.True(t, ui.WasReported(err))
	assert.Nil(t, res)
	assert.Equal(t, []string{"HalfSwordUE5-Win64-Shipping.exe"}, listDir(t, target))
	assert.Contains(t, f.errOut.String(), "Build output not found")
	assert.Equal(t, 0, f.det.calls)
}

func TestDeployNoInstallation(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "build", "bin", "Debug", "Broadsword.dll"), "core")

	_, err := f.d.Deploy(buildsys.Debug, "")
	require.ErrorIs(t, err, ErrNoInstallation)
	assert.True(t, ui.WasReported(err))
	assert.Equal(t, 1, f.det.calls)
	assert.Contains(t, f.errOut.String(), "Game installation not found")
}

func TestDeployOverrideMustExist(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "build", "bin", "Debug", "Broadsword.dll"), "core")

	_, err := f.d.Deploy(buildsys.Debug, filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrNoInstallation)
}

func TestDeploySkipsMissingEntries(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.root, "build", "bin", "Release")
	writeFile(t, filepath.Join(output, "Broadsword.dll"), "core")
	writeFile(t, filepath.Join(output, "dwmapi.dll"), "proxy")
	// fmt comes from the dependency install tree, minhook is absent entirely
	writeFile(t, filepath.Join(f.root, "build", "vcpkg_installed", "x64-windows", "bin", "fmt.dll"), "fmt")
	target := t.TempDir()

	res, err := f.d.Deploy(buildsys.Release, target)
	require.NoError(t, err)
	assert.Equal(t, target, res.Target)
	assert.Equal(t, []string{"dwmapi.dll", "Broadsword.dll", "fmt.dll"}, res.Core)
	assert.Empty(t, res.Mods)

	data, err := os.ReadFile(filepath.Join(target, "fmt.dll"))
	require.NoError(t, err)
	assert.Equal(t, "fmt", string(data))
	assert.NoFileExists(t, filepath.Join(target, "minhook.x64.dll"))
	assert.NoDirExists(t, filepath.Join(target, "Mods"))
	assert.Contains(t, f.out.String(), "[OK] Deployed fmt.dll (fmt dependency)")
	assert.Contains(t, f.out.String(), "Deployment complete to: "+target)
}

func TestDeployPrefersBuildOutput(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.root, "build", "bin", "Debug")
	writeFile(t, filepath.Join(output, "fmtd.dll"), "from-output")
	writeFile(t, filepath.Join(f.root, "build", "vcpkg_installed", "x64-windows", "debug", "bin", "fmtd.dll"), "from-vcpkg")
	writeFile(t, filepath.Join(f.root, "build", "vcpkg_installed", "x64-windows", "debug", "bin", "minhook.x64d.dll"), "hook")
	target := t.TempDir()

	res, err := f.d.Deploy(buildsys.Debug, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"minhook.x64d.dll", "fmtd.dll"}, res.Core)

	data, err := os.ReadFile(filepath.Join(target, "fmtd.dll"))
	require.NoError(t, err)
	assert.Equal(t, "from-output", string(data))
}

func TestDeployMods(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.root, "build", "bin", "Debug")
	writeFile(t, filepath.Join(output, "Broadsword.dll"), "core")
	writeFile(t, filepath.Join(output, "Mods", "Enhancer.dll"), "enhancer")
	writeFile(t, filepath.Join(output, "Mods", "Zoom.dll"), "zoom")
	writeFile(t, filepath.Join(output, "Mods", "Enhancer.pdb"), "symbols")
	target := t.TempDir()
	f.det.path = target

	res, err := f.d.Deploy(buildsys.Debug, "")
	require.NoError(t, err)
	assert.Equal(t, target, res.Target)
	assert.Equal(t, []string{"Enhancer.dll", "Zoom.dll"}, res.Mods)
	assert.ElementsMatch(t, []string{"Enhancer.dll", "Zoom.dll"}, listDir(t, filepath.Join(target, "Mods")))
	assert.Contains(t, f.out.String(), "Total mods deployed: 2")
}

func TestDeployUsesKnownInstallationBeforeDetection(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "build", "bin", "Debug", "Broadsword.dll"), "core")
	known := t.TempDir()
	f.d.Installation = known
	f.det.path = t.TempDir()

	res, err := f.d.Deploy(buildsys.Debug, "")
	require.NoError(t, err)
	assert.Equal(t, known, res.Target)
	assert.Equal(t, 0, f.det.calls)
	assert.FileExists(t, filepath.Join(known, "Broadsword.dll"))
}
