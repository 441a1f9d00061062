package internal

import (
	"github.com/spf13/cobra"

	"github.com/broadsword-framework/broadsword/pkgs/version"
)

// versionValue is a pflag.Value accepting exactly "major.minor.patch".
type versionValue struct {
	v   version.Version
	set bool
}

func (f *versionValue) String() string {
	if !f.set {
		return ""
	}
	return f.v.String()
}

func (f *versionValue) Set(s string) error {
	v, err := version.Parse(s)
	if err != nil {
		return err
	}
	f.v, f.set = v, true
	return nil
}

func (f *versionValue) Type() string { return "version" }

var (
	versionShow     bool
	versionMajor    bool
	versionMinor    bool
	versionPatch    bool
	versionSet      versionValue
	versionNoCommit bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage version",
	Long: `Version shows the project version, or bumps it in CMakeLists.txt and
vcpkg.json and commits the change.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	f := versionCmd.Flags()
	f.BoolVar(&versionShow, "show", false, "Show current version")
	f.BoolVar(&versionMajor, "major", false, "Bump major version")
	f.BoolVar(&versionMinor, "minor", false, "Bump minor version")
	f.BoolVar(&versionPatch, "patch", false, "Bump patch version")
	f.Var(&versionSet, "set", "Set specific version (e.g., 2.5.0)")
	f.BoolVar(&versionNoCommit, "no-commit", false, "Do not create git commit")
	versionCmd.MarkFlagsMutuallyExclusive("show", "major", "minor", "patch", "set")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	mgr := current.versions()
	cur, err := mgr.Current()
	if err != nil {
		return err
	}

	var next version.Version
	switch {
	case versionSet.set:
		next = versionSet.v
	case versionMajor:
		next, err = cur.BumpMajor()
	case versionMinor:
		next, err = cur.BumpMinor()
	case versionPatch:
		next, err = cur.BumpPatch()
	default:
		header("Version Information")
		current.report.Info("Current version: %s", current.report.Bold(cur.String()))
		return nil
	}
	if err != nil {
		return err
	}
	return mgr.Set(cmd.Context(), next, !versionNoCommit)
}
