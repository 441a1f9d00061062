package internal

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/fsutil"
	"github.com/broadsword-framework/broadsword/internal/userenv"
)

var setupDependencyRoot string

// newUserEnv is replaced in tests.
var newUserEnv = userenv.Default

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Setup environment variables",
	Long: `Setup persists the dependency-toolchain root (VCPKG_ROOT) in the user
environment so later shells and broadsword runs pick it up.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupDependencyRoot, "dependency-root", "", "Path to the vcpkg installation")
	setupCmd.Flags().SetNormalizeFunc(aliasFlags)
	rootCmd.AddCommand(setupCmd)
}

// aliasFlags accepts the flag names earlier releases of the tool used.
func aliasFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "vcpkg-root":
		name = "dependency-root"
	case "game-path":
		name = "installation-path"
	}
	return pflag.NormalizedName(name)
}

func runSetup(cmd *cobra.Command, args []string) error {
	header("Environment Setup")
	if setupDependencyRoot == "" {
		return usageError("No options specified. Use --dependency-root <path>")
	}

	root, err := filepath.Abs(setupDependencyRoot)
	if err != nil {
		return err
	}
	if !fsutil.IsDir(root) {
		current.report.Warning("%s does not exist yet", root)
	}

	store, err := newUserEnv()
	if err != nil {
		return err
	}
	current.report.Step("Setting %s to: %s", env.DependencyRootVar, root)
	if err := store.Persist(env.DependencyRootVar, root); err != nil {
		return current.report.Fail(err, "Could not set %s: %v", env.DependencyRootVar, err)
	}
	current.report.Success("%s set successfully", env.DependencyRootVar)
	current.report.Info("Stored in %s", store.Location())
	current.report.Info("Restart your terminal for changes to take effect")
	return nil
}
