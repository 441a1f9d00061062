package internal

import (
	"github.com/spf13/cobra"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

var (
	allRelease          bool
	allInstallationPath string
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Full workflow: build + deploy + release",
	Long: `All validates, builds and deploys. With --release it also creates the
release package and tag.`,
	Args: cobra.NoArgs,
	RunE: runAll,
}

func init() {
	allCmd.Flags().BoolVar(&allRelease, "release", false, "Use Release configuration")
	allCmd.Flags().StringVar(&allInstallationPath, "installation-path", "", "Game installation path")
	allCmd.Flags().SetNormalizeFunc(aliasFlags)
	rootCmd.AddCommand(allCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	header("Full Build & Deploy Workflow")
	config := buildsys.Select(allRelease)

	if err := current.validate(ctx); err != nil {
		return err
	}
	if err := current.buildConfig(ctx, config, false, build.Options{}); err != nil {
		return err
	}
	if _, err := current.deployer().Deploy(config, allInstallationPath); err != nil {
		return err
	}
	if allRelease {
		if _, err := current.releases().Create(ctx, nil, true); err != nil {
			return err
		}
	}
	current.report.Success("Workflow complete!")
	return nil
}
