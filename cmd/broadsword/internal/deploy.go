package internal

import (
	"github.com/spf13/cobra"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

var (
	deployRelease          bool
	deployInstallationPath string
	deployBuild            bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy to game directory",
	Long: `Deploy copies the framework, its runtime dependencies and plugin modules
into the game installation. Without --installation-path the installation
is detected from Steam.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().BoolVar(&deployRelease, "release", false, "Deploy Release (default: Debug)")
	deployCmd.Flags().StringVar(&deployInstallationPath, "installation-path", "", "Game installation path")
	deployCmd.Flags().BoolVar(&deployBuild, "build", false, "Build before deploying")
	deployCmd.Flags().SetNormalizeFunc(aliasFlags)
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	header("Deploying %s", current.cfg.Project.Name)
	config := buildsys.Select(deployRelease)

	if deployBuild {
		if err := current.validate(ctx); err != nil {
			return err
		}
		if err := current.buildConfig(ctx, config, false, build.Options{}); err != nil {
			return err
		}
	}

	_, err := current.deployer().Deploy(config, deployInstallationPath)
	return err
}
