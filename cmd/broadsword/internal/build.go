package internal

import (
	"github.com/spf13/cobra"

	"github.com/broadsword-framework/broadsword/internal/build"
	"github.com/broadsword-framework/broadsword/pkgs/buildsys"
)

var (
	buildRelease       bool
	buildClean         bool
	buildParallel      int
	buildConfigureOnly bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the project",
	Long:  `Build validates the environment, configures CMake and compiles the framework.`,
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildRelease, "release", false, "Build Release (default: Debug)")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Clean before building")
	buildCmd.Flags().IntVarP(&buildParallel, "parallel", "j", 0, "Parallel build jobs (0: build tool default)")
	buildCmd.Flags().BoolVar(&buildConfigureOnly, "configure-only", false, "Only run CMake configure")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	header("Building %s", current.cfg.Project.Name)
	if err := current.validate(ctx); err != nil {
		return err
	}

	config := buildsys.Select(buildRelease)
	if err := current.builder.Configure(ctx, config.Preset(), buildClean); err != nil {
		return err
	}
	if buildConfigureOnly {
		current.report.Success("Configuration complete")
		return nil
	}
	return current.builder.Build(ctx, config, build.Options{
		Clean:    buildClean,
		Parallel: buildParallel,
	})
}
