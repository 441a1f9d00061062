package internal

import (
	"github.com/spf13/cobra"
)

var releaseNoTag bool

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Create release package",
	Long: `Release packages the Release build, plugin modules and documentation
as releases/<name>-v<version>-<platform>.zip and tags the repository.`,
	Args: cobra.NoArgs,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().BoolVar(&releaseNoTag, "no-tag", false, "Do not create git tag")
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	header("Creating Release")
	_, err := current.releases().Create(cmd.Context(), nil, !releaseNoTag)
	return err
}
