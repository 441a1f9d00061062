package internal

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean build artifacts",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	header("Cleaning Build Artifacts")
	removed, err := current.builder.Clean()
	if err != nil {
		return err
	}
	if removed {
		current.report.Success("Build directory removed")
	} else {
		current.report.Info("Build directory does not exist")
	}
	return nil
}
