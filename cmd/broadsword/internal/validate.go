package internal

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate build environment",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	header("Environment Validation")
	if err := current.validate(cmd.Context()); err != nil {
		current.report.Error("Environment validation failed")
		return err
	}
	current.report.Success("Environment is ready for building")
	return nil
}
