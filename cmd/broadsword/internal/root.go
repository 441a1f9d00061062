package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/broadsword-framework/broadsword/internal/env"
	"github.com/broadsword-framework/broadsword/internal/log"
	"github.com/broadsword-framework/broadsword/internal/ui"
)

var (
	projectRoot string
	verbose     bool
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "broadsword",
	Short: "Build automation for the Broadsword framework",
	Long: `broadsword validates the toolchain, builds the framework with CMake,
deploys it into the game installation and manages versions and releases.`,
	Example: `  broadsword validate              Validate build environment
  broadsword build                 Configure and build (Debug)
  broadsword build --release       Build Release configuration
  broadsword deploy --build        Build and deploy to game
  broadsword version --patch       Bump patch version
  broadsword release               Create release package
  broadsword all --release         Build, deploy and release`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project-root", "C", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// current is the session of the running command.
var current *session

func prepare(cmd *cobra.Command, _ []string) error {
	userEnv, err := env.UserEnvFile()
	if err != nil {
		userEnv = ""
	}
	cfg, err := env.Load(env.Options{ProjectRoot: projectRoot, UserEnvFile: userEnv})
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr(), NoColor: noColor})

	report := ui.New(ui.Options{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), NoColor: noColor})
	current = newSession(cfg, report)
	logger := log.WithComponent("cli")
	logger.Debug().Str("root", cfg.ProjectRoot).Str("command", cmd.Name()).Msg("session")
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd)
}

func execute(ctx context.Context, cmd *cobra.Command) (code int) {
	current = nil
	report := func() *ui.Reporter {
		if current != nil {
			return current.report
		}
		return ui.New(ui.Options{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), NoColor: noColor})
	}
	defer func() {
		if r := recover(); r != nil {
			logger := log.WithComponent("cli")
			logger.Error().Str("stack", string(debug.Stack())).Msgf("panic: %v", r)
			report().Error("Unexpected error: %v", r)
			code = 1
		}
	}()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	logger := log.WithComponent("cli")
	logger.Debug().Err(err).Msg("command failed")

	switch {
	case ctx.Err() != nil:
		report().Error("Operation cancelled by user")
	case ui.WasReported(err):
	default:
		report().Error("%v", err)
	}
	return 1
}

// header prints the command banner.
func header(format string, args ...any) {
	current.report.Header(format, args...)
}

func usageError(format string, args ...any) error {
	return current.report.Fail(fmt.Errorf(format, args...), format, args...)
}
