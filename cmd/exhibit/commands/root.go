// Package commands holds the cobra commands of the exhibit CLI.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	logFormat string

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "exhibit",
	Short: "Exhibit catalog builder and text extraction toolkit",
	Long: `exhibit builds the artifact catalog consumed by the exhibit web app and
transcribes text from exhibit photos and book pages with a multimodal model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.InitUI(noColor)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		}
		format := cfg.Observability.LogFormat
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      format,
			Output:      os.Stderr,
			ServiceName: "exhibit",
		}).WithRun(uuid.NewString())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, version string) error {
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}
