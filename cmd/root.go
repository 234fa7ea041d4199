// Package cmd implements the patchscan CLI commands using Cobra.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	format     string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "patchscan",
	Short: "Streaming patch and diff scanner",
	Long: `patchscan is a streaming, format-tolerant scanner for unified, context,
and git-extended patches.

It recognizes patch boundaries embedded in arbitrary text (a commit
message, a mailing-list post, a pull request body) without requiring the
whole stream to be buffered in memory first.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: .patchscan.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "terminal", "output format (terminal|json)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write output to file instead of stdout")
}

func setupLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}
