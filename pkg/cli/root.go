// Package cli wires the smartifier commands: vertex and edge transformation
// of graph data files into smart-graph format.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:           "smartifier",
		Short:         "Transform graph data into smart-graph format",
		Long:          "Rewrites vertex and edge files (CSV or JSONL) so that keys embed the smart graph attribute, enabling locality-aware sharding.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	logger := func() *slog.Logger { return buildLogger(logLevel, logFormat) }

	rootCmd.AddCommand(newVerticesCmd(logger))
	rootCmd.AddCommand(newEdgesCmd(logger))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

// buildLogger constructs the slog logger from the root flags. Logs go to
// stderr; stdout stays clean for shell pipelines.
func buildLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
