package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mklimuk/proximity/cmd/dev/cmd"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("dev command failed", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:          "dev",
		Short:        "build, test and flash helper for the proximity project",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(devLogger(debug)))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(
		cmd.BuildCmd(),
		cmd.FirmwareCmd(),
		cmd.TestCmd(),
		cmd.LintCmd(),
		cmd.IntegrationTestCmd(),
		cmd.ChangelogCmd(),
	)
	return root
}

func devLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "dev",
	})
	logger.SetColorProfile(termenv.TrueColor)
	return logger
}
