package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// qualityCmd wraps one of the devtool checks in a cobra command.
func qualityCmd(use, short, what string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("running "+what, "module", "github.com/mklimuk/proximity")
			if err := run(); err != nil {
				return fmt.Errorf("%s failed: %w", what, err)
			}
			return nil
		},
	}
}

// TestCmd runs unit tests for the host packages. The firmware entry point is excluded by
// its build tag.
func TestCmd() *cobra.Command {
	return qualityCmd("test", "Run unit tests", "tests", test.Test)
}

func LintCmd() *cobra.Command {
	return qualityCmd("lint", "Run linters", "linting", test.Lint)
}

// IntegrationTestCmd runs tests that need a real bus, bridge or serial port attached.
func IntegrationTestCmd() *cobra.Command {
	return qualityCmd("integration-test", "Run hardware-in-the-loop tests", "integration tests", test.Integ)
}
