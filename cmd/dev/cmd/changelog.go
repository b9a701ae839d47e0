package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

const chglogInstall = "go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest"

func ChangelogCmd() *cobra.Command {
	var output, next, tag string
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Regenerate CHANGELOG.md from conventional commits",
		Long: `Regenerate the changelog with git-chglog.

Commit subjects follow <type>[scope]: <description>, for example
  feat(ranging): expose timing budget
  fix(report): flush serial writer after each line

Examples:
  dev changelog
  dev changelog --next v0.3.0
  dev changelog --tag v0.2.0 --output CHANGES.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := exec.LookPath("git-chglog"); err != nil {
				slog.Error("git-chglog not found in PATH", "install", chglogInstall)
				return fmt.Errorf("git-chglog not installed: %w", err)
			}
			chglogArgs := []string{"--output", output}
			if next != "" {
				chglogArgs = append(chglogArgs, "--next-tag", next)
			}
			if tag != "" {
				chglogArgs = append(chglogArgs, tag)
			}
			slog.Info("generating changelog", "output", output, "next", next, "tag", tag)
			run := exec.CommandContext(cmd.Context(), "git-chglog", chglogArgs...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("could not generate changelog: %w", err)
			}
			slog.Info("changelog written", "output", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "CHANGELOG.md", "output file path")
	cmd.Flags().StringVar(&next, "next", "", "version tag for unreleased commits (e.g. v0.3.0)")
	cmd.Flags().StringVar(&tag, "tag", "", "limit the changelog to one tag")
	return cmd
}
