package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func FirmwareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Build or flash the board firmware with tinygo",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := cmd.Flags().GetString("target")
			if err != nil {
				return fmt.Errorf("could not get target flag: %w", err)
			}
			flash, err := cmd.Flags().GetBool("flash")
			if err != nil {
				return fmt.Errorf("could not get flash flag: %w", err)
			}
			if _, err := exec.LookPath("tinygo"); err != nil {
				return fmt.Errorf("tinygo not installed: %w", err)
			}
			tinygoArgs := []string{"build", "-target", target, "-o", "dist/proximity-" + target + ".uf2", "./cmd/firmware"}
			if flash {
				tinygoArgs = []string{"flash", "-target", target, "./cmd/firmware"}
			}
			slog.Info("running tinygo", "args", tinygoArgs)
			tinygo := exec.CommandContext(cmd.Context(), "tinygo", tinygoArgs...)
			tinygo.Stdout = os.Stdout
			tinygo.Stderr = os.Stderr
			if err := tinygo.Run(); err != nil {
				return fmt.Errorf("tinygo failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("target", "pico", "tinygo target board")
	cmd.Flags().Bool("flash", false, "flash the connected board instead of writing a uf2 file")
	return cmd
}
