package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// FirmwareCmd builds (and optionally flashes) the bring-up firmware with TinyGo.
func FirmwareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Build the STM32F103 bring-up firmware",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := cmd.Flags().GetString("target")
			if err != nil {
				return fmt.Errorf("could not get target flag: %w", err)
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("could not get output flag: %w", err)
			}
			flash, err := cmd.Flags().GetBool("flash")
			if err != nil {
				return fmt.Errorf("could not get flash flag: %w", err)
			}
			if _, err := exec.LookPath("tinygo"); err != nil {
				slog.Error("tinygo not found in PATH")
				slog.Info("see https://tinygo.org/getting-started/install/")
				return fmt.Errorf("tinygo not installed: %w", err)
			}
			tinygoArgs := []string{"build", "-target", target, "-o", output, "./cmd/firmware"}
			if flash {
				tinygoArgs = []string{"flash", "-target", target, "./cmd/firmware"}
			}
			slog.Info("running tinygo", "args", tinygoArgs)
			tinygo := exec.CommandContext(cmd.Context(), "tinygo", tinygoArgs...)
			tinygo.Stdout = os.Stdout
			tinygo.Stderr = os.Stderr
			if err := tinygo.Run(); err != nil {
				return fmt.Errorf("tinygo %s failed: %w", tinygoArgs[0], err)
			}
			if !flash {
				slog.Info("firmware built", "output", output)
			}
			return nil
		},
	}
	cmd.Flags().String("target", "bluepill", "tinygo target")
	cmd.Flags().String("output", "dist/gt811-firmware.hex", "output file")
	cmd.Flags().Bool("flash", false, "flash the board instead of writing a file")
	return cmd
}
