package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare the host for the attendance service",
	Long: `Set up the host: resolve service account credentials, install the
system packages and Python dependencies the encoder sidecar needs, and
verify that the cloud clients can be constructed.

Missing package managers and failed system packages are tolerated; only a
broken credential payload or a failed dependency installation aborts.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().Bool("skip-packages", false, "Skip system package installation")
	setupCmd.Flags().Bool("skip-deps", false, "Skip Python dependency installation")
	setupCmd.Flags().Bool("skip-verify", false, "Skip cloud client verification")
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	opts := setup.Options{
		SkipPackages: mustGetBool(cmd, "skip-packages"),
		SkipDeps:     mustGetBool(cmd, "skip-deps"),
		SkipVerify:   mustGetBool(cmd, "skip-verify"),
	}

	if !opts.SkipPackages {
		// The bar is sized once the runner knows which package manager is
		// actually on this host.
		var bar *progressbar.ProgressBar
		opts.PackagesDetected = func(manager string, total int) {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Installing packages ("+manager+")"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		opts.PackageProgress = func(pkg string) {
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	runner := setup.NewRunner(cfg, setup.NewExecRunner(), os.Stdout)
	if err := runner.Run(cmd.Context(), opts); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	fmt.Println("Setup complete")
	return nil
}
