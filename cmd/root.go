package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facecheck",
	Short: "Face recognition attendance service",
	Long: `FaceCheck runs an employee attendance service: employees check in and
out with their face at a kiosk, and an admin dashboard tracks lateness and
attendance statistics. Faces are detected through cloud vision APIs and
matched against encodings from the local encoder sidecar.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
