package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/vision"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect faces in an image file",
	Long: `Run the configured vision provider against a local image and print
the detected faces. Useful for checking credentials and comparing providers
before pointing the kiosk at the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	imageData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	detector, err := vision.NewDetector(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initializing face detector: %w", err)
	}

	faces, err := detector.DetectFaces(cmd.Context(), imageData)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}

	fmt.Printf("Provider: %s\n", detector.Name())
	fmt.Printf("Faces detected: %d\n", len(faces))
	for i, face := range faces {
		fmt.Printf("  face %d: x=%d y=%d w=%d h=%d confidence=%.2f\n",
			i+1, face.Bounds.X, face.Bounds.Y, face.Bounds.Width, face.Bounds.Height, face.Confidence)
	}
	return nil
}
