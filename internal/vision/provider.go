// Package vision detects faces in images through interchangeable cloud
// backends. Detection only answers "is there a usable face here"; identity
// matching happens against stored encodings or a Rekognition collection.
package vision

import (
	"context"
	"fmt"

	"github.com/samnang/facecheck/internal/config"
)

// BoundingBox is a face location in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Face is a single detected face.
type Face struct {
	Bounds     BoundingBox `json:"bounds"`
	Confidence float64     `json:"confidence"`
}

// Detector defines the interface for face detection backends.
type Detector interface {
	Name() string
	DetectFaces(ctx context.Context, imageData []byte) ([]Face, error)
}

// NewDetector creates the detector selected by VISION_PROVIDER.
func NewDetector(ctx context.Context, cfg *config.Config) (Detector, error) {
	switch cfg.Vision.Provider {
	case "googlevision":
		return NewGoogleVisionDetector(ctx, cfg.Vision.MaxFaces)
	case "rekognition":
		return NewRekognitionDetector(ctx, cfg.AWS.Region)
	case "facepp":
		return NewFacePPDetector(cfg.FacePP.URL, cfg.FacePP.APIKey, cfg.FacePP.APISecret), nil
	case "gemini":
		return NewGeminiDetector(ctx, cfg.Gemini.APIKey)
	case "openai":
		return NewOpenAIDetector(cfg.OpenAI.Token), nil
	default:
		return nil, fmt.Errorf("unknown vision provider: %s", cfg.Vision.Provider)
	}
}
