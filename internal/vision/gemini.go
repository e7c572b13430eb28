package vision

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

//go:embed prompts/face_detection.txt
var faceDetectionPrompt string

const geminiModel = "gemini-2.5-flash"

// faceList is the JSON shape the LLM detectors respond with.
type faceList struct {
	Faces []struct {
		X          int     `json:"x"`
		Y          int     `json:"y"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		Confidence float64 `json:"confidence"`
	} `json:"faces"`
}

func (l *faceList) toFaces() []Face {
	faces := make([]Face, 0, len(l.Faces))
	for _, f := range l.Faces {
		faces = append(faces, Face{
			Bounds:     BoundingBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			Confidence: f.Confidence,
		})
	}
	return faces
}

// GeminiDetector detects faces with the Gemini API. Useful for deployments
// that already hold a Gemini key but no Cloud Vision access.
type GeminiDetector struct {
	client *genai.Client
}

// NewGeminiDetector creates a Gemini-backed detector.
func NewGeminiDetector(ctx context.Context, apiKey string) (*GeminiDetector, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiDetector{client: client}, nil
}

func (d *GeminiDetector) Name() string {
	return geminiModel
}

// DetectFaces asks the model for face bounding boxes in JSON.
func (d *GeminiDetector) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	const maxRetries = 3

	// Resize to cut token cost; boxes are scaled back up by the caller only
	// for display, so small drift is acceptable.
	resized, err := ResizeImage(imageData, 800)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: faceDetectionPrompt},
				{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	for range maxRetries {
		result, err := d.client.Models.GenerateContent(ctx, geminiModel, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}

		var list faceList
		if err := json.Unmarshal([]byte(content), &list); err != nil {
			lastError = err
			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again.", err)}},
				},
			)
			continue
		}
		return list.toFaces(), nil
	}

	return nil, fmt.Errorf("failed to parse face JSON after %d attempts: %w", maxRetries, lastError)
}
