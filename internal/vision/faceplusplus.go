package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FacePPDetector detects faces with the Face++ detect API.
type FacePPDetector struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

// NewFacePPDetector creates a Face++ detector.
func NewFacePPDetector(baseURL, apiKey, apiSecret string) *FacePPDetector {
	return &FacePPDetector{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *FacePPDetector) Name() string {
	return "facepp"
}

type faceppRectangle struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type faceppFace struct {
	FaceToken     string          `json:"face_token"`
	FaceRectangle faceppRectangle `json:"face_rectangle"`
}

type faceppResponse struct {
	Faces        []faceppFace `json:"faces"`
	ErrorMessage string       `json:"error_message"`
}

// DetectFaces posts the image to the Face++ detect endpoint.
func (d *FacePPDetector) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	form := url.Values{}
	form.Set("api_key", d.apiKey)
	form.Set("api_secret", d.apiSecret)
	form.Set("image_base64", base64.StdEncoding.EncodeToString(imageData))

	endpoint := d.baseURL + "/facepp/v3/detect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed faceppResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.ErrorMessage != "" {
		return nil, fmt.Errorf("face++ API error: %s", parsed.ErrorMessage)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	faces := make([]Face, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		faces = append(faces, Face{
			Bounds: BoundingBox{
				X:      f.FaceRectangle.Left,
				Y:      f.FaceRectangle.Top,
				Width:  f.FaceRectangle.Width,
				Height: f.FaceRectangle.Height,
			},
			// The detect endpoint reports no per-face confidence.
			Confidence: 1.0,
		})
	}
	return faces, nil
}
