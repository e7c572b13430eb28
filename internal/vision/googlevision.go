package vision

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// GoogleVisionDetector detects faces with the Cloud Vision API. This is the
// default backend.
type GoogleVisionDetector struct {
	client   *vision.ImageAnnotatorClient
	maxFaces int
}

// NewGoogleVisionDetector creates a Cloud Vision detector. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS.
func NewGoogleVisionDetector(ctx context.Context, maxFaces int) (*GoogleVisionDetector, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision client: %w", err)
	}
	if maxFaces <= 0 {
		maxFaces = 10
	}
	return &GoogleVisionDetector{client: client, maxFaces: maxFaces}, nil
}

func (d *GoogleVisionDetector) Name() string {
	return "googlevision"
}

// DetectFaces runs face detection on the raw image bytes.
func (d *GoogleVisionDetector) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	annotations, err := d.client.DetectFaces(ctx, &visionpb.Image{Content: imageData}, nil, d.maxFaces)
	if err != nil {
		return nil, fmt.Errorf("vision API error: %w", err)
	}

	faces := make([]Face, 0, len(annotations))
	for _, ann := range annotations {
		faces = append(faces, Face{
			Bounds:     boundsFromPoly(ann.BoundingPoly),
			Confidence: float64(ann.DetectionConfidence),
		})
	}
	return faces, nil
}

// Close releases the underlying client.
func (d *GoogleVisionDetector) Close() error {
	return d.client.Close()
}

// boundsFromPoly converts a bounding polygon to an axis-aligned box.
func boundsFromPoly(poly *visionpb.BoundingPoly) BoundingBox {
	if poly == nil || len(poly.Vertices) == 0 {
		return BoundingBox{}
	}

	minX, minY := poly.Vertices[0].X, poly.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range poly.Vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}

	return BoundingBox{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
