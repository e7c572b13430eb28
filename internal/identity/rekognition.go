package identity

import (
	"context"
	"fmt"

	"github.com/samnang/facecheck/internal/store"
	"github.com/samnang/facecheck/internal/vision"
)

// RekognitionIdentifier delegates matching to an AWS Rekognition collection.
// Selected with MATCH_PROVIDER=rekognition; no encoder sidecar is needed.
type RekognitionIdentifier struct {
	matcher *vision.Matcher
	st      store.EmployeeStore
}

// NewRekognitionIdentifier wraps a collection matcher. The store is only used
// to resolve employee names for matches.
func NewRekognitionIdentifier(matcher *vision.Matcher, st store.EmployeeStore) *RekognitionIdentifier {
	return &RekognitionIdentifier{matcher: matcher, st: st}
}

// Identify searches the collection with the probe image.
func (r *RekognitionIdentifier) Identify(ctx context.Context, imageData []byte) (*Match, error) {
	employeeID, confidence, err := r.matcher.SearchFace(ctx, imageData)
	if err != nil {
		return nil, err
	}
	if employeeID == "" {
		return nil, nil
	}

	emp, err := r.st.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("resolving matched employee: %w", err)
	}
	return &Match{EmployeeID: emp.ID, Name: emp.Name, Confidence: confidence}, nil
}

// Enroll indexes the face into the collection. Rekognition keeps the feature
// vectors itself, so no encoding is returned.
func (r *RekognitionIdentifier) Enroll(ctx context.Context, emp *store.Employee, imageData []byte) ([]float32, error) {
	if err := r.matcher.IndexFace(ctx, emp.ID, imageData); err != nil {
		return nil, err
	}
	return nil, nil
}

// Forget removes the employee's faces from the collection.
func (r *RekognitionIdentifier) Forget(ctx context.Context, employeeID string) error {
	return r.matcher.RemoveFace(ctx, employeeID)
}
