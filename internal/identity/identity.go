// Package identity answers "whose face is this". Two backends exist: a local
// one matching encoder-sidecar encodings against an HNSW index, and a managed
// one backed by an AWS Rekognition collection.
package identity

import (
	"context"

	"github.com/samnang/facecheck/internal/store"
)

// Match is a successful identification.
type Match struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Identifier registers employee faces and identifies probe images.
type Identifier interface {
	// Identify finds the employee in the image. Returns nil when nobody
	// registered matches.
	Identify(ctx context.Context, imageData []byte) (*Match, error)
	// Enroll registers an employee's face. The returned encoding is stored
	// with the employee; backends without local encodings return nil.
	Enroll(ctx context.Context, emp *store.Employee, imageData []byte) ([]float32, error)
	// Forget removes an employee from the matcher.
	Forget(ctx context.Context, employeeID string) error
}
