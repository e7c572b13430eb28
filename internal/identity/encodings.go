package identity

import (
	"context"
	"fmt"

	"github.com/samnang/facecheck/internal/facematch"
	"github.com/samnang/facecheck/internal/store"
)

// Encoder computes a face encoding for an image. Satisfied by
// encoding.EncoderClient.
type Encoder interface {
	EncodeSingleFace(ctx context.Context, imageData []byte) ([]float32, error)
}

// EncodingIdentifier matches faces locally: the encoder sidecar turns images
// into encodings and the HNSW index finds the nearest registered employee.
// This is the default matcher.
type EncodingIdentifier struct {
	encoder   Encoder
	index     *facematch.Index
	tolerance float64
}

// NewEncodingIdentifier creates an identifier over an empty index. Call
// LoadFromStore before serving traffic.
func NewEncodingIdentifier(encoder Encoder, tolerance float64) *EncodingIdentifier {
	if tolerance <= 0 {
		tolerance = facematch.DefaultTolerance
	}
	return &EncodingIdentifier{
		encoder:   encoder,
		index:     facematch.NewIndex(),
		tolerance: tolerance,
	}
}

// LoadFromStore rebuilds the index from all registered employees.
func (e *EncodingIdentifier) LoadFromStore(ctx context.Context, st store.EmployeeStore) error {
	employees, err := st.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("loading employees: %w", err)
	}

	faces := make([]facematch.KnownFace, 0, len(employees))
	for _, emp := range employees {
		if len(emp.Encoding) == 0 {
			continue
		}
		faces = append(faces, facematch.KnownFace{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Encoding:   emp.Encoding,
		})
	}
	return e.index.Build(faces)
}

// Identify encodes the probe image and searches the index.
func (e *EncodingIdentifier) Identify(ctx context.Context, imageData []byte) (*Match, error) {
	probe, err := e.encoder.EncodeSingleFace(ctx, imageData)
	if err != nil {
		return nil, err
	}

	m, err := e.index.Search(probe, e.tolerance)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	// Distance 0 is a perfect match; scale against the tolerance so callers
	// get a familiar 0..1 confidence.
	confidence := 1 - m.Distance/e.tolerance
	return &Match{EmployeeID: m.EmployeeID, Name: m.Name, Confidence: confidence}, nil
}

// Enroll encodes the face and adds it to the index.
func (e *EncodingIdentifier) Enroll(ctx context.Context, emp *store.Employee, imageData []byte) ([]float32, error) {
	enc, err := e.encoder.EncodeSingleFace(ctx, imageData)
	if err != nil {
		return nil, err
	}

	err = e.index.Add(facematch.KnownFace{
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Encoding:   enc,
	})
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// Forget drops the employee from the index.
func (e *EncodingIdentifier) Forget(ctx context.Context, employeeID string) error {
	e.index.Remove(employeeID)
	return nil
}

// Count reports how many faces are searchable.
func (e *EncodingIdentifier) Count() int {
	return e.index.Count()
}
