package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/samnang/facecheck/internal/store"
	"github.com/samnang/facecheck/internal/store/mock"
)

// fakeEncoder returns canned encodings keyed by the image payload.
type fakeEncoder struct {
	encodings map[string][]float32
	err       error
}

func (f *fakeEncoder) EncodeSingleFace(ctx context.Context, imageData []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	enc, ok := f.encodings[string(imageData)]
	if !ok {
		return nil, errors.New("no face found in image")
	}
	return enc, nil
}

func TestEncodingIdentifier_EnrollAndIdentify(t *testing.T) {
	enc := &fakeEncoder{encodings: map[string][]float32{
		"dara-photo":  {1, 0, 0, 0},
		"dara-probe":  {0.9, 0.1, 0, 0},
		"other-probe": {0, 0, 10, 10},
	}}
	id := NewEncodingIdentifier(enc, 0)

	emp := &store.Employee{ID: "emp-1", Name: "Dara"}
	encoding, err := id.Enroll(context.Background(), emp, []byte("dara-photo"))
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if len(encoding) != 4 {
		t.Fatalf("expected the computed encoding back, got %v", encoding)
	}

	match, err := id.Identify(context.Background(), []byte("dara-probe"))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match == nil || match.EmployeeID != "emp-1" {
		t.Fatalf("expected emp-1, got %+v", match)
	}
	if match.Confidence <= 0 || match.Confidence > 1 {
		t.Errorf("confidence out of range: %v", match.Confidence)
	}

	match, err = id.Identify(context.Background(), []byte("other-probe"))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match for a distant face, got %+v", match)
	}
}

func TestEncodingIdentifier_Forget(t *testing.T) {
	enc := &fakeEncoder{encodings: map[string][]float32{
		"photo": {1, 0, 0, 0},
		"probe": {1, 0, 0, 0},
	}}
	id := NewEncodingIdentifier(enc, 0)

	if _, err := id.Enroll(context.Background(), &store.Employee{ID: "emp-1", Name: "Dara"}, []byte("photo")); err != nil {
		t.Fatal(err)
	}
	if err := id.Forget(context.Background(), "emp-1"); err != nil {
		t.Fatal(err)
	}

	match, err := id.Identify(context.Background(), []byte("probe"))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match after Forget, got %+v", match)
	}
}

func TestEncodingIdentifier_LoadFromStore(t *testing.T) {
	st := mock.NewMockStore()
	ctx := context.Background()
	id1, _ := st.CreateEmployee(ctx, &store.Employee{Name: "Dara", Encoding: []float32{1, 0, 0, 0}})
	st.CreateEmployee(ctx, &store.Employee{Name: "NoFace"}) // skipped: no encoding

	enc := &fakeEncoder{encodings: map[string][]float32{
		"probe": {1, 0, 0, 0},
	}}
	id := NewEncodingIdentifier(enc, 0)
	if err := id.LoadFromStore(ctx, st); err != nil {
		t.Fatalf("LoadFromStore failed: %v", err)
	}
	if id.Count() != 1 {
		t.Errorf("expected 1 indexed face, got %d", id.Count())
	}

	match, err := id.Identify(ctx, []byte("probe"))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match == nil || match.EmployeeID != id1 {
		t.Errorf("expected %s, got %+v", id1, match)
	}
}

func TestEncodingIdentifier_EncoderError(t *testing.T) {
	id := NewEncodingIdentifier(&fakeEncoder{err: errors.New("sidecar down")}, 0)

	if _, err := id.Identify(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected the encoder error to propagate")
	}
}
