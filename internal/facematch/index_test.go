package facematch

import (
	"math"
	"testing"
)

func testFaces() []KnownFace {
	return []KnownFace{
		{EmployeeID: "emp-1", Name: "Dara", Encoding: []float32{1, 0, 0, 0}},
		{EmployeeID: "emp-2", Name: "Sokha", Encoding: []float32{0, 1, 0, 0}},
		{EmployeeID: "emp-3", Name: "Vanna", Encoding: []float32{0, 0, 1, 0}},
	}
}

func TestIndex_SearchFindsNearest(t *testing.T) {
	idx := NewIndex()
	if err := idx.Build(testFaces()); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	match, err := idx.Search([]float32{0.9, 0.1, 0, 0}, DefaultTolerance)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.EmployeeID != "emp-1" {
		t.Errorf("expected emp-1, got %s", match.EmployeeID)
	}
	if match.Distance > DefaultTolerance {
		t.Errorf("distance %v exceeds tolerance", match.Distance)
	}
}

func TestIndex_SearchRespectsTolerance(t *testing.T) {
	idx := NewIndex()
	if err := idx.Build(testFaces()); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Equidistant from everything, well outside tolerance.
	match, err := idx.Search([]float32{10, 10, 10, 10}, DefaultTolerance)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match, got %+v", match)
	}
}

func TestIndex_SearchEmptyIndex(t *testing.T) {
	idx := NewIndex()

	match, err := idx.Search([]float32{1, 0, 0, 0}, DefaultTolerance)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match from an empty index, got %+v", match)
	}
}

func TestIndex_AddAndRemove(t *testing.T) {
	idx := NewIndex()
	if err := idx.Build(testFaces()); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if err := idx.Add(KnownFace{EmployeeID: "emp-4", Name: "Nary", Encoding: []float32{0, 0, 0, 1}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if idx.Count() != 4 {
		t.Errorf("expected 4 faces, got %d", idx.Count())
	}

	idx.Remove("emp-4")
	if idx.Count() != 3 {
		t.Errorf("expected 3 faces after removal, got %d", idx.Count())
	}

	match, err := idx.Search([]float32{0, 0, 0, 1}, DefaultTolerance)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if match != nil {
		t.Errorf("removed employee should not match, got %+v", match)
	}
}

func TestIndex_AddReplacesEncoding(t *testing.T) {
	idx := NewIndex()
	if err := idx.Build(testFaces()); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if err := idx.Add(KnownFace{EmployeeID: "emp-1", Name: "Dara", Encoding: []float32{0, 0, 0, 1}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if idx.Count() != 3 {
		t.Errorf("expected count to stay at 3, got %d", idx.Count())
	}

	match, err := idx.Search([]float32{0, 0, 0, 1}, DefaultTolerance)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if match == nil || match.EmployeeID != "emp-1" {
		t.Errorf("expected emp-1 at the new encoding, got %+v", match)
	}
}

func TestIndex_AddEmptyEncoding(t *testing.T) {
	idx := NewIndex()
	if err := idx.Add(KnownFace{EmployeeID: "emp-1"}); err == nil {
		t.Fatal("expected an error for an empty encoding")
	}
}

func TestEuclideanDistance(t *testing.T) {
	if d := EuclideanDistance([]float32{0, 0}, []float32{3, 4}); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
	if d := EuclideanDistance([]float32{1, 2}, []float32{1, 2}); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
	if d := EuclideanDistance([]float32{1}, []float32{1, 2}); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for mismatched lengths, got %v", d)
	}
}

func TestCosineDistance(t *testing.T) {
	if d := CosineDistance([]float32{1, 0}, []float32{1, 0}); d != 0 {
		t.Errorf("expected 0 for identical vectors, got %v", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{0, 1}); math.Abs(d-1) > 1e-9 {
		t.Errorf("expected 1 for orthogonal vectors, got %v", d)
	}
	if d := CosineDistance([]float32{0, 0}, []float32{1, 0}); d != 2 {
		t.Errorf("expected 2 for a zero vector, got %v", d)
	}
}

func TestNormalizeEmployeeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"José García", "jose garcia"},
		{"SOPHEA-CHAN", "sophea chan"},
		{"  Dara  ", "dara"},
	}
	for _, tt := range tests {
		if got := NormalizeEmployeeName(tt.in); got != tt.want {
			t.Errorf("NormalizeEmployeeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
