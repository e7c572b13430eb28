package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/samnang/facecheck/internal/attendance"
	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/identity"
	"github.com/samnang/facecheck/internal/store"
	"github.com/samnang/facecheck/internal/store/mock"
	"github.com/samnang/facecheck/internal/vision"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Admin: config.AdminConfig{
			Username:      "admin",
			Password:      "testpass",
			SessionSecret: "test-secret",
		},
		Company: config.CompanyConfig{
			Latitude:          13.37488193943832,
			Longitude:         103.842437801041,
			MaxDistanceMeters: 2000,
			Timezone:          "Asia/Phnom_Penh",
		},
	}
}

// testService builds an attendance service over the given store.
func testService(t *testing.T, st store.Store) *attendance.Service {
	t.Helper()
	svc, err := attendance.NewService(st, &testConfig().Company)
	if err != nil {
		t.Fatalf("failed to create attendance service: %v", err)
	}
	return svc
}

// fallbackService is testService with the debug location fallback enabled.
func fallbackService(t *testing.T, st store.Store) *attendance.Service {
	t.Helper()
	cfg := testConfig().Company
	cfg.DebugFallback = true
	svc, err := attendance.NewService(st, &cfg)
	if err != nil {
		t.Fatalf("failed to create attendance service: %v", err)
	}
	return svc
}

// fakeIdentifier is a canned identity.Identifier.
type fakeIdentifier struct {
	match       *identity.Match
	identifyErr error

	enrollEncoding []float32
	enrollErr      error

	forgotten []string
	forgetErr error
}

func (f *fakeIdentifier) Identify(ctx context.Context, imageData []byte) (*identity.Match, error) {
	return f.match, f.identifyErr
}

func (f *fakeIdentifier) Enroll(ctx context.Context, emp *store.Employee, imageData []byte) ([]float32, error) {
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	return f.enrollEncoding, nil
}

func (f *fakeIdentifier) Forget(ctx context.Context, employeeID string) error {
	f.forgotten = append(f.forgotten, employeeID)
	return f.forgetErr
}

// fakeDetector is a canned vision.Detector.
type fakeDetector struct {
	faces []vision.Face
	err   error
}

func (f *fakeDetector) Name() string { return "fake" }

func (f *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) ([]vision.Face, error) {
	return f.faces, f.err
}

// fakeUploader records photo uploads.
type fakeUploader struct {
	uri     string
	err     error
	uploads int
}

func (f *fakeUploader) UploadEmployeePhoto(ctx context.Context, imageData []byte, contentType string) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return f.uri, nil
}

// oneFace is a detection result with a single usable face.
func oneFace() []vision.Face {
	return []vision.Face{{Bounds: vision.BoundingBox{X: 10, Y: 10, Width: 80, Height: 80}, Confidence: 0.98}}
}

// multipartPhotoRequest builds a multipart request with a photo and extra
// form fields.
func multipartPhotoRequest(t *testing.T, path string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	if photo != nil {
		part, err := mw.CreateFormFile("photo", "face.jpg")
		if err != nil {
			t.Fatalf("failed to create photo part: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("failed to write photo: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// seedEmployee registers an employee directly in the mock store.
func seedEmployee(t *testing.T, st *mock.MockStore, name string) *store.Employee {
	t.Helper()
	emp := &store.Employee{Name: name, Position: "Engineer"}
	id, err := st.CreateEmployee(context.Background(), emp)
	if err != nil {
		t.Fatalf("failed to seed employee %s: %v", name, err)
	}
	emp.ID = id
	return emp
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

var errBackend = errors.New("backend unavailable")
