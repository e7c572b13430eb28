package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samnang/facecheck/internal/config"
)

// Helper functions for creating test images

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// --- ResizeImage tests ---

func TestResizeImage_NoResizeNeeded(t *testing.T) {
	data := encodeJPEG(createTestImage(100, 100, color.White))

	resized, err := ResizeImage(data, 200)
	if err != nil {
		t.Fatalf("ResizeImage failed: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg format, got %s", format)
	}
	if img.Bounds().Dx() != 100 {
		t.Errorf("expected width 100, got %d", img.Bounds().Dx())
	}
}

func TestResizeImage_ScalesDown(t *testing.T) {
	data := encodeJPEG(createTestImage(1600, 800, color.White))

	resized, err := ResizeImage(data, 800)
	if err != nil {
		t.Fatalf("ResizeImage failed: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if img.Bounds().Dx() != 800 {
		t.Errorf("expected width 800, got %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 400 {
		t.Errorf("expected height 400, got %d", img.Bounds().Dy())
	}
}

func TestResizeImage_InvalidData(t *testing.T) {
	if _, err := ResizeImage([]byte("not an image"), 800); err == nil {
		t.Fatal("expected an error for invalid image data")
	}
}

// --- Face++ detector tests ---

func TestFacePPDetector_DetectFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/facepp/v3/detect" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostFormValue("api_key") != "test-key" {
			t.Errorf("missing api_key, got %q", r.PostFormValue("api_key"))
		}
		if r.PostFormValue("image_base64") == "" {
			t.Error("missing image_base64")
		}
		json.NewEncoder(w).Encode(faceppResponse{
			Faces: []faceppFace{
				{FaceToken: "tok1", FaceRectangle: faceppRectangle{Top: 10, Left: 20, Width: 50, Height: 60}},
			},
		})
	}))
	defer srv.Close()

	d := NewFacePPDetector(srv.URL, "test-key", "test-secret")
	faces, err := d.DetectFaces(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	want := BoundingBox{X: 20, Y: 10, Width: 50, Height: 60}
	if faces[0].Bounds != want {
		t.Errorf("got bounds %+v, want %+v", faces[0].Bounds, want)
	}
}

func TestFacePPDetector_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(faceppResponse{ErrorMessage: "AUTHENTICATION_ERROR"})
	}))
	defer srv.Close()

	d := NewFacePPDetector(srv.URL, "bad", "bad")
	if _, err := d.DetectFaces(context.Background(), []byte("image-bytes")); err == nil {
		t.Fatal("expected an error from the API")
	}
}

func TestFacePPDetector_NoFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(faceppResponse{})
	}))
	defer srv.Close()

	d := NewFacePPDetector(srv.URL, "k", "s")
	faces, err := d.DetectFaces(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

// --- Factory tests ---

func TestNewDetector_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Vision.Provider = "clippy"

	if _, err := NewDetector(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestNewDetector_FacePP(t *testing.T) {
	cfg := &config.Config{}
	cfg.Vision.Provider = "facepp"
	cfg.FacePP.URL = "https://api-us.faceplusplus.com"
	cfg.FacePP.APIKey = "k"
	cfg.FacePP.APISecret = "s"

	d, err := NewDetector(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	if d.Name() != "facepp" {
		t.Errorf("got name %q", d.Name())
	}
}

// --- bounding box helpers ---

func TestFaceListToFaces(t *testing.T) {
	raw := `{"faces":[{"x":1,"y":2,"width":3,"height":4,"confidence":0.9}]}`
	var list faceList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatal(err)
	}
	faces := list.toFaces()
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	if faces[0].Bounds.Width != 3 || faces[0].Confidence != 0.9 {
		t.Errorf("unexpected face %+v", faces[0])
	}
}
