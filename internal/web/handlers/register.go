package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/samnang/facecheck/internal/facematch"
	"github.com/samnang/facecheck/internal/identity"
	"github.com/samnang/facecheck/internal/store"
	"github.com/samnang/facecheck/internal/vision"
)

// PhotoUploader stores employee photos. Satisfied by firebase.App; nil means
// photos are not archived.
type PhotoUploader interface {
	UploadEmployeePhoto(ctx context.Context, imageData []byte, contentType string) (string, error)
}

// RegisterHandler enrolls new employees with their face photo.
type RegisterHandler struct {
	store      store.Store
	identifier identity.Identifier
	detector   vision.Detector
	uploader   PhotoUploader
}

// NewRegisterHandler creates a new register handler.
func NewRegisterHandler(st store.Store, id identity.Identifier, det vision.Detector, up PhotoUploader) *RegisterHandler {
	return &RegisterHandler{store: st, identifier: id, detector: det, uploader: up}
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Employee store.Employee `json:"employee"`
	Faces    int            `json:"faces_detected"`
}

// Register handles employee registration. The request is a multipart form
// with the employee fields and a single face photo.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	photo, contentType, err := readPhotoUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx := r.Context()

	// Validate the photo before touching the store: exactly one face.
	faces, err := h.detector.DetectFaces(ctx, photo)
	if err != nil {
		respondError(w, http.StatusBadGateway, "face detection failed: "+err.Error())
		return
	}
	switch {
	case len(faces) == 0:
		respondError(w, http.StatusUnprocessableEntity, "no face detected in photo")
		return
	case len(faces) > 1:
		respondError(w, http.StatusUnprocessableEntity, "photo must contain exactly one face")
		return
	}

	// The stores reject exact duplicates; also catch case and diacritic
	// variants of an existing name ("Dara" vs "dara").
	existing, err := h.store.ListEmployees(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	normalized := facematch.NormalizeEmployeeName(name)
	for _, other := range existing {
		if facematch.NormalizeEmployeeName(other.Name) == normalized {
			respondError(w, http.StatusConflict, store.ErrDuplicateName.Error())
			return
		}
	}

	emp := &store.Employee{
		Name:        name,
		Gender:      strings.TrimSpace(r.FormValue("gender")),
		DateOfBirth: strings.TrimSpace(r.FormValue("date_of_birth")),
		Position:    strings.TrimSpace(r.FormValue("position")),
		Address:     strings.TrimSpace(r.FormValue("address")),
	}

	id, err := h.store.CreateEmployee(ctx, emp)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	emp.ID = id

	encoding, err := h.identifier.Enroll(ctx, emp, photo)
	if err != nil {
		// Roll back the half-registered employee.
		if delErr := h.store.DeleteEmployee(ctx, id); delErr != nil {
			log.Printf("failed to roll back employee %s: %v", id, delErr)
		}
		respondError(w, http.StatusUnprocessableEntity, "face enrollment failed: "+err.Error())
		return
	}
	emp.Encoding = encoding

	if h.uploader != nil {
		uri, err := h.uploader.UploadEmployeePhoto(ctx, photo, contentType)
		if err != nil {
			// The photo archive is best-effort; registration stands.
			log.Printf("photo upload failed for %s: %v", sanitizeForLog(name), err)
		} else {
			emp.PhotoURI = uri
		}
	}

	if len(emp.Encoding) > 0 || emp.PhotoURI != "" {
		if err := h.store.UpdateEmployee(ctx, emp); err != nil {
			log.Printf("failed to persist encoding for %s: %v", id, err)
		}
	}

	respondJSON(w, http.StatusCreated, RegisterResponse{Employee: *emp, Faces: len(faces)})
}
