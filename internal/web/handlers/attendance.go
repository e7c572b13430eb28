package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/samnang/facecheck/internal/attendance"
	"github.com/samnang/facecheck/internal/identity"
	"github.com/samnang/facecheck/internal/store"
)

// AttendanceHandler serves the kiosk endpoint: a photo plus coordinates in,
// a check-in or check-out out.
type AttendanceHandler struct {
	service    *attendance.Service
	identifier identity.Identifier
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *attendance.Service, id identity.Identifier) *AttendanceHandler {
	return &AttendanceHandler{service: svc, identifier: id}
}

// CheckResponse is returned for a recognized face.
type CheckResponse struct {
	Action     attendance.Action `json:"action"`
	Record     store.Attendance  `json:"record"`
	Employee   store.Employee    `json:"employee"`
	Confidence float64           `json:"confidence"`
}

// Check identifies the face in the uploaded photo and records a check-in, or
// a check-out when the employee already checked in today.
func (h *AttendanceHandler) Check(w http.ResponseWriter, r *http.Request) {
	photo, _, err := readPhotoUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	// Missing coordinates fall back to the office position when the debug
	// fallback is enabled; otherwise they stay at zero and the geofence
	// rejects them. Reported coordinates are always checked as sent.
	var lat, lng float64
	if latStr, lngStr := r.FormValue("latitude"), r.FormValue("longitude"); latStr != "" || lngStr != "" {
		var latErr, lngErr error
		lat, latErr = strconv.ParseFloat(latStr, 64)
		lng, lngErr = strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			respondError(w, http.StatusBadRequest, "invalid latitude or longitude")
			return
		}
	} else if fbLat, fbLng, ok := h.service.FallbackLocation(); ok {
		lat, lng = fbLat, fbLng
	}

	// An explicit action restricts the call; empty means toggle.
	want := attendance.Action(r.FormValue("action"))
	switch want {
	case "", attendance.ActionCheckIn, attendance.ActionCheckOut:
	default:
		respondError(w, http.StatusBadRequest, "action must be check_in or check_out")
		return
	}

	ctx := r.Context()

	match, err := h.identifier.Identify(ctx, photo)
	if err != nil {
		respondError(w, http.StatusBadGateway, "face recognition failed: "+err.Error())
		return
	}
	if match == nil {
		respondError(w, http.StatusNotFound, "face not recognized")
		return
	}

	result, err := h.service.Check(ctx, match.EmployeeID, lat, lng, want)
	if err != nil {
		if errors.Is(err, attendance.ErrOutsideGeofence) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) || errors.Is(err, attendance.ErrNoOpenCheckIn) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("attendance check failed for %s: %v", match.EmployeeID, err)
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckResponse{
		Action:     result.Action,
		Record:     result.Record,
		Employee:   result.Employee,
		Confidence: match.Confidence,
	})
}
