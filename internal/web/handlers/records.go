package handlers

import (
	"net/http"
	"time"

	"github.com/samnang/facecheck/internal/attendance"
	"github.com/samnang/facecheck/internal/store"
)

// RecordsHandler serves the admin attendance record listing.
type RecordsHandler struct {
	store   store.Store
	service *attendance.Service
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(st store.Store, svc *attendance.Service) *RecordsHandler {
	return &RecordsHandler{store: st, service: svc}
}

// RecordEntry is an attendance record joined with the employee name.
type RecordEntry struct {
	store.Attendance
	EmployeeName string `json:"employee_name"`
}

// RecordsResponse wraps the record listing.
type RecordsResponse struct {
	Records []RecordEntry `json:"records"`
	Count   int           `json:"count"`
}

// List returns attendance records, newest first. Supported query parameters:
// employee_id, date (YYYY-MM-DD in company local time) and since (RFC 3339).
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		records []store.Attendance
		err     error
	)

	switch {
	case r.URL.Query().Get("employee_id") != "":
		records, err = h.store.ListAttendanceByEmployee(ctx, r.URL.Query().Get("employee_id"))
	case r.URL.Query().Get("date") != "":
		var day time.Time
		day, err = time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), h.service.Location())
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		start, end := h.service.DayWindow(day)
		records, err = h.store.ListAttendanceBetween(ctx, start, end)
	case r.URL.Query().Get("since") != "":
		var since time.Time
		since, err = time.Parse(time.RFC3339, r.URL.Query().Get("since"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since, expected RFC 3339 timestamp")
			return
		}
		records, err = h.store.ListAttendanceBetween(ctx, since, time.Now().Add(24*time.Hour))
	default:
		records, err = h.store.ListAttendance(ctx)
	}
	if err != nil {
		respondStoreError(w, err)
		return
	}

	employees, err := h.store.ListEmployees(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp.Name
	}

	entries := make([]RecordEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, RecordEntry{Attendance: rec, EmployeeName: names[rec.EmployeeID]})
	}

	respondJSON(w, http.StatusOK, RecordsResponse{Records: entries, Count: len(entries)})
}
