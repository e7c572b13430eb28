package handlers

import (
	"net/http"

	"github.com/samnang/facecheck/internal/attendance"
)

// StatsHandler serves the admin dashboard summary.
type StatsHandler struct {
	service *attendance.Service
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *attendance.Service) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Get returns today's counts and the current month's rankings.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.MonthlyStats(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
