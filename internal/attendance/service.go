// Package attendance implements the check-in and check-out rules of the
// service: one open record per employee per day, a lateness status derived
// from the company schedule, and a geofence around the office.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/geo"
	"github.com/samnang/facecheck/internal/store"
)

// Schedule cutoffs in company local time. A check-in before 08:00 is early,
// between 08:00 and 08:15 on time, after 08:15 late.
const (
	earlyCutoffHour   = 8
	earlyCutoffMinute = 0
	lateCutoffHour    = 8
	lateCutoffMinute  = 15
)

// Errors returned by Check. Handlers map these to client-facing statuses.
var (
	// ErrOutsideGeofence is returned when a check-in comes from outside the
	// allowed radius around the office.
	ErrOutsideGeofence = errors.New("location is outside the allowed check-in area")

	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNoOpenCheckIn    = errors.New("no active check-in found")
)

// Action describes what a Check call did.
type Action string

const (
	ActionCheckIn  Action = "check_in"
	ActionCheckOut Action = "check_out"
)

// CheckResult is the outcome of a check-in or check-out.
type CheckResult struct {
	Action   Action           `json:"action"`
	Record   store.Attendance `json:"record"`
	Employee store.Employee   `json:"employee"`
}

// Service applies the attendance rules on top of a store.
type Service struct {
	store store.Store
	cfg   *config.CompanyConfig
	loc   *time.Location

	// now is replaceable in tests.
	now func() time.Time
}

// NewService creates an attendance service using the company timezone.
func NewService(st store.Store, cfg *config.CompanyConfig) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	return &Service{store: st, cfg: cfg, loc: loc, now: time.Now}, nil
}

// Status classifies a check-in time against the company schedule.
func (s *Service) Status(t time.Time) string {
	local := t.In(s.loc)
	early := time.Date(local.Year(), local.Month(), local.Day(), earlyCutoffHour, earlyCutoffMinute, 0, 0, s.loc)
	late := time.Date(local.Year(), local.Month(), local.Day(), lateCutoffHour, lateCutoffMinute, 0, 0, s.loc)

	switch {
	case local.Before(early):
		return store.StatusEarly
	case local.After(late):
		return store.StatusLate
	default:
		return store.StatusGood
	}
}

// DayWindow returns the [start, end) bounds of t's day in company local time.
func (s *Service) DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start, start.Add(24 * time.Hour)
}

// VerifyLocation checks the reported coordinates against the office geofence.
func (s *Service) VerifyLocation(lat, lng float64) error {
	if !geo.WithinRadius(lat, lng, s.cfg.Latitude, s.cfg.Longitude, s.cfg.MaxDistanceMeters) {
		return ErrOutsideGeofence
	}
	return nil
}

// FallbackLocation returns the office coordinates when the debug fallback is
// enabled, for clients that sent no position at all (kiosks without GPS).
// Coordinates that were actually reported must still pass VerifyLocation.
func (s *Service) FallbackLocation() (lat, lng float64, ok bool) {
	if !s.cfg.DebugFallback {
		return 0, 0, false
	}
	return s.cfg.Latitude, s.cfg.Longitude, true
}

// Check records a check-in, or a check-out when the employee already has an
// open record today. A non-empty want restricts the call to that action:
// ErrAlreadyCheckedIn when a check-in finds an open record, ErrNoOpenCheckIn
// when a check-out finds none.
func (s *Service) Check(ctx context.Context, employeeID string, lat, lng float64, want Action) (*CheckResult, error) {
	if err := s.VerifyLocation(lat, lng); err != nil {
		return nil, err
	}

	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dayStart, dayEnd := s.DayWindow(now)

	open, err := s.store.OpenAttendance(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	if open != nil {
		if want == ActionCheckIn {
			return nil, ErrAlreadyCheckedIn
		}
		if err := s.store.SetCheckOut(ctx, open.ID, now); err != nil {
			return nil, err
		}
		rec := *open
		checkOut := now
		rec.CheckOut = &checkOut
		return &CheckResult{Action: ActionCheckOut, Record: rec, Employee: *emp}, nil
	}

	if want == ActionCheckOut {
		return nil, ErrNoOpenCheckIn
	}

	rec := store.Attendance{
		EmployeeID:    employeeID,
		CheckIn:       now,
		CheckInStatus: s.Status(now),
	}
	id, err := s.store.AddAttendance(ctx, &rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return &CheckResult{Action: ActionCheckIn, Record: rec, Employee: *emp}, nil
}

// Location returns the company timezone used by the service.
func (s *Service) Location() *time.Location {
	return s.loc
}
