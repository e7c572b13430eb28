// Package store defines the persistence interfaces for employees and
// attendance records, with Firestore and SQL implementations in subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// Check-in status values, decided by comparing the check-in time against the
// company schedule (before 08:00 is early, after 08:15 is late).
const (
	StatusEarly = "Early"
	StatusGood  = "Good"
	StatusLate  = "Late"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName is returned when registering an employee whose name
	// is already taken.
	ErrDuplicateName = errors.New("employee name already registered")
)

// Employee is a registered employee with their face encoding.
type Employee struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Gender      string    `json:"gender,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Position    string    `json:"position,omitempty"`
	Address     string    `json:"address,omitempty"`
	Encoding    []float32 `json:"-"`
	PhotoURI    string    `json:"photo_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attendance is one check-in record, optionally closed by a check-out.
type Attendance struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employee_id"`
	CheckIn       time.Time  `json:"check_in"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
	CheckInStatus string     `json:"check_in_status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EmployeeStore provides access to registered employees.
type EmployeeStore interface {
	// CreateEmployee stores a new employee and returns its ID.
	// Returns ErrDuplicateName when the name is already registered.
	CreateEmployee(ctx context.Context, emp *Employee) (string, error)
	// GetEmployee retrieves an employee by ID. Returns ErrNotFound.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	// FindEmployeeByName retrieves an employee by exact name. Returns ErrNotFound.
	FindEmployeeByName(ctx context.Context, name string) (*Employee, error)
	// ListEmployees returns all registered employees.
	ListEmployees(ctx context.Context) ([]Employee, error)
	// UpdateEmployee updates the mutable fields of an existing employee.
	UpdateEmployee(ctx context.Context, emp *Employee) error
	// DeleteEmployee removes an employee and all their attendance records.
	DeleteEmployee(ctx context.Context, id string) error
}

// AttendanceStore provides access to attendance records.
type AttendanceStore interface {
	// AddAttendance stores a new check-in and returns its ID.
	AddAttendance(ctx context.Context, rec *Attendance) (string, error)
	// SetCheckOut closes an attendance record. Returns ErrNotFound.
	SetCheckOut(ctx context.Context, id string, at time.Time) error
	// OpenAttendance finds the employee's record with a check-in inside
	// [dayStart, dayEnd) and no check-out yet. Returns nil when there is none.
	OpenAttendance(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*Attendance, error)
	// ListAttendanceByEmployee returns all records for one employee,
	// newest first.
	ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]Attendance, error)
	// ListAttendanceBetween returns records with a check-in inside
	// [start, end), newest first.
	ListAttendanceBetween(ctx context.Context, start, end time.Time) ([]Attendance, error)
	// ListAttendance returns all records, newest first.
	ListAttendance(ctx context.Context) ([]Attendance, error)
}

// Store combines employee and attendance persistence.
type Store interface {
	EmployeeStore
	AttendanceStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
