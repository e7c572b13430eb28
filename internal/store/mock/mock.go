// Package mock provides an in-memory store implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samnang/facecheck/internal/store"
)

// MockStore is an in-memory implementation of store.Store.
type MockStore struct {
	mu         sync.RWMutex
	employees  map[string]*store.Employee
	attendance map[string]*store.Attendance

	// Error injection
	CreateEmployeeError error
	GetEmployeeError    error
	ListEmployeesError  error
	UpdateEmployeeError error
	DeleteEmployeeError error
	AddAttendanceError  error
	SetCheckOutError    error
	ListAttendanceError error
	PingError           error
}

// NewMockStore creates a new empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		employees:  make(map[string]*store.Employee),
		attendance: make(map[string]*store.Attendance),
	}
}

// CreateEmployee stores a new employee.
func (m *MockStore) CreateEmployee(ctx context.Context, emp *store.Employee) (string, error) {
	if m.CreateEmployeeError != nil {
		return "", m.CreateEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.employees {
		if e.Name == emp.Name {
			return "", store.ErrDuplicateName
		}
	}

	clone := *emp
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.employees[clone.ID] = &clone
	return clone.ID, nil
}

// GetEmployee retrieves an employee by ID.
func (m *MockStore) GetEmployee(ctx context.Context, id string) (*store.Employee, error) {
	if m.GetEmployeeError != nil {
		return nil, m.GetEmployeeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	emp, ok := m.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
	}
	clone := *emp
	return &clone, nil
}

// FindEmployeeByName retrieves an employee by exact name.
func (m *MockStore) FindEmployeeByName(ctx context.Context, name string) (*store.Employee, error) {
	if m.GetEmployeeError != nil {
		return nil, m.GetEmployeeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, emp := range m.employees {
		if emp.Name == name {
			clone := *emp
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("employee %q: %w", name, store.ErrNotFound)
}

// ListEmployees returns all employees.
func (m *MockStore) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	if m.ListEmployeesError != nil {
		return nil, m.ListEmployeesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		out = append(out, *emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateEmployee updates an existing employee.
func (m *MockStore) UpdateEmployee(ctx context.Context, emp *store.Employee) error {
	if m.UpdateEmployeeError != nil {
		return m.UpdateEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[emp.ID]; !ok {
		return fmt.Errorf("employee %s: %w", emp.ID, store.ErrNotFound)
	}
	clone := *emp
	m.employees[emp.ID] = &clone
	return nil
}

// DeleteEmployee removes an employee and their attendance records.
func (m *MockStore) DeleteEmployee(ctx context.Context, id string) error {
	if m.DeleteEmployeeError != nil {
		return m.DeleteEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[id]; !ok {
		return fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
	}
	delete(m.employees, id)
	for recID, rec := range m.attendance {
		if rec.EmployeeID == id {
			delete(m.attendance, recID)
		}
	}
	return nil
}

// AddAttendance stores a new check-in.
func (m *MockStore) AddAttendance(ctx context.Context, rec *store.Attendance) (string, error) {
	if m.AddAttendanceError != nil {
		return "", m.AddAttendanceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *rec
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.attendance[clone.ID] = &clone
	return clone.ID, nil
}

// SetCheckOut closes an attendance record.
func (m *MockStore) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	if m.SetCheckOutError != nil {
		return m.SetCheckOutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.attendance[id]
	if !ok {
		return fmt.Errorf("attendance %s: %w", id, store.ErrNotFound)
	}
	rec.CheckOut = &at
	return nil
}

// OpenAttendance finds an open record inside the day window.
func (m *MockStore) OpenAttendance(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*store.Attendance, error) {
	if m.ListAttendanceError != nil {
		return nil, m.ListAttendanceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.attendance {
		if rec.EmployeeID != employeeID || rec.CheckOut != nil {
			continue
		}
		if !rec.CheckIn.Before(dayStart) && rec.CheckIn.Before(dayEnd) {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

// ListAttendanceByEmployee returns all records for one employee, newest first.
func (m *MockStore) ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]store.Attendance, error) {
	if m.ListAttendanceError != nil {
		return nil, m.ListAttendanceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Attendance
	for _, rec := range m.attendance {
		if rec.EmployeeID == employeeID {
			out = append(out, *rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAttendanceBetween returns records with a check-in inside [start, end).
func (m *MockStore) ListAttendanceBetween(ctx context.Context, start, end time.Time) ([]store.Attendance, error) {
	if m.ListAttendanceError != nil {
		return nil, m.ListAttendanceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Attendance
	for _, rec := range m.attendance {
		if !rec.CheckIn.Before(start) && rec.CheckIn.Before(end) {
			out = append(out, *rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAttendance returns all records, newest first.
func (m *MockStore) ListAttendance(ctx context.Context) ([]store.Attendance, error) {
	if m.ListAttendanceError != nil {
		return nil, m.ListAttendanceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Attendance, 0, len(m.attendance))
	for _, rec := range m.attendance {
		out = append(out, *rec)
	}
	sortNewestFirst(out)
	return out, nil
}

// Ping always succeeds unless an error is injected.
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingError
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

func sortNewestFirst(recs []store.Attendance) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].CheckIn.After(recs[j].CheckIn) })
}
