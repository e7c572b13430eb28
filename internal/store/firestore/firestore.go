// Package firestore implements store.Store on Cloud Firestore, the primary
// backend of the attendance service.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/samnang/facecheck/internal/encoding"
	"github.com/samnang/facecheck/internal/store"
)

const (
	employeesCollection  = "employees"
	attendanceCollection = "attendance"
)

// Store is a Firestore-backed store.Store.
type Store struct {
	client *firestore.Client
}

// New wraps an existing Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// employeeDoc is the Firestore document shape for an employee. The face
// encoding is stored as base64 over little-endian float32.
type employeeDoc struct {
	Name        string    `firestore:"name"`
	Gender      string    `firestore:"gender,omitempty"`
	DateOfBirth string    `firestore:"date_of_birth,omitempty"`
	Position    string    `firestore:"position,omitempty"`
	Address     string    `firestore:"address,omitempty"`
	Encoding    string    `firestore:"encoding"`
	PhotoURI    string    `firestore:"photo_uri,omitempty"`
	CreatedAt   time.Time `firestore:"created_at"`
}

type attendanceDoc struct {
	EmployeeID    string     `firestore:"employee_id"`
	CheckIn       time.Time  `firestore:"check_in"`
	CheckOut      *time.Time `firestore:"check_out"`
	CheckInStatus string     `firestore:"check_in_status"`
	CreatedAt     time.Time  `firestore:"created_at"`
}

func toEmployee(id string, doc *employeeDoc) (*store.Employee, error) {
	emp := &store.Employee{
		ID:          id,
		Name:        doc.Name,
		Gender:      doc.Gender,
		DateOfBirth: doc.DateOfBirth,
		Position:    doc.Position,
		Address:     doc.Address,
		PhotoURI:    doc.PhotoURI,
		CreatedAt:   doc.CreatedAt,
	}
	if doc.Encoding != "" {
		vec, err := encoding.Unmarshal(doc.Encoding)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		emp.Encoding = vec
	}
	return emp, nil
}

func fromEmployee(emp *store.Employee) *employeeDoc {
	doc := &employeeDoc{
		Name:        emp.Name,
		Gender:      emp.Gender,
		DateOfBirth: emp.DateOfBirth,
		Position:    emp.Position,
		Address:     emp.Address,
		PhotoURI:    emp.PhotoURI,
		CreatedAt:   emp.CreatedAt,
	}
	if len(emp.Encoding) > 0 {
		doc.Encoding = encoding.Marshal(emp.Encoding)
	}
	return doc
}

func toAttendance(id string, doc *attendanceDoc) *store.Attendance {
	return &store.Attendance{
		ID:            id,
		EmployeeID:    doc.EmployeeID,
		CheckIn:       doc.CheckIn,
		CheckOut:      doc.CheckOut,
		CheckInStatus: doc.CheckInStatus,
		CreatedAt:     doc.CreatedAt,
	}
}

// CreateEmployee stores a new employee document.
func (s *Store) CreateEmployee(ctx context.Context, emp *store.Employee) (string, error) {
	existing, err := s.FindEmployeeByName(ctx, emp.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		return "", store.ErrDuplicateName
	}

	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	ref, _, err := s.client.Collection(employeesCollection).Add(ctx, fromEmployee(emp))
	if err != nil {
		return "", fmt.Errorf("creating employee: %w", err)
	}
	return ref.ID, nil
}

// GetEmployee retrieves an employee by document ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*store.Employee, error) {
	snap, err := s.client.Collection(employeesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting employee: %w", err)
	}

	var doc employeeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding employee %s: %w", id, err)
	}
	return toEmployee(snap.Ref.ID, &doc)
}

// FindEmployeeByName retrieves an employee by exact name.
func (s *Store) FindEmployeeByName(ctx context.Context, name string) (*store.Employee, error) {
	iter := s.client.Collection(employeesCollection).
		Where("name", "==", name).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("employee %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding employee by name: %w", err)
	}

	var doc employeeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding employee %s: %w", snap.Ref.ID, err)
	}
	return toEmployee(snap.Ref.ID, &doc)
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	iter := s.client.Collection(employeesCollection).Documents(ctx)
	defer iter.Stop()

	var out []store.Employee
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing employees: %w", err)
		}

		var doc employeeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding employee %s: %w", snap.Ref.ID, err)
		}
		emp, err := toEmployee(snap.Ref.ID, &doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, nil
}

// UpdateEmployee rewrites the employee document.
func (s *Store) UpdateEmployee(ctx context.Context, emp *store.Employee) error {
	ref := s.client.Collection(employeesCollection).Doc(emp.ID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("employee %s: %w", emp.ID, store.ErrNotFound)
		}
		return fmt.Errorf("getting employee: %w", err)
	}

	if _, err := ref.Set(ctx, fromEmployee(emp)); err != nil {
		return fmt.Errorf("updating employee %s: %w", emp.ID, err)
	}
	return nil
}

// DeleteEmployee removes an employee and cascades to their attendance records.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	ref := s.client.Collection(employeesCollection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("getting employee: %w", err)
	}

	iter := s.client.Collection(attendanceCollection).
		Where("employee_id", "==", id).
		Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("listing attendance for cascade delete: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("deleting attendance %s: %w", snap.Ref.ID, err)
		}
	}

	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("deleting employee %s: %w", id, err)
	}
	return nil
}

// AddAttendance stores a new check-in document.
func (s *Store) AddAttendance(ctx context.Context, rec *store.Attendance) (string, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	ref, _, err := s.client.Collection(attendanceCollection).Add(ctx, &attendanceDoc{
		EmployeeID:    rec.EmployeeID,
		CheckIn:       rec.CheckIn,
		CheckOut:      rec.CheckOut,
		CheckInStatus: rec.CheckInStatus,
		CreatedAt:     rec.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("adding attendance: %w", err)
	}
	return ref.ID, nil
}

// SetCheckOut closes an attendance record.
func (s *Store) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	ref := s.client.Collection(attendanceCollection).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "check_out", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("attendance %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("setting check-out on %s: %w", id, err)
	}
	return nil
}

// OpenAttendance finds the employee's open record inside the day window.
func (s *Store) OpenAttendance(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*store.Attendance, error) {
	iter := s.client.Collection(attendanceCollection).
		Where("employee_id", "==", employeeID).
		Where("check_in", ">=", dayStart).
		Where("check_in", "<", dayEnd).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying open attendance: %w", err)
		}

		var doc attendanceDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding attendance %s: %w", snap.Ref.ID, err)
		}
		if doc.CheckOut == nil {
			return toAttendance(snap.Ref.ID, &doc), nil
		}
	}
	return nil, nil
}

// ListAttendanceByEmployee returns all records for one employee, newest first.
func (s *Store) ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]store.Attendance, error) {
	iter := s.client.Collection(attendanceCollection).
		Where("employee_id", "==", employeeID).
		OrderBy("check_in", firestore.Desc).
		Documents(ctx)
	return collectAttendance(iter)
}

// ListAttendanceBetween returns records with a check-in inside [start, end).
func (s *Store) ListAttendanceBetween(ctx context.Context, start, end time.Time) ([]store.Attendance, error) {
	iter := s.client.Collection(attendanceCollection).
		Where("check_in", ">=", start).
		Where("check_in", "<", end).
		OrderBy("check_in", firestore.Desc).
		Documents(ctx)
	return collectAttendance(iter)
}

// ListAttendance returns all records, newest first.
func (s *Store) ListAttendance(ctx context.Context) ([]store.Attendance, error) {
	iter := s.client.Collection(attendanceCollection).
		OrderBy("check_in", firestore.Desc).
		Documents(ctx)
	return collectAttendance(iter)
}

func collectAttendance(iter *firestore.DocumentIterator) ([]store.Attendance, error) {
	defer iter.Stop()

	var out []store.Attendance
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing attendance: %w", err)
		}

		var doc attendanceDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding attendance %s: %w", snap.Ref.ID, err)
		}
		out = append(out, *toAttendance(snap.Ref.ID, &doc))
	}
	return out, nil
}

// Ping reads a single document to verify connectivity.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(employeesCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
