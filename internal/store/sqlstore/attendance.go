package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samnang/facecheck/internal/store"
)

const attendanceColumns = "id, employee_id, check_in, check_out, check_in_status, created_at"

func scanAttendance(row interface{ Scan(...any) error }) (*store.Attendance, error) {
	var rec store.Attendance
	var checkOut sql.NullTime
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.CheckIn, &checkOut,
		&rec.CheckInStatus, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	return &rec, nil
}

// AddAttendance stores a new check-in row.
func (s *Store) AddAttendance(ctx context.Context, rec *store.Attendance) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var checkOut any
	if rec.CheckOut != nil {
		checkOut = *rec.CheckOut
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO attendance (id, employee_id, check_in, check_out, check_in_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		id, rec.EmployeeID, rec.CheckIn, checkOut, rec.CheckInStatus, createdAt)
	if err != nil {
		return "", fmt.Errorf("adding attendance: %w", err)
	}
	return id, nil
}

// SetCheckOut closes an attendance record.
func (s *Store) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE attendance SET check_out = ? WHERE id = ?"), at, id)
	if err != nil {
		return fmt.Errorf("setting check-out on %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("attendance %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// OpenAttendance finds the employee's open record inside the day window.
func (s *Store) OpenAttendance(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*store.Attendance, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+attendanceColumns+` FROM attendance
		WHERE employee_id = ? AND check_in >= ? AND check_in < ? AND check_out IS NULL
		ORDER BY check_in DESC LIMIT 1`),
		employeeID, dayStart, dayEnd)

	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying open attendance: %w", err)
	}
	return rec, nil
}

// ListAttendanceByEmployee returns all records for one employee, newest first.
func (s *Store) ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]store.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+attendanceColumns+` FROM attendance
		WHERE employee_id = ? ORDER BY check_in DESC`), employeeID)
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}
	return collectAttendance(rows)
}

// ListAttendanceBetween returns records with a check-in inside [start, end).
func (s *Store) ListAttendanceBetween(ctx context.Context, start, end time.Time) ([]store.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+attendanceColumns+` FROM attendance
		WHERE check_in >= ? AND check_in < ? ORDER BY check_in DESC`), start, end)
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}
	return collectAttendance(rows)
}

// ListAttendance returns all records, newest first.
func (s *Store) ListAttendance(ctx context.Context) ([]store.Attendance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance ORDER BY check_in DESC")
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}
	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]store.Attendance, error) {
	defer rows.Close()

	var out []store.Attendance
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attendance: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance: %w", err)
	}
	return out, nil
}
