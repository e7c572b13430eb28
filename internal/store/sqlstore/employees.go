package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/samnang/facecheck/internal/encoding"
	"github.com/samnang/facecheck/internal/store"
)

// encodeVector prepares a face encoding for storage. PostgreSQL gets a
// pgvector value, MySQL a base64 string.
func (s *Store) encodeVector(vec []float32) any {
	if len(vec) == 0 {
		return nil
	}
	if s.dialect == DialectPostgres {
		return pgvector.NewVector(vec)
	}
	return encoding.Marshal(vec)
}

// decodeVector parses a stored encoding back into a float32 slice.
func (s *Store) decodeVector(raw sql.NullString) ([]float32, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	if s.dialect == DialectPostgres {
		var v pgvector.Vector
		if err := v.Scan([]byte(raw.String)); err != nil {
			return nil, fmt.Errorf("parsing vector: %w", err)
		}
		return v.Slice(), nil
	}
	return encoding.Unmarshal(raw.String)
}

const employeeColumns = "id, name, gender, date_of_birth, position, address, encoding, photo_uri, created_at"

func (s *Store) scanEmployee(row interface{ Scan(...any) error }) (*store.Employee, error) {
	var emp store.Employee
	var enc sql.NullString
	err := row.Scan(&emp.ID, &emp.Name, &emp.Gender, &emp.DateOfBirth,
		&emp.Position, &emp.Address, &enc, &emp.PhotoURI, &emp.CreatedAt)
	if err != nil {
		return nil, err
	}
	vec, err := s.decodeVector(enc)
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	emp.Encoding = vec
	return &emp, nil
}

// CreateEmployee stores a new employee row.
func (s *Store) CreateEmployee(ctx context.Context, emp *store.Employee) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM employees WHERE name = ?"), emp.Name).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("checking employee name: %w", err)
	}
	if exists > 0 {
		return "", store.ErrDuplicateName
	}

	id := emp.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO employees (id, name, gender, date_of_birth, position, address, encoding, photo_uri, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, emp.Name, emp.Gender, emp.DateOfBirth, emp.Position, emp.Address,
		s.encodeVector(emp.Encoding), emp.PhotoURI, createdAt)
	if err != nil {
		return "", fmt.Errorf("creating employee: %w", err)
	}
	return id, nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*store.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+employeeColumns+" FROM employees WHERE id = ?"), id)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return emp, nil
}

// FindEmployeeByName retrieves an employee by exact name.
func (s *Store) FindEmployeeByName(ctx context.Context, name string) (*store.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+employeeColumns+" FROM employees WHERE name = ?"), name)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding employee by name: %w", err)
	}
	return emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var out []store.Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		out = append(out, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return out, nil
}

// UpdateEmployee updates an existing employee row.
func (s *Store) UpdateEmployee(ctx context.Context, emp *store.Employee) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE employees
		SET name = ?, gender = ?, date_of_birth = ?, position = ?, address = ?, encoding = ?, photo_uri = ?
		WHERE id = ?`),
		emp.Name, emp.Gender, emp.DateOfBirth, emp.Position, emp.Address,
		s.encodeVector(emp.Encoding), emp.PhotoURI, emp.ID)
	if err != nil {
		return fmt.Errorf("updating employee %s: %w", emp.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %s: %w", emp.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteEmployee removes an employee; attendance rows cascade via the
// foreign key.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM employees WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting employee %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %s: %w", id, store.ErrNotFound)
	}
	return nil
}
