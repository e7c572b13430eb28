//go:build integration

package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/store"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	s, err := Open(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func testEncoding() []float32 {
	vec := make([]float32, 128)
	for i := range vec {
		vec[i] = float32(i) / 128.0
	}
	return vec
}

func TestEmployeeLifecycle(t *testing.T) {
	s, cleanup := setupTestContainer(t)
	if s == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	emp := &store.Employee{
		Name:     "Sokha Chan",
		Gender:   "female",
		Position: "Engineer",
		Encoding: testEncoding(),
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		id, err := s.CreateEmployee(ctx, emp)
		if err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}
		emp.ID = id

		got, err := s.GetEmployee(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		if got.Name != emp.Name {
			t.Errorf("got name %q, want %q", got.Name, emp.Name)
		}
		if len(got.Encoding) != 128 {
			t.Errorf("expected 128-dim encoding, got %d", len(got.Encoding))
		}
		if got.Encoding[64] != emp.Encoding[64] {
			t.Errorf("encoding value mismatch at 64: %v != %v", got.Encoding[64], emp.Encoding[64])
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := s.CreateEmployee(ctx, &store.Employee{Name: "Sokha Chan"})
		if !errors.Is(err, store.ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("FindByName", func(t *testing.T) {
		got, err := s.FindEmployeeByName(ctx, "Sokha Chan")
		if err != nil {
			t.Fatalf("Failed to find employee: %v", err)
		}
		if got.ID != emp.ID {
			t.Errorf("got ID %q, want %q", got.ID, emp.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		emp.Position = "Lead Engineer"
		if err := s.UpdateEmployee(ctx, emp); err != nil {
			t.Fatalf("Failed to update employee: %v", err)
		}
		got, err := s.GetEmployee(ctx, emp.ID)
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		if got.Position != "Lead Engineer" {
			t.Errorf("got position %q", got.Position)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		recID, err := s.AddAttendance(ctx, &store.Attendance{
			EmployeeID:    emp.ID,
			CheckIn:       time.Now(),
			CheckInStatus: store.StatusGood,
		})
		if err != nil {
			t.Fatalf("Failed to add attendance: %v", err)
		}

		if err := s.DeleteEmployee(ctx, emp.ID); err != nil {
			t.Fatalf("Failed to delete employee: %v", err)
		}
		if _, err := s.GetEmployee(ctx, emp.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.SetCheckOut(ctx, recID, time.Now()); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected attendance to cascade, got %v", err)
		}
	})
}

func TestAttendanceQueries(t *testing.T) {
	s, cleanup := setupTestContainer(t)
	if s == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	id, err := s.CreateEmployee(ctx, &store.Employee{Name: "Dara Kim", Encoding: testEncoding()})
	if err != nil {
		t.Fatalf("Failed to create employee: %v", err)
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	checkIn := day.Add(8 * time.Hour)

	recID, err := s.AddAttendance(ctx, &store.Attendance{
		EmployeeID:    id,
		CheckIn:       checkIn,
		CheckInStatus: store.StatusGood,
	})
	if err != nil {
		t.Fatalf("Failed to add attendance: %v", err)
	}

	t.Run("OpenAttendance", func(t *testing.T) {
		open, err := s.OpenAttendance(ctx, id, day, day.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("Failed to query open attendance: %v", err)
		}
		if open == nil || open.ID != recID {
			t.Fatalf("expected the open record, got %+v", open)
		}
	})

	t.Run("CheckOutClosesRecord", func(t *testing.T) {
		if err := s.SetCheckOut(ctx, recID, checkIn.Add(9*time.Hour)); err != nil {
			t.Fatalf("Failed to set check-out: %v", err)
		}
		open, err := s.OpenAttendance(ctx, id, day, day.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("Failed to query open attendance: %v", err)
		}
		if open != nil {
			t.Errorf("expected no open record after check-out, got %+v", open)
		}
	})

	t.Run("ListBetween", func(t *testing.T) {
		recs, err := s.ListAttendanceBetween(ctx, day, day.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("Failed to list attendance: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 record, got %d", len(recs))
		}
		if recs[0].CheckOut == nil {
			t.Error("expected a recorded check-out")
		}
	})

	t.Run("ListByEmployee", func(t *testing.T) {
		recs, err := s.ListAttendanceByEmployee(ctx, id)
		if err != nil {
			t.Fatalf("Failed to list attendance: %v", err)
		}
		if len(recs) != 1 {
			t.Errorf("expected 1 record, got %d", len(recs))
		}
	})
}
