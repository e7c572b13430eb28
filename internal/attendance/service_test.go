package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/store"
	"github.com/samnang/facecheck/internal/store/mock"
)

func testCompanyConfig() *config.CompanyConfig {
	return &config.CompanyConfig{
		Latitude:          13.37488193943832,
		Longitude:         103.842437801041,
		MaxDistanceMeters: 2000,
		Timezone:          "Asia/Phnom_Penh",
	}
}

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc, err := NewService(st, testCompanyConfig())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

// localTime builds a company-local timestamp on a fixed workday.
func localTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Phnom_Penh")
	if err != nil {
		t.Fatal(err)
	}
	return time.Date(2026, 3, 2, hour, minute, 0, 0, loc)
}

func TestStatus(t *testing.T) {
	svc := newTestService(t, mock.NewMockStore())

	tests := []struct {
		name   string
		hour   int
		minute int
		want   string
	}{
		{"before eight is early", 7, 45, store.StatusEarly},
		{"eight sharp is good", 8, 0, store.StatusGood},
		{"grace period is good", 8, 15, store.StatusGood},
		{"after grace is late", 8, 16, store.StatusLate},
		{"midday is late", 12, 0, store.StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.Status(localTime(t, tt.hour, tt.minute)); got != tt.want {
				t.Errorf("Status(%02d:%02d) = %q, want %q", tt.hour, tt.minute, got, tt.want)
			}
		})
	}
}

func TestStatus_ConvertsToCompanyTimezone(t *testing.T) {
	svc := newTestService(t, mock.NewMockStore())

	// 01:00 UTC is 08:00 in Phnom Penh (UTC+7).
	utc := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	if got := svc.Status(utc); got != store.StatusGood {
		t.Errorf("expected Good for 08:00 local, got %q", got)
	}
}

func TestVerifyLocation(t *testing.T) {
	svc := newTestService(t, mock.NewMockStore())
	cfg := testCompanyConfig()

	if err := svc.VerifyLocation(cfg.Latitude, cfg.Longitude); err != nil {
		t.Errorf("office location should pass, got %v", err)
	}

	// Phnom Penh is about 230 km away from the office.
	if err := svc.VerifyLocation(11.5564, 104.9282); !errors.Is(err, ErrOutsideGeofence) {
		t.Errorf("expected ErrOutsideGeofence, got %v", err)
	}
}

func TestVerifyLocation_DebugFallbackStillChecksReportedCoordinates(t *testing.T) {
	cfg := testCompanyConfig()
	cfg.DebugFallback = true
	svc, err := NewService(mock.NewMockStore(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	// The fallback only substitutes absent coordinates; anything actually
	// reported goes through the geofence unchanged.
	if err := svc.VerifyLocation(11.5564, 104.9282); !errors.Is(err, ErrOutsideGeofence) {
		t.Errorf("expected ErrOutsideGeofence for far coordinates, got %v", err)
	}
}

func TestFallbackLocation(t *testing.T) {
	cfg := testCompanyConfig()
	cfg.DebugFallback = true
	svc, err := NewService(mock.NewMockStore(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	lat, lng, ok := svc.FallbackLocation()
	if !ok {
		t.Fatal("expected a fallback location with the debug flag on")
	}
	if lat != cfg.Latitude || lng != cfg.Longitude {
		t.Errorf("expected office coordinates, got %f,%f", lat, lng)
	}

	if _, _, ok := newTestService(t, mock.NewMockStore()).FallbackLocation(); ok {
		t.Error("expected no fallback location with the debug flag off")
	}
}

func TestCheck_FirstCallChecksIn(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	svc.now = func() time.Time { return localTime(t, 7, 50) }

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	cfg := testCompanyConfig()
	res, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, "")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.Action != ActionCheckIn {
		t.Errorf("expected check-in, got %s", res.Action)
	}
	if res.Record.CheckInStatus != store.StatusEarly {
		t.Errorf("expected Early, got %q", res.Record.CheckInStatus)
	}
	if res.Employee.Name != "Dara" {
		t.Errorf("unexpected employee %+v", res.Employee)
	}
}

func TestCheck_SecondCallChecksOut(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	cfg := testCompanyConfig()

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return localTime(t, 8, 5) }
	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ""); err != nil {
		t.Fatalf("first check failed: %v", err)
	}

	svc.now = func() time.Time { return localTime(t, 17, 30) }
	res, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, "")
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if res.Action != ActionCheckOut {
		t.Errorf("expected check-out, got %s", res.Action)
	}
	if res.Record.CheckOut == nil {
		t.Fatal("expected a recorded check-out time")
	}
	if got := res.Record.CheckOut.Hour(); got != 17 {
		t.Errorf("expected check-out at 17h, got %d", got)
	}
}

func TestCheck_NewDayStartsFresh(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	cfg := testCompanyConfig()

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return localTime(t, 8, 5) }
	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ""); err != nil {
		t.Fatal(err)
	}

	// Yesterday's record was never closed; the next day still checks in.
	svc.now = func() time.Time { return localTime(t, 8, 5).AddDate(0, 0, 1) }
	res, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, "")
	if err != nil {
		t.Fatalf("next-day check failed: %v", err)
	}
	if res.Action != ActionCheckIn {
		t.Errorf("expected a fresh check-in, got %s", res.Action)
	}
}

func TestCheck_ExplicitCheckInTwiceConflicts(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	cfg := testCompanyConfig()
	svc.now = func() time.Time { return localTime(t, 8, 5) }

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ActionCheckIn); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ActionCheckIn); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestCheck_ExplicitCheckOutWithoutOpenRecord(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	cfg := testCompanyConfig()

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ActionCheckOut); !errors.Is(err, ErrNoOpenCheckIn) {
		t.Errorf("expected ErrNoOpenCheckIn, got %v", err)
	}
}

func TestCheck_ExplicitCheckOutClosesOpenRecord(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	cfg := testCompanyConfig()

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return localTime(t, 8, 5) }
	if _, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ActionCheckIn); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	svc.now = func() time.Time { return localTime(t, 17, 0) }
	res, err := svc.Check(context.Background(), id, cfg.Latitude, cfg.Longitude, ActionCheckOut)
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if res.Action != ActionCheckOut || res.Record.CheckOut == nil {
		t.Errorf("expected a closed record, got %+v", res)
	}
}

func TestCheck_RejectsOutsideGeofence(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)

	id, err := st.CreateEmployee(context.Background(), &store.Employee{Name: "Dara"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Check(context.Background(), id, 48.8566, 2.3522, ""); !errors.Is(err, ErrOutsideGeofence) {
		t.Errorf("expected ErrOutsideGeofence, got %v", err)
	}
}

func TestCheck_UnknownEmployee(t *testing.T) {
	svc := newTestService(t, mock.NewMockStore())
	cfg := testCompanyConfig()

	_, err := svc.Check(context.Background(), "ghost", cfg.Latitude, cfg.Longitude, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMonthlyStats(t *testing.T) {
	st := mock.NewMockStore()
	svc := newTestService(t, st)
	svc.now = func() time.Time { return localTime(t, 12, 0) }

	ctx := context.Background()
	daraID, _ := st.CreateEmployee(ctx, &store.Employee{Name: "Dara"})
	sokhaID, _ := st.CreateEmployee(ctx, &store.Employee{Name: "Sokha"})
	vannaID, _ := st.CreateEmployee(ctx, &store.Employee{Name: "Vanna"})

	addRec := func(empID string, day, hour, minute int, status string) {
		t.Helper()
		checkIn := localTime(t, hour, minute).AddDate(0, 0, day-2)
		if _, err := st.AddAttendance(ctx, &store.Attendance{
			EmployeeID:    empID,
			CheckIn:       checkIn,
			CheckInStatus: status,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Today (March 2): Dara late, Sokha early.
	addRec(daraID, 2, 9, 0, store.StatusLate)
	addRec(sokhaID, 2, 7, 30, store.StatusEarly)
	// March 1: all three on record, Dara late again.
	addRec(daraID, 1, 8, 30, store.StatusLate)
	addRec(sokhaID, 1, 7, 45, store.StatusEarly)
	addRec(vannaID, 1, 8, 10, store.StatusGood)

	stats, err := svc.MonthlyStats(ctx)
	if err != nil {
		t.Fatalf("MonthlyStats failed: %v", err)
	}

	if stats.CheckedInToday != 2 {
		t.Errorf("CheckedInToday = %d, want 2", stats.CheckedInToday)
	}
	if stats.LateToday != 1 {
		t.Errorf("LateToday = %d, want 1", stats.LateToday)
	}

	if len(stats.TopLate) == 0 || stats.TopLate[0].EmployeeID != daraID || stats.TopLate[0].Count != 2 {
		t.Errorf("unexpected TopLate: %+v", stats.TopLate)
	}
	if len(stats.TopEarly) == 0 || stats.TopEarly[0].EmployeeID != sokhaID || stats.TopEarly[0].Count != 2 {
		t.Errorf("unexpected TopEarly: %+v", stats.TopEarly)
	}
	if len(stats.TopAttendance) != 3 {
		t.Fatalf("expected 3 ranked employees, got %d", len(stats.TopAttendance))
	}
	if stats.TopAttendance[0].Count != 2 {
		t.Errorf("unexpected TopAttendance: %+v", stats.TopAttendance)
	}
}

func TestMonthlyStats_EmptyStore(t *testing.T) {
	svc := newTestService(t, mock.NewMockStore())

	stats, err := svc.MonthlyStats(context.Background())
	if err != nil {
		t.Fatalf("MonthlyStats failed: %v", err)
	}
	if stats.CheckedInToday != 0 || len(stats.TopLate) != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
