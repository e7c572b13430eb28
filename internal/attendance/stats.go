package attendance

import (
	"context"
	"sort"

	"github.com/samnang/facecheck/internal/store"
)

// EmployeeCount is a per-employee tally used in the monthly rankings.
type EmployeeCount struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalEmployees int `json:"total_employees"`
	CheckedInToday int `json:"checked_in_today"`
	LateToday      int `json:"late_today"`

	// Monthly rankings, three entries each.
	TopLate       []EmployeeCount `json:"top_late"`
	TopAttendance []EmployeeCount `json:"top_attendance"`
	TopEarly      []EmployeeCount `json:"top_early"`
}

const rankingSize = 3

// MonthlyStats aggregates today's numbers and the current month's rankings.
func (s *Service) MonthlyStats(ctx context.Context) (*Stats, error) {
	now := s.now().In(s.loc)
	dayStart, dayEnd := s.DayWindow(now)
	monthStart := dayStart.AddDate(0, 0, 1-now.Day())

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp.Name
	}

	monthRecs, err := s.store.ListAttendanceBetween(ctx, monthStart, dayEnd)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalEmployees: len(employees)}
	lateCounts := make(map[string]int)
	attendanceCounts := make(map[string]int)
	earlyCounts := make(map[string]int)

	for _, rec := range monthRecs {
		attendanceCounts[rec.EmployeeID]++
		switch rec.CheckInStatus {
		case store.StatusLate:
			lateCounts[rec.EmployeeID]++
		case store.StatusEarly:
			earlyCounts[rec.EmployeeID]++
		}

		if !rec.CheckIn.Before(dayStart) && rec.CheckIn.Before(dayEnd) {
			stats.CheckedInToday++
			if rec.CheckInStatus == store.StatusLate {
				stats.LateToday++
			}
		}
	}

	stats.TopLate = topN(lateCounts, names, rankingSize)
	stats.TopAttendance = topN(attendanceCounts, names, rankingSize)
	stats.TopEarly = topN(earlyCounts, names, rankingSize)
	return stats, nil
}

// topN ranks counts descending, name ascending on ties for stable output.
func topN(counts map[string]int, names map[string]string, n int) []EmployeeCount {
	ranked := make([]EmployeeCount, 0, len(counts))
	for id, count := range counts {
		ranked = append(ranked, EmployeeCount{
			EmployeeID: id,
			Name:       names[id],
			Count:      count,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
