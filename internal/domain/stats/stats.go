// Package stats is the read side of the dashboard: per-company number
// status breakdowns and a daily attempt trend bucketed by Tehran-local day.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
)

// StatusShare is one status slice of a breakdown.
type StatusShare struct {
	Status     numbers.CallStatus `json:"status"`
	Count      int64              `json:"count"`
	Percentage float64            `json:"percentage"`
}

// NumbersSummary is the per-company pool breakdown by derived status.
type NumbersSummary struct {
	TotalNumbers int64         `json:"total_numbers"`
	StatusCounts []StatusShare `json:"status_counts"`
}

// DailyBreakdown is one Tehran-local day of the attempt trend.
type DailyBreakdown struct {
	Day           string        `json:"day"`
	TotalAttempts int64         `json:"total_attempts"`
	StatusCounts  []StatusShare `json:"status_counts"`
}

// AttemptTrend is a continuous window of daily breakdowns ending today.
type AttemptTrend struct {
	Days []DailyBreakdown `json:"days"`
}

// AttemptRow is the minimal result projection the trend needs.
type AttemptRow struct {
	Status      string    `db:"status"`
	AttemptedAt time.Time `db:"attempted_at"`
}

// Repository defines the aggregate queries.
type Repository interface {
	// CountNumbersByTenantStatus returns the pool size and the count per
	// derived per-company status (latest CallResult, IN_QUEUE when none).
	CountNumbersByTenantStatus(ctx context.Context, companyID int64) (int64, map[numbers.CallStatus]int64, error)

	// ListAttemptsSince returns the company's call results at or after the
	// UTC instant.
	ListAttemptsSince(ctx context.Context, companyID int64, sinceUTC time.Time) ([]AttemptRow, error)
}

// Service computes dashboard aggregates.
type Service struct {
	repo Repository
	cal  *jalali.Calendar
}

// NewService creates a stats service.
func NewService(repo Repository, cal *jalali.Calendar) *Service {
	return &Service{repo: repo, cal: cal}
}

// NumbersSummary returns the status breakdown with every known status
// present, zero-filled, sorted by status name.
func (s *Service) NumbersSummary(ctx context.Context, companyID int64) (*NumbersSummary, error) {
	total, counts, err := s.repo.CountNumbersByTenantStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &NumbersSummary{
		TotalNumbers: total,
		StatusCounts: shares(counts, total),
	}, nil
}

// AttemptTrend buckets the company's results by Tehran-local day over the
// trailing window. Missing days are zero-filled so charts stay continuous;
// rows with unknown statuses are skipped, never fatal.
func (s *Service) AttemptTrend(ctx context.Context, companyID int64, days int) (*AttemptTrend, error) {
	if days < 1 {
		days = 14
	}
	if days > 180 {
		days = 180
	}

	loc := s.cal.Location()
	nowLocal := time.Now().In(loc)
	startLocal := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -(days - 1))

	rows, err := s.repo.ListAttemptsSince(ctx, companyID, startLocal.UTC())
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]map[numbers.CallStatus]int64)
	for _, row := range rows {
		status := numbers.CallStatus(row.Status)
		if !status.Valid() {
			continue
		}
		day := row.AttemptedAt.In(loc).Format("2006-01-02")
		if buckets[day] == nil {
			buckets[day] = make(map[numbers.CallStatus]int64)
		}
		buckets[day][status]++
	}

	trend := &AttemptTrend{Days: make([]DailyBreakdown, 0, days)}
	for offset := 0; offset < days; offset++ {
		day := startLocal.AddDate(0, 0, offset).Format("2006-01-02")
		counts := buckets[day]
		var total int64
		for _, c := range counts {
			total += c
		}
		trend.Days = append(trend.Days, DailyBreakdown{
			Day:           day,
			TotalAttempts: total,
			StatusCounts:  shares(counts, total),
		})
	}
	return trend, nil
}

func shares(counts map[numbers.CallStatus]int64, total int64) []StatusShare {
	out := make([]StatusShare, 0, len(numbers.AllStatuses))
	for _, status := range numbers.AllStatuses {
		count := counts[status]
		share := StatusShare{Status: status, Count: count}
		if total > 0 {
			share.Percentage = float64(count) / float64(total) * 100
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}
