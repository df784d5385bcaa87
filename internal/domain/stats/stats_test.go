package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
)

type fakeStatsRepo struct {
	total  int64
	counts map[numbers.CallStatus]int64
	rows   []AttemptRow
	since  time.Time
}

func (f *fakeStatsRepo) CountNumbersByTenantStatus(_ context.Context, _ int64) (int64, map[numbers.CallStatus]int64, error) {
	return f.total, f.counts, nil
}

func (f *fakeStatsRepo) ListAttemptsSince(_ context.Context, _ int64, since time.Time) ([]AttemptRow, error) {
	f.since = since
	var out []AttemptRow
	for _, r := range f.rows {
		if !r.AttemptedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func newStatsService(t *testing.T, repo *fakeStatsRepo) *Service {
	t.Helper()
	cal, err := jalali.NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return NewService(repo, cal)
}

func TestNumbersSummaryZeroFills(t *testing.T) {
	repo := &fakeStatsRepo{
		total: 4,
		counts: map[numbers.CallStatus]int64{
			numbers.StatusInQueue:   3,
			numbers.StatusConnected: 1,
		},
	}
	svc := newStatsService(t, repo)

	summary, err := svc.NumbersSummary(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.TotalNumbers)
	assert.Len(t, summary.StatusCounts, len(numbers.AllStatuses))

	byStatus := map[numbers.CallStatus]StatusShare{}
	for _, s := range summary.StatusCounts {
		byStatus[s.Status] = s
	}
	assert.Equal(t, int64(3), byStatus[numbers.StatusInQueue].Count)
	assert.InDelta(t, 75.0, byStatus[numbers.StatusInQueue].Percentage, 0.001)
	assert.Equal(t, int64(1), byStatus[numbers.StatusConnected].Count)
	assert.Zero(t, byStatus[numbers.StatusMissed].Count)

	// Alphabetical by status name.
	for i := 1; i < len(summary.StatusCounts); i++ {
		assert.Less(t, string(summary.StatusCounts[i-1].Status), string(summary.StatusCounts[i].Status))
	}
}

func TestNumbersSummaryEmptyPool(t *testing.T) {
	svc := newStatsService(t, &fakeStatsRepo{})

	summary, err := svc.NumbersSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalNumbers)
	for _, s := range summary.StatusCounts {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.Percentage)
	}
}

func TestAttemptTrendBucketsAndZeroFills(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeStatsRepo{
		rows: []AttemptRow{
			{Status: "CONNECTED", AttemptedAt: now},
			{Status: "MISSED", AttemptedAt: now},
			{Status: "NO_SUCH_STATUS", AttemptedAt: now},
		},
	}
	svc := newStatsService(t, repo)

	trend, err := svc.AttemptTrend(context.Background(), 7, 7)
	require.NoError(t, err)
	require.Len(t, trend.Days, 7)

	var totals int64
	for _, day := range trend.Days {
		totals += day.TotalAttempts
		assert.Len(t, day.StatusCounts, len(numbers.AllStatuses))
	}
	assert.Equal(t, int64(2), totals, "unknown statuses are skipped")

	// Window ends today: the last day carries the attempts.
	last := trend.Days[len(trend.Days)-1]
	assert.Equal(t, int64(2), last.TotalAttempts)
}

func TestAttemptTrendClampsDays(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc := newStatsService(t, repo)

	trend, err := svc.AttemptTrend(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Len(t, trend.Days, 14)

	trend, err = svc.AttemptTrend(context.Background(), 7, 1000)
	require.NoError(t, err)
	assert.Len(t, trend.Days, 180)
}
