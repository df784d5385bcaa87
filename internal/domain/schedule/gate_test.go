package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
)

type fakeRepo struct {
	cfg     *Config
	windows []Window
	saves   int
}

func (f *fakeRepo) EnsureConfig(_ context.Context, companyID int64) (*Config, error) {
	if f.cfg == nil {
		f.cfg = &Config{ID: 1, CompanyID: companyID, Enabled: true, SkipHolidays: true, Version: 1}
	}
	return f.cfg, nil
}

func (f *fakeRepo) GetConfigForUpdate(ctx context.Context, companyID int64) (*Config, error) {
	return f.EnsureConfig(ctx, companyID)
}

func (f *fakeRepo) SaveConfig(_ context.Context, cfg *Config) error {
	f.cfg = cfg
	f.saves++
	return nil
}

func (f *fakeRepo) ListWindows(_ context.Context, _ int64) ([]Window, error) {
	return f.windows, nil
}

func (f *fakeRepo) ReplaceWindows(_ context.Context, companyID int64, windows []Window) error {
	for i := range windows {
		windows[i].CompanyID = companyID
	}
	f.windows = windows
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestGate(t *testing.T, repo *fakeRepo) *Gate {
	t.Helper()
	cal, err := jalali.NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return NewGate(repo, passthroughTx{}, cal, GateConfig{ShortRetrySeconds: 300, LongRetrySeconds: 900})
}

// tehran builds a Tehran wall-clock instant.
func tehran(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestGateWalletExhaustionAutoDisables(t *testing.T) {
	repo := &fakeRepo{cfg: &Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 0, Version: 3}}
	gate := newTestGate(t, repo)

	d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 9, 30))
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientFunds, d.Reason)
	assert.Equal(t, 300, d.RetryAfterSeconds)
	assert.Equal(t, int64(4), d.Version)

	assert.False(t, repo.cfg.Enabled)
	assert.True(t, repo.cfg.DisabledByDialer)
	assert.Equal(t, 1, repo.saves)

	// A second poll in the exhausted state does not bump the version again.
	d2, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 9, 35))
	require.NoError(t, err)
	assert.Equal(t, ReasonInsufficientFunds, d2.Reason)
	assert.Equal(t, int64(4), d2.Version)
	assert.Equal(t, 1, repo.saves)
}

func TestGateWalletBeatsDisabledCheck(t *testing.T) {
	repo := &fakeRepo{cfg: &Config{ID: 1, CompanyID: 7, Enabled: false, WalletBalance: -50, Version: 1}}
	gate := newTestGate(t, repo)

	d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 9, 30))
	require.NoError(t, err)
	assert.Equal(t, ReasonInsufficientFunds, d.Reason)
}

func TestGateDisabled(t *testing.T) {
	repo := &fakeRepo{cfg: &Config{ID: 1, CompanyID: 7, Enabled: false, WalletBalance: 1000, Version: 2}}
	gate := newTestGate(t, repo)

	d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 9, 30))
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDisabled, d.Reason)
	assert.Equal(t, 300, d.RetryAfterSeconds)
	assert.Equal(t, int64(2), d.Version)
	assert.Zero(t, repo.saves)
}

func TestGateHoliday(t *testing.T) {
	// 2026-02-11 is Bahman 22, a fixed holiday.
	now := tehran(t, 2026, time.February, 11, 9, 30)
	window := Window{DayOfWeek: 4, StartTime: "09:00", EndTime: "18:00"}

	repo := &fakeRepo{
		cfg:     &Config{ID: 1, CompanyID: 7, Enabled: true, SkipHolidays: true, WalletBalance: 1000, Version: 1},
		windows: []Window{window},
	}
	gate := newTestGate(t, repo)

	d, err := gate.IsCallAllowed(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, ReasonHoliday, d.Reason)
	assert.Equal(t, 900, d.RetryAfterSeconds)

	// With skip_holidays off the same instant is judged by windows only.
	repo.cfg.SkipHolidays = false
	d, err = gate.IsCallAllowed(context.Background(), 7, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestGateNoWindowToday(t *testing.T) {
	// 2026-03-01 is a Sunday, Iranian weekday 1; the only window is Saturday.
	repo := &fakeRepo{
		cfg:     &Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, Version: 1},
		windows: []Window{{DayOfWeek: 0, StartTime: "09:00", EndTime: "18:00"}},
	}
	gate := newTestGate(t, repo)

	d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 9, 30))
	require.NoError(t, err)
	assert.Equal(t, ReasonNoWindow, d.Reason)
	assert.Equal(t, 900, d.RetryAfterSeconds)
}

func TestGateWindowEndpointsInclusive(t *testing.T) {
	repo := &fakeRepo{
		cfg:     &Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, Version: 5},
		windows: []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
	}
	gate := newTestGate(t, repo)

	for _, tc := range []struct {
		hour, minute int
		allowed      bool
	}{
		{8, 59, false},
		{9, 0, true},
		{9, 30, true},
		{10, 0, true},
		{10, 1, false},
	} {
		d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, tc.hour, tc.minute))
		require.NoError(t, err)
		assert.Equalf(t, tc.allowed, d.Allowed, "%02d:%02d", tc.hour, tc.minute)
		if tc.allowed {
			assert.Equal(t, int64(5), d.Version)
			assert.Zero(t, d.RetryAfterSeconds)
		} else {
			assert.Equal(t, ReasonOutsideWindow, d.Reason)
		}
	}
}

func TestGateRetryUntilNextStart(t *testing.T) {
	repo := &fakeRepo{
		cfg:     &Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, Version: 1},
		windows: []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
	}
	gate := newTestGate(t, repo)

	// One hour before the window opens: retry the exact distance.
	d, err := gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideWindow, d.Reason)
	assert.Equal(t, 3600, d.RetryAfterSeconds)

	// Four minutes before: never hint below the short retry floor.
	d, err = gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 8, 56))
	require.NoError(t, err)
	assert.Equal(t, 300, d.RetryAfterSeconds)

	// After today's window closed the next start is a week away.
	d, err = gate.IsCallAllowed(context.Background(), 7, tehran(t, 2026, time.March, 1, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideWindow, d.Reason)
	assert.Equal(t, 7*24*3600-2*3600, d.RetryAfterSeconds)
}
