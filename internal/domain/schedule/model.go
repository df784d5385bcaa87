// Package schedule provides per-company call windows and the gate that
// decides whether a dialer may place calls at a given instant. The config
// row doubles as the wallet anchor: billing locks it for every balance
// mutation, and its version lets dialers detect policy flips.
package schedule

import (
	"fmt"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
)

// Config is the per-company scheduling and billing state.
type Config struct {
	ID               int64     `db:"id" json:"id"`
	CompanyID        int64     `db:"company_id" json:"company_id"`
	SkipHolidays     bool      `db:"skip_holidays" json:"skip_holidays"`
	Enabled          bool      `db:"enabled" json:"enabled"`
	DisabledByDialer bool      `db:"disabled_by_dialer" json:"disabled_by_dialer"`
	WalletBalance    int64     `db:"wallet_balance" json:"wallet_balance"`
	CostPerConnected int64     `db:"cost_per_connected" json:"cost_per_connected"`
	Version          int64     `db:"version" json:"version"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Window is one same-day calling interval. Times are minute-precision wall
// clock in "HH:MM" form; day_of_week uses the Iranian convention
// (Saturday = 0 .. Friday = 6). Cross-midnight windows are expressed as two
// windows.
type Window struct {
	ID        int64  `db:"id" json:"id"`
	CompanyID int64  `db:"company_id" json:"company_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Validate checks window shape: valid weekday, parseable times, start
// strictly before end on the same day.
func (w *Window) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return apperror.NewValidation("day_of_week must be between 0 (Saturday) and 6 (Friday)").
			WithDetail("day_of_week", w.DayOfWeek)
	}
	start, err := parseWallMinute(w.StartTime)
	if err != nil {
		return err
	}
	end, err := parseWallMinute(w.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return apperror.NewValidation("start_time must be before end_time").
			WithDetail("start_time", w.StartTime).
			WithDetail("end_time", w.EndTime)
	}
	return nil
}

// Contains reports whether the minute-of-day falls inside the window,
// inclusive on both ends.
func (w *Window) Contains(minuteOfDay int) bool {
	start, err := parseWallMinute(w.StartTime)
	if err != nil {
		return false
	}
	end, err := parseWallMinute(w.EndTime)
	if err != nil {
		return false
	}
	return start <= minuteOfDay && minuteOfDay <= end
}

// StartMinute returns the window's start as minute-of-day, or -1 when the
// stored value is malformed.
func (w *Window) StartMinute() int {
	m, err := parseWallMinute(w.StartTime)
	if err != nil {
		return -1
	}
	return m
}

func parseWallMinute(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, apperror.NewValidation("time must be HH:MM").WithDetail("value", v)
	}
	return h*60 + m, nil
}
