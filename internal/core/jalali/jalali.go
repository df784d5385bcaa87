// Package jalali provides Tehran-localized wall-clock helpers: Jalali to
// Gregorian conversion, the fixed public-holiday set, and the Iranian
// weekday convention (Saturday = 0 .. Friday = 6).
//
// All persisted timestamps are UTC; this package is the only place where
// wall-clock interpretation happens.
package jalali

import (
	"fmt"
	"regexp"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
)

// DefaultTimezone is the wall-clock zone used when none is configured.
const DefaultTimezone = "Asia/Tehran"

var jalaliDatePattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)

// Calendar binds conversions to a configured wall-clock location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named timezone. Empty name falls back to Asia/Tehran.
func NewCalendar(timezone string) (*Calendar, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Calendar{loc: loc}, nil
}

// Location returns the configured wall-clock location.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Weekday maps t (interpreted in the calendar's zone) to the Iranian weekday
// index: Saturday = 0 .. Friday = 6.
func (c *Calendar) Weekday(t time.Time) int {
	return (int(t.In(c.loc).Weekday()) + 1) % 7
}

// FromJalaliMinute interprets a Jalali date string ("YYYY/M/D", components
// may be non-zero-padded) plus hour and minute as local wall time and
// returns the UTC instant.
func (c *Calendar) FromJalaliMinute(jalaliDate string, hour, minute int) (time.Time, error) {
	m := jalaliDatePattern.FindStringSubmatch(jalaliDate)
	if m == nil {
		return time.Time{}, apperror.NewValidation("invalid jalali date").
			WithDetail("date", jalaliDate)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, apperror.NewValidation("invalid time").
			WithDetail("hour", hour).
			WithDetail("minute", minute)
	}

	jy, jm, jd := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if jm < 1 || jm > 12 || jd < 1 || jd > 31 {
		return time.Time{}, apperror.NewValidation("invalid jalali date").
			WithDetail("date", jalaliDate)
	}

	pt := ptime.Date(jy, ptime.Month(jm), jd, hour, minute, 0, 0, c.loc)
	// ptime normalizes out-of-range days (e.g. 12/30 in a non-leap year)
	// instead of failing; a round-trip mismatch means the date never existed.
	if pt.Year() != jy || int(pt.Month()) != jm || pt.Day() != jd {
		return time.Time{}, apperror.NewValidation("invalid jalali date").
			WithDetail("date", jalaliDate)
	}

	return pt.Time().UTC(), nil
}

// DateRangeUTC converts an optional inclusive Jalali date range to UTC
// bounds: from at 00:00 local, to at the last instant of the local day.
func (c *Calendar) DateRangeUTC(fromJalali, toJalali string) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if fromJalali != "" {
		s, err := c.FromJalaliMinute(fromJalali, 0, 0)
		if err != nil {
			return nil, nil, err
		}
		start = &s
	}
	if toJalali != "" {
		s, err := c.FromJalaliMinute(toJalali, 0, 0)
		if err != nil {
			return nil, nil, err
		}
		e := s.In(c.loc).Add(24*time.Hour - time.Microsecond).UTC()
		end = &e
	}

	return start, end, nil
}

// ToJalali converts a UTC instant to its Jalali representation in the
// calendar's zone.
func (c *Calendar) ToJalali(t time.Time) ptime.Time {
	return ptime.New(t.In(c.loc))
}

// FormatJalaliMinute renders t as "YYYY/MM/DD-HH:MM" local wall time, the
// form used in bank SMS and manager receipts.
func (c *Calendar) FormatJalaliMinute(t time.Time) string {
	pt := c.ToJalali(t)
	return fmt.Sprintf("%04d/%02d/%02d-%02d:%02d",
		pt.Year(), int(pt.Month()), pt.Day(), pt.Hour(), pt.Minute())
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
