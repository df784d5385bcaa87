package jalali

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tehran(t *testing.T) *Calendar {
	t.Helper()
	c, err := NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return c
}

func TestFromJalaliMinute(t *testing.T) {
	c := tehran(t)

	// 1404/12/03 09:47 Tehran wall time is 2026-02-22 06:17 UTC
	// (Tehran is fixed at UTC+03:30).
	got, err := c.FromJalaliMinute("1404/12/3", 9, 47)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 22, 6, 17, 0, 0, time.UTC), got)

	// Zero-padded components resolve to the same instant.
	padded, err := c.FromJalaliMinute("1404/12/03", 9, 47)
	require.NoError(t, err)
	assert.Equal(t, got, padded)
}

func TestFromJalaliMinuteRejectsInvalid(t *testing.T) {
	c := tehran(t)

	cases := []struct {
		date   string
		hour   int
		minute int
	}{
		{"1404-12-03", 9, 47},
		{"1404/13/01", 9, 47},
		{"1404/12/30", 9, 47}, // 1404 is not a leap year
		{"1404/12/03", 24, 0},
		{"1404/12/03", 9, 60},
		{"", 0, 0},
	}
	for _, tc := range cases {
		_, err := c.FromJalaliMinute(tc.date, tc.hour, tc.minute)
		assert.Error(t, err, "date=%s %d:%d", tc.date, tc.hour, tc.minute)
	}
}

func TestHolidayRoundTrip(t *testing.T) {
	c := tehran(t)

	// Every configured holiday survives a Jalali -> Gregorian -> Jalali
	// round trip (conversion is day-precise).
	for md := range holidays {
		utc, err := c.FromJalaliMinute(formatDate(1404, md[0], md[1]), 12, 0)
		require.NoError(t, err)
		pt := c.ToJalali(utc)
		assert.Equal(t, md[0], int(pt.Month()))
		assert.Equal(t, md[1], pt.Day())
		assert.True(t, c.IsHoliday(utc))
	}
}

func TestIsHolidayKnownDates(t *testing.T) {
	c := tehran(t)

	// Nowruz 1405 begins 2026-03-21.
	assert.True(t, c.IsHoliday(time.Date(2026, 3, 21, 9, 0, 0, 0, time.UTC)))
	// Revolution anniversary: 1404/11/22 = 2026-02-11.
	assert.True(t, c.IsHoliday(time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)))
	// An ordinary working day.
	assert.False(t, c.IsHoliday(time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC)))
}

func TestWeekday(t *testing.T) {
	c := tehran(t)

	// 2026-02-28 is a Saturday, 2026-03-01 a Sunday, 2026-03-06 a Friday.
	assert.Equal(t, 0, c.Weekday(time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, c.Weekday(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 6, c.Weekday(time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)))
}

func TestDateRangeUTC(t *testing.T) {
	c := tehran(t)

	from, to, err := c.DateRangeUTC("1404/12/3", "1404/12/3")
	require.NoError(t, err)
	require.NotNil(t, from)
	require.NotNil(t, to)

	// Start of day local is 00:00 Tehran = 20:30 UTC the previous day.
	assert.Equal(t, time.Date(2026, 2, 21, 20, 30, 0, 0, time.UTC), *from)
	assert.True(t, to.After(*from))
	assert.True(t, to.Sub(*from) < 24*time.Hour)

	from, to, err = c.DateRangeUTC("", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)
}

func formatDate(y, m, d int) string {
	return pad4(y) + "/" + pad2(m) + "/" + pad2(d)
}

func pad4(n int) string {
	return string([]byte{byte('0' + n/1000), byte('0' + n/100%10), byte('0' + n/10%10), byte('0' + n%10)})
}

func pad2(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
