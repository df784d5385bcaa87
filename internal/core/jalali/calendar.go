package jalali

import (
	"time"
)

// holidays is the fixed set of Jalali (month, day) public holidays observed
// by the scheduling gate.
var holidays = map[[2]int]bool{
	{1, 1}:   true, // Nowruz
	{1, 2}:   true,
	{1, 3}:   true,
	{1, 4}:   true,
	{1, 12}:  true, // Islamic Republic Day
	{1, 13}:  true, // Nature Day
	{3, 14}:  true, // Demise of Imam Khomeini
	{3, 15}:  true, // Khordad uprising
	{11, 22}: true, // Revolution anniversary
	{12, 29}: true, // Oil nationalization
}

// IsHoliday reports whether t falls on a public holiday in the calendar's
// zone.
func (c *Calendar) IsHoliday(t time.Time) bool {
	pt := c.ToJalali(t)
	return holidays[[2]int{int(pt.Month()), pt.Day()}]
}
