// Package phone canonicalizes Iranian mobile numbers.
//
// Every phone that enters the system (imports, dialer reports, agent lookup)
// passes through Normalize first, so storage and matching always operate on
// the national form 09XXXXXXXXX.
package phone

import (
	"regexp"
	"strings"
)

var mobilePattern = regexp.MustCompile(`^09\d{9}$`)

var digitTransliterations = map[rune]rune{
	// Persian digits
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	// Arabic-Indic digits
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// ToASCIIDigits transliterates Persian and Arabic-Indic digits to ASCII.
func ToASCIIDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ascii, ok := digitTransliterations[r]; ok {
			b.WriteRune(ascii)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize canonicalizes raw input to the national mobile form 09XXXXXXXXX.
// Returns the normalized number and true, or "" and false when the input is
// not an Iranian mobile number.
func Normalize(raw string) (string, bool) {
	digits := stripNonDigits(ToASCIIDigits(raw))

	switch {
	case strings.HasPrefix(digits, "0098"):
		digits = "0" + digits[4:]
	case strings.HasPrefix(digits, "98"):
		digits = "0" + digits[2:]
	}
	if len(digits) == 10 && strings.HasPrefix(digits, "9") {
		digits = "0" + digits
	}

	if !mobilePattern.MatchString(digits) {
		return "", false
	}
	return digits, true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
