package banksms

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/core/phone"
)

// Parse error codes.
const (
	ErrAmountSignNotFound = "amount_sign_not_found"
	ErrDatetimeNotFound   = "datetime_not_found"
	ErrInvalidDatetime    = "invalid_datetime"
)

// Banks format the amount as a thousands-grouped number followed by a sign
// on its own line, and may send non-zero-padded Jalali date/time parts
// (e.g. 1404/12/3-9:47).
var (
	amountSignPattern = regexp.MustCompile(`(?m)^\s*([0-9][0-9,]{2,})\s*([+-])\s*$`)
	datetimePattern   = regexp.MustCompile(`(\d{4}/\d{1,2}/\d{1,2})-(\d{1,2}):(\d{1,2})`)
)

// Parsed is the structured content of a bank deposit SMS.
type Parsed struct {
	AmountRial       int64
	AmountToman      int64
	TransactionAtUTC time.Time
	IsCredit         bool
}

// Parser binds SMS parsing to a wall-clock calendar.
type Parser struct {
	cal *jalali.Calendar
}

// NewParser creates a bank SMS parser.
func NewParser(cal *jalali.Calendar) *Parser {
	return &Parser{cal: cal}
}

// Parse extracts the amount, sign, and transaction instant from an SMS body.
// On failure it returns nil and one of the parse error codes.
func (p *Parser) Parse(body string) (*Parsed, string) {
	text := phone.ToASCIIDigits(body)

	am := amountSignPattern.FindStringSubmatch(text)
	if am == nil {
		return nil, ErrAmountSignNotFound
	}
	amountRial, err := strconv.ParseInt(strings.ReplaceAll(am[1], ",", ""), 10, 64)
	if err != nil {
		return nil, ErrAmountSignNotFound
	}

	dm := datetimePattern.FindStringSubmatch(text)
	if dm == nil {
		return nil, ErrDatetimeNotFound
	}
	hour, _ := strconv.Atoi(dm[2])
	minute, _ := strconv.Atoi(dm[3])
	txUTC, err := p.cal.FromJalaliMinute(dm[1], hour, minute)
	if err != nil {
		return nil, ErrInvalidDatetime
	}

	return &Parsed{
		AmountRial:       amountRial,
		AmountToman:      amountRial / 10,
		TransactionAtUTC: txUTC,
		IsCredit:         am[2] == "+",
	}, ""
}

// NormalizeSender canonicalizes a sender value for profile matching: digits
// transliterated to ASCII and anything after a ';' dropped. Providers
// occasionally append a second callback URL after ';' in the from value.
func NormalizeSender(value string) string {
	raw := strings.TrimSpace(phone.ToASCIIDigits(value))
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, ";"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
