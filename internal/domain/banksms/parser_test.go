package banksms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	cal, err := jalali.NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return NewParser(cal)
}

func TestParseCreditSms(t *testing.T) {
	body := "بانک صادرات\n1,500,000+\n1404/12/03-09:47\nموجودی: 12,345,678"

	parsed, code := newParser(t).Parse(body)
	require.NotNil(t, parsed, "parse error: %s", code)

	assert.Equal(t, int64(1500000), parsed.AmountRial)
	assert.Equal(t, int64(150000), parsed.AmountToman)
	assert.True(t, parsed.IsCredit)

	// 1404/12/03 09:47 Tehran is 2026-02-22 06:17 UTC.
	want := time.Date(2026, time.February, 22, 6, 17, 0, 0, time.UTC)
	assert.True(t, parsed.TransactionAtUTC.Equal(want), "got %s", parsed.TransactionAtUTC)
}

func TestParseDebitSms(t *testing.T) {
	parsed, code := newParser(t).Parse("300,000-\n1404/12/3-9:47")
	require.NotNil(t, parsed, "parse error: %s", code)
	assert.False(t, parsed.IsCredit)
	assert.Equal(t, int64(30000), parsed.AmountToman)
}

func TestParsePersianDigits(t *testing.T) {
	parsed, code := newParser(t).Parse("۱,۵۰۰,۰۰۰+\n۱۴۰۴/۱۲/۰۳-۰۹:۴۷")
	require.NotNil(t, parsed, "parse error: %s", code)
	assert.Equal(t, int64(150000), parsed.AmountToman)
	assert.True(t, parsed.IsCredit)
}

func TestParseNonPaddedDatetime(t *testing.T) {
	parsed, code := newParser(t).Parse("1,500,000+\n1404/12/3-9:47")
	require.NotNil(t, parsed, "parse error: %s", code)

	want := time.Date(2026, time.February, 22, 6, 17, 0, 0, time.UTC)
	assert.True(t, parsed.TransactionAtUTC.Equal(want))
}

func TestParseErrors(t *testing.T) {
	p := newParser(t)

	for _, tc := range []struct {
		name string
		body string
		code string
	}{
		{"no amount line", "خرید موفق\n1404/12/03-09:47", ErrAmountSignNotFound},
		{"amount not on own line", "مبلغ 1,500,000+ واریز شد\n1404/12/03-09:47", ErrAmountSignNotFound},
		{"no datetime", "1,500,000+\nبدون تاریخ", ErrDatetimeNotFound},
		{"invalid jalali day", "1,500,000+\n1404/12/30-09:47", ErrInvalidDatetime},
		{"hour out of range", "1,500,000+\n1404/12/03-24:47", ErrInvalidDatetime},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parsed, code := p.Parse(tc.body)
			assert.Nil(t, parsed)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, "9830007077", NormalizeSender(" 9830007077 "))
	assert.Equal(t, "9830007077", NormalizeSender("9830007077;http://cb.example/x"))
	assert.Equal(t, "9830007077", NormalizeSender("۹۸۳۰۰۰۷۰۷۷"))
	assert.Equal(t, "", NormalizeSender("   "))
}

func TestResolveProfile(t *testing.T) {
	profiles := []Profile{
		{Key: "salehi", SMSSenders: []string{"9830007077"}},
		{Key: "default", SMSSenders: []string{"985000"}},
	}

	p := ResolveProfile(profiles, "9830007077;http://cb.example")
	require.NotNil(t, p)
	assert.Equal(t, "salehi", p.Key)

	assert.Nil(t, ResolveProfile(profiles, "12345"))
	assert.Nil(t, ResolveProfile(profiles, ""))
}
