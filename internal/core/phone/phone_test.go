package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"national form", "09123456789", "09123456789", true},
		{"plus country code", "+989123456789", "09123456789", true},
		{"double zero country code", "00989123456789", "09123456789", true},
		{"bare country code", "989123456789", "09123456789", true},
		{"bare ten digits", "9123456789", "09123456789", true},
		{"spaces and dashes", "0912 345-67 89", "09123456789", true},
		{"persian digits", "۰۹۱۲۳۴۵۶۷۸۹", "09123456789", true},
		{"arabic digits", "٠٩١٢٣٤٥٦٧٨٩", "09123456789", true},
		{"too short", "12345", "", false},
		{"landline-like", "071234567890", "", false},
		{"empty", "", "", false},
		{"letters only", "abc", "", false},
		{"non-mobile prefix", "08123456789", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"09123456789", "+989123456789", "00989123456789", "9123456789"}
	for _, in := range inputs {
		first, ok := Normalize(in)
		assert.True(t, ok, in)
		second, ok := Normalize(first)
		assert.True(t, ok)
		assert.Equal(t, first, second)
	}
}
