package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  string
		hasError  bool
	}{
		{"Simple decimal", "123.45", "123.45", false},
		{"Negative decimal", "-123.45", "-123.45", false},
		{"Integer", "100", "100", false},
		{"Comma decimal separator", "123,45", "123.45", false},
		{"Comma thousand separator", "1,234.56", "1234.56", false},
		{"Comma thousands only", "1,234", "1234", false},
		{"Apostrophe thousand separator", "1'234.56", "1234.56", false},
		{"European format", "1.234,56", "1234.56", false},
		{"EUR symbol", "€123.45", "123.45", false},
		{"USD symbol", "$15.99", "15.99", false},
		{"Currency code", "CHF 123.45", "123.45", false},
		{"Spaces", "  123.45  ", "123.45", false},
		{"Empty", "", "", true},
		{"Malformed", "123.45.67", "", true},
		{"Non-numeric", "abc", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			expected := decimal.RequireFromString(tc.expected)
			assert.True(t, expected.Equal(result), "Expected %s but got %s", expected, result)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	amount := decimal.RequireFromString("45.666")
	assert.Equal(t, "45.67", FormatAmount(amount, ""))
	assert.Equal(t, "$45.67", FormatAmount(amount, "usd"))
	assert.Equal(t, "€45.67", FormatAmount(amount, "EUR"))
	assert.Equal(t, "CHF 45.67", FormatAmount(amount, "CHF"))
}
