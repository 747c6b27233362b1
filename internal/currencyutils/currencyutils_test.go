package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  string
		hasError  bool
	}{
		{"simple decimal", "123.45", "123.45", false},
		{"negative decimal", "-123.45", "-123.45", false},
		{"integer", "100", "100", false},
		{"comma decimal separator", "123,45", "123.45", false},
		{"comma thousands", "1,234.56", "1234.56", false},
		{"comma thousands without decimals", "1,234", "1234", false},
		{"several comma groups", "1,234,567", "1234567", false},
		{"apostrophe thousands", "1'234.56", "1234.56", false},
		{"european format", "1.234,56", "1234.56", false},
		{"dot thousands", "1.234.567", "1234567", false},
		{"dollar sign", "$4.50", "4.50", false},
		{"negative before symbol", "-$12.50", "-12.50", false},
		{"euro sign after", "12,50 €", "12.50", false},
		{"currency code", "CAD 1,000.00", "1000.00", false},
		{"parentheses negative", "($45.10)", "-45.10", false},
		{"trailing minus", "87.20-", "-87.20", false},
		{"spaces", "  123.45  ", "123.45", false},
		{"zero parses", "0.00", "0", false},
		{"malformed decimal", "123.45.67", "", true},
		{"non numeric", "abc", "", true},
		{"symbol only", "$", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(result),
				"expected %s, got %s", tc.expected, result)
		})
	}
}

func TestParseAmount_Empty(t *testing.T) {
	_, err := ParseAmount("   ")
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-4.50", FormatAmount(decimal.RequireFromString("-4.5")))
	assert.Equal(t, "500.00", FormatAmount(decimal.NewFromInt(500)))
}
