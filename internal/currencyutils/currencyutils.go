// Package currencyutils parses the money columns of bank exports.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned for blank cells.
var ErrEmptyAmount = errors.New("empty amount")

var currencyCodeRe = regexp.MustCompile(`(?i)\b(cad|usd|eur|chf|gbp)\b`)

// ParseAmount parses a statement money cell. It tolerates a leading currency
// symbol or code, thousands separators (comma, apostrophe, space), a decimal
// comma, parenthesized negatives and a trailing minus sign.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}

	s = currencyCodeRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)
	s = StandardizeSeparators(s)
	if s == "" || s == "-" || s == "+" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': no digits", amountStr)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Abs().Neg()
	}
	return amount, nil
}

// StandardizeSeparators rewrites a number so decimal.NewFromString accepts it.
// When both separators appear, the last one is the decimal mark. A lone comma
// followed by one or two digits is a decimal comma; otherwise commas group
// thousands. Repeated dots group thousands only in groups of three.
func StandardizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) > 0 && len(parts[1]) <= 2 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1 && isDotGrouped(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

// isDotGrouped reports whether every group after the first dot has exactly
// three digits, as in "1.234.567".
func isDotGrouped(s string) bool {
	groups := strings.Split(s, ".")
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with two decimals and no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
