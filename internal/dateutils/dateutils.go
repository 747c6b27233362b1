// Package dateutils parses the transaction dates found in bank exports.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutISOTime  = "2006-01-02 15:04:05"
	DateLayoutRFC3339  = time.RFC3339
	DateLayoutSlashISO = "2006/01/02"
	DateLayoutUS       = "1/2/2006"
	DateLayoutUSShort  = "1/2/06"
	DateLayoutDayFirst = "2/1/2006"
	DateLayoutDayShort = "2/1/06"
	DateLayoutDayMonth = "2 Jan 2006"
	DateLayoutDayLong  = "2 January 2006"
	DateLayoutMonth    = "2006-01"
)

// StatementFormats is the ordered list of layouts tried on a statement date.
// ISO comes first; month-first slash dates win over day-first ones when both
// would parse.
var StatementFormats = []string{
	DateLayoutISO,
	DateLayoutISOTime,
	DateLayoutRFC3339,
	DateLayoutSlashISO,
	DateLayoutUS,
	DateLayoutUSShort,
	DateLayoutDayFirst,
	DateLayoutDayShort,
	DateLayoutDayMonth,
	DateLayoutDayLong,
}

// ParseTransactionDate parses a statement date and truncates it to a UTC
// calendar date.
func ParseTransactionDate(value string) (time.Time, error) {
	cleaned := CleanDateString(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range StatementFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// CalendarDate drops the clock part of t and moves it to UTC midnight.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CleanDateString trims whitespace, removes dots used as abbreviation marks
// ("01 Mar. 2024") and collapses inner spaces.
func CleanDateString(value string) string {
	value = strings.TrimSpace(value)
	if strings.ContainsAny(value, " ") {
		value = strings.ReplaceAll(value, ".", "")
	}
	return strings.Join(strings.Fields(value), " ")
}

// FormatDate formats t with layout, defaulting to ISO.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DateLayoutISO
	}
	return t.Format(layout)
}

// MonthRange returns the first day of the month named by "YYYY-MM" and the
// first day of the following month.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayoutMonth, strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}
