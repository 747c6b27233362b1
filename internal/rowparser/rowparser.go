// Package rowparser turns raw statement rows into transaction drafts.
package rowparser

import (
	"regexp"
	"strings"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/currencyutils"
	"fjacquet/expense-import/internal/dateutils"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/parsererror"
	"fjacquet/expense-import/internal/textutils"

	"github.com/shopspring/decimal"
)

// SkipReason explains why a row produced no draft.
type SkipReason string

const (
	SkipBadDate     SkipReason = "bad_date"
	SkipNoAmount    SkipReason = "no_amount"
	SkipColumnCount SkipReason = "column_count"
)

// Skip is the non-fatal outcome of a row that cannot be imported.
type Skip struct {
	Reason SkipReason
	Err    error
}

func (s *Skip) Error() string {
	if s.Err != nil {
		return string(s.Reason) + ": " + s.Err.Error()
	}
	return string(s.Reason)
}

func (s *Skip) Unwrap() error {
	return s.Err
}

// maxVendorTokens bounds a derived vendor.
const maxVendorTokens = 4

// vendorNoiseTokens never identify a merchant.
var vendorNoiseTokens = map[string]struct{}{
	"pos": {}, "purchase": {}, "debit": {}, "credit": {}, "auth": {},
	"interac": {}, "transaction": {}, "card": {}, "payment": {},
	"visa": {}, "mastercard": {}, "mc": {},
}

// referenceToken matches trailing store numbers and transaction references.
var referenceToken = regexp.MustCompile(`^[a-z]*\d+[a-z\d-]*$`)

// paymentPhrases mark card payment rows. Some card exports leave the amount
// cell of those rows empty and print the amount in the description.
var paymentPhrases = []string{"payment received", "thank you", "online payment", "autopay", "payment"}

// embeddedAmount finds a decimal amount inside free text, not touching other
// digits.
var embeddedAmount = regexp.MustCompile(`(^|[^\d])([-+]?\d[\d,]*\.\d{1,2})([^\d]|$)`)

// NormalizeRow converts one raw row into a draft for owner. The row index is
// carried through for preview display.
func NormalizeRow(owner models.OwnerID, index int, fields []string, mapping csvparser.ColumnMapping) (models.Draft, *Skip) {
	if len(fields) <= mapping.Date || (mapping.HasAmount() && !hasAnyAmountColumn(fields, mapping)) {
		return models.Draft{}, &Skip{Reason: SkipColumnCount}
	}

	date, err := dateutils.ParseTransactionDate(cell(fields, mapping.Date))
	if err != nil {
		return models.Draft{}, &Skip{
			Reason: SkipBadDate,
			Err:    &parsererror.ParseError{Parser: "rowparser", Field: "date", Value: cell(fields, mapping.Date), Err: err},
		}
	}

	description := cell(fields, mapping.Description)
	amount, ok := ResolveAmount(fields, mapping)
	if !ok && mapping.Amount != csvparser.Unmapped {
		amount, description, ok = paymentAmountFromDescription(description)
	}
	if !ok {
		return models.Draft{}, &Skip{Reason: SkipNoAmount}
	}

	vendor := cell(fields, mapping.Vendor)
	if vendor == "" {
		vendor = DeriveVendor(description)
	}

	return models.Draft{
		RowIndex:    index,
		Owner:       owner,
		Date:        date,
		Amount:      amount,
		Description: description,
		Vendor:      vendor,
		VendorKey:   textutils.Normalize(vendor),
		RawCategory: cell(fields, mapping.Category),
	}, nil
}

// ResolveAmount applies the sign rule: a non-zero debit is money out, else a
// non-zero credit is money in, else the signed amount column is taken as is.
// Zero never resolves.
func ResolveAmount(fields []string, mapping csvparser.ColumnMapping) (decimal.Decimal, bool) {
	if v, ok := nonZero(fields, mapping.Debit); ok {
		return v.Abs().Neg(), true
	}
	if v, ok := nonZero(fields, mapping.Credit); ok {
		return v.Abs(), true
	}
	if v, ok := nonZero(fields, mapping.Amount); ok {
		return v, true
	}
	return decimal.Zero, false
}

// DeriveVendor extracts the merchant-identifying leading part of a
// description: noise tokens and trailing reference numbers are dropped and at
// most four tokens are kept.
func DeriveVendor(description string) string {
	var tokens []string
	for _, token := range strings.Fields(textutils.Normalize(description)) {
		if _, noise := vendorNoiseTokens[token]; noise {
			continue
		}
		tokens = append(tokens, token)
	}
	for len(tokens) > 0 && referenceToken.MatchString(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > maxVendorTokens {
		tokens = tokens[:maxVendorTokens]
	}
	return strings.Join(tokens, " ")
}

// paymentAmountFromDescription recovers the amount of a card payment row
// whose amount is only printed in its description. The amount is money in and
// is removed from the returned description.
func paymentAmountFromDescription(description string) (decimal.Decimal, string, bool) {
	normalized := textutils.Normalize(description)
	isPayment := false
	for _, phrase := range paymentPhrases {
		if textutils.ContainsPhrase(normalized, phrase) {
			isPayment = true
			break
		}
	}
	if !isPayment {
		return decimal.Zero, description, false
	}

	loc := embeddedAmount.FindStringSubmatchIndex(description)
	if loc == nil {
		return decimal.Zero, description, false
	}
	v, err := currencyutils.ParseAmount(description[loc[4]:loc[5]])
	if err != nil || v.IsZero() {
		return decimal.Zero, description, false
	}
	cleaned := strings.Join(strings.Fields(description[:loc[4]]+" "+description[loc[5]:]), " ")
	return v.Abs(), strings.Trim(cleaned, " -\t"), true
}

func nonZero(fields []string, column int) (decimal.Decimal, bool) {
	raw := cell(fields, column)
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := currencyutils.ParseAmount(raw)
	if err != nil || v.IsZero() {
		return decimal.Zero, false
	}
	return v, true
}

// hasAnyAmountColumn reports whether the row reaches at least one mapped
// amount column.
func hasAnyAmountColumn(fields []string, mapping csvparser.ColumnMapping) bool {
	for _, column := range []int{mapping.Debit, mapping.Credit, mapping.Amount} {
		if column != csvparser.Unmapped && column < len(fields) {
			return true
		}
	}
	return false
}

func cell(fields []string, column int) string {
	if column < 0 || column >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[column])
}
