package rowparser

import (
	"errors"
	"testing"
	"time"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedMapping() csvparser.ColumnMapping {
	m := csvparser.EmptyMapping()
	m.Date = 0
	m.Description = 1
	m.Amount = 2
	return m
}

func TestNormalizeRow_SignRule(t *testing.T) {
	mapping := csvparser.HeaderlessMapping()

	tests := []struct {
		name       string
		fields     []string
		wantAmount string
		wantSkip   SkipReason
	}{
		{name: "debit is money out", fields: []string{"2024-03-01", "Coffee", "12.50", ""}, wantAmount: "-12.50"},
		{name: "credit is money in", fields: []string{"2024-03-01", "Refund", "", "12.50"}, wantAmount: "12.50"},
		{name: "negative debit still money out", fields: []string{"2024-03-01", "Coffee", "-12.50", ""}, wantAmount: "-12.50"},
		{name: "zero debit falls through to credit", fields: []string{"2024-03-01", "x", "0.00", "3.00"}, wantAmount: "3.00"},
		{name: "both empty", fields: []string{"2024-03-01", "Nothing", "", ""}, wantSkip: SkipNoAmount},
		{name: "both zero", fields: []string{"2024-03-01", "Nothing", "0", "0.00"}, wantSkip: SkipNoAmount},
		{name: "unparseable", fields: []string{"2024-03-01", "Nothing", "n/a", "abc"}, wantSkip: SkipNoAmount},
		{name: "thousands and symbol", fields: []string{"2024-03-01", "Rent", "$1,250.00", ""}, wantAmount: "-1250.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, skip := NormalizeRow(1, 0, tt.fields, mapping)
			if tt.wantSkip != "" {
				require.NotNil(t, skip)
				assert.Equal(t, tt.wantSkip, skip.Reason)
				return
			}
			require.Nil(t, skip)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(draft.Amount), "got %s", draft.Amount)
		})
	}
}

func TestNormalizeRow_SignedAmountColumn(t *testing.T) {
	mapping := signedMapping()

	draft, skip := NormalizeRow(1, 0, []string{"2024-03-01", "METRO", "-23.10"}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "-23.1", draft.Amount.String())

	draft, skip = NormalizeRow(1, 0, []string{"2024-03-01", "PAYROLL", "1.500,00"}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "1500", draft.Amount.String())

	_, skip = NormalizeRow(1, 0, []string{"2024-03-01", "ZERO", "0.00"}, mapping)
	require.NotNil(t, skip)
	assert.Equal(t, SkipNoAmount, skip.Reason)
}

func TestNormalizeRow_PaymentAmountInDescription(t *testing.T) {
	mapping := signedMapping()

	draft, skip := NormalizeRow(1, 0, []string{"2024-03-01", "PAYMENT RECEIVED - THANK YOU 1,234.56", ""}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "1234.56", draft.Amount.String())
	assert.Equal(t, "PAYMENT RECEIVED - THANK YOU", draft.Description)
	assert.Equal(t, "received thank you", draft.VendorKey)

	draft, skip = NormalizeRow(1, 0, []string{"2024-03-01", "ONLINE PAYMENT -250.00 REF 99", ""}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "250", draft.Amount.String(), "a payment is money in")
	assert.Equal(t, "ONLINE PAYMENT REF 99", draft.Description)

	_, skip = NormalizeRow(1, 0, []string{"2024-03-01", "METRO 12.50", ""}, mapping)
	require.NotNil(t, skip)
	assert.Equal(t, SkipNoAmount, skip.Reason, "only payment rows carry their amount in the text")

	_, skip = NormalizeRow(1, 0, []string{"2024-03-01", "PAYMENT THANK YOU", ""}, mapping)
	require.NotNil(t, skip)
	assert.Equal(t, SkipNoAmount, skip.Reason)

	_, skip = NormalizeRow(1, 0, []string{"2024-03-01", "PAYMENT 100.00", "", ""}, csvparser.HeaderlessMapping())
	require.NotNil(t, skip)
	assert.Equal(t, SkipNoAmount, skip.Reason, "debit and credit layouts never read the description")
}

func TestNormalizeRow_NoAmountColumnMapped(t *testing.T) {
	mapping := csvparser.EmptyMapping()
	mapping.Date = 0
	mapping.Description = 1

	_, skip := NormalizeRow(1, 2, []string{"2024-03-01", "PAYROLL", "1000.00"}, mapping)
	require.NotNil(t, skip)
	assert.Equal(t, SkipNoAmount, skip.Reason)
}

func TestNormalizeRow_BadDate(t *testing.T) {
	_, skip := NormalizeRow(1, 4, []string{"not a date", "Coffee", "4.50", ""}, csvparser.HeaderlessMapping())
	require.NotNil(t, skip)
	assert.Equal(t, SkipBadDate, skip.Reason)

	var parseErr *parsererror.ParseError
	require.True(t, errors.As(skip, &parseErr))
	assert.Equal(t, "date", parseErr.Field)
	assert.Contains(t, skip.Error(), "bad_date")
}

func TestNormalizeRow_ColumnCount(t *testing.T) {
	tests := [][]string{
		{},
		{"2024-03-01", "only description"},
	}
	for _, fields := range tests {
		_, skip := NormalizeRow(1, 0, fields, csvparser.HeaderlessMapping())
		require.NotNil(t, skip)
		assert.Equal(t, SkipColumnCount, skip.Reason)
	}

	// Reaching only the debit column is enough.
	_, skip := NormalizeRow(1, 0, []string{"2024-03-01", "x", "1.00"}, csvparser.HeaderlessMapping())
	assert.Nil(t, skip)
}

func TestNormalizeRow_Draft(t *testing.T) {
	draft, skip := NormalizeRow(9, 3, []string{"2024-03-01", " TIM HORTONS #123 ", "4.50", ""}, csvparser.HeaderlessMapping())
	require.Nil(t, skip)

	assert.Equal(t, 3, draft.RowIndex)
	assert.EqualValues(t, 9, draft.Owner)
	assert.True(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).Equal(draft.Date))
	assert.Equal(t, "TIM HORTONS #123", draft.Description)
	assert.Equal(t, "tim hortons", draft.Vendor)
	assert.Equal(t, "tim hortons", draft.VendorKey)
}

func TestNormalizeRow_MappedVendorVerbatim(t *testing.T) {
	mapping := signedMapping()
	mapping.Vendor = 3
	mapping.Category = 4

	draft, skip := NormalizeRow(1, 0, []string{"2024-03-01", "POS 0042 SQ *BLUE BOTTLE", "-6.00", "Blue Bottle Café", "Dining"}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "Blue Bottle Café", draft.Vendor)
	assert.Equal(t, "blue bottle cafe", draft.VendorKey)
	assert.Equal(t, "Dining", draft.RawCategory)

	// An empty vendor cell falls back to derivation.
	draft, skip = NormalizeRow(1, 0, []string{"2024-03-01", "SHELL C12345", "-40.00", "  ", ""}, mapping)
	require.Nil(t, skip)
	assert.Equal(t, "shell", draft.Vendor)
}

func TestNormalizeRow_EmptyDescription(t *testing.T) {
	draft, skip := NormalizeRow(1, 1, []string{"2024-03-02", "", "", "500.00"}, csvparser.HeaderlessMapping())
	require.Nil(t, skip)
	assert.Equal(t, "", draft.Description)
	assert.Equal(t, "", draft.Vendor)
	assert.Equal(t, "500", draft.Amount.String())
}

func TestDeriveVendor(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"TIM HORTONS #123", "tim hortons"},
		{"POS PURCHASE METRO 0042", "metro"},
		{"INTERAC PURCHASE - 4412 - IGA EXTRA 8123 QC", "4412 iga extra 8123"},
		{"VISA DEBIT NETFLIX.COM 866-579-7172", "netflix.com"},
		{"AMZN Mktp CA*2K3L", "amzn mktp ca"},
		{"Cafe Olimpico Montreal Quebec Canada", "cafe olimpico montreal quebec"},
		{"", ""},
		{"#0042", ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveVendor(tt.description))
		})
	}
}
