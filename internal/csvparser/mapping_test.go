package csvparser

import (
	"errors"
	"testing"

	"fjacquet/expense-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
)

func TestMappingFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   ColumnMapping
	}{
		{
			name:   "amex style merchant doubles as description",
			header: []string{"Date", "Merchant", "Amount"},
			want:   ColumnMapping{Date: 0, Vendor: 1, Description: 1, Amount: 2, Debit: Unmapped, Credit: Unmapped, Category: Unmapped},
		},
		{
			name:   "withdrawal and deposit aliases",
			header: []string{"Posting Date", "Memo", "Withdrawals", "Deposits", "Balance"},
			want:   ColumnMapping{Date: 0, Description: 1, Debit: 2, Credit: 3, Amount: Unmapped, Vendor: Unmapped, Category: Unmapped},
		},
		{
			name:   "first column wins and case is ignored",
			header: []string{"DATE", "date processed", "DESCRIPTION", "Payee", "AMOUNT"},
			want:   ColumnMapping{Date: 0, Description: 2, Vendor: 3, Amount: 4, Debit: Unmapped, Credit: Unmapped, Category: Unmapped},
		},
		{
			name:   "nothing recognized",
			header: []string{"foo", "bar"},
			want:   EmptyMapping(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MappingFromHeader(tt.header))
		})
	}
}

func TestColumnMapping_Merge(t *testing.T) {
	detected := HeaderlessMapping()
	override := EmptyMapping()
	override.Vendor = 4
	override.Credit = 5

	merged := detected.Merge(override)
	assert.Equal(t, 0, merged.Date)
	assert.Equal(t, 4, merged.Vendor)
	assert.Equal(t, 5, merged.Credit)
	assert.Equal(t, 2, merged.Debit)
	assert.True(t, EmptyMapping().IsEmpty())
	assert.False(t, merged.IsEmpty())
}

func TestColumnMapping_Validate(t *testing.T) {
	assert.NoError(t, HeaderlessMapping().Validate())

	noDate := HeaderlessMapping()
	noDate.Date = Unmapped
	var validationErr *parsererror.ValidationError
	assert.True(t, errors.As(noDate.Validate(), &validationErr))

	noAmount := EmptyMapping()
	noAmount.Date = 0
	assert.Error(t, noAmount.Validate())

	negative := HeaderlessMapping()
	negative.Vendor = -3
	assert.Error(t, negative.Validate())
}

func TestFileSignature(t *testing.T) {
	a := FileSignature("/tmp/uploads/Statement.CSV", []string{"Date", "Amount"})
	b := FileSignature("statement.csv", []string{" date ", "AMOUNT"})
	c := FileSignature("statement.csv", []string{"Date", "Debit"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
