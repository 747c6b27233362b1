package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a normalized, not yet persisted row from an imported statement.
type Draft struct {
	RowIndex    int
	Owner       OwnerID
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Vendor      string
	VendorKey   string
	RawCategory string
}

// ToTransaction builds the transaction to persist from a draft and its final
// classification.
func (d Draft) ToTransaction(c Classification) Transaction {
	return Transaction{
		Owner:       d.Owner,
		Date:        d.Date,
		Amount:      d.Amount,
		Description: d.Description,
		Vendor:      d.Vendor,
		Category:    c.Category,
		IsTransfer:  c.IsTransfer,
		IsPersonal:  c.IsPersonal,
		Confidence:  c.Confidence,
		Source:      c.Source,
		Tags:        c.Tags,
	}
}
