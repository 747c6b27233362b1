// Package models provides the data structures shared by the import pipeline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerID identifies the user every category, rule and transaction belongs to.
type OwnerID int64

// Source records how a transaction received its category.
type Source string

const (
	SourceManual          Source = "manual"
	SourceImportAuto      Source = "import_auto"
	SourceImportOverride  Source = "import_override"
	SourceRuleVendor      Source = "rule_vendor"
	SourceRuleDescription Source = "rule_description"
	SourceKeyword         Source = "keyword"
	SourceAIFallback      Source = "ai_fallback"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceImportAuto, SourceImportOverride, SourceRuleVendor,
		SourceRuleDescription, SourceKeyword, SourceAIFallback:
		return true
	}
	return false
}

// Transaction is a persisted, categorized bank transaction.
//
// Amount is signed: negative is money out, positive is money in. A transfer
// never counts toward spending; a personal expense counts toward spending but
// not toward the shared pool.
type Transaction struct {
	ID          int64
	Owner       OwnerID
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Vendor      string
	Category    string
	IsTransfer  bool
	IsPersonal  bool
	Confidence  *int
	Source      Source
	Tags        []string
	CreatedAt   time.Time
}

// IsSpending reports whether the transaction is an outflow that counts toward
// spending totals.
func (t Transaction) IsSpending() bool {
	return !t.IsTransfer && t.Amount.IsNegative()
}

// IsShared reports whether the transaction counts toward the shared pool.
func (t Transaction) IsShared() bool {
	return t.IsSpending() && !t.IsPersonal
}

// DateString formats the transaction date as YYYY-MM-DD.
func (t Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// IntPtr is a small helper for optional confidence values.
func IntPtr(v int) *int {
	return &v
}
