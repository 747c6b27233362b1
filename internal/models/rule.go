package models

import "time"

// KeyType selects which draft field a learned rule matches against.
type KeyType string

const (
	KeyTypeVendor      KeyType = "vendor"
	KeyTypeDescription KeyType = "description"
)

// Valid reports whether k is a known key type.
func (k KeyType) Valid() bool {
	return k == KeyTypeVendor || k == KeyTypeDescription
}

// RuleSource records which user action created a learned rule.
type RuleSource string

const (
	RuleSourceManualEdit     RuleSource = "manual_edit"
	RuleSourceImportOverride RuleSource = "import_override"
)

// DefaultRulePriority is assigned to new rules. Lower priorities win ties.
const DefaultRulePriority = 100

// MinRulePriority is the floor reached by repeated corrections.
const MinRulePriority = 1

// Rule is a learned, per-owner category rule. Rules are unique on
// (Owner, KeyType, Pattern).
type Rule struct {
	ID         int64
	Owner      OwnerID
	KeyType    KeyType
	Pattern    string
	Category   string
	Priority   int
	Hits       int
	LastUsedAt *time.Time
	Source     RuleSource
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
