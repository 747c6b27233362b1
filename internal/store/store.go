// Package store persists categories, learned rules, transactions and saved
// column mappings. Every call is scoped to one owner; nothing reads or writes
// across owners.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/models"
)

// Errors returned by every Storage implementation.
var (
	ErrNotFound     = errors.New("not found")
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidRule  = errors.New("invalid rule")
	ErrInvalidOwner = errors.New("invalid owner")
)

// RuleStore holds learned category rules.
//
// UpsertRule must be atomic on (owner, key type, pattern): concurrent imports
// of the same owner converge on a single rule.
type RuleStore interface {
	// FindRule returns the rule with exactly this key, enabled or not.
	FindRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, pattern string) (*models.Rule, error)

	// MatchRule returns the best enabled rule for a lookup key, see SelectRule.
	MatchRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, key string) (*models.Rule, error)

	// UpsertRule inserts a rule or, when the key exists, updates its category
	// and source, re-enables it and bumps its priority and recency.
	UpsertRule(ctx context.Context, rule models.Rule) (*models.Rule, error)

	// TouchRule records that a rule fired.
	TouchRule(ctx context.Context, owner models.OwnerID, id int64, at time.Time) error

	DisableRule(ctx context.Context, owner models.OwnerID, id int64) error
	SetRuleEnabled(ctx context.Context, owner models.OwnerID, id int64, enabled bool) error
	UpdateRuleCategory(ctx context.Context, owner models.OwnerID, id int64, category string) error
	DeleteRule(ctx context.Context, owner models.OwnerID, id int64) error

	// ListRules returns the owner's rules, most used first.
	ListRules(ctx context.Context, owner models.OwnerID) ([]models.Rule, error)
}

// CategoryStore holds each owner's categories.
type CategoryStore interface {
	ListCategories(ctx context.Context, owner models.OwnerID) ([]models.Category, error)
	AddCategory(ctx context.Context, category models.Category) (*models.Category, error)

	// EnsureDefaultCategories seeds the default taxonomy for an owner that
	// has no categories yet.
	EnsureDefaultCategories(ctx context.Context, owner models.OwnerID) error
}

// TransactionFilter narrows ListTransactions. Zero times are unbounded; To is
// exclusive.
type TransactionFilter struct {
	From time.Time
	To   time.Time
}

func (f TransactionFilter) contains(d time.Time) bool {
	if !f.From.IsZero() && d.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !d.Before(f.To) {
		return false
	}
	return true
}

// TransactionStore holds committed transactions.
type TransactionStore interface {
	// SaveTransactions persists transactions atomically and returns them with
	// IDs assigned.
	SaveTransactions(ctx context.Context, owner models.OwnerID, transactions []models.Transaction) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, owner models.OwnerID, filter TransactionFilter) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, owner models.OwnerID, id int64) (*models.Transaction, error)
	UpdateClassification(ctx context.Context, owner models.OwnerID, id int64, c models.Classification) error
}

// MappingStore remembers confirmed column mappings per file signature.
type MappingStore interface {
	SaveMapping(ctx context.Context, owner models.OwnerID, signature string, mapping csvparser.ColumnMapping) error
	LoadMapping(ctx context.Context, owner models.OwnerID, signature string) (csvparser.ColumnMapping, error)
}

// Storage is the full persistence surface used by the application.
type Storage interface {
	RuleStore
	CategoryStore
	TransactionStore
	MappingStore
	Close() error
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateOwner(owner models.OwnerID) error {
	if owner <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOwner, owner)
	}
	return nil
}

func validateRule(rule models.Rule) error {
	if err := validateOwner(rule.Owner); err != nil {
		return err
	}
	if !rule.KeyType.Valid() {
		return fmt.Errorf("%w: key type %q", ErrInvalidRule, rule.KeyType)
	}
	if err := validateString(rule.Pattern, "pattern"); err != nil {
		return err
	}
	if err := validateString(rule.Category, "category"); err != nil {
		return err
	}
	return nil
}

// bumpedPriority is the priority of a rule confirmed again by the user.
func bumpedPriority(current int) int {
	if current-1 < models.MinRulePriority {
		return models.MinRulePriority
	}
	return current - 1
}
