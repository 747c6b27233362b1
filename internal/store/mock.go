package store

import (
	"context"
	"time"

	"fjacquet/expense-import/internal/models"
)

// FailingStore wraps a Storage and injects errors into selected operations.
// It is used by tests that exercise degraded-storage paths.
type FailingStore struct {
	Storage

	MatchRuleError        error
	UpsertRuleError       error
	TouchRuleError        error
	SaveTransactionsError error
	ListTransactionsError error
}

// NewFailingStore wraps s. Set the error fields to make calls fail.
func NewFailingStore(s Storage) *FailingStore {
	return &FailingStore{Storage: s}
}

func (f *FailingStore) MatchRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, key string) (*models.Rule, error) {
	if f.MatchRuleError != nil {
		return nil, f.MatchRuleError
	}
	return f.Storage.MatchRule(ctx, owner, keyType, key)
}

func (f *FailingStore) UpsertRule(ctx context.Context, rule models.Rule) (*models.Rule, error) {
	if f.UpsertRuleError != nil {
		return nil, f.UpsertRuleError
	}
	return f.Storage.UpsertRule(ctx, rule)
}

func (f *FailingStore) TouchRule(ctx context.Context, owner models.OwnerID, id int64, at time.Time) error {
	if f.TouchRuleError != nil {
		return f.TouchRuleError
	}
	return f.Storage.TouchRule(ctx, owner, id, at)
}

func (f *FailingStore) SaveTransactions(ctx context.Context, owner models.OwnerID, transactions []models.Transaction) ([]models.Transaction, error) {
	if f.SaveTransactionsError != nil {
		return nil, f.SaveTransactionsError
	}
	return f.Storage.SaveTransactions(ctx, owner, transactions)
}

func (f *FailingStore) ListTransactions(ctx context.Context, owner models.OwnerID, filter TransactionFilter) ([]models.Transaction, error) {
	if f.ListTransactionsError != nil {
		return nil, f.ListTransactionsError
	}
	return f.Storage.ListTransactions(ctx, owner, filter)
}
