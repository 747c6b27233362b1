package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice models.OwnerID = 1
	bob   models.OwnerID = 2
)

// backends returns a fresh instance of every Storage implementation.
func backends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "expenses.db"), logging.NewMockLogger())
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background()))
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Storage{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func vendorRule(owner models.OwnerID, pattern, category string) models.Rule {
	return models.Rule{
		Owner:    owner,
		KeyType:  models.KeyTypeVendor,
		Pattern:  pattern,
		Category: category,
		Source:   models.RuleSourceManualEdit,
	}
}

func TestUpsertRule(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			created, err := s.UpsertRule(ctx, vendorRule(alice, "tim hortons", models.CategoryBakeryCoffee))
			require.NoError(t, err)
			assert.NotZero(t, created.ID)
			assert.Equal(t, models.DefaultRulePriority, created.Priority)
			assert.True(t, created.Enabled)
			assert.Zero(t, created.Hits)

			require.NoError(t, s.DisableRule(ctx, alice, created.ID))

			again := vendorRule(alice, "tim hortons", models.CategoryGroceries)
			again.Source = models.RuleSourceImportOverride
			updated, err := s.UpsertRule(ctx, again)
			require.NoError(t, err)
			assert.Equal(t, created.ID, updated.ID)
			assert.Equal(t, models.CategoryGroceries, updated.Category)
			assert.Equal(t, models.RuleSourceImportOverride, updated.Source)
			assert.Equal(t, models.DefaultRulePriority-1, updated.Priority)
			assert.True(t, updated.Enabled, "confirming a rule re-enables it")

			rules, err := s.ListRules(ctx, alice)
			require.NoError(t, err)
			assert.Len(t, rules, 1)
		})
	}
}

func TestUpsertRule_PriorityFloor(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rule := vendorRule(alice, "metro", models.CategoryGroceries)
			rule.Priority = 2
			_, err := s.UpsertRule(ctx, rule)
			require.NoError(t, err)

			var last *models.Rule
			for i := 0; i < 3; i++ {
				last, err = s.UpsertRule(ctx, rule)
				require.NoError(t, err)
			}
			assert.Equal(t, models.MinRulePriority, last.Priority)
		})
	}
}

func TestUpsertRule_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		rule models.Rule
		want error
	}{
		{"no owner", vendorRule(0, "metro", "Groceries"), ErrInvalidOwner},
		{"empty pattern", vendorRule(alice, " ", "Groceries"), ErrEmptyString},
		{"empty category", vendorRule(alice, "metro", ""), ErrEmptyString},
		{"bad key type", models.Rule{Owner: alice, KeyType: "iban", Pattern: "x", Category: "y"}, ErrInvalidRule},
	}
	for name, s := range backends(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				_, err := s.UpsertRule(ctx, tt.rule)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	}
}

func TestMatchRule(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.UpsertRule(ctx, vendorRule(alice, "tim hortons", models.CategoryBakeryCoffee))
			require.NoError(t, err)
			_, err = s.UpsertRule(ctx, vendorRule(alice, "tim hortons 123", models.CategoryGroceries))
			require.NoError(t, err)
			_, err = s.UpsertRule(ctx, vendorRule(bob, "metro", models.CategoryGroceries))
			require.NoError(t, err)

			got, err := s.MatchRule(ctx, alice, models.KeyTypeVendor, "tim hortons 123")
			require.NoError(t, err)
			assert.Equal(t, models.CategoryGroceries, got.Category, "exact match wins")

			got, err = s.MatchRule(ctx, alice, models.KeyTypeVendor, "tim hortons 456")
			require.NoError(t, err)
			assert.Equal(t, models.CategoryBakeryCoffee, got.Category, "word prefix matches")

			_, err = s.MatchRule(ctx, alice, models.KeyTypeVendor, "tim hortonsx")
			assert.ErrorIs(t, err, ErrNotFound, "prefix must end on a word boundary")

			_, err = s.MatchRule(ctx, alice, models.KeyTypeVendor, "metro")
			assert.ErrorIs(t, err, ErrNotFound, "rules never cross owners")

			_, err = s.MatchRule(ctx, alice, models.KeyTypeDescription, "tim hortons")
			assert.ErrorIs(t, err, ErrNotFound, "key types are separate")
		})
	}
}

func TestMatchRule_SkipsDisabled(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rule, err := s.UpsertRule(ctx, vendorRule(alice, "netflix", models.CategorySubscriptions))
			require.NoError(t, err)
			require.NoError(t, s.SetRuleEnabled(ctx, alice, rule.ID, false))

			_, err = s.MatchRule(ctx, alice, models.KeyTypeVendor, "netflix")
			assert.ErrorIs(t, err, ErrNotFound)

			found, err := s.FindRule(ctx, alice, models.KeyTypeVendor, "netflix")
			require.NoError(t, err)
			assert.False(t, found.Enabled)
		})
	}
}

func TestRuleMaintenance(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rule, err := s.UpsertRule(ctx, vendorRule(alice, "shell", models.CategoryGasFuel))
			require.NoError(t, err)

			require.NoError(t, s.TouchRule(ctx, alice, rule.ID, at))
			require.NoError(t, s.TouchRule(ctx, alice, rule.ID, at))
			require.NoError(t, s.UpdateRuleCategory(ctx, alice, rule.ID, models.CategoryUtilities))

			got, err := s.FindRule(ctx, alice, models.KeyTypeVendor, "shell")
			require.NoError(t, err)
			assert.Equal(t, 2, got.Hits)
			assert.Equal(t, models.CategoryUtilities, got.Category)
			require.NotNil(t, got.LastUsedAt)
			assert.True(t, got.LastUsedAt.Equal(at))

			assert.ErrorIs(t, s.TouchRule(ctx, bob, rule.ID, at), ErrNotFound)
			assert.ErrorIs(t, s.DeleteRule(ctx, bob, rule.ID), ErrNotFound)

			require.NoError(t, s.DeleteRule(ctx, alice, rule.ID))
			_, err = s.FindRule(ctx, alice, models.KeyTypeVendor, "shell")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListRules_MostUsedFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, err := s.UpsertRule(ctx, vendorRule(alice, "a", "A"))
			require.NoError(t, err)
			b, err := s.UpsertRule(ctx, vendorRule(alice, "b", "B"))
			require.NoError(t, err)
			require.NoError(t, s.TouchRule(ctx, alice, b.ID, time.Now()))

			rules, err := s.ListRules(ctx, alice)
			require.NoError(t, err)
			require.Len(t, rules, 2)
			assert.Equal(t, b.ID, rules[0].ID)
			assert.Equal(t, a.ID, rules[1].ID)
		})
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.EnsureDefaultCategories(ctx, alice))
			require.NoError(t, s.EnsureDefaultCategories(ctx, alice))

			seeded, err := s.ListCategories(ctx, alice)
			require.NoError(t, err)
			assert.Len(t, seeded, len(models.DefaultCategories(alice)))

			dup, err := s.AddCategory(ctx, models.Category{Owner: alice, Name: "groceries"})
			require.NoError(t, err)
			assert.Equal(t, models.CategoryGroceries, dup.Name, "names are case-insensitive")

			after, err := s.ListCategories(ctx, alice)
			require.NoError(t, err)
			assert.Len(t, after, len(seeded))

			others, err := s.ListCategories(ctx, bob)
			require.NoError(t, err)
			assert.Empty(t, others)
		})
	}
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	march := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := s.SaveTransactions(ctx, alice, []models.Transaction{
				{Date: april, Amount: decimal.RequireFromString("-12.30"), Description: "metro 42", Vendor: "metro",
					Category: models.CategoryGroceries, Confidence: models.IntPtr(95), Source: models.SourceRuleVendor},
				{Date: march, Amount: decimal.RequireFromString("-4.50"), Description: "tim hortons", Vendor: "tim hortons",
					Source: models.SourceImportAuto, Tags: []string{"coffee"}},
			})
			require.NoError(t, err)
			require.Len(t, saved, 2)
			assert.NotZero(t, saved[0].ID)
			assert.Equal(t, alice, saved[1].Owner)

			all, err := s.ListTransactions(ctx, alice, TransactionFilter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "tim hortons", all[0].Description, "ordered by date")
			assert.True(t, all[1].Amount.Equal(decimal.RequireFromString("-12.30")))
			assert.Equal(t, []string{"coffee"}, all[0].Tags)
			assert.Nil(t, all[0].Confidence)
			require.NotNil(t, all[1].Confidence)
			assert.Equal(t, 95, *all[1].Confidence)

			from, to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
			inMarch, err := s.ListTransactions(ctx, alice, TransactionFilter{From: from, To: to})
			require.NoError(t, err)
			require.Len(t, inMarch, 1)
			assert.Equal(t, march, inMarch[0].Date)

			require.NoError(t, s.UpdateClassification(ctx, alice, inMarch[0].ID, models.Classification{
				Category: models.CategoryBakeryCoffee, Source: models.SourceManual, IsPersonal: true,
			}))
			got, err := s.GetTransaction(ctx, alice, inMarch[0].ID)
			require.NoError(t, err)
			assert.Equal(t, models.CategoryBakeryCoffee, got.Category)
			assert.Equal(t, models.SourceManual, got.Source)
			assert.True(t, got.IsPersonal)

			_, err = s.GetTransaction(ctx, bob, inMarch[0].ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.UpdateClassification(ctx, bob, inMarch[0].ID, models.Classification{}), ErrNotFound)
		})
	}
}

func TestMappings(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.LoadMapping(ctx, alice, "sig")
			assert.ErrorIs(t, err, ErrNotFound)

			m := csvparser.EmptyMapping()
			m.Date, m.Amount, m.Description = 0, 2, 1
			require.NoError(t, s.SaveMapping(ctx, alice, "sig", m))

			m.Vendor = 3
			require.NoError(t, s.SaveMapping(ctx, alice, "sig", m))

			got, err := s.LoadMapping(ctx, alice, "sig")
			require.NoError(t, err)
			assert.Equal(t, m, got)

			_, err = s.LoadMapping(ctx, bob, "sig")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestNilContext(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			//nolint:staticcheck // nil context is the point of the test
			_, err := s.ListRules(nil, alice)
			assert.ErrorIs(t, err, ErrNilContext)
		})
	}
}

func TestSQLiteMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	logger := logging.NewMockLogger()

	s, err := NewSQLiteStore(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Close())
	assert.Len(t, logger.EntriesByLevel("INFO"), ExpectedSchemaVersion)

	s, err = NewSQLiteStore(path, logger)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Migrate(context.Background()))
	assert.Len(t, logger.EntriesByLevel("INFO"), ExpectedSchemaVersion, "no migration reapplied")
}

func TestFailingStore(t *testing.T) {
	f := NewFailingStore(NewMemoryStore())
	f.SaveTransactionsError = assert.AnError

	_, err := f.SaveTransactions(context.Background(), alice, nil)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = f.ListTransactions(context.Background(), alice, TransactionFilter{})
	assert.NoError(t, err)
}
