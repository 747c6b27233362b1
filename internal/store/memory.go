package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"
)

type ruleKey struct {
	owner   models.OwnerID
	keyType models.KeyType
	pattern string
}

// MemoryStore is an in-process Storage. A single mutex serializes every
// write, which gives UpsertRule the required per-owner atomicity.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	nextID       int64
	categories   map[models.OwnerID][]models.Category
	rules        map[int64]*models.Rule
	ruleIndex    map[ruleKey]int64
	transactions map[models.OwnerID][]models.Transaction
	mappings     map[models.OwnerID]map[string]csvparser.ColumnMapping
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		categories:   make(map[models.OwnerID][]models.Category),
		rules:        make(map[int64]*models.Rule),
		ruleIndex:    make(map[ruleKey]int64),
		transactions: make(map[models.OwnerID][]models.Transaction),
		mappings:     make(map[models.OwnerID]map[string]csvparser.ColumnMapping),
	}
}

// SetClock overrides the time source, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) FindRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, pattern string) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ruleIndex[ruleKey{owner, keyType, pattern}]
	if !ok {
		return nil, ErrNotFound
	}
	rule := *s.rules[id]
	return &rule, nil
}

func (s *MemoryStore) MatchRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, key string) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []models.Rule
	for _, r := range s.rules {
		if r.Owner == owner && r.KeyType == keyType {
			candidates = append(candidates, *r)
		}
	}
	if best := SelectRule(candidates, key); best != nil {
		return best, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertRule(ctx context.Context, rule models.Rule) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := ruleKey{rule.Owner, rule.KeyType, rule.Pattern}
	if id, ok := s.ruleIndex[key]; ok {
		existing := s.rules[id]
		existing.Category = rule.Category
		existing.Source = rule.Source
		existing.Enabled = true
		existing.Priority = bumpedPriority(existing.Priority)
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}

	rule.ID = s.id()
	if rule.Priority == 0 {
		rule.Priority = models.DefaultRulePriority
	}
	rule.Hits = 0
	rule.Enabled = true
	rule.LastUsedAt = nil
	rule.CreatedAt = now
	rule.UpdatedAt = now
	stored := rule
	s.rules[rule.ID] = &stored
	s.ruleIndex[key] = rule.ID
	return &rule, nil
}

func (s *MemoryStore) TouchRule(ctx context.Context, owner models.OwnerID, id int64, at time.Time) error {
	return s.mutateRule(ctx, owner, id, func(r *models.Rule) {
		r.Hits++
		used := at
		r.LastUsedAt = &used
	})
}

func (s *MemoryStore) DisableRule(ctx context.Context, owner models.OwnerID, id int64) error {
	return s.SetRuleEnabled(ctx, owner, id, false)
}

func (s *MemoryStore) SetRuleEnabled(ctx context.Context, owner models.OwnerID, id int64, enabled bool) error {
	return s.mutateRule(ctx, owner, id, func(r *models.Rule) {
		r.Enabled = enabled
		r.UpdatedAt = s.now()
	})
}

func (s *MemoryStore) UpdateRuleCategory(ctx context.Context, owner models.OwnerID, id int64, category string) error {
	if err := validateString(category, "category"); err != nil {
		return err
	}
	return s.mutateRule(ctx, owner, id, func(r *models.Rule) {
		r.Category = category
		r.UpdatedAt = s.now()
	})
}

func (s *MemoryStore) mutateRule(ctx context.Context, owner models.OwnerID, id int64, fn func(*models.Rule)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[id]
	if !ok || r.Owner != owner {
		return ErrNotFound
	}
	fn(r)
	return nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, owner models.OwnerID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[id]
	if !ok || r.Owner != owner {
		return ErrNotFound
	}
	delete(s.ruleIndex, ruleKey{r.Owner, r.KeyType, r.Pattern})
	delete(s.rules, id)
	return nil
}

func (s *MemoryStore) ListRules(ctx context.Context, owner models.OwnerID) ([]models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Rule
	for _, r := range s.rules {
		if r.Owner == owner {
			out = append(out, *r)
		}
	}
	sortRulesForListing(out)
	return out, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, owner models.OwnerID) ([]models.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, len(s.categories[owner]))
	copy(out, s.categories[owner])
	return out, nil
}

func (s *MemoryStore) AddCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwner(category.Owner); err != nil {
		return nil, err
	}
	if err := validateString(category.Name, "name"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(category), nil
}

func (s *MemoryStore) addCategoryLocked(category models.Category) *models.Category {
	key := textutils.Fold(category.Name)
	for _, existing := range s.categories[category.Owner] {
		if textutils.Fold(existing.Name) == key {
			out := existing
			return &out
		}
	}
	category.ID = s.id()
	s.categories[category.Owner] = append(s.categories[category.Owner], category)
	return &category
}

func (s *MemoryStore) EnsureDefaultCategories(ctx context.Context, owner models.OwnerID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.categories[owner]) > 0 {
		return nil
	}
	for _, c := range models.DefaultCategories(owner) {
		s.addCategoryLocked(c)
	}
	return nil
}

func (s *MemoryStore) SaveTransactions(ctx context.Context, owner models.OwnerID, transactions []models.Transaction) ([]models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	saved := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		t.ID = s.id()
		t.Owner = owner
		t.CreatedAt = now
		t.Tags = append([]string(nil), t.Tags...)
		saved = append(saved, t)
	}
	s.transactions[owner] = append(s.transactions[owner], saved...)
	return saved, nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, owner models.OwnerID, filter TransactionFilter) ([]models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, t := range s.transactions[owner] {
		if filter.contains(t.Date) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, owner models.OwnerID, id int64) (*models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions[owner] {
		if t.ID == id {
			out := t
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateClassification(ctx context.Context, owner models.OwnerID, id int64, c models.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.transactions[owner]
	for i := range txs {
		if txs[i].ID == id {
			txs[i].Category = c.Category
			txs[i].Confidence = c.Confidence
			txs[i].Source = c.Source
			txs[i].IsTransfer = c.IsTransfer
			txs[i].IsPersonal = c.IsPersonal
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SaveMapping(ctx context.Context, owner models.OwnerID, signature string, mapping csvparser.ColumnMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(signature, "signature"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mappings[owner] == nil {
		s.mappings[owner] = make(map[string]csvparser.ColumnMapping)
	}
	s.mappings[owner][signature] = mapping
	return nil
}

func (s *MemoryStore) LoadMapping(ctx context.Context, owner models.OwnerID, signature string) (csvparser.ColumnMapping, error) {
	if err := validateContext(ctx); err != nil {
		return csvparser.EmptyMapping(), err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	mapping, ok := s.mappings[owner][signature]
	if !ok {
		return csvparser.EmptyMapping(), ErrNotFound
	}
	return mapping, nil
}
