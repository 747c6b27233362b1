package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements Storage on a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger logging.Logger
	now    func() time.Time
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStore opens (creating if needed) the database at dbPath. Call
// Migrate before first use. The special path ":memory:" opens a private
// in-memory database.
func NewSQLiteStore(dbPath string, logger logging.Logger) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), models.PermissionDirectory); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		logger: logger.WithField(logging.FieldFile, dbPath),
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source, for tests.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() time.Time {
	return s.now().UTC()
}

const ruleColumns = `id, user_id, key_type, pattern, category, priority, hits,
	source, is_enabled, created_at, updated_at, last_used_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		r        models.Rule
		keyType  string
		source   string
		lastUsed sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Owner, &keyType, &r.Pattern, &r.Category, &r.Priority,
		&r.Hits, &source, &r.Enabled, &r.CreatedAt, &r.UpdatedAt, &lastUsed); err != nil {
		return nil, err
	}
	r.KeyType = models.KeyType(keyType)
	r.Source = models.RuleSource(source)
	if lastUsed.Valid {
		t := lastUsed.Time
		r.LastUsedAt = &t
	}
	return &r, nil
}

func (s *SQLiteStore) FindRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, pattern string) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.findRuleTx(ctx, s.db, owner, keyType, pattern)
}

func (s *SQLiteStore) findRuleTx(ctx context.Context, q queryable, owner models.OwnerID, keyType models.KeyType, pattern string) (*models.Rule, error) {
	rule, err := scanRule(q.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM category_rules
		WHERE user_id = ? AND key_type = ? AND pattern = ?
	`, owner, string(keyType), pattern))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func (s *SQLiteStore) MatchRule(ctx context.Context, owner models.OwnerID, keyType models.KeyType, key string) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrNotFound
	}

	// LIKE narrows the candidates; SelectRule makes the final decision.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM category_rules
		WHERE user_id = ? AND key_type = ? AND is_enabled = 1
		  AND (pattern = ? OR ? LIKE pattern || ' %')
	`, owner, string(keyType), key, key)
	if err != nil {
		return nil, fmt.Errorf("failed to match rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := collectRules(rows)
	if err != nil {
		return nil, err
	}
	if best := SelectRule(candidates, key); best != nil {
		return best, nil
	}
	return nil, ErrNotFound
}

func collectRules(rows *sql.Rows) ([]models.Rule, error) {
	var out []models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) UpsertRule(ctx context.Context, rule models.Rule) (*models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if rule.Priority == 0 {
		rule.Priority = models.DefaultRulePriority
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.timestamp()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO category_rules
			(user_id, key_type, pattern, category, priority, hits, source, is_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, 1, ?, ?)
		ON CONFLICT(user_id, key_type, pattern) DO UPDATE SET
			category = excluded.category,
			source = excluded.source,
			is_enabled = 1,
			priority = MAX(category_rules.priority - 1, ?),
			updated_at = excluded.updated_at
	`, rule.Owner, string(rule.KeyType), rule.Pattern, rule.Category, rule.Priority,
		string(rule.Source), now, now, models.MinRulePriority)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rule: %w", err)
	}

	saved, err := s.findRuleTx(ctx, tx, rule.Owner, rule.KeyType, rule.Pattern)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rule: %w", err)
	}
	return saved, nil
}

func (s *SQLiteStore) TouchRule(ctx context.Context, owner models.OwnerID, id int64, at time.Time) error {
	return s.execRule(ctx, `
		UPDATE category_rules SET hits = hits + 1, last_used_at = ?
		WHERE user_id = ? AND id = ?
	`, at.UTC(), owner, id)
}

func (s *SQLiteStore) DisableRule(ctx context.Context, owner models.OwnerID, id int64) error {
	return s.SetRuleEnabled(ctx, owner, id, false)
}

func (s *SQLiteStore) SetRuleEnabled(ctx context.Context, owner models.OwnerID, id int64, enabled bool) error {
	return s.execRule(ctx, `
		UPDATE category_rules SET is_enabled = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, enabled, s.timestamp(), owner, id)
}

func (s *SQLiteStore) UpdateRuleCategory(ctx context.Context, owner models.OwnerID, id int64, category string) error {
	if err := validateString(category, "category"); err != nil {
		return err
	}
	return s.execRule(ctx, `
		UPDATE category_rules SET category = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, category, s.timestamp(), owner, id)
}

func (s *SQLiteStore) DeleteRule(ctx context.Context, owner models.OwnerID, id int64) error {
	return s.execRule(ctx, `DELETE FROM category_rules WHERE user_id = ? AND id = ?`, owner, id)
}

// execRule runs a single-row rule statement and maps "no row" to ErrNotFound.
func (s *SQLiteStore) execRule(ctx context.Context, query string, args ...any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListRules(ctx context.Context, owner models.OwnerID) ([]models.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM category_rules
		WHERE user_id = ?
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules, err := collectRules(rows)
	if err != nil {
		return nil, err
	}
	sortRulesForListing(rules)
	return rules, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context, owner models.OwnerID) ([]models.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, group_name FROM categories
		WHERE user_id = ? ORDER BY id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Group); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwner(category.Owner); err != nil {
		return nil, err
	}
	if err := validateString(category.Name, "name"); err != nil {
		return nil, err
	}
	if err := s.addCategoryTx(ctx, s.db, category); err != nil {
		return nil, err
	}

	var saved models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, group_name FROM categories
		WHERE user_id = ? AND name = ?
	`, category.Owner, category.Name).Scan(&saved.ID, &saved.Owner, &saved.Name, &saved.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to read category: %w", err)
	}
	return &saved, nil
}

func (s *SQLiteStore) addCategoryTx(ctx context.Context, q queryable, category models.Category) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, group_name) VALUES (?, ?, ?)
		ON CONFLICT(user_id, name) DO NOTHING
	`, category.Owner, category.Name, category.Group)
	if err != nil {
		return fmt.Errorf("failed to add category %q: %w", category.Name, err)
	}
	return nil
}

func (s *SQLiteStore) EnsureDefaultCategories(ctx context.Context, owner models.OwnerID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwner(owner); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, owner).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, c := range models.DefaultCategories(owner) {
		if err := s.addCategoryTx(ctx, tx, c); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	s.logger.Info("Seeded default categories", logging.F(logging.FieldOwner, owner))
	return nil
}

func (s *SQLiteStore) SaveTransactions(ctx context.Context, owner models.OwnerID, transactions []models.Transaction) ([]models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses
			(user_id, date, amount, description, vendor, category, is_transfer,
			 is_personal, confidence, source, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.timestamp()
	saved := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		tags, err := json.Marshal(nonNilTags(t.Tags))
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		var confidence sql.NullInt64
		if t.Confidence != nil {
			confidence = sql.NullInt64{Int64: int64(*t.Confidence), Valid: true}
		}
		result, err := stmt.ExecContext(ctx, owner, t.DateString(), t.Amount.String(), t.Description,
			t.Vendor, t.Category, t.IsTransfer, t.IsPersonal, confidence, string(t.Source), string(tags), now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction: %w", err)
		}
		if t.ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read transaction id: %w", err)
		}
		t.Owner = owner
		t.CreatedAt = now
		saved = append(saved, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return saved, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

const transactionColumns = `id, user_id, date, amount, description, vendor, category,
	is_transfer, is_personal, confidence, source, tags, created_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t          models.Transaction
		date       string
		confidence sql.NullInt64
		source     string
		tags       string
	)
	if err := row.Scan(&t.ID, &t.Owner, &date, &t.Amount, &t.Description, &t.Vendor, &t.Category,
		&t.IsTransfer, &t.IsPersonal, &confidence, &source, &tags, &t.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	t.Date = parsed
	t.Source = models.Source(source)
	if confidence.Valid {
		t.Confidence = models.IntPtr(int(confidence.Int64))
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("invalid stored tags: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, owner models.OwnerID, filter TransactionFilter) ([]models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{owner}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.From.Format(models.DateLayout))
	}
	if !filter.To.IsZero() {
		query += ` AND date < ?`
		args = append(args, filter.To.Format(models.DateLayout))
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, owner models.OwnerID, id int64) (*models.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM expenses WHERE user_id = ? AND id = ?`, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) UpdateClassification(ctx context.Context, owner models.OwnerID, id int64, c models.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	var confidence sql.NullInt64
	if c.Confidence != nil {
		confidence = sql.NullInt64{Int64: int64(*c.Confidence), Valid: true}
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET category = ?, confidence = ?, source = ?, is_transfer = ?, is_personal = ?
		WHERE user_id = ? AND id = ?
	`, c.Category, confidence, string(c.Source), c.IsTransfer, c.IsPersonal, owner, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveMapping(ctx context.Context, owner models.OwnerID, signature string, mapping csvparser.ColumnMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(signature, "signature"); err != nil {
		return err
	}
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO csv_mappings (user_id, signature, mapping, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, signature) DO UPDATE SET
			mapping = excluded.mapping,
			updated_at = excluded.updated_at
	`, owner, signature, string(encoded), s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadMapping(ctx context.Context, owner models.OwnerID, signature string) (csvparser.ColumnMapping, error) {
	mapping := csvparser.EmptyMapping()
	if err := validateContext(ctx); err != nil {
		return mapping, err
	}
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT mapping FROM csv_mappings WHERE user_id = ? AND signature = ?`, owner, signature).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return mapping, ErrNotFound
	}
	if err != nil {
		return mapping, fmt.Errorf("failed to load mapping: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &mapping); err != nil {
		return csvparser.EmptyMapping(), fmt.Errorf("failed to decode mapping: %w", err)
	}
	return mapping, nil
}
