package store

import (
	"context"
	"database/sql"
	"fmt"

	"fjacquet/expense-import/internal/logging"
)

// ExpectedSchemaVersion is the schema version this build reads and writes.
// Migrate fails if the database cannot be brought to exactly this version.
const ExpectedSchemaVersion = 3

// Migration is one forward-only schema step.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categories and expenses",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					name TEXT NOT NULL COLLATE NOCASE,
					group_name TEXT NOT NULL DEFAULT '',
					UNIQUE (user_id, name)
				)`,
				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					date TEXT NOT NULL,
					amount TEXT NOT NULL,
					description TEXT NOT NULL,
					vendor TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					is_transfer INTEGER NOT NULL DEFAULT 0,
					is_personal INTEGER NOT NULL DEFAULT 0,
					confidence INTEGER,
					source TEXT NOT NULL DEFAULT 'import_auto',
					tags TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Learned category rules",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS category_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					key_type TEXT NOT NULL CHECK (key_type IN ('vendor', 'description')),
					pattern TEXT NOT NULL,
					category TEXT NOT NULL,
					priority INTEGER NOT NULL DEFAULT 100,
					hits INTEGER NOT NULL DEFAULT 0,
					source TEXT NOT NULL DEFAULT 'manual_edit',
					is_enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					last_used_at DATETIME,
					UNIQUE (user_id, key_type, pattern)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_rules_lookup ON category_rules(user_id, key_type, is_enabled)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Saved CSV column mappings",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS csv_mappings (
					user_id INTEGER NOT NULL,
					signature TEXT NOT NULL,
					mapping TEXT NOT NULL,
					updated_at DATETIME NOT NULL,
					PRIMARY KEY (user_id, signature)
				)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		s.logger.Info("Applied migration",
			logging.F("version", migration.Version),
			logging.F("description", migration.Description))
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}
