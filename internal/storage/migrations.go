package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS items (
					id TEXT PRIMARY KEY,
					household_id TEXT NOT NULL,
					name TEXT NOT NULL,
					brand TEXT,
					category TEXT,
					confidence TEXT,
					smoothed_interval REAL DEFAULT 0,
					purchase_count INTEGER DEFAULT 0,
					predicted_runout DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_items_household ON items(household_id)`,
				`CREATE INDEX idx_items_name ON items(household_id, name)`,

				`CREATE TABLE IF NOT EXISTS item_skus (
					item_id TEXT NOT NULL,
					retailer TEXT NOT NULL,
					sku TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (item_id, retailer),
					FOREIGN KEY (item_id) REFERENCES items(id)
				)`,
				`CREATE INDEX idx_item_skus_lookup ON item_skus(retailer, sku)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					item_id TEXT NOT NULL,
					household_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					vendor TEXT,
					quantity REAL NOT NULL,
					price REAL DEFAULT 0,
					confidence REAL DEFAULT 0,
					method TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (item_id) REFERENCES items(id)
				)`,
				`CREATE INDEX idx_transactions_item_date ON transactions(item_id, date)`,
				`CREATE INDEX idx_transactions_hash ON transactions(hash)`,

				`CREATE TABLE IF NOT EXISTS reviews (
					id TEXT PRIMARY KEY,
					household_id TEXT NOT NULL,
					raw_text TEXT NOT NULL,
					retailer TEXT,
					reason TEXT,
					suggested_item_id TEXT,
					candidate TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_reviews_household ON reviews(household_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add review status for resolved entries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE reviews ADD COLUMN status TEXT DEFAULT 'pending'`,
				`CREATE INDEX idx_reviews_status ON reviews(household_id, status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Optimize database indexes",
		Up: func(tx *sql.Tx) error {
			// UNIQUE constraint already creates an index on hash
			if _, err := tx.Exec(`DROP INDEX IF EXISTS idx_transactions_hash`); err != nil {
				return fmt.Errorf("failed to drop redundant index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
