package postgres

import (
	"context"

	ierr "github.com/retailpulse/retailpulse/internal/errors"
)

// RequiredSchema creates the tables every snapshot must carry
var RequiredSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id              TEXT PRIMARY KEY,
		enrollment_date DATE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		sku        TEXT PRIMARY KEY,
		category   TEXT NOT NULL DEFAULT '',
		base_price NUMERIC(12, 2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id            TEXT PRIMARY KEY,
		customer_id   TEXT NOT NULL,
		store_id      TEXT,
		date          TIMESTAMPTZ,
		total_value   NUMERIC(14, 2),
		points_earned NUMERIC(14, 2)
	)`,
	`CREATE TABLE IF NOT EXISTS line_items (
		id             BIGSERIAL PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		sku            TEXT NOT NULL,
		quantity       INTEGER NOT NULL DEFAULT 0,
		line_total     NUMERIC(14, 2) NOT NULL DEFAULT 0,
		rule_id        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_customer_id ON transactions (customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_line_items_transaction_id ON line_items (transaction_id)`,
}

// OptionalSchema creates the lookup tables a snapshot may leave out
var OptionalSchema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id       TEXT PRIMARY KEY,
		location TEXT NOT NULL DEFAULT '',
		tier     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS loyalty_rules (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		multiplier NUMERIC(6, 3) NOT NULL DEFAULT 1
	)`,
}

// Migrate creates the snapshot input tables. Optional tables are skipped when
// withOptional is false.
func (db *DB) Migrate(ctx context.Context, withOptional bool) error {
	statements := RequiredSchema
	if withOptional {
		statements = append(append([]string{}, RequiredSchema...), OptionalSchema...)
	}

	q := db.GetQuerier(ctx)
	for i, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create the snapshot schema").
				WithReportableDetails(map[string]any{
					"statement": i,
				}).
				Mark(ierr.ErrDatabase)
		}
	}
	db.logger.Infow("snapshot schema ready", "statements", len(statements))
	return nil
}
