package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS order_decisions (
		sku           TEXT NOT NULL,
		step          BIGINT NOT NULL,
		quantity      INTEGER NOT NULL,
		reason_code   TEXT NOT NULL,
		scenario      TEXT NOT NULL,
		reorder_point DOUBLE PRECISION NOT NULL,
		safety_stock  DOUBLE PRECISION NOT NULL,
		decided_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (sku, step)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_snapshots (
		id                 BIGSERIAL PRIMARY KEY,
		sku                TEXT NOT NULL,
		step               BIGINT NOT NULL,
		stockout_days      BIGINT NOT NULL,
		total_days         BIGINT NOT NULL,
		orders_placed      BIGINT NOT NULL,
		units_ordered      BIGINT NOT NULL,
		cumulative_cost    NUMERIC(18,4) NOT NULL,
		cumulative_revenue NUMERIC(18,4) NOT NULL,
		taken_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_snapshots_sku_taken_at
		ON ledger_snapshots (sku, taken_at DESC)`,
	`CREATE TABLE IF NOT EXISTS forecast_samples (
		sku             TEXT NOT NULL,
		target_date     DATE NOT NULL,
		expected_demand DOUBLE PRECISION NOT NULL,
		lower_bound     DOUBLE PRECISION NOT NULL,
		upper_bound     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (sku, target_date)
	)`,
}

// EnsureSchema creates the tables used by the repositories if they do not
// exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
