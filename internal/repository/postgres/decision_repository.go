// internal/repository/postgres/decision_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type decisionRow struct {
	SKU          string    `db:"sku"`
	Step         int64     `db:"step"`
	Quantity     int       `db:"quantity"`
	Reason       string    `db:"reason_code"`
	Scenario     string    `db:"scenario"`
	ReorderPoint float64   `db:"reorder_point"`
	SafetyStock  float64   `db:"safety_stock"`
	DecidedAt    time.Time `db:"decided_at"`
}

type ledgerRow struct {
	SKU          string          `db:"sku"`
	Step         int64           `db:"step"`
	StockoutDays int64           `db:"stockout_days"`
	TotalDays    int64           `db:"total_days"`
	OrdersPlaced int64           `db:"orders_placed"`
	UnitsOrdered int64           `db:"units_ordered"`
	Cost         decimal.Decimal `db:"cumulative_cost"`
	Revenue      decimal.Decimal `db:"cumulative_revenue"`
	TakenAt      time.Time       `db:"taken_at"`
}

type DecisionRepository struct {
	db *sqlx.DB
}

func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

var _ repository.DecisionRepository = (*DecisionRepository)(nil)

func (r *DecisionRepository) SaveDecision(ctx context.Context, decision domain.OrderDecision) error {
	query := `
		INSERT INTO order_decisions
			(sku, step, quantity, reason_code, scenario, reorder_point, safety_stock, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sku, step) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		decision.SKU,
		decision.Step,
		decision.Quantity,
		string(decision.Reason),
		string(decision.Scenario),
		decision.ReorderPoint,
		decision.SafetyStock,
		decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save decision for %s step %d: %w", decision.SKU, decision.Step, err)
	}
	return nil
}

func (r *DecisionRepository) ListDecisions(ctx context.Context, sku string, limit int) ([]domain.OrderDecision, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT sku, step, quantity, reason_code, scenario, reorder_point, safety_stock, decided_at
		FROM order_decisions
		WHERE sku = $1
		ORDER BY step DESC
		LIMIT $2`

	var rows []decisionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, sku, limit); err != nil {
		return nil, fmt.Errorf("list decisions for %s: %w", sku, err)
	}

	// Rows come newest first; callers expect chronological order.
	decisions := make([]domain.OrderDecision, len(rows))
	for i, row := range rows {
		decisions[len(rows)-1-i] = domain.OrderDecision{
			SKU:          row.SKU,
			Step:         row.Step,
			Quantity:     row.Quantity,
			Reason:       domain.ReasonCode(row.Reason),
			Scenario:     domain.ScenarioKind(row.Scenario),
			ReorderPoint: row.ReorderPoint,
			SafetyStock:  row.SafetyStock,
			Timestamp:    row.DecidedAt,
		}
	}
	return decisions, nil
}

func (r *DecisionRepository) SaveLedgerSnapshot(ctx context.Context, snapshot domain.LedgerSnapshot) error {
	query := `
		INSERT INTO ledger_snapshots
			(sku, step, stockout_days, total_days, orders_placed, units_ordered,
			 cumulative_cost, cumulative_revenue, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.SKU,
		snapshot.Step,
		snapshot.StockoutDays,
		snapshot.TotalDays,
		snapshot.OrdersPlaced,
		snapshot.UnitsOrdered,
		snapshot.Cost,
		snapshot.Revenue,
		snapshot.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("save ledger snapshot for %s: %w", snapshot.SKU, err)
	}
	return nil
}

func (r *DecisionRepository) LatestLedgerSnapshot(ctx context.Context, sku string) (domain.LedgerSnapshot, error) {
	query := `
		SELECT sku, step, stockout_days, total_days, orders_placed, units_ordered,
		       cumulative_cost, cumulative_revenue, taken_at
		FROM ledger_snapshots
		WHERE sku = $1
		ORDER BY taken_at DESC
		LIMIT 1`

	var row ledgerRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerSnapshot{}, fmt.Errorf("%w: %s", domain.ErrUnknownSKU, sku)
		}
		return domain.LedgerSnapshot{}, fmt.Errorf("latest ledger snapshot for %s: %w", sku, err)
	}

	snap := domain.LedgerSnapshot{
		SKU:          row.SKU,
		Step:         row.Step,
		StockoutDays: row.StockoutDays,
		TotalDays:    row.TotalDays,
		OrdersPlaced: row.OrdersPlaced,
		UnitsOrdered: row.UnitsOrdered,
		Cost:         row.Cost,
		Revenue:      row.Revenue,
		Profit:       row.Revenue.Sub(row.Cost),
		ServiceLevel: 100,
		TakenAt:      row.TakenAt,
	}
	if row.TotalDays > 0 {
		snap.ServiceLevel = float64(row.TotalDays-row.StockoutDays) / float64(row.TotalDays) * 100
		snap.StockoutRate = float64(row.StockoutDays) / float64(row.TotalDays) * 100
	}
	return snap, nil
}
