// internal/repository/postgres/forecast_repository.go
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
)

type forecastRow struct {
	SKU        string    `db:"sku"`
	TargetDate time.Time `db:"target_date"`
	Expected   float64   `db:"expected_demand"`
	Lower      float64   `db:"lower_bound"`
	Upper      float64   `db:"upper_bound"`
}

type ForecastRepository struct {
	db *sqlx.DB
}

func NewForecastRepository(db *sqlx.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

var _ repository.ForecastRepository = (*ForecastRepository)(nil)

func (r *ForecastRepository) UpsertSamples(ctx context.Context, samples []domain.ForecastSample) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO forecast_samples (sku, target_date, expected_demand, lower_bound, upper_bound)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sku, target_date) DO UPDATE SET
			expected_demand = EXCLUDED.expected_demand,
			lower_bound = EXCLUDED.lower_bound,
			upper_bound = EXCLUDED.upper_bound`

	for _, sample := range samples {
		if _, err := r.db.ExecContext(ctx, query,
			sample.SKU,
			sample.TargetDate,
			sample.Expected,
			sample.Lower,
			sample.Upper,
		); err != nil {
			return fmt.Errorf("upsert forecast for %s %s: %w",
				sample.SKU, sample.TargetDate.Format("2006-01-02"), err)
		}
	}
	return nil
}

func (r *ForecastRepository) GetSample(ctx context.Context, sku string, target time.Time) (domain.ForecastSample, error) {
	query := `
		SELECT sku, target_date, expected_demand, lower_bound, upper_bound
		FROM forecast_samples
		WHERE sku = $1 AND target_date = $2`

	var row forecastRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, sku, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ForecastSample{}, domain.ErrForecastUnavailable
		}
		return domain.ForecastSample{}, fmt.Errorf("get forecast for %s: %w", sku, err)
	}

	return domain.ForecastSample{
		SKU:        row.SKU,
		TargetDate: row.TargetDate,
		Expected:   row.Expected,
		Lower:      row.Lower,
		Upper:      row.Upper,
	}, nil
}
