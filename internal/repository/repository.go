// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// DecisionRepository persists order decisions and ledger snapshots so
// reporting collaborators can query history across restarts. The engine
// core never depends on it; callers persist after a step completes.
type DecisionRepository interface {
	SaveDecision(ctx context.Context, decision domain.OrderDecision) error
	ListDecisions(ctx context.Context, sku string, limit int) ([]domain.OrderDecision, error)
	SaveLedgerSnapshot(ctx context.Context, snapshot domain.LedgerSnapshot) error
	LatestLedgerSnapshot(ctx context.Context, sku string) (domain.LedgerSnapshot, error)
}

// ForecastRepository persists oracle samples delivered by the ingest
// service. GetSample returns domain.ErrForecastUnavailable when no sample
// exists for the SKU and date.
type ForecastRepository interface {
	UpsertSamples(ctx context.Context, samples []domain.ForecastSample) error
	GetSample(ctx context.Context, sku string, target time.Time) (domain.ForecastSample, error)
}
