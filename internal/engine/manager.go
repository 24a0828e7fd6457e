// internal/engine/manager.go
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// StepResult is the outcome of one SKU's step inside a StepAll call. A
// fatal error on one SKU never blocks the others; it is carried here.
type StepResult struct {
	SKU      string               `json:"sku"`
	Decision domain.OrderDecision `json:"decision"`
	Err      error                `json:"-"`
	Error    string               `json:"error,omitempty"`
}

// Manager owns one SKUEngine per registered SKU and steps them in
// parallel. SKUs are fully independent; the only shared component is the
// forecast adapter, which synchronizes internally.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	adapter *forecast.Adapter
	engines map[string]*SKUEngine
}

// NewManager builds a Manager around the given oracle.
func NewManager(cfg Config, oracle forecast.Oracle) *Manager {
	return &Manager{
		cfg:     cfg,
		adapter: forecast.NewAdapter(oracle, cfg.ForecastTimeout, cfg.StalenessCeiling),
		engines: make(map[string]*SKUEngine),
	}
}

// Register creates the engine for a new SKU.
func (m *Manager) Register(params domain.SKUParams) (*SKUEngine, error) {
	if params.SKU == "" {
		return nil, &domain.ConfigurationError{Entry: "sku", Detail: "empty sku id"}
	}
	if params.LeadTimeDays <= 0 {
		return nil, &domain.ConfigurationError{
			Entry:  params.SKU,
			Detail: fmt.Sprintf("lead time must be positive, got %d", params.LeadTimeDays),
		}
	}
	if params.InitialStock < 0 {
		return nil, &domain.ConfigurationError{
			Entry:  params.SKU,
			Detail: fmt.Sprintf("initial stock must be non-negative, got %d", params.InitialStock),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[params.SKU]; exists {
		return nil, fmt.Errorf("sku %s already registered", params.SKU)
	}

	eng := newSKUEngine(m.cfg, m.adapter, params)
	m.engines[params.SKU] = eng

	log.Info().
		Str("sku", params.SKU).
		Int("lead_time_days", params.LeadTimeDays).
		Int("initial_stock", params.InitialStock).
		Msg("sku registered")

	return eng, nil
}

// Engine returns the engine for a SKU.
func (m *Manager) Engine(sku string) (*SKUEngine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	eng, ok := m.engines[sku]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSKU, sku)
	}
	return eng, nil
}

// SKUs lists registered SKU ids in stable order.
func (m *Manager) SKUs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	skus := make([]string, 0, len(m.engines))
	for sku := range m.engines {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// Observe routes a market event to its SKU's scenario machine.
func (m *Manager) Observe(event domain.MarketEvent) error {
	eng, err := m.Engine(event.SKU)
	if err != nil {
		return err
	}
	eng.Observe(event)
	return nil
}

// StepAll advances every registered SKU one step in parallel and returns
// one result per SKU, sorted by SKU id. A failing SKU reports its error in
// its result; the remaining SKUs still complete their step.
func (m *Manager) StepAll(ctx context.Context) []StepResult {
	skus := m.SKUs()
	results := make([]StepResult, len(skus))

	g, gctx := errgroup.WithContext(ctx)
	for i, sku := range skus {
		eng, err := m.Engine(sku)
		if err != nil {
			results[i] = StepResult{SKU: sku, Err: err, Error: err.Error()}
			continue
		}
		g.Go(func() error {
			decision, err := eng.Step(gctx)
			res := StepResult{SKU: sku, Decision: decision, Err: err}
			if err != nil {
				res.Error = err.Error()
				log.Error().Err(err).Str("sku", sku).Msg("step failed")
			}
			results[i] = res
			// Per-SKU failures stay in the result set; returning the error
			// would cancel sibling steps through the group context.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Snapshots returns the ledger snapshot of every SKU, sorted by SKU id.
func (m *Manager) Snapshots() []domain.LedgerSnapshot {
	skus := m.SKUs()
	snaps := make([]domain.LedgerSnapshot, 0, len(skus))
	for _, sku := range skus {
		if eng, err := m.Engine(sku); err == nil {
			snaps = append(snaps, eng.Snapshot())
		}
	}
	return snaps
}

// ResetAll restores every engine to its initial state.
func (m *Manager) ResetAll() {
	for _, sku := range m.SKUs() {
		if eng, err := m.Engine(sku); err == nil {
			eng.Reset()
		}
	}
	log.Info().Msg("all sku engines reset")
}
