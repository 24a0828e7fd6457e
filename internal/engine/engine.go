// internal/engine/engine.go
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/scenario"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config is the immutable configuration a decision engine is built with.
// It is constructed explicitly at startup, never read from ambient state,
// so parallel per-SKU instances stay deterministic.
type Config struct {
	Policies         *policy.Table
	Durations        scenario.Durations
	ForecastTimeout  time.Duration
	StalenessCeiling float64
	StartDate        time.Time
}

// SKUEngine runs the replenishment decision loop for one SKU. All state
// mutation is serialized behind one mutex; decisions for a SKU are strictly
// ordered while different SKUs step in parallel with no shared state.
type SKUEngine struct {
	mu sync.Mutex

	params   domain.SKUParams
	policies *policy.Table
	adapter  *forecast.Adapter
	machine  *scenario.Machine
	ledger   *Ledger

	inv   domain.InventoryState
	step  int64
	start time.Time
	today time.Time
}

func newSKUEngine(cfg Config, adapter *forecast.Adapter, params domain.SKUParams) *SKUEngine {
	start := cfg.StartDate
	if start.IsZero() {
		start = time.Now().Truncate(24 * time.Hour)
	}

	return &SKUEngine{
		params:   params,
		policies: cfg.Policies,
		adapter:  adapter,
		machine:  scenario.NewMachine(params.SKU, cfg.Durations),
		ledger:   newLedger(params.SKU),
		inv: domain.InventoryState{
			SKU:          params.SKU,
			OnHand:       params.InitialStock,
			LeadTimeDays: params.LeadTimeDays,
		},
		start: start,
		today: start,
	}
}

// Step advances the engine one time step and emits the step's decision.
// A ConfigurationError aborts the step before any state is mutated.
func (e *SKUEngine) Step(ctx context.Context) (domain.OrderDecision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	step := e.step + 1
	target := e.today.AddDate(0, 0, e.inv.LeadTimeDays)
	sample := e.adapter.Sample(ctx, e.params.SKU, target)

	state := e.machine.Current(step)
	params, err := e.policies.Lookup(state.Kind)
	if err != nil {
		return domain.OrderDecision{}, err
	}
	// Normal is guaranteed present by policy.New.
	baseline, err := e.policies.Lookup(domain.ScenarioNormal)
	if err != nil {
		return domain.OrderDecision{}, err
	}

	position := e.inv.OnHand + e.inv.OnOrder
	quantity, unclamped, reorderPoint, safetyStock := computeOrder(sample, position, e.inv.LeadTimeDays, params)

	reason := domain.ReasonNoActionBelowThreshold
	switch {
	case quantity == 0:
	case unclamped > float64(params.MaxOrderQuantity):
		reason = domain.ReasonCapEnforced
	case !state.Normal():
		baseQty, _, _, _ := computeOrder(sample, position, e.inv.LeadTimeDays, baseline)
		if quantity > baseQty {
			reason = domain.ReasonScenarioEscalation
		} else {
			reason = domain.ReasonRoutineReorder
		}
	default:
		reason = domain.ReasonRoutineReorder
	}

	decision := domain.OrderDecision{
		SKU:          e.params.SKU,
		Step:         step,
		Quantity:     quantity,
		Reason:       reason,
		Scenario:     state.Kind,
		ReorderPoint: reorderPoint,
		SafetyStock:  safetyStock,
		Timestamp:    e.today,
	}

	// Commit: everything above is derived from immutable snapshots.
	e.step = step
	e.today = e.today.AddDate(0, 0, 1)
	e.inv.ReorderHistory = append(e.inv.ReorderHistory, decision)
	e.ledger.recordStep(step, state.Kind)

	if quantity > 0 {
		e.inv.OnOrder += quantity
		cost := e.params.UnitCost.Mul(decimal.NewFromInt(int64(quantity)))
		e.ledger.recordOrder(state.Kind, quantity, cost)
	}

	log.Debug().
		Str("sku", e.params.SKU).
		Int64("step", step).
		Str("scenario", string(state.Kind)).
		Str("reason", string(reason)).
		Int("quantity", quantity).
		Float64("reorder_point", reorderPoint).
		Bool("stale_forecast", sample.Stale).
		Msg("decision emitted")

	return decision, nil
}

// computeOrder is the pure reorder arithmetic. The safety stock scales with
// the upper-bound delta of the forecast, so wider uncertainty intervals
// produce larger buffers. The candidate raises projected coverage to the
// reorder point plus one full lead-time cycle of expected demand.
func computeOrder(sample domain.ForecastSample, position, leadTimeDays int, params domain.PolicyParameters) (quantity int, unclamped, reorderPoint, safetyStock float64) {
	safetyStock = (sample.Upper - sample.Expected) * params.SafetyStockMultiplier
	cycleDemand := sample.Expected * float64(leadTimeDays)
	reorderPoint = cycleDemand*params.ReorderPointMultiplier + safetyStock

	if float64(position) >= reorderPoint {
		return 0, 0, reorderPoint, safetyStock
	}

	candidate := reorderPoint + cycleDemand - float64(position)
	if candidate <= 0 {
		return 0, 0, reorderPoint, safetyStock
	}

	if params.CostConservatism {
		unclamped = math.Floor(candidate)
	} else {
		unclamped = math.Ceil(candidate)
	}

	quantity = int(unclamped)
	if quantity > params.MaxOrderQuantity {
		quantity = params.MaxOrderQuantity
	}
	return quantity, unclamped, reorderPoint, safetyStock
}

// ApplyDemand consumes stock for one day of realized demand. Demand beyond
// on-hand stock is recorded as a stockout day, never as negative stock.
func (e *SKUEngine) ApplyDemand(quantity int) (fulfilled int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 0 {
		return 0, &domain.InvalidStateError{
			SKU: e.params.SKU, Step: e.step,
			Field: "demand", Value: quantity,
			Detail: "demand must be non-negative",
		}
	}

	fulfilled = quantity
	stockout := false
	if fulfilled > e.inv.OnHand {
		fulfilled = e.inv.OnHand
		stockout = true
	}
	e.inv.OnHand -= fulfilled

	revenue := e.params.UnitPrice.Mul(decimal.NewFromInt(int64(fulfilled)))
	kind := e.machine.Current(e.step).Kind
	e.ledger.recordDay(kind, quantity, fulfilled, stockout, revenue)

	if stockout {
		log.Info().
			Str("sku", e.params.SKU).
			Int64("step", e.step).
			Int("demand", quantity).
			Int("fulfilled", fulfilled).
			Msg("stockout recorded")
	}
	return fulfilled, nil
}

// ApplyReceipt receives replenishment stock placed in earlier steps.
func (e *SKUEngine) ApplyReceipt(quantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 0 {
		return &domain.InvalidStateError{
			SKU: e.params.SKU, Step: e.step,
			Field: "receipt", Value: quantity,
			Detail: "receipt must be non-negative",
		}
	}

	e.inv.OnHand += quantity
	if quantity >= e.inv.OnOrder {
		e.inv.OnOrder = 0
	} else {
		e.inv.OnOrder -= quantity
	}
	return nil
}

// Observe routes one market event to the SKU's scenario machine.
func (e *SKUEngine) Observe(event domain.MarketEvent) {
	e.mu.Lock()
	step := e.step
	e.mu.Unlock()

	e.machine.Observe(event, step)
}

// State returns a copy of the current inventory state.
func (e *SKUEngine) State() domain.InventoryState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.inv
	state.ReorderHistory = append([]domain.OrderDecision(nil), e.inv.ReorderHistory...)
	return state
}

// Scenario returns the currently active scenario.
func (e *SKUEngine) Scenario() domain.ScenarioState {
	e.mu.Lock()
	step := e.step
	e.mu.Unlock()

	return e.machine.Current(step)
}

// Decisions returns the most recent decisions, newest last. limit <= 0
// returns the full history.
func (e *SKUEngine) Decisions(limit int) []domain.OrderDecision {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := e.inv.ReorderHistory
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]domain.OrderDecision(nil), history...)
}

// Snapshot returns the current performance ledger snapshot.
func (e *SKUEngine) Snapshot() domain.LedgerSnapshot {
	return e.ledger.Snapshot()
}

// Params returns the engine's immutable SKU parameters.
func (e *SKUEngine) Params() domain.SKUParams {
	return e.params
}

// CurrentStep returns the last completed step number.
func (e *SKUEngine) CurrentStep() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// Reset restores the engine to its initial state for a new run. The date
// clock returns to the configured start and the forecast adapter forgets
// the SKU's fallback memory, so a post-reset run is indistinguishable from
// a fresh engine.
func (e *SKUEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inv = domain.InventoryState{
		SKU:          e.params.SKU,
		OnHand:       e.params.InitialStock,
		LeadTimeDays: e.params.LeadTimeDays,
	}
	e.step = 0
	e.today = e.start
	e.machine.Reset()
	e.ledger.reset()
	e.adapter.Reset(e.params.SKU)
}
