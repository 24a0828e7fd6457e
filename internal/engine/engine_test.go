package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/scenario"
	"github.com/shopspring/decimal"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testPolicies(t *testing.T, entries map[domain.ScenarioKind]domain.PolicyParameters) *policy.Table {
	t.Helper()
	table, err := policy.New(entries)
	if err != nil {
		t.Fatalf("policy.New failed: %v", err)
	}
	return table
}

func testConfig(t *testing.T, entries map[domain.ScenarioKind]domain.PolicyParameters) Config {
	return Config{
		Policies: testPolicies(t, entries),
		Durations: scenario.Durations{
			domain.ScenarioViralDemand:      14,
			domain.ScenarioSupplyDisruption: 21,
		},
		StalenessCeiling: 8,
		StartDate:        testStart,
	}
}

func newTestEngine(t *testing.T, cfg Config, store *forecast.Store, params domain.SKUParams) *SKUEngine {
	t.Helper()
	mgr := NewManager(cfg, store)
	eng, err := mgr.Register(params)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return eng
}

func seedForecast(store *forecast.Store, sku string, leadTime int, expected, lower, upper float64) {
	// The engine forecasts for start + lead time on its first step.
	store.Put(domain.ForecastSample{
		SKU:        sku,
		TargetDate: testStart.AddDate(0, 0, leadTime),
		Expected:   expected,
		Lower:      lower,
		Upper:      upper,
	})
}

func normalOnly(max int) map[domain.ScenarioKind]domain.PolicyParameters {
	return map[domain.ScenarioKind]domain.PolicyParameters{
		domain.ScenarioNormal: {
			SafetyStockMultiplier:  1.0,
			ReorderPointMultiplier: 1.0,
			MaxOrderQuantity:       max,
		},
	}
}

func TestStep_RoutineReorder(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})

	decision, err := eng.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	// reorder_point = 10*7*1.0 + (15-10)*1.0 = 75; 50 < 75 triggers an
	// order raising coverage to 75 + 70 = 145, so quantity is 95.
	if decision.ReorderPoint != 75 {
		t.Errorf("expected reorder point 75, got %v", decision.ReorderPoint)
	}
	if decision.Quantity != 95 {
		t.Errorf("expected quantity 95, got %d", decision.Quantity)
	}
	if decision.Reason != domain.ReasonRoutineReorder {
		t.Errorf("expected routine_reorder, got %s", decision.Reason)
	}

	state := eng.State()
	if state.OnOrder != 95 {
		t.Errorf("expected on_order 95, got %d", state.OnOrder)
	}
	if len(state.ReorderHistory) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(state.ReorderHistory))
	}
}

func TestStep_NoActionAboveThreshold(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 200,
	})

	decision, err := eng.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if decision.Quantity != 0 {
		t.Errorf("expected no order, got %d", decision.Quantity)
	}
	if decision.Reason != domain.ReasonNoActionBelowThreshold {
		t.Errorf("expected no_action_below_threshold, got %s", decision.Reason)
	}
}

func TestStep_CapEnforced(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(60))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})

	decision, err := eng.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if decision.Quantity != 60 {
		t.Errorf("expected quantity clamped to 60, got %d", decision.Quantity)
	}
	if decision.Reason != domain.ReasonCapEnforced {
		t.Errorf("expected cap_enforced, got %s", decision.Reason)
	}
}

func TestStep_ScenarioEscalation(t *testing.T) {
	entries := normalOnly(500)
	entries[domain.ScenarioViralDemand] = domain.PolicyParameters{
		SafetyStockMultiplier:  2.5,
		ReorderPointMultiplier: 1.0,
		MaxOrderQuantity:       500,
	}

	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, entries)
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})

	eng.Observe(domain.MarketEvent{
		SKU:       "SKU-1",
		Kind:      domain.ScenarioViralDemand,
		Strength:  0.9,
		Timestamp: testStart,
	})

	decision, err := eng.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	// reorder_point = 70 + 12.5 = 82.5; candidate 102.5 rounds up to 103,
	// strictly more than the 95 the Normal policy would have ordered.
	if decision.Quantity != 103 {
		t.Errorf("expected quantity 103, got %d", decision.Quantity)
	}
	if decision.Reason != domain.ReasonScenarioEscalation {
		t.Errorf("expected scenario_escalation, got %s", decision.Reason)
	}
	if decision.Scenario != domain.ScenarioViralDemand {
		t.Errorf("expected viral_demand scenario, got %s", decision.Scenario)
	}
}

func TestStep_EscalationMonotoneInMultiplier(t *testing.T) {
	multipliers := []float64{1.0, 1.5, 2.5, 4.0}
	var prev int

	for i, mult := range multipliers {
		entries := normalOnly(5000)
		entries[domain.ScenarioViralDemand] = domain.PolicyParameters{
			SafetyStockMultiplier:  mult,
			ReorderPointMultiplier: 1.0,
			MaxOrderQuantity:       5000,
		}

		store := forecast.NewStore()
		seedForecast(store, "SKU-1", 7, 10, 5, 15)

		cfg := testConfig(t, entries)
		eng := newTestEngine(t, cfg, store, domain.SKUParams{
			SKU:          "SKU-1",
			LeadTimeDays: 7,
			InitialStock: 50,
		})
		eng.Observe(domain.MarketEvent{
			SKU:       "SKU-1",
			Kind:      domain.ScenarioViralDemand,
			Strength:  1,
			Timestamp: testStart,
		})

		decision, err := eng.Step(context.Background())
		if err != nil {
			t.Fatalf("Step failed at multiplier %v: %v", mult, err)
		}
		if i > 0 && decision.Quantity <= prev {
			t.Errorf("multiplier %v produced quantity %d, not above %d",
				mult, decision.Quantity, prev)
		}
		prev = decision.Quantity
	}
}

func TestStep_Idempotent(t *testing.T) {
	build := func() *SKUEngine {
		store := forecast.NewStore()
		seedForecast(store, "SKU-1", 7, 10, 5, 15)
		cfg := testConfig(t, normalOnly(500))
		return newTestEngine(t, cfg, store, domain.SKUParams{
			SKU:          "SKU-1",
			LeadTimeDays: 7,
			InitialStock: 50,
		})
	}

	first, err := build().Step(context.Background())
	if err != nil {
		t.Fatalf("first Step failed: %v", err)
	}
	second, err := build().Step(context.Background())
	if err != nil {
		t.Fatalf("second Step failed: %v", err)
	}

	if first != second {
		t.Errorf("identical snapshots produced different decisions:\n%+v\n%+v", first, second)
	}
}

func TestStep_MissingPolicyEntryFailsFast(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	// Table has no viral_demand entry; activating the scenario must abort
	// the step with a ConfigurationError instead of defaulting.
	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})
	eng.Observe(domain.MarketEvent{
		SKU:       "SKU-1",
		Kind:      domain.ScenarioViralDemand,
		Strength:  1,
		Timestamp: testStart,
	})

	_, err := eng.Step(context.Background())
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	// The aborted step must not have mutated state.
	if eng.CurrentStep() != 0 {
		t.Errorf("aborted step advanced the step counter to %d", eng.CurrentStep())
	}
	if len(eng.Decisions(0)) != 0 {
		t.Errorf("aborted step appended to history")
	}
}

func TestStep_StaleForecastDegradesToNoAction(t *testing.T) {
	// Empty store: the adapter has no last good sample, so the engine sees
	// a zero-demand conservative default.
	store := forecast.NewStore()
	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 0,
	})

	decision, err := eng.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if decision.Quantity != 0 || decision.Reason != domain.ReasonNoActionBelowThreshold {
		t.Errorf("expected degraded no-action decision, got %+v", decision)
	}
}

func TestApplyDemand_StockoutNeverGoesNegative(t *testing.T) {
	store := forecast.NewStore()
	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 3,
		InitialStock: 50,
		UnitPrice:    decimal.NewFromInt(50),
	})

	fulfilled, err := eng.ApplyDemand(80)
	if err != nil {
		t.Fatalf("ApplyDemand failed: %v", err)
	}
	if fulfilled != 50 {
		t.Errorf("expected 50 fulfilled, got %d", fulfilled)
	}
	if got := eng.State().OnHand; got != 0 {
		t.Errorf("expected on_hand 0, got %d", got)
	}

	snap := eng.Snapshot()
	if snap.StockoutDays != 1 || snap.TotalDays != 1 {
		t.Errorf("expected 1 stockout day of 1, got %d of %d", snap.StockoutDays, snap.TotalDays)
	}
	if !snap.Revenue.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected revenue 2500, got %s", snap.Revenue)
	}
	if snap.ServiceLevel != 0 {
		t.Errorf("expected service level 0, got %v", snap.ServiceLevel)
	}
}

func TestApplyDemand_RejectsNegative(t *testing.T) {
	store := forecast.NewStore()
	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 3,
		InitialStock: 50,
	})

	_, err := eng.ApplyDemand(-5)
	var stateErr *domain.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if got := eng.State().OnHand; got != 50 {
		t.Errorf("rejected mutation changed on_hand to %d", got)
	}
}

func TestApplyReceipt_MovesOnOrderToOnHand(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})

	if _, err := eng.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if err := eng.ApplyReceipt(95); err != nil {
		t.Fatalf("ApplyReceipt failed: %v", err)
	}

	state := eng.State()
	if state.OnHand != 145 {
		t.Errorf("expected on_hand 145, got %d", state.OnHand)
	}
	if state.OnOrder != 0 {
		t.Errorf("expected on_order 0, got %d", state.OnOrder)
	}
}

func TestLedger_CostAndProfitAccumulation(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
		UnitCost:     decimal.NewFromInt(30),
		UnitPrice:    decimal.NewFromInt(50),
	})

	if _, err := eng.ApplyDemand(20); err != nil {
		t.Fatalf("ApplyDemand failed: %v", err)
	}
	if _, err := eng.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	snap := eng.Snapshot()
	if !snap.Revenue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected revenue 1000, got %s", snap.Revenue)
	}
	if snap.OrdersPlaced != 1 {
		t.Errorf("expected 1 order, got %d", snap.OrdersPlaced)
	}
	if snap.Cost.IsZero() {
		t.Error("expected non-zero cumulative cost after an order")
	}
	if !snap.Profit.Equal(snap.Revenue.Sub(snap.Cost)) {
		t.Errorf("profit %s does not equal revenue-cost", snap.Profit)
	}
}

func TestReset_MatchesFreshRun(t *testing.T) {
	build := func() (*forecast.Store, *SKUEngine) {
		store := forecast.NewStore()
		seedForecast(store, "SKU-1", 7, 10, 5, 15)
		cfg := testConfig(t, normalOnly(500))
		return store, newTestEngine(t, cfg, store, domain.SKUParams{
			SKU:          "SKU-1",
			LeadTimeDays: 7,
			InitialStock: 50,
		})
	}

	_, fresh := build()
	want, err := fresh.Step(context.Background())
	if err != nil {
		t.Fatalf("fresh Step failed: %v", err)
	}

	// Advance past the seeded forecast so the date clock moves and the
	// adapter accumulates fallback state, then reset.
	_, used := build()
	if _, err := used.Step(context.Background()); err != nil {
		t.Fatalf("first Step failed: %v", err)
	}
	if _, err := used.Step(context.Background()); err != nil {
		t.Fatalf("second Step failed: %v", err)
	}
	used.Reset()

	got, err := used.Step(context.Background())
	if err != nil {
		t.Fatalf("post-reset Step failed: %v", err)
	}
	if got != want {
		t.Errorf("post-reset run diverged from a fresh run:\n got %+v\nwant %+v", got, want)
	}
}

func TestReset_RestoresInitialState(t *testing.T) {
	store := forecast.NewStore()
	seedForecast(store, "SKU-1", 7, 10, 5, 15)

	cfg := testConfig(t, normalOnly(500))
	eng := newTestEngine(t, cfg, store, domain.SKUParams{
		SKU:          "SKU-1",
		LeadTimeDays: 7,
		InitialStock: 50,
	})

	if _, err := eng.ApplyDemand(10); err != nil {
		t.Fatalf("ApplyDemand failed: %v", err)
	}
	if _, err := eng.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	eng.Reset()

	state := eng.State()
	if state.OnHand != 50 || state.OnOrder != 0 || len(state.ReorderHistory) != 0 {
		t.Errorf("reset left residual state: %+v", state)
	}
	if snap := eng.Snapshot(); snap.TotalDays != 0 || !snap.Cost.IsZero() {
		t.Errorf("reset left residual ledger: %+v", snap)
	}
}
