// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKUParams holds the per-SKU configuration loaded once at startup.
type SKUParams struct {
	SKU          string          `json:"sku"`
	LeadTimeDays int             `json:"lead_time_days"`
	InitialStock int             `json:"initial_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// InventoryState is the live inventory position for one SKU.
type InventoryState struct {
	SKU            string          `json:"sku"`
	OnHand         int             `json:"on_hand"`
	OnOrder        int             `json:"on_order"`
	LeadTimeDays   int             `json:"lead_time_days"`
	ReorderHistory []OrderDecision `json:"reorder_history"`
}

// ForecastSample is one oracle output for a SKU and target date.
// Bounds always satisfy Lower <= Expected <= Upper after repair.
type ForecastSample struct {
	SKU        string    `json:"sku"`
	TargetDate time.Time `json:"target_date"`
	Expected   float64   `json:"expected_demand"`
	Lower      float64   `json:"lower_bound"`
	Upper      float64   `json:"upper_bound"`
	Stale      bool      `json:"stale"`
}

// Valid reports whether the sample's bounds bracket the expected value.
func (f ForecastSample) Valid() bool {
	return f.Expected >= 0 && f.Lower <= f.Expected && f.Expected <= f.Upper
}

// Repair clamps negatives and re-orders bounds so the sample is usable.
func (f ForecastSample) Repair() ForecastSample {
	if f.Expected < 0 {
		f.Expected = 0
	}
	if f.Lower < 0 {
		f.Lower = 0
	}
	if f.Upper < 0 {
		f.Upper = 0
	}
	if f.Lower > f.Expected {
		f.Lower = f.Expected
	}
	if f.Upper < f.Expected {
		f.Upper = f.Expected
	}
	return f
}

// Width returns the uncertainty interval width of the sample.
func (f ForecastSample) Width() float64 {
	return f.Upper - f.Lower
}

// ScenarioState is the single active market scenario for a SKU.
// ExpiresAt is the step at which the scenario lapses back to Normal;
// nil for Normal, which never expires.
type ScenarioState struct {
	Kind      ScenarioKind `json:"kind"`
	Intensity float64      `json:"intensity"`
	ExpiresAt *int64       `json:"expires_at,omitempty"`
}

// Normal reports whether this is the baseline scenario.
func (s ScenarioState) Normal() bool {
	return s.Kind == ScenarioNormal
}

// PolicyParameters are the ordering knobs selected by the active scenario.
type PolicyParameters struct {
	SafetyStockMultiplier  float64 `json:"safety_stock_multiplier"`
	ReorderPointMultiplier float64 `json:"reorder_point_multiplier"`
	MaxOrderQuantity       int     `json:"max_order_quantity"`
	CostConservatism       bool    `json:"cost_conservatism"`
}

// MarketEvent is one record of the event ingestion stream.
type MarketEvent struct {
	SKU       string       `json:"sku"`
	Kind      ScenarioKind `json:"event_kind"`
	Strength  float64      `json:"strength"`
	Timestamp time.Time    `json:"timestamp"`
}

// OrderDecision is the immutable output of one decision step.
type OrderDecision struct {
	SKU          string       `json:"sku"`
	Step         int64        `json:"step"`
	Quantity     int          `json:"quantity"`
	Reason       ReasonCode   `json:"reason_code"`
	Scenario     ScenarioKind `json:"scenario"`
	ReorderPoint float64      `json:"reorder_point"`
	SafetyStock  float64      `json:"safety_stock"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ScenarioStats is the per-scenario slice of the performance ledger.
type ScenarioStats struct {
	Encounters   int64   `json:"encounters"`
	Stockouts    int64   `json:"stockouts"`
	OrdersPlaced int64   `json:"orders_placed"`
	DemandTotal  float64 `json:"demand_total"`
	Fulfilled    float64 `json:"fulfilled_total"`
}

// FulfillmentRate returns the fulfilled share of demand as a percentage.
func (s ScenarioStats) FulfillmentRate() float64 {
	if s.DemandTotal <= 0 {
		return 100
	}
	return s.Fulfilled / s.DemandTotal * 100
}

// LedgerSnapshot is a consistent point-in-time read of the performance ledger.
type LedgerSnapshot struct {
	SKU           string                         `json:"sku"`
	Step          int64                          `json:"step"`
	StockoutDays  int64                          `json:"stockout_days"`
	TotalDays     int64                          `json:"total_days"`
	OrdersPlaced  int64                          `json:"orders_placed"`
	UnitsOrdered  int64                          `json:"units_ordered"`
	Cost          decimal.Decimal                `json:"cumulative_cost"`
	Revenue       decimal.Decimal                `json:"cumulative_revenue"`
	Profit        decimal.Decimal                `json:"profit"`
	ServiceLevel  float64                        `json:"service_level_percent"`
	StockoutRate  float64                        `json:"stockout_rate_percent"`
	ProfitMargin  float64                        `json:"profit_margin_percent"`
	ScenarioStats map[ScenarioKind]ScenarioStats `json:"scenario_stats,omitempty"`
	TakenAt       time.Time                      `json:"taken_at"`
}
