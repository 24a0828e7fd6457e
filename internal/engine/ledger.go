// internal/engine/ledger.go
package engine

import (
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger accumulates per-SKU performance counters. Writes happen under the
// owning engine's step; Snapshot may be called concurrently by reporting
// collaborators and always observes a consistent copy. Counters only grow.
type Ledger struct {
	mu sync.RWMutex

	sku          string
	step         int64
	stockoutDays int64
	totalDays    int64
	orders       int64
	unitsOrdered int64
	cost         decimal.Decimal
	revenue      decimal.Decimal
	scenarios    map[domain.ScenarioKind]*domain.ScenarioStats
}

func newLedger(sku string) *Ledger {
	return &Ledger{
		sku:       sku,
		cost:      decimal.Zero,
		revenue:   decimal.Zero,
		scenarios: make(map[domain.ScenarioKind]*domain.ScenarioStats),
	}
}

func (l *Ledger) stats(kind domain.ScenarioKind) *domain.ScenarioStats {
	s, ok := l.scenarios[kind]
	if !ok {
		s = &domain.ScenarioStats{}
		l.scenarios[kind] = s
	}
	return s
}

// recordDay accounts one demand application: a day of history, revenue for
// the fulfilled units and a stockout day if demand exceeded stock.
func (l *Ledger) recordDay(kind domain.ScenarioKind, demand, fulfilled int, stockout bool, revenue decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalDays++
	if stockout {
		l.stockoutDays++
	}
	l.revenue = l.revenue.Add(revenue)

	s := l.stats(kind)
	s.DemandTotal += float64(demand)
	s.Fulfilled += float64(fulfilled)
	if stockout {
		s.Stockouts++
	}
}

// recordStep notes that a decision step ran under the given scenario.
func (l *Ledger) recordStep(step int64, kind domain.ScenarioKind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.step = step
	l.stats(kind).Encounters++
}

// recordOrder accounts a placed order and its cost.
func (l *Ledger) recordOrder(kind domain.ScenarioKind, quantity int, cost decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.orders++
	l.unitsOrdered += int64(quantity)
	l.cost = l.cost.Add(cost)
	l.stats(kind).OrdersPlaced++
}

func (l *Ledger) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.step = 0
	l.stockoutDays = 0
	l.totalDays = 0
	l.orders = 0
	l.unitsOrdered = 0
	l.cost = decimal.Zero
	l.revenue = decimal.Zero
	l.scenarios = make(map[domain.ScenarioKind]*domain.ScenarioStats)
}

// Snapshot returns a consistent copy with derived metrics filled in.
func (l *Ledger) Snapshot() domain.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := domain.LedgerSnapshot{
		SKU:          l.sku,
		Step:         l.step,
		StockoutDays: l.stockoutDays,
		TotalDays:    l.totalDays,
		OrdersPlaced: l.orders,
		UnitsOrdered: l.unitsOrdered,
		Cost:         l.cost,
		Revenue:      l.revenue,
		Profit:       l.revenue.Sub(l.cost),
		ServiceLevel: 100,
		TakenAt:      time.Now(),
	}

	if l.totalDays > 0 {
		snap.ServiceLevel = float64(l.totalDays-l.stockoutDays) / float64(l.totalDays) * 100
		snap.StockoutRate = float64(l.stockoutDays) / float64(l.totalDays) * 100
	}
	if l.revenue.IsPositive() {
		margin, _ := snap.Profit.Div(l.revenue).Mul(decimal.NewFromInt(100)).Float64()
		snap.ProfitMargin = margin
	}

	if len(l.scenarios) > 0 {
		snap.ScenarioStats = make(map[domain.ScenarioKind]domain.ScenarioStats, len(l.scenarios))
		for kind, s := range l.scenarios {
			snap.ScenarioStats[kind] = *s
		}
	}

	return snap
}
