// internal/events/generator.go
package events

import (
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// CalendarEntry schedules a market scenario starting on a simulation day.
type CalendarEntry struct {
	Kind       domain.ScenarioKind
	Strength   float64
	Multiplier float64
	Duration   int
}

// DayData is one simulated day: realized demand, the oracle's forecast for
// the day and the market event that fired, if any.
type DayData struct {
	Day      int
	Date     time.Time
	Demand   int
	Forecast domain.ForecastSample
	Event    *domain.MarketEvent
}

// Generator produces a deterministic synthetic demand stream with weekly
// seasonality, a slow growth trend and calendar-driven scenario shocks.
type Generator struct {
	rng      *rand.Rand
	sku      string
	base     float64
	start    time.Time
	day      int
	calendar map[int]CalendarEntry

	activeMult  float64
	activeUntil int
}

// DefaultCalendar mirrors a demo quarter: an early competitor squeeze, a
// viral spike, a supply disruption on its tail and a late soft market.
func DefaultCalendar() map[int]CalendarEntry {
	return map[int]CalendarEntry{
		5:  {Kind: domain.ScenarioCompetitorPressure, Strength: 0.6, Multiplier: 1.3, Duration: 10},
		12: {Kind: domain.ScenarioViralDemand, Strength: 0.9, Multiplier: 3.0, Duration: 14},
		20: {Kind: domain.ScenarioSupplyDisruption, Strength: 0.8, Multiplier: 0.7, Duration: 21},
		30: {Kind: domain.ScenarioEconomicUncertainty, Strength: 0.5, Multiplier: 0.8, Duration: 30},
		45: {Kind: domain.ScenarioViralDemand, Strength: 1.0, Multiplier: 2.5, Duration: 14},
	}
}

func NewGenerator(sku string, baseDemand float64, start time.Time, seed int64, calendar map[int]CalendarEntry) *Generator {
	if calendar == nil {
		calendar = DefaultCalendar()
	}
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)),
		sku:        sku,
		base:       baseDemand,
		start:      start,
		calendar:   calendar,
		activeMult: 1.0,
	}
}

// Next advances one simulated day.
func (g *Generator) Next() DayData {
	g.day++
	date := g.start.AddDate(0, 0, g.day-1)

	var event *domain.MarketEvent
	if entry, ok := g.calendar[g.day]; ok {
		g.activeMult = entry.Multiplier
		g.activeUntil = g.day + entry.Duration
		event = &domain.MarketEvent{
			SKU:       g.sku,
			Kind:      entry.Kind,
			Strength:  entry.Strength,
			Timestamp: date,
		}
	} else if g.day >= g.activeUntil {
		g.activeMult = 1.0
	}

	trend := 1.0 + 0.001*float64(g.day)
	weekly := 1.0
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		weekly = 1.35
	case time.Friday:
		weekly = 1.15
	}

	expected := g.base * trend * weekly * g.activeMult
	noise := g.rng.NormFloat64() * expected * 0.1
	demand := int(math.Round(math.Max(0, expected+noise)))

	forecast := domain.ForecastSample{
		SKU:        g.sku,
		TargetDate: date,
		Expected:   expected,
		Lower:      math.Max(0, expected*0.8),
		Upper:      expected * 1.2,
	}

	return DayData{
		Day:      g.day,
		Date:     date,
		Demand:   demand,
		Forecast: forecast,
		Event:    event,
	}
}

// ForecastHorizon pre-computes forecast samples for the next n days without
// advancing the generator, so an oracle table can be seeded ahead of the
// simulation loop.
func (g *Generator) ForecastHorizon(n int) []domain.ForecastSample {
	samples := make([]domain.ForecastSample, 0, n)
	mult := g.activeMult
	until := g.activeUntil

	for i := 1; i <= n; i++ {
		day := g.day + i
		date := g.start.AddDate(0, 0, day-1)

		if entry, ok := g.calendar[day]; ok {
			mult = entry.Multiplier
			until = day + entry.Duration
		} else if day >= until {
			mult = 1.0
		}

		trend := 1.0 + 0.001*float64(day)
		weekly := 1.0
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			weekly = 1.35
		case time.Friday:
			weekly = 1.15
		}

		expected := g.base * trend * weekly * mult
		samples = append(samples, domain.ForecastSample{
			SKU:        g.sku,
			TargetDate: date,
			Expected:   expected,
			Lower:      math.Max(0, expected*0.8),
			Upper:      expected * 1.2,
		})
	}
	return samples
}
