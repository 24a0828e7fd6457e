package events

import (
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

var simStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday

func TestGenerator_DeterministicWithSeed(t *testing.T) {
	a := NewGenerator("SKU-1", 120, simStart, 42, nil)
	b := NewGenerator("SKU-1", 120, simStart, 42, nil)

	for day := 0; day < 60; day++ {
		da, db := a.Next(), b.Next()
		if da.Demand != db.Demand {
			t.Fatalf("day %d: same seed diverged, %d vs %d", da.Day, da.Demand, db.Demand)
		}
	}
}

func TestGenerator_DemandNeverNegative(t *testing.T) {
	g := NewGenerator("SKU-1", 5, simStart, 7, nil)
	for day := 0; day < 120; day++ {
		if d := g.Next(); d.Demand < 0 {
			t.Fatalf("day %d produced negative demand %d", d.Day, d.Demand)
		}
	}
}

func TestGenerator_CalendarFiresEvents(t *testing.T) {
	calendar := map[int]CalendarEntry{
		3: {Kind: domain.ScenarioViralDemand, Strength: 0.9, Multiplier: 3.0, Duration: 5},
	}
	g := NewGenerator("SKU-1", 100, simStart, 1, calendar)

	g.Next()
	g.Next()
	d := g.Next()

	if d.Event == nil {
		t.Fatal("expected event on day 3")
	}
	if d.Event.Kind != domain.ScenarioViralDemand {
		t.Errorf("expected viral_demand, got %s", d.Event.Kind)
	}
	if !d.Event.Timestamp.Equal(d.Date) {
		t.Errorf("event timestamp %v does not match the day %v", d.Event.Timestamp, d.Date)
	}
}

func TestGenerator_MultiplierLiftsAndLapses(t *testing.T) {
	calendar := map[int]CalendarEntry{
		3: {Kind: domain.ScenarioViralDemand, Strength: 0.9, Multiplier: 3.0, Duration: 2},
	}
	g := NewGenerator("SKU-1", 100, simStart, 1, calendar)

	g.Next()
	baseline := g.Next()
	active := g.Next()

	// Tuesday and Wednesday share the weekly factor, so the 3x multiplier
	// dominates the comparison.
	if active.Forecast.Expected <= baseline.Forecast.Expected*2 {
		t.Errorf("expected a clear demand lift, got %v vs baseline %v",
			active.Forecast.Expected, baseline.Forecast.Expected)
	}

	g.Next()           // day 4, still active
	lapsed := g.Next() // day 5, past day 3+2
	if lapsed.Forecast.Expected >= baseline.Forecast.Expected*2 {
		t.Errorf("multiplier did not lapse, expected %v", lapsed.Forecast.Expected)
	}
}

func TestForecastHorizon_DoesNotAdvanceGenerator(t *testing.T) {
	g := NewGenerator("SKU-1", 100, simStart, 1, nil)
	g.Next()

	horizon := g.ForecastHorizon(7)
	if len(horizon) != 7 {
		t.Fatalf("expected 7 samples, got %d", len(horizon))
	}
	for i, sample := range horizon {
		wantDate := simStart.AddDate(0, 0, i+1)
		if !sample.TargetDate.Equal(wantDate) {
			t.Errorf("sample %d: expected date %v, got %v", i, wantDate, sample.TargetDate)
		}
		if !sample.Valid() {
			t.Errorf("sample %d invalid: %+v", i, sample)
		}
	}

	if d := g.Next(); d.Day != 2 {
		t.Errorf("horizon advanced the generator to day %d", d.Day)
	}
}

func TestGenerator_WeekendSeasonality(t *testing.T) {
	g := NewGenerator("SKU-1", 100, simStart, 1, map[int]CalendarEntry{})

	var weekday, saturday DayData
	for day := 0; day < 6; day++ {
		d := g.Next()
		switch d.Date.Weekday() {
		case time.Tuesday:
			weekday = d
		case time.Saturday:
			saturday = d
		}
	}

	if saturday.Forecast.Expected <= weekday.Forecast.Expected {
		t.Errorf("expected weekend lift: saturday %v vs tuesday %v",
			saturday.Forecast.Expected, weekday.Forecast.Expected)
	}
}
