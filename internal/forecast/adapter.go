package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 500 * time.Millisecond

// Adapter wraps an Oracle with the degradation contract the decision engine
// relies on: a bounded call timeout, fallback to the most recent good sample
// on failure, and uncertainty widening while the fallback stays stale. It
// never returns an error; a SKU with no history degrades to a zero-demand
// sample that forces a no-action decision.
type Adapter struct {
	oracle  Oracle
	timeout time.Duration
	ceiling float64

	mu        sync.Mutex
	lastGood  map[string]domain.ForecastSample
	staleRuns map[string]int
}

// NewAdapter builds an Adapter. ceiling caps the widened interval width as a
// multiple of the original width; values below 1 disable widening.
func NewAdapter(oracle Oracle, timeout time.Duration, ceiling float64) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ceiling < 1 {
		ceiling = 1
	}
	return &Adapter{
		oracle:    oracle,
		timeout:   timeout,
		ceiling:   ceiling,
		lastGood:  make(map[string]domain.ForecastSample),
		staleRuns: make(map[string]int),
	}
}

// Sample returns a usable forecast for the SKU and target date, degrading
// per the adapter contract instead of failing.
func (a *Adapter) Sample(ctx context.Context, sku string, target time.Time) domain.ForecastSample {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	sample, err := a.oracle.Forecast(callCtx, sku, target)
	if err == nil {
		if !sample.Valid() {
			log.Warn().
				Str("sku", sku).
				Float64("expected", sample.Expected).
				Float64("lower", sample.Lower).
				Float64("upper", sample.Upper).
				Msg("repairing forecast sample with inconsistent bounds")
			sample = sample.Repair()
		}
		sample.SKU = sku
		sample.TargetDate = target
		sample.Stale = false

		a.mu.Lock()
		a.lastGood[sku] = sample
		a.staleRuns[sku] = 0
		a.mu.Unlock()

		return sample
	}

	log.Debug().Err(err).Str("sku", sku).Time("target", target).
		Msg("forecast oracle unavailable, degrading")

	a.mu.Lock()
	defer a.mu.Unlock()

	a.staleRuns[sku]++
	run := a.staleRuns[sku]

	last, ok := a.lastGood[sku]
	if !ok {
		// Conservative default: zero demand, equal bounds. The engine will
		// emit NoActionBelowThreshold against it.
		return domain.ForecastSample{SKU: sku, TargetDate: target, Stale: true}
	}

	return widen(last, target, run, a.ceiling)
}

// Reset drops the SKU's fallback sample and staleness run, as if the
// adapter had never been asked about it.
func (a *Adapter) Reset(sku string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.lastGood, sku)
	delete(a.staleRuns, sku)
}

// widen doubles the interval width per consecutive stale step, capped at
// ceiling times the original width, keeping the interval centered on the
// expected value and bounded below by zero.
func widen(last domain.ForecastSample, target time.Time, staleRun int, ceiling float64) domain.ForecastSample {
	factor := 1.0
	for i := 0; i < staleRun && factor < ceiling; i++ {
		factor *= 2
	}
	if factor > ceiling {
		factor = ceiling
	}

	width := last.Width() * factor
	half := width / 2

	sample := domain.ForecastSample{
		SKU:        last.SKU,
		TargetDate: target,
		Expected:   last.Expected,
		Lower:      last.Expected - half,
		Upper:      last.Expected + half,
		Stale:      true,
	}
	if sample.Lower < 0 {
		sample.Lower = 0
	}
	return sample
}
