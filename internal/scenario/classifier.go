// internal/scenario/classifier.go
package scenario

import (
	"math"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/rs/zerolog/log"
)

// Durations maps non-normal scenario kinds to how many steps an activation
// lasts before lapsing back to Normal.
type Durations map[domain.ScenarioKind]int

// Machine is the scenario state machine for a single SKU. Normal is the
// initial state; there is no terminal state, the machine cycles forever.
// Exactly one scenario is active at a time: a same-kind event maxes the
// intensity and extends the expiry, a different-kind event supersedes.
type Machine struct {
	mu        sync.Mutex
	sku       string
	durations Durations
	state     domain.ScenarioState
	lastEvent time.Time
}

// NewMachine returns a Machine in the Normal state.
func NewMachine(sku string, durations Durations) *Machine {
	return &Machine{
		sku:       sku,
		durations: durations,
		state:     domain.ScenarioState{Kind: domain.ScenarioNormal},
	}
}

// Observe applies one market event at the given step. Events older than the
// last observed one for this SKU are dropped to preserve stream order.
func (m *Machine) Observe(event domain.MarketEvent, step int64) {
	if event.Kind == domain.ScenarioNormal {
		return
	}
	duration, ok := m.durations[event.Kind]
	if !ok || duration <= 0 {
		log.Warn().
			Str("sku", m.sku).
			Str("kind", string(event.Kind)).
			Msg("no duration configured for scenario kind, event ignored")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !event.Timestamp.IsZero() && event.Timestamp.Before(m.lastEvent) {
		log.Warn().
			Str("sku", m.sku).
			Time("event_at", event.Timestamp).
			Time("last_at", m.lastEvent).
			Msg("out-of-order market event dropped")
		return
	}
	if !event.Timestamp.IsZero() {
		m.lastEvent = event.Timestamp
	}

	intensity := math.Min(1.0, math.Max(0, event.Strength))
	expires := step + int64(duration)

	m.expireLocked(step)

	if m.state.Kind == event.Kind {
		// Refresh: intensity maxes, expiry extends, never shortens.
		if intensity > m.state.Intensity {
			m.state.Intensity = intensity
		}
		if m.state.ExpiresAt == nil || expires > *m.state.ExpiresAt {
			m.state.ExpiresAt = &expires
		}
		return
	}

	// Different kind supersedes the active scenario outright.
	m.state = domain.ScenarioState{
		Kind:      event.Kind,
		Intensity: intensity,
		ExpiresAt: &expires,
	}
}

// Current returns the active scenario at the given step, applying expiry.
func (m *Machine) Current(step int64) domain.ScenarioState {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(step)
	state := m.state
	if state.ExpiresAt != nil {
		expires := *state.ExpiresAt
		state.ExpiresAt = &expires
	}
	return state
}

// Reset returns the machine to Normal.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = domain.ScenarioState{Kind: domain.ScenarioNormal}
	m.lastEvent = time.Time{}
}

func (m *Machine) expireLocked(step int64) {
	if m.state.ExpiresAt != nil && step >= *m.state.ExpiresAt {
		m.state = domain.ScenarioState{Kind: domain.ScenarioNormal}
	}
}
