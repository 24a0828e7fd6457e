package domain

import (
	"errors"
	"fmt"
)

// ErrForecastUnavailable is returned by oracles that cannot produce a value
// for the requested date. Callers degrade to a stale or conservative sample
// instead of propagating it.
var ErrForecastUnavailable = errors.New("forecast unavailable")

// ErrUnknownSKU is returned when an operation references an unregistered SKU.
var ErrUnknownSKU = errors.New("unknown sku")

// ConfigurationError indicates a missing or invalid configuration entry,
// such as a scenario kind without a policy row. It is fatal for the affected
// step and never silently defaulted.
type ConfigurationError struct {
	Entry  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Entry, e.Detail)
}

// InvalidStateError indicates a rejected state mutation that would have
// violated an inventory invariant. The prior state is kept.
type InvalidStateError struct {
	SKU    string
	Step   int64
	Field  string
	Value  int
	Detail string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state for sku %s at step %d: %s=%d: %s",
		e.SKU, e.Step, e.Field, e.Value, e.Detail)
}
