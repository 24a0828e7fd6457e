// internal/policy/table.go
package policy

import (
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
)

// Table is the immutable scenario-to-parameters mapping. It is built once
// at startup; a lookup for a kind without an entry fails fast rather than
// defaulting, since a silent default would mask a policy gap.
type Table struct {
	entries map[domain.ScenarioKind]domain.PolicyParameters
}

// New builds a Table from the given entries. The Normal entry is required
// because it is the baseline every escalation comparison runs against.
func New(entries map[domain.ScenarioKind]domain.PolicyParameters) (*Table, error) {
	if len(entries) == 0 {
		return nil, &domain.ConfigurationError{Entry: "policy_table", Detail: "no entries"}
	}
	if _, ok := entries[domain.ScenarioNormal]; !ok {
		return nil, &domain.ConfigurationError{Entry: "policy_table", Detail: "missing normal entry"}
	}

	copied := make(map[domain.ScenarioKind]domain.PolicyParameters, len(entries))
	for kind, params := range entries {
		if err := validate(kind, params); err != nil {
			return nil, err
		}
		copied[kind] = params
	}

	return &Table{entries: copied}, nil
}

// Lookup returns the parameters for a scenario kind.
func (t *Table) Lookup(kind domain.ScenarioKind) (domain.PolicyParameters, error) {
	params, ok := t.entries[kind]
	if !ok {
		return domain.PolicyParameters{}, &domain.ConfigurationError{
			Entry:  "policy_table",
			Detail: fmt.Sprintf("no policy for scenario kind %q", kind),
		}
	}
	return params, nil
}

func validate(kind domain.ScenarioKind, params domain.PolicyParameters) error {
	switch {
	case params.SafetyStockMultiplier < 0:
		return &domain.ConfigurationError{
			Entry:  string(kind),
			Detail: "safety stock multiplier must be non-negative",
		}
	case params.ReorderPointMultiplier <= 0:
		return &domain.ConfigurationError{
			Entry:  string(kind),
			Detail: "reorder point multiplier must be positive",
		}
	case params.MaxOrderQuantity <= 0:
		return &domain.ConfigurationError{
			Entry:  string(kind),
			Detail: "max order quantity must be positive",
		}
	}
	return nil
}
