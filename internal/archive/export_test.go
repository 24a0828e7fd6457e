package archive

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDecisionsCSV(t *testing.T) {
	decisions := []domain.OrderDecision{
		{
			SKU:          "SKU-1",
			Step:         1,
			Quantity:     95,
			Reason:       domain.ReasonRoutineReorder,
			Scenario:     domain.ScenarioNormal,
			ReorderPoint: 75,
			SafetyStock:  5,
			Timestamp:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			SKU:          "SKU-1",
			Step:         2,
			Quantity:     0,
			Reason:       domain.ReasonNoActionBelowThreshold,
			Scenario:     domain.ScenarioViralDemand,
			ReorderPoint: 82.5,
			SafetyStock:  12.5,
			Timestamp:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDecisionsCSV(&buf, decisions))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"sku", "step", "date", "quantity", "reason_code", "scenario",
		"reorder_point", "safety_stock",
	}, records[0])
	assert.Equal(t, []string{
		"SKU-1", "1", "2026-01-01", "95", "routine_reorder", "normal", "75.00", "5.00",
	}, records[1])
	assert.Equal(t, []string{
		"SKU-1", "2", "2026-01-02", "0", "no_action_below_threshold", "viral_demand", "82.50", "12.50",
	}, records[2])
}

func TestWriteDecisionsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDecisionsCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
