package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

var decisionCSVHeader = []string{
	"sku", "step", "date", "quantity", "reason_code", "scenario",
	"reorder_point", "safety_stock",
}

// WriteDecisionsCSV writes the decision history as CSV, oldest first.
func WriteDecisionsCSV(w io.Writer, decisions []domain.OrderDecision) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(decisionCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, d := range decisions {
		record := []string{
			d.SKU,
			strconv.FormatInt(d.Step, 10),
			d.Timestamp.Format(time.DateOnly),
			strconv.Itoa(d.Quantity),
			string(d.Reason),
			string(d.Scenario),
			strconv.FormatFloat(d.ReorderPoint, 'f', 2, 64),
			strconv.FormatFloat(d.SafetyStock, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
