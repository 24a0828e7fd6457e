// cmd/simulate/replay.go
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// runReplay feeds a recorded event stream into the engine against a flat
// demand baseline, so the effect of the events alone can be inspected.
func runReplay(c *cli.Context) error {
	sku := c.String("sku")
	days := c.Int("days")
	leadTime := c.Int("lead-time")
	base := c.Float64("base-demand")

	eventsByDay, err := loadEventCSV(c.String("events"), sku)
	if err != nil {
		return err
	}

	store := forecast.NewStore()
	_, eng, err := buildManager(c, store)
	if err != nil {
		return err
	}

	repo := decisionRepo(c)
	start := time.Now().Truncate(24 * time.Hour)
	receipts := make(map[int]int)
	demand := int(math.Round(base))

	for day := 1; day <= days; day++ {
		date := start.AddDate(0, 0, day-1)

		// Flat forecast with a fixed 20% uncertainty band.
		for i := 0; i <= leadTime; i++ {
			store.Put(domain.ForecastSample{
				SKU:        sku,
				TargetDate: date.AddDate(0, 0, i),
				Expected:   base,
				Lower:      base * 0.8,
				Upper:      base * 1.2,
			})
		}

		for _, event := range eventsByDay[day] {
			event.Timestamp = date
			eng.Observe(event)
		}

		if qty := receipts[day]; qty > 0 {
			if err := eng.ApplyReceipt(qty); err != nil {
				return err
			}
			delete(receipts, day)
		}

		if _, err := eng.ApplyDemand(demand); err != nil {
			return err
		}

		decision, err := eng.Step(c.Context)
		if err != nil {
			return fmt.Errorf("step %d: %w", day, err)
		}
		if decision.Quantity > 0 {
			receipts[day+leadTime] += decision.Quantity
		}

		if repo != nil {
			if err := repo.SaveDecision(c.Context, decision); err != nil {
				log.Warn().Err(err).Int64("step", decision.Step).Msg("failed to persist decision")
			}
		}
	}

	return finishRun(c, eng, repo)
}

// loadEventCSV parses day,sku,event_kind,strength rows, keeping only rows
// for the replayed SKU.
func loadEventCSV(path, sku string) (map[int][]domain.MarketEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	byDay := make(map[int][]domain.MarketEvent)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events file: %w", err)
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "day") {
			continue
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("events file line %d: expected 4 columns", line)
		}

		day, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || day <= 0 {
			return nil, fmt.Errorf("events file line %d: bad day %q", line, record[0])
		}
		if strings.TrimSpace(record[1]) != sku {
			continue
		}
		kind, ok := domain.ParseScenarioKind(record[2])
		if !ok {
			return nil, fmt.Errorf("events file line %d: unknown event kind %q", line, record[2])
		}
		strength, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("events file line %d: bad strength %q", line, record[3])
		}

		byDay[day] = append(byDay[day], domain.MarketEvent{
			SKU:      sku,
			Kind:     kind,
			Strength: strength,
		})
	}

	return byDay, nil
}
