// cmd/simulate/run.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/replenish/internal/archive"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/engine"
	"github.com/andresuchdata/replenish/internal/events"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/internal/scenario"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func buildManager(c *cli.Context, store *forecast.Store) (*engine.Manager, *engine.SKUEngine, error) {
	policies, err := policy.New(policy.Defaults())
	if err != nil {
		return nil, nil, err
	}

	cfg := config.Load()
	mgr := engine.NewManager(engine.Config{
		Policies: policies,
		Durations: scenario.Durations{
			domain.ScenarioViralDemand:         cfg.Engine.ViralDemandDuration,
			domain.ScenarioSupplyDisruption:    cfg.Engine.SupplyDisruptionDuration,
			domain.ScenarioCompetitorPressure:  cfg.Engine.CompetitorPressureDuration,
			domain.ScenarioEconomicUncertainty: cfg.Engine.EconomicUncertaintyDuration,
		},
		ForecastTimeout:  time.Duration(cfg.Engine.ForecastTimeoutMS) * time.Millisecond,
		StalenessCeiling: cfg.Engine.StalenessCeiling,
		StartDate:        time.Now().Truncate(24 * time.Hour),
	}, store)

	eng, err := mgr.Register(domain.SKUParams{
		SKU:          c.String("sku"),
		LeadTimeDays: c.Int("lead-time"),
		InitialStock: c.Int("initial-stock"),
		UnitCost:     decimal.NewFromFloat(c.Float64("unit-cost")),
		UnitPrice:    decimal.NewFromFloat(c.Float64("unit-price")),
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, eng, nil
}

func runSimulation(c *cli.Context) error {
	sku := c.String("sku")
	days := c.Int("days")
	leadTime := c.Int("lead-time")

	store := forecast.NewStore()
	_, eng, err := buildManager(c, store)
	if err != nil {
		return err
	}

	repo := decisionRepo(c)

	start := time.Now().Truncate(24 * time.Hour)
	gen := events.NewGenerator(sku, c.Float64("base-demand"), start, c.Int64("seed"), nil)

	receipts := make(map[int]int)

	for day := 1; day <= days; day++ {
		data := gen.Next()
		store.Put(data.Forecast)
		store.PutAll(gen.ForecastHorizon(leadTime))

		if data.Event != nil {
			eng.Observe(*data.Event)
		}

		if qty := receipts[day]; qty > 0 {
			if err := eng.ApplyReceipt(qty); err != nil {
				return err
			}
			delete(receipts, day)
		}

		if _, err := eng.ApplyDemand(data.Demand); err != nil {
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

func decisionRepo(c *cli.Context) *postgres.DecisionRepository {
	db := dbFromContext(c)
	if db == nil {
		return nil
	}
	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		log.Warn().Err(err).Msg("failed to ensure schema, persistence disabled")
		return nil
	}
	return postgres.NewDecisionRepository(db)
}

func finishRun(c *cli.Context, eng *engine.SKUEngine, repo *postgres.DecisionRepository) error {
	snapshot := eng.Snapshot()

	if repo != nil {
		if err := repo.SaveLedgerSnapshot(c.Context, snapshot); err != nil {
			log.Warn().Err(err).Msg("failed to persist ledger snapshot")
		}
	}

	log.Info().
		Str("sku", snapshot.SKU).
		Int64("days", snapshot.TotalDays).
		Int64("stockout_days", snapshot.StockoutDays).
		Float64("service_level", snapshot.ServiceLevel).
		Str("cost", snapshot.Cost.StringFixed(2)).
		Str("revenue", snapshot.Revenue.StringFixed(2)).
		Str("profit", snapshot.Profit.StringFixed(2)).
		Int64("orders", snapshot.OrdersPlaced).
		Bool("persisted", repo != nil).
		Msg("simulation complete")

	for kind, stats := range snapshot.ScenarioStats {
		log.Info().
			Str("scenario", domain.ScenarioLabel(kind)).
			Int64("encounters", stats.Encounters).
			Int64("orders", stats.OrdersPlaced).
			Int64("stockouts", stats.Stockouts).
			Float64("fulfillment", stats.FulfillmentRate()).
			Msg("scenario breakdown")
	}

	decisions := eng.Decisions(0)

	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		if err := archive.WriteDecisionsCSV(f, decisions); err != nil {
			return err
		}
		log.Info().Str("path", out).Int("decisions", len(decisions)).Msg("decision log exported")
	}

	if c.Bool("archive") {
		cfg := config.Load()
		client, err := archive.New(cfg.Archive)
		if err != nil {
			return fmt.Errorf("archive client: %w", err)
		}
		key, err := client.UploadDecisionLog(c.Context, snapshot.SKU, decisions)
		if err != nil {
			return err
		}
		log.Info().Str("key", key).Msg("decision log archived")
	}

	return nil
}
