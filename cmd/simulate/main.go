// cmd/simulate/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (optional, enables decision persistence)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	url := c.String("db-url")
	if url == "" {
		return nil
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, sqlx.NewDb(db, "pgx"))
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sqlx.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) *sqlx.DB {
	if db, ok := c.Context.Value(dbKey).(*sqlx.DB); ok {
		return db
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "simulate",
		Usage: "Drive the replenishment decision engine through simulated days",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a synthetic simulation with the scenario calendar",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "sku",
						Usage: "SKU identifier",
						Value: "SKU-DEMO",
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Number of simulated days",
						Value: 90,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random seed for the demand generator",
						Value: 42,
					},
					&cli.Float64Flag{
						Name:  "base-demand",
						Usage: "Baseline daily demand in units",
						Value: 120,
					},
					&cli.IntFlag{
						Name:  "initial-stock",
						Usage: "Starting on-hand stock",
						Value: 2000,
					},
					&cli.IntFlag{
						Name:  "lead-time",
						Usage: "Replenishment lead time in days",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "unit-cost",
						Usage: "Unit cost for the performance ledger",
						Value: 30,
					},
					&cli.Float64Flag{
						Name:  "unit-price",
						Usage: "Unit price for the performance ledger",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Path for the decision log CSV export",
					},
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Upload the decision log to the configured object archive",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSimulation,
			},
			{
				Name:  "replay",
				Usage: "Replay a recorded market event stream against a flat demand baseline",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "events",
						Usage:    "CSV file with day,sku,event_kind,strength rows",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Number of simulated days",
						Value: 90,
					},
					&cli.Float64Flag{
						Name:  "base-demand",
						Usage: "Flat daily demand in units",
						Value: 120,
					},
					&cli.StringFlag{
						Name:  "sku",
						Usage: "SKU identifier",
						Value: "SKU-DEMO",
					},
					&cli.IntFlag{
						Name:  "initial-stock",
						Usage: "Starting on-hand stock",
						Value: 2000,
					},
					&cli.IntFlag{
						Name:  "lead-time",
						Usage: "Replenishment lead time in days",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "unit-cost",
						Usage: "Unit cost for the performance ledger",
						Value: 30,
					},
					&cli.Float64Flag{
						Name:  "unit-price",
						Usage: "Unit price for the performance ledger",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Path for the decision log CSV export",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runReplay,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("simulate failed")
	}
}
