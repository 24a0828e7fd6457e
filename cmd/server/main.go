// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/replenish/internal/api"
	"github.com/andresuchdata/replenish/internal/archive"
	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/engine"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/internal/scenario"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	policies, err := policy.New(policy.Defaults())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid policy table")
	}

	services := &api.Services{}

	// Optional persistence: forecasts come from the DB when enabled,
	// otherwise from an in-memory store fed over the API.
	var oracle forecast.Oracle
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := postgres.EnsureSchema(context.Background(), db.DB); err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to ensure schema")
		}

		forecastRepo := postgres.NewForecastRepository(db.DB)
		oracle = forecast.NewRepositoryOracle(forecastRepo)
		services.Forecasts = forecastRepo
		services.Decisions = postgres.NewDecisionRepository(db.DB)
	} else {
		store := forecast.NewStore()
		oracle = store
		services.Forecasts = store
	}

	ledgerCache, err := cache.NewLedgerCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	services.Ledger = ledgerCache

	if cfg.Archive.Enabled {
		archiver, err := archive.New(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to initialize decision archive")
		}
		services.Archiver = archiver
	}

	services.Manager = engine.NewManager(engine.Config{
		Policies:         policies,
		Durations:        scenarioDurations(cfg.Engine),
		ForecastTimeout:  time.Duration(cfg.Engine.ForecastTimeoutMS) * time.Millisecond,
		StalenessCeiling: cfg.Engine.StalenessCeiling,
	}, oracle)

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func scenarioDurations(cfg config.EngineConfig) scenario.Durations {
	return scenario.Durations{
		domain.ScenarioViralDemand:         cfg.ViralDemandDuration,
		domain.ScenarioSupplyDisruption:    cfg.SupplyDisruptionDuration,
		domain.ScenarioCompetitorPressure:  cfg.CompetitorPressureDuration,
		domain.ScenarioEconomicUncertainty: cfg.EconomicUncertaintyDuration,
	}
}
