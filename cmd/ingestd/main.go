// cmd/ingestd/main.go
package main

import (
	"fmt"
	"net/http"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/forecastingest"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	if cfg.Ingest.CredentialsJSON == "" {
		logger.Log.Fatal().Msg("INGEST_CREDENTIALS_JSON must be set")
	}

	driveService, err := forecastingest.NewDriveService(cfg.Ingest.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	forecastRepo := postgres.NewForecastRepository(db.DB)
	ingestor := forecastingest.NewIngestor(driveService, forecastRepo)

	r := mux.NewRouter()

	handler := forecastingest.NewHandler(driveService, ingestor, cfg.Ingest.FolderPath)
	handler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Ingest.Port)
	logger.Log.Info().Str("addr", addr).Msg("Ingest daemon starting")
	logger.Log.Fatal().Err(http.ListenAndServe(addr, r)).Msg("Ingest daemon stopped")
}
