// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/api/handlers"
	"github.com/andresuchdata/replenish/internal/api/middleware"
	"github.com/andresuchdata/replenish/internal/archive"
	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/engine"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Manager   *engine.Manager
	Decisions repository.DecisionRepository
	Ledger    cache.LedgerCache
	Archiver  *archive.Client
	Forecasts handlers.SampleSink
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	engineHandler := handlers.NewEngineHandler(services.Manager, services.Decisions, services.Archiver)
	ledgerHandler := handlers.NewLedgerHandler(services.Manager, services.Ledger, services.Decisions)

	apiGroup.POST("/skus", engineHandler.RegisterSKU)
	apiGroup.GET("/skus", engineHandler.ListSKUs)
	apiGroup.POST("/events", engineHandler.PostEvent)
	apiGroup.POST("/step", engineHandler.StepAll)
	apiGroup.POST("/reset", engineHandler.Reset)
	apiGroup.GET("/ledger", ledgerHandler.GetAll)

	if services.Forecasts != nil {
		forecastHandler := handlers.NewForecastHandler(services.Forecasts)
		apiGroup.POST("/forecasts", forecastHandler.PostSamples)
	}

	skuGroup := apiGroup.Group("/skus/:sku")
	{
		skuGroup.POST("/demand", engineHandler.ApplyDemand)
		skuGroup.POST("/receipt", engineHandler.ApplyReceipt)
		skuGroup.POST("/step", engineHandler.StepOne)
		skuGroup.POST("/export", engineHandler.ExportDecisions)
		skuGroup.GET("/decisions", engineHandler.GetDecisions)
		skuGroup.GET("/state", engineHandler.GetState)
		skuGroup.GET("/scenario", engineHandler.GetScenario)
		skuGroup.GET("/ledger", ledgerHandler.GetSKU)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
