// internal/api/handlers/forecast_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/gin-gonic/gin"
)

// SampleSink receives forecast samples pushed over the API.
type SampleSink interface {
	UpsertSamples(ctx context.Context, samples []domain.ForecastSample) error
}

type ForecastHandler struct {
	sink SampleSink
}

func NewForecastHandler(sink SampleSink) *ForecastHandler {
	return &ForecastHandler{sink: sink}
}

// PostSamples accepts a batch of forecast samples from an external oracle.
// Samples with inconsistent bounds are repaired, not rejected.
func (h *ForecastHandler) PostSamples(c *gin.Context) {
	var samples []domain.ForecastSample
	if err := c.ShouldBindJSON(&samples); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(samples) == 0 {
		errorResponse(c, http.StatusBadRequest, "no samples provided")
		return
	}

	repaired := 0
	for i, sample := range samples {
		if sample.SKU == "" || sample.TargetDate.IsZero() {
			errorResponse(c, http.StatusBadRequest, "samples require sku and target_date")
			return
		}
		if !sample.Valid() {
			samples[i] = sample.Repair()
			repaired++
		}
	}

	if err := h.sink.UpsertSamples(c.Request.Context(), samples); err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(samples), "repaired": repaired})
}
