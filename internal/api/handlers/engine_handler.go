// internal/api/handlers/engine_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/replenish/internal/archive"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/engine"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type EngineHandler struct {
	manager   *engine.Manager
	decisions repository.DecisionRepository
	archiver  *archive.Client
}

// NewEngineHandler builds the decision-loop handler. decisions and archiver
// may be nil; persistence and export are then disabled.
func NewEngineHandler(manager *engine.Manager, decisions repository.DecisionRepository, archiver *archive.Client) *EngineHandler {
	return &EngineHandler{manager: manager, decisions: decisions, archiver: archiver}
}

type registerSKURequest struct {
	SKU          string  `json:"sku" binding:"required"`
	LeadTimeDays int     `json:"lead_time_days" binding:"required"`
	InitialStock int     `json:"initial_stock"`
	UnitCost     float64 `json:"unit_cost"`
	UnitPrice    float64 `json:"unit_price"`
}

func (h *EngineHandler) RegisterSKU(c *gin.Context) {
	var req registerSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	params := domain.SKUParams{
		SKU:          req.SKU,
		LeadTimeDays: req.LeadTimeDays,
		InitialStock: req.InitialStock,
		UnitCost:     decimal.NewFromFloat(req.UnitCost),
		UnitPrice:    decimal.NewFromFloat(req.UnitPrice),
	}

	if _, err := h.manager.Register(params); err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, http.StatusConflict, err.Error())
		return
	}

	c.JSON(http.StatusCreated, params)
}

func (h *EngineHandler) ListSKUs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"skus": h.manager.SKUs()})
}

type eventRequest struct {
	SKU       string     `json:"sku" binding:"required"`
	Kind      string     `json:"event_kind" binding:"required"`
	Strength  float64    `json:"strength"`
	Timestamp *time.Time `json:"timestamp"`
}

func (h *EngineHandler) PostEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	kind, ok := domain.ParseScenarioKind(req.Kind)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unrecognized event kind: "+req.Kind)
		return
	}

	event := domain.MarketEvent{
		SKU:      req.SKU,
		Kind:     kind,
		Strength: req.Strength,
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	} else {
		event.Timestamp = time.Now()
	}

	if err := h.manager.Observe(event); err != nil {
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, event)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *EngineHandler) ApplyDemand(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	fulfilled, err := eng.ApplyDemand(req.Quantity)
	if err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku":       eng.Params().SKU,
		"demand":    req.Quantity,
		"fulfilled": fulfilled,
		"stockout":  fulfilled < req.Quantity,
	})
}

func (h *EngineHandler) ApplyReceipt(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := eng.ApplyReceipt(req.Quantity); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, eng.State())
}

func (h *EngineHandler) StepAll(c *gin.Context) {
	results := h.manager.StepAll(c.Request.Context())

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		h.persist(c, res.Decision)
		h.persistSnapshot(c, res.SKU)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *EngineHandler) StepOne(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	decision, err := eng.Step(c.Request.Context())
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			errorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.persist(c, decision)
	h.persistSnapshot(c, eng.Params().SKU)
	c.JSON(http.StatusOK, decision)
}

func (h *EngineHandler) GetDecisions(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	// limit=0 requests the full history.
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			limit = parsed
		}
	}

	decisions := eng.Decisions(limit)
	if len(decisions) == 0 && h.decisions != nil {
		// Nothing in memory yet; serve history persisted by earlier runs.
		persisted, err := h.decisions.ListDecisions(c.Request.Context(), eng.Params().SKU, limit)
		if err != nil {
			log.Warn().Err(err).Str("sku", eng.Params().SKU).Msg("failed to list persisted decisions")
		} else {
			decisions = persisted
		}
	}

	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}

func (h *EngineHandler) GetState(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, eng.State())
}

func (h *EngineHandler) GetScenario(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	state := eng.Scenario()
	c.JSON(http.StatusOK, gin.H{
		"sku":      eng.Params().SKU,
		"scenario": state,
		"label":    domain.ScenarioLabel(state.Kind),
	})
}

func (h *EngineHandler) Reset(c *gin.Context) {
	h.manager.ResetAll()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *EngineHandler) ExportDecisions(c *gin.Context) {
	eng, ok := h.engineFor(c)
	if !ok {
		return
	}

	if h.archiver == nil {
		errorResponse(c, http.StatusServiceUnavailable, "decision archive not configured")
		return
	}

	key, err := h.archiver.UploadDecisionLog(c.Request.Context(), eng.Params().SKU, eng.Decisions(0))
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h *EngineHandler) engineFor(c *gin.Context) (*engine.SKUEngine, bool) {
	eng, err := h.manager.Engine(c.Param("sku"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return eng, true
}

func (h *EngineHandler) persist(c *gin.Context, decision domain.OrderDecision) {
	if h.decisions == nil {
		return
	}
	if err := h.decisions.SaveDecision(c.Request.Context(), decision); err != nil {
		log.Warn().Err(err).Str("sku", decision.SKU).Msg("failed to persist decision")
	}
}

func (h *EngineHandler) persistSnapshot(c *gin.Context, sku string) {
	if h.decisions == nil {
		return
	}
	eng, err := h.manager.Engine(sku)
	if err != nil {
		return
	}
	if err := h.decisions.SaveLedgerSnapshot(c.Request.Context(), eng.Snapshot()); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("failed to persist ledger snapshot")
	}
}
