// internal/api/handlers/ledger_handler.go
package handlers

import (
	"net/http"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/engine"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type LedgerHandler struct {
	manager   *engine.Manager
	cache     cache.LedgerCache
	decisions repository.DecisionRepository
}

// NewLedgerHandler builds the ledger read handler. decisions may be nil;
// snapshots from earlier runs are then unavailable.
func NewLedgerHandler(manager *engine.Manager, cacheImpl cache.LedgerCache, decisions repository.DecisionRepository) *LedgerHandler {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopLedgerCache()
	}
	return &LedgerHandler{manager: manager, cache: cacheImpl, decisions: decisions}
}

func (h *LedgerHandler) GetAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ledgers": h.manager.Snapshots()})
}

func (h *LedgerHandler) GetSKU(c *gin.Context) {
	sku := c.Param("sku")

	if snapshot, ok, err := h.cache.GetSnapshot(c.Request.Context(), sku); err == nil && ok {
		c.JSON(http.StatusOK, snapshot)
		return
	} else if err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("ledger cache get failed")
	}

	eng, err := h.manager.Engine(sku)
	if err != nil {
		// The SKU may have run in an earlier process; serve the last
		// persisted snapshot when one exists.
		if h.decisions != nil {
			if snapshot, repoErr := h.decisions.LatestLedgerSnapshot(c.Request.Context(), sku); repoErr == nil {
				c.JSON(http.StatusOK, snapshot)
				return
			}
		}
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	snapshot := eng.Snapshot()
	if err := h.cache.SetSnapshot(c.Request.Context(), snapshot); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("ledger cache set failed")
	}

	c.JSON(http.StatusOK, snapshot)
}
