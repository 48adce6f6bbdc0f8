// internal/api/handlers/status_handler.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/dropgate/internal/dispatch"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

const (
	defaultOutcomeLimit = 50
	maxOutcomeLimit     = 500
)

type StatsSource interface {
	Snapshot() dispatch.Snapshot
}

type OutcomeSource interface {
	Recent(ctx context.Context, limit int) ([]domain.OutcomeRecord, error)
}

type StatusHandler struct {
	stats    StatsSource
	outcomes OutcomeSource
}

func NewStatusHandler(stats StatsSource, outcomes OutcomeSource) *StatusHandler {
	return &StatusHandler{stats: stats, outcomes: outcomes}
}

// GetStats returns the dispatcher counters.
func (h *StatusHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.stats.Snapshot()})
}

// GetOutcomes returns the most recent journaled outcomes, optionally
// filtered by ?outcome=.
func (h *StatusHandler) GetOutcomes(c *gin.Context) {
	limit := defaultOutcomeLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxOutcomeLimit)
	}

	var filter domain.Outcome
	if raw := c.Query("outcome"); raw != "" {
		o, ok := domain.ParseOutcome(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown outcome " + strconv.Quote(raw)})
			return
		}
		filter = o
	}

	records, err := h.outcomes.Recent(c.Request.Context(), limit)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to load outcomes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load outcomes"})
		return
	}

	if filter != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Outcome == filter {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []domain.OutcomeRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}
