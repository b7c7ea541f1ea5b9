package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/replyloop-backend/internal/services"
)

type BatchHandler struct {
	scheduler services.BatchScheduler
	audit     services.BatchAuditService
}

func NewBatchHandler(scheduler services.BatchScheduler, audit services.BatchAuditService) *BatchHandler {
	return &BatchHandler{scheduler: scheduler, audit: audit}
}

// Run triggers one batch tick synchronously and returns its stats. Meant for
// operators and tests; the cron scheduler drives the normal cadence. An
// optional batch_size query param caps how many users this tick serves;
// absent or zero falls back to the configured default.
func (bh *BatchHandler) Run(c *gin.Context) {
	batchSize := 0
	if raw := c.Query("batch_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			RespondError(c, http.StatusBadRequest, "bad_batch_size", fmt.Errorf("batch_size must be a non-negative integer, got %q", raw))
			return
		}
		batchSize = parsed
	}
	stats := bh.scheduler.ProcessBatch(c.Request.Context(), batchSize)
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Status returns the most recent tick's stats.
func (bh *BatchHandler) Status(c *gin.Context) {
	stats := bh.scheduler.LastStats()
	if stats == nil {
		RespondError(c, http.StatusNotFound, "no_runs", errors.New("no batch has run yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// History returns recent persisted batch-run audit rows.
func (bh *BatchHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_limit", err)
			return
		}
		limit = parsed
	}
	runs, err := bh.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
