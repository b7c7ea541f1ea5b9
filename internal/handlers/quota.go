package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/services"
)

type QuotaHandler struct {
	status services.QuotaStatusService
}

func NewQuotaHandler(status services.QuotaStatusService) *QuotaHandler {
	return &QuotaHandler{status: status}
}

func (qh *QuotaHandler) ForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_user_id", err)
		return
	}
	status, err := qh.status.ForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "quota_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quota": status})
}

func (qh *QuotaHandler) System(c *gin.Context) {
	status, err := qh.status.System(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "quota_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quota": status})
}
