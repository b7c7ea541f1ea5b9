package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/services"
)

type SuggestionHandler struct {
	review services.SuggestionReviewService
}

func NewSuggestionHandler(review services.SuggestionReviewService) *SuggestionHandler {
	return &SuggestionHandler{review: review}
}

func (sh *SuggestionHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_user_id", err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, perr := strconv.Atoi(raw)
		if perr != nil {
			RespondError(c, http.StatusBadRequest, "bad_limit", perr)
			return
		}
		limit = parsed
	}

	suggestions, err := sh.review.List(c.Request.Context(), userID, c.Query("status"), limit)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_status", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type reviewRequest struct {
	Status     string `json:"status" binding:"required"`
	EditedText string `json:"edited_text"`
}

func (sh *SuggestionHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_suggestion_id", err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	suggestion, err := sh.review.Review(c.Request.Context(), id, req.Status, req.EditedText)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrNotFound):
			RespondError(c, http.StatusNotFound, "not_found", err)
		case errors.Is(err, pkgerrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "bad_transition", err)
		default:
			RespondError(c, http.StatusInternalServerError, "review_failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}
