package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/services"
)

type UserHandler struct {
	accounts services.UserAccountService
}

func NewUserHandler(accounts services.UserAccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (uh *UserHandler) Register(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required"`
		DisplayName     string `json:"display_name"`
		Handle          string `json:"handle" binding:"required"`
		DailyReplyQuota int    `json:"daily_reply_quota"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	user, state, err := uh.accounts.Register(c.Request.Context(), services.RegisterUserInput{
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		Handle:          req.Handle,
		DailyReplyQuota: req.DailyReplyQuota,
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "register_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "state": state})
}

func (uh *UserHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_user_id", err)
		return
	}
	user, err := uh.accounts.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
