package dictation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/shared/server/middleware"
	"assistant-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/dictation/correct", h.correct)
}

type correctRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

func (h *Handler) correct(c *gin.Context) {
	if middleware.UserIDFromContext(c) == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	var req correctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	res, err := h.Svc.Correct(c.Request.Context(), req.Text, req.Mode)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyText), errors.Is(err, ErrInvalidMode):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrTextTooLong):
			respond.Error(c, http.StatusBadRequest, "text_too_long", err.Error(), nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to correct text", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, res)
}
