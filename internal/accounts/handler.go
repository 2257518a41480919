package accounts

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/plans"
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
	rg.GET("/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	acct, err := h.Svc.GetOrCreate(c.Request.Context(), userID, middleware.UserEmailFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load account", nil)
		}
		return
	}

	plan := acct.Plan
	if !plans.IsKnown(plan) {
		plan = plans.Free
	}
	response := gin.H{
		"userId": acct.UserID,
		"email":  acct.Email,
		"plan":   plan,
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	} else if acct.Name != "" {
		response["name"] = acct.Name
	}
	if picture := middleware.UserPictureFromContext(c); picture != "" {
		response["picture"] = picture
	} else if acct.PictureURL != "" {
		response["picture"] = acct.PictureURL
	}
	if acct.SubscriptionStatus != "" {
		response["subscriptionStatus"] = acct.SubscriptionStatus
	}
	respond.JSON(c, http.StatusOK, response)
}
