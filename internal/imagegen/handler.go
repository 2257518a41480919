package imagegen

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/server/middleware"
	"assistant-backend/internal/shared/server/respond"
	"assistant-backend/internal/shared/storage/object"
	"assistant-backend/internal/shared/telemetry"
	"assistant-backend/internal/shared/util"
)

// retryAfterSeconds is advertised when the image service throttles us.
const retryAfterSeconds = "30"

// PlanSource resolves the caller's subscription tier.
type PlanSource interface {
	PlanFor(ctx context.Context, userID string) (plans.Plan, error)
}

// Handler wires HTTP handlers to the quota gate.
type Handler struct {
	Svc   *Service
	Plans PlanSource
}

func NewHandler(svc *Service, planSource PlanSource) *Handler {
	return &Handler{Svc: svc, Plans: planSource}
}

// RegisterRoutes attaches image routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/images/generate", h.generate)
	rg.GET("/images/usage", h.usageStatus)
	rg.GET("/assets/*key", h.asset)
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
	Style       string `json:"style"`
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	ctx := c.Request.Context()
	plan, err := h.Plans.PlanFor(ctx, userID)
	if err != nil {
		if isCanceled(err) {
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
			return
		}
		telemetry.Error("imagegen.plan_lookup_failed", map[string]any{"user_id": userID, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load account", nil)
		return
	}

	res, err := h.Svc.RequestGeneration(ctx, GenerationRequest{
		UserID:      userID,
		Plan:        plan,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Style:       req.Style,
	})
	if err != nil {
		writeGenerationError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":          true,
		"imageUrl":         res.ImageURL,
		"imageId":          res.ImageID,
		"cost":             res.Cost,
		"remainingDaily":   res.RemainingDaily,
		"remainingMonthly": res.RemainingMonthly,
		"model":            res.Model,
		"quality":          res.Quality,
		"generationTime":   res.GenerationTime,
		"size":             res.Size,
	})
}

func writeGenerationError(c *gin.Context, err error) {
	var quotaErr *QuotaError
	var lengthErr *PromptLengthError
	switch {
	case isCanceled(err):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, ErrUnauthenticated):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
	case errors.Is(err, ErrEmptyPrompt):
		respond.Error(c, http.StatusBadRequest, "validation_error", "prompt is required", map[string]string{
			"field": "prompt",
			"issue": "required",
		})
	case errors.As(err, &lengthErr):
		respond.Error(c, http.StatusBadRequest, "prompt_too_long", lengthErr.Error(), map[string]int{
			"length": lengthErr.Length,
			"max":    lengthErr.Max,
		})
	case errors.Is(err, ErrProhibitedContent):
		respond.Error(c, http.StatusBadRequest, "prohibited_content", "prompt contains prohibited content", nil)
	case errors.As(err, &quotaErr):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "You've reached your "+quotaErr.Window+" image limit. Upgrade your plan to continue.", gin.H{
			"window": quotaErr.Window,
			"used":   quotaErr.Used,
			"limit":  quotaErr.Limit,
		})
	case errors.Is(err, ErrInvalidPrompt):
		respond.Error(c, http.StatusBadRequest, "invalid_prompt", "prompt was rejected by the image service", nil)
	case errors.Is(err, ErrServiceRateLimited):
		c.Header("Retry-After", retryAfterSeconds)
		respond.Error(c, http.StatusServiceUnavailable, "service_rate_limited", "image service is busy, try again shortly", nil)
	case errors.Is(err, ErrServiceUnavailable):
		respond.Error(c, http.StatusBadGateway, "service_unavailable", "image service unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate image", nil)
	}
}

func (h *Handler) usageStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	ctx := c.Request.Context()
	plan, err := h.Plans.PlanFor(ctx, userID)
	if err != nil {
		telemetry.Warn("imagegen.plan_lookup_failed", map[string]any{"user_id": userID, "error": err.Error()})
		plan = plans.Free
	}
	respond.JSON(c, http.StatusOK, h.Svc.Status(ctx, userID, plan))
}

func (h *Handler) asset(c *gin.Context) {
	if h.Svc.Store == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
		return
	}
	key, err := util.CleanStorageKey(c.Param("key"))
	if err != nil || !strings.HasPrefix(key, "images/") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid asset key", nil)
		return
	}
	rc, err := h.Svc.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open asset", nil)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "private, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, "image/png", rc, nil)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
