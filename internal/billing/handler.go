package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"

	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/metrics"
	"assistant-backend/internal/shared/server/respond"
	"assistant-backend/internal/shared/telemetry"
)

// maxWebhookBytes caps the webhook body.
const maxWebhookBytes = 64 << 10

// Handler serves the billing webhook and the public plan listing.
type Handler struct {
	Svc     *Service
	Catalog *plans.Catalog
	Secret  string
}

func NewHandler(svc *Service, catalog *plans.Catalog, secret string) *Handler {
	if catalog == nil {
		catalog = plans.DefaultCatalog()
	}
	return &Handler{Svc: svc, Catalog: catalog, Secret: secret}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/webhook", h.webhook)
	rg.GET("/billing/plans", h.listPlans)
}

func (h *Handler) listPlans(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{"plans": h.Catalog.Plans()})
}

func (h *Handler) webhook(c *gin.Context) {
	if h.Secret == "" {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "billing webhook not configured", nil)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read body", nil)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		metrics.IncBillingEvent("unknown", "invalid_signature")
		respond.Error(c, http.StatusBadRequest, "invalid_signature", "invalid webhook signature", nil)
		return
	}

	eventType := string(event.Type)
	outcome, err := h.Svc.HandleEvent(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			metrics.IncBillingEvent(eventType, "malformed")
			respond.Error(c, http.StatusBadRequest, "validation_error", "malformed event object", nil)
			return
		}
		metrics.IncBillingEvent(eventType, "error")
		telemetry.Error("billing.webhook_failed", map[string]any{
			"event_id": event.ID,
			"type":     eventType,
			"error":    err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process event", nil)
		return
	}
	metrics.IncBillingEvent(eventType, string(outcome))
	respond.JSON(c, http.StatusOK, gin.H{"received": true, "status": outcome})
}
