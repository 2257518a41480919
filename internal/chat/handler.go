package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/shared/metrics"
	"assistant-backend/internal/shared/server/middleware"
	"assistant-backend/internal/shared/server/respond"
	"assistant-backend/internal/shared/telemetry"
)

const (
	MaxMessages     = 20
	MaxContentChars = 8000
)

// defaultSystem is used when the caller sends no system prompt.
const defaultSystem = "You are a helpful assistant. Answer clearly and concisely."

// Handler proxies chat turns to the text-completion provider.
type Handler struct {
	Client llm.ChatClient
}

func NewHandler(client llm.ChatClient) *Handler {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Handler{Client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

type messageDTO struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []messageDTO `json:"messages" binding:"required,min=1,max=20,dive"`
	System   string       `json:"system"`
}

type fieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// validate checks roles and the combined content size.
func (r chatRequest) validate() []fieldIssue {
	var issues []fieldIssue
	total := utf8.RuneCountInString(r.System)
	for _, m := range r.Messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			issues = append(issues, fieldIssue{Field: "messages.role", Issue: "must be user or assistant"})
		}
		total += utf8.RuneCountInString(m.Content)
	}
	if total > MaxContentChars {
		issues = append(issues, fieldIssue{Field: "messages.content", Issue: "too_long"})
	}
	return issues
}

func (h *Handler) chat(c *gin.Context) {
	if middleware.UserIDFromContext(c) == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "messages must contain 1 to 20 entries", nil)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid chat request", issues)
		return
	}

	system := strings.TrimSpace(req.System)
	if system == "" {
		system = defaultSystem
	}
	msgs := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := h.Client.Chat(c.Request.Context(), llm.ChatRequest{System: system, Messages: msgs})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			metrics.IncChatRequest("timeout")
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		case errors.Is(err, llm.ErrRateLimited):
			metrics.IncChatRequest("rate_limited")
			c.Header("Retry-After", "30")
			respond.Error(c, http.StatusServiceUnavailable, "service_rate_limited", "chat service is busy, try again shortly", nil)
		default:
			metrics.IncChatRequest("upstream_error")
			telemetry.Warn("chat.upstream_failed", map[string]any{
				"user_id": middleware.UserIDFromContext(c),
				"error":   err.Error(),
			})
			respond.Error(c, http.StatusBadGateway, "upstream_error", "chat service unavailable", nil)
		}
		return
	}

	metrics.IncChatRequest("success")
	respond.JSON(c, http.StatusOK, gin.H{
		"reply": resp.Reply,
		"model": resp.Model,
		"usage": gin.H{
			"promptTokens":     resp.Usage.PromptTokens,
			"completionTokens": resp.Usage.CompletionTokens,
			"totalTokens":      resp.Usage.TotalTokens,
		},
	})
}
