package llm

import (
	"context"
	"errors"
)

var (
	// ErrContentRejected means the provider refused the input on policy grounds.
	ErrContentRejected = errors.New("llm: content rejected")
	// ErrRateLimited means the provider throttled the call.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrUnavailable covers transport failures, timeouts and 5xx responses.
	ErrUnavailable = errors.New("llm: provider unavailable")
	// ErrNotConfigured is returned by the placeholder client.
	ErrNotConfigured = errors.New("llm: provider not configured")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a chat turn.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is a text-completion call.
type ChatRequest struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Usage carries token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the provider reply.
type ChatResponse struct {
	Reply string
	Model string
	Usage Usage
}

// ChatClient abstracts text-completion providers.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ImageRequest is an image synthesis call. Size is "WxH".
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
	Model   string
}

// ImageResult holds a provider URL, raw image bytes, or both.
type ImageResult struct {
	URL           string
	Data          []byte
	ContentType   string
	RevisedPrompt string
}

// ImageGenerator abstracts image synthesis providers.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error)
}

// PlaceholderClient stands in when no provider key is configured.
type PlaceholderClient struct{}

// Chat returns ErrNotConfigured.
func (PlaceholderClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	_ = ctx
	_ = req
	return ChatResponse{}, ErrNotConfigured
}

// GenerateImage returns ErrNotConfigured.
func (PlaceholderClient) GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error) {
	_ = ctx
	_ = req
	return ImageResult{}, ErrNotConfigured
}
