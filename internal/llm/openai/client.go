package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/shared/telemetry"
)

// Config selects the endpoint and models. BaseURL may point at any
// OpenAI-protocol endpoint, including the generative-language API's
// compatibility surface.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	Timeout    time.Duration
	// InlineImages requests base64 payloads instead of provider URLs.
	InlineImages bool
}

// Client implements llm.ChatClient and llm.ImageGenerator.
type Client struct {
	api          *goopenai.Client
	chatModel    string
	imageModel   string
	inlineImages bool
}

// NewClient constructs a new OpenAI-protocol client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		apiCfg.BaseURL = strings.TrimRight(base, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:          goopenai.NewClientWithConfig(apiCfg),
		chatModel:    cfg.ChatModel,
		imageModel:   cfg.ImageModel,
		inlineImages: cfg.InlineImages,
	}, nil
}

// Chat sends the conversation and returns the first choice.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if strings.TrimSpace(c.chatModel) == "" {
		return llm.ChatResponse{}, fmt.Errorf("chat model is required")
	}
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if sys := strings.TrimSpace(req.System); sys != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: sys})
	}
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return llm.ChatResponse{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return llm.ChatResponse{}, fmt.Errorf("%w: response missing choices", llm.ErrUnavailable)
	}
	model := resp.Model
	if model == "" {
		model = c.chatModel
	}
	telemetry.Info("llm.chat", map[string]any{
		"model":            model,
		"promptTokens":     resp.Usage.PromptTokens,
		"completionTokens": resp.Usage.CompletionTokens,
		"totalTokens":      resp.Usage.TotalTokens,
	})
	return llm.ChatResponse{
		Reply: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// GenerateImage requests a single image.
func (c *Client) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.ImageResult, error) {
	model := req.Model
	if model == "" {
		model = c.imageModel
	}
	format := goopenai.CreateImageResponseFormatURL
	if c.inlineImages {
		format = goopenai.CreateImageResponseFormatB64JSON
	}
	resp, err := c.api.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          model,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: format,
	})
	if err != nil {
		return llm.ImageResult{}, classify(err)
	}
	if len(resp.Data) == 0 {
		return llm.ImageResult{}, fmt.Errorf("%w: response missing data", llm.ErrUnavailable)
	}
	item := resp.Data[0]
	out := llm.ImageResult{URL: item.URL, RevisedPrompt: item.RevisedPrompt}
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return llm.ImageResult{}, fmt.Errorf("%w: decode image: %v", llm.ErrUnavailable, err)
		}
		out.Data = data
		out.ContentType = "image/png"
	}
	if out.URL == "" && len(out.Data) == 0 {
		return llm.ImageResult{}, fmt.Errorf("%w: empty image payload", llm.ErrUnavailable)
	}
	return out, nil
}

// classify maps provider failures onto the llm sentinels.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", llm.ErrRateLimited, apiErr.Message)
		case isContentPolicy(apiErr):
			return fmt.Errorf("%w: %s", llm.ErrContentRejected, apiErr.Message)
		default:
			return fmt.Errorf("%w: status %d: %s", llm.ErrUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", llm.ErrRateLimited, reqErr.Err)
		}
		return fmt.Errorf("%w: status %d: %v", llm.ErrUnavailable, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("%w: %w", llm.ErrUnavailable, err)
}

func isContentPolicy(apiErr *goopenai.APIError) bool {
	if apiErr.HTTPStatusCode != http.StatusBadRequest {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "content_policy_violation" {
		return true
	}
	return apiErr.Type == "content_policy_violation" ||
		strings.Contains(strings.ToLower(apiErr.Message), "safety system")
}

var (
	_ llm.ChatClient     = (*Client)(nil)
	_ llm.ImageGenerator = (*Client)(nil)
)
