package dictation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/shared/telemetry"
)

const (
	ModeRules = "rules"
	ModeAI    = "ai"

	MaxTextChars = 10000
)

var (
	ErrEmptyText   = errors.New("text is required")
	ErrTextTooLong = errors.New("text too long")
	ErrInvalidMode = errors.New("mode must be rules or ai")
)

const polishSystem = "You correct dictated text. Fix grammar, punctuation and obvious transcription errors. " +
	"Keep the speaker's wording and meaning. Reply with the corrected text only."

// Result is the corrected transcript.
type Result struct {
	Text      string `json:"text"`
	Original  string `json:"original"`
	Mode      string `json:"mode"`
	AIApplied bool   `json:"aiApplied"`
}

// Service corrects dictated transcripts.
type Service struct {
	Chat llm.ChatClient
}

func NewService(chat llm.ChatClient) *Service {
	if chat == nil {
		chat = llm.PlaceholderClient{}
	}
	return &Service{Chat: chat}
}

// Correct runs the rule pipeline and, in ai mode, a provider polish pass.
// A failed polish returns the rules output with AIApplied false.
func (s *Service) Correct(ctx context.Context, text, mode string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return Result{}, fmt.Errorf("%w: maximum is %d characters", ErrTextTooLong, MaxTextChars)
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeRules
	}
	if mode != ModeRules && mode != ModeAI {
		return Result{}, ErrInvalidMode
	}

	res := Result{Text: ApplyRules(text), Original: text, Mode: mode}
	if mode == ModeRules {
		return res, nil
	}

	resp, err := s.Chat.Chat(ctx, llm.ChatRequest{
		System:      polishSystem,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: res.Text}},
		Temperature: 0.2,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		telemetry.Warn("dictation.polish_failed", map[string]any{"error": err.Error()})
		return res, nil
	}
	if polished := strings.TrimSpace(resp.Reply); polished != "" {
		res.Text = polished
		res.AIApplied = true
	}
	return res, nil
}
