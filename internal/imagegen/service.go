package imagegen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/metrics"
	"assistant-backend/internal/shared/storage/object"
	"assistant-backend/internal/shared/telemetry"
	"assistant-backend/internal/usage"
)

// Ledger is the subset of the usage ledger the gate depends on.
type Ledger interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	Record(ctx context.Context, event usage.Event) error
	CountForStatus(ctx context.Context, userID string, since time.Time) int
	HistoryForStatus(ctx context.Context, userID string) []usage.Event
}

// GenerationRequest is one image request from an authenticated user.
type GenerationRequest struct {
	UserID      string
	Plan        plans.Plan
	Prompt      string
	AspectRatio string
	Style       string
}

// GenerationResult is returned on an admitted, successful generation.
// Remaining counts are plans.Unlimited for unlimited windows.
type GenerationResult struct {
	ImageURL         string
	ImageID          string
	Cost             float64
	RemainingDaily   int
	RemainingMonthly int
	Model            string
	Quality          string
	GenerationTime   float64
	Size             string
	AspectRatio      string
	Style            string
}

// Service is the quota gate in front of the image generator.
type Service struct {
	Catalog *plans.Catalog
	Ledger  Ledger
	Images  llm.ImageGenerator
	// Store is optional. Without it, provider URLs are passed through.
	Store        object.ObjectStore
	AssetBaseURL string

	now func() time.Time
}

func NewService(catalog *plans.Catalog, ledger Ledger, images llm.ImageGenerator, store object.ObjectStore, assetBaseURL string) *Service {
	if catalog == nil {
		catalog = plans.DefaultCatalog()
	}
	if images == nil {
		images = llm.PlaceholderClient{}
	}
	return &Service{
		Catalog:      catalog,
		Ledger:       ledger,
		Images:       images,
		Store:        store,
		AssetBaseURL: strings.TrimRight(assetBaseURL, "/"),
		now:          time.Now,
	}
}

// RequestGeneration admits or rejects the request against the plan's quota,
// validates the prompt, calls the generator and records the event.
func (s *Service) RequestGeneration(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return GenerationResult{}, ErrUnauthenticated
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerationResult{}, ErrEmptyPrompt
	}
	ratio := strings.TrimSpace(req.AspectRatio)
	if ratio == "" {
		ratio = DefaultAspectRatio
	}
	style := strings.ToLower(strings.TrimSpace(req.Style))
	if style == "" {
		style = DefaultStyle
	}

	plan, limits := s.Catalog.Resolve(req.Plan)
	if plan != req.Plan {
		telemetry.Warn("imagegen.unknown_plan", map[string]any{
			"user_id": req.UserID,
			"plan":    string(req.Plan),
		})
	}
	planLabel := string(plan)

	now := s.now().UTC()
	dailyCount, err := s.Ledger.CountSince(ctx, req.UserID, usage.StartOfDay(now))
	if err != nil {
		metrics.IncImageRequest(planLabel, "ledger_error")
		return GenerationResult{}, fmt.Errorf("%w: daily count: %v", ErrLedgerUnavailable, err)
	}
	if limits.DailyLimit != plans.Unlimited && dailyCount >= limits.DailyLimit {
		metrics.IncImageRequest(planLabel, "quota_exceeded")
		metrics.IncQuotaRejection(WindowDaily)
		return GenerationResult{}, &QuotaError{Window: WindowDaily, Used: dailyCount, Limit: limits.DailyLimit}
	}
	monthlyCount, err := s.Ledger.CountSince(ctx, req.UserID, usage.StartOfMonth(now))
	if err != nil {
		metrics.IncImageRequest(planLabel, "ledger_error")
		return GenerationResult{}, fmt.Errorf("%w: monthly count: %v", ErrLedgerUnavailable, err)
	}
	if limits.MonthlyLimit != plans.Unlimited && monthlyCount >= limits.MonthlyLimit {
		metrics.IncImageRequest(planLabel, "quota_exceeded")
		metrics.IncQuotaRejection(WindowMonthly)
		return GenerationResult{}, &QuotaError{Window: WindowMonthly, Used: monthlyCount, Limit: limits.MonthlyLimit}
	}

	if n := utf8.RuneCountInString(req.Prompt); n > limits.MaxPromptLength {
		metrics.IncImageRequest(planLabel, "invalid_argument")
		return GenerationResult{}, &PromptLengthError{Length: n, Max: limits.MaxPromptLength}
	}
	if containsProhibited(req.Prompt) {
		metrics.IncImageRequest(planLabel, "prohibited")
		return GenerationResult{}, ErrProhibitedContent
	}

	size := SizeFor(ratio, limits)
	started := s.now()
	out, err := s.Images.GenerateImage(ctx, llm.ImageRequest{
		Prompt:  TransformPrompt(req.Prompt, style),
		Size:    size,
		Quality: limits.Quality,
		Model:   limits.Model,
	})
	elapsed := s.now().Sub(started)
	if err != nil {
		metrics.ObserveImageDuration("error", elapsed)
		mapped := mapGeneratorError(err)
		metrics.IncImageRequest(planLabel, outcomeFor(mapped))
		telemetry.Warn("imagegen.generate_failed", map[string]any{
			"user_id": req.UserID,
			"plan":    planLabel,
			"error":   err.Error(),
		})
		return GenerationResult{}, mapped
	}
	metrics.ObserveImageDuration("success", elapsed)

	imageID := uuid.NewString()
	imageURL, err := s.publish(ctx, req.UserID, imageID, out)
	if err != nil {
		metrics.IncImageRequest(planLabel, "service_unavailable")
		telemetry.Error("imagegen.persist_failed", map[string]any{
			"user_id":  req.UserID,
			"image_id": imageID,
			"error":    err.Error(),
		})
		return GenerationResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	// The event belongs to the window in which the image was delivered.
	event := usage.Event{
		UserID:      req.UserID,
		Timestamp:   s.now().UTC(),
		Prompt:      req.Prompt,
		CostPerUnit: limits.CostPerUnit,
		Plan:        planLabel,
		Size:        size,
		AspectRatio: ratio,
		Style:       style,
		ImageID:     imageID,
	}
	if err := s.Ledger.Record(ctx, event); err != nil {
		metrics.IncLedgerRecordFailure()
		telemetry.Error("imagegen.record_failed", map[string]any{
			"user_id":  req.UserID,
			"image_id": imageID,
			"error":    err.Error(),
		})
	}
	metrics.IncImageRequest(planLabel, "success")
	telemetry.Info("imagegen.generated", map[string]any{
		"user_id":     req.UserID,
		"plan":        planLabel,
		"image_id":    imageID,
		"size":        size,
		"duration_ms": elapsed.Milliseconds(),
	})

	return GenerationResult{
		ImageURL:         imageURL,
		ImageID:          imageID,
		Cost:             limits.CostPerUnit,
		RemainingDaily:   remaining(limits.DailyLimit, dailyCount+1),
		RemainingMonthly: remaining(limits.MonthlyLimit, monthlyCount+1),
		Model:            limits.Model,
		Quality:          limits.Quality,
		GenerationTime:   elapsed.Seconds(),
		Size:             size,
		AspectRatio:      ratio,
		Style:            style,
	}, nil
}

// publish stores returned bytes in the object store and returns the URL the
// client should load.
func (s *Service) publish(ctx context.Context, userID, imageID string, out llm.ImageResult) (string, error) {
	if len(out.Data) == 0 {
		if out.URL == "" {
			return "", errors.New("generator returned no image")
		}
		return out.URL, nil
	}
	if s.Store == nil {
		if out.URL != "" {
			return out.URL, nil
		}
		return "", errors.New("no object store configured for inline image")
	}
	contentType := out.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	key := AssetKey(userID, imageID)
	if _, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(out.Data)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return s.AssetBaseURL + "/" + key, nil
}

// AssetKey returns the object key of a generated image. The owner segment is
// a sha256 of the user id so keys never expose account identifiers.
func AssetKey(userID, imageID string) string {
	sum := sha256.Sum256([]byte(userID))
	return fmt.Sprintf("images/%s/%s.png", hex.EncodeToString(sum[:]), imageID)
}

func remaining(limit, used int) int {
	if limit == plans.Unlimited {
		return plans.Unlimited
	}
	if left := limit - used; left > 0 {
		return left
	}
	return 0
}

func mapGeneratorError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, llm.ErrContentRejected):
		return fmt.Errorf("%w: %v", ErrInvalidPrompt, err)
	case errors.Is(err, llm.ErrRateLimited):
		return fmt.Errorf("%w: %v", ErrServiceRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPrompt):
		return "invalid_prompt"
	case errors.Is(err, ErrServiceRateLimited):
		return "service_rate_limited"
	default:
		return "service_unavailable"
	}
}
