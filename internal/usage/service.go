package usage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"assistant-backend/internal/shared/telemetry"
)

// HistoryLimit bounds RecentHistory.
const HistoryLimit = 10

type store interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	Record(ctx context.Context, event Event) error
	RecentHistory(ctx context.Context, userID string, limit int) ([]Event, error)
}

// Service is the usage ledger over an underlying store.
type Service struct {
	store store
	now   func() time.Time
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return newService(newMemoryStore())
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return newService(pgStore)
}

// NewMongoService constructs a Service backed by a MongoDB collection.
func NewMongoService(mongoStore store) *Service {
	return newService(mongoStore)
}

func newService(s store) *Service {
	return &Service{store: s, now: time.Now}
}

// CountSince returns the number of events for userID at or after since.
// Errors are returned as-is; callers enforcing quota must fail closed.
func (s *Service) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrMissingUser
	}
	return s.store.CountSince(ctx, userID, since.UTC())
}

// Record appends event, filling a missing ID and timestamp.
func (s *Service) Record(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.UserID) == "" {
		return ErrMissingUser
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Timestamp = event.Timestamp.UTC()
	return s.store.Record(ctx, event)
}

// RecentHistory returns up to limit events for userID, newest first.
func (s *Service) RecentHistory(ctx context.Context, userID string, limit int) ([]Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	return s.store.RecentHistory(ctx, userID, limit)
}

// CountForStatus is CountSince for read-only views: failures log and count as 0.
func (s *Service) CountForStatus(ctx context.Context, userID string, since time.Time) int {
	n, err := s.CountSince(ctx, userID, since)
	if err != nil {
		telemetry.Warn("usage.count_failed", map[string]any{
			"userId": userID,
			"since":  since.UTC().Format(time.RFC3339),
			"err":    err.Error(),
		})
		return 0
	}
	return n
}

// HistoryForStatus is RecentHistory for read-only views: failures log and
// return an empty list.
func (s *Service) HistoryForStatus(ctx context.Context, userID string) []Event {
	events, err := s.RecentHistory(ctx, userID, HistoryLimit)
	if err != nil {
		telemetry.Warn("usage.history_failed", map[string]any{
			"userId": userID,
			"err":    err.Error(),
		})
		return []Event{}
	}
	if events == nil {
		return []Event{}
	}
	return events
}
