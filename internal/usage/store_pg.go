package usage

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM usage_events WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *pgStore) Record(ctx context.Context, event Event) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO usage_events (id, user_id, created_at, prompt, cost_per_unit, plan, size, aspect_ratio, style, image_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID,
		event.UserID,
		event.Timestamp,
		event.Prompt,
		event.CostPerUnit,
		event.Plan,
		event.Size,
		event.AspectRatio,
		event.Style,
		event.ImageID,
	)
	return err
}

func (s *pgStore) RecentHistory(ctx context.Context, userID string, limit int) ([]Event, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, created_at, prompt, cost_per_unit, plan, size, aspect_ratio, style, image_id
FROM usage_events
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.Prompt, &e.CostPerUnit, &e.Plan, &e.Size, &e.AspectRatio, &e.Style, &e.ImageID); err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
