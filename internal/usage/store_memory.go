package usage

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func newMemoryStore() *memoryStore {
	return &memoryStore{events: make(map[string][]Event)}
}

func (s *memoryStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.events[userID] {
		if !e.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) Record(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.UserID] = append(s.events[event.UserID], event)
	return nil
}

func (s *memoryStore) RecentHistory(ctx context.Context, userID string, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := append([]Event(nil), s.events[userID]...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
