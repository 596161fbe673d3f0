package quota

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Usage
}

// NewMemoryStore constructs an in-memory quota store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]Usage)}
}

func (s *memoryStore) Current(ctx context.Context, userID string, now time.Time, window time.Duration) (Usage, error) {
	return s.Increment(ctx, userID, Delta{}, now, window)
}

func (s *memoryStore) Increment(ctx context.Context, userID string, delta Delta, now time.Time, window time.Duration) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[userID]
	if !ok || !u.PeriodEnd.After(now) {
		u = Usage{UserID: userID, PeriodStart: now, PeriodEnd: now.Add(window)}
	}
	u.OperationCount += delta.Operations
	u.TokenCount += delta.Tokens
	u.TotalCost += delta.Cost
	s.data[userID] = u
	return u, nil
}
