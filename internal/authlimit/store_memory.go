package authlimit

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore constructs a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{windows: make(map[string]Window)}
}

func (s *memoryStore) Peek(ctx context.Context, key string, now time.Time) (Window, error) {
	if err := ctx.Err(); err != nil {
		return Window{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok || !w.End.After(now) {
		return Window{}, nil
	}
	return w, nil
}

func (s *memoryStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	if err := ctx.Err(); err != nil {
		return Window{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok || !w.End.After(now) {
		w = Window{Start: now, End: now.Add(window)}
	}
	w.Count++
	s.windows[key] = w
	return w, nil
}

func (s *memoryStore) Reset(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, w := range s.windows {
		if !w.End.After(now) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed, nil
}
