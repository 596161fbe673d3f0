package scores

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	current map[string]Record
	history map[string]map[int]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		current: make(map[string]Record),
		history: make(map[string]map[int]Record),
	}
}

func (r *MemoryRepo) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[rec.DocumentID] = rec
	if r.history[rec.DocumentID] == nil {
		r.history[rec.DocumentID] = make(map[int]Record)
	}
	r.history[rec.DocumentID][rec.Version] = rec
	return nil
}

func (r *MemoryRepo) Current(ctx context.Context, documentID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.current[documentID]
	if !ok {
		return Record{}, ErrNotScored
	}
	return rec, nil
}

func (r *MemoryRepo) History(ctx context.Context, documentID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Record, 0, len(r.history[documentID]))
	for _, rec := range r.history[documentID] {
		out = append(out, rec)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}
