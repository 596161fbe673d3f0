package export

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]Job)}
}

func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.UserID != userID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, limit int) ([]Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0)
	for _, job := range r.jobs {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ClaimNext(ctx context.Context, now time.Time) (Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		next  Job
		found bool
	)
	for _, job := range r.jobs {
		if job.Status != StatusPending {
			continue
		}
		if !found || job.CreatedAt.Before(next.CreatedAt) || (job.CreatedAt.Equal(next.CreatedAt) && job.ID < next.ID) {
			next, found = job, true
		}
	}
	if !found {
		return Job{}, false, nil
	}
	return r.claimLocked(next, now), true, nil
}

func (r *MemoryRepo) Claim(ctx context.Context, id string, now time.Time) (Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusPending {
		return Job{}, false, nil
	}
	return r.claimLocked(job, now), true, nil
}

func (r *MemoryRepo) claimLocked(job Job, now time.Time) Job {
	job.Status = StatusProcessing
	job.Attempts++
	job.UpdatedAt = now
	r.jobs[job.ID] = job
	return job
}

func (r *MemoryRepo) Complete(ctx context.Context, id string, res Result, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return false, nil
	}
	expires := res.ExpiresAt
	completed := now
	job.Status = StatusCompleted
	job.StorageKey = res.StorageKey
	job.SizeBytes = res.SizeBytes
	job.PageCount = res.PageCount
	job.ExpiresAt = &expires
	job.CompletedAt = &completed
	job.Error = ""
	job.UpdatedAt = now
	r.jobs[id] = job
	return true, nil
}

func (r *MemoryRepo) Fail(ctx context.Context, id, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return false, nil
	}
	job.Status = StatusFailed
	job.Error = reason
	job.UpdatedAt = now
	r.jobs[id] = job
	return true, nil
}

func (r *MemoryRepo) Cancel(ctx context.Context, userID, id string, now time.Time) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.UserID != userID {
		return Job{}, ErrNotFound
	}
	if job.Status.Terminal() {
		return Job{}, ErrNotCancelable
	}
	job.Status = StatusCancelled
	job.UpdatedAt = now
	r.jobs[id] = job
	return job, nil
}

func (r *MemoryRepo) ReclaimStale(ctx context.Context, staleBefore time.Time, maxAttempts int, reason string, now time.Time) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	requeued, failed := 0, 0
	for id, job := range r.jobs {
		if job.Status != StatusProcessing || !job.UpdatedAt.Before(staleBefore) {
			continue
		}
		if job.Attempts >= maxAttempts {
			job.Status = StatusFailed
			job.Error = reason
			failed++
		} else {
			job.Status = StatusPending
			requeued++
		}
		job.UpdatedAt = now
		r.jobs[id] = job
	}
	return requeued, failed, nil
}

func (r *MemoryRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0)
	for _, job := range r.jobs {
		if job.Status == StatusCompleted && job.ExpiresAt != nil && !job.ExpiresAt.After(now) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusCompleted {
		return false, nil
	}
	job.Status = StatusExpired
	job.StorageKey = ""
	job.UpdatedAt = now
	r.jobs[id] = job
	return true, nil
}

func (r *MemoryRepo) DeleteAllForUser(ctx context.Context, userID string) ([]Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0)
	for id, job := range r.jobs {
		if job.UserID == userID {
			out = append(out, job)
			delete(r.jobs, id)
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
