package export

import (
	"context"
	"time"
)

// Repo persists export jobs. Status changes made by the worker are conditional on the job still being processing.
type Repo interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, userID, id string) (Job, error)
	List(ctx context.Context, userID string, limit int) ([]Job, error)
	// ClaimNext moves the oldest pending job to processing. ok is false when nothing is pending.
	ClaimNext(ctx context.Context, now time.Time) (job Job, ok bool, err error)
	// Claim moves the given pending job to processing.
	Claim(ctx context.Context, id string, now time.Time) (job Job, ok bool, err error)
	Complete(ctx context.Context, id string, res Result, now time.Time) (bool, error)
	Fail(ctx context.Context, id, reason string, now time.Time) (bool, error)
	Cancel(ctx context.Context, userID, id string, now time.Time) (Job, error)
	// ReclaimStale handles processing jobs untouched since staleBefore: jobs under
	// maxAttempts go back to pending, the rest fail with reason.
	ReclaimStale(ctx context.Context, staleBefore time.Time, maxAttempts int, reason string, now time.Time) (requeued, failed int, err error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Job, error)
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
	// DeleteAllForUser removes every job of the user and returns the deleted rows.
	DeleteAllForUser(ctx context.Context, userID string) ([]Job, error)
}
