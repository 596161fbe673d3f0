package authlimit

import (
	"context"
	"time"
)

// Window is the failure count of one key inside its current window.
type Window struct {
	Count int
	Start time.Time
	End   time.Time
}

// Store keeps failure windows. The memory store serves a single instance;
// the Postgres store shares counters across instances.
type Store interface {
	// Peek returns the live window for key, or a zero Window when there is none.
	Peek(ctx context.Context, key string, now time.Time) (Window, error)
	// Hit counts one failure, opening a fresh window when the previous one has ended.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error)
	Reset(ctx context.Context, key string) error
	// Sweep drops ended windows.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
