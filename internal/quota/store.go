package quota

import (
	"context"
	"time"
)

// Store persists quota windows. Both methods roll the window when period_end <= now,
// in the same step that reads or increments the counters.
type Store interface {
	Current(ctx context.Context, userID string, now time.Time, window time.Duration) (Usage, error)
	Increment(ctx context.Context, userID string, delta Delta, now time.Time, window time.Duration) (Usage, error)
}
