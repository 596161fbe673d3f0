package ai

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores enhancer responses by content hash.
type Cache interface {
	// Get returns the cached response when it has not expired at now.
	Get(ctx context.Context, key string, now time.Time) (json.RawMessage, bool, error)
	Put(ctx context.Context, key string, op Operation, value json.RawMessage, now, expiresAt time.Time) error
	// Purge removes entries expired at now and reports how many were dropped.
	Purge(ctx context.Context, now time.Time) (int, error)
}
