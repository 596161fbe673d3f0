package ai

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type cacheEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryCache constructs an in-memory Cache.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]cacheEntry)}
}

func (c *memoryCache) Get(ctx context.Context, key string, now time.Time) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !entry.expiresAt.After(now) {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), entry.value...), true, nil
}

func (c *memoryCache) Put(ctx context.Context, key string, op Operation, value json.RawMessage, now, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: append(json.RawMessage(nil), value...), expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Purge(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}
