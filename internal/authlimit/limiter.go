package authlimit

import (
	"context"
	"strings"
	"time"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

const (
	DefaultMaxFailures = 5
	DefaultWindow      = 15 * time.Minute
)

// Limiter blocks sign-in attempts for keys that failed too often inside the window.
type Limiter struct {
	Store  Store
	Max    int
	Window time.Duration
	Now    func() time.Time
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{
		Store:  store,
		Max:    DefaultMaxFailures,
		Window: DefaultWindow,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func EmailKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

func IPKey(ip string) string {
	return "ip:" + strings.TrimSpace(ip)
}

// Check returns a RateLimited error when any key is at its limit. It never counts.
func (l *Limiter) Check(ctx context.Context, keys ...string) error {
	now := l.Now()
	var blockedUntil time.Time
	for _, key := range keys {
		w, err := l.Store.Peek(ctx, key, now)
		if err != nil {
			return err
		}
		if w.Count >= l.Max && w.End.After(blockedUntil) {
			blockedUntil = w.End
		}
	}
	if blockedUntil.IsZero() {
		return nil
	}
	metrics.IncAuthLimited()
	telemetry.Warn("auth.rate_limited", map[string]any{"keys": strings.Join(keys, ","), "until": blockedUntil})
	return apperr.RateLimited("too many failed sign-in attempts; try again later", blockedUntil)
}

// Fail counts a failed attempt against every key.
func (l *Limiter) Fail(ctx context.Context, keys ...string) error {
	now := l.Now()
	for _, key := range keys {
		if _, err := l.Store.Hit(ctx, key, now, l.Window); err != nil {
			return err
		}
	}
	return nil
}

// Succeed clears a key after a successful sign-in.
func (l *Limiter) Succeed(ctx context.Context, key string) error {
	return l.Store.Reset(ctx, key)
}

// RunSweeper drops ended windows every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Store.Sweep(ctx, l.Now())
			if err != nil {
				telemetry.Warn("auth.limiter_sweep_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				telemetry.Info("auth.limiter_swept", map[string]any{"removed": n})
			}
		}
	}
}
