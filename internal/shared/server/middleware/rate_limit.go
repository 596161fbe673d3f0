package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/respond"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule is a token bucket refilled at Rate tokens per second up to Burst.
// A zero rule disables limiting for its group.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) disabled() bool {
	return r.Rate <= 0 || r.Burst <= 0
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateDecision is the outcome of one Take.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter holds process-local token buckets per principal and route group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*rateBucket
	now     func() time.Time
}

type bucketKey struct {
	principal string
	group     string
}

type rateBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{buckets: make(map[bucketKey]*rateBucket), now: now}
}

// RateLimit spends one token from the caller's bucket for the route group and
// answers 429 with Retry-After once it runs dry. Callers are keyed by user id,
// falling back to client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok || rule.disabled() {
			c.Next()
			return
		}

		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = c.ClientIP()
		}
		decision := cfg.Limiter.Take(principal, group, rule)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if decision.Allowed {
			c.Next()
			return
		}
		respond.FromError(c, apperr.RateLimited("too many requests", cfg.Limiter.now().Add(decision.RetryAfter)))
	}
}

// Take spends one token from the principal's bucket for the group.
func (l *RateLimiter) Take(principal, group string, rule RateLimitRule) RateDecision {
	if l == nil || rule.disabled() {
		return RateDecision{Allowed: true, Remaining: rule.Burst}
	}
	now := l.now()
	key := bucketKey{principal: principal, group: group}

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &rateBucket{limiter: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.buckets[key] = b
	}
	b.seen = now
	if b.limiter.AllowN(now, 1) {
		return RateDecision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}
	}
	res := b.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	if wait < time.Second {
		wait = time.Second
	}
	return RateDecision{RetryAfter: wait}
}

// Sweep drops buckets idle for longer than idle; a refilled bucket is
// indistinguishable from a new one.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.seen) > idle {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}
