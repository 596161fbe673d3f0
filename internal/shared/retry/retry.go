// Package retry runs an operation a fixed number of times with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a fixed attempt count with exponential backoff between attempts.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Factor    float64
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy is three attempts starting at 500ms and doubling.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: 500 * time.Millisecond, Factor: 2}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, attempts run out, or ctx ends.
// The last error is returned unwrapped from any Permanent marker.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Factor < 1 {
		p.Factor = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == p.Attempts {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		delay = time.Duration(float64(delay) * p.Factor)
	}
	return err
}

// Delays lists the waits a policy produces between its attempts.
func (p Policy) Delays() []time.Duration {
	if p.Attempts <= 1 {
		return nil
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	out := make([]time.Duration, 0, p.Attempts-1)
	d := p.BaseDelay
	for i := 1; i < p.Attempts; i++ {
		out = append(out, d)
		d = time.Duration(float64(d) * factor)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
