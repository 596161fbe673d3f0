package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recordingPolicy(attempts int, waits *[]time.Duration) Policy {
	return Policy{
		Attempts:  attempts,
		BaseDelay: 100 * time.Millisecond,
		Factor:    2,
		Sleep: func(ctx context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestDoRetriesWithExponentialBackoff(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), recordingPolicy(3, &waits), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, waits)
}

func TestDoReturnsLastErrorWhenAttemptsRunOut(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), recordingPolicy(3, &waits), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("always")
	})
	require.EqualError(t, err, "always")
	require.Equal(t, 3, calls)
	require.Len(t, waits, 2)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	var waits []time.Duration
	bad := errors.New("bad input")
	calls := 0
	err := Do(context.Background(), recordingPolicy(5, &waits), func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(bad)
	})
	require.ErrorIs(t, err, bad)
	require.Equal(t, 1, calls)
	require.Empty(t, waits)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{Attempts: 3, BaseDelay: time.Second}, func(ctx context.Context, attempt int) error {
		return errors.New("flaky")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPolicyDelays(t *testing.T) {
	require.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, DefaultPolicy().Delays())
}
