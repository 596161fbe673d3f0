package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/shared/apperr"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService() (*Service, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(NewMemoryStore())
	svc.FreeLimit = 2
	svc.Now = clock.Now
	return svc, clock
}

func TestCheckOpensWindow(t *testing.T) {
	svc, clock := newTestService()

	st, err := svc.Check(context.Background(), "user-1", "")
	require.NoError(t, err)
	require.Equal(t, PlanFree, st.Plan)
	require.Equal(t, 2, st.Limit)
	require.Equal(t, 2, st.Remaining)
	require.True(t, st.Allowed)
	require.Equal(t, clock.now, st.PeriodStart)
	require.Equal(t, clock.now.Add(24*time.Hour), st.PeriodEnd)
}

func TestEnforceDeniesUntilPeriodEnd(t *testing.T) {
	svc, clock := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Increment(ctx, "user-1", 100, 0.0002)
		require.NoError(t, err)
	}

	st, err := svc.Enforce(ctx, "user-1", PlanFree)
	require.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))
	require.Equal(t, 0, st.Remaining)
	require.Equal(t, 3, st.OperationCount)
	require.Equal(t, int64(300), st.TokenCount)
	require.Equal(t, st.PeriodEnd, apperr.As(err).ResetAt)

	clock.now = st.PeriodEnd.Add(-time.Second)
	_, err = svc.Enforce(ctx, "user-1", PlanFree)
	require.Error(t, err)

	clock.now = st.PeriodEnd
	st, err = svc.Enforce(ctx, "user-1", PlanFree)
	require.NoError(t, err)
	require.Equal(t, 0, st.OperationCount)
	require.Equal(t, int64(0), st.TokenCount)
	require.Equal(t, clock.now, st.PeriodStart)
}

func TestProPlanLimit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Increment(ctx, "user-1", 10, 0)
		require.NoError(t, err)
	}

	st, err := svc.Enforce(ctx, "user-1", PlanPro)
	require.NoError(t, err)
	require.Equal(t, DefaultProLimit, st.Limit)
	require.Equal(t, DefaultProLimit-5, st.Remaining)
}
