package authlimit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/shared/apperr"
)

func newTestLimiter() (*Limiter, *time.Time) {
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	l := NewLimiter(NewMemoryStore())
	l.Now = func() time.Time { return now }
	return l, &now
}

func TestLimiterBlocksAfterMaxFailures(t *testing.T) {
	l, now := newTestLimiter()
	ctx := context.Background()
	keys := []string{EmailKey(" Jane@Example.com "), IPKey("10.0.0.1")}
	require.Equal(t, "email:jane@example.com", keys[0])

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, l.Check(ctx, keys...))
		require.NoError(t, l.Fail(ctx, keys...))
	}

	err := l.Check(ctx, keys...)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	require.Equal(t, now.Add(DefaultWindow), apperr.As(err).ResetAt)

	// Denied checks do not extend the count.
	for i := 0; i < 3; i++ {
		require.Error(t, l.Check(ctx, keys...))
	}
	w, err := l.Store.Peek(ctx, keys[0], *now)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxFailures, w.Count)

	*now = now.Add(DefaultWindow)
	require.NoError(t, l.Check(ctx, keys...))
}

func TestLimiterSuccessClearsEmailOnly(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()
	email, ip := EmailKey("a@b.c"), IPKey("10.0.0.2")

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, l.Fail(ctx, email, ip))
	}
	require.NoError(t, l.Succeed(ctx, email))
	require.NoError(t, l.Check(ctx, email))
	require.Error(t, l.Check(ctx, ip))
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

	_, err := store.Hit(ctx, "a", now, time.Minute)
	require.NoError(t, err)
	_, err = store.Hit(ctx, "b", now.Add(time.Minute), time.Minute)
	require.NoError(t, err)

	removed, err := store.Sweep(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestPGStoreHitUpsertsWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	end := now.Add(DefaultWindow)
	mock.ExpectQuery("INSERT INTO auth_attempts").
		WithArgs("email:a@b.c", now, end).
		WillReturnRows(sqlmock.NewRows([]string{"count", "window_start", "window_end"}).AddRow(3, now, end))
	mock.ExpectQuery("SELECT count, window_start, window_end FROM auth_attempts").
		WithArgs("ip:1.2.3.4", now).
		WillReturnRows(sqlmock.NewRows([]string{"count", "window_start", "window_end"}))

	store := NewPGStore(db)
	w, err := store.Hit(context.Background(), "email:a@b.c", now, DefaultWindow)
	if err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if w.Count != 3 || !w.End.Equal(end) {
		t.Fatalf("unexpected window %+v", w)
	}
	w, err = store.Peek(context.Background(), "ip:1.2.3.4", now)
	if err != nil || w.Count != 0 {
		t.Fatalf("Peek = %+v, %v; want empty", w, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
