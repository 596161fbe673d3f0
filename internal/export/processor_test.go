package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/documents"
)

func TestProcessNextCompletesJob(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")

	claimed, err := f.proc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, claimed)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, 1, got.Attempts)
	require.Equal(t, 2, got.PageCount)
	require.Equal(t, int64(len("%PDF-1.4 fake")), got.SizeBytes)
	require.NotEmpty(t, got.StorageKey)
	require.Equal(t, f.now.Add(24*time.Hour), *got.ExpiresAt)
	require.Equal(t, f.now, *got.CompletedAt)

	claimed, err = f.proc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestProcessRetriesRenderFailures(t *testing.T) {
	f := newFixture(t)
	f.renderer.failures = 2
	job := f.createJob(t, "user-1")

	_, err := f.proc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, f.renderer.calls)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
}

func TestProcessMarksFailedWithSanitizedReason(t *testing.T) {
	f := newFixture(t)
	f.renderer.failures = 10
	job := f.createJob(t, "user-1")

	claimed, err := f.proc.ProcessNext(context.Background())
	require.True(t, claimed)
	require.ErrorContains(t, err, "chrome crashed")
	require.Equal(t, 3, f.renderer.calls)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, "rendering failed", got.Error)
	require.Zero(t, f.store.count())
}

func TestProcessRejectsUnverifiedPDF(t *testing.T) {
	f := newFixture(t)
	f.proc.Verify = VerifyPDF
	job := f.createJob(t, "user-1")

	_, err := f.proc.ProcessNext(context.Background())
	require.ErrorIs(t, err, ErrInvalidPDF)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, "rendered PDF failed verification", got.Error)
}

func TestProcessRendersPinnedVersion(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")

	renamed := "Renamed CV"
	_, err := f.docs.Update(context.Background(), "user-1", job.DocumentID, documents.UpdateInput{Version: 1, Title: &renamed})
	require.NoError(t, err)

	_, err = f.proc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Contains(t, f.renderer.lastHTML, "<title>My CV</title>")
}

func TestProcessFailsWhenDocumentDeleted(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")
	require.NoError(t, f.docs.Delete(context.Background(), "user-1", job.DocumentID))

	_, err := f.proc.ProcessNext(context.Background())
	require.ErrorIs(t, err, documents.ErrNotFound)
	require.Zero(t, f.renderer.calls)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, "document is no longer available", got.Error)
}

func TestCancelDuringRenderDiscardsResult(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")
	f.renderer.before = func() {
		_, err := f.svc.Cancel(context.Background(), "user-1", job.ID)
		require.NoError(t, err)
	}

	claimed, err := f.proc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, claimed)

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.Empty(t, got.StorageKey)
	require.Zero(t, f.store.count())
}

func TestProcessByIDSkipsNonPending(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")

	claimed, err := f.proc.ProcessByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = f.proc.ProcessByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.False(t, claimed)

	_, err = f.proc.ProcessByID(context.Background(), "bogus")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupExpiresCompletedJobs(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")
	_, err := f.proc.ProcessNext(context.Background())
	require.NoError(t, err)

	n, err := f.proc.Cleanup(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	f.now = f.now.Add(24 * time.Hour)
	n, err = f.proc.Cleanup(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Zero(t, f.store.count())

	got, err := f.svc.Get(context.Background(), "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)

	_, err = f.svc.Cancel(context.Background(), "user-1", job.ID)
	require.ErrorIs(t, err, ErrNotCancelable)
}

func TestCleanupRequeuesJobsAbandonedMidRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, "user-1")

	// A worker claims the job and dies before finishing.
	_, ok, err := f.repo.ClaimNext(ctx, f.now)
	require.NoError(t, err)
	require.True(t, ok)

	f.now = f.now.Add(time.Minute)
	requeued, failed, err := f.proc.ReclaimStale(ctx)
	require.NoError(t, err)
	require.Zero(t, requeued+failed)

	f.now = f.now.Add(DefaultStaleAfter)
	_, err = f.proc.Cleanup(ctx)
	require.NoError(t, err)
	got, err := f.svc.Get(ctx, "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)

	claimed, err := f.proc.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, claimed)
	got, err = f.svc.Get(ctx, "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, 2, got.Attempts)
}

func TestReclaimStaleFailsJobsOutOfAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, "user-1")

	for i := 0; i < DefaultMaxAttempts; i++ {
		_, ok, err := f.repo.ClaimNext(ctx, f.now)
		require.NoError(t, err)
		require.True(t, ok)
		f.now = f.now.Add(DefaultStaleAfter + time.Second)
		requeued, failed, err := f.proc.ReclaimStale(ctx)
		require.NoError(t, err)
		if i < DefaultMaxAttempts-1 {
			require.Equal(t, 1, requeued)
		} else {
			require.Equal(t, 1, failed)
		}
	}

	got, err := f.svc.Get(ctx, "user-1", job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, "rendering was interrupted", got.Error)
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "user-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.proc.Run(ctx, time.Hour) }()

	require.Eventually(t, func() bool {
		got, err := f.repo.Get(context.Background(), "user-1", job.ID)
		return err == nil && got.Status == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestFailureReason(t *testing.T) {
	require.Equal(t, "rendering timed out", failureReason(context.DeadlineExceeded))
	require.Equal(t, "rendering failed", failureReason(errors.New("boom")))
}
