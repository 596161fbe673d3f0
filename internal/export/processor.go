package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"resume-builder/internal/documents"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/retry"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
)

const (
	DefaultRenderTimeout = 60 * time.Second
	DefaultPollInterval  = 2 * time.Second
	// DefaultStaleAfter must outlast every render attempt plus its backoff.
	DefaultStaleAfter  = 10 * time.Minute
	DefaultMaxAttempts = 3
	cleanupBatch       = 100
	staleReason        = "rendering was interrupted"
)

// Processor is the worker side of exports: claim, render, verify, store, complete.
type Processor struct {
	Repo          Repo
	Docs          DocumentSource
	Store         object.Store
	Renderer      Renderer
	Verify        func(pdf []byte) (int, error)
	Retry         retry.Policy
	TTL           time.Duration
	RenderTimeout time.Duration
	StaleAfter    time.Duration
	MaxAttempts   int
	Now           func() time.Time

	wake chan struct{}
}

func NewProcessor(repo Repo, docs DocumentSource, store object.Store, renderer Renderer) *Processor {
	return &Processor{
		Repo:          repo,
		Docs:          docs,
		Store:         store,
		Renderer:      renderer,
		Verify:        VerifyPDF,
		Retry:         retry.DefaultPolicy(),
		TTL:           DefaultTTL,
		RenderTimeout: DefaultRenderTimeout,
		StaleAfter:    DefaultStaleAfter,
		MaxAttempts:   DefaultMaxAttempts,
		Now:           func() time.Time { return time.Now().UTC() },
		wake:          make(chan struct{}, 1),
	}
}

// Wake makes a running Run loop poll immediately.
func (p *Processor) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// ProcessNext claims and processes the oldest pending job. claimed is false when the queue is empty.
func (p *Processor) ProcessNext(ctx context.Context) (claimed bool, err error) {
	job, ok, err := p.Repo.ClaimNext(ctx, p.Now())
	if err != nil || !ok {
		return false, err
	}
	return true, p.process(ctx, job)
}

// ProcessByID processes one job named by a queue message. A job that is no longer pending is skipped.
func (p *Processor) ProcessByID(ctx context.Context, id string) (claimed bool, err error) {
	if !validID(id) {
		return false, ErrNotFound
	}
	job, ok, err := p.Repo.Claim(ctx, id, p.Now())
	if err != nil || !ok {
		return false, err
	}
	return true, p.process(ctx, job)
}

// Run drains pending jobs, then waits for the next tick or Wake, until ctx ends.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for ctx.Err() == nil {
			claimed, err := p.ProcessNext(ctx)
			if !claimed {
				if err != nil {
					telemetry.Error("export.claim_failed", map[string]any{"error": err.Error()})
				}
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

func (p *Processor) process(ctx context.Context, job Job) error {
	fields := map[string]any{
		"export_id":   job.ID,
		"document_id": job.DocumentID,
		"version":     job.DocumentVersion,
		"attempt":     job.Attempts,
	}
	telemetry.Info("export.processing", fields)

	html, err := p.renderHTML(ctx, job)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	start := time.Now()
	var pdf []byte
	err = retry.Do(ctx, p.Retry, func(ctx context.Context, attempt int) error {
		renderCtx, cancel := context.WithTimeout(ctx, p.renderTimeout())
		defer cancel()
		out, err := p.Renderer.RenderPDF(renderCtx, html)
		if err != nil {
			telemetry.Warn("export.render_attempt_failed", map[string]any{
				"export_id": job.ID,
				"attempt":   attempt,
				"error":     err.Error(),
			})
			return err
		}
		pdf = out
		return nil
	})
	metrics.ObserveExportRenderMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return p.fail(ctx, job, err)
	}

	pages, err := p.Verify(pdf)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	obj, err := p.Store.Put(ctx, job.UserID, FileName(job), "application/pdf", bytes.NewReader(pdf))
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("store pdf: %w", err))
	}

	now := p.Now()
	ok, err := p.Repo.Complete(ctx, job.ID, Result{
		StorageKey: obj.Key,
		SizeBytes:  obj.Size,
		PageCount:  pages,
		ExpiresAt:  now.Add(p.ttl()),
	}, now)
	if err != nil || !ok {
		p.discard(ctx, job, obj.Key)
		if err != nil {
			return p.fail(ctx, job, fmt.Errorf("complete job: %w", err))
		}
		telemetry.Info("export.discarded", fields)
		return nil
	}

	metrics.IncExport(true)
	fields["pages"] = pages
	fields["size_bytes"] = obj.Size
	telemetry.Info("export.completed", fields)
	return nil
}

// renderHTML renders the snapshot the job was created for, not the live document.
func (p *Processor) renderHTML(ctx context.Context, job Job) ([]byte, error) {
	doc, err := p.Docs.Get(ctx, job.UserID, job.DocumentID)
	if err != nil {
		return nil, err
	}
	snap, err := p.Docs.GetVersion(ctx, job.UserID, job.DocumentID, job.DocumentVersion)
	if err != nil {
		return nil, err
	}
	doc.Title = snap.Title
	doc.Content = snap.Content
	return p.Docs.RenderHTML(doc, job.TemplateID)
}

func (p *Processor) discard(ctx context.Context, job Job, key string) {
	if err := p.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Warn("export.blob_delete_failed", map[string]any{"export_id": job.ID, "error": err.Error()})
	}
}

func (p *Processor) fail(ctx context.Context, job Job, cause error) error {
	reason := failureReason(cause)
	telemetry.Error("export.failed", map[string]any{
		"export_id": job.ID,
		"reason":    reason,
		"error":     cause.Error(),
	})
	if _, err := p.Repo.Fail(context.WithoutCancel(ctx), job.ID, reason, p.Now()); err != nil {
		telemetry.Error("export.mark_failed_error", map[string]any{"export_id": job.ID, "error": err.Error()})
	}
	metrics.IncExport(false)
	return cause
}

// failureReason is the client-facing error stored on the job.
func failureReason(err error) string {
	switch {
	case errors.Is(err, documents.ErrNotFound), errors.Is(err, documents.ErrVersionNotFound):
		return "document is no longer available"
	case errors.Is(err, ErrInvalidPDF):
		return "rendered PDF failed verification"
	case errors.Is(err, context.DeadlineExceeded):
		return "rendering timed out"
	default:
		return "rendering failed"
	}
}

// ReclaimStale returns jobs whose worker stopped mid-render to the queue, failing
// those that already used MaxAttempts.
func (p *Processor) ReclaimStale(ctx context.Context) (requeued, failed int, err error) {
	staleAfter := p.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	now := p.Now()
	requeued, failed, err = p.Repo.ReclaimStale(ctx, now.Add(-staleAfter), maxAttempts, staleReason, now)
	if err != nil {
		return requeued, failed, err
	}
	if requeued > 0 || failed > 0 {
		telemetry.Warn("export.reclaimed_stale", map[string]any{"requeued": requeued, "failed": failed})
		for i := 0; i < failed; i++ {
			metrics.IncExport(false)
		}
	}
	if requeued > 0 {
		p.Wake()
	}
	return requeued, failed, nil
}

// Cleanup reclaims stale processing jobs, then deletes the blobs of completed
// jobs past their expiry and marks them expired.
func (p *Processor) Cleanup(ctx context.Context) (int, error) {
	_, _, reclaimErr := p.ReclaimStale(ctx)
	now := p.Now()
	jobs, err := p.Repo.ListExpired(ctx, now, cleanupBatch)
	if err != nil {
		return 0, errors.Join(reclaimErr, err)
	}
	expired := 0
	for _, job := range jobs {
		if job.StorageKey != "" {
			if err := p.Store.Delete(ctx, job.StorageKey); err != nil {
				telemetry.Warn("export.blob_delete_failed", map[string]any{"export_id": job.ID, "error": err.Error()})
				continue
			}
		}
		ok, err := p.Repo.MarkExpired(ctx, job.ID, now)
		if err != nil {
			return expired, errors.Join(reclaimErr, err)
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		telemetry.Info("export.cleanup", map[string]any{"expired": expired})
	}
	return expired, reclaimErr
}

func (p *Processor) renderTimeout() time.Duration {
	if p.RenderTimeout <= 0 {
		return DefaultRenderTimeout
	}
	return p.RenderTimeout
}

func (p *Processor) ttl() time.Duration {
	if p.TTL <= 0 {
		return DefaultTTL
	}
	return p.TTL
}
