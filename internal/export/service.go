package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/content"
	"resume-builder/internal/documents"
	"resume-builder/internal/queue"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
)

const (
	DefaultTTL         = 7 * 24 * time.Hour
	DefaultDownloadTTL = 15 * time.Minute
	defaultListLimit   = 50
)

// DocumentSource is the part of the document service exports read from.
type DocumentSource interface {
	Get(ctx context.Context, userID, id string) (documents.Document, error)
	GetVersion(ctx context.Context, userID, id string, version int) (documents.Version, error)
	ResolveTemplate(kind content.Kind, templateID string) (string, error)
	RenderHTML(doc documents.Document, templateID ...string) ([]byte, error)
}

// Service contains the request-side export operations.
type Service struct {
	Repo        Repo
	Docs        DocumentSource
	Store       object.Store
	Queue       queue.Client
	DownloadTTL time.Duration
	Now         func() time.Time
	// Wake nudges an in-process worker after a job is created.
	Wake func()
}

func NewService(repo Repo, docs DocumentSource, store object.Store) *Service {
	return &Service{
		Repo:        repo,
		Docs:        docs,
		Store:       store,
		DownloadTTL: DefaultDownloadTTL,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	TemplateID string
	RequestID  string
}

// Create records a pending job for the document's current version.
func (s *Service) Create(ctx context.Context, userID, documentID string, in CreateInput) (Job, error) {
	doc, err := s.Docs.Get(ctx, userID, documentID)
	if err != nil {
		return Job{}, err
	}
	templateID := strings.TrimSpace(in.TemplateID)
	if templateID == "" {
		templateID = doc.TemplateID
	}
	templateID, err = s.Docs.ResolveTemplate(doc.Kind, templateID)
	if err != nil {
		return Job{}, err
	}

	now := s.Now()
	job := Job{
		ID:              uuid.NewString(),
		UserID:          userID,
		DocumentID:      doc.ID,
		DocumentVersion: doc.Version,
		TemplateID:      templateID,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("export.created", map[string]any{
		"export_id":   job.ID,
		"document_id": job.DocumentID,
		"version":     job.DocumentVersion,
		"user_id":     userID,
	})
	s.notify(ctx, job, in.RequestID)
	return job, nil
}

// notify is best effort; a poller still finds the pending row.
func (s *Service) notify(ctx context.Context, job Job, requestID string) {
	if s.Queue != nil {
		msg := queue.NewExportMessage(job.ID, requestID, s.Now())
		if err := s.Queue.Send(context.WithoutCancel(ctx), msg); err != nil {
			telemetry.Error("export.enqueue_failed", map[string]any{"export_id": job.ID, "error": err.Error()})
		}
	}
	if s.Wake != nil {
		s.Wake()
	}
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Job, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.Repo.List(ctx, userID, limit)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Job, error) {
	if !validID(id) {
		return Job{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, id)
}

// Cancel marks a pending or processing job cancelled. A render already in flight finishes but its result is discarded.
func (s *Service) Cancel(ctx context.Context, userID, id string) (Job, error) {
	if !validID(id) {
		return Job{}, ErrNotFound
	}
	job, err := s.Repo.Cancel(ctx, userID, id, s.Now())
	if err != nil {
		return Job{}, err
	}
	telemetry.Info("export.cancelled", map[string]any{"export_id": id, "user_id": userID})
	return job, nil
}

// Download returns a time-limited URL for a completed export.
func (s *Service) Download(ctx context.Context, userID, id string) (Link, error) {
	job, err := s.ready(ctx, userID, id)
	if err != nil {
		return Link{}, err
	}
	ttl := s.DownloadTTL
	if ttl <= 0 {
		ttl = DefaultDownloadTTL
	}
	if job.ExpiresAt != nil {
		if remaining := job.ExpiresAt.Sub(s.Now()); remaining < ttl {
			ttl = remaining
		}
	}
	url, err := s.Store.DownloadURL(ctx, job.StorageKey, FileName(job), ttl)
	if err != nil {
		return Link{}, apperr.Internal(fmt.Errorf("download url: %w", err))
	}
	return Link{URL: url, ExpiresAt: s.Now().Add(ttl)}, nil
}

// Open streams a completed export's blob.
func (s *Service) Open(ctx context.Context, userID, id string) (io.ReadCloser, Job, error) {
	job, err := s.ready(ctx, userID, id)
	if err != nil {
		return nil, Job{}, err
	}
	body, err := s.Store.Open(ctx, job.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, Job{}, ErrNotFound
		}
		return nil, Job{}, apperr.Internal(fmt.Errorf("open export: %w", err))
	}
	return body, job, nil
}

func (s *Service) ready(ctx context.Context, userID, id string) (Job, error) {
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return Job{}, err
	}
	if job.Status != StatusCompleted || job.StorageKey == "" {
		return Job{}, ErrNotReady
	}
	if job.ExpiresAt != nil && !job.ExpiresAt.After(s.Now()) {
		return Job{}, ErrNotReady
	}
	return job, nil
}

// PurgeUser deletes the user's jobs and their blobs. Blob deletion failures are logged.
func (s *Service) PurgeUser(ctx context.Context, userID string) (int, error) {
	jobs, err := s.Repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		if job.StorageKey == "" {
			continue
		}
		if err := s.Store.Delete(ctx, job.StorageKey); err != nil {
			telemetry.Warn("export.blob_delete_failed", map[string]any{"export_id": job.ID, "error": err.Error()})
		}
	}
	return len(jobs), nil
}

// FileName is the attachment name offered for a job's PDF.
func FileName(job Job) string {
	return fmt.Sprintf("%s-v%d.pdf", path.Base(job.DocumentID), job.DocumentVersion)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
