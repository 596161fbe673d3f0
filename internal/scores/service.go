package scores

import (
	"context"
	"encoding/json"
	"time"

	"resume-builder/internal/content"
	"resume-builder/internal/documents"
	"resume-builder/internal/scoring"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/shared/util"
)

// DocumentSource is the slice of the documents service scoring needs.
type DocumentSource interface {
	Get(ctx context.Context, userID, id string) (documents.Document, error)
	ReplaceContent(ctx context.Context, userID, id string, version int, raw json.RawMessage) (documents.Document, error)
}

type Service struct {
	Docs DocumentSource
	Repo Repo
	Now  func() time.Time
}

func NewService(docs DocumentSource, repo Repo) *Service {
	return &Service{Docs: docs, Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// Score calculates and stores the score for the document's current version.
func (s *Service) Score(ctx context.Context, userID, documentID, jobDescription string) (Record, error) {
	doc, err := s.resume(ctx, userID, documentID)
	if err != nil {
		return Record{}, err
	}

	// Calculate reduces the raw text itself; jd is only hashed and logged.
	jd := scoring.JobDescriptionText(jobDescription)
	rec := Record{
		DocumentID:   doc.ID,
		UserID:       userID,
		Version:      doc.Version,
		Score:        scoring.Calculate(scoring.Input{Content: doc.Content, JobDescription: jobDescription, TemplateID: doc.TemplateID}),
		CalculatedAt: s.Now(),
	}
	if jd != "" {
		rec.JobDescriptionHash = util.ContentHash(jd)
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		return Record{}, err
	}
	metrics.IncScoreCalculated()
	telemetry.Info("score.calculated", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"version":     doc.Version,
		"overall":     rec.Score.Overall,
		"with_jd":     jd != "",
	})
	return rec, nil
}

func (s *Service) Current(ctx context.Context, userID, documentID string) (Record, error) {
	if _, err := s.Docs.Get(ctx, userID, documentID); err != nil {
		return Record{}, err
	}
	return s.Repo.Current(ctx, documentID)
}

func (s *Service) History(ctx context.Context, userID, documentID string) ([]Record, error) {
	if _, err := s.Docs.Get(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.Repo.History(ctx, documentID)
}

// ApplySuggestion applies a corrective action to the document content through the version guard.
func (s *Service) ApplySuggestion(ctx context.Context, userID, documentID string, version int, action scoring.Action) (documents.Document, error) {
	if version < 1 {
		return documents.Document{}, apperr.Validation("version is required", apperr.FieldError{Field: "version", Issue: "must be >= 1"})
	}
	doc, err := s.Docs.Get(ctx, userID, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if doc.Version != version {
		metrics.IncDocumentConflict()
		return documents.Document{}, documents.ErrConflict
	}
	updated, err := scoring.Apply(doc.Content, action)
	if err != nil {
		return documents.Document{}, err
	}
	return s.Docs.ReplaceContent(ctx, userID, documentID, version, updated)
}

func (s *Service) resume(ctx context.Context, userID, documentID string) (documents.Document, error) {
	doc, err := s.Docs.Get(ctx, userID, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if doc.Kind != content.KindResume {
		return documents.Document{}, apperr.Validation("only résumés can be scored", apperr.FieldError{Field: "documentId", Issue: "document is a " + string(doc.Kind)})
	}
	return doc, nil
}
