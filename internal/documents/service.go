package documents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-builder/internal/content"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/templates"
)

const maxTitleLength = 200

// Service contains business logic for documents.
type Service struct {
	Repo    Repo
	Catalog *templates.Catalog
	Now     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, catalog *templates.Catalog) *Service {
	return &Service{Repo: repo, Catalog: catalog, Now: func() time.Time { return time.Now().UTC() }}
}

type CreateInput struct {
	Kind       content.Kind
	Title      string
	Content    json.RawMessage
	TemplateID string
}

type UpdateInput struct {
	Version    int
	Title      *string
	Content    json.RawMessage
	TemplateID *string
}

// Create stores a new draft at version 1.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Document, error) {
	if !in.Kind.Valid() {
		return Document{}, apperr.Validation("invalid kind", apperr.FieldError{Field: "kind", Issue: "must be one of: resume cover_letter"})
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return Document{}, err
	}
	raw := in.Content
	if len(raw) == 0 || string(raw) == "null" {
		raw = content.Empty
	}
	if err := content.Validate(in.Kind, raw); err != nil {
		return Document{}, err
	}
	templateID, err := s.resolveTemplate(in.Kind, in.TemplateID)
	if err != nil {
		return Document{}, err
	}

	now := s.Now()
	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       in.Kind,
		Title:      title,
		Content:    raw,
		TemplateID: templateID,
		Status:     StatusDraft,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	telemetry.Info("document.created", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"kind":        string(doc.Kind),
	})
	return doc, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	if !validID(id) {
		return Document{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperr.Validation("invalid kind", apperr.FieldError{Field: "kind", Issue: "must be one of: resume cover_letter"})
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("invalid status", apperr.FieldError{Field: "status", Issue: "must be one of: draft active archived"})
	}
	return s.Repo.List(ctx, userID, filter)
}

// Update applies a title, content or template change through the version guard.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Document, error) {
	if err := requireVersion(in.Version); err != nil {
		return Document{}, err
	}
	if in.Title == nil && in.Content == nil && in.TemplateID == nil {
		return Document{}, apperr.Validation("nothing to update", apperr.FieldError{Field: "title", Issue: "title, content or templateId is required"})
	}
	if !validID(id) {
		return Document{}, ErrNotFound
	}

	var patch Patch
	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return Document{}, err
		}
		patch.Title = &title
	}
	if in.Content != nil || in.TemplateID != nil {
		current, err := s.Repo.Get(ctx, userID, id)
		if err != nil {
			return Document{}, err
		}
		if in.Content != nil {
			if err := content.Validate(current.Kind, in.Content); err != nil {
				return Document{}, err
			}
			patch.Content = in.Content
		}
		if in.TemplateID != nil {
			templateID, err := s.resolveTemplate(current.Kind, *in.TemplateID)
			if err != nil {
				return Document{}, err
			}
			patch.TemplateID = &templateID
		}
	}
	return s.guardedUpdate(ctx, userID, id, in.Version, patch)
}

// ChangeStatus moves a document through its lifecycle; the change is versioned like any other update.
func (s *Service) ChangeStatus(ctx context.Context, userID, id string, version int, status Status) (Document, error) {
	if err := requireVersion(version); err != nil {
		return Document{}, err
	}
	if !status.Valid() {
		return Document{}, apperr.Validation("invalid status", apperr.FieldError{Field: "status", Issue: "must be one of: draft active archived"})
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return Document{}, err
	}
	if current.Version != version {
		metrics.IncDocumentConflict()
		return Document{}, ErrConflict
	}
	if !CanTransition(current.Status, status) {
		return Document{}, apperr.Validation("invalid status transition", apperr.FieldError{
			Field: "status",
			Issue: "cannot move from " + string(current.Status) + " to " + string(status),
		})
	}
	return s.guardedUpdate(ctx, userID, id, version, Patch{Status: &status})
}

// ReplaceContent swaps the whole content under the version guard.
func (s *Service) ReplaceContent(ctx context.Context, userID, id string, version int, raw json.RawMessage) (Document, error) {
	return s.Update(ctx, userID, id, UpdateInput{Version: version, Content: raw})
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.Repo.SoftDelete(ctx, userID, id, s.Now()); err != nil {
		return err
	}
	telemetry.Info("document.deleted", map[string]any{"document_id": id, "user_id": userID})
	return nil
}

// Duplicate copies a document into a new draft at version 1.
func (s *Service) Duplicate(ctx context.Context, userID, id string) (Document, error) {
	src, err := s.Get(ctx, userID, id)
	if err != nil {
		return Document{}, err
	}
	title := truncateRunes(src.Title+" (copy)", maxTitleLength)
	return s.Create(ctx, userID, CreateInput{
		Kind:       src.Kind,
		Title:      title,
		Content:    src.Content,
		TemplateID: src.TemplateID,
	})
}

func (s *Service) ListVersions(ctx context.Context, userID, id string) ([]Version, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return s.Repo.ListVersions(ctx, userID, id)
}

func (s *Service) GetVersion(ctx context.Context, userID, id string, version int) (Version, error) {
	if !validID(id) {
		return Version{}, ErrNotFound
	}
	if version < 1 {
		return Version{}, ErrVersionNotFound
	}
	return s.Repo.GetVersion(ctx, userID, id, version)
}

// Restore replays snapshot target as a new version. expectedVersion is the version the caller last read.
func (s *Service) Restore(ctx context.Context, userID, id string, target, expectedVersion int) (Document, error) {
	if err := requireVersion(expectedVersion); err != nil {
		return Document{}, err
	}
	snap, err := s.GetVersion(ctx, userID, id, target)
	if err != nil {
		return Document{}, err
	}
	title := snap.Title
	doc, err := s.guardedUpdate(ctx, userID, id, expectedVersion, Patch{Title: &title, Content: snap.Content})
	if err != nil {
		return Document{}, err
	}
	telemetry.Info("document.restored", map[string]any{
		"document_id":  id,
		"user_id":      userID,
		"from_version": target,
		"new_version":  doc.Version,
	})
	return doc, nil
}

// Preview renders the document with its template.
func (s *Service) Preview(ctx context.Context, userID, id string) ([]byte, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.RenderHTML(doc)
}

// RenderHTML renders doc with templateID, falling back to the document's own template.
func (s *Service) RenderHTML(doc Document, templateID ...string) ([]byte, error) {
	id := doc.TemplateID
	if len(templateID) > 0 && templateID[0] != "" {
		id = templateID[0]
	}
	tpl, ok := s.Catalog.Lookup(id)
	if !ok || tpl.Kind != doc.Kind {
		tpl, _ = s.Catalog.Lookup(s.Catalog.DefaultFor(doc.Kind))
	}
	return templates.Render(tpl, doc.Title, doc.Content)
}

// ResolveTemplate validates templateID for kind, returning the default when it is empty.
func (s *Service) ResolveTemplate(kind content.Kind, templateID string) (string, error) {
	return s.resolveTemplate(kind, templateID)
}

// TransferOwnership moves a guest's documents to a signed-in user.
func (s *Service) TransferOwnership(ctx context.Context, fromUserID, toUserID string) (int, error) {
	return s.Repo.Reassign(ctx, fromUserID, toUserID, s.Now())
}

// DeleteAllForUser soft-deletes every document the user owns.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	return s.Repo.SoftDeleteAll(ctx, userID, s.Now())
}

func (s *Service) guardedUpdate(ctx context.Context, userID, id string, version int, patch Patch) (Document, error) {
	if patch.empty() {
		return Document{}, apperr.Validation("nothing to update")
	}
	doc, err := s.Repo.Update(ctx, userID, id, version, patch, s.Now())
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncDocumentConflict()
			telemetry.Warn("document.version_conflict", map[string]any{
				"document_id":      id,
				"user_id":          userID,
				"expected_version": version,
			})
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) resolveTemplate(kind content.Kind, templateID string) (string, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return s.Catalog.DefaultFor(kind), nil
	}
	tpl, ok := s.Catalog.Lookup(templateID)
	if !ok {
		return "", apperr.Validation("unknown template", apperr.FieldError{Field: "templateId", Issue: "unknown template"})
	}
	if tpl.Kind != kind {
		return "", apperr.Validation("template does not match document kind", apperr.FieldError{Field: "templateId", Issue: "template is for " + string(tpl.Kind)})
	}
	return tpl.ID, nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Validation("title is required", apperr.FieldError{Field: "title", Issue: "required"})
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperr.Validation("title is too long", apperr.FieldError{Field: "title", Issue: "must be at most 200"})
	}
	return title, nil
}

func requireVersion(version int) error {
	if version < 1 {
		return apperr.Validation("version is required", apperr.FieldError{Field: "version", Issue: "must be >= 1"})
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
