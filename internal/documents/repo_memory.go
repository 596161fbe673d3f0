package documents

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	docs     map[string]Document  // id -> document
	versions map[string][]Version // id -> snapshots, oldest first
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:     make(map[string]Document),
		versions: make(map[string][]Version),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.Content = cloneRaw(doc.Content)
	r.docs[doc.ID] = doc
	r.versions[doc.ID] = []Version{snapshot(doc)}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.live(userID, id)
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Content = cloneRaw(doc.Content)
	return doc, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Document, 0)
	for _, doc := range r.docs {
		if doc.UserID != userID || doc.IsDeleted {
			continue
		}
		if filter.Kind != "" && doc.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		doc.Content = cloneRaw(doc.Content)
		out = append(out, doc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Document{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID, id string, expectedVersion int, patch Patch, now time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.live(userID, id)
	if !ok {
		return Document{}, ErrNotFound
	}
	if doc.Version != expectedVersion {
		return Document{}, ErrConflict
	}
	applyPatch(&doc, patch)
	doc.Version++
	doc.UpdatedAt = now
	r.docs[id] = doc
	r.versions[id] = append(r.versions[id], snapshot(doc))
	doc.Content = cloneRaw(doc.Content)
	return doc, nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.live(userID, id)
	if !ok {
		return ErrNotFound
	}
	markDeleted(&doc, now)
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepo) ListVersions(ctx context.Context, userID, id string) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.live(userID, id); !ok {
		return nil, ErrNotFound
	}
	history := r.versions[id]
	out := make([]Version, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		v := history[i]
		v.Content = cloneRaw(v.Content)
		out = append(out, v)
	}
	return out, nil
}

func (r *MemoryRepo) GetVersion(ctx context.Context, userID, id string, version int) (Version, error) {
	if err := ctx.Err(); err != nil {
		return Version{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.live(userID, id); !ok {
		return Version{}, ErrNotFound
	}
	for _, v := range r.versions[id] {
		if v.Version == version {
			v.Content = cloneRaw(v.Content)
			return v, nil
		}
	}
	return Version{}, ErrVersionNotFound
}

func (r *MemoryRepo) Reassign(ctx context.Context, fromUserID, toUserID string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, doc := range r.docs {
		if doc.UserID != fromUserID || doc.IsDeleted {
			continue
		}
		doc.UserID = toUserID
		doc.UpdatedAt = now
		r.docs[id] = doc
		moved++
	}
	return moved, nil
}

func (r *MemoryRepo) SoftDeleteAll(ctx context.Context, userID string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, doc := range r.docs {
		if doc.UserID != userID || doc.IsDeleted {
			continue
		}
		markDeleted(&doc, now)
		r.docs[id] = doc
		deleted++
	}
	return deleted, nil
}

func (r *MemoryRepo) live(userID, id string) (Document, bool) {
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID || doc.IsDeleted {
		return Document{}, false
	}
	return doc, true
}

func applyPatch(doc *Document, patch Patch) {
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Content != nil {
		doc.Content = cloneRaw(patch.Content)
	}
	if patch.TemplateID != nil {
		doc.TemplateID = *patch.TemplateID
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
}

func markDeleted(doc *Document, now time.Time) {
	doc.IsDeleted = true
	doc.DeletedAt = &now
	doc.UpdatedAt = now
}

func snapshot(doc Document) Version {
	return Version{
		DocumentID: doc.ID,
		Version:    doc.Version,
		Title:      doc.Title,
		Content:    cloneRaw(doc.Content),
		CreatedAt:  doc.UpdatedAt,
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
