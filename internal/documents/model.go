package documents

import (
	"encoding/json"
	"time"

	"resume-builder/internal/content"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusDraft:    {StatusActive},
	StatusActive:   {StatusArchived},
	StatusArchived: {StatusActive},
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Document is a versioned résumé or cover letter owned by a user.
type Document struct {
	ID         string
	UserID     string
	Kind       content.Kind
	Title      string
	Content    json.RawMessage
	TemplateID string
	Status     Status
	Version    int
	IsDeleted  bool
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Version is an immutable snapshot written on create and on every guarded update.
type Version struct {
	DocumentID string
	Version    int
	Title      string
	Content    json.RawMessage
	CreatedAt  time.Time
}

// Patch is a partial change applied by the update guard. Nil fields are left untouched.
type Patch struct {
	Title      *string
	Content    json.RawMessage
	TemplateID *string
	Status     *Status
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Content == nil && p.TemplateID == nil && p.Status == nil
}

// ListFilter narrows a document listing. Zero values mean no filter.
type ListFilter struct {
	Kind   content.Kind
	Status Status
	Limit  int
	Offset int
}
