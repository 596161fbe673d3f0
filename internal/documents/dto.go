package documents

import (
	"encoding/json"
	"time"
)

type createRequest struct {
	Kind       string          `json:"kind" validate:"required,oneof=resume cover_letter"`
	Title      string          `json:"title" validate:"required,max=200"`
	Content    json.RawMessage `json:"content"`
	TemplateID string          `json:"templateId" validate:"omitempty,max=64"`
}

type updateRequest struct {
	Version    int             `json:"version" validate:"required,gte=1"`
	Title      *string         `json:"title" validate:"omitempty,max=200"`
	Content    json.RawMessage `json:"content"`
	TemplateID *string         `json:"templateId" validate:"omitempty,max=64"`
}

type statusRequest struct {
	Version int    `json:"version" validate:"required,gte=1"`
	Status  string `json:"status" validate:"required,oneof=draft active archived"`
}

type restoreRequest struct {
	Version int `json:"version" validate:"required,gte=1"`
}

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Title      string          `json:"title"`
	Content    json.RawMessage `json:"content"`
	TemplateID string          `json:"templateId"`
	Status     string          `json:"status"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// SummaryResponse is a list item; content is omitted.
type SummaryResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	TemplateID string    `json:"templateId"`
	Status     string    `json:"status"`
	Version    int       `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type VersionResponse struct {
	Version   int             `json:"version"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ToResponse converts a document to its API shape.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Kind:       string(doc.Kind),
		Title:      doc.Title,
		Content:    doc.Content,
		TemplateID: doc.TemplateID,
		Status:     string(doc.Status),
		Version:    doc.Version,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toSummary(doc Document) SummaryResponse {
	return SummaryResponse{
		ID:         doc.ID,
		Kind:       string(doc.Kind),
		Title:      doc.Title,
		TemplateID: doc.TemplateID,
		Status:     string(doc.Status),
		Version:    doc.Version,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toVersionResponse(v Version, withContent bool) VersionResponse {
	out := VersionResponse{Version: v.Version, Title: v.Title, CreatedAt: v.CreatedAt}
	if withContent {
		out.Content = v.Content
	}
	return out
}
