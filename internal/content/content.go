// Package content defines the JSON shapes stored in résumé and cover-letter documents.
package content

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/jsonschema"
)

type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover_letter"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindResume || k == KindCoverLetter
}

var (
	//go:embed schemas/resume.schema.json
	resumeSchemaJSON []byte
	//go:embed schemas/cover_letter.schema.json
	coverLetterSchemaJSON []byte

	resumeSchema      = jsonschema.MustCompile("resume", resumeSchemaJSON)
	coverLetterSchema = jsonschema.MustCompile("cover letter", coverLetterSchemaJSON)
)

// Empty is the content of a freshly created document.
var Empty = json.RawMessage(`{}`)

// Validate checks raw content against the schema for kind.
func Validate(kind Kind, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return apperr.Validation("content must be a JSON object", apperr.FieldError{Field: "content", Issue: "must be an object"})
	}
	switch kind {
	case KindResume:
		return resumeSchema.Validate("content", trimmed)
	case KindCoverLetter:
		return coverLetterSchema.Validate("content", trimmed)
	default:
		return apperr.Validation("unknown document kind", apperr.FieldError{Field: "kind", Issue: "must be one of: resume cover_letter"})
	}
}

// Settings are the layout choices shared by every kind.
type Settings struct {
	TemplateID string `json:"templateId,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
	Columns    int    `json:"columns,omitempty"`
}

// SettingsOf reads only the settings object from raw content.
func SettingsOf(raw json.RawMessage) Settings {
	var doc struct {
		Settings Settings `json:"settings"`
	}
	_ = json.Unmarshal(raw, &doc)
	return doc.Settings
}
