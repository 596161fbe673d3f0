// Package jsonschema compiles JSON Schemas once and reports violations as field errors.
package jsonschema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-builder/internal/shared/apperr"
)

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses a schema document.
func Compile(name string, schema []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: compiled}, nil
}

// MustCompile is Compile for schemas embedded in the binary.
func MustCompile(name string, schema []byte) *Schema {
	s, err := Compile(name, schema)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc against the schema. Violations come back as an apperr validation
// error whose field paths are prefixed with root.
func (s *Schema) Validate(root string, doc []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return apperr.Validation("malformed JSON", apperr.FieldError{Field: root, Issue: "must be valid JSON"})
	}
	if result.Valid() {
		return nil
	}
	fields := make([]apperr.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, apperr.FieldError{
			Field: joinField(root, desc.Field()),
			Issue: desc.Description(),
		})
	}
	return apperr.Validation(s.name+" does not match schema", fields...)
}

func joinField(root, field string) string {
	if field == "" || field == "(root)" {
		return root
	}
	field = strings.TrimPrefix(field, "(root).")
	if root == "" {
		return field
	}
	return root + "." + field
}
