// Package templates holds the layout catalog and renders documents to HTML.
package templates

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"resume-builder/internal/content"
)

// Template describes one selectable layout.
type Template struct {
	ID         string       `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	Kind       content.Kind `yaml:"kind" json:"kind"`
	Layout     string       `yaml:"layout" json:"-"`
	FontFamily string       `yaml:"fontFamily" json:"fontFamily"`
	Columns    int          `yaml:"columns" json:"columns"`
	ATSSafe    bool         `yaml:"atsSafe" json:"atsSafe"`
	Accent     string       `yaml:"accent" json:"accent"`
	Default    bool         `yaml:"default" json:"default"`
}

// Catalog is an immutable, ordered set of templates.
type Catalog struct {
	ordered []Template
	byID    map[string]Template
	def     map[content.Kind]string
}

//go:embed catalog.yaml
var catalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Parse builds a catalog from YAML.
func Parse(raw []byte) (*Catalog, error) {
	var file struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]Template), def: make(map[content.Kind]string)}
	for _, t := range file.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template catalog: entry without id")
		}
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("template %s: unknown kind %q", t.ID, t.Kind)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		if t.Columns <= 0 {
			t.Columns = 1
		}
		if t.Layout == "" {
			t.Layout = string(t.Kind)
		}
		c.ordered = append(c.ordered, t)
		c.byID[t.ID] = t
		if t.Default {
			c.def[t.Kind] = t.ID
		}
	}
	for _, kind := range []content.Kind{content.KindResume, content.KindCoverLetter} {
		if _, ok := c.def[kind]; ok {
			continue
		}
		for _, t := range c.ordered {
			if t.Kind == kind {
				c.def[kind] = t.ID
				break
			}
		}
	}
	return c, nil
}

// Lookup returns the template with id.
func (c *Catalog) Lookup(id string) (Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// List returns templates in catalog order; an empty kind returns all of them.
func (c *Catalog) List(kind content.Kind) []Template {
	out := make([]Template, 0, len(c.ordered))
	for _, t := range c.ordered {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// DefaultFor returns the default template id for kind.
func (c *Catalog) DefaultFor(kind content.Kind) string {
	return c.def[kind]
}

// Lookup resolves id against the embedded catalog.
func Lookup(id string) (Template, bool) {
	c, err := Default()
	if err != nil {
		return Template{}, false
	}
	return c.Lookup(id)
}
