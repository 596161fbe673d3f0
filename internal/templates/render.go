package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"resume-builder/internal/content"
)

//go:embed layouts/*.html.tmpl
var layoutFS embed.FS

var (
	layoutsOnce sync.Once
	layouts     *template.Template
	layoutsErr  error
)

var funcs = template.FuncMap{
	"join": strings.Join,
	"dateRange": func(start, end string, current bool) string {
		switch {
		case current && start != "":
			return start + " - Present"
		case start != "" && end != "":
			return start + " - " + end
		case end != "":
			return end
		default:
			return start
		}
	},
}

func loadLayouts() (*template.Template, error) {
	layoutsOnce.Do(func() {
		layouts, layoutsErr = template.New("layouts").Funcs(funcs).ParseFS(layoutFS, "layouts/*.html.tmpl")
	})
	return layouts, layoutsErr
}

type view struct {
	Title       string
	FontFamily  template.CSS
	Accent      template.CSS
	Columns     int
	Resume      *content.Resume
	CoverLetter *content.CoverLetter
}

// Render produces a standalone HTML page for a document using t.
// Settings stored in the content override the template's font and column count.
func Render(t Template, title string, raw json.RawMessage) ([]byte, error) {
	tpl, err := loadLayouts()
	if err != nil {
		return nil, fmt.Errorf("load layouts: %w", err)
	}

	settings := content.SettingsOf(raw)
	v := view{
		Title:      title,
		FontFamily: template.CSS(cssFont(firstNonEmpty(settings.FontFamily, t.FontFamily))),
		Accent:     template.CSS(cssColor(t.Accent)),
		Columns:    t.Columns,
	}
	if settings.Columns > 0 {
		v.Columns = settings.Columns
	}
	switch t.Kind {
	case content.KindCoverLetter:
		letter := content.DecodeCoverLetter(raw)
		v.CoverLetter = &letter
	default:
		resume := content.DecodeResume(raw)
		v.Resume = &resume
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, t.Layout+".html.tmpl", v); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.ID, err)
	}
	return buf.Bytes(), nil
}

// cssFont keeps only characters that are safe inside a font-family declaration.
func cssFont(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "Arial"
	}
	if strings.Contains(out, " ") {
		return `"` + out + `"`
	}
	return out
}

func cssColor(raw string) string {
	if len(raw) == 7 && raw[0] == '#' {
		for _, r := range raw[1:] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return "#222222"
			}
		}
		return raw
	}
	return "#222222"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
