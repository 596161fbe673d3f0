package ai

import (
	"embed"
	"strings"
	"text/template"
)

const systemPrompt = "You are a résumé writing assistant. Be concise and factual. Never fabricate experience."

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func renderPrompt(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name+".tmpl", data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
