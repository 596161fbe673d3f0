package scoring

import (
	"strings"
	"unicode"

	"resume-builder/internal/content"
)

// bullets returns the trimmed, non-empty highlights of work entries then projects.
func bullets(r content.Resume) []string {
	var out []string
	for _, w := range r.Work {
		out = append(out, nonEmpty(w.Highlights)...)
	}
	for _, p := range r.Projects {
		out = append(out, nonEmpty(p.Highlights)...)
	}
	return out
}

// documentText concatenates every free-text field used for keyword matching.
func documentText(r content.Resume) string {
	parts := []string{r.Basics.Label, r.Summary}
	for _, w := range r.Work {
		parts = append(parts, w.Position, w.Company)
		parts = append(parts, w.Highlights...)
	}
	for _, e := range r.Education {
		parts = append(parts, e.Institution, e.Degree, e.Field)
	}
	for _, s := range r.Skills {
		parts = append(parts, s.Name)
		parts = append(parts, s.Keywords...)
	}
	for _, p := range r.Projects {
		parts = append(parts, p.Name, p.Description)
		parts = append(parts, p.Highlights...)
	}
	for _, c := range r.Certifications {
		parts = append(parts, c.Name, c.Issuer)
	}
	return strings.Join(parts, "\n")
}

// tokenize lowercases text and splits it on anything that is not a letter, digit, '+', '#' or '.'.
// Trailing dots are dropped so sentence ends do not glue onto words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !isTokenRune(r) })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		f = strings.TrimLeft(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
