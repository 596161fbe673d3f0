package scoring

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"resume-builder/internal/content"
)

const (
	datePoints           = 40
	punctuationPoints    = 30
	capitalizationPoints = 30
)

var dateFormats = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"YYYY-MM-DD", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	{"YYYY-MM", regexp.MustCompile(`^\d{4}-\d{1,2}$`)},
	{"MM/YYYY", regexp.MustCompile(`^\d{1,2}/\d{4}$`)},
	{"YYYY", regexp.MustCompile(`^\d{4}$`)},
	{"Mon YYYY", regexp.MustCompile(`^(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)\.? \d{4}$`)},
	{"Month YYYY", regexp.MustCompile(`^(?i)(january|february|march|april|may|june|july|august|september|october|november|december) \d{4}$`)},
}

func scoreFormat(r content.Resume, b *Breakdown) int {
	formats := map[string]bool{}
	dates := 0
	for _, d := range collectDates(r) {
		dates++
		formats[classifyDate(d)] = true
	}
	b.DateFormats = make([]string, 0, len(formats))
	for f := range formats {
		b.DateFormats = append(b.DateFormats, f)
	}
	sort.Strings(b.DateFormats)

	items := bullets(r)
	b.Format = FormatChecklist{
		UniformDates:          dates > 0 && len(formats) <= 1,
		UniformPunctuation:    uniform(items, endsWithPeriod),
		UniformCapitalization: uniform(items, capitalized),
	}

	score := 0
	if b.Format.UniformDates {
		score += datePoints
	}
	if b.Format.UniformPunctuation {
		score += punctuationPoints
	}
	if b.Format.UniformCapitalization {
		score += capitalizationPoints
	}
	return score
}

func collectDates(r content.Resume) []string {
	var raw []string
	for _, w := range r.Work {
		raw = append(raw, w.StartDate, w.EndDate)
	}
	for _, e := range r.Education {
		raw = append(raw, e.StartDate, e.EndDate)
	}
	for _, c := range r.Certifications {
		raw = append(raw, c.Date)
	}
	var out []string
	for _, d := range raw {
		d = strings.TrimSpace(d)
		if d == "" || strings.EqualFold(d, "present") || strings.EqualFold(d, "current") {
			continue
		}
		out = append(out, d)
	}
	return out
}

func classifyDate(d string) string {
	for _, f := range dateFormats {
		if f.pattern.MatchString(d) {
			return f.name
		}
	}
	return "other"
}

// classifier reports a class for s and whether s can be classified at all.
type classifier func(s string) (class bool, ok bool)

// uniform reports whether every classifiable item falls into the same class.
// Nothing classifiable means the check fails.
func uniform(items []string, classify classifier) bool {
	seen := map[bool]bool{}
	for _, item := range items {
		if class, ok := classify(item); ok {
			seen[class] = true
		}
	}
	return len(seen) == 1
}

func endsWithPeriod(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, false
	}
	return strings.HasSuffix(s, "."), true
}

func capitalized(s string) (bool, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r), true
		}
		if unicode.IsDigit(r) {
			return false, false
		}
	}
	return false, false
}
