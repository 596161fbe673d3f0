package scoring

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JobDescriptionText reduces a pasted job description to plain text.
// Input that looks like HTML is parsed and stripped of scripts and styles.
func JobDescriptionText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if looksLikeHTML(raw) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			doc.Find("script, style, noscript").Remove()
			doc.Find("br, p, li, div, h1, h2, h3, h4, tr").Each(func(_ int, s *goquery.Selection) {
				s.AppendHtml("\n")
			})
			raw = doc.Text()
		}
	}
	return collapseWhitespace(raw)
}

func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}

func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
