package ai

import (
	"strings"

	"resume-builder/internal/content"
)

// resumeText flattens a résumé into the plain-text layout used in prompts.
func resumeText(r content.Resume) string {
	var b strings.Builder
	line := func(parts ...string) {
		kept := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			b.WriteString(strings.Join(kept, " | "))
			b.WriteByte('\n')
		}
	}
	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(title)
		b.WriteString(":\n")
	}

	line(r.Basics.Name, r.Basics.Label, r.Basics.Location)
	if s := strings.TrimSpace(r.Summary); s != "" {
		section("Summary")
		line(s)
	}
	if len(r.Work) > 0 {
		section("Experience")
		for _, w := range r.Work {
			end := w.EndDate
			if w.Current {
				end = "Present"
			}
			line(w.Position, w.Company, strings.TrimSpace(w.StartDate+" - "+end))
			for _, h := range w.Highlights {
				line("- " + h)
			}
		}
	}
	if len(r.Education) > 0 {
		section("Education")
		for _, e := range r.Education {
			line(e.Degree, e.Field, e.Institution)
		}
	}
	if len(r.Skills) > 0 {
		section("Skills")
		for _, s := range r.Skills {
			line(s.Name, strings.Join(s.Keywords, ", "))
		}
	}
	if len(r.Projects) > 0 {
		section("Projects")
		for _, p := range r.Projects {
			line(p.Name, p.Description)
			for _, h := range p.Highlights {
				line("- " + h)
			}
		}
	}
	if len(r.Certifications) > 0 {
		section("Certifications")
		for _, c := range r.Certifications {
			line(c.Name, c.Issuer, c.Date)
		}
	}
	return strings.TrimSpace(b.String())
}
