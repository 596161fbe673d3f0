package scoring

import (
	"strings"

	"resume-builder/internal/content"
)

const completenessCheckPoints = 20

func scoreCompleteness(r content.Resume, b *Breakdown) int {
	b.Completeness = CompletenessChecklist{
		Contact:   strings.TrimSpace(r.Basics.Name) != "" && strings.TrimSpace(r.Basics.Email) != "",
		Work:      len(r.Work) > 0,
		Education: len(r.Education) > 0,
		Skills:    hasSkills(r),
		Summary:   strings.TrimSpace(r.Summary) != "",
	}
	score := 0
	for _, ok := range []bool{b.Completeness.Contact, b.Completeness.Work, b.Completeness.Education, b.Completeness.Skills, b.Completeness.Summary} {
		if ok {
			score += completenessCheckPoints
		}
	}
	return score
}
