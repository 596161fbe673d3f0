package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"resume-builder/internal/content"
)

const (
	verbPoints      = 50
	quantPoints     = 30
	quantBonusPoint = 20
)

var actionVerbs = toSet(strings.Fields(`
accelerated achieved analyzed architected automated boosted built championed coached collaborated
consolidated coordinated created cut decreased delivered deployed designed developed directed drove
eliminated engineered established expanded founded generated grew headed implemented improved increased
initiated integrated introduced launched led managed mentored migrated modernized negotiated optimized
orchestrated organized oversaw owned partnered pioneered produced published redesigned reduced refactored
resolved restructured saved scaled secured shipped simplified spearheaded standardized streamlined
supervised trained transformed won wrote
`))

var quantifiedPattern = regexp.MustCompile(`[$€£¥]\s?\d|\d+(?:[.,]\d+)?\s?%|\b\d+(?:[.,]\d+)?[kKmMbBxX]?\b`)

// calendarYear is a bare year; it dates a bullet rather than quantifying it.
var calendarYear = regexp.MustCompile(`^(?:19|20)\d{2}$`)

func scoreContent(r content.Resume, b *Breakdown) int {
	items := bullets(r)
	b.BulletCount = len(items)
	for _, bullet := range items {
		if startsWithActionVerb(bullet) {
			b.ActionVerbCount++
		}
		if quantified(bullet) {
			b.QuantifiedCount++
		}
	}
	b.HasQuantifiedAchievement = b.QuantifiedCount > 0
	if b.BulletCount == 0 {
		return 0
	}

	n := float64(b.BulletCount)
	score := verbPoints*float64(b.ActionVerbCount)/n + quantPoints*float64(b.QuantifiedCount)/n
	if b.HasQuantifiedAchievement {
		score += quantBonusPoint
	}
	return clamp(int(math.Round(score)))
}

func quantified(bullet string) bool {
	for _, m := range quantifiedPattern.FindAllString(bullet, -1) {
		if !calendarYear.MatchString(m) {
			return true
		}
	}
	return false
}

func startsWithActionVerb(bullet string) bool {
	word := strings.TrimLeftFunc(bullet, func(r rune) bool { return !unicode.IsLetter(r) })
	if i := strings.IndexFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		word = word[:i]
	}
	return actionVerbs[strings.ToLower(word)]
}
