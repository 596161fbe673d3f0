package scoring

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"resume-builder/internal/content"
)

const (
	CategoryATS          = "ats"
	CategoryKeywords     = "keywords"
	CategoryContent      = "content"
	CategoryFormat       = "format"
	CategoryCompleteness = "completeness"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

const suggestedKeywordCount = 5

// Suggestion is one ranked improvement hint. Impact estimates overall points gained.
type Suggestion struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Priority string  `json:"priority"`
	Title    string  `json:"title"`
	Detail   string  `json:"detail"`
	Impact   int     `json:"impact"`
	Effort   string  `json:"effort"`
	Action   *Action `json:"action,omitempty"`
}

func buildSuggestions(d Dimensions, b Breakdown) []Suggestion {
	var out []Suggestion
	add := func(category, title, detail string, points int, effort string, action *Action) {
		out = append(out, Suggestion{
			ID:       category + "." + slugify(title),
			Category: category,
			Priority: priorityFor(dimensionScore(d, category)),
			Title:    title,
			Detail:   detail,
			Impact:   impactFor(category, points),
			Effort:   effort,
			Action:   action,
		})
	}

	ats := b.ATS
	if !ats.StandardSections {
		add(CategoryATS, "Include the standard sections", "Applicant tracking systems look for Experience, Education and Skills headings.", atsCheckPoints, EffortMedium, nil)
	}
	if !ats.NoPhoto {
		add(CategoryATS, "Remove the photo", "Photos are dropped or misread by most applicant tracking systems.", atsCheckPoints, EffortLow,
			&Action{Op: OpRemove, Path: "basics.photoUrl"})
	}
	if !ats.RecognizedFont {
		add(CategoryATS, "Use a standard font", "Uncommon fonts can be substituted or garbled during parsing.", atsCheckPoints, EffortLow,
			&Action{Op: OpSet, Path: "settings.fontFamily", Value: defaultSafeFont})
	}
	if !ats.SingleColumn {
		add(CategoryATS, "Switch to a single-column layout", "Multi-column layouts are often read out of order.", atsCheckPoints, EffortLow,
			&Action{Op: OpSet, Path: "settings.columns", Value: singleColumnLayout})
	}
	if !ats.PDFCompatible {
		add(CategoryATS, "Choose an ATS-safe template", "This template uses graphics or layout that parsers handle poorly.", atsCheckPoints, EffortLow, nil)
	}

	if b.JobDescriptionProvided && len(b.MissingKeywords) > 0 {
		top := b.MissingKeywords
		if len(top) > suggestedKeywordCount {
			top = top[:suggestedKeywordCount]
		}
		total := len(b.MatchedKeywords) + len(b.MissingKeywords)
		points := int(math.Round(float64(len(b.MissingKeywords)) / float64(total) * 100))
		add(CategoryKeywords, "Add missing job keywords", "Missing: "+strings.Join(top, ", ")+".", points, EffortMedium,
			&Action{Op: OpAppend, Path: "skills", Value: content.Skill{Name: "Job keywords", Keywords: top}})
	}

	switch {
	case b.BulletCount == 0:
		add(CategoryContent, "Add achievement bullets", "Describe each role with two to five bullets about results.", verbPoints, EffortHigh, nil)
	default:
		n := float64(b.BulletCount)
		if b.ActionVerbCount < b.BulletCount {
			missing := float64(b.BulletCount-b.ActionVerbCount) / n
			add(CategoryContent, "Start bullets with action verbs", "Lead with verbs such as Led, Built or Reduced.",
				int(math.Round(verbPoints*missing)), EffortMedium, nil)
		}
		if b.QuantifiedCount < b.BulletCount {
			missing := float64(b.BulletCount-b.QuantifiedCount) / n
			points := int(math.Round(quantPoints * missing))
			if !b.HasQuantifiedAchievement {
				points += quantBonusPoint
			}
			add(CategoryContent, "Quantify your achievements", "Add numbers, percentages or amounts to show impact.", points, EffortMedium, nil)
		}
	}

	if !b.Format.UniformDates && len(b.DateFormats) > 0 {
		add(CategoryFormat, "Use one date format", "Found: "+strings.Join(b.DateFormats, ", ")+".", datePoints, EffortLow, nil)
	}
	if !b.Format.UniformPunctuation && b.BulletCount > 0 {
		add(CategoryFormat, "Make bullet punctuation consistent", "End every bullet with a period, or none of them.", punctuationPoints, EffortLow, nil)
	}
	if !b.Format.UniformCapitalization && b.BulletCount > 0 {
		add(CategoryFormat, "Capitalize bullets consistently", "Start every bullet the same way.", capitalizationPoints, EffortLow, nil)
	}

	comp := b.Completeness
	if !comp.Contact {
		add(CategoryCompleteness, "Add your name and email", "Recruiters need a way to reach you.", completenessCheckPoints, EffortLow, nil)
	}
	if !comp.Work {
		add(CategoryCompleteness, "Add work experience", "List your roles, newest first.", completenessCheckPoints, EffortHigh, nil)
	}
	if !comp.Education {
		add(CategoryCompleteness, "Add education", "Include degrees, bootcamps or relevant courses.", completenessCheckPoints, EffortMedium, nil)
	}
	if !comp.Skills {
		add(CategoryCompleteness, "Add a skills section", "Group tools and technologies you use.", completenessCheckPoints, EffortLow, nil)
	}
	if !comp.Summary {
		add(CategoryCompleteness, "Add a professional summary", "Two or three sentences on who you are and what you target.", completenessCheckPoints, EffortLow, nil)
	}

	rankSuggestions(out)
	if out == nil {
		out = []Suggestion{}
	}
	return out
}

func dimensionScore(d Dimensions, category string) int {
	switch category {
	case CategoryATS:
		return d.ATS
	case CategoryKeywords:
		return d.Keywords
	case CategoryContent:
		return d.Content
	case CategoryFormat:
		return d.Format
	default:
		return d.Completeness
	}
}

func dimensionWeight(category string) int {
	switch category {
	case CategoryATS:
		return weightATS
	case CategoryKeywords:
		return weightKeywords
	case CategoryContent:
		return weightContent
	case CategoryFormat:
		return weightFormat
	default:
		return weightCompleteness
	}
}

// priorityFor derives priority from how far a dimension is below full marks.
func priorityFor(score int) string {
	gap := 100 - score
	switch {
	case gap >= 50:
		return PriorityHigh
	case gap >= 20:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// impactFor converts dimension points into overall points.
func impactFor(category string, points int) int {
	return int(math.Round(float64(points*dimensionWeight(category)) / 100))
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

func categoryRank(c string) int {
	switch c {
	case CategoryCompleteness:
		return 5
	case CategoryATS:
		return 4
	case CategoryKeywords:
		return 3
	case CategoryContent:
		return 2
	default:
		return 1
	}
}

func rankSuggestions(items []Suggestion) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if priorityRank(a.Priority) != priorityRank(b.Priority) {
			return priorityRank(a.Priority) > priorityRank(b.Priority)
		}
		if a.Impact != b.Impact {
			return a.Impact > b.Impact
		}
		if categoryRank(a.Category) != categoryRank(b.Category) {
			return categoryRank(a.Category) > categoryRank(b.Category)
		}
		return a.Title < b.Title
	})
}

func slugify(input string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
