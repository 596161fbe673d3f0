// Package scoring computes deterministic résumé scores and improvement suggestions.
//
// Calculate is pure: it makes no external calls, uses no randomness and never
// iterates maps when producing output, so identical input yields identical JSON.
package scoring

import (
	"encoding/json"

	"resume-builder/internal/content"
)

// Dimension weights for the overall score. They sum to 100.
const (
	weightATS          = 25
	weightKeywords     = 25
	weightContent      = 20
	weightFormat       = 15
	weightCompleteness = 15
)

// NeutralKeywordScore is the keyword dimension when there is no job description to match.
const NeutralKeywordScore = 50

// Input is everything the calculator looks at.
type Input struct {
	Content        json.RawMessage
	JobDescription string
	// TemplateID is the document's template; content settings.templateId is used when empty.
	TemplateID string
}

type Score struct {
	Overall     int          `json:"overall"`
	Dimensions  Dimensions   `json:"dimensions"`
	Breakdown   Breakdown    `json:"breakdown"`
	Suggestions []Suggestion `json:"suggestions"`
}

type Dimensions struct {
	ATS          int `json:"ats"`
	Keywords     int `json:"keywords"`
	Content      int `json:"content"`
	Format       int `json:"format"`
	Completeness int `json:"completeness"`
}

type ATSChecklist struct {
	StandardSections bool `json:"standardSections"`
	NoPhoto          bool `json:"noPhoto"`
	RecognizedFont   bool `json:"recognizedFont"`
	SingleColumn     bool `json:"singleColumn"`
	PDFCompatible    bool `json:"pdfCompatible"`
}

type CompletenessChecklist struct {
	Contact   bool `json:"contact"`
	Work      bool `json:"work"`
	Education bool `json:"education"`
	Skills    bool `json:"skills"`
	Summary   bool `json:"summary"`
}

type FormatChecklist struct {
	UniformDates          bool `json:"uniformDates"`
	UniformPunctuation    bool `json:"uniformPunctuation"`
	UniformCapitalization bool `json:"uniformCapitalization"`
}

type Breakdown struct {
	ATS          ATSChecklist          `json:"ats"`
	Completeness CompletenessChecklist `json:"completeness"`
	Format       FormatChecklist       `json:"format"`

	MatchedKeywords        []string `json:"matchedKeywords"`
	MissingKeywords        []string `json:"missingKeywords"`
	KeywordCoverage        float64  `json:"keywordCoverage"`
	JobDescriptionProvided bool     `json:"jobDescriptionProvided"`

	BulletCount              int      `json:"bulletCount"`
	ActionVerbCount          int      `json:"actionVerbCount"`
	QuantifiedCount          int      `json:"quantifiedCount"`
	HasQuantifiedAchievement bool     `json:"hasQuantifiedAchievement"`
	DateFormats              []string `json:"dateFormats"`
}

// Calculate scores résumé content against an optional job description.
func Calculate(in Input) Score {
	resume := content.DecodeResume(in.Content)
	jd := JobDescriptionText(in.JobDescription)

	var b Breakdown
	var d Dimensions
	d.ATS = scoreATS(resume, in.TemplateID, &b)
	d.Keywords = scoreKeywords(resume, jd, &b)
	d.Content = scoreContent(resume, &b)
	d.Format = scoreFormat(resume, &b)
	d.Completeness = scoreCompleteness(resume, &b)

	return Score{
		Overall:     Overall(d),
		Dimensions:  d,
		Breakdown:   b,
		Suggestions: buildSuggestions(d, b),
	}
}

// Overall combines the dimensions with the fixed weights, rounding half up.
func Overall(d Dimensions) int {
	sum := d.ATS*weightATS +
		d.Keywords*weightKeywords +
		d.Content*weightContent +
		d.Format*weightFormat +
		d.Completeness*weightCompleteness
	return (sum + 50) / 100
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
