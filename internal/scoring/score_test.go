package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceResume = `{
	"basics": {"name": "Jane Doe", "email": "jane@example.com", "label": "Backend Engineer"},
	"summary": "Backend engineer focused on Go and Postgres.",
	"work": [
		{"company": "Acme", "position": "Senior Engineer", "startDate": "2020-01", "endDate": "2023-06",
		 "highlights": ["Led migration to Kubernetes, cutting costs by 30%.", "Built Go services handling 2M requests per day."]},
		{"company": "Beta", "position": "Engineer", "startDate": "2018-03", "endDate": "2019-12",
		 "highlights": ["Reduced latency by 40% with Postgres tuning."]}
	],
	"education": [{"institution": "State University", "degree": "BSc", "field": "Computer Science", "startDate": "2014-09", "endDate": "2018-06"}],
	"skills": [{"name": "Languages", "keywords": ["Go", "SQL"]}]
}`

const jobDescription = "We need a Go engineer with Kubernetes and Terraform experience. Kubernetes is a must."

func TestCalculateEmptyResume(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(`{}`)})

	assert.Equal(t, Dimensions{ATS: 80, Keywords: NeutralKeywordScore, Content: 0, Format: 0, Completeness: 0}, s.Dimensions)
	assert.Equal(t, 33, s.Overall)
	assert.False(t, s.Breakdown.JobDescriptionProvided)
	assert.Equal(t, []string{}, s.Breakdown.MatchedKeywords)
	assert.Equal(t, []string{}, s.Breakdown.DateFormats)

	require.Len(t, s.Suggestions, 7)
	assert.Equal(t, "content.add-achievement-bullets", s.Suggestions[0].ID)
	assert.Equal(t, PriorityHigh, s.Suggestions[0].Priority)
	assert.Equal(t, 10, s.Suggestions[0].Impact)
	assert.Equal(t, "completeness.add-a-professional-summary", s.Suggestions[1].ID)
	assert.Equal(t, 3, s.Suggestions[1].Impact)
	last := s.Suggestions[len(s.Suggestions)-1]
	assert.Equal(t, "ats.include-the-standard-sections", last.ID)
	assert.Equal(t, PriorityMedium, last.Priority)
}

func TestCalculateMalformedSectionsDegrade(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(`{"work": "oops", "summary": 12, "skills": [{"name": "Go"}]}`)})
	assert.Equal(t, 20, s.Dimensions.Completeness)
	assert.Equal(t, 0, s.Dimensions.Content)

	s = Calculate(Input{Content: json.RawMessage(`not json at all`)})
	assert.Equal(t, 33, s.Overall)
}

func TestCalculateReferenceResume(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(referenceResume)})

	assert.Equal(t, Dimensions{ATS: 100, Keywords: 50, Content: 100, Format: 100, Completeness: 100}, s.Dimensions)
	assert.Equal(t, 88, s.Overall)
	assert.Equal(t, 3, s.Breakdown.BulletCount)
	assert.Equal(t, 3, s.Breakdown.ActionVerbCount)
	assert.Equal(t, 3, s.Breakdown.QuantifiedCount)
	assert.Equal(t, []string{"YYYY-MM"}, s.Breakdown.DateFormats)
	assert.Empty(t, s.Suggestions)

	empty := Calculate(Input{Content: json.RawMessage(`{}`)})
	assert.Less(t, empty.Overall, s.Overall)
}

func TestCalculateWithJobDescription(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(referenceResume), JobDescription: jobDescription})

	assert.True(t, s.Breakdown.JobDescriptionProvided)
	assert.Equal(t, []string{"engineer", "go", "kubernetes"}, s.Breakdown.MatchedKeywords)
	assert.Equal(t, []string{"terraform"}, s.Breakdown.MissingKeywords)
	assert.Equal(t, 0.75, s.Breakdown.KeywordCoverage)
	assert.Equal(t, 75, s.Dimensions.Keywords)
	assert.Equal(t, 94, s.Overall)

	require.Len(t, s.Suggestions, 1)
	sug := s.Suggestions[0]
	assert.Equal(t, CategoryKeywords, sug.Category)
	assert.Equal(t, PriorityMedium, sug.Priority)
	assert.Equal(t, 6, sug.Impact)
	require.NotNil(t, sug.Action)
	assert.Equal(t, OpAppend, sug.Action.Op)

	fixed, err := Apply(json.RawMessage(referenceResume), *sug.Action)
	require.NoError(t, err)
	rescored := Calculate(Input{Content: fixed, JobDescription: jobDescription})
	assert.Equal(t, 100, rescored.Dimensions.Keywords)
}

func TestCalculateIsDeterministic(t *testing.T) {
	in := Input{Content: json.RawMessage(referenceResume), JobDescription: "<p>Terraform, AWS, Go and <b>Kubernetes</b></p>"}
	first, err := json.Marshal(Calculate(in))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(Calculate(in))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestATSChecksFollowSettingsAndTemplate(t *testing.T) {
	s := Calculate(Input{
		Content:    json.RawMessage(`{"basics": {"photoUrl": "https://x/p.png"}, "settings": {"fontFamily": "Comic Sans", "columns": 2}}`),
		TemplateID: "creative",
	})
	assert.Equal(t, ATSChecklist{}, s.Breakdown.ATS)
	assert.Equal(t, 0, s.Dimensions.ATS)

	var ops []string
	for _, sug := range s.Suggestions {
		if sug.Action != nil {
			ops = append(ops, sug.Action.Op+" "+sug.Action.Path)
		}
	}
	assert.ElementsMatch(t, []string{"remove basics.photoUrl", "set settings.fontFamily", "set settings.columns"}, ops)

	s = Calculate(Input{Content: json.RawMessage(`{}`), TemplateID: "modern"})
	assert.True(t, s.Breakdown.ATS.PDFCompatible)
	assert.True(t, s.Breakdown.ATS.RecognizedFont)
}

func TestFormatDetectsMixedStyles(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(`{
		"work": [
			{"startDate": "2020-01", "endDate": "Present", "highlights": ["Led a team.", "shipped the app"]},
			{"startDate": "Jan 2019", "endDate": "2019-12"}
		]
	}`)})
	assert.Equal(t, FormatChecklist{}, s.Breakdown.Format)
	assert.Equal(t, []string{"Mon YYYY", "YYYY-MM"}, s.Breakdown.DateFormats)
	assert.Equal(t, 0, s.Dimensions.Format)
}

func TestContentScoring(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(`{
		"work": [{"highlights": ["Led hiring for 5 engineers", "Responsible for deployments", "Worked on billing"]}],
		"projects": [{"highlights": ["Built a CLI"]}]
	}`)})
	// 2 of 4 start with a verb, 1 of 4 quantified: 25 + 7.5 + 20.
	assert.Equal(t, 4, s.Breakdown.BulletCount)
	assert.Equal(t, 2, s.Breakdown.ActionVerbCount)
	assert.Equal(t, 1, s.Breakdown.QuantifiedCount)
	assert.Equal(t, 53, s.Dimensions.Content)
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("Senior Go developer. Go, C++, C#, and SQL. We value SQL skills and Go.")
	assert.Equal(t, []string{"go", "sql", "c#", "c++", "developer", "senior", "value"}, kws)
	assert.Empty(t, ExtractKeywords("the and of"))
}

func TestExtractKeywordsSkipsProseNoise(t *testing.T) {
	kws := ExtractKeywords("We use Go, e.g. microservices. R&D team. Python and Kubernetes, i.e. cloud.")
	assert.Equal(t, []string{"cloud", "go", "kubernetes", "microservices", "python"}, kws)

	assert.Equal(t, []string{"c", "go", "r"}, ExtractKeywords("C, R and Go"))
	assert.Equal(t, []string{"suite"}, ExtractKeywords("C-suite"))
	assert.Empty(t, ExtractKeywords("using r"))
}

func TestCalculateReducesMarkupOnce(t *testing.T) {
	s := Calculate(Input{
		Content:        json.RawMessage(`{}`),
		JobDescription: "<p>Write &lt;template&gt; code in golang</p>",
	})
	assert.Contains(t, s.Breakdown.MissingKeywords, "template")
	assert.Contains(t, s.Breakdown.MissingKeywords, "golang")
}

func TestYearsAreNotQuantifiedAchievements(t *testing.T) {
	s := Calculate(Input{Content: json.RawMessage(`{"work": [{"highlights": ["Led the 2019 migration"]}]}`)})
	assert.Equal(t, 0, s.Breakdown.QuantifiedCount)
	assert.False(t, s.Breakdown.HasQuantifiedAchievement)
	assert.Equal(t, 50, s.Dimensions.Content)

	s = Calculate(Input{Content: json.RawMessage(`{"work": [{"highlights": ["Led the 2019 migration, saving 20%"]}]}`)})
	assert.Equal(t, 1, s.Breakdown.QuantifiedCount)
}

func TestJobDescriptionText(t *testing.T) {
	assert.Equal(t, "Go\nKubernetes", JobDescriptionText("<ul><li>Go</li><li>Kubernetes</li></ul><script>evil()</script>"))
	assert.Equal(t, "plain text here", JobDescriptionText("  plain   text here  "))
	assert.Equal(t, "", JobDescriptionText("   "))
}

func TestOverallWeights(t *testing.T) {
	assert.Equal(t, 100, Overall(Dimensions{100, 100, 100, 100, 100}))
	assert.Equal(t, 0, Overall(Dimensions{}))
	assert.Equal(t, 25, Overall(Dimensions{ATS: 100}))
	assert.Equal(t, 15, Overall(Dimensions{Completeness: 100}))
}
