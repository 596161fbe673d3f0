package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"resume-builder/internal/content"
)

const (
	maxJobKeywords   = 30
	minKeywordLength = 3
)

var stopwords = toSet(strings.Fields(`
a about above across after again against all also am an and any are as at be because been before being
below between both but by can could did do does doing down during each etc few for from further had has
have having he her here hers herself him himself his how i if in into is it its itself just me more most
my myself no nor not now of off on once only or other our ours ourselves out over own same she should so
some such than that the their theirs them themselves then there these they this those through to too under
until up very was we were what when where which while who whom why will with would you your yours yourself
yourselves able ability across apply applicant candidate candidates company day demonstrated desired
environment excellent experience experienced including join looking must new opportunity plus position
preferred required requirements responsibilities role seeking skills strong team teams well within work
working year years ideal need needs who's we're you'll use uses using used build builds building built
make makes making help helps helping ensure ensuring create creating deliver delivering provide providing
want wants like get getting etc
`))

// shortTerms are technical keywords kept despite being under the minimum length.
// Single letters only count when written as a capital standing on its own ("C, R and Go").
var shortTerms = toSet([]string{"ai", "c", "ci", "go", "js", "ml", "qa", "r", "ts", "ui", "ux"})

// dottedAbbreviation matches prose abbreviations such as "e.g" and "i.e" left by tokenize.
var dottedAbbreviation = regexp.MustCompile(`^[a-z](\.[a-z])+$`)

func toSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// ExtractKeywords returns up to 30 candidate keywords from a job description,
// most frequent first with ties broken alphabetically.
func ExtractKeywords(jobDescription string) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range jobTokens(jobDescription) {
		if !isKeywordCandidate(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.Slice(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})
	if len(order) > maxJobKeywords {
		order = order[:maxJobKeywords]
	}
	return order
}

func isKeywordCandidate(tok string) bool {
	if stopwords[tok] || dottedAbbreviation.MatchString(tok) {
		return false
	}
	if strings.ContainsAny(tok, "+#") || shortTerms[tok] {
		return true
	}
	if len([]rune(tok)) < minKeywordLength {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// jobTokens tokenizes like tokenize but drops single-letter short terms unless they
// are an uppercase letter bounded by whitespace or list punctuation, so "R&D" and
// "C-suite" do not yield "r" and "c".
func jobTokens(text string) []string {
	runes := []rune(text)
	var out []string
	emit := func(start, end int) {
		for start < end && runes[start] == '.' {
			start++
		}
		for end > start && runes[end-1] == '.' {
			end--
		}
		if start == end {
			return
		}
		word := runes[start:end]
		lower := strings.ToLower(string(word))
		if len(word) == 1 && shortTerms[lower] {
			if !unicode.IsUpper(word[0]) || !wordBoundary(runes, start-1) || !wordBoundary(runes, end) {
				return
			}
		}
		out = append(out, lower)
	}
	start := -1
	for i, r := range runes {
		if isTokenRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			emit(start, i)
			start = -1
		}
	}
	if start >= 0 {
		emit(start, len(runes))
	}
	return out
}

func wordBoundary(runes []rune, i int) bool {
	if i < 0 || i >= len(runes) {
		return true
	}
	r := runes[i]
	return unicode.IsSpace(r) || strings.ContainsRune(".,;:/()", r)
}

func scoreKeywords(r content.Resume, jd string, b *Breakdown) int {
	b.MatchedKeywords = []string{}
	b.MissingKeywords = []string{}
	b.JobDescriptionProvided = strings.TrimSpace(jd) != ""
	if !b.JobDescriptionProvided {
		return NeutralKeywordScore
	}
	keywords := ExtractKeywords(jd)
	if len(keywords) == 0 {
		return NeutralKeywordScore
	}

	present := toSet(tokenize(documentText(r)))
	for _, kw := range keywords {
		if present[kw] {
			b.MatchedKeywords = append(b.MatchedKeywords, kw)
		} else {
			b.MissingKeywords = append(b.MissingKeywords, kw)
		}
	}
	sort.Strings(b.MatchedKeywords)
	sort.Strings(b.MissingKeywords)

	coverage := float64(len(b.MatchedKeywords)) / float64(len(b.MatchedKeywords)+len(b.MissingKeywords))
	b.KeywordCoverage = math.Round(coverage*10000) / 10000
	return clamp(int(math.Round(coverage * 100)))
}
