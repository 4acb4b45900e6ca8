package assess

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/model"
)

// DefaultCorrectionLimit caps how many corrections are shown after a reading.
const DefaultCorrectionLimit = 5

// Corrections turns mistakes into short prompts, at most limit of them.
// A non-positive limit uses DefaultCorrectionLimit.
func Corrections(mistakes []model.Mistake, limit int) []string {
	if limit <= 0 {
		limit = DefaultCorrectionLimit
	}
	out := make([]string, 0, min(limit, len(mistakes)))
	for _, m := range mistakes {
		if len(out) == limit {
			break
		}
		switch m.Kind {
		case model.MistakeSubstitution:
			out = append(out, fmt.Sprintf("Try '%s' instead of '%s'", m.Expected, m.Actual))
		case model.MistakeOmission:
			out = append(out, fmt.Sprintf("Don't forget to read '%s'", m.Expected))
		case model.MistakeInsertion:
			out = append(out, fmt.Sprintf("The word '%s' isn't in the text", m.Actual))
		}
	}
	return out
}

// PronunciationTip suggests how to fix one mispronounced word.
func PronunciationTip(issue model.PronunciationIssue) string {
	want := []rune(issue.Word)
	said := []rune(issue.PronouncedAs)
	switch {
	case len(want) > len(said):
		return fmt.Sprintf("Say every sound in '%s'. Try breaking it into syllables.", issue.Word)
	case len(want) < len(said):
		return fmt.Sprintf("'%s' is shorter than it sounded. Try saying it more simply.", issue.Word)
	}
	for i := range want {
		if want[i] != said[i] {
			return fmt.Sprintf("Listen for the '%c' sound in '%s'. It differs from '%s'.", want[i], issue.Word, issue.PronouncedAs)
		}
	}
	return fmt.Sprintf("Very close! Keep practicing '%s'.", issue.Word)
}

// Recommendation is a practice plan for one phonics pattern.
type Recommendation struct {
	Pattern       string   `json:"pattern"`
	Description   string   `json:"description"`
	PracticeWords []string `json:"practice_words"`
	Activities    []string `json:"activities"`
}

// Recommendations builds a plan for each struggling pattern, weakest first
// in the order given.
func Recommendations(struggling []model.PhonicsPatternStat, cat catalog.Catalog) []Recommendation {
	out := make([]Recommendation, 0, len(struggling))
	for _, s := range struggling {
		p, ok := cat.Lookup(s.Pattern)
		if !ok {
			continue
		}
		out = append(out, RecommendationFor(p))
	}
	return out
}

// RecommendationFor describes how to practice a pattern.
func RecommendationFor(p catalog.Pattern) Recommendation {
	label := Label(p.Name)
	words := p.Examples
	if len(words) > 5 {
		words = words[:5]
	}
	return Recommendation{
		Pattern:       p.Name,
		Description:   fmt.Sprintf("Practice %s sounds", label),
		PracticeWords: append([]string(nil), words...),
		Activities: []string{
			fmt.Sprintf("Sound out %s words slowly", label),
			fmt.Sprintf("Find more words with %s patterns", label),
			"Practice with word families",
		},
	}
}

// Label renders a pattern name for people: "r_controlled" becomes "r controlled".
func Label(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// Summary is the plain-language wrap-up shown after a session.
type Summary struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	NextSteps    []string `json:"next_steps"`
}

// Summarize picks encouragement and next steps from a session's scores.
func Summarize(res model.SessionResult) Summary {
	var s Summary
	if res.InsufficientData {
		s.NextSteps = append(s.NextSteps, "Choose a passage with words to read")
		return s
	}
	switch {
	case res.Accuracy >= 0.8:
		s.Strengths = append(s.Strengths, "Excellent reading accuracy!")
	case res.Accuracy >= 0.6:
		s.Strengths = append(s.Strengths, "Good reading progress!")
	default:
		s.Improvements = append(s.Improvements, "Focus on reading each word carefully")
	}
	if res.FluencyScore >= 0.7 {
		s.Strengths = append(s.Strengths, "Great reading fluency!")
	} else {
		s.Improvements = append(s.Improvements, "Practice reading smoothly")
		s.NextSteps = append(s.NextSteps, "Read the same passage a few more times to build fluency")
	}
	if len(res.PronunciationIssues) > 0 {
		s.NextSteps = append(s.NextSteps, PronunciationTip(res.PronunciationIssues[0]))
	}
	if len(s.NextSteps) == 0 {
		s.NextSteps = append(s.NextSteps, "Keep up the great reading practice!")
	}
	return s
}
