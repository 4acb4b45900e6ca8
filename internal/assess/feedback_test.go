package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/model"
)

func TestCorrections(t *testing.T) {
	mistakes := []model.Mistake{
		{Kind: model.MistakeSubstitution, Expected: "cat", Actual: "dog"},
		{Kind: model.MistakeOmission, Expected: "on"},
		{Kind: model.MistakeInsertion, Actual: "um"},
	}
	assert.Equal(t, []string{
		"Try 'cat' instead of 'dog'",
		"Don't forget to read 'on'",
		"The word 'um' isn't in the text",
	}, Corrections(mistakes, 0))
	assert.Len(t, Corrections(mistakes, 2), 2)
}

func TestCorrectionsDefaultLimit(t *testing.T) {
	mistakes := make([]model.Mistake, 8)
	for i := range mistakes {
		mistakes[i] = model.Mistake{Kind: model.MistakeOmission, Expected: "x"}
	}
	assert.Len(t, Corrections(mistakes, 0), DefaultCorrectionLimit)
}

func TestPronunciationTip(t *testing.T) {
	assert.Contains(t, PronunciationTip(model.PronunciationIssue{Word: "jumped", PronouncedAs: "jump"}), "syllables")
	assert.Contains(t, PronunciationTip(model.PronunciationIssue{Word: "cat", PronouncedAs: "cats"}), "shorter")
	assert.Contains(t, PronunciationTip(model.PronunciationIssue{Word: "cat", PronouncedAs: "kat"}), "'c' sound")
}

func TestRecommendations(t *testing.T) {
	recs := Recommendations([]model.PhonicsPatternStat{
		{Pattern: "consonant_blends", Attempts: 4, Correct: 1},
		{Pattern: "unknown", Attempts: 4},
	}, catalog.Default())
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "Practice consonant blends sounds", r.Description)
	assert.Equal(t, []string{"blue", "tree", "clap", "crab", "drum"}, r.PracticeWords)
	assert.Len(t, r.Activities, 3)
}

func TestSummarize(t *testing.T) {
	s := Summarize(model.SessionResult{Accuracy: 0.9, FluencyScore: 0.8})
	assert.Len(t, s.Strengths, 2)
	assert.Empty(t, s.Improvements)
	assert.Equal(t, []string{"Keep up the great reading practice!"}, s.NextSteps)

	s = Summarize(model.SessionResult{Accuracy: 0.3, FluencyScore: 0.2})
	assert.Empty(t, s.Strengths)
	assert.Len(t, s.Improvements, 2)

	s = Summarize(model.SessionResult{InsufficientData: true})
	assert.Len(t, s.NextSteps, 1)
}
