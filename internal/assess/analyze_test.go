package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/umeed/internal/model"
)

func analyzeText(ref, read string) model.SessionResult {
	return Analyze(Attempt{
		LearnerID:     "kid",
		ReferenceText: ref,
		Transcript:    model.Transcript{Text: read, DurationSeconds: 6},
	}, DefaultOptions())
}

func TestAnalyzePerfectReading(t *testing.T) {
	res := analyzeText("The cat sat on the mat.", "the cat sat on the mat")
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Empty(t, res.Mistakes)
	assert.Empty(t, res.PronunciationIssues)
	assert.Equal(t, 1.0, res.PronunciationScore)
	assert.False(t, res.InsufficientData)
	assert.NotEmpty(t, res.PatternAttempts)
}

func TestAnalyzeSubstitution(t *testing.T) {
	res := analyzeText("the cat sat on the mat", "the dog sat on the mat")
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.Mistake{Kind: model.MistakeSubstitution, Expected: "cat", Actual: "dog", Position: 1}, res.Mistakes[0])
	assert.InDelta(t, 5.0/6.0, res.Accuracy, 1e-9)
	assert.Empty(t, res.PronunciationIssues)
}

func TestAnalyzeOmission(t *testing.T) {
	res := analyzeText("the cat sat on the mat", "the cat sat the mat")
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.MistakeOmission, res.Mistakes[0].Kind)
	assert.Equal(t, 3, res.Mistakes[0].Position)
	assert.InDelta(t, 5.0/6.0, res.Accuracy, 1e-9)
}

func TestAnalyzePronunciationIssue(t *testing.T) {
	res := analyzeText("the cat sat", "the kat sat")
	require.Len(t, res.PronunciationIssues, 1)
	issue := res.PronunciationIssues[0]
	assert.Equal(t, "cat", issue.Word)
	assert.Equal(t, "kat", issue.PronouncedAs)
	assert.Equal(t, 1, issue.Position)
	assert.Greater(t, issue.Similarity, 0.5)
	assert.InDelta(t, 1-1.0/3.0, res.PronunciationScore, 1e-9)
	assert.Contains(t, res.ErrorPatterns, "phoneme_substitution")
}

func TestAnalyzeLetterReversal(t *testing.T) {
	res := analyzeText("I saw a bed", "I was a ded")
	assert.Contains(t, res.ErrorPatterns, "letter_reversal")
}

func TestAnalyzeEmptyReference(t *testing.T) {
	res := analyzeText("  !!  ", "hello")
	assert.True(t, res.InsufficientData)
	assert.Equal(t, 0.0, res.Accuracy)
	assert.Equal(t, 0.0, res.PronunciationScore)
	assert.Empty(t, res.Mistakes)
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	res := analyzeText("one two three", "")
	assert.Equal(t, 0.0, res.Accuracy)
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.MistakeOmission, res.Mistakes[0].Kind)
	assert.Equal(t, 0.0, res.FluencyScore)
	assert.Equal(t, model.FluencyBeginning, res.FluencyLevel)
}

func TestAnalyzeUsesReadingLevelTarget(t *testing.T) {
	a := Attempt{
		ReferenceText: "a b c d e f",
		Transcript:    model.Transcript{Text: "a b c d e f", DurationSeconds: 12},
		ReadingLevel:  1,
	}
	slow := Analyze(a, DefaultOptions())
	a.ReadingLevel = 5
	fast := Analyze(a, DefaultOptions())
	assert.Equal(t, 30.0, slow.ReadingSpeed)
	assert.Greater(t, slow.FluencyScore, fast.FluencyScore)

	opts := DefaultOptions()
	opts.TargetWPM = 30
	assert.Equal(t, slow.FluencyScore, Analyze(a, opts).FluencyScore)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := analyzeText("She sells sea shells", "she sell see shells by")
	b := analyzeText("She sells sea shells", "she sell see shells by")
	assert.Equal(t, a, b)
}
