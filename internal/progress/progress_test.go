package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/model"
)

func sessions(acc ...float64) []model.SessionResult {
	out := make([]model.SessionResult, len(acc))
	for i, a := range acc {
		out[i] = model.SessionResult{Accuracy: a}
	}
	return out
}

func TestTrendImproving(t *testing.T) {
	tr := Trend(sessions(0.5, 0.6, 0.75), model.MetricAccuracy)
	assert.Equal(t, model.TrendImproving, tr.Trend)
	assert.InDelta(t, 0.125, tr.Slope, 1e-9)
	assert.Equal(t, 3, tr.Points)
}

func TestTrendDeclining(t *testing.T) {
	tr := Trend(sessions(0.9, 0.7, 0.6, 0.4), model.MetricAccuracy)
	assert.Equal(t, model.TrendDeclining, tr.Trend)
	assert.Less(t, tr.Slope, 0.0)
}

func TestTrendDeadZone(t *testing.T) {
	tr := Trend(sessions(0.80, 0.805, 0.81), model.MetricAccuracy)
	assert.Equal(t, model.TrendStable, tr.Trend)
}

func TestTrendTooFewSessions(t *testing.T) {
	tr := Trend(sessions(0.1, 0.9), model.MetricAccuracy)
	assert.Equal(t, model.TrendStable, tr.Trend)
	assert.Equal(t, 0.0, tr.Slope)
}

func TestTrendSkipsInsufficientSessions(t *testing.T) {
	h := []model.SessionResult{
		{Accuracy: 0.5},
		{InsufficientData: true},
		{Accuracy: 0.6},
		{Accuracy: 0.7},
	}
	tr := Trend(h, model.MetricAccuracy)
	assert.Equal(t, 3, tr.Points)
	assert.Equal(t, model.TrendImproving, tr.Trend)
}

func TestTrendsCoversAllMetrics(t *testing.T) {
	got := Trends(sessions(0.5, 0.6, 0.7))
	require.Len(t, got, len(model.Metrics))
	for i, m := range model.Metrics {
		assert.Equal(t, m, got[i].Metric)
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, model.LearnerNew, State(0))
	assert.Equal(t, model.LearnerActive, State(1))
	assert.Equal(t, model.LearnerActive, State(2))
	assert.Equal(t, model.LearnerTrending, State(3))
}

func TestImprovement(t *testing.T) {
	pct, ok := Improvement([]float64{0.5, 0.6, 0.75})
	require.True(t, ok)
	assert.InDelta(t, 50, pct, 1e-9)

	_, ok = Improvement([]float64{0.5})
	assert.False(t, ok)
	_, ok = Improvement([]float64{0, 1})
	assert.False(t, ok)
}

func TestScanSession(t *testing.T) {
	got := ScanSession("The ship and the cake", "the shop and the cake", catalog.Default())
	byName := map[string]model.PatternAttempt{}
	for _, a := range got {
		byName[a.Pattern] = a
	}
	// only "ship" is misread
	assert.Equal(t, model.PatternAttempt{Pattern: "digraphs", Attempts: 3, Correct: 2}, byName["digraphs"])
	assert.Equal(t, model.PatternAttempt{Pattern: "long_vowels", Attempts: 1, Correct: 1}, byName["long_vowels"])
	assert.Equal(t, model.PatternAttempt{Pattern: "short_vowels", Attempts: 5, Correct: 4}, byName["short_vowels"])
}

func TestScanSessionEmptyReference(t *testing.T) {
	assert.Nil(t, ScanSession("", "words", catalog.Default()))
}

func TestUpdatePatternStats(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	current := []model.PhonicsPatternStat{{Pattern: "digraphs", Attempts: 2, Correct: 1}}
	next := UpdatePatternStats(current, []model.PatternAttempt{
		{Pattern: "digraphs", Attempts: 3, Correct: 3},
		{Pattern: "r_controlled", Attempts: 1, Correct: 0},
		{Pattern: "vowel_teams"},
	}, now)

	require.Len(t, next, 2)
	assert.Equal(t, 5, next[0].Attempts)
	assert.Equal(t, 4, next[0].Correct)
	assert.Equal(t, now, next[0].UpdatedAt)
	assert.Equal(t, "r_controlled", next[1].Pattern)
	assert.Equal(t, 2, current[0].Attempts, "input must not be modified")
}

func TestMasteredAndStruggling(t *testing.T) {
	stats := []model.PhonicsPatternStat{
		{Pattern: "a", Attempts: 10, Correct: 8},
		{Pattern: "b", Attempts: 10, Correct: 4},
		{Pattern: "c", Attempts: 10, Correct: 6},
		{Pattern: "d"},
	}
	m := Mastered(stats)
	require.Len(t, m, 1)
	assert.Equal(t, "a", m[0].Pattern)

	s := Struggling(stats)
	require.Len(t, s, 1)
	assert.Equal(t, "b", s[0].Pattern)
}

func TestSelectFocus(t *testing.T) {
	stats := []model.PhonicsPatternStat{
		{Pattern: "vowel_teams", Attempts: 4, Correct: 3},
		{Pattern: "digraphs", Attempts: 4, Correct: 1},
		{Pattern: "blends", Attempts: 4, Correct: 1},
		{Pattern: "unused"},
	}
	assert.Equal(t, []string{"blends", "digraphs"}, SelectFocus(stats, 2))
	assert.Len(t, SelectFocus(stats, 0), 3)
}
