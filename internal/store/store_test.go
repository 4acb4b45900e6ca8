package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/umeed/internal/apperr"
	"github.com/verte-zerg/umeed/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "umeed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if cerr := st.Close(); cerr != nil {
			t.Fatalf("close store: %v", cerr)
		}
	})
	return st
}

func sampleSession(id string, ts time.Time, acc float64) model.SessionResult {
	return model.SessionResult{
		ID:                 id,
		LearnerID:          "learner-1",
		Timestamp:          ts,
		ReferenceText:      "the cat sat on the mat",
		TranscriptText:     "the dog sat on the mat",
		ReadingLevel:       2,
		Accuracy:           acc,
		FluencyScore:       0.8,
		FluencyLevel:       model.FluencyProficient,
		PronunciationScore: 1,
		ReadingSpeed:       70,
		PacingConsistency:  0.7,
		Confidence:         model.ConfidenceModerate,
		Mistakes: []model.Mistake{
			{Kind: model.MistakeSubstitution, Expected: "cat", Actual: "dog", Position: 1},
			{Kind: model.MistakeInsertion, Actual: "um", Position: 4},
		},
		PronunciationIssues: []model.PronunciationIssue{
			{Word: "cat", PronouncedAs: "kat", Similarity: 1, Position: 1},
		},
		ErrorPatterns: []string{"phoneme_substitution"},
		PatternAttempts: []model.PatternAttempt{
			{Pattern: "short_vowels", Attempts: 6, Correct: 5},
			{Pattern: "digraphs", Attempts: 2, Correct: 2},
		},
	}
}

func TestAppendAndReadRecent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, acc := range []float64{0.5, 0.6, 0.75} {
		s := sampleSession("s"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), acc)
		if err := st.Append(ctx, s); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := st.ReadRecent(ctx, "learner-1", model.Window{})
	if err != nil {
		t.Fatalf("read recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
	if got[0].Accuracy != 0.5 || got[2].Accuracy != 0.75 {
		t.Fatalf("expected oldest to newest order, got %v, %v", got[0].Accuracy, got[2].Accuracy)
	}
	if !got[1].Timestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected timestamp: %v", got[1].Timestamp)
	}
	first := got[0]
	if len(first.Mistakes) != 2 || first.Mistakes[0].Expected != "cat" || first.Mistakes[1].Kind != model.MistakeInsertion {
		t.Fatalf("unexpected mistakes: %+v", first.Mistakes)
	}
	if len(first.PronunciationIssues) != 1 || first.PronunciationIssues[0].PronouncedAs != "kat" {
		t.Fatalf("unexpected issues: %+v", first.PronunciationIssues)
	}
	if len(first.PatternAttempts) != 2 {
		t.Fatalf("unexpected pattern attempts: %+v", first.PatternAttempts)
	}
	if len(first.ErrorPatterns) != 1 || first.ErrorPatterns[0] != "phoneme_substitution" {
		t.Fatalf("unexpected error patterns: %v", first.ErrorPatterns)
	}
	if first.FluencyLevel != model.FluencyProficient || first.ReadingLevel != 2 {
		t.Fatalf("unexpected session fields: %+v", first)
	}
}

func TestReadRecentWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := sampleSession("w"+string(rune('a'+i)), base.Add(time.Duration(i)*24*time.Hour), float64(i)/10)
		if err := st.Append(ctx, s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	last, err := st.ReadRecent(ctx, "learner-1", model.Window{Last: 2})
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(last) != 2 || last[0].ID != "wd" || last[1].ID != "we" {
		t.Fatalf("unexpected last-2 window: %+v", ids(last))
	}

	since := base.Add(48 * time.Hour)
	recent, err := st.ReadRecent(ctx, "learner-1", model.Window{Since: &since})
	if err != nil {
		t.Fatalf("read since: %v", err)
	}
	if len(recent) != 3 || recent[0].ID != "wc" {
		t.Fatalf("unexpected since window: %v", ids(recent))
	}

	other, err := st.ReadRecent(ctx, "someone-else", model.Window{})
	if err != nil {
		t.Fatalf("read other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no sessions for another learner, got %d", len(other))
	}
}

func ids(sessions []model.SessionResult) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func TestPatternStatsAccumulate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := st.Append(ctx, sampleSession("p1", base, 0.8)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(ctx, sampleSession("p2", base.Add(time.Minute), 0.9)); err != nil {
		t.Fatalf("append: %v", err)
	}
	stats, err := st.PatternStats(ctx, "learner-1")
	if err != nil {
		t.Fatalf("pattern stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 patterns, got %+v", stats)
	}
	if stats[0].Pattern != "digraphs" || stats[0].Attempts != 4 || stats[0].Correct != 4 {
		t.Fatalf("unexpected digraphs row: %+v", stats[0])
	}
	if stats[1].Pattern != "short_vowels" || stats[1].Attempts != 12 || stats[1].Correct != 10 {
		t.Fatalf("unexpected short_vowels row: %+v", stats[1])
	}
	if !stats[1].UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected updated_at: %v", stats[1].UpdatedAt)
	}
}

func TestAppendRejectsMissingIDs(t *testing.T) {
	st := openTestStore(t)
	err := st.Append(context.Background(), model.SessionResult{LearnerID: "x"})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAppendDuplicateIDRollsBack(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := st.Append(ctx, sampleSession("dup", now, 0.5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := st.Append(ctx, sampleSession("dup", now, 0.9))
	if !apperr.IsCode(err, apperr.CodeStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	stats, err := st.PatternStats(ctx, "learner-1")
	if err != nil {
		t.Fatalf("pattern stats: %v", err)
	}
	for _, s := range stats {
		if s.Pattern == "short_vowels" && s.Attempts != 6 {
			t.Fatalf("failed append leaked into phonics progress: %+v", s)
		}
	}
}

func TestCountSessionsAndLearners(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	if err := st.Append(ctx, sampleSession("c1", now, 0.5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	other := sampleSession("c2", now, 0.5)
	other.LearnerID = "learner-2"
	if err := st.Append(ctx, other); err != nil {
		t.Fatalf("append: %v", err)
	}
	n, err := st.CountSessions(ctx, "learner-1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 session, got %d (%v)", n, err)
	}
	learners, err := st.Learners(ctx)
	if err != nil {
		t.Fatalf("learners: %v", err)
	}
	if len(learners) != 2 || learners[0] != "learner-1" || learners[1] != "learner-2" {
		t.Fatalf("unexpected learners: %v", learners)
	}
}

func TestGoalsTrackAppends(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.SetGoal(ctx, model.Goal{LearnerID: "learner-1", Metric: model.MetricAccuracy, Target: 0.7}); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := st.Append(ctx, sampleSession("g1", now, 0.6)); err != nil {
		t.Fatalf("append: %v", err)
	}
	g, err := st.Goal(ctx, "learner-1", model.MetricAccuracy)
	if err != nil {
		t.Fatalf("goal: %v", err)
	}
	if g.Current != 0.6 || g.Status != model.GoalActive {
		t.Fatalf("unexpected goal after first session: %+v", g)
	}
	if err := st.Append(ctx, sampleSession("g2", now.Add(time.Hour), 0.75)); err != nil {
		t.Fatalf("append: %v", err)
	}
	goals, err := st.ListGoals(ctx, "learner-1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || goals[0].Status != model.GoalAchieved || goals[0].Current != 0.75 {
		t.Fatalf("expected achieved goal, got %+v", goals)
	}

	_, err = st.Goal(ctx, "learner-1", model.MetricSpeed)
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := st.SetGoal(ctx, model.Goal{LearnerID: "learner-1", Metric: model.MetricSpeed}); !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("expected invalid input for zero target, got %v", err)
	}
}

func TestConcurrentAppends(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := sampleSession("cc"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Second), 0.5)
			errs <- st.Append(ctx, s)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append: %v", err)
		}
	}
	got, err := st.ReadRecent(ctx, "learner-1", model.Window{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 sessions, got %d", len(got))
	}
	for _, s := range got {
		if len(s.Mistakes) != 2 {
			t.Fatalf("partial session read: %+v", s)
		}
	}
}

func TestReadRecentLongHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	const sessions = 33000

	created := formatTime(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	bulk := []string{
		`WITH RECURSIVE n(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM n WHERE i < ?)
		INSERT INTO reading_sessions (id, learner_id, created_at, reference_text, transcript_text,
			reading_level, accuracy, fluency_score, fluency_level, pronunciation_score, reading_speed,
			pacing_consistency, confidence, insufficient_data, error_patterns)
		SELECT printf('long-%05d', i), 'long', ?, 'a cat', 'a cot', 1, 0.5, 0.5, 'developing', 1, 60,
			0.7, 'moderate', 0, '' FROM n`,
		`WITH RECURSIVE n(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM n WHERE i < ?)
		INSERT INTO session_mistakes (session_id, ord, kind, expected, actual, position)
		SELECT printf('long-%05d', i), 0, 'substitution', 'cat', 'cot', 1 FROM n`,
	}
	if _, err := st.db.ExecContext(ctx, bulk[0], sessions, created); err != nil {
		t.Fatalf("seed sessions: %v", err)
	}
	if _, err := st.db.ExecContext(ctx, bulk[1], sessions); err != nil {
		t.Fatalf("seed mistakes: %v", err)
	}

	got, err := st.ReadRecent(ctx, "long", model.Window{})
	if err != nil {
		t.Fatalf("read full history: %v", err)
	}
	if len(got) != sessions {
		t.Fatalf("expected %d sessions, got %d", sessions, len(got))
	}
	if got[0].ID != "long-00001" || got[sessions-1].ID != fmt.Sprintf("long-%05d", sessions) {
		t.Fatalf("unexpected order: first %s last %s", got[0].ID, got[sessions-1].ID)
	}
	for _, s := range []model.SessionResult{got[0], got[sessions/2], got[sessions-1]} {
		if len(s.Mistakes) != 1 || s.Mistakes[0].Actual != "cot" {
			t.Fatalf("missing details for %s: %+v", s.ID, s.Mistakes)
		}
	}

	last, err := st.ReadRecent(ctx, "long", model.Window{Last: 3})
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(last) != 3 || last[2].ID != fmt.Sprintf("long-%05d", sessions) || len(last[0].Mistakes) != 1 {
		t.Fatalf("unexpected window: %+v", last)
	}
}
