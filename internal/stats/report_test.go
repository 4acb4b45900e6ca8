package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "umeed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		res := model.SessionResult{
			ID:        fmt.Sprintf("s%d", i),
			LearnerID: "kid",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Accuracy:  0.4 + 0.1*float64(i),
			PatternAttempts: []model.PatternAttempt{
				{Pattern: "digraphs", Attempts: 2, Correct: 0},
				{Pattern: "short_vowels", Attempts: 2, Correct: 2},
			},
		}
		if err := st.Append(ctx, res); err != nil {
			t.Fatalf("append session: %v", err)
		}
	}
	if err := st.SetGoal(ctx, model.Goal{LearnerID: "kid", Metric: model.MetricAccuracy, Target: 0.9}); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	report, err := BuildReport(ctx, st, "kid", model.Window{Last: 3})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != "s1" || report.Sessions[2].ID != "s3" {
		t.Fatalf("unexpected session order: %s..%s", report.Sessions[0].ID, report.Sessions[2].ID)
	}
	if report.TotalSessions != 4 || report.State != model.LearnerTrending {
		t.Fatalf("unexpected state %s with %d sessions", report.State, report.TotalSessions)
	}
	if report.Trends[0].Metric != model.MetricAccuracy || report.Trends[0].Trend != model.TrendImproving {
		t.Fatalf("expected improving accuracy, got %+v", report.Trends[0])
	}
	if len(report.Struggling) != 1 || report.Struggling[0].Pattern != "digraphs" {
		t.Fatalf("unexpected struggling patterns: %+v", report.Struggling)
	}
	if len(report.Mastered) != 1 || report.Mastered[0].Pattern != "short_vowels" {
		t.Fatalf("unexpected mastered patterns: %+v", report.Mastered)
	}
	if len(report.Goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(report.Goals))
	}
}

func TestBuildReportUnknownLearner(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "umeed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	report, err := BuildReport(context.Background(), st, "ghost", model.Window{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.State != model.LearnerNew || len(report.Sessions) != 0 {
		t.Fatalf("unexpected report for unknown learner: %+v", report)
	}
}
