package stats

import (
	"context"

	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/progress"
)

// Reader is the slice of the session store reports need.
type Reader interface {
	ReadRecent(ctx context.Context, learnerID string, window model.Window) ([]model.SessionResult, error)
	CountSessions(ctx context.Context, learnerID string) (int, error)
	PatternStats(ctx context.Context, learnerID string) ([]model.PhonicsPatternStat, error)
	ListGoals(ctx context.Context, learnerID string) ([]model.Goal, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	LearnerID     string
	State         model.LearnerState
	TotalSessions int
	Sessions      []model.SessionResult
	Trends        []model.ProgressTrend
	Patterns      []model.PhonicsPatternStat
	Mastered      []model.PhonicsPatternStat
	Struggling    []model.PhonicsPatternStat
	Goals         []model.Goal
}

// BuildReport loads and prepares data for stats rendering. Trends cover the
// window; learner state and pattern stats cover all history.
func BuildReport(ctx context.Context, r Reader, learnerID string, window model.Window) (Report, error) {
	sessions, err := r.ReadRecent(ctx, learnerID, window)
	if err != nil {
		return Report{}, err
	}
	total, err := r.CountSessions(ctx, learnerID)
	if err != nil {
		return Report{}, err
	}
	patterns, err := r.PatternStats(ctx, learnerID)
	if err != nil {
		return Report{}, err
	}
	goals, err := r.ListGoals(ctx, learnerID)
	if err != nil {
		return Report{}, err
	}

	return Report{
		LearnerID:     learnerID,
		State:         progress.State(total),
		TotalSessions: total,
		Sessions:      sessions,
		Trends:        progress.Trends(sessions),
		Patterns:      patterns,
		Mastered:      progress.Mastered(patterns),
		Struggling:    progress.Struggling(patterns),
		Goals:         goals,
	}, nil
}
