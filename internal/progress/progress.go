// Package progress turns session history into trends and phonics mastery.
package progress

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/umeed/internal/align"
	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/textnorm"
)

const (
	// MinTrendPoints is the fewest sessions needed before a direction is reported.
	MinTrendPoints = 3
	// SlopeDeadZone keeps tiny slopes from being read as movement.
	SlopeDeadZone = 0.01

	MasteryThreshold    = 0.8
	StrugglingThreshold = 0.5
)

// Values collects the metric over history, skipping sessions that could not
// be scored.
func Values(history []model.SessionResult, metric model.Metric) []float64 {
	out := make([]float64, 0, len(history))
	for _, s := range history {
		if s.InsufficientData {
			continue
		}
		out = append(out, s.Value(metric))
	}
	return out
}

// Slope fits a least-squares line through values against their index.
func Slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	return beta
}

// Classify reads a slope as a direction.
func Classify(slope float64) model.Trend {
	switch {
	case slope > SlopeDeadZone:
		return model.TrendImproving
	case slope < -SlopeDeadZone:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// Trend computes the direction of a metric over history ordered oldest to newest.
func Trend(history []model.SessionResult, metric model.Metric) model.ProgressTrend {
	values := Values(history, metric)
	out := model.ProgressTrend{Metric: metric, Trend: model.TrendStable, Points: len(values)}
	if len(values) < MinTrendPoints {
		return out
	}
	out.Slope = Slope(values)
	out.Trend = Classify(out.Slope)
	return out
}

// Trends computes Trend for every known metric.
func Trends(history []model.SessionResult) []model.ProgressTrend {
	out := make([]model.ProgressTrend, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		out = append(out, Trend(history, m))
	}
	return out
}

// State derives the learner lifecycle state from how many sessions exist.
func State(sessionCount int) model.LearnerState {
	switch {
	case sessionCount <= 0:
		return model.LearnerNew
	case sessionCount < MinTrendPoints:
		return model.LearnerActive
	default:
		return model.LearnerTrending
	}
}

// Improvement returns the relative change from the first to the last value,
// as a percentage. ok is false when there is nothing to compare against.
func Improvement(values []float64) (pct float64, ok bool) {
	if len(values) < 2 || values[0] == 0 {
		return 0, false
	}
	first, last := values[0], values[len(values)-1]
	return (last - first) / first * 100, true
}

// ScanSession attributes the words of one session to phonics patterns after
// normalizing and aligning its texts.
func ScanSession(reference, transcript string, cat catalog.Catalog) []model.PatternAttempt {
	ref := textnorm.Normalize(reference)
	if len(ref) == 0 {
		return nil
	}
	res := align.Align(ref, textnorm.Normalize(transcript))
	return CountAttempts(ref, res.Aligned, cat)
}

// CountAttempts tallies pattern attempts for aligned reference words. Each
// reference word counts once per pattern it matches and is correct when the
// transcript aligned the same word to it.
func CountAttempts(ref, aligned []string, cat catalog.Catalog) []model.PatternAttempt {
	byName := map[string]*model.PatternAttempt{}
	var order []string
	for i, w := range ref {
		for _, p := range cat.PatternsFor(w) {
			pa, ok := byName[p.Name]
			if !ok {
				pa = &model.PatternAttempt{Pattern: p.Name}
				byName[p.Name] = pa
				order = append(order, p.Name)
			}
			pa.Attempts++
			if i < len(aligned) && aligned[i] == w {
				pa.Correct++
			}
		}
	}
	out := make([]model.PatternAttempt, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// UpdatePatternStats folds one session's pattern attempts into running stats.
// The input slice is not modified.
func UpdatePatternStats(current []model.PhonicsPatternStat, attempts []model.PatternAttempt, at time.Time) []model.PhonicsPatternStat {
	out := make([]model.PhonicsPatternStat, len(current))
	copy(out, current)
	idx := map[string]int{}
	for i, s := range out {
		idx[s.Pattern] = i
	}
	for _, a := range attempts {
		if a.Attempts == 0 {
			continue
		}
		i, ok := idx[a.Pattern]
		if !ok {
			out = append(out, model.PhonicsPatternStat{Pattern: a.Pattern})
			i = len(out) - 1
			idx[a.Pattern] = i
		}
		out[i].Attempts += a.Attempts
		out[i].Correct += a.Correct
		out[i].UpdatedAt = at
	}
	return out
}

// Mastered lists patterns read correctly at least 80% of the time.
func Mastered(stats []model.PhonicsPatternStat) []model.PhonicsPatternStat {
	var out []model.PhonicsPatternStat
	for _, s := range stats {
		if s.Attempts > 0 && s.SuccessRate() >= MasteryThreshold {
			out = append(out, s)
		}
	}
	return out
}

// Struggling lists attempted patterns read correctly less than half the time.
func Struggling(stats []model.PhonicsPatternStat) []model.PhonicsPatternStat {
	var out []model.PhonicsPatternStat
	for _, s := range stats {
		if s.Attempts >= 1 && s.SuccessRate() < StrugglingThreshold {
			out = append(out, s)
		}
	}
	return out
}

// SelectFocus picks the top lowest-success patterns to practice next.
func SelectFocus(stats []model.PhonicsPatternStat, top int) []string {
	candidates := make([]model.PhonicsPatternStat, 0, len(stats))
	for _, s := range stats {
		if s.Attempts > 0 {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := candidates[i].SuccessRate(), candidates[j].SuccessRate()
		if ri == rj {
			return candidates[i].Pattern < candidates[j].Pattern
		}
		return ri < rj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, 0, top)
	for _, s := range candidates[:top] {
		out = append(out, s.Pattern)
	}
	return out
}
