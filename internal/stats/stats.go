// Package stats renders reading history as text reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/progress"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, _ := mstats.Min(values)
	hi, _ := mstats.Max(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[max(0, min(idx, len(sparkChars)-1))])
	}
	return b.String()
}

// FormatMetric prints a metric value in its natural unit.
func FormatMetric(m model.Metric, v float64) string {
	if m == model.MetricSpeed {
		return fmt.Sprintf("%.1f wpm", v)
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

// RenderSummary prints learner state, metric averages and trends.
func RenderSummary(w io.Writer, rep Report) error {
	if len(rep.Sessions) == 0 {
		_, err := fmt.Fprintf(w, "No sessions found for %s.\n", rep.LearnerID)
		return err
	}
	if _, err := fmt.Fprintf(w, "Summary for %s (%s, %d sessions total)\n", rep.LearnerID, rep.State, rep.TotalSessions); err != nil {
		return err
	}
	headers := []string{"Metric", "Average", "Latest", "Best", "Trend", "History"}
	rows := make([][]string, 0, len(model.Metrics))
	for _, tr := range rep.Trends {
		values := progress.Values(rep.Sessions, tr.Metric)
		if len(values) == 0 {
			continue
		}
		avg, _ := mstats.Mean(values)
		best, _ := mstats.Max(values)
		rows = append(rows, []string{
			string(tr.Metric),
			FormatMetric(tr.Metric, avg),
			FormatMetric(tr.Metric, values[len(values)-1]),
			FormatMetric(tr.Metric, best),
			string(tr.Trend),
			Sparkline(values),
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No scored sessions yet.")
		return err
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}))
}

// RenderCurves plots smoothed learning curves. Percentage metrics share one
// chart; reading speed gets its own.
func RenderCurves(w io.Writer, sessions []model.SessionResult, window int, opts PlotOptions) error {
	pct := func(m model.Metric) Series {
		values := progress.Values(sessions, m)
		for i := range values {
			values[i] *= 100
		}
		return Series{Name: string(m), Values: MovingAverage(values, window), Fixed: true, Min: 0, Max: 100}
	}
	if err := Plot(w, "Learning Curves (%)", []Series{
		pct(model.MetricAccuracy),
		pct(model.MetricFluency),
		pct(model.MetricPronunciation),
	}, opts); err != nil {
		return err
	}
	speed := MovingAverage(progress.Values(sessions, model.MetricSpeed), window)
	return Plot(w, "Reading Speed (wpm)", []Series{{Name: "speed", Values: speed}}, opts)
}

// RenderPatternTable prints per-pattern success rates, weakest first.
func RenderPatternTable(w io.Writer, patternStats []model.PhonicsPatternStat) error {
	if len(patternStats) == 0 {
		_, err := fmt.Fprintln(w, "No phonics stats found.")
		return err
	}
	rows := append([]model.PhonicsPatternStat(nil), patternStats...)
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rows[i].SuccessRate(), rows[j].SuccessRate()
		if ri == rj {
			return rows[i].Pattern < rows[j].Pattern
		}
		return ri < rj
	})

	if _, err := fmt.Fprintln(w, "Phonics Patterns"); err != nil {
		return err
	}
	headers := []string{"Pattern", "Success", "Correct", "Attempts", "Status"}
	tableRows := make([][]string, 0, len(rows))
	for _, s := range rows {
		tableRows = append(tableRows, []string{
			s.Pattern,
			fmt.Sprintf("%.1f%%", s.SuccessRate()*100),
			fmt.Sprintf("%d", s.Correct),
			fmt.Sprintf("%d", s.Attempts),
			PatternStatus(s),
		})
	}
	return writeLines(w, formatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true}))
}

// PatternStatus labels a pattern as mastered, struggling or learning.
func PatternStatus(s model.PhonicsPatternStat) string {
	switch {
	case s.Attempts > 0 && s.SuccessRate() >= progress.MasteryThreshold:
		return "mastered"
	case s.Attempts > 0 && s.SuccessRate() < progress.StrugglingThreshold:
		return "struggling"
	default:
		return "learning"
	}
}

// RenderMistakes prints the most often missed words.
func RenderMistakes(w io.Writer, sessions []model.SessionResult, limit int) error {
	top := TopMissedWords(sessions, limit)
	if len(top) == 0 {
		_, err := fmt.Fprintln(w, "No mistakes recorded.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Most Missed Words"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(top))
	for _, m := range top {
		rows = append(rows, []string{
			m.Word,
			fmt.Sprintf("%d", m.Substituted),
			fmt.Sprintf("%d", m.Omitted),
			strings.Join(m.ReadAs, ", "),
		})
	}
	return writeLines(w, formatTable([]string{"Word", "Misread", "Skipped", "Read as"}, rows, map[int]bool{1: true, 2: true}))
}

// RenderGoals prints goal progress.
func RenderGoals(w io.Writer, goals []model.Goal) error {
	if len(goals) == 0 {
		_, err := fmt.Fprintln(w, "No goals set.")
		return err
	}
	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, []string{
			string(g.Metric),
			FormatMetric(g.Metric, g.Current),
			FormatMetric(g.Metric, g.Target),
			fmt.Sprintf("%.0f%%", math.Min(g.Progress(), 100)),
			g.Status,
		})
	}
	return writeLines(w, formatTable([]string{"Goal", "Current", "Target", "Progress", "Status"}, rows, map[int]bool{1: true, 2: true, 3: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
