// Package fluency estimates reading speed and smoothness.
package fluency

import (
	"github.com/montanaflynn/stats"

	"github.com/verte-zerg/umeed/internal/model"
)

const (
	// DefaultTargetWPM is used when no positive target is supplied.
	DefaultTargetWPM = 60.0
	// NeutralPacing stands in for pacing consistency when pauses cannot be measured.
	NeutralPacing = 0.7
	// MaxSpeedRatio caps how much reading faster than target can help.
	MaxSpeedRatio = 1.2

	speedWeight  = 0.7
	pacingWeight = 0.3
)

var levelTargets = []float64{30, 60, 90, 120, 150}

// TargetWPM returns the words-per-minute goal for a reading level (1-5).
// Levels outside the table clamp to its ends.
func TargetWPM(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > len(levelTargets) {
		level = len(levelTargets)
	}
	return levelTargets[level-1]
}

// Input is what the estimator needs from one reading attempt.
type Input struct {
	WordCount       int
	DurationSeconds float64
	TargetWPM       float64
	Words           []model.WordTiming
}

// Result holds the fluency figures for one attempt.
type Result struct {
	SpeedWPM          float64
	SpeedRatio        float64
	PacingConsistency float64
	Score             float64
	Level             model.FluencyLevel
	Confidence        model.Confidence
	// TimingsUsed reports whether per-word timestamps fed the pacing figure.
	TimingsUsed bool
}

// Estimate computes speed, pacing and the blended fluency score.
func Estimate(in Input) Result {
	target := in.TargetWPM
	if target <= 0 {
		target = DefaultTargetWPM
	}
	pacing, timed := Pacing(in.Words)
	res := Result{
		PacingConsistency: pacing,
		Confidence:        ConfidenceOf(in.Words),
		TimingsUsed:       timed,
		Level:             model.FluencyBeginning,
	}
	if in.WordCount <= 0 {
		return res
	}

	duration := in.DurationSeconds
	if duration <= 0 {
		duration = span(in.Words)
	}
	if duration < 1 {
		duration = 1
	}

	res.SpeedWPM = float64(in.WordCount) / (duration / 60.0)
	res.SpeedRatio = res.SpeedWPM / target
	if res.SpeedRatio > MaxSpeedRatio {
		res.SpeedRatio = MaxSpeedRatio
	}
	res.Score = speedWeight*res.SpeedRatio + pacingWeight*pacing
	res.Level = LevelFor(res.Score)
	return res
}

// LevelFor maps a fluency score onto a named level.
func LevelFor(score float64) model.FluencyLevel {
	switch {
	case score >= 0.9:
		return model.FluencyAdvanced
	case score >= 0.7:
		return model.FluencyProficient
	case score >= 0.5:
		return model.FluencyDeveloping
	default:
		return model.FluencyBeginning
	}
}

// Pacing returns 1 - stdev/mean of the pauses between consecutive words,
// clamped to [0,1]. The second result is false when the neutral value was
// used because there were too few timed words or no measurable pause.
func Pacing(words []model.WordTiming) (float64, bool) {
	if len(words) < 2 {
		return NeutralPacing, false
	}
	pauses := make(stats.Float64Data, 0, len(words)-1)
	for i := 1; i < len(words); i++ {
		gap := words[i].Start - words[i-1].End
		if gap < 0 {
			gap = 0
		}
		pauses = append(pauses, gap)
	}
	mean, err := stats.Mean(pauses)
	if err != nil || mean <= 0 {
		return NeutralPacing, false
	}
	sd, err := stats.StandardDeviationPopulation(pauses)
	if err != nil {
		return NeutralPacing, false
	}
	return clamp01(1 - sd/mean), true
}

// ConfidenceOf reads hesitation from how much word durations vary.
func ConfidenceOf(words []model.WordTiming) model.Confidence {
	if len(words) < 2 {
		return model.ConfidenceModerate
	}
	durations := make(stats.Float64Data, 0, len(words))
	for _, w := range words {
		d := w.End - w.Start
		if d < 0 {
			d = 0
		}
		durations = append(durations, d)
	}
	mean, err := stats.Mean(durations)
	if err != nil || mean <= 0 {
		return model.ConfidenceModerate
	}
	sd, err := stats.StandardDeviationPopulation(durations)
	if err != nil {
		return model.ConfidenceModerate
	}
	cv := sd / mean
	switch {
	case cv < 0.3:
		return model.ConfidenceHigh
	case cv > 0.6:
		return model.ConfidenceLow
	default:
		return model.ConfidenceModerate
	}
}

func span(words []model.WordTiming) float64 {
	if len(words) == 0 {
		return 0
	}
	return words[len(words)-1].End - words[0].Start
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
