// Package assess scores reading attempts and keeps each learner's history.
//
// Analyze is a pure function of its inputs and may run on any goroutine.
// Engine adds identity, persistence, transcription and progress queries on
// top of it.
package assess

import (
	"github.com/verte-zerg/umeed/internal/align"
	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/fluency"
	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/phonetic"
	"github.com/verte-zerg/umeed/internal/progress"
	"github.com/verte-zerg/umeed/internal/textnorm"
)

// DefaultPronunciationThreshold is the phonetic similarity above which a
// substituted word is treated as mispronounced rather than misread.
const DefaultPronunciationThreshold = 0.5

// Attempt is one learner reading one passage.
type Attempt struct {
	LearnerID     string
	ReferenceText string
	Transcript    model.Transcript
	// ReadingLevel (1-5) picks the speed target when Options.TargetWPM is unset.
	ReadingLevel int
}

// Options tune scoring.
type Options struct {
	// TargetWPM overrides the reading-level speed target when positive.
	TargetWPM              float64
	PronunciationThreshold float64
	Catalog                catalog.Catalog
}

// DefaultOptions returns the standard scoring options.
func DefaultOptions() Options {
	return Options{
		PronunciationThreshold: DefaultPronunciationThreshold,
		Catalog:                catalog.Default(),
	}
}

func (o Options) targetFor(level int) float64 {
	if o.TargetWPM > 0 {
		return o.TargetWPM
	}
	if level > 0 {
		return fluency.TargetWPM(level)
	}
	return fluency.DefaultTargetWPM
}

// Analyze scores an attempt. It never fails: an empty reference yields a
// result flagged InsufficientData.
func Analyze(a Attempt, opts Options) model.SessionResult {
	if opts.PronunciationThreshold <= 0 {
		opts.PronunciationThreshold = DefaultPronunciationThreshold
	}
	if len(opts.Catalog.Patterns) == 0 {
		opts.Catalog = catalog.Default()
	}

	ref := textnorm.Normalize(a.ReferenceText)
	got := textnorm.Normalize(a.Transcript.Text)
	al := align.Align(ref, got)

	fl := fluency.Estimate(fluency.Input{
		WordCount:       len(got),
		DurationSeconds: a.Transcript.DurationSeconds,
		TargetWPM:       opts.targetFor(a.ReadingLevel),
		Words:           a.Transcript.Words,
	})

	res := model.SessionResult{
		LearnerID:           a.LearnerID,
		ReferenceText:       a.ReferenceText,
		TranscriptText:      a.Transcript.Text,
		ReadingLevel:        a.ReadingLevel,
		Accuracy:            al.Accuracy,
		FluencyScore:        fl.Score,
		FluencyLevel:        fl.Level,
		ReadingSpeed:        fl.SpeedWPM,
		PacingConsistency:   fl.PacingConsistency,
		Confidence:          fl.Confidence,
		InsufficientData:    al.InsufficientData,
		Mistakes:            al.Mistakes,
		PronunciationIssues: pronunciationIssues(al.Pairs, opts.PronunciationThreshold),
		ErrorPatterns:       errorPatterns(al.Pairs),
	}
	if al.InsufficientData {
		return res
	}
	res.PronunciationScore = 1 - float64(len(res.PronunciationIssues))/float64(len(ref))
	res.PatternAttempts = progress.CountAttempts(ref, al.Aligned, opts.Catalog)
	return res
}

func pronunciationIssues(pairs []align.Pair, threshold float64) []model.PronunciationIssue {
	out := []model.PronunciationIssue{}
	for _, p := range pairs {
		sim := phonetic.Compare(p.Expected, p.Actual)
		if sim <= threshold {
			continue
		}
		out = append(out, model.PronunciationIssue{
			Word:         p.Expected,
			PronouncedAs: p.Actual,
			Similarity:   sim,
			Position:     p.Position,
		})
	}
	return out
}

func errorPatterns(pairs []align.Pair) []string {
	var out []string
	seen := map[phonetic.ErrorPattern]struct{}{}
	for _, p := range pairs {
		for _, ep := range phonetic.ClassifyError(p.Expected, p.Actual) {
			if _, ok := seen[ep]; ok {
				continue
			}
			seen[ep] = struct{}{}
			out = append(out, string(ep))
		}
	}
	return out
}
