package assess

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/umeed/internal/apperr"
	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/observe"
	"github.com/verte-zerg/umeed/internal/progress"
	"github.com/verte-zerg/umeed/internal/transcribe"
)

// SessionStore persists sessions. Appends must be atomic; reads return
// whole sessions ordered oldest to newest.
type SessionStore interface {
	Append(ctx context.Context, res model.SessionResult) error
	ReadRecent(ctx context.Context, learnerID string, window model.Window) ([]model.SessionResult, error)
	PatternStats(ctx context.Context, learnerID string) ([]model.PhonicsPatternStat, error)
	CountSessions(ctx context.Context, learnerID string) (int, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTranscriber enables RecordAudio.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(e *Engine) { e.transcriber = t }
}

// WithCatalog replaces the phonics catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(e *Engine) { e.opts.Catalog = c }
}

// WithOptions replaces the scoring options.
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source used to stamp sessions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine scores attempts and records them for a learner.
type Engine struct {
	store       SessionStore
	transcriber transcribe.Transcriber
	opts        Options
	log         logrus.FieldLogger
	metrics     *observe.Metrics
	now         func() time.Time
}

// New builds an engine around store.
func New(store SessionStore, opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	e := &Engine{
		store: store,
		opts:  DefaultOptions(),
		log:   quiet,
		now:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the phonics catalog in use.
func (e *Engine) Catalog() catalog.Catalog {
	if len(e.opts.Catalog.Patterns) == 0 {
		return catalog.Default()
	}
	return e.opts.Catalog
}

// Analyze scores an attempt with the engine's options without storing it.
func (e *Engine) Analyze(a Attempt) model.SessionResult {
	return Analyze(a, e.opts)
}

// Record scores an attempt, stamps it and appends it to the store.
func (e *Engine) Record(ctx context.Context, a Attempt) (model.SessionResult, error) {
	const op = "assess.Record"
	if strings.TrimSpace(a.LearnerID) == "" {
		return model.SessionResult{}, apperr.E(apperr.CodeInvalidInput, op, "learner id is required", nil)
	}
	res := Analyze(a, e.opts)
	res.ID = uuid.NewString()
	res.Timestamp = e.now()

	outcome := observe.OutcomeScored
	if res.InsufficientData {
		outcome = observe.OutcomeInsufficient
	}
	log := e.log.WithFields(logrus.Fields{
		"learner": res.LearnerID,
		"session": res.ID,
	})

	if err := e.store.Append(ctx, res); err != nil {
		e.metrics.RecordStoreFailure(ctx, "append")
		e.metrics.RecordAssessment(ctx, observe.OutcomeFailed, 0, 0)
		log.WithError(err).Error("store session")
		if apperr.CodeOf(err) != "" {
			return model.SessionResult{}, err
		}
		return model.SessionResult{}, apperr.E(apperr.CodeStore, op, "append session", err)
	}
	e.metrics.RecordAssessment(ctx, outcome, res.Accuracy, res.FluencyScore)

	if res.InsufficientData {
		log.Warn("reference text has no words; session stored without scores")
	} else {
		log.WithFields(logrus.Fields{
			"accuracy": res.Accuracy,
			"fluency":  res.FluencyScore,
			"mistakes": len(res.Mistakes),
		}).Info("session recorded")
	}
	return res, nil
}

// RecordAudio transcribes audio and records the result. Without a working
// transcriber it fails with UNAVAILABLE and stores nothing.
func (e *Engine) RecordAudio(ctx context.Context, a Attempt, audio []byte, language string) (model.SessionResult, error) {
	const op = "assess.RecordAudio"
	if e.transcriber == nil {
		return model.SessionResult{}, apperr.E(apperr.CodeUnavailable, op, "no transcriber configured", nil)
	}
	start := e.now()
	tr, err := e.transcriber.Transcribe(ctx, audio, language)
	e.metrics.RecordTranscription(ctx, e.now().Sub(start).Seconds(), err != nil)
	if err != nil {
		e.log.WithError(err).WithField("learner", a.LearnerID).Warn("transcription failed")
		if apperr.IsCode(err, apperr.CodeInvalidInput) {
			return model.SessionResult{}, err
		}
		return model.SessionResult{}, apperr.E(apperr.CodeUnavailable, op, "transcribe audio", err)
	}
	a.Transcript = tr
	return e.Record(ctx, a)
}

// ProgressReport summarizes one metric over a window of history.
type ProgressReport struct {
	LearnerID      string
	State          model.LearnerState
	Sessions       int
	Trend          model.ProgressTrend
	Values         []float64
	Improvement    float64
	HasImprovement bool
}

// Progress reads the learner's history and computes the trend of metric.
func (e *Engine) Progress(ctx context.Context, learnerID string, metric model.Metric, window model.Window) (ProgressReport, error) {
	total, err := e.store.CountSessions(ctx, learnerID)
	if err != nil {
		e.metrics.RecordStoreFailure(ctx, "count")
		return ProgressReport{}, err
	}
	history, err := e.store.ReadRecent(ctx, learnerID, window)
	if err != nil {
		e.metrics.RecordStoreFailure(ctx, "read")
		return ProgressReport{}, err
	}
	values := progress.Values(history, metric)
	rep := ProgressReport{
		LearnerID: learnerID,
		State:     progress.State(total),
		Sessions:  total,
		Trend:     progress.Trend(history, metric),
		Values:    values,
	}
	rep.Improvement, rep.HasImprovement = progress.Improvement(values)
	return rep, nil
}

// PatternReport is the learner's phonics standing.
type PatternReport struct {
	Stats           []model.PhonicsPatternStat
	Mastered        []model.PhonicsPatternStat
	Struggling      []model.PhonicsPatternStat
	Focus           []string
	Recommendations []Recommendation
}

// Patterns reports mastery and the patterns to practice next.
func (e *Engine) Patterns(ctx context.Context, learnerID string, focus int) (PatternReport, error) {
	stats, err := e.store.PatternStats(ctx, learnerID)
	if err != nil {
		e.metrics.RecordStoreFailure(ctx, "pattern_stats")
		return PatternReport{}, err
	}
	struggling := progress.Struggling(stats)
	return PatternReport{
		Stats:           stats,
		Mastered:        progress.Mastered(stats),
		Struggling:      struggling,
		Focus:           progress.SelectFocus(stats, focus),
		Recommendations: Recommendations(struggling, e.Catalog()),
	}, nil
}
