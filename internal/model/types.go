// Package model defines shared data structures.
package model

import "time"

// MistakeKind classifies a divergence between reference and transcript.
type MistakeKind string

// Mistake kinds produced by the aligner.
const (
	MistakeSubstitution MistakeKind = "substitution"
	MistakeOmission     MistakeKind = "omission"
	MistakeInsertion    MistakeKind = "insertion"
)

// Mistake is one contiguous run of divergent words.
type Mistake struct {
	Kind     MistakeKind `json:"kind"`
	Expected string      `json:"expected"`
	Actual   string      `json:"actual"`
	Position int         `json:"position"`
}

// PronunciationIssue marks a substituted word that still sounds like the target.
type PronunciationIssue struct {
	Word         string  `json:"word"`
	PronouncedAs string  `json:"pronounced_as"`
	Similarity   float64 `json:"similarity"`
	Position     int     `json:"position"`
}

// WordTiming is a recognized word with start/end offsets in seconds.
type WordTiming struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the speech recognizer output for one reading attempt.
type Transcript struct {
	Text            string       `json:"text"`
	Words           []WordTiming `json:"words,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
}

// FluencyLevel buckets a fluency score.
type FluencyLevel string

// Fluency levels, lowest first.
const (
	FluencyBeginning  FluencyLevel = "beginning"
	FluencyDeveloping FluencyLevel = "developing"
	FluencyProficient FluencyLevel = "proficient"
	FluencyAdvanced   FluencyLevel = "advanced"
)

// Confidence describes how steady the reader's word timing was.
type Confidence string

// Confidence values.
const (
	ConfidenceLow      Confidence = "low"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceHigh     Confidence = "high"
)

// PatternAttempt counts phonics-pattern words read in a single session.
type PatternAttempt struct {
	Pattern  string `json:"pattern"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// SessionResult captures one scored reading attempt.
type SessionResult struct {
	ID                  string               `json:"id"`
	LearnerID           string               `json:"learner_id"`
	Timestamp           time.Time            `json:"timestamp"`
	ReferenceText       string               `json:"reference_text"`
	TranscriptText      string               `json:"transcript_text"`
	ReadingLevel        int                  `json:"reading_level"`
	Accuracy            float64              `json:"accuracy"`
	FluencyScore        float64              `json:"fluency_score"`
	FluencyLevel        FluencyLevel         `json:"fluency_level"`
	PronunciationScore  float64              `json:"pronunciation_score"`
	ReadingSpeed        float64              `json:"reading_speed"`
	PacingConsistency   float64              `json:"pacing_consistency"`
	Confidence          Confidence           `json:"confidence"`
	InsufficientData    bool                 `json:"insufficient_data"`
	Mistakes            []Mistake            `json:"mistakes"`
	PronunciationIssues []PronunciationIssue `json:"pronunciation_issues"`
	ErrorPatterns       []string             `json:"error_patterns,omitempty"`
	PatternAttempts     []PatternAttempt     `json:"pattern_attempts,omitempty"`
}

// Value returns the session's figure for a metric. Unknown metrics read as accuracy.
func (s SessionResult) Value(m Metric) float64 {
	switch m {
	case MetricFluency:
		return s.FluencyScore
	case MetricSpeed:
		return s.ReadingSpeed
	case MetricPronunciation:
		return s.PronunciationScore
	default:
		return s.Accuracy
	}
}

// PhonicsPatternStat is a learner's running record for one pattern category.
type PhonicsPatternStat struct {
	Pattern   string    `json:"pattern"`
	Attempts  int       `json:"attempts"`
	Correct   int       `json:"correct"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuccessRate returns Correct/Attempts, or 0 before any attempt.
func (p PhonicsPatternStat) SuccessRate() float64 {
	if p.Attempts <= 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Attempts)
}

// Metric selects the session value used for trends and goals.
type Metric string

// Supported metrics.
const (
	MetricAccuracy      Metric = "accuracy"
	MetricFluency       Metric = "fluency"
	MetricSpeed         Metric = "speed"
	MetricPronunciation Metric = "pronunciation"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricAccuracy, MetricFluency, MetricSpeed, MetricPronunciation}

// Trend is the direction of a metric over recent sessions.
type Trend string

// Trend directions.
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// ProgressTrend is computed on demand from recent history.
type ProgressTrend struct {
	Metric Metric  `json:"metric"`
	Trend  Trend   `json:"trend"`
	Slope  float64 `json:"slope"`
	Points int     `json:"points"`
}

// Window bounds the history read for aggregation.
type Window struct {
	Last  int
	Since *time.Time
}

// LearnerState follows the learner's session count.
type LearnerState string

// Learner states.
const (
	LearnerNew      LearnerState = "new"
	LearnerActive   LearnerState = "active"
	LearnerTrending LearnerState = "trending"
)

// Goal is a target value for a metric that tracks the latest session.
type Goal struct {
	LearnerID string    `json:"learner_id"`
	Metric    Metric    `json:"metric"`
	Target    float64   `json:"target"`
	Current   float64   `json:"current"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal statuses.
const (
	GoalActive   = "active"
	GoalAchieved = "achieved"
)

// Progress returns Current as a percentage of Target.
func (g Goal) Progress() float64 {
	if g.Target <= 0 {
		return 0
	}
	return g.Current / g.Target * 100
}
