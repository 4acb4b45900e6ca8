// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/umeed/internal/apperr"
	"github.com/verte-zerg/umeed/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const driverName = "sqlite"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store wraps SQLite access for reading sessions.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	const op = "store.Open"
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "create data dir", err)
	}
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "open database", err)
	}
	// A single connection serializes writers so appends never interleave.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, apperr.E(apperr.CodeStore, op, "migrate", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS reading_sessions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			learner_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			reference_text TEXT NOT NULL,
			transcript_text TEXT NOT NULL,
			reading_level INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			fluency_score REAL NOT NULL,
			fluency_level TEXT NOT NULL,
			pronunciation_score REAL NOT NULL,
			reading_speed REAL NOT NULL,
			pacing_consistency REAL NOT NULL,
			confidence TEXT NOT NULL,
			insufficient_data INTEGER NOT NULL,
			error_patterns TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_mistakes (
			session_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			kind TEXT NOT NULL,
			expected TEXT NOT NULL,
			actual TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (session_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS session_pronunciation_issues (
			session_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			word TEXT NOT NULL,
			pronounced_as TEXT NOT NULL,
			similarity REAL NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (session_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS session_pattern_attempts (
			session_id TEXT NOT NULL,
			pattern TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			PRIMARY KEY (session_id, pattern)
		);`,
		`CREATE TABLE IF NOT EXISTS phonics_progress (
			learner_id TEXT NOT NULL,
			pattern TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (learner_id, pattern)
		);`,
		`CREATE TABLE IF NOT EXISTS reading_goals (
			learner_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			target REAL NOT NULL,
			current_value REAL NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (learner_id, metric)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reading_sessions_learner ON reading_sessions(learner_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type sessionRow struct {
	Seq                int64   `db:"seq"`
	ID                 string  `db:"id"`
	LearnerID          string  `db:"learner_id"`
	CreatedAt          string  `db:"created_at"`
	ReferenceText      string  `db:"reference_text"`
	TranscriptText     string  `db:"transcript_text"`
	ReadingLevel       int     `db:"reading_level"`
	Accuracy           float64 `db:"accuracy"`
	FluencyScore       float64 `db:"fluency_score"`
	FluencyLevel       string  `db:"fluency_level"`
	PronunciationScore float64 `db:"pronunciation_score"`
	ReadingSpeed       float64 `db:"reading_speed"`
	PacingConsistency  float64 `db:"pacing_consistency"`
	Confidence         string  `db:"confidence"`
	InsufficientData   bool    `db:"insufficient_data"`
	ErrorPatterns      string  `db:"error_patterns"`
}

type mistakeRow struct {
	SessionID string `db:"session_id"`
	Ord       int    `db:"ord"`
	Kind      string `db:"kind"`
	Expected  string `db:"expected"`
	Actual    string `db:"actual"`
	Position  int    `db:"position"`
}

type issueRow struct {
	SessionID    string  `db:"session_id"`
	Ord          int     `db:"ord"`
	Word         string  `db:"word"`
	PronouncedAs string  `db:"pronounced_as"`
	Similarity   float64 `db:"similarity"`
	Position     int     `db:"position"`
}

type attemptRow struct {
	SessionID string `db:"session_id"`
	Pattern   string `db:"pattern"`
	Attempts  int    `db:"attempts"`
	Correct   int    `db:"correct"`
}

type progressRow struct {
	Pattern   string `db:"pattern"`
	Attempts  int    `db:"attempts"`
	Correct   int    `db:"correct"`
	UpdatedAt string `db:"updated_at"`
}

type goalRow struct {
	LearnerID string  `db:"learner_id"`
	Metric    string  `db:"metric"`
	Target    float64 `db:"target"`
	Current   float64 `db:"current_value"`
	Status    string  `db:"status"`
	CreatedAt string  `db:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

// Append stores a completed session with its mistakes, pronunciation issues
// and pattern attempts, folds the attempts into the learner's phonics
// progress and refreshes active goals. Everything happens in one transaction.
func (s *Store) Append(ctx context.Context, res model.SessionResult) (err error) {
	const op = "store.Append"
	if res.ID == "" || res.LearnerID == "" {
		return apperr.E(apperr.CodeInvalidInput, op, "session id and learner id are required", nil)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.E(apperr.CodeStore, op, "begin", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	created := formatTime(res.Timestamp)
	row := sessionRow{
		ID:                 res.ID,
		LearnerID:          res.LearnerID,
		CreatedAt:          created,
		ReferenceText:      res.ReferenceText,
		TranscriptText:     res.TranscriptText,
		ReadingLevel:       res.ReadingLevel,
		Accuracy:           res.Accuracy,
		FluencyScore:       res.FluencyScore,
		FluencyLevel:       string(res.FluencyLevel),
		PronunciationScore: res.PronunciationScore,
		ReadingSpeed:       res.ReadingSpeed,
		PacingConsistency:  res.PacingConsistency,
		Confidence:         string(res.Confidence),
		InsufficientData:   res.InsufficientData,
		ErrorPatterns:      strings.Join(res.ErrorPatterns, ","),
	}
	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO reading_sessions (id, learner_id, created_at, reference_text, transcript_text, reading_level,
			accuracy, fluency_score, fluency_level, pronunciation_score, reading_speed, pacing_consistency,
			confidence, insufficient_data, error_patterns)
		 VALUES (:id, :learner_id, :created_at, :reference_text, :transcript_text, :reading_level,
			:accuracy, :fluency_score, :fluency_level, :pronunciation_score, :reading_speed, :pacing_consistency,
			:confidence, :insufficient_data, :error_patterns)`, row); err != nil {
		return apperr.E(apperr.CodeStore, op, "insert session", err)
	}

	if len(res.Mistakes) > 0 {
		rows := make([]mistakeRow, len(res.Mistakes))
		for i, m := range res.Mistakes {
			rows[i] = mistakeRow{SessionID: res.ID, Ord: i, Kind: string(m.Kind), Expected: m.Expected, Actual: m.Actual, Position: m.Position}
		}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO session_mistakes (session_id, ord, kind, expected, actual, position)
			 VALUES (:session_id, :ord, :kind, :expected, :actual, :position)`, rows); err != nil {
			return apperr.E(apperr.CodeStore, op, "insert mistakes", err)
		}
	}

	if len(res.PronunciationIssues) > 0 {
		rows := make([]issueRow, len(res.PronunciationIssues))
		for i, p := range res.PronunciationIssues {
			rows[i] = issueRow{SessionID: res.ID, Ord: i, Word: p.Word, PronouncedAs: p.PronouncedAs, Similarity: p.Similarity, Position: p.Position}
		}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO session_pronunciation_issues (session_id, ord, word, pronounced_as, similarity, position)
			 VALUES (:session_id, :ord, :word, :pronounced_as, :similarity, :position)`, rows); err != nil {
			return apperr.E(apperr.CodeStore, op, "insert pronunciation issues", err)
		}
	}

	for _, a := range res.PatternAttempts {
		if a.Attempts == 0 {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO session_pattern_attempts (session_id, pattern, attempts, correct) VALUES (?, ?, ?, ?)`,
			res.ID, a.Pattern, a.Attempts, a.Correct); err != nil {
			return apperr.E(apperr.CodeStore, op, "insert pattern attempts", err)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO phonics_progress (learner_id, pattern, attempts, correct, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(learner_id, pattern) DO UPDATE SET
				attempts = attempts + excluded.attempts,
				correct = correct + excluded.correct,
				updated_at = excluded.updated_at`,
			res.LearnerID, a.Pattern, a.Attempts, a.Correct, created); err != nil {
			return apperr.E(apperr.CodeStore, op, "update phonics progress", err)
		}
	}

	if !res.InsufficientData {
		for _, m := range model.Metrics {
			v := res.Value(m)
			if _, err = tx.ExecContext(ctx,
				`UPDATE reading_goals
				 SET current_value = ?, status = CASE WHEN ? >= target THEN ? ELSE status END
				 WHERE learner_id = ? AND metric = ? AND status = ?`,
				v, v, model.GoalAchieved, res.LearnerID, string(m), model.GoalActive); err != nil {
				return apperr.E(apperr.CodeStore, op, "update goals", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return apperr.E(apperr.CodeStore, op, "commit", err)
	}
	return nil
}

// ReadRecent returns the learner's sessions inside the window, oldest first.
// A zero window returns the full history.
func (s *Store) ReadRecent(ctx context.Context, learnerID string, window model.Window) ([]model.SessionResult, error) {
	const op = "store.ReadRecent"
	clauses := []string{"learner_id = ?"}
	args := []any{learnerID}
	if window.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(*window.Since))
	}
	limit := -1
	if window.Last > 0 {
		limit = window.Last
	}
	args = append(args, limit)

	var rows []sessionRow
	windowed := `FROM reading_sessions
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, `SELECT * `+windowed, args...); err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "select sessions", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]model.SessionResult, len(rows))
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		// rows are newest first; fill from the back so out is oldest first.
		pos := len(rows) - 1 - i
		ts, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, apperr.E(apperr.CodeStore, op, "parse created_at", err)
		}
		res := model.SessionResult{
			ID:                  r.ID,
			LearnerID:           r.LearnerID,
			Timestamp:           ts,
			ReferenceText:       r.ReferenceText,
			TranscriptText:      r.TranscriptText,
			ReadingLevel:        r.ReadingLevel,
			Accuracy:            r.Accuracy,
			FluencyScore:        r.FluencyScore,
			FluencyLevel:        model.FluencyLevel(r.FluencyLevel),
			PronunciationScore:  r.PronunciationScore,
			ReadingSpeed:        r.ReadingSpeed,
			PacingConsistency:   r.PacingConsistency,
			Confidence:          model.Confidence(r.Confidence),
			InsufficientData:    r.InsufficientData,
			Mistakes:            []model.Mistake{},
			PronunciationIssues: []model.PronunciationIssue{},
		}
		if r.ErrorPatterns != "" {
			res.ErrorPatterns = strings.Split(r.ErrorPatterns, ",")
		}
		out[pos] = res
		index[r.ID] = pos
	}

	if err := s.loadChildren(ctx, `SELECT id `+windowed, args, index, out); err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "load session details", err)
	}
	return out, nil
}

// loadChildren fills the detail rows of the sessions selected by ids, a
// subquery over reading_sessions taking idArgs. The subquery keeps the bound
// parameter count fixed however long the history is.
func (s *Store) loadChildren(ctx context.Context, ids string, idArgs []any, index map[string]int, out []model.SessionResult) error {
	var mistakes []mistakeRow
	query := `SELECT * FROM session_mistakes WHERE session_id IN (` + ids + `) ORDER BY session_id, ord`
	if err := s.db.SelectContext(ctx, &mistakes, query, idArgs...); err != nil {
		return err
	}
	for _, m := range mistakes {
		i, ok := index[m.SessionID]
		if !ok {
			continue
		}
		out[i].Mistakes = append(out[i].Mistakes, model.Mistake{
			Kind:     model.MistakeKind(m.Kind),
			Expected: m.Expected,
			Actual:   m.Actual,
			Position: m.Position,
		})
	}

	var issues []issueRow
	query = `SELECT * FROM session_pronunciation_issues WHERE session_id IN (` + ids + `) ORDER BY session_id, ord`
	if err := s.db.SelectContext(ctx, &issues, query, idArgs...); err != nil {
		return err
	}
	for _, p := range issues {
		i, ok := index[p.SessionID]
		if !ok {
			continue
		}
		out[i].PronunciationIssues = append(out[i].PronunciationIssues, model.PronunciationIssue{
			Word:         p.Word,
			PronouncedAs: p.PronouncedAs,
			Similarity:   p.Similarity,
			Position:     p.Position,
		})
	}

	var attempts []attemptRow
	query = `SELECT * FROM session_pattern_attempts WHERE session_id IN (` + ids + `) ORDER BY session_id, pattern`
	if err := s.db.SelectContext(ctx, &attempts, query, idArgs...); err != nil {
		return err
	}
	for _, a := range attempts {
		i, ok := index[a.SessionID]
		if !ok {
			continue
		}
		out[i].PatternAttempts = append(out[i].PatternAttempts, model.PatternAttempt{
			Pattern:  a.Pattern,
			Attempts: a.Attempts,
			Correct:  a.Correct,
		})
	}
	return nil
}

// CountSessions returns how many sessions the learner has recorded.
func (s *Store) CountSessions(ctx context.Context, learnerID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reading_sessions WHERE learner_id = ?`, learnerID); err != nil {
		return 0, apperr.E(apperr.CodeStore, "store.CountSessions", "", err)
	}
	return n, nil
}

// Learners lists every learner with at least one session.
func (s *Store) Learners(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT learner_id FROM reading_sessions ORDER BY learner_id`); err != nil {
		return nil, apperr.E(apperr.CodeStore, "store.Learners", "", err)
	}
	return ids, nil
}

// PatternStats returns the learner's running phonics record, by pattern name.
func (s *Store) PatternStats(ctx context.Context, learnerID string) ([]model.PhonicsPatternStat, error) {
	const op = "store.PatternStats"
	var rows []progressRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT pattern, attempts, correct, updated_at FROM phonics_progress WHERE learner_id = ? ORDER BY pattern`,
		learnerID); err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "", err)
	}
	out := make([]model.PhonicsPatternStat, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTime(r.UpdatedAt)
		if err != nil {
			return nil, apperr.E(apperr.CodeStore, op, "parse updated_at", err)
		}
		out = append(out, model.PhonicsPatternStat{
			Pattern:   r.Pattern,
			Attempts:  r.Attempts,
			Correct:   r.Correct,
			UpdatedAt: ts,
		})
	}
	return out, nil
}

// SetGoal creates or replaces the learner's goal for a metric. The goal
// starts active and picks up the latest session value on the next append.
func (s *Store) SetGoal(ctx context.Context, goal model.Goal) error {
	const op = "store.SetGoal"
	if goal.LearnerID == "" || goal.Target <= 0 {
		return apperr.E(apperr.CodeInvalidInput, op, "learner id and a positive target are required", nil)
	}
	if goal.Status == "" {
		goal.Status = model.GoalActive
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now()
	}
	row := goalRow{
		LearnerID: goal.LearnerID,
		Metric:    string(goal.Metric),
		Target:    goal.Target,
		Current:   goal.Current,
		Status:    goal.Status,
		CreatedAt: formatTime(goal.CreatedAt),
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO reading_goals (learner_id, metric, target, current_value, status, created_at)
		 VALUES (:learner_id, :metric, :target, :current_value, :status, :created_at)
		 ON CONFLICT(learner_id, metric) DO UPDATE SET
			target = excluded.target,
			current_value = excluded.current_value,
			status = excluded.status,
			created_at = excluded.created_at`, row); err != nil {
		return apperr.E(apperr.CodeStore, op, "", err)
	}
	return nil
}

// ListGoals returns the learner's goals ordered by metric.
func (s *Store) ListGoals(ctx context.Context, learnerID string) ([]model.Goal, error) {
	const op = "store.ListGoals"
	var rows []goalRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM reading_goals WHERE learner_id = ? ORDER BY metric`, learnerID); err != nil {
		return nil, apperr.E(apperr.CodeStore, op, "", err)
	}
	out := make([]model.Goal, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, apperr.E(apperr.CodeStore, op, "parse created_at", err)
		}
		out = append(out, model.Goal{
			LearnerID: r.LearnerID,
			Metric:    model.Metric(r.Metric),
			Target:    r.Target,
			Current:   r.Current,
			Status:    r.Status,
			CreatedAt: ts,
		})
	}
	return out, nil
}

// Goal returns one goal, or a NOT_FOUND error.
func (s *Store) Goal(ctx context.Context, learnerID string, metric model.Metric) (model.Goal, error) {
	const op = "store.Goal"
	var r goalRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM reading_goals WHERE learner_id = ? AND metric = ?`, learnerID, string(metric))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Goal{}, apperr.E(apperr.CodeNotFound, op, "no goal for "+string(metric), err)
	}
	if err != nil {
		return model.Goal{}, apperr.E(apperr.CodeStore, op, "", err)
	}
	ts, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Goal{}, apperr.E(apperr.CodeStore, op, "parse created_at", err)
	}
	return model.Goal{
		LearnerID: r.LearnerID,
		Metric:    model.Metric(r.Metric),
		Target:    r.Target,
		Current:   r.Current,
		Status:    r.Status,
		CreatedAt: ts,
	}, nil
}
