// Package main provides the CLI entrypoint for umeed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/umeed/internal/assess"
	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/config"
	"github.com/verte-zerg/umeed/internal/dashboard"
	"github.com/verte-zerg/umeed/internal/logger"
	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/observe"
	"github.com/verte-zerg/umeed/internal/practice"
	"github.com/verte-zerg/umeed/internal/stats"
	"github.com/verte-zerg/umeed/internal/store"
	"github.com/verte-zerg/umeed/internal/transcribe"
	"github.com/verte-zerg/umeed/internal/wordlist"
)

const (
	defaultReadingLevel = 2
	defaultCurveWindow  = 5
	defaultFocusTop     = 2
	defaultPracticeSize = 10
	defaultWeakFactor   = 3.0
	defaultLanguage     = "en"
)

var (
	dbPath   string
	logLevel string

	learnerID string

	assessText       string
	assessTextFile   string
	assessTranscript string
	assessAudio      string
	assessLanguage   string
	assessLevel      int
	assessTargetWPM  float64
	assessDryRun     bool
	assessJSON       bool

	progressMetric      string
	progressLast        int
	progressSince       string
	progressCurveWindow int
	progressPlot        bool
	progressMistakes    int

	phonicsTop int

	practiceLevel      int
	practiceWords      int
	practiceWordList   string
	practiceWeakFactor float64
	practiceSeed       int64

	goalMetric string
	goalTarget float64

	dashLast        int
	dashCurveWindow int
)

var (
	fileCfg config.FileConfig
	log     = logger.New(os.Stderr, "info")
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "umeed",
		Short:             "Reading assessment and phonics progress for young readers",
		SilenceUsage:      true,
		PersistentPreRunE: loadSettings,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newAssessCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newPhonicsCmd())
	rootCmd.AddCommand(newPracticeCmd())
	rootCmd.AddCommand(newGoalCmd())
	rootCmd.AddCommand(newLearnersCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// loadSettings reads .env files and the TOML config, then lets the
// environment and finally explicit flags override them.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env", config.DefaultEnvPath()); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.LoadConfig(config.ConfigPath(os.Getenv))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&cfg, os.Getenv)
	fileCfg = cfg

	applyStringConfig(cmd, "db", &dbPath, cfg.Store.Path)
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	log = logger.New(os.Stderr, logLevel)
	return nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.WithField("path", path).Debug("opened store")
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		log.WithError(cerr).Warn("failed to close db")
	}
}

func loadCatalog() (catalog.Catalog, error) {
	path := config.DefaultCatalogPath()
	if fileCfg.Catalog.Path != nil {
		path = *fileCfg.Catalog.Path
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

func newTranscriber() (transcribe.Transcriber, error) {
	t := fileCfg.Transcribe
	if t.URL == nil || strings.TrimSpace(*t.URL) == "" {
		return nil, nil
	}
	var opts []transcribe.Option
	if t.Model != nil {
		opts = append(opts, transcribe.WithModel(*t.Model))
	}
	if t.Language != nil {
		opts = append(opts, transcribe.WithLanguage(*t.Language))
	}
	timeout, err := t.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, transcribe.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	return transcribe.NewWhisper(*t.URL, opts...)
}

func newEngine(st assess.SessionStore, opts assess.Options) (*assess.Engine, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	opts.Catalog = cat
	engineOpts := []assess.Option{
		assess.WithCatalog(cat),
		assess.WithOptions(opts),
		assess.WithLogger(log),
		assess.WithMetrics(observe.DefaultMetrics()),
	}
	tr, err := newTranscriber()
	if err != nil {
		return nil, fmt.Errorf("failed to configure transcriber: %w", err)
	}
	if tr != nil {
		engineOpts = append(engineOpts, assess.WithTranscriber(tr))
	}
	return assess.New(st, engineOpts...), nil
}

func requireLearner() error {
	if strings.TrimSpace(learnerID) == "" {
		return fmt.Errorf("--learner is required")
	}
	return nil
}

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a reading of a passage",
		Long: "Score a reading of a passage. The reading is given either as a transcript " +
			"(--transcript) or as a WAV recording (--audio) sent to the configured whisper server.",
		Args: cobra.NoArgs,
		RunE: runAssessCmd,
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&assessText, "text", "", "reference passage")
	cmd.Flags().StringVar(&assessTextFile, "text-file", "", "file holding the reference passage")
	cmd.Flags().StringVar(&assessTranscript, "transcript", "", "what the learner read")
	cmd.Flags().StringVar(&assessAudio, "audio", "", "WAV recording of the reading")
	cmd.Flags().StringVar(&assessLanguage, "language", defaultLanguage, "spoken language for transcription")
	cmd.Flags().IntVar(&assessLevel, "level", defaultReadingLevel, "reading level 1-5")
	cmd.Flags().Float64Var(&assessTargetWPM, "target-wpm", 0, "speed target; overrides the reading level target")
	cmd.Flags().BoolVar(&assessDryRun, "dry-run", false, "score without storing")
	cmd.Flags().BoolVar(&assessJSON, "json", false, "print the result as JSON")
	return cmd
}

func runAssessCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "level", &assessLevel, fileCfg.Assess.ReadingLevel)
	applyFloatConfig(cmd, "target-wpm", &assessTargetWPM, fileCfg.Assess.TargetWPM)
	if err := validateAssessFlags(); err != nil {
		return err
	}
	reference, err := readReference()
	if err != nil {
		return err
	}

	opts := assess.DefaultOptions()
	opts.TargetWPM = assessTargetWPM
	if fileCfg.Assess.PronunciationThreshold != nil {
		opts.PronunciationThreshold = *fileCfg.Assess.PronunciationThreshold
	}

	// A dry run only scores, so it never creates the database.
	var sessions assess.SessionStore
	if !assessDryRun {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		sessions = st
	}
	engine, err := newEngine(sessions, opts)
	if err != nil {
		return err
	}

	attempt := assess.Attempt{
		LearnerID:     learnerID,
		ReferenceText: reference,
		Transcript:    model.Transcript{Text: assessTranscript},
		ReadingLevel:  assessLevel,
	}
	ctx := context.Background()
	var res model.SessionResult
	switch {
	case assessAudio != "":
		audio, rerr := os.ReadFile(assessAudio)
		if rerr != nil {
			return fmt.Errorf("failed to read audio: %w", rerr)
		}
		res, err = engine.RecordAudio(ctx, attempt, audio, assessLanguage)
	case assessDryRun:
		res = engine.Analyze(attempt)
	default:
		res, err = engine.Record(ctx, attempt)
	}
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	limit := assess.DefaultCorrectionLimit
	if fileCfg.Assess.Corrections != nil {
		limit = *fileCfg.Assess.Corrections
	}
	if assessJSON {
		return writeJSON(cmd.OutOrStdout(), assessOutput{
			SessionResult: res,
			Corrections:   assess.Corrections(res.Mistakes, limit),
			Summary:       assess.Summarize(res),
		})
	}
	return printResult(cmd.OutOrStdout(), res, limit)
}

type assessOutput struct {
	model.SessionResult
	Corrections []string       `json:"corrections"`
	Summary     assess.Summary `json:"summary"`
}

func validateAssessFlags() error {
	if !assessDryRun {
		if err := requireLearner(); err != nil {
			return err
		}
	}
	if assessText != "" && assessTextFile != "" {
		return fmt.Errorf("use either --text or --text-file")
	}
	if assessAudio != "" && assessTranscript != "" {
		return fmt.Errorf("use either --transcript or --audio")
	}
	if assessAudio != "" && assessDryRun {
		return fmt.Errorf("--dry-run cannot be used with --audio")
	}
	if assessLevel < 1 || assessLevel > 5 {
		return fmt.Errorf("--level must be between 1 and 5")
	}
	if assessTargetWPM < 0 {
		return fmt.Errorf("--target-wpm must be >= 0")
	}
	return nil
}

func readReference() (string, error) {
	if assessTextFile == "" {
		return assessText, nil
	}
	data, err := os.ReadFile(assessTextFile)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

func printResult(w io.Writer, res model.SessionResult, limit int) error {
	var b strings.Builder
	if res.InsufficientData {
		b.WriteString("The passage has no words to score.\n")
	} else {
		fmt.Fprintf(&b, "Accuracy:      %s\n", stats.FormatMetric(model.MetricAccuracy, res.Accuracy))
		fmt.Fprintf(&b, "Fluency:       %s (%s)\n", stats.FormatMetric(model.MetricFluency, res.FluencyScore), res.FluencyLevel)
		fmt.Fprintf(&b, "Speed:         %s\n", stats.FormatMetric(model.MetricSpeed, res.ReadingSpeed))
		fmt.Fprintf(&b, "Pronunciation: %s\n", stats.FormatMetric(model.MetricPronunciation, res.PronunciationScore))
		fmt.Fprintf(&b, "Pacing:        %.2f (%s confidence)\n", res.PacingConsistency, res.Confidence)
	}
	if corrections := assess.Corrections(res.Mistakes, limit); len(corrections) > 0 {
		b.WriteString("\nCorrections\n")
		for _, c := range corrections {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if len(res.ErrorPatterns) > 0 {
		fmt.Fprintf(&b, "\nError patterns: %s\n", strings.Join(res.ErrorPatterns, ", "))
	}
	summary := assess.Summarize(res)
	writeList(&b, "Strengths", summary.Strengths)
	writeList(&b, "To improve", summary.Improvements)
	writeList(&b, "Next steps", summary.NextSteps)
	if res.ID != "" {
		fmt.Fprintf(&b, "\nSaved session %s\n", res.ID)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show trends over recent sessions",
		Args:  cobra.NoArgs,
		RunE:  runProgressCmd,
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&progressMetric, "metric", string(model.MetricAccuracy), "metric for the improvement line")
	cmd.Flags().IntVar(&progressLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&progressSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&progressCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&progressPlot, "plot", false, "draw learning curves")
	cmd.Flags().IntVar(&progressMistakes, "mistakes", 0, "list the N most missed words")
	return cmd
}

func runProgressCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "last", &progressLast, fileCfg.Progress.Last)
	applyIntConfig(cmd, "curve-window", &progressCurveWindow, fileCfg.Progress.CurveWindow)
	if err := requireLearner(); err != nil {
		return err
	}
	metric, err := parseMetric(progressMetric)
	if err != nil {
		return err
	}
	window, err := buildWindow(progressLast, progressSince)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	engine, err := newEngine(st, assess.DefaultOptions())
	if err != nil {
		return err
	}

	ctx := context.Background()
	report, err := stats.BuildReport(ctx, st, learnerID, window)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	prog, err := engine.Progress(ctx, learnerID, metric, window)
	if err != nil {
		return fmt.Errorf("failed to compute progress: %w", err)
	}
	if prog.HasImprovement {
		if _, err := fmt.Fprintf(out, "%s changed %+.1f%% from first to latest session (%s).\n\n",
			metric, prog.Improvement, prog.Trend.Trend); err != nil {
			return err
		}
	}
	if progressPlot {
		if err := stats.RenderCurves(out, report.Sessions, progressCurveWindow, stats.PlotOptions{}); err != nil {
			return err
		}
	}
	if progressMistakes > 0 {
		if err := stats.RenderMistakes(out, report.Sessions, progressMistakes); err != nil {
			return err
		}
	}
	if len(report.Goals) > 0 {
		return stats.RenderGoals(out, report.Goals)
	}
	return nil
}

func newPhonicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phonics",
		Short: "Show phonics pattern mastery and recommendations",
		Args:  cobra.NoArgs,
		RunE:  runPhonicsCmd,
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().IntVar(&phonicsTop, "top", defaultFocusTop, "number of focus patterns")
	return cmd
}

func runPhonicsCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "top", &phonicsTop, fileCfg.Progress.FocusTop)
	if err := requireLearner(); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	engine, err := newEngine(st, assess.DefaultOptions())
	if err != nil {
		return err
	}
	rep, err := engine.Patterns(context.Background(), learnerID, phonicsTop)
	if err != nil {
		return fmt.Errorf("failed to load phonics stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderPatternTable(out, rep.Stats); err != nil {
		return err
	}
	if len(rep.Focus) > 0 {
		if _, err := fmt.Fprintf(out, "Focus next: %s\n\n", strings.Join(rep.Focus, ", ")); err != nil {
			return err
		}
	}
	var b strings.Builder
	for _, r := range rep.Recommendations {
		fmt.Fprintf(&b, "%s\n  words: %s\n", r.Description, strings.Join(r.PracticeWords, ", "))
		for _, a := range r.Activities {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}
	_, err = io.WriteString(out, b.String())
	return err
}

func newPracticeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Build a practice plan from weak phonics patterns",
		Args:  cobra.NoArgs,
		RunE:  runPracticeCmd,
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id (optional; new learners get a level-based plan)")
	cmd.Flags().IntVar(&practiceLevel, "level", defaultReadingLevel, "reading level 1-5")
	cmd.Flags().IntVar(&practiceWords, "words", defaultPracticeSize, "number of warm-up words")
	cmd.Flags().StringVar(&practiceWordList, "wordlist", "", "word list file (default: catalog examples)")
	cmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for focus patterns")
	cmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "level", &practiceLevel, fileCfg.Assess.ReadingLevel)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	if practiceWords < 0 || practiceWeakFactor < 0 {
		return fmt.Errorf("--words and --weak-factor must be >= 0")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	pool, err := loadPool(cat)
	if err != nil {
		return err
	}

	var focus []string
	if learnerID != "" {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		engine, err := newEngine(st, assess.DefaultOptions())
		if err != nil {
			return err
		}
		rep, err := engine.Patterns(context.Background(), learnerID, defaultFocusTop)
		if err != nil {
			return fmt.Errorf("failed to load phonics stats: %w", err)
		}
		focus = rep.Focus
	}

	builder := practice.New(cat)
	if practiceSeed != 0 {
		builder = practice.NewSeeded(cat, practiceSeed)
	}
	plan := builder.Plan(focus, practiceLevel, pool)
	warmup := builder.Words(pool, practiceWords, plan.Patterns, practiceWeakFactor)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n(about %d minutes)\n", plan.Instructions, plan.EstimatedMinutes)
	if len(warmup) > 0 {
		fmt.Fprintf(&b, "\nWarm-up: %s\n", strings.Join(warmup, " "))
	}
	for i, ex := range plan.Exercises {
		fmt.Fprintf(&b, "\n%d. %s [%s]\n   %s\n", i+1, ex.Instructions, ex.Type, ex.Activity)
		fmt.Fprintf(&b, "   words: %s\n", strings.Join(ex.Words, ", "))
		if len(ex.Distractors) > 0 {
			fmt.Fprintf(&b, "   also listen to: %s\n", strings.Join(ex.Distractors, ", "))
		}
		if len(ex.WordParts) > 0 {
			fmt.Fprintf(&b, "   parts: %s\n", strings.Join(ex.WordParts, " "))
		}
	}
	_, err = io.WriteString(cmd.OutOrStdout(), b.String())
	return err
}

func loadPool(cat catalog.Catalog) ([]string, error) {
	path := practiceWordList
	if path == "" {
		if _, err := os.Stat(config.DefaultWordListPath()); err == nil {
			path = config.DefaultWordListPath()
		}
	}
	if path == "" {
		return wordlist.CatalogWords(cat), nil
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list %s: %w", path, err)
	}
	return wordlist.Filter(words, wordlist.FilterForLang(defaultLanguage)), nil
}

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage reading goals",
	}
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set a target for a metric",
		Args:  cobra.NoArgs,
		RunE:  runGoalSetCmd,
	}
	setCmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	setCmd.Flags().StringVar(&goalMetric, "metric", string(model.MetricAccuracy), "metric (accuracy, fluency, speed, pronunciation)")
	setCmd.Flags().Float64Var(&goalTarget, "target", 0, "target value (fraction for scores, wpm for speed)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  cobra.NoArgs,
		RunE:  runGoalListCmd,
	}
	listCmd.Flags().StringVar(&learnerID, "learner", "", "learner id")

	cmd.AddCommand(setCmd, listCmd)
	return cmd
}

func runGoalSetCmd(cmd *cobra.Command, _ []string) error {
	if err := requireLearner(); err != nil {
		return err
	}
	metric, err := parseMetric(goalMetric)
	if err != nil {
		return err
	}
	if err := validateGoalTarget(metric, goalTarget); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.SetGoal(context.Background(), model.Goal{LearnerID: learnerID, Metric: metric, Target: goalTarget}); err != nil {
		return fmt.Errorf("failed to set goal: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Goal set: %s %s\n", metric, stats.FormatMetric(metric, goalTarget))
	return err
}

func runGoalListCmd(cmd *cobra.Command, _ []string) error {
	if err := requireLearner(); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	goals, err := st.ListGoals(context.Background(), learnerID)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	return stats.RenderGoals(cmd.OutOrStdout(), goals)
}

func newLearnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learners",
		Short: "List learners with recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			learners, err := st.Learners(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list learners: %w", err)
			}
			if len(learners) == 0 {
				log.Info("no learners yet; record a reading with: umeed assess --learner <id>")
				return nil
			}
			for _, l := range learners {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), l); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse progress interactively",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().IntVar(&dashLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&dashCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "last", &dashLast, fileCfg.Progress.Last)
	applyIntConfig(cmd, "curve-window", &dashCurveWindow, fileCfg.Progress.CurveWindow)
	if err := requireLearner(); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := dashboard.NewModel(st, learnerID, model.Window{Last: dashLast}, dashCurveWindow)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.ConfigPath(os.Getenv)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		log.WithField("path", path).Info("wrote default config")
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func parseMetric(s string) (model.Metric, error) {
	m := model.Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range model.Metrics {
		if m == known {
			return m, nil
		}
	}
	names := make([]string, len(model.Metrics))
	for i, known := range model.Metrics {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown metric %q (use one of: %s)", s, strings.Join(names, ", "))
}

func validateGoalTarget(metric model.Metric, target float64) error {
	if target <= 0 {
		return fmt.Errorf("--target must be > 0")
	}
	if metric != model.MetricSpeed && target > 1 {
		return fmt.Errorf("--target for %s is a fraction between 0 and 1", metric)
	}
	return nil
}

func buildWindow(last int, since string) (model.Window, error) {
	if last < 0 {
		return model.Window{}, fmt.Errorf("--last must be >= 0")
	}
	w := model.Window{Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.Window{}, fmt.Errorf("invalid --since value: %w", err)
		}
		w.Since = &parsed
	}
	return w, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# umeed configuration
# Uncomment a value to enable it. CLI flags override config values;
# UMEED_DB, UMEED_WHISPER_URL and UMEED_LOG_LEVEL override the file.

[assess]
# reading-level = %d              # 1-5, picks the speed target
# target-wpm = 60                 # Fixed speed target instead of the level table
# pronunciation-threshold = %.1f   # Sound-alike similarity above which a misread is a pronunciation issue
# corrections = %d                 # Corrections shown after a reading

[progress]
# last = 20                       # Sessions used for trends (0 = all)
# curve-window = %d                # Moving average window for curves
# focus-top = %d                   # Patterns to focus on

[practice]
# wordlist = "~/.config/umeed/words.txt"
# words = %d
# weak-factor = %.1f

[store]
# path = %q

[transcribe]
# url = "http://127.0.0.1:8080"   # whisper.cpp server
# model = "base.en"
# language = "en"
# timeout = "60s"

[catalog]
# path = %q

[log]
# level = "info"
`,
		defaultReadingLevel,
		assess.DefaultPronunciationThreshold,
		assess.DefaultCorrectionLimit,
		defaultCurveWindow,
		defaultFocusTop,
		defaultPracticeSize,
		defaultWeakFactor,
		config.DefaultDBPath(),
		config.DefaultCatalogPath(),
	)
}
