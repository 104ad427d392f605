// Package main provides the CLI entrypoint for movecount.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"movecount/internal/config"
	"movecount/internal/corpus"
	"movecount/internal/model"
	"movecount/internal/quiz"
	"movecount/internal/stats"
	"movecount/internal/store"
	"movecount/internal/tui"
)

const (
	defaultTime        = 180
	defaultPlyAhead    = 4
	defaultSide        = "random"
	defaultCurveWindow = 20
	defaultMinPly      = 10
)

var defaultQuestions = []string{"mover/moves", "mover/checks", "mover/captures"}

var (
	quizTime      int
	quizPlyAhead  int
	quizSide      string
	quizQuestions []string
	quizShowTimer bool
	quizPGN       string
	quizWeights   string

	statsSince       string
	statsLast        int
	statsCurveWindow int

	corpusURL    string
	corpusForce  bool
	corpusMinPly int
	corpusMaxPly int
	corpusPGN    string
	corpusOut    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "movecount",
		Short:         "Timed chess move-counting quiz",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runQuizCmd,
	}

	rootCmd.Flags().IntVar(&quizTime, "time", defaultTime, "session time budget in seconds (0 for untimed)")
	rootCmd.Flags().IntVar(&quizPlyAhead, "ply-ahead", defaultPlyAhead, "half-moves shown before the scored position")
	rootCmd.Flags().StringVar(&quizSide, "side", defaultSide, "side to move at sampled positions (random, white, black)")
	rootCmd.Flags().StringSliceVar(&quizQuestions, "questions", defaultQuestions, "active questions as perspective/kind pairs")
	rootCmd.Flags().BoolVar(&quizShowTimer, "show-timer", true, "show the countdown while solving")
	rootCmd.Flags().StringVar(&quizPGN, "pgn", "", "corpus file (default: user data dir)")
	rootCmd.Flags().StringVar(&quizWeights, "weights", "", "weight index file (default: user data dir)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCorpusCmd())

	return rootCmd
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	corp, err := corpus.Load(settings.PGNPath, settings.WeightsPath)
	if err != nil {
		return corpusLoadError(settings.PGNPath, err)
	}

	dbPath, err := config.DefaultDBPath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	session := quiz.New(settings, corp)
	if err := session.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	uiModel := tui.NewModel(session, st)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func resolveSettings(cmd *cobra.Command) (model.Settings, error) {
	configPath, err := config.DefaultConfigPath()
	if err != nil {
		return model.Settings{}, err
	}
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "time", &quizTime, fileCfg.Quiz.Time)
	applyIntConfig(cmd, "ply-ahead", &quizPlyAhead, fileCfg.Quiz.PlyAhead)
	applyStringConfig(cmd, "side", &quizSide, fileCfg.Quiz.Side)
	applyStringSliceConfig(cmd, "questions", &quizQuestions, fileCfg.Quiz.Questions)
	applyBoolConfig(cmd, "show-timer", &quizShowTimer, fileCfg.Quiz.ShowTimer)
	applyStringConfig(cmd, "pgn", &quizPGN, fileCfg.Quiz.PGN)
	applyStringConfig(cmd, "weights", &quizWeights, fileCfg.Quiz.Weights)

	if quizPlyAhead < 0 {
		return model.Settings{}, fmt.Errorf("--ply-ahead must be >= 0")
	}
	side, err := model.ParseSideMode(quizSide)
	if err != nil {
		return model.Settings{}, err
	}
	if len(quizQuestions) == 0 {
		return model.Settings{}, fmt.Errorf("--questions must not be empty")
	}
	questions := make([]model.QuestionType, 0, len(quizQuestions))
	for _, token := range quizQuestions {
		qt, err := model.ParseQuestionType(token)
		if err != nil {
			return model.Settings{}, err
		}
		questions = append(questions, qt)
	}

	pgnPath := quizPGN
	if pgnPath == "" {
		if pgnPath, err = config.DefaultPGNPath(); err != nil {
			return model.Settings{}, err
		}
	}
	weightsPath := quizWeights
	if weightsPath == "" {
		if weightsPath, err = config.DefaultWeightsPath(); err != nil {
			return model.Settings{}, err
		}
	}

	return model.Settings{
		TimeBudget:  quizTime,
		PlyAhead:    quizPlyAhead,
		Side:        side,
		Questions:   questions,
		ShowTimer:   quizShowTimer,
		PGNPath:     pgnPath,
		WeightsPath: weightsPath,
	}, nil
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
	path, err := config.DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := config.EnsureTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session history and per-question accuracy",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	dbPath, err := config.DefaultDBPath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	return stats.Render(cmd.OutOrStdout(), report, cfg.CurveWindow, width)
}

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Download a PGN corpus and build the weight index",
		Args:  cobra.NoArgs,
		RunE:  runCorpusCmd,
	}
	cmd.Flags().StringVar(&corpusURL, "url", "", "PGN download URL (omit to index an existing file)")
	cmd.Flags().BoolVar(&corpusForce, "force", false, "re-download even if the corpus exists")
	cmd.Flags().IntVar(&corpusMinPly, "min-ply", defaultMinPly, "first ply eligible for sampling")
	cmd.Flags().IntVar(&corpusMaxPly, "max-ply", 0, "last ply eligible for sampling (0 for unbounded)")
	cmd.Flags().StringVar(&corpusPGN, "pgn", "", "corpus file (default: user data dir)")
	cmd.Flags().StringVar(&corpusOut, "weights", "", "weight index output (default: user data dir)")
	return cmd
}

func runCorpusCmd(_ *cobra.Command, _ []string) error {
	pgnPath := corpusPGN
	if pgnPath == "" {
		var err error
		if pgnPath, err = config.DefaultPGNPath(); err != nil {
			return err
		}
	}
	weightsPath := corpusOut
	if weightsPath == "" {
		var err error
		if weightsPath, err = config.DefaultWeightsPath(); err != nil {
			return err
		}
	}

	if corpusURL != "" {
		logErrf("Downloading corpus from %s...\n", corpusURL)
		if err := corpus.Download(context.Background(), corpusURL, pgnPath, corpusForce); err != nil {
			return fmt.Errorf("failed to download corpus: %w", err)
		}
		logErrf("Wrote %s\n", pgnPath)
	}

	pgnFile, err := os.Open(pgnPath)
	if err != nil {
		return corpusLoadError(pgnPath, err)
	}
	defer func() {
		if cerr := pgnFile.Close(); cerr != nil {
			// Best-effort close for read-only corpus.
			_ = cerr
		}
	}()
	games, err := corpus.LoadPGN(pgnFile)
	if err != nil {
		return err
	}

	entries := corpus.BuildIndex(games, corpusMinPly, corpusMaxPly)
	if len(entries) == 0 {
		return fmt.Errorf("no positions in ply range %d..%d across %d games", corpusMinPly, corpusMaxPly, len(games))
	}
	if err := corpus.WriteIndex(weightsPath, entries); err != nil {
		return err
	}
	logErrf("Indexed %d positions from %d games into %s\n", len(entries), len(games), weightsPath)
	return nil
}

func corpusLoadError(path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load corpus: %v", err),
		fmt.Sprintf("expected corpus at: %s", path),
		"Download and index one with: movecount corpus --url <pgn-url>",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
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

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
