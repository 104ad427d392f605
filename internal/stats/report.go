package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"movecount/internal/model"
	"movecount/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions     []model.SessionAggregate
	QuestionAggs []model.QuestionAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	window := cfg.CurveWindow
	if window <= 0 {
		window = len(sessions)
	}
	questionAggs, err := st.ListQuestionAggregates(ctx, window)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions, QuestionAggs: questionAggs}, nil
}

// Render writes the full stats report: summary, score curve and the
// per-question table sorted weakest first. width caps the curve length;
// 0 means unbounded.
func Render(w io.Writer, report Report, curveWindow, width int) error {
	if len(report.Sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if err := renderSummary(w, report.Sessions); err != nil {
		return err
	}
	if err := renderScoreCurve(w, report.Sessions, curveWindow, width); err != nil {
		return err
	}
	return renderQuestionTable(w, report.QuestionAggs)
}

func renderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	var totalScore, bestScore, totalPuzzles int
	var totalRate float64
	for _, s := range sessions {
		totalScore += s.Score
		totalPuzzles += s.Puzzles
		if s.Score > bestScore {
			bestScore = s.Score
		}
		rate, _ := SessionMetrics(s.Score, s.Puzzles, s.DurationMs)
		totalRate += rate
	}
	count := float64(len(sessions))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg score: %.2f\n", float64(totalScore)/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best score: %d\n", bestScore); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Puzzles solved: %d\n", totalPuzzles); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg score/min: %.2f\n", totalRate/count); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderScoreCurve(w io.Writer, sessions []model.SessionAggregate, window, width int) error {
	scores := make([]float64, len(sessions))
	for i, s := range sessions {
		scores[i] = float64(s.Score)
	}
	scores = MovingAverage(scores, window)
	if width > 0 && len(scores) > width {
		scores = scores[len(scores)-width:]
	}
	if _, err := fmt.Fprintln(w, "Score curve (oldest to newest)"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, Sparkline(scores)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderQuestionTable(w io.Writer, aggs []model.QuestionAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No question stats found.")
		return err
	}
	sorted := make([]model.QuestionAggregate, len(aggs))
	copy(sorted, aggs)
	// Weakest question first.
	sort.Slice(sorted, func(i, j int) bool {
		ai := Accuracy(sorted[i].Correct, sorted[i].Incorrect)
		aj := Accuracy(sorted[j].Correct, sorted[j].Incorrect)
		if ai == aj {
			return sorted[i].Question < sorted[j].Question
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Question (Windowed)"); err != nil {
		return err
	}
	cols := []column{
		{title: "Question"},
		{title: "Accuracy", rightAlign: true},
		{title: "Correct", rightAlign: true},
		{title: "Incorrect", rightAlign: true},
	}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		rows = append(rows, []string{
			agg.Question,
			fmt.Sprintf("%.1f%%", Accuracy(agg.Correct, agg.Incorrect)*100),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// WeakestQuestions returns up to n question tokens with the lowest
// accuracy, provided each has at least minAnswers recorded answers.
func WeakestQuestions(aggs []model.QuestionAggregate, n, minAnswers int) []string {
	if n <= 0 {
		return nil
	}
	filtered := make([]model.QuestionAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect >= minAnswers {
			filtered = append(filtered, agg)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		ai := Accuracy(filtered[i].Correct, filtered[i].Incorrect)
		aj := Accuracy(filtered[j].Correct, filtered[j].Incorrect)
		if ai == aj {
			return filtered[i].Question < filtered[j].Question
		}
		return ai < aj
	})
	if len(filtered) > n {
		filtered = filtered[:n]
	}
	out := make([]string, len(filtered))
	for i, agg := range filtered {
		out[i] = agg.Question
	}
	return out
}
