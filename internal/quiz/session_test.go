package quiz

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"movecount/internal/corpus"
	"movecount/internal/model"
	"movecount/internal/sampler"
)

const testPGN = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Ba4 Nf6 5. O-O Be7 1-0
`

// After 1. e4 e5 White has 29 legal moves, none of them checks.
const movesAfterTwoPlies = 29

var (
	qtMoves  = model.QuestionType{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal}
	qtChecks = model.QuestionType{Perspective: model.PerspectiveMover, Kind: model.KindChecks}
)

func testCorpus(t *testing.T, weightsJSON string) *corpus.Corpus {
	t.Helper()
	dir := t.TempDir()
	pgnPath := filepath.Join(dir, "corpus.pgn")
	weightsPath := filepath.Join(dir, "weights.json")
	if err := os.WriteFile(pgnPath, []byte(testPGN), 0o644); err != nil {
		t.Fatalf("write pgn: %v", err)
	}
	if err := os.WriteFile(weightsPath, []byte(weightsJSON), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	c, err := corpus.Load(pgnPath, weightsPath)
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	return c
}

func testSession(t *testing.T, settings model.Settings) *Session {
	t.Helper()
	c := testCorpus(t, `[{"game":0,"ply":2,"weight":1}]`)
	return NewWithRand(settings, c, rand.New(rand.NewSource(1)))
}

func TestSessionStart(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 30,
		PlyAhead:   2,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != StateActive {
		t.Fatalf("expected active state, got %s", s.State())
	}
	if s.TimeRemaining() != 30 || s.Score() != 0 {
		t.Fatalf("unexpected initial clock/score: %d/%d", s.TimeRemaining(), s.Score())
	}

	puzzle := s.Puzzle()
	if puzzle == nil {
		t.Fatal("expected puzzle after start")
	}
	if puzzle.Ply != 2 || !puzzle.WhiteToMove {
		t.Fatalf("unexpected puzzle: ply %d, whiteToMove %v", puzzle.Ply, puzzle.WhiteToMove)
	}
	if puzzle.PreviewPly != 0 {
		t.Fatalf("expected preview at ply 0, got %d", puzzle.PreviewPly)
	}
	if len(puzzle.History) != 2 || puzzle.History[0] != "e4" || puzzle.History[1] != "e5" {
		t.Fatalf("unexpected history: %v", puzzle.History)
	}
	if puzzle.Answers[qtMoves].Count != movesAfterTwoPlies {
		t.Fatalf("expected %d legal moves, got %d", movesAfterTwoPlies, puzzle.Answers[qtMoves].Count)
	}
	// Both colors' full move sets are always available for highlights.
	oppAll := model.QuestionType{Perspective: model.PerspectiveOpponent, Kind: model.KindAllLegal}
	if _, ok := puzzle.Answers[oppAll]; !ok {
		t.Fatal("expected opponent all-legal answer to be precomputed")
	}
}

func TestSessionSolveAdvances(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 30,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := s.Submit(map[model.QuestionType]int{qtMoves: movesAfterTwoPlies})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Advanced || res.Ended {
		t.Fatalf("expected advance, got %+v", res)
	}
	if s.Score() != 1 || s.PuzzlesSolved() != 1 {
		t.Fatalf("expected score 1 and 1 solved, got %d/%d", s.Score(), s.PuzzlesSolved())
	}
	if s.State() != StateActive {
		t.Fatalf("expected active state after advance, got %s", s.State())
	}
	if s.Correct(qtMoves) {
		t.Fatal("correctness must reset on the next puzzle")
	}

	// The single weight entry loads the same position again.
	res, err = s.Submit(map[model.QuestionType]int{qtMoves: movesAfterTwoPlies})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !res.Advanced || s.Score() != 2 || s.PuzzlesSolved() != 2 {
		t.Fatalf("expected second solve, got %+v score %d solved %d", res, s.Score(), s.PuzzlesSolved())
	}
}

func TestSessionPenaltyEndsOnce(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 30,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i, wantTime := range []int{20, 10, 0} {
		res, err := s.Submit(map[model.QuestionType]int{qtMoves: -1})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if len(res.Incorrect) != 1 {
			t.Fatalf("submit %d: expected 1 incorrect, got %d", i, len(res.Incorrect))
		}
		if s.TimeRemaining() != wantTime {
			t.Fatalf("submit %d: expected time %d, got %d", i, wantTime, s.TimeRemaining())
		}
	}
	if s.State() != StateEnded {
		t.Fatalf("expected ended state, got %s", s.State())
	}
	if s.Score() != 0 {
		t.Fatalf("expected score 0, got %d", s.Score())
	}

	if _, err := s.Submit(map[model.QuestionType]int{qtMoves: movesAfterTwoPlies}); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after end, got %v", err)
	}
	s.Tick()
	if s.TimeRemaining() != 0 {
		t.Fatal("tick after end must not change the clock")
	}
}

func TestSessionScoringIdempotent(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 60,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves, qtChecks},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := s.Submit(map[model.QuestionType]int{qtMoves: movesAfterTwoPlies, qtChecks: 5})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Correct) != 1 || len(res.Incorrect) != 1 || res.Advanced {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.Score() != 1 || s.TimeRemaining() != 50 {
		t.Fatalf("expected score 1 and time 50, got %d/%d", s.Score(), s.TimeRemaining())
	}
	if !s.Correct(qtMoves) || s.Correct(qtChecks) {
		t.Fatal("unexpected correctness state")
	}

	// The solved question is skipped: its count cannot score twice and a
	// now-wrong value for it costs nothing.
	res, err = s.Submit(map[model.QuestionType]int{qtMoves: 0, qtChecks: 0})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !res.Advanced {
		t.Fatalf("expected advance, got %+v", res)
	}
	if s.Score() != 2 || s.TimeRemaining() != 50 {
		t.Fatalf("expected score 2 and time 50, got %d/%d", s.Score(), s.TimeRemaining())
	}

	stats, questions := s.Summary()
	if stats.Score != 2 || stats.Puzzles != 1 {
		t.Fatalf("unexpected summary: %+v", stats)
	}
	byQuestion := make(map[string]model.QuestionStats, len(questions))
	for _, qs := range questions {
		byQuestion[qs.Question] = qs
	}
	if qs := byQuestion["mover/moves"]; qs.Correct != 1 || qs.Incorrect != 0 {
		t.Fatalf("unexpected moves tally: %+v", qs)
	}
	if qs := byQuestion["mover/checks"]; qs.Correct != 1 || qs.Incorrect != 1 {
		t.Fatalf("unexpected checks tally: %+v", qs)
	}
}

func TestSessionPenaltyMidSubmission(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 10,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves, qtChecks},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Moves is graded first, its penalty drains the clock, and the checks
	// answer still scores afterwards.
	res, err := s.Submit(map[model.QuestionType]int{qtMoves: -1, qtChecks: 0})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Ended || res.Advanced {
		t.Fatalf("expected ended without advance, got %+v", res)
	}
	if s.State() != StateEnded {
		t.Fatalf("expected ended state, got %s", s.State())
	}
	if s.Score() != 1 {
		t.Fatalf("expected the late correct answer to score, got %d", s.Score())
	}
	if s.PuzzlesSolved() != 0 {
		t.Fatalf("expected no solved puzzles, got %d", s.PuzzlesSolved())
	}
}

func TestSessionTick(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 5,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 4; i++ {
		s.Tick()
	}
	if s.TimeRemaining() != 1 || s.State() != StateActive {
		t.Fatalf("expected 1 unit left and active, got %d/%s", s.TimeRemaining(), s.State())
	}
	s.Tick()
	if s.State() != StateEnded {
		t.Fatalf("expected ended at zero, got %s", s.State())
	}
	s.Tick()
	if s.TimeRemaining() != 0 || s.State() != StateEnded {
		t.Fatal("tick after end must be a no-op")
	}
}

func TestSessionUntimed(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 0,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.Untimed() {
		t.Fatal("expected untimed session")
	}
	s.Tick()
	for i := 0; i < 5; i++ {
		if _, err := s.Submit(map[model.QuestionType]int{qtMoves: -1}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if s.State() != StateActive {
		t.Fatalf("untimed session must not end on penalties, got %s", s.State())
	}
}

func TestSessionReveal(t *testing.T) {
	s := testSession(t, model.Settings{
		TimeBudget: 30,
		Side:       model.SideWhite,
		Questions:  []model.QuestionType{qtMoves},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Reveal()
	if s.State() != StateEnded || !s.Revealed() {
		t.Fatalf("expected revealed end, got %s revealed=%v", s.State(), s.Revealed())
	}
	if s.Score() != 0 {
		t.Fatalf("reveal must not change the score, got %d", s.Score())
	}
	s.Reveal()
	if s.State() != StateEnded {
		t.Fatal("second reveal must be a no-op")
	}

	record, err := s.Highlight(model.QuestionType{Perspective: model.PerspectiveOpponent, Kind: model.KindCaptures})
	if err != nil {
		t.Fatalf("highlight: %v", err)
	}
	if record.Count < 0 {
		t.Fatalf("unexpected highlight record: %+v", record)
	}
}

func TestSessionEmptyPartition(t *testing.T) {
	c := testCorpus(t, `[{"game":0,"ply":2,"weight":1}]`)
	s := NewWithRand(model.Settings{
		TimeBudget: 30,
		Side:       model.SideBlack,
		Questions:  []model.QuestionType{qtMoves},
	}, c, rand.New(rand.NewSource(1)))
	err := s.Start()
	if !errors.Is(err, sampler.ErrEmptyPartition) {
		t.Fatalf("expected ErrEmptyPartition, got %v", err)
	}
	if s.State() != StateEnded {
		t.Fatalf("failed start must leave the session ended, got %s", s.State())
	}
}

func TestOrderedQuestions(t *testing.T) {
	active := []model.QuestionType{
		{Perspective: model.PerspectiveOpponent, Kind: model.KindCaptures},
		{Perspective: model.PerspectiveMover, Kind: model.KindChecks},
		{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal},
		{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal}, // duplicate
	}

	whiteOrder := OrderedQuestions(active, true)
	if len(whiteOrder) != 3 {
		t.Fatalf("expected duplicates removed, got %d entries", len(whiteOrder))
	}
	want := []model.QuestionType{
		{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal},
		{Perspective: model.PerspectiveMover, Kind: model.KindChecks},
		{Perspective: model.PerspectiveOpponent, Kind: model.KindCaptures},
	}
	for i := range want {
		if whiteOrder[i] != want[i] {
			t.Fatalf("white order[%d] = %s, want %s", i, whiteOrder[i], want[i])
		}
	}

	// With Black to move the opponent questions describe White and come
	// first.
	blackOrder := OrderedQuestions(active, false)
	want = []model.QuestionType{
		{Perspective: model.PerspectiveOpponent, Kind: model.KindCaptures},
		{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal},
		{Perspective: model.PerspectiveMover, Kind: model.KindChecks},
	}
	for i := range want {
		if blackOrder[i] != want[i] {
			t.Fatalf("black order[%d] = %s, want %s", i, blackOrder[i], want[i])
		}
	}
}

func TestQuestionLabel(t *testing.T) {
	cases := []struct {
		qt          model.QuestionType
		whiteToMove bool
		want        string
	}{
		{qtMoves, true, "White moves"},
		{qtMoves, false, "Black moves"},
		{model.QuestionType{Perspective: model.PerspectiveOpponent, Kind: model.KindChecks}, true, "Black checks"},
		{model.QuestionType{Perspective: model.PerspectiveOpponent, Kind: model.KindCaptures}, false, "White captures"},
	}
	for _, tc := range cases {
		if got := QuestionLabel(tc.qt, tc.whiteToMove); got != tc.want {
			t.Fatalf("QuestionLabel(%s, %v) = %q, want %q", tc.qt, tc.whiteToMove, got, tc.want)
		}
	}
}
