// Package quiz drives the puzzle lifecycle and scoring state machine.
package quiz

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/notnil/chess"

	"movecount/internal/answer"
	"movecount/internal/corpus"
	"movecount/internal/model"
	"movecount/internal/replay"
	"movecount/internal/sampler"
)

// PenaltyTime is the number of time units deducted per incorrect answer.
const PenaltyTime = 10

// State is the session lifecycle state.
type State int

const (
	// StateLoading means a puzzle is being prepared.
	StateLoading State = iota
	// StateActive means a puzzle is on the board and the clock runs.
	StateActive
	// StateEnded is terminal until an explicit restart.
	StateEnded
)

// String returns a short state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

var (
	// ErrNotActive rejects commands outside the Active state.
	ErrNotActive = errors.New("session is not active")
	// ErrLoadInFlight rejects a puzzle load while another is running.
	ErrLoadInFlight = errors.New("puzzle load already in flight")
)

// Puzzle holds one materialized position and its precomputed answers.
type Puzzle struct {
	GameIndex   int
	Ply         int
	Position    *chess.Position
	Preview     *chess.Position
	PreviewPly  int
	History     []string
	WhiteToMove bool
	Answers     map[model.QuestionType]model.AnswerRecord
}

type questionTally struct {
	correct   int
	incorrect int
}

// SubmitResult reports the effects of one Submit call.
type SubmitResult struct {
	Correct   []model.QuestionType
	Incorrect []model.QuestionType
	Advanced  bool
	Ended     bool
}

// Session owns the single mutable quiz state. All mutating calls must be
// serialized by the caller; the TUI event loop does this naturally.
type Session struct {
	settings model.Settings
	corpus   *corpus.Corpus
	sampler  *sampler.Sampler
	rnd      *rand.Rand

	state         State
	score         int
	timeRemaining int
	untimed       bool
	puzzle        *Puzzle
	correctness   map[model.QuestionType]bool
	puzzles       int
	startedAt     time.Time
	endedAt       time.Time
	revealed      bool
	loading       bool
	tally         map[model.QuestionType]*questionTally
}

// New constructs a session with a time-seeded random source.
func New(settings model.Settings, c *corpus.Corpus) *Session {
	return NewWithRand(settings, c, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand constructs a session using the provided random source for
// both side selection and position sampling.
func NewWithRand(settings model.Settings, c *corpus.Corpus, rnd *rand.Rand) *Session {
	return &Session{
		settings: settings,
		corpus:   c,
		sampler:  sampler.NewWithRand(rnd),
		rnd:      rnd,
		state:    StateEnded,
	}
}

// Start resets score and time and loads the first puzzle. A load failure
// is fatal to session start; the session stays ended.
func (s *Session) Start() error {
	s.score = 0
	s.puzzles = 0
	s.revealed = false
	s.untimed = s.settings.TimeBudget <= 0
	s.timeRemaining = s.settings.TimeBudget
	if s.untimed {
		s.timeRemaining = 0
	}
	s.startedAt = time.Now()
	s.endedAt = time.Time{}
	s.tally = make(map[model.QuestionType]*questionTally, len(s.settings.Questions))
	for _, qt := range s.settings.Questions {
		s.tally[qt] = &questionTally{}
	}
	if err := s.loadPuzzle(); err != nil {
		s.state = StateEnded
		return err
	}
	return nil
}

// loadPuzzle samples, materializes and answers the next puzzle. Exactly
// one load may run at a time; the session is not Active until it
// completes, so no tick or submit can observe a half-built puzzle.
func (s *Session) loadPuzzle() error {
	if s.loading {
		return ErrLoadInFlight
	}
	s.loading = true
	defer func() {
		s.loading = false
	}()
	s.state = StateLoading

	requireWhite := s.resolveSide()
	pick, err := s.sampler.Sample(s.corpus.Weights(), requireWhite)
	if err != nil {
		return err
	}
	game, err := s.corpus.Game(pick.Game)
	if err != nil {
		return err
	}
	pos, err := replay.Materialize(game, pick.Ply)
	if err != nil {
		return err
	}
	preview, previewPly, err := replay.Preview(game, pick.Ply, s.settings.PlyAhead)
	if err != nil {
		return err
	}

	puzzle := &Puzzle{
		GameIndex:   pick.Game,
		Ply:         pick.Ply,
		Position:    pos,
		Preview:     preview,
		PreviewPly:  previewPly,
		History:     replay.Window(game, previewPly, pick.Ply),
		WhiteToMove: pos.Turn() == chess.White,
		Answers:     make(map[model.QuestionType]model.AnswerRecord, len(s.settings.Questions)+2),
	}
	for _, qt := range s.settings.Questions {
		record, err := answer.Answer(pos, qt)
		if err != nil {
			return err
		}
		puzzle.Answers[qt] = record
	}
	// Highlight controls may ask for either color's full move set even
	// when it is not an active question, so both are answered eagerly.
	for _, qt := range []model.QuestionType{
		{Perspective: model.PerspectiveMover, Kind: model.KindAllLegal},
		{Perspective: model.PerspectiveOpponent, Kind: model.KindAllLegal},
	} {
		if _, ok := puzzle.Answers[qt]; ok {
			continue
		}
		record, err := answer.Answer(pos, qt)
		if err != nil {
			return err
		}
		puzzle.Answers[qt] = record
	}

	s.correctness = make(map[model.QuestionType]bool, len(s.settings.Questions))
	for _, qt := range s.settings.Questions {
		s.correctness[qt] = false
	}
	s.puzzle = puzzle
	s.state = StateActive
	return nil
}

func (s *Session) resolveSide() bool {
	switch s.settings.Side {
	case model.SideWhite:
		return true
	case model.SideBlack:
		return false
	default:
		return s.rnd.Intn(2) == 0
	}
}

// Tick advances the countdown by one time unit. No-op when the session
// is not active or untimed; reaching zero ends the session once.
func (s *Session) Tick() {
	if s.state != StateActive || s.untimed {
		return
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining <= 0 {
		s.end(false)
	}
}

// Submit checks the user's counts for every still-open active question.
// A first-time-correct count scores exactly once; an incorrect count
// costs PenaltyTime, which can end the session mid-submission. Scoring
// side effects of the same submission still apply after such an end, but
// no next puzzle is loaded. Missing or malformed counts (callers pass a
// negative value) follow the incorrect path.
func (s *Session) Submit(counts map[model.QuestionType]int) (SubmitResult, error) {
	var res SubmitResult
	if s.state != StateActive {
		return res, ErrNotActive
	}
	for _, qt := range s.Questions() {
		if s.correctness[qt] {
			continue
		}
		got, ok := counts[qt]
		if ok && got == s.puzzle.Answers[qt].Count {
			s.correctness[qt] = true
			s.score++
			s.tally[qt].correct++
			res.Correct = append(res.Correct, qt)
			continue
		}
		s.tally[qt].incorrect++
		res.Incorrect = append(res.Incorrect, qt)
		s.applyPenalty()
	}
	res.Ended = s.state == StateEnded
	if s.state == StateActive && s.allCorrect() {
		s.puzzles++
		if err := s.loadPuzzle(); err != nil {
			s.end(false)
			res.Ended = true
			return res, err
		}
		res.Advanced = true
	}
	return res, nil
}

func (s *Session) applyPenalty() {
	if s.untimed || s.state == StateEnded {
		return
	}
	s.timeRemaining -= PenaltyTime
	if s.timeRemaining <= 0 {
		s.timeRemaining = 0
		s.end(false)
	}
}

func (s *Session) allCorrect() bool {
	for _, qt := range s.settings.Questions {
		if !s.correctness[qt] {
			return false
		}
	}
	return true
}

// Reveal ends the session without changing the score and exposes every
// answer. No-op once ended.
func (s *Session) Reveal() {
	if s.state == StateEnded {
		return
	}
	s.end(true)
}

func (s *Session) end(revealed bool) {
	if s.state == StateEnded {
		return
	}
	s.state = StateEnded
	s.revealed = revealed
	s.endedAt = time.Now()
}

// Highlight returns the answer record for any (perspective, kind) pair on
// the current puzzle, computing and caching it if it was not requested
// before.
func (s *Session) Highlight(qt model.QuestionType) (model.AnswerRecord, error) {
	if s.puzzle == nil {
		return model.AnswerRecord{}, ErrNotActive
	}
	if record, ok := s.puzzle.Answers[qt]; ok {
		return record, nil
	}
	record, err := answer.Answer(s.puzzle.Position, qt)
	if err != nil {
		return model.AnswerRecord{}, err
	}
	s.puzzle.Answers[qt] = record
	return record, nil
}

// Questions returns the active question types in display order for the
// current puzzle's side to move.
func (s *Session) Questions() []model.QuestionType {
	whiteToMove := true
	if s.puzzle != nil {
		whiteToMove = s.puzzle.WhiteToMove
	}
	return OrderedQuestions(s.settings.Questions, whiteToMove)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Score returns the current score.
func (s *Session) Score() int {
	return s.score
}

// TimeRemaining returns the remaining time units; meaningless when
// Untimed reports true.
func (s *Session) TimeRemaining() int {
	return s.timeRemaining
}

// Untimed reports whether the session runs without a countdown.
func (s *Session) Untimed() bool {
	return s.untimed
}

// Puzzle returns the current puzzle, nil before the first load.
func (s *Session) Puzzle() *Puzzle {
	return s.puzzle
}

// Correct reports whether the question was already answered correctly on
// the current puzzle.
func (s *Session) Correct(qt model.QuestionType) bool {
	return s.correctness[qt]
}

// PuzzlesSolved returns the number of fully solved puzzles.
func (s *Session) PuzzlesSolved() int {
	return s.puzzles
}

// Revealed reports whether the session ended through Reveal.
func (s *Session) Revealed() bool {
	return s.revealed
}

// Settings returns the resolved session settings.
func (s *Session) Settings() model.Settings {
	return s.settings
}

// Summary produces the persistence records for the session so far.
func (s *Session) Summary() (model.SessionStats, []model.QuestionStats) {
	endedAt := s.endedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	stats := model.SessionStats{
		StartedAt:  s.startedAt,
		EndedAt:    endedAt,
		TimeBudget: s.settings.TimeBudget,
		PlyAhead:   s.settings.PlyAhead,
		Side:       s.settings.Side.String(),
		Score:      s.score,
		Puzzles:    s.puzzles,
		DurationMs: endedAt.Sub(s.startedAt).Milliseconds(),
		Revealed:   s.revealed,
	}
	questions := make([]model.QuestionStats, 0, len(s.tally))
	for _, qt := range OrderedQuestions(s.settings.Questions, true) {
		t, ok := s.tally[qt]
		if !ok {
			continue
		}
		questions = append(questions, model.QuestionStats{
			Question:  qt.String(),
			Correct:   t.correct,
			Incorrect: t.incorrect,
		})
	}
	return stats, questions
}

var kindOrder = map[model.Kind]int{
	model.KindAllLegal: 0,
	model.KindChecks:   1,
	model.KindCaptures: 2,
}

// OrderedQuestions sorts question types by a fixed table over absolute
// color and kind: White before Black, then moves, checks, captures.
func OrderedQuestions(active []model.QuestionType, whiteToMove bool) []model.QuestionType {
	out := make([]model.QuestionType, 0, len(active))
	seen := make(map[model.QuestionType]struct{}, len(active))
	for _, qt := range active {
		if _, ok := seen[qt]; ok {
			continue
		}
		seen[qt] = struct{}{}
		out = append(out, qt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return displayRank(out[i], whiteToMove) < displayRank(out[j], whiteToMove)
	})
	return out
}

func displayRank(qt model.QuestionType, whiteToMove bool) int {
	color := 1
	if (qt.Perspective == model.PerspectiveMover) == whiteToMove {
		color = 0
	}
	return color*len(kindOrder) + kindOrder[qt.Kind]
}

// QuestionLabel renders a question as an absolute-color label, e.g.
// "White checks".
func QuestionLabel(qt model.QuestionType, whiteToMove bool) string {
	color := "Black"
	if (qt.Perspective == model.PerspectiveMover) == whiteToMove {
		color = "White"
	}
	switch qt.Kind {
	case model.KindChecks:
		return color + " checks"
	case model.KindCaptures:
		return color + " captures"
	default:
		return color + " moves"
	}
}
