// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Perspective selects whose hypothetical turn a question counts moves for.
type Perspective int

const (
	// PerspectiveMover counts moves for the side to move at the scored position.
	PerspectiveMover Perspective = iota
	// PerspectiveOpponent counts moves for the other side, as if it were its turn.
	PerspectiveOpponent
)

// String returns the config token for the perspective.
func (p Perspective) String() string {
	switch p {
	case PerspectiveMover:
		return "mover"
	case PerspectiveOpponent:
		return "opponent"
	default:
		return fmt.Sprintf("perspective(%d)", int(p))
	}
}

// Kind selects which subset of legal moves a question counts.
type Kind int

const (
	// KindAllLegal counts every legal move.
	KindAllLegal Kind = iota
	// KindChecks counts legal moves that give check.
	KindChecks
	// KindCaptures counts legal moves that capture, en passant included.
	KindCaptures
)

// String returns the config token for the kind.
func (k Kind) String() string {
	switch k {
	case KindAllLegal:
		return "moves"
	case KindChecks:
		return "checks"
	case KindCaptures:
		return "captures"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// QuestionType identifies one quiz question as a (perspective, kind) pair.
type QuestionType struct {
	Perspective Perspective
	Kind        Kind
}

// String renders the config token, e.g. "mover/checks".
func (qt QuestionType) String() string {
	return qt.Perspective.String() + "/" + qt.Kind.String()
}

// Valid reports whether both tags are inside the enumerated domain.
func (qt QuestionType) Valid() bool {
	switch qt.Perspective {
	case PerspectiveMover, PerspectiveOpponent:
	default:
		return false
	}
	switch qt.Kind {
	case KindAllLegal, KindChecks, KindCaptures:
	default:
		return false
	}
	return true
}

// ParseQuestionType parses a "perspective/kind" token.
func ParseQuestionType(s string) (QuestionType, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "/", 2)
	if len(parts) != 2 {
		return QuestionType{}, fmt.Errorf("invalid question %q (expected perspective/kind)", s)
	}
	var qt QuestionType
	switch parts[0] {
	case "mover":
		qt.Perspective = PerspectiveMover
	case "opponent":
		qt.Perspective = PerspectiveOpponent
	default:
		return QuestionType{}, fmt.Errorf("unknown perspective %q (use mover or opponent)", parts[0])
	}
	switch parts[1] {
	case "moves":
		qt.Kind = KindAllLegal
	case "checks":
		qt.Kind = KindChecks
	case "captures":
		qt.Kind = KindCaptures
	default:
		return QuestionType{}, fmt.Errorf("unknown kind %q (use moves, checks or captures)", parts[1])
	}
	return qt, nil
}

// Target is the destination square of one counted move and the piece that moves there.
type Target struct {
	Square string
	Piece  string
}

// AnswerRecord is the ground truth for one question on one puzzle.
// Targets are kept in enumeration order and are not deduplicated; the
// display layer renders duplicate counts.
type AnswerRecord struct {
	Count   int
	Moves   []string
	Targets []Target
}

// SideMode selects which side is to move at sampled positions.
type SideMode int

const (
	// SideRandom flips a coin per puzzle.
	SideRandom SideMode = iota
	// SideWhite always samples white-to-move positions.
	SideWhite
	// SideBlack always samples black-to-move positions.
	SideBlack
)

// String returns the config token for the side mode.
func (m SideMode) String() string {
	switch m {
	case SideWhite:
		return "white"
	case SideBlack:
		return "black"
	default:
		return "random"
	}
}

// ParseSideMode parses a side mode config token.
func ParseSideMode(s string) (SideMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return SideRandom, nil
	case "white":
		return SideWhite, nil
	case "black":
		return SideBlack, nil
	default:
		return SideRandom, fmt.Errorf("unknown side %q (use white, black or random)", s)
	}
}

// Settings defines resolved quiz session settings. TimeBudget <= 0 means
// an untimed session.
type Settings struct {
	TimeBudget  int
	PlyAhead    int
	Side        SideMode
	Questions   []QuestionType
	ShowTimer   bool
	PGNPath     string
	WeightsPath string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats captures a completed quiz session.
type SessionStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	TimeBudget int
	PlyAhead   int
	Side       string
	Score      int
	Puzzles    int
	DurationMs int64
	Revealed   bool
}

// QuestionStats stores per-question-type results for a session.
type QuestionStats struct {
	Question  string
	Correct   int
	Incorrect int
}

// QuestionAggregate aggregates question results across sessions.
type QuestionAggregate struct {
	Question  string
	Correct   int
	Incorrect int
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Score      int
	Puzzles    int
	DurationMs int64
}
