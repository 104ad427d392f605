// Package answer computes ground-truth move counts for quiz questions.
package answer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"movecount/internal/model"
)

// ErrInvalidQuestionType signals a (perspective, kind) pair outside the
// enumerated domain. The enumeration is closed, so hitting this is a
// programming error.
var ErrInvalidQuestionType = errors.New("invalid question type")

// Answer computes the count, notation list and target list for one
// question on the given position.
func Answer(pos *chess.Position, qt model.QuestionType) (model.AnswerRecord, error) {
	if !qt.Valid() {
		return model.AnswerRecord{}, fmt.Errorf("%w: %s", ErrInvalidQuestionType, qt)
	}
	evalPos := pos
	if qt.Perspective == model.PerspectiveOpponent {
		flipped, err := flipTurn(pos)
		if err != nil {
			return model.AnswerRecord{}, err
		}
		evalPos = flipped
	}

	notation := chess.AlgebraicNotation{}
	record := model.AnswerRecord{}
	for _, mv := range evalPos.ValidMoves() {
		if !matchesKind(mv, qt.Kind) {
			continue
		}
		record.Count++
		record.Moves = append(record.Moves, notation.Encode(evalPos, mv))
		record.Targets = append(record.Targets, model.Target{
			Square: mv.S2().String(),
			Piece:  PieceName(evalPos.Board().Piece(mv.S1()).Type()),
		})
	}
	return record, nil
}

// matchesKind classifies one generated move. The move generator tags
// captures, en passant captures and checks by applying each candidate to
// a copy of the position, so check classification is trial-based.
func matchesKind(mv *chess.Move, kind model.Kind) bool {
	switch kind {
	case model.KindAllLegal:
		return true
	case model.KindChecks:
		return mv.HasTag(chess.Check)
	case model.KindCaptures:
		return mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant)
	default:
		return false
	}
}

// flipTurn rebuilds the position with the side to move swapped and the
// en passant target cleared. The result may not be reachable in a real
// game; move enumeration on such a state is still well-defined.
func flipTurn(pos *chess.Position) (*chess.Position, error) {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return nil, fmt.Errorf("malformed position descriptor %q", pos.String())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	fenOpt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("failed to flip side to move: %w", err)
	}
	return chess.NewGame(fenOpt).Position(), nil
}

// PieceName returns the display name of a piece kind.
func PieceName(pt chess.PieceType) string {
	switch pt {
	case chess.King:
		return "king"
	case chess.Queen:
		return "queen"
	case chess.Rook:
		return "rook"
	case chess.Bishop:
		return "bishop"
	case chess.Knight:
		return "knight"
	case chess.Pawn:
		return "pawn"
	default:
		return "piece"
	}
}
