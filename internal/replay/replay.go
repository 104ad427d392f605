// Package replay reconstructs board positions from recorded games.
package replay

import (
	"fmt"

	"github.com/notnil/chess"

	"movecount/internal/corpus"
)

// ReplayError reports a transcript that cannot be replayed to the
// requested ply. It indicates corpus corruption, not a user error.
type ReplayError struct {
	Ply int
	Err error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay to ply %d failed: %v", e.Ply, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// Materialize replays the recorded moves 0..ply-1 from the starting
// position. The result is reachable and rules-legal by construction; it
// is never rebuilt from a stored board descriptor.
func Materialize(game *corpus.GameRecord, ply int) (*chess.Position, error) {
	if game == nil {
		return nil, &ReplayError{Ply: ply, Err: fmt.Errorf("game record is nil")}
	}
	moves := game.Moves()
	if ply < 0 || ply > len(moves) {
		return nil, &ReplayError{Ply: ply, Err: fmt.Errorf("ply out of range (game has %d half-moves)", len(moves))}
	}
	pos := chess.StartingPosition()
	for i := 0; i < ply; i++ {
		next := pos.Update(moves[i])
		if next == nil {
			return nil, &ReplayError{Ply: ply, Err: fmt.Errorf("recorded move %d could not be applied", i)}
		}
		pos = next
	}
	return pos, nil
}

// Preview materializes the position plyAhead half-moves before the
// scored ply, clamped at the game start. It returns the preview position
// and the ply it sits at.
func Preview(game *corpus.GameRecord, ply, plyAhead int) (*chess.Position, int, error) {
	start := ply - plyAhead
	if start < 0 {
		start = 0
	}
	pos, err := Materialize(game, start)
	if err != nil {
		return nil, 0, err
	}
	return pos, start, nil
}

// Window returns the SAN notations of the half-moves in [from, to),
// clamped to the recorded game.
func Window(game *corpus.GameRecord, from, to int) []string {
	if game == nil {
		return nil
	}
	if from < 0 {
		from = 0
	}
	if to > game.PlyCount() {
		to = game.PlyCount()
	}
	if from >= to {
		return nil
	}
	out := make([]string, 0, to-from)
	for ply := from; ply < to; ply++ {
		out = append(out, game.SAN(ply))
	}
	return out
}
