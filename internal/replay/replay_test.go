package replay

import (
	"errors"
	"strings"
	"testing"

	"github.com/notnil/chess"

	"movecount/internal/corpus"
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

func loadTestGame(t *testing.T) *corpus.GameRecord {
	t.Helper()
	games, err := corpus.LoadPGN(strings.NewReader(testPGN))
	if err != nil {
		t.Fatalf("load pgn: %v", err)
	}
	return games[0]
}

func TestMaterializeStart(t *testing.T) {
	game := loadTestGame(t)
	pos, err := Materialize(game, 0)
	if err != nil {
		t.Fatalf("materialize ply 0: %v", err)
	}
	if pos.String() != chess.StartingPosition().String() {
		t.Fatalf("ply 0 is not the starting position: %s", pos.String())
	}
	if pos.Turn() != chess.White {
		t.Fatal("expected white to move at ply 0")
	}
}

func TestMaterializeConsecutive(t *testing.T) {
	game := loadTestGame(t)
	moves := game.Moves()
	for ply := 0; ply < game.PlyCount(); ply++ {
		cur, err := Materialize(game, ply)
		if err != nil {
			t.Fatalf("materialize ply %d: %v", ply, err)
		}
		next, err := Materialize(game, ply+1)
		if err != nil {
			t.Fatalf("materialize ply %d: %v", ply+1, err)
		}
		applied := cur.Update(moves[ply])
		if applied == nil {
			t.Fatalf("move %d did not apply", ply)
		}
		if applied.String() != next.String() {
			t.Fatalf("ply %d: applying recorded move diverged\nwant %s\ngot  %s", ply, next.String(), applied.String())
		}
		wantWhite := (ply+1)%2 == 0
		if (next.Turn() == chess.White) != wantWhite {
			t.Fatalf("ply %d: side to move does not match parity", ply+1)
		}
	}
}

func TestMaterializeOutOfRange(t *testing.T) {
	game := loadTestGame(t)
	for _, ply := range []int{-1, game.PlyCount() + 1} {
		_, err := Materialize(game, ply)
		if err == nil {
			t.Fatalf("expected error for ply %d", ply)
		}
		var rerr *ReplayError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected ReplayError, got %T", err)
		}
		if rerr.Ply != ply {
			t.Fatalf("expected failing ply %d, got %d", ply, rerr.Ply)
		}
	}
	if _, err := Materialize(nil, 0); err == nil {
		t.Fatal("expected error for nil game")
	}
}

func TestPreviewClamp(t *testing.T) {
	game := loadTestGame(t)
	pos, start, err := Preview(game, 1, 4)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if start != 0 {
		t.Fatalf("expected preview clamped to ply 0, got %d", start)
	}
	if pos.String() != chess.StartingPosition().String() {
		t.Fatal("clamped preview is not the starting position")
	}

	pos, start, err = Preview(game, 6, 2)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if start != 4 {
		t.Fatalf("expected preview at ply 4, got %d", start)
	}
	want, err := Materialize(game, 4)
	if err != nil {
		t.Fatalf("materialize ply 4: %v", err)
	}
	if pos.String() != want.String() {
		t.Fatal("preview position does not match ply 4")
	}
}

func TestWindow(t *testing.T) {
	game := loadTestGame(t)
	got := Window(game, 0, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 notations, got %d", len(got))
	}
	if got[0] != "e4" || got[1] != "e5" || got[2] != "Nf3" {
		t.Fatalf("unexpected window: %v", got)
	}
	if Window(game, 3, 3) != nil {
		t.Fatal("expected nil window for empty range")
	}
	if got := Window(game, 8, 99); len(got) != 2 {
		t.Fatalf("expected window clamped to 2 notations, got %d", len(got))
	}
	if Window(nil, 0, 2) != nil {
		t.Fatal("expected nil window for nil game")
	}
}
