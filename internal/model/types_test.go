package model

import "testing"

func TestParseQuestionType(t *testing.T) {
	cases := []struct {
		in   string
		want QuestionType
	}{
		{"mover/moves", QuestionType{Perspective: PerspectiveMover, Kind: KindAllLegal}},
		{"mover/checks", QuestionType{Perspective: PerspectiveMover, Kind: KindChecks}},
		{"opponent/captures", QuestionType{Perspective: PerspectiveOpponent, Kind: KindCaptures}},
		{" Opponent/Moves ", QuestionType{Perspective: PerspectiveOpponent, Kind: KindAllLegal}},
	}
	for _, tc := range cases {
		got, err := ParseQuestionType(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %s, want %s", tc.in, got, tc.want)
		}
		if !got.Valid() {
			t.Fatalf("parsed %q is not valid", tc.in)
		}
	}

	for _, in := range []string{"", "mover", "mover/", "rook/moves", "mover/castles", "a/b/c"} {
		if _, err := ParseQuestionType(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestQuestionTypeString(t *testing.T) {
	qt := QuestionType{Perspective: PerspectiveOpponent, Kind: KindChecks}
	if got := qt.String(); got != "opponent/checks" {
		t.Fatalf("expected opponent/checks, got %q", got)
	}
	round, err := ParseQuestionType(qt.String())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if round != qt {
		t.Fatalf("token did not round-trip: %s", round)
	}
}

func TestQuestionTypeValid(t *testing.T) {
	if (QuestionType{Perspective: Perspective(5), Kind: KindChecks}).Valid() {
		t.Fatal("expected invalid perspective to fail")
	}
	if (QuestionType{Perspective: PerspectiveMover, Kind: Kind(5)}).Valid() {
		t.Fatal("expected invalid kind to fail")
	}
}

func TestParseSideMode(t *testing.T) {
	cases := map[string]SideMode{
		"":       SideRandom,
		"random": SideRandom,
		"white":  SideWhite,
		"Black":  SideBlack,
	}
	for in, want := range cases {
		got, err := ParseSideMode(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseSideMode("green"); err == nil {
		t.Fatal("expected error for unknown side")
	}
}
