package rules

import (
	"errors"
	"testing"
)

func play(t *testing.T, o Oracle, pos Position, moves ...string) Position {
	t.Helper()
	for _, mv := range moves {
		applied, err := o.ApplyNotation(pos, mv)
		if err != nil {
			t.Fatalf("apply %s: %v", mv, err)
		}
		pos = applied.Position
	}
	return pos
}

func TestInitialPosition(t *testing.T) {
	o := NewOracle()
	pos := o.Initial()
	if pos.FEN() != StartFEN {
		t.Fatalf("fen = %q", pos.FEN())
	}
	if o.SideToMove(pos) != White {
		t.Fatalf("expected white to move")
	}
	if pos.Facts().LegalMoves != 20 {
		t.Fatalf("legal moves = %d, want 20", pos.Facts().LegalMoves)
	}
	if o.IsInCheck(pos) {
		t.Fatalf("start position is not check")
	}
	p, ok := o.PieceAt(pos, "e1")
	if !ok || p.Kind != 'k' || p.Color != White {
		t.Fatalf("e1 = %+v ok=%v", p, ok)
	}
	if _, ok := o.PieceAt(pos, "e4"); ok {
		t.Fatalf("e4 should be empty")
	}
	b := o.Board(pos)
	if b[0][4].Symbol() != "k" || b[7][4].Symbol() != "K" {
		t.Fatalf("board orientation wrong: %q %q", b[0][4].Symbol(), b[7][4].Symbol())
	}
}

func TestLegalDestinations(t *testing.T) {
	o := NewOracle()
	pos := o.Initial()
	got := o.LegalDestinations(pos, "e2")
	if len(got) != 2 {
		t.Fatalf("e2 destinations = %v", got)
	}
	want := map[Square]bool{"e3": true, "e4": true}
	for _, sq := range got {
		if !want[sq] {
			t.Fatalf("unexpected destination %s", sq)
		}
	}
	if d := o.LegalDestinations(pos, "e5"); len(d) != 0 {
		t.Fatalf("empty square has destinations %v", d)
	}
	if d := o.LegalDestinations(pos, "z9"); d != nil {
		t.Fatalf("invalid square has destinations %v", d)
	}
}

func TestApplyMoveDoesNotMutateInput(t *testing.T) {
	o := NewOracle()
	pos := o.Initial()
	applied, err := o.ApplyMove(pos, MoveSpec{From: "e2", To: "e4"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.SAN != "e4" || applied.UCI != "e2e4" {
		t.Fatalf("san=%q uci=%q", applied.SAN, applied.UCI)
	}
	if pos.FEN() != StartFEN || pos.Ply() != 0 {
		t.Fatalf("input position changed: %s", pos.FEN())
	}
	if applied.Position.Ply() != 1 || applied.Position.Turn() != Black {
		t.Fatalf("successor ply=%d turn=%s", applied.Position.Ply(), applied.Position.Turn())
	}
	if got := applied.Position.Lineage(); len(got) != 1 || got[0] != "e2e4" {
		t.Fatalf("lineage = %v", got)
	}
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	o := NewOracle()
	pos := o.Initial()
	if _, err := o.ApplyMove(pos, MoveSpec{From: "e2", To: "e5"}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("want ErrIllegalMove, got %v", err)
	}
	if _, err := o.ApplyMove(pos, MoveSpec{From: "e7", To: "e5"}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("moving opponent piece: want ErrIllegalMove, got %v", err)
	}
	if _, err := o.ApplyMove(pos, MoveSpec{From: "x1", To: "e5"}); !errors.Is(err, ErrInvalidSquare) {
		t.Fatalf("want ErrInvalidSquare, got %v", err)
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	o := NewOracle()
	pos, err := o.FromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	applied, err := o.ApplyMove(pos, MoveSpec{From: "a7", To: "a8"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Promotion != "q" || applied.UCI != "a7a8q" {
		t.Fatalf("promotion=%q uci=%q", applied.Promotion, applied.UCI)
	}
	p, _ := o.PieceAt(applied.Position, "a8")
	if p.Kind != 'q' {
		t.Fatalf("a8 = %+v", p)
	}

	under, err := o.ApplyMove(pos, MoveSpec{From: "a7", To: "a8", Promotion: "n"})
	if err != nil {
		t.Fatalf("underpromote: %v", err)
	}
	if under.Promotion != "n" {
		t.Fatalf("promotion=%q", under.Promotion)
	}
}

func TestApplyNotationForms(t *testing.T) {
	o := NewOracle()
	pos := play(t, o, o.Initial(), "e4")
	cases := []string{"e5", "e7e5", "1... e5", "e5!?", "E7E5"}
	for _, c := range cases {
		applied, err := o.ApplyNotation(pos, c)
		if err != nil {
			t.Fatalf("%q: %v", c, err)
		}
		if applied.UCI != "e7e5" {
			t.Fatalf("%q decoded to %s", c, applied.UCI)
		}
	}
	if _, err := o.ApplyNotation(pos, "Qxz9"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("garbage: want ErrIllegalMove, got %v", err)
	}
	if _, err := o.ApplyNotation(pos, ""); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("empty: want ErrIllegalMove, got %v", err)
	}
}

func TestCheckAndMateFacts(t *testing.T) {
	o := NewOracle()
	pos := play(t, o, o.Initial(), "f3", "e5", "g4", "Qh4#")
	f := pos.Facts()
	if !f.InCheck || f.LegalMoves != 0 {
		t.Fatalf("facts = %+v", f)
	}
	if f.SideToMove != White {
		t.Fatalf("side to move = %s", f.SideToMove)
	}
}

func TestInCheckAfterMove(t *testing.T) {
	o := NewOracle()
	cases := []struct {
		fen  string
		move string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "Ra8", true},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "Ra7", false},
		{"4k3/8/3P4/8/8/8/8/4K3 w - - 0 1", "d7", true},
		{"4k3/8/8/4N3/8/8/8/4K3 w - - 0 1", "Nd6", true},
		{"4k3/8/8/8/8/8/8/1B2K3 w - - 0 1", "Bg6", true},
	}
	for _, c := range cases {
		start, err := o.FromFEN(c.fen)
		if err != nil {
			t.Fatalf("fen %s: %v", c.fen, err)
		}
		pos := play(t, o, start, c.move)
		if got := o.IsInCheck(pos); got != c.want {
			t.Fatalf("%s %s: check = %v, want %v", c.fen, c.move, got, c.want)
		}
	}
}

func TestThreefoldRepetition(t *testing.T) {
	o := NewOracle()
	twice := play(t, o, o.Initial(), "Nf3", "Nf6", "Ng1", "Ng8")
	if twice.Facts().Threefold {
		t.Fatalf("second occurrence flagged as threefold")
	}
	thrice := play(t, o, twice, "Nf3", "Nf6", "Ng1", "Ng8")
	if !thrice.Facts().Threefold {
		t.Fatalf("third occurrence not flagged")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	o := NewOracle()
	pos, err := o.FromFEN("4k3/8/8/8/8/8/p7/R3K3 w - - 99 80")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	if pos.Facts().FiftyMoves {
		t.Fatalf("clock 99 flagged")
	}
	quiet := play(t, o, pos, "Kd2")
	if f := quiet.Facts(); !f.FiftyMoves || f.HalfmoveClock != 100 {
		t.Fatalf("after quiet move facts = %+v", f)
	}
	capture := play(t, o, pos, "Rxa2")
	if f := capture.Facts(); f.FiftyMoves || f.HalfmoveClock != 0 {
		t.Fatalf("capture should reset the clock, facts = %+v", f)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	o := NewOracle()
	cases := []struct {
		fen  string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/3NK3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/2B1K3 w - - 0 1", true},
		{"2b1k3/8/8/8/8/8/8/2B1K3 w - - 0 1", false},
		{"3bk3/8/8/8/8/8/8/2B1K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/3RK3 w - - 0 1", false},
		{"4k3/p7/8/8/8/8/8/4K3 w - - 0 1", false},
	}
	for _, c := range cases {
		pos, err := o.FromFEN(c.fen)
		if err != nil {
			t.Fatalf("fen %s: %v", c.fen, err)
		}
		if got := pos.Facts().InsufficientMaterial; got != c.want {
			t.Fatalf("%s: insufficient = %v, want %v", c.fen, got, c.want)
		}
	}
}

func TestFromFENRejectsGarbage(t *testing.T) {
	o := NewOracle()
	if _, err := o.FromFEN("not a fen"); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("want ErrInvalidFEN, got %v", err)
	}
}

func TestParseSquare(t *testing.T) {
	if sq, err := ParseSquare(" E4 "); err != nil || sq != "e4" {
		t.Fatalf("ParseSquare = %q, %v", sq, err)
	}
	for _, bad := range []string{"", "i1", "a9", "a", "a10"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrInvalidSquare) {
			t.Fatalf("%q: want ErrInvalidSquare, got %v", bad, err)
		}
	}
	if SquareAt(0, 0) != "a8" || SquareAt(7, 7) != "h1" {
		t.Fatalf("SquareAt mapping wrong")
	}
}
