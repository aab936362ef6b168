package matchpresenter

import (
	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/notation"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/pkg/matchdto"
)

// ToDTOBoard renders the board as 8 rows of FEN letters, rank 8 first. Empty squares are "".
func ToDTOBoard(b rules.Board) [][]string {
	rows := make([][]string, 8)
	for r := 0; r < 8; r++ {
		rows[r] = make([]string, 8)
		for c := 0; c < 8; c++ {
			rows[r][c] = b[r][c].Symbol()
		}
	}
	return rows
}

func ToDTOMove(m match.MoveRecord) matchdto.Move {
	return matchdto.Move{
		Ply:       m.Ply,
		Side:      m.Side.String(),
		SAN:       m.SAN,
		UCI:       m.UCI,
		From:      string(m.From),
		To:        string(m.To),
		Promotion: m.Promotion,
		By:        m.By.String(),
	}
}

func toDTOMoves(list []match.MoveRecord) []matchdto.Move {
	out := make([]matchdto.Move, 0, len(list))
	for _, m := range list {
		out = append(out, ToDTOMove(m))
	}
	return out
}

func toDTOSquares(list []rules.Square) []string {
	out := make([]string, 0, len(list))
	for _, sq := range list {
		out = append(out, string(sq))
	}
	return out
}

func toPairStrings(sans []string) []string {
	pairs := notation.Pairs(sans)
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.String())
	}
	return out
}

// retryable is true when the automated side owes a move and nothing is in flight.
func retryable(v match.View) bool {
	return !v.Terminal() && !v.Busy && v.Turn == match.TurnAutomated
}

func toDTOOutcome(v match.View) matchdto.Outcome {
	o := matchdto.Outcome{Kind: v.Outcome.Kind.String()}
	if v.Outcome.Winner != rules.NoColor {
		o.Winner = v.Outcome.Winner.String()
	}
	o.Reason = v.Outcome.Reason.String()
	return o
}
