// Package terminal classifies a position as ongoing or finished.
package terminal

import "github.com/park285/cheese-match/internal/rules"

// Facts are the oracle-computed inputs of Detect.
type Facts = rules.Facts

type Kind int

const (
	Ongoing Kind = iota
	Checkmate
	Stalemate
	Draw
)

func (k Kind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

type DrawReason int

const (
	NoDraw DrawReason = iota
	ThreefoldRepetition
	InsufficientMaterial
	FiftyMoveRule
)

func (r DrawReason) String() string {
	switch r {
	case ThreefoldRepetition:
		return "threefold_repetition"
	case InsufficientMaterial:
		return "insufficient_material"
	case FiftyMoveRule:
		return "fifty_move_rule"
	default:
		return ""
	}
}

// Outcome is exactly one classification. Winner is set only for Checkmate, Reason only for Draw.
type Outcome struct {
	Kind   Kind
	Winner rules.Color
	Reason DrawReason
}

func (o Outcome) Terminal() bool { return o.Kind != Ongoing }

func (o Outcome) String() string {
	switch o.Kind {
	case Checkmate:
		return "checkmate:" + o.Winner.String()
	case Draw:
		return "draw:" + o.Reason.String()
	default:
		return o.Kind.String()
	}
}

// Detect evaluates checkmate, stalemate, threefold repetition, insufficient
// material and the fifty-move rule in that order.
func Detect(f Facts) Outcome {
	if f.LegalMoves == 0 {
		if f.InCheck {
			return Outcome{Kind: Checkmate, Winner: f.SideToMove.Other()}
		}
		return Outcome{Kind: Stalemate}
	}
	switch {
	case f.Threefold:
		return Outcome{Kind: Draw, Reason: ThreefoldRepetition}
	case f.InsufficientMaterial:
		return Outcome{Kind: Draw, Reason: InsufficientMaterial}
	case f.FiftyMoves:
		return Outcome{Kind: Draw, Reason: FiftyMoveRule}
	}
	return Outcome{Kind: Ongoing}
}

// Of classifies a position.
func Of(pos rules.Position) Outcome { return Detect(pos.Facts()) }
