package matchpresenter

import (
	"errors"

	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/notation"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
	"github.com/park285/cheese-match/pkg/matchdto"
)

// Presenter projects match state into DTOs for the HTTP and stream surfaces.
type Presenter struct {
	f *Formatter
}

func NewPresenter(f *Formatter) *Presenter {
	return &Presenter{f: f}
}

// View builds the DTO; n may be nil.
func (p *Presenter) View(id string, v match.View, n *match.Notice) matchdto.View {
	sans := v.SANs()
	out := matchdto.View{
		MatchID:      id,
		FEN:          v.FEN,
		Board:        ToDTOBoard(v.Board),
		Selected:     string(v.Selected),
		Destinations: toDTOSquares(v.Destinations),
		Status:       p.f.Status(v),
		Busy:         v.Busy,
		Terminal:     v.Terminal(),
		Retryable:    retryable(v),
		HumanColor:   v.HumanColor.String(),
		SideToMove:   v.SideToMove.String(),
		Turn:         v.Turn.String(),
		Phase:        v.Phase.String(),
		InCheck:      v.InCheck,
		Outcome:      toDTOOutcome(v),
		Moves:        toDTOMoves(v.Moves),
		Pairs:        toPairStrings(sans),
		Notation:     notation.Encode(sans),
	}
	if last, ok := v.LastMove(); ok {
		m := ToDTOMove(last)
		out.LastMove = &m
	}
	if v.Analysis != nil {
		out.Analysis = &matchdto.Analysis{White: v.Analysis.White, Black: v.Analysis.Black}
	}
	if n != nil {
		if text := p.f.Notice(*n); text != "" {
			out.Notice = &matchdto.Notice{Kind: n.Kind.String(), Text: text, Recoverable: n.Recoverable()}
		}
	}
	return out
}

// Error maps a domain error to its wire form. Unknown errors become CodeInternal.
func (p *Presenter) Error(err error) matchdto.DomainError {
	return p.Coded(errorCode(err))
}

// Coded builds a DomainError for code with its catalog message.
func (p *Presenter) Coded(code string, retryable bool) matchdto.DomainError {
	return matchdto.DomainError{Code: code, Message: p.f.ErrorText(code), Retryable: retryable}
}

func errorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, match.ErrBusy):
		return matchdto.CodeBusy, true
	case errors.Is(err, match.ErrGameOver):
		return matchdto.CodeGameOver, false
	case errors.Is(err, match.ErrNotYourTurn):
		return matchdto.CodeNotYourTurn, true
	case errors.Is(err, match.ErrNoSelection):
		return matchdto.CodeNoSelection, false
	case errors.Is(err, rules.ErrIllegalMove):
		return matchdto.CodeIllegalMove, false
	case errors.Is(err, rules.ErrInvalidSquare):
		return matchdto.CodeInvalidSquare, false
	case errors.Is(err, suggest.ErrAnalysisUnavailable):
		return matchdto.CodeAnalysisUnavailable, true
	default:
		return matchdto.CodeInternal, false
	}
}
