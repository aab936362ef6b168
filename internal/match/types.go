package match

import (
	"github.com/google/uuid"

	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
	"github.com/park285/cheese-match/internal/terminal"
)

type Phase int

const (
	AwaitingHumanInput Phase = iota
	AwaitingOracleResult
	AwaitingSuggestion
	Terminal
)

func (p Phase) String() string {
	switch p {
	case AwaitingHumanInput:
		return "awaiting_human_input"
	case AwaitingOracleResult:
		return "awaiting_oracle_result"
	case AwaitingSuggestion:
		return "awaiting_suggestion"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

type TurnState int

const (
	TurnHuman TurnState = iota
	TurnAutomated
)

func (t TurnState) String() string {
	if t == TurnAutomated {
		return "automated"
	}
	return "human"
}

// MoveRecord is one applied move. History is append-only.
type MoveRecord struct {
	Ply       int
	Side      rules.Color
	SAN       string
	UCI       string
	From      rules.Square
	To        rules.Square
	Promotion string
	FEN       string
	By        TurnState
}

// Tag correlates a suggestion request with the position it was issued for.
// Generation changes on every reset so a repeated board never revives an old request.
type Tag struct {
	Generation uuid.UUID
	Ply        int
	FEN        string
}

// Request is what the suggestion worker needs for one call.
type Request struct {
	Tag     Tag
	FEN     string
	History string
}

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSelected
	NoticeCleared
	NoticeHumanMoved
	NoticeIllegalMove
	NoticeThinking
	NoticeAutomatedMoved
	NoticeSuggestionUnavailable
	NoticeSuggestionRejected
	NoticeStale
	NoticeReset
	NoticeAnalysis
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSelected:
		return "selected"
	case NoticeCleared:
		return "cleared"
	case NoticeHumanMoved:
		return "human_moved"
	case NoticeIllegalMove:
		return "illegal_move"
	case NoticeThinking:
		return "thinking"
	case NoticeAutomatedMoved:
		return "automated_moved"
	case NoticeSuggestionUnavailable:
		return "suggestion_unavailable"
	case NoticeSuggestionRejected:
		return "suggestion_rejected"
	case NoticeStale:
		return "stale"
	case NoticeReset:
		return "reset"
	case NoticeAnalysis:
		return "analysis"
	default:
		return "none"
	}
}

// Notice reports the effect of one transition.
type Notice struct {
	Kind      NoticeKind
	SAN       string
	Suggested string
	Reasoning string
	Outcome   terminal.Outcome
}

// Recoverable reports a failed automated turn the caller can retry.
func (n Notice) Recoverable() bool {
	return n.Kind == NoticeSuggestionUnavailable || n.Kind == NoticeSuggestionRejected
}

// View is a read-only projection. Slices are copies.
type View struct {
	Generation   uuid.UUID
	Board        rules.Board
	FEN          string
	Ply          int
	HumanColor   rules.Color
	SideToMove   rules.Color
	InCheck      bool
	Selected     rules.Square
	Destinations []rules.Square
	Phase        Phase
	Turn         TurnState
	Busy         bool
	Pending      bool
	Outcome      terminal.Outcome
	Moves        []MoveRecord
	Analysis     *suggest.Analysis
}

func (v View) Terminal() bool { return v.Outcome.Terminal() }

// SANs returns the move list in play order.
func (v View) SANs() []string {
	out := make([]string, len(v.Moves))
	for i, m := range v.Moves {
		out[i] = m.SAN
	}
	return out
}

// LastMove returns the most recent record, if any.
func (v View) LastMove() (MoveRecord, bool) {
	if len(v.Moves) == 0 {
		return MoveRecord{}, false
	}
	return v.Moves[len(v.Moves)-1], true
}
