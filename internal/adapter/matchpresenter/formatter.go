package matchpresenter

import (
	"strings"

	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/msgcat"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/terminal"
	"github.com/park285/cheese-match/pkg/matchdto"
)

// RequiredKeys lists every catalog key the formatter renders.
func RequiredKeys() []string {
	keys := []string{
		"status.turn", "status.check_suffix", "status.thinking", "status.retry_needed",
		"status.checkmate", "status.stalemate", "status.draw.other",
		"notice.human_moved", "notice.automated_moved", "notice.illegal_move",
		"notice.suggestion_unavailable", "notice.suggestion_rejected",
		"notice.reset", "notice.thinking", "notice.analysis",
	}
	for _, r := range []terminal.DrawReason{terminal.ThreefoldRepetition, terminal.InsufficientMaterial, terminal.FiftyMoveRule} {
		keys = append(keys, "status.draw."+r.String())
	}
	for _, code := range []string{
		matchdto.CodeBusy, matchdto.CodeGameOver, matchdto.CodeNotYourTurn, matchdto.CodeNoSelection,
		matchdto.CodeIllegalMove, matchdto.CodeInvalidSquare, matchdto.CodeMatchNotFound,
		matchdto.CodeTooManyMatches, matchdto.CodeAnalysisUnavailable, matchdto.CodeBadRequest,
		matchdto.CodeInternal,
	} {
		keys = append(keys, "error."+code)
	}
	return keys
}

// Formatter renders status lines and notices from the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) text(key string, data map[string]any, fallback string) string {
	if f == nil || f.cat == nil {
		return fallback
	}
	return f.cat.Text(key, data, fallback)
}

// Status is the one-line game status.
func (f *Formatter) Status(v match.View) string {
	switch v.Outcome.Kind {
	case terminal.Checkmate:
		winner := sideName(v.Outcome.Winner)
		return f.text("status.checkmate", map[string]any{"Winner": winner}, "Checkmate! "+winner+" wins.")
	case terminal.Stalemate:
		return f.text("status.stalemate", nil, "Stalemate!")
	case terminal.Draw:
		reason := v.Outcome.Reason.String()
		if reason == "" {
			reason = "other"
		}
		return f.text("status.draw."+reason, nil, "Draw!")
	}
	if v.Pending || (v.Busy && v.Turn == match.TurnAutomated) {
		return f.text("status.thinking", nil, "AI is thinking...")
	}
	if retryable(v) {
		return f.text("status.retry_needed", nil, "AI could not move. Retry or reset.")
	}
	side := sideName(v.SideToMove)
	s := f.text("status.turn", map[string]any{"Side": side}, side+"'s turn")
	if v.InCheck {
		s += f.text("status.check_suffix", nil, " Check!")
	}
	return s
}

// Notice renders a transition notice. Selection changes render as "".
func (f *Formatter) Notice(n match.Notice) string {
	switch n.Kind {
	case match.NoticeHumanMoved:
		return f.text("notice.human_moved", map[string]any{"SAN": n.SAN}, "You played "+n.SAN+".")
	case match.NoticeAutomatedMoved:
		return f.text("notice.automated_moved", map[string]any{"SAN": n.SAN, "Reasoning": n.Reasoning}, "AI moved "+n.SAN+".")
	case match.NoticeIllegalMove:
		return f.text("notice.illegal_move", nil, "That move is not legal.")
	case match.NoticeSuggestionUnavailable:
		return f.text("notice.suggestion_unavailable", nil, "Could not get a move from the AI.")
	case match.NoticeSuggestionRejected:
		return f.text("notice.suggestion_rejected", map[string]any{"Suggested": n.Suggested}, "AI suggested an invalid move.")
	case match.NoticeReset:
		return f.text("notice.reset", nil, "New game started.")
	case match.NoticeThinking:
		return f.text("notice.thinking", nil, "AI is thinking...")
	case match.NoticeAnalysis:
		return f.text("notice.analysis", nil, "Analysis updated.")
	default:
		return ""
	}
}

// ErrorText renders the message for an error code.
func (f *Formatter) ErrorText(code string) string {
	return f.text("error."+code, nil, strings.ReplaceAll(code, "_", " "))
}

func sideName(c rules.Color) string {
	switch c {
	case rules.White:
		return "White"
	case rules.Black:
		return "Black"
	default:
		return ""
	}
}
