// Package match owns the authoritative state of one human-vs-automated game.
package match

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-match/internal/notation"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
	"github.com/park285/cheese-match/internal/terminal"
)

// Machine is the synchronous game state machine. It is not safe for concurrent
// use; Controller serialises access to it.
type Machine struct {
	oracle rules.Oracle
	human  rules.Color
	logger *zap.Logger

	generation   uuid.UUID
	pos          rules.Position
	history      []MoveRecord
	turn         TurnState
	phase        Phase
	outcome      terminal.Outcome
	selected     rules.Square
	destinations []rules.Square
	pending      *Tag
}

type MachineOption func(*Machine)

// WithHumanColor sets the side the human plays. Default white.
func WithHumanColor(c rules.Color) MachineOption {
	return func(m *Machine) {
		if c == rules.White || c == rules.Black {
			m.human = c
		}
	}
}

func WithMachineLogger(l *zap.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewMachine(oracle rules.Oracle, opts ...MachineOption) *Machine {
	m := &Machine{oracle: oracle, human: rules.White, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

// Reset re-initialises every entity and invalidates any outstanding tag.
func (m *Machine) Reset() Notice {
	m.generation = uuid.New()
	m.pos = m.oracle.Initial()
	m.history = nil
	m.outcome = terminal.Of(m.pos)
	m.pending = nil
	m.clearSelection()
	m.turn = m.turnFor(m.pos)
	m.settle()
	return Notice{Kind: NoticeReset}
}

func (m *Machine) Generation() uuid.UUID { return m.generation }
func (m *Machine) Position() rules.Position { return m.pos }
func (m *Machine) Phase() Phase { return m.phase }
func (m *Machine) Turn() TurnState { return m.turn }
func (m *Machine) Outcome() terminal.Outcome { return m.outcome }

// Busy reports whether human input must be rejected.
func (m *Machine) Busy() bool {
	return m.pending != nil || m.phase == AwaitingOracleResult || m.phase == AwaitingSuggestion
}

// Activate handles a click on sq.
func (m *Machine) Activate(raw rules.Square) (Notice, error) {
	if err := m.gate(); err != nil {
		return Notice{}, err
	}
	sq, err := rules.ParseSquare(string(raw))
	if err != nil {
		return Notice{}, err
	}
	if m.selected != "" && containsSquare(m.destinations, sq) {
		n, err := m.tryHuman(rules.MoveSpec{From: m.selected, To: sq})
		if err != nil {
			return m.selectOrClear(sq), nil
		}
		return n, nil
	}
	return m.selectOrClear(sq), nil
}

// Drop handles a drag from spec.From to spec.To.
func (m *Machine) Drop(spec rules.MoveSpec) (Notice, error) {
	if err := m.gate(); err != nil {
		return Notice{}, err
	}
	from, err := rules.ParseSquare(string(spec.From))
	if err != nil {
		return Notice{}, err
	}
	to, err := rules.ParseSquare(string(spec.To))
	if err != nil {
		return Notice{}, err
	}
	if !m.ownsPiece(from) {
		m.clearSelection()
		return Notice{Kind: NoticeCleared}, fmt.Errorf("%w: %s", ErrNoSelection, from)
	}
	spec.From, spec.To = from, to
	n, err := m.tryHuman(spec)
	if err != nil {
		m.selectOrClear(to)
		return Notice{Kind: NoticeIllegalMove}, err
	}
	return n, nil
}

// BeginSuggestion marks a request in flight. It returns false when the automated
// side is not to move, the game is over, or a request is already pending.
func (m *Machine) BeginSuggestion() (Request, bool) {
	if m.pending != nil || m.outcome.Terminal() || m.turn != TurnAutomated {
		return Request{}, false
	}
	if m.phase != AwaitingSuggestion && m.phase != AwaitingHumanInput {
		return Request{}, false
	}
	tag := Tag{Generation: m.generation, Ply: m.pos.Ply(), FEN: m.pos.FEN()}
	m.pending = &tag
	m.phase = AwaitingSuggestion
	return Request{Tag: tag, FEN: m.pos.FEN(), History: notation.Encode(m.sans())}, true
}

// ResolveSuggestion applies the reply for tag. A tag that is not the pending one
// for the current position yields NoticeStale and changes nothing.
func (m *Machine) ResolveSuggestion(tag Tag, sug suggest.Suggestion, ok bool) Notice {
	if !m.isCurrent(tag) {
		return Notice{Kind: NoticeStale}
	}
	m.pending = nil
	m.phase = AwaitingHumanInput
	if !ok {
		m.logger.Info("match_suggestion_unavailable", zap.Int("ply", m.pos.Ply()))
		return Notice{Kind: NoticeSuggestionUnavailable}
	}
	applied, err := m.oracle.ApplyNotation(m.pos, sug.Move)
	if err != nil {
		m.logger.Warn("match_suggestion_rejected",
			zap.String("move", sug.Move),
			zap.Int("ply", m.pos.Ply()),
			zap.Error(err),
		)
		return Notice{Kind: NoticeSuggestionRejected, Suggested: sug.Move, Reasoning: sug.Reasoning}
	}
	m.accept(applied, TurnAutomated)
	return Notice{Kind: NoticeAutomatedMoved, SAN: applied.SAN, Suggested: sug.Move, Reasoning: sug.Reasoning, Outcome: m.outcome}
}

// View returns a read-only projection.
func (m *Machine) View() View {
	return View{
		Generation:   m.generation,
		Board:        m.oracle.Board(m.pos),
		FEN:          m.pos.FEN(),
		Ply:          m.pos.Ply(),
		HumanColor:   m.human,
		SideToMove:   m.pos.Turn(),
		InCheck:      m.oracle.IsInCheck(m.pos),
		Selected:     m.selected,
		Destinations: append([]rules.Square(nil), m.destinations...),
		Phase:        m.phase,
		Turn:         m.turn,
		Busy:         m.Busy(),
		Pending:      m.pending != nil,
		Outcome:      m.outcome,
		Moves:        append([]MoveRecord(nil), m.history...),
	}
}

func (m *Machine) gate() error {
	switch {
	case m.outcome.Terminal():
		return ErrGameOver
	case m.Busy():
		return ErrBusy
	case m.turn != TurnHuman:
		return ErrNotYourTurn
	}
	return nil
}

func (m *Machine) tryHuman(spec rules.MoveSpec) (Notice, error) {
	m.phase = AwaitingOracleResult
	applied, err := m.oracle.ApplyMove(m.pos, spec)
	if err != nil {
		m.phase = AwaitingHumanInput
		return Notice{Kind: NoticeIllegalMove}, err
	}
	m.accept(applied, TurnHuman)
	return Notice{Kind: NoticeHumanMoved, SAN: applied.SAN, Outcome: m.outcome}, nil
}

func (m *Machine) accept(applied rules.Applied, by TurnState) {
	side := m.pos.Turn()
	m.pos = applied.Position
	m.history = append(m.history, MoveRecord{
		Ply:       applied.Position.Ply(),
		Side:      side,
		SAN:       applied.SAN,
		UCI:       applied.UCI,
		From:      applied.From,
		To:        applied.To,
		Promotion: applied.Promotion,
		FEN:       applied.Position.FEN(),
		By:        by,
	})
	m.outcome = terminal.Of(m.pos)
	m.clearSelection()
	m.turn = m.turnFor(m.pos)
	m.settle()
	m.logger.Info("match_move_applied",
		zap.String("generation", m.generation.String()),
		zap.Int("ply", m.pos.Ply()),
		zap.String("san", applied.SAN),
		zap.String("by", by.String()),
		zap.String("outcome", m.outcome.String()),
	)
}

// settle picks the resting phase for the current position.
func (m *Machine) settle() {
	switch {
	case m.outcome.Terminal():
		m.phase = Terminal
	case m.turn == TurnAutomated:
		m.phase = AwaitingSuggestion
	default:
		m.phase = AwaitingHumanInput
	}
}

func (m *Machine) isCurrent(tag Tag) bool {
	if m.pending == nil || *m.pending != tag {
		return false
	}
	return tag.Generation == m.generation && tag.Ply == m.pos.Ply() && tag.FEN == m.pos.FEN()
}

func (m *Machine) turnFor(pos rules.Position) TurnState {
	if m.oracle.SideToMove(pos) == m.human {
		return TurnHuman
	}
	return TurnAutomated
}

func (m *Machine) ownsPiece(sq rules.Square) bool {
	p, ok := m.oracle.PieceAt(m.pos, sq)
	return ok && p.Color == m.oracle.SideToMove(m.pos)
}

func (m *Machine) selectOrClear(sq rules.Square) Notice {
	if m.ownsPiece(sq) {
		m.selectSquare(sq)
		return Notice{Kind: NoticeSelected}
	}
	m.clearSelection()
	return Notice{Kind: NoticeCleared}
}

func (m *Machine) selectSquare(sq rules.Square) {
	if !m.ownsPiece(sq) {
		m.clearSelection()
		return
	}
	m.selected = sq
	m.destinations = m.oracle.LegalDestinations(m.pos, sq)
}

func (m *Machine) clearSelection() {
	m.selected = ""
	m.destinations = nil
}

func (m *Machine) sans() []string {
	out := make([]string, len(m.history))
	for i, r := range m.history {
		out[i] = r.SAN
	}
	return out
}

func containsSquare(list []rules.Square, sq rules.Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}
