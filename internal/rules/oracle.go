package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Oracle decides legality and produces successor positions. It never mutates its inputs.
type Oracle interface {
	Initial() Position
	FromFEN(fen string) (Position, error)
	SideToMove(pos Position) Color
	IsInCheck(pos Position) bool
	PieceAt(pos Position, sq Square) (Piece, bool)
	Board(pos Position) Board
	LegalDestinations(pos Position, from Square) []Square
	ApplyMove(pos Position, spec MoveSpec) (Applied, error)
	ApplyNotation(pos Position, text string) (Applied, error)
}

type chessOracle struct {
	initial Position
}

// NewOracle returns the corentings/chess backed oracle starting from the standard position.
func NewOracle() Oracle {
	o := &chessOracle{}
	pos, err := o.FromFEN(StartFEN)
	if err != nil {
		panic(fmt.Sprintf("rules: start position rejected: %v", err))
	}
	o.initial = pos
	return o
}

func (o *chessOracle) Initial() Position { return o.initial }

func (o *chessOracle) FromFEN(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	game, err := newGame(fen)
	if err != nil {
		return Position{}, err
	}
	return snapshot(fen, nil, game), nil
}

func (o *chessOracle) SideToMove(pos Position) Color { return pos.turn }

func (o *chessOracle) IsInCheck(pos Position) bool { return pos.facts.InCheck }

func (o *chessOracle) PieceAt(pos Position, sq Square) (Piece, bool) {
	if !sq.valid() {
		return Piece{}, false
	}
	b := o.Board(pos)
	p := b[7-sq.rank()][sq.file()]
	return p, !p.Empty()
}

func (o *chessOracle) Board(pos Position) Board {
	game, err := replay(pos)
	if err != nil {
		return Board{}
	}
	return boardOf(game.Position().Board())
}

func (o *chessOracle) LegalDestinations(pos Position, from Square) []Square {
	if !from.valid() {
		return nil
	}
	game, err := replay(pos)
	if err != nil {
		return nil
	}
	origin := toSquare(from)
	seen := make(map[Square]struct{})
	var out []Square
	for _, mv := range game.ValidMoves() {
		if mv.S1() != origin {
			continue
		}
		dst := fromSquare(mv.S2())
		if _, ok := seen[dst]; ok {
			continue
		}
		seen[dst] = struct{}{}
		out = append(out, dst)
	}
	return out
}

func (o *chessOracle) ApplyMove(pos Position, spec MoveSpec) (Applied, error) {
	if !spec.From.valid() || !spec.To.valid() {
		return Applied{}, ErrInvalidSquare
	}
	game, err := replay(pos)
	if err != nil {
		return Applied{}, err
	}
	origin, target := toSquare(spec.From), toSquare(spec.To)
	wanted := strings.ToLower(strings.TrimSpace(spec.Promotion))
	matched := false
	promo := ""
	for _, mv := range game.ValidMoves() {
		if mv.S1() != origin || mv.S2() != target {
			continue
		}
		letter := promotionLetter(mv.Promo())
		if letter == "" {
			matched, promo = true, ""
			break
		}
		if letter == wanted || (wanted == "" && letter == "q") {
			matched, promo = true, letter
			break
		}
	}
	if !matched {
		return Applied{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, spec.From, spec.To)
	}
	return o.push(pos, game, string(spec.From)+string(spec.To)+promo, nchess.UCINotation{})
}

func (o *chessOracle) ApplyNotation(pos Position, text string) (Applied, error) {
	game, err := replay(pos)
	if err != nil {
		return Applied{}, err
	}
	for _, cand := range notationCandidates(text) {
		if applied, err := o.push(pos, game, cand, nchess.AlgebraicNotation{}); err == nil {
			return applied, nil
		}
		if applied, err := o.push(pos, game, strings.ToLower(cand), nchess.UCINotation{}); err == nil {
			return applied, nil
		}
	}
	return Applied{}, fmt.Errorf("%w: %q", ErrIllegalMove, text)
}

// push decodes text with the given notation and applies it to game.
func (o *chessOracle) push(pos Position, game *nchess.Game, text string, n nchess.Notation) (Applied, error) {
	before := game.Position()
	mv, err := n.Decode(before, text)
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	next := game.Clone()
	if err := next.Move(mv, nil); err != nil {
		return Applied{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	uci := strings.ToLower(nchess.UCINotation{}.Encode(before, mv))
	san := nchess.AlgebraicNotation{}.Encode(before, mv)
	lineage := append(append([]string(nil), pos.lineage...), uci)
	return Applied{
		Position:  snapshot(pos.startFEN, lineage, next),
		SAN:       san,
		UCI:       uci,
		From:      fromSquare(mv.S1()),
		To:        fromSquare(mv.S2()),
		Promotion: promotionLetter(mv.Promo()),
	}, nil
}

func newGame(fen string) (*nchess.Game, error) {
	if fen == "" || fen == StartFEN {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return nchess.NewGame(opt), nil
}

// replay rebuilds the game from the start FEN and lineage.
func replay(pos Position) (*nchess.Game, error) {
	game, err := newGame(pos.startFEN)
	if err != nil {
		return nil, err
	}
	notation := nchess.UCINotation{}
	for _, mv := range pos.lineage {
		move, err := notation.Decode(game.Position(), mv)
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", mv, err)
		}
		if err := game.Move(move, nil); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", mv, err)
		}
	}
	return game, nil
}

// snapshot reads the terminal facts off the replayed game.
func snapshot(startFEN string, lineage []string, game *nchess.Game) Position {
	if startFEN == "" {
		startFEN = StartFEN
	}
	current := game.Position()
	turn := colorOf(current.Turn())
	facts := Facts{
		LegalMoves:           len(game.ValidMoves()),
		InCheck:              current.Status() == nchess.Checkmate || lastMoveChecks(game),
		InsufficientMaterial: game.Method() == nchess.InsufficientMaterial,
		HalfmoveClock:        current.HalfMoveClock(),
		SideToMove:           turn,
	}
	for _, method := range game.EligibleDraws() {
		switch method {
		case nchess.ThreefoldRepetition:
			facts.Threefold = true
		case nchess.FiftyMoveRule:
			facts.FiftyMoves = true
		}
	}
	return Position{
		startFEN: startFEN,
		fen:      game.FEN(),
		turn:     turn,
		ply:      len(lineage),
		lineage:  lineage,
		facts:    facts,
	}
}

// lastMoveChecks reports the check tag of the move that reached the current position.
// A position loaded from FEN with no moves played reports check only through mate.
func lastMoveChecks(game *nchess.Game) bool {
	moves := game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

// notationCandidates yields progressively cleaned forms of a suggested move.
func notationCandidates(text string) []string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	fields := strings.Fields(raw)
	token := fields[len(fields)-1]
	if i := strings.LastIndex(token, "."); i >= 0 {
		token = token[i+1:]
	}
	noAnnot := strings.TrimRight(token, "!?")
	bare := strings.TrimRight(noAnnot, "+#")
	out := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, c := range []string{raw, token, noAnnot, bare} {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func toSquare(s Square) nchess.Square {
	return nchess.NewSquare(nchess.File(s.file()), nchess.Rank(s.rank()))
}

func fromSquare(sq nchess.Square) Square {
	return Square(strings.ToLower(sq.String()))
}

func colorOf(c nchess.Color) Color {
	switch c {
	case nchess.White:
		return White
	case nchess.Black:
		return Black
	default:
		return NoColor
	}
}

func boardOf(b *nchess.Board) Board {
	var out Board
	if b == nil {
		return out
	}
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := b.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			out[7-int(rank)][int(file)] = Piece{Color: colorOf(piece.Color()), Kind: kindLetter(piece.Type())}
		}
	}
	return out
}

func kindLetter(pt nchess.PieceType) byte {
	switch pt {
	case nchess.King:
		return 'k'
	case nchess.Queen:
		return 'q'
	case nchess.Rook:
		return 'r'
	case nchess.Bishop:
		return 'b'
	case nchess.Knight:
		return 'n'
	case nchess.Pawn:
		return 'p'
	default:
		return 0
	}
}

func promotionLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}
