package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidFEN    = errors.New("invalid FEN")
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Color int8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Other returns the opposing side.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func ParseColor(raw string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("unknown color %q", raw)
	}
}

// Square is a board coordinate in algebraic form, e.g. "e4".
type Square string

func ParseSquare(raw string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return "", fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
	}
	return Square(s), nil
}

func (s Square) String() string { return string(s) }

func (s Square) valid() bool {
	_, err := ParseSquare(string(s))
	return err == nil
}

// file and rank are zero based.
func (s Square) file() int { return int(s[0] - 'a') }
func (s Square) rank() int { return int(s[1] - '1') }

// Piece is a coloured piece. Kind is one of k q r b n p; the zero value is an empty square.
type Piece struct {
	Color Color
	Kind  byte
}

func (p Piece) Empty() bool { return p.Color == NoColor || p.Kind == 0 }

// Symbol returns the FEN letter, upper case for white.
func (p Piece) Symbol() string {
	if p.Empty() {
		return ""
	}
	if p.Color == White {
		return strings.ToUpper(string(p.Kind))
	}
	return string(p.Kind)
}

// Board is indexed [row][col] with row 0 being rank 8 and col 0 file a.
type Board [8][8]Piece

// SquareAt maps matrix coordinates back to a square.
func SquareAt(row, col int) Square {
	return Square([]byte{byte('a' + col), byte('8' - row)})
}

// Facts are the inputs terminal classification needs, computed by the oracle.
type Facts struct {
	LegalMoves int
	InCheck    bool
	// Threefold is set once the current position has occurred three times.
	Threefold            bool
	InsufficientMaterial bool
	// FiftyMoves is set after 100 halfmoves without a capture or pawn move.
	FiftyMoves    bool
	HalfmoveClock int
	SideToMove    Color
}

// Position is an immutable snapshot. Accessors return copies.
type Position struct {
	startFEN string
	fen      string
	turn     Color
	ply      int
	lineage  []string
	facts    Facts
}

func (p Position) FEN() string      { return p.fen }
func (p Position) StartFEN() string { return p.startFEN }
func (p Position) Turn() Color      { return p.turn }
func (p Position) Ply() int         { return p.ply }
func (p Position) Facts() Facts     { return p.facts }
func (p Position) IsZero() bool     { return p.fen == "" }

// Lineage is the UCI move list from StartFEN that produced this position.
func (p Position) Lineage() []string {
	return append([]string(nil), p.lineage...)
}

// Key identifies the snapshot; two positions with equal keys describe the same state.
func (p Position) Key() string {
	return p.fen + "|" + strconv.Itoa(p.ply)
}

func (p Position) Equal(other Position) bool {
	return p.Key() == other.Key() && p.startFEN == other.startFEN
}

// MoveSpec is a human move request. Promotion is one of q r b n, or empty for queen.
type MoveSpec struct {
	From      Square
	To        Square
	Promotion string
}

// Applied is the result of an accepted move.
type Applied struct {
	Position  Position
	SAN       string
	UCI       string
	From      Square
	To        Square
	Promotion string
}
