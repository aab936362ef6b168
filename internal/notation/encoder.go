// Package notation renders move lists in numbered replay form.
package notation

import (
	"strconv"
	"strings"
)

// Pair is one numbered move: White's move and, when played, Black's reply.
type Pair struct {
	Number int
	White  string
	Black  string
}

// String renders "1. e4 e5", or "1. e4" for an unanswered move.
func (p Pair) String() string {
	s := strconv.Itoa(p.Number) + ". " + p.White
	if p.Black != "" {
		s += " " + p.Black
	}
	return s
}

// Pairs groups moves two plies at a time, numbering from 1.
func Pairs(moves []string) []Pair {
	out := make([]Pair, 0, (len(moves)+1)/2)
	for i := 0; i < len(moves); i += 2 {
		p := Pair{Number: i/2 + 1, White: moves[i]}
		if i+1 < len(moves) {
			p.Black = moves[i+1]
		}
		out = append(out, p)
	}
	return out
}

// Encode produces "1. e4 e5 2. Nf3" with single spaces and no trailing whitespace.
func Encode(moves []string) string {
	var b strings.Builder
	for i, mv := range moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteString(strconv.Itoa(i/2 + 1))
			b.WriteString(". ")
		}
		b.WriteString(mv)
	}
	return b.String()
}
