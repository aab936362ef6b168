package match

import "errors"

var (
	ErrBusy        = errors.New("match is busy")
	ErrGameOver    = errors.New("game is over")
	ErrNotYourTurn = errors.New("not the human side's turn")
	ErrNoSelection = errors.New("no piece of the side to move on that square")
	ErrStopped     = errors.New("match controller stopped")
)
