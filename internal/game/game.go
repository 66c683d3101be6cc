// Package game records a played game: the moves, the positions they led
// through and how the game ended.
package game

import (
	"errors"
	"fmt"

	"github.com/hailam/chesscore/internal/board"
)

// ErrNoMoves is returned by Undo on a game with no moves played.
var ErrNoMoves = errors.New("no moves to undo")

// Status is the state of a game.
type Status int

const (
	InProgress Status = iota
	Checkmate
	Draw
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	}
	return "in progress"
}

// DrawReason says why a game was drawn.
type DrawReason int

const (
	NoDraw DrawReason = iota
	Stalemate
	FiftyMove
	Threefold
	InsufficientMaterial
	Agreement
)

func (r DrawReason) String() string {
	switch r {
	case Stalemate:
		return "stalemate"
	case FiftyMove:
		return "fifty-move rule"
	case Threefold:
		return "threefold repetition"
	case InsufficientMaterial:
		return "insufficient material"
	case Agreement:
		return "agreement"
	}
	return "none"
}

// Outcome describes the result of a game. Winner is only meaningful for
// Checkmate, Reason only for Draw.
type Outcome struct {
	Status Status
	Winner board.Color
	Reason DrawReason
}

// Result returns the PGN result token: "1-0", "0-1", "1/2-1/2" or "*".
func (o Outcome) Result() string {
	switch o.Status {
	case Checkmate:
		if o.Winner == board.White {
			return "1-0"
		}
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

func (o Outcome) String() string {
	switch o.Status {
	case Checkmate:
		return fmt.Sprintf("%s wins by checkmate", o.Winner)
	case Draw:
		return fmt.Sprintf("draw by %s", o.Reason)
	}
	return o.Status.String()
}

// Game is a position plus the moves that led to it.
type Game struct {
	pos    *board.Position
	moves  []board.Move
	undos  []board.UndoInfo
	hashes []uint64 // one per position reached, the current one last
	agreed bool
}

// New starts a game from the standard initial position.
func New() *Game {
	return newGame(board.NewPosition())
}

// FromFEN starts a game from fen.
func FromFEN(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newGame(pos), nil
}

func newGame(pos *board.Position) *Game {
	return &Game{pos: pos, hashes: []uint64{pos.Hash}}
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position {
	return g.pos.Copy()
}

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move {
	return append([]board.Move(nil), g.moves...)
}

// Hashes returns the hash of every position reached, oldest first and
// ending with the current position. It is the history a search needs for
// repetition detection.
func (g *Game) Hashes() []uint64 {
	return append([]uint64(nil), g.hashes...)
}

// Play plays m if it is legal in the current position.
func (g *Game) Play(m board.Move) error {
	u, err := g.pos.ApplyMove(m)
	if err != nil {
		return err
	}
	g.moves = append(g.moves, m)
	g.undos = append(g.undos, u)
	g.hashes = append(g.hashes, g.pos.Hash)
	return nil
}

// PlayUCI plays a move in long algebraic notation, e.g. "e2e4" or "e7e8q".
func (g *Game) PlayUCI(s string) error {
	m, err := board.ParseMove(s, g.pos)
	if err != nil {
		return err
	}
	return g.Play(m)
}

// PlaySAN plays a move in standard algebraic notation, e.g. "Nf3".
func (g *Game) PlaySAN(s string) error {
	m, err := board.ParseSAN(s, g.pos)
	if err != nil {
		return err
	}
	return g.Play(m)
}

// AgreeDraw ends the game as a draw by agreement. A checkmate already on
// the board still takes precedence.
func (g *Game) AgreeDraw() {
	g.agreed = true
}

// Undo takes back the last move and withdraws any draw agreement.
func (g *Game) Undo() error {
	n := len(g.moves)
	if n == 0 {
		return ErrNoMoves
	}
	g.agreed = false
	g.pos.UnmakeMove(g.moves[n-1], g.undos[n-1])
	g.moves = g.moves[:n-1]
	g.undos = g.undos[:n-1]
	g.hashes = g.hashes[:len(g.hashes)-1]
	return nil
}

// SAN returns the moves played so far in standard algebraic notation.
func (g *Game) SAN() []string {
	start := g.pos.Copy()
	for i := len(g.moves) - 1; i >= 0; i-- {
		start.UnmakeMove(g.moves[i], g.undos[i])
	}
	return board.SANLine(start, g.moves)
}

// Outcome classifies the current position.
func (g *Game) Outcome() Outcome {
	if g.pos.IsCheckmate() {
		return Outcome{Status: Checkmate, Winner: g.pos.SideToMove.Other()}
	}
	switch {
	case g.agreed:
		return Outcome{Status: Draw, Reason: Agreement}
	case g.pos.IsStalemate():
		return Outcome{Status: Draw, Reason: Stalemate}
	case g.repetitions() >= 3:
		return Outcome{Status: Draw, Reason: Threefold}
	case g.pos.HalfMoveClock >= 100:
		return Outcome{Status: Draw, Reason: FiftyMove}
	case g.pos.IsInsufficientMaterial():
		return Outcome{Status: Draw, Reason: InsufficientMaterial}
	}
	return Outcome{Status: InProgress}
}

// repetitions counts how often the current position has occurred since
// the last irreversible move, including now.
func (g *Game) repetitions() int {
	n := len(g.hashes)
	stop := max(n-1-g.pos.HalfMoveClock, 0)
	count := 0
	for i := n - 1; i >= stop; i -= 2 {
		if g.hashes[i] == g.pos.Hash {
			count++
		}
	}
	return count
}
