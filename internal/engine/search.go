package engine

import (
	"strconv"

	"github.com/hailam/chesscore/internal/board"
)

// Score bounds. A mate found at ply p scores MateScore-p for the winner.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	mateBound = MateScore - MaxPly
)

// MatedIn is the score of the side to move being mated at ply.
func MatedIn(ply int) int { return -MateScore + ply }

// MateIn is the score of the side to move delivering mate at ply.
func MateIn(ply int) int { return MateScore - ply }

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score > mateBound || score < -mateBound
}

// AdjustScoreToTT converts a root-relative mate score into a
// node-relative one before it is stored.
func AdjustScoreToTT(score, ply int) int {
	switch {
	case score > mateBound:
		return score + ply
	case score < -mateBound:
		return score - ply
	}
	return score
}

// AdjustScoreFromTT is the inverse of AdjustScoreToTT.
func AdjustScoreFromTT(score, ply int) int {
	switch {
	case score > mateBound:
		return score - ply
	case score < -mateBound:
		return score + ply
	}
	return score
}

// ScoreString renders a score the way UCI does: "cp 35", "mate 3" or
// "mate -2" (moves, not plies).
func ScoreString(score int) string {
	switch {
	case score > mateBound:
		return "mate " + strconv.Itoa((MateScore-score+1)/2)
	case score < -mateBound:
		return "mate " + strconv.Itoa(-(MateScore+score)/2)
	}
	return "cp " + strconv.Itoa(score)
}

// PVTable is a triangular principal variation table.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *PVTable) clear(ply int) {
	pv.length[ply] = ply
}

// update makes m followed by the child line the variation at ply.
func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	n := pv.length[ply+1]
	if n < ply+1 {
		n = ply + 1
	}
	copy(pv.moves[ply][ply+1:n], pv.moves[ply+1][ply+1:n])
	pv.length[ply] = n
}

// line returns a copy of the variation starting at ply.
func (pv *PVTable) line(ply int) []board.Move {
	if pv.length[ply] <= ply {
		return nil
	}
	out := make([]board.Move, pv.length[ply]-ply)
	copy(out, pv.moves[ply][ply:pv.length[ply]])
	return out
}
