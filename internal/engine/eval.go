// Package engine implements the search: evaluation, the transposition
// table, move ordering and the parallel iterative-deepening driver.
package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position statically, in centipawns, from the point
// of view of the side to move. Implementations must be symmetric: a
// position and its color-mirrored twin score as negatives of each other.
//
// An Evaluator is owned by one search goroutine at a time and may keep
// caches between calls.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFactory builds one Evaluator per search worker.
type EvaluatorFactory func() Evaluator

// Piece values, indexed by board.PieceType.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Material counts material only.
type Material struct{}

// NewMaterial returns the material-only evaluator.
func NewMaterial() Evaluator { return Material{} }

func (Material) Evaluate(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// Passed pawn bonus by relative rank.
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// King distance bonus for passed pawns, by Chebyshev distance.
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

const (
	passedPawnConnectedBonus = 20
	passedPawnProtectedBonus = 15
	passedPawnFreePathBonus  = 30
)

var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

const (
	pawnShieldBonus      = 10
	pawnShieldMissing    = -15
	openFileNearKing     = -20
	semiOpenFileNearKing = -10
)

const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

const maxPhase = 24

var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// Pawn masks, built once.
var (
	adjacentFiles [8]board.Bitboard
	frontSpan     [2][64]board.Bitboard // squares ahead on the same file
	passedSpan    [2][64]board.Bitboard // squares ahead on this and adjacent files
)

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= board.FileMask[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= board.FileMask[f+1]
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		var ahead [2]board.Bitboard
		for r := sq.Rank() + 1; r < 8; r++ {
			ahead[board.White] |= board.RankMask[r]
		}
		for r := 0; r < sq.Rank(); r++ {
			ahead[board.Black] |= board.RankMask[r]
		}
		for c := board.White; c <= board.Black; c++ {
			frontSpan[c][sq] = ahead[c] & board.FileMask[sq.File()]
			passedSpan[c][sq] = ahead[c] & (board.FileMask[sq.File()] | adjacentFiles[sq.File()])
		}
	}
}

// Piece-square tables from White's point of view, a8 first; Black reads
// them through Square.Mirror.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST}

// pstIndex maps a square to the table layout above, which lists rank 8 first.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return int(sq.Mirror())
	}
	return int(sq)
}

// Classical is a tapered hand-written evaluator: material, piece-square
// tables, mobility, king shelter, bishop pair, rook files and pawn
// structure. Pawn terms are cached by pawn key.
type Classical struct {
	pawns *PawnTable
}

// NewClassical returns a Classical evaluator with its own pawn cache.
func NewClassical() Evaluator {
	return &Classical{pawns: NewPawnTable(1)}
}

func (e *Classical) Evaluate(pos *board.Position) int {
	var mg, eg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			phase += phaseWeight[pt] * bb.PopCount()
			for bb != 0 {
				idx := pstIndex(bb.PopLSB(), c)
				if pt == board.King {
					mg += sign * kingMidgamePST[idx]
					eg += sign * kingEndgamePST[idx]
					continue
				}
				mg += sign * (pieceValues[pt] + psts[pt][idx])
				eg += sign * (pieceValues[pt] + psts[pt][idx])
			}
		}
	}

	pmg, peg := e.pawnStructure(pos)
	mg += pmg
	eg += peg

	fmg, feg := evaluateFreePassers(pos)
	mg += fmg
	eg += feg

	mmg, meg := evaluateMobility(pos)
	mg += mmg
	eg += meg

	mg += evaluateKingShelter(pos)

	bmg, beg := evaluateBishopPair(pos)
	mg += bmg
	eg += beg

	rmg, reg := evaluateRooksOnFiles(pos)
	mg += rmg
	eg += reg

	if phase > maxPhase {
		phase = maxPhase
	}
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// pawnStructure returns the pawn-and-king terms, through the cache when
// one is attached.
func (e *Classical) pawnStructure(pos *board.Position) (mg, eg int) {
	if e.pawns == nil {
		return evaluatePawns(pos)
	}
	if mg, eg, ok := e.pawns.Probe(pos.PawnKey); ok {
		return mg, eg
	}
	mg, eg = evaluatePawns(pos)
	e.pawns.Store(pos.PawnKey, mg, eg)
	return mg, eg
}

func isPassedPawn(pos *board.Position, sq board.Square, c board.Color) bool {
	return pos.Pieces[c.Other()][board.Pawn]&passedSpan[c][sq] == 0
}

func promotionSquare(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return board.NewSquare(sq.File(), 7)
	}
	return board.NewSquare(sq.File(), 0)
}

// evaluatePawns scores doubled, isolated, backward and passed pawns. It
// reads only pawns and kings so the result can be keyed by the pawn key.
func evaluatePawns(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			file := sq.File()

			// Doubled: charge only the rearmost pawn of the file.
			if own&frontSpan[c][sq] != 0 {
				mg += sign * doubledPawnMgPenalty
				eg += sign * doubledPawnEgPenalty
			}

			if own&adjacentFiles[file] == 0 {
				mg += sign * isolatedPawnMgPenalty
				eg += sign * isolatedPawnEgPenalty
			} else if own&adjacentFiles[file]&^passedSpan[c][sq] == 0 {
				// Every neighbour is ahead: backward if the stop square is
				// covered by an enemy pawn.
				stop := board.SquareBB(sq).Forward(c)
				if stop != 0 && enemy&board.PawnAttacks(stop.LSB(), c) != 0 {
					mg += sign * backwardPawnMgPenalty
					eg += sign * backwardPawnEgPenalty
				}
			}

			if !isPassedPawn(pos, sq, c) {
				continue
			}
			bonus := passedPawnBonus[sq.RelativeRank(c)]
			if board.PawnAttacks(sq, c.Other())&own != 0 {
				bonus += passedPawnProtectedBonus
			}
			for n := own & adjacentFiles[file]; n != 0; {
				if isPassedPawn(pos, n.PopLSB(), c) {
					bonus += passedPawnConnectedBonus
					break
				}
			}
			promo := promotionSquare(sq, c)
			extra := kingDistanceBonus[7-min(distance(pos.KingSquare[c], sq), 7)]
			extra += kingDistanceBonus[min(distance(pos.KingSquare[c.Other()], promo), 7)]

			mg += sign * bonus
			eg += sign * (bonus*3/2 + extra)
		}
	}
	return mg, eg
}

// evaluateFreePassers rewards passed pawns whose path is empty. It depends
// on every piece, so it stays out of the pawn cache.
func evaluateFreePassers(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for bb := pos.Pieces[c][board.Pawn]; bb != 0; {
			sq := bb.PopLSB()
			if isPassedPawn(pos, sq, c) && frontSpan[c][sq]&pos.AllOccupied == 0 {
				mg += sign * passedPawnFreePathBonus
				eg += sign * passedPawnFreePathBonus * 3 / 2
			}
		}
	}
	return mg, eg
}

func evaluateMobility(pos *board.Position) (mg, eg int) {
	occupied := pos.AllOccupied
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		enemyPawns := pos.Pieces[c.Other()][board.Pawn]
		var unsafe board.Bitboard
		if c == board.White {
			unsafe = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafe = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}
		blocked := unsafe | pos.Occupied[c]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				var attacks board.Bitboard
				switch pt {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, occupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, occupied)
				default:
					attacks = board.QueenAttacks(sq, occupied)
				}
				n := (attacks &^ blocked).PopCount()
				mg += sign * mobilityMgWeight[pt] * n
				eg += sign * mobilityEgWeight[pt] * n
			}
		}
	}
	return mg, eg
}

// evaluateKingShelter scores the pawns on and around the king's file.
// Middlegame only.
func evaluateKingShelter(pos *board.Position) int {
	score := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]
		ksq := pos.KingSquare[c]
		shieldRank := board.RankMask[1]
		if c == board.Black {
			shieldRank = board.RankMask[6]
		}
		for f := max(ksq.File()-1, 0); f <= min(ksq.File()+1, 7); f++ {
			file := board.FileMask[f]
			switch {
			case own&file&shieldRank != 0:
				score += sign * pawnShieldBonus
			case own&file == 0:
				score += sign * pawnShieldMissing
			}
			if own&file == 0 {
				if enemy&file == 0 {
					score += sign * openFileNearKing
				} else {
					score += sign * semiOpenFileNearKing
				}
			}
		}
	}
	return score
}

func evaluateBishopPair(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		if pos.Pieces[c][board.Bishop].Several() {
			mg += sign * bishopPairMgBonus
			eg += sign * bishopPairEgBonus
		}
	}
	return mg, eg
}

func evaluateRooksOnFiles(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]
		for rooks := pos.Pieces[c][board.Rook]; rooks != 0; {
			file := board.FileMask[rooks.PopLSB().File()]
			if own&file != 0 {
				continue
			}
			if enemy&file == 0 {
				mg += sign * rookOpenFileMg
				eg += sign * rookOpenFileEg
			} else {
				mg += sign * rookSemiOpenFileMg
				eg += sign * rookSemiOpenFileEg
			}
		}
	}
	return mg, eg
}

// distance is the Chebyshev (king-move) distance between two squares.
func distance(a, b board.Square) int {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	return max(df, dr)
}
