package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// SEE (static exchange evaluation) estimates the material balance of the
// capture sequence m starts on its target square, from the mover's point
// of view. Sliders revealed behind earlier attackers join the exchange.
func SEE(pos *board.Position, m board.Move) int {
	from, to := m.From(), m.To()
	us := pos.SideToMove

	var gain [32]int
	if m.IsCapture() {
		gain[0] = pieceValues[m.Captured()]
	}
	attackerValue := pieceValues[m.Piece()]
	if m.IsPromotion() {
		gain[0] += pieceValues[m.Promotion()] - PawnValue
		attackerValue = pieceValues[m.Promotion()]
	}

	occupied := pos.AllOccupied &^ board.SquareBB(from)
	if m.IsEnPassant() {
		occupied &^= board.SquareBB(to ^ 8)
	}
	side := us.Other()

	d := 0
	for d < len(gain)-1 {
		sq, pt := leastValuableAttacker(pos, to, side, occupied)
		if sq == board.NoSquare {
			break
		}
		// A king may not recapture into a defended square.
		if pt == board.King && leastValuableAttackerExists(pos, to, side.Other(), occupied&^board.SquareBB(sq)) {
			break
		}
		d++
		gain[d] = attackerValue - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}
		occupied &^= board.SquareBB(sq)
		attackerValue = pieceValues[pt]
		side = side.Other()
	}
	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

func leastValuableAttackerExists(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) bool {
	sq, _ := leastValuableAttacker(pos, target, side, occupied)
	return sq != board.NoSquare
}

// leastValuableAttacker returns side's cheapest piece attacking target
// through occupied, or NoSquare.
func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.PieceType) {
	diag := board.BishopAttacks(target, occupied)
	straight := board.RookAttacks(target, occupied)
	candidates := [6]board.Bitboard{
		board.PawnAttacks(target, side.Other()),
		board.KnightAttacks(target),
		diag,
		straight,
		diag | straight,
		board.KingAttacks(target),
	}
	for pt := board.Pawn; pt <= board.King; pt++ {
		if bb := pos.Pieces[side][pt] & candidates[pt] & occupied; bb != 0 {
			return bb.LSB(), pt
		}
	}
	return board.NoSquare, board.NoPieceType
}
