package board

// Leaper attack tables and square-pair geometry, filled by init.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard
	lineBB    [64][64]Bitboard
)

type direction struct{ df, dr int }

var (
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	knightJumps      = [8]direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()
		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
		for _, d := range knightJumps {
			if to, ok := offset(sq, d); ok {
				knightAttacks[sq] |= SquareBB(to)
			}
		}
	}
	initGeometry()
	initMagics()
}

// offset steps one square from sq in direction d.
func offset(sq Square, d direction) (Square, bool) {
	f, r := sq.File()+d.df, sq.Rank()+d.dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// slide casts rays from sq until the edge or the first occupied square,
// which is included.
func slide(sq Square, occupied Bitboard, dirs [4]direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		for s, ok := offset(sq, d); ok; s, ok = offset(s, d) {
			attacks |= SquareBB(s)
			if occupied.IsSet(s) {
				break
			}
		}
	}
	return attacks
}

// ray returns the empty-board ray from sq (exclusive) in direction d.
func ray(sq Square, d direction) Bitboard {
	var bb Bitboard
	for s, ok := offset(sq, d); ok; s, ok = offset(s, d) {
		bb |= SquareBB(s)
	}
	return bb
}

func initGeometry() {
	dirs := append(rookDirections[:], bishopDirections[:]...)
	for a := A1; a <= H8; a++ {
		for _, d := range dirs {
			fwd := ray(a, d)
			line := fwd | ray(a, direction{-d.df, -d.dr}) | SquareBB(a)
			var between Bitboard
			for s, ok := offset(a, d); ok; s, ok = offset(s, d) {
				betweenBB[a][s] = between
				lineBB[a][s] = line
				between |= SquareBB(s)
			}
		}
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

// BishopAttacks returns diagonal attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	return m.attacks[m.index(occupied)]
}

// RookAttacks returns orthogonal attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	return m.attacks[m.index(occupied)]
}

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between a and b when they share a
// rank, file or diagonal, and Empty otherwise.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Line returns the full edge-to-edge line through a and b, or Empty when
// they are not aligned.
func Line(a, b Square) Bitboard { return lineBB[a][b] }

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool { return lineBB[a][b].IsSet(c) }

// AttackersByColor returns the pieces of color c that attack sq, with
// sliders blocked by occupied.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	pc := &p.Pieces[c]
	return pawnAttacks[c.Other()][sq]&pc[Pawn] |
		knightAttacks[sq]&pc[Knight] |
		kingAttacks[sq]&pc[King] |
		BishopAttacks(sq, occupied)&(pc[Bishop]|pc[Queen]) |
		RookAttacks(sq, occupied)&(pc[Rook]|pc[Queen])
}

// AttackersTo returns the pieces of both colors that attack sq.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return p.AttackersByColor(sq, White, occupied) | p.AttackersByColor(sq, Black, occupied)
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.AttackersByColor(sq, by, p.AllOccupied) != 0
}

// KingInCheck reports whether the king of color c is attacked.
func (p *Position) KingInCheck(c Color) bool {
	ksq := p.KingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

func (p *Position) updateCheckers() {
	ksq := p.KingSquare[p.SideToMove]
	if ksq == NoSquare {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(ksq, p.SideToMove.Other(), p.AllOccupied)
}

// pinned returns the pieces of color us that are absolutely pinned to
// their king.
func (p *Position) pinned(us Color) Bitboard {
	them := us.Other()
	ksq := p.KingSquare[us]
	if ksq == NoSquare {
		return 0
	}
	snipers := RookAttacks(ksq, 0)&(p.Pieces[them][Rook]|p.Pieces[them][Queen]) |
		BishopAttacks(ksq, 0)&(p.Pieces[them][Bishop]|p.Pieces[them][Queen])
	var pinned Bitboard
	for snipers != 0 {
		blockers := Between(snipers.PopLSB(), ksq) & p.AllOccupied
		if blockers != 0 && !blockers.Several() {
			pinned |= blockers & p.Occupied[us]
		}
	}
	return pinned
}
