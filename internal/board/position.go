package board

import (
	"fmt"
	"strings"
)

// CastlingRights is the set of castling options still available.
type CastlingRights uint8

const (
	WhiteKingSideCastle CastlingRights = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

func (cr CastlingRights) String() string {
	if cr&AllCastling == 0 {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// Mirror swaps white and black rights.
func (cr CastlingRights) Mirror() CastlingRights {
	return (cr&(WhiteKingSideCastle|WhiteQueenSideCastle))<<2 | (cr&(BlackKingSideCastle|BlackQueenSideCastle))>>2
}

// castleMask[sq] is ANDed into the rights whenever a move touches sq, so a
// king or rook leaving its home square (or a rook being captured there)
// drops the matching rights.
var castleMask = func() (m [64]CastlingRights) {
	for i := range m {
		m[i] = AllCastling
	}
	m[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	m[H1] &^= WhiteKingSideCastle
	m[A1] &^= WhiteQueenSideCastle
	m[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	m[H8] &^= BlackKingSideCastle
	m[A8] &^= BlackQueenSideCastle
	return m
}()

// Position is a complete, self-contained game state. It is a plain value:
// copying the struct yields an independent position.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // NoSquare when the last move was not a double push
	HalfMoveClock  int    // plies since the last capture or pawn move
	FullMoveNumber int

	Hash    uint64
	PawnKey uint64 // pawns and kings only, for evaluation caches

	KingSquare [2]Square
	Checkers   Bitboard // enemy pieces attacking the side to move's king
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns an independent copy.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	return NewPiece(p.typeAt(sq, c), c)
}

// typeAt returns the type of c's piece on sq, or NoPieceType.
func (p *Position) typeAt(sq Square, c Color) PieceType {
	bb := SquareBB(sq)
	if p.Occupied[c]&bb == 0 {
		return NoPieceType
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return pt
		}
	}
	return NoPieceType
}

// Bitboard returns the set of c's pieces of type pt.
func (p *Position) Bitboard(c Color, pt PieceType) Bitboard {
	return p.Pieces[c][pt]
}

// put adds a piece, keeping the hash and pawn key in step.
func (p *Position) put(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	key := zobristPiece[c][pt][sq]
	p.Hash ^= key
	switch pt {
	case King:
		p.KingSquare[c] = sq
		p.PawnKey ^= key
	case Pawn:
		p.PawnKey ^= key
	}
}

// remove takes a piece off, keeping the hash and pawn key in step.
func (p *Position) remove(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	key := zobristPiece[c][pt][sq]
	p.Hash ^= key
	if pt == Pawn || pt == King {
		p.PawnKey ^= key
	}
}

// shift moves a piece between two squares, keeping the keys in step.
func (p *Position) shift(c Color, pt PieceType, from, to Square) {
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	key := zobristPiece[c][pt][from] ^ zobristPiece[c][pt][to]
	p.Hash ^= key
	switch pt {
	case King:
		p.KingSquare[c] = to
		p.PawnKey ^= key
	case Pawn:
		p.PawnKey ^= key
	}
}

// Clear resets p to an empty board with white to move.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
	}
}

// Validate checks structural legality: one king per side, material that
// promotions could have produced, no pawns on the back ranks, no
// overlapping pieces and the side not to move not in check. The material
// rule keeps every accepted position within MaxMoves legal moves.
func (p *Position) Validate() error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, c, n)
		}
		n := 0
		for pt := Pawn; pt <= King; pt++ {
			n += p.Pieces[c][pt].PopCount()
		}
		if n > 16 {
			return fmt.Errorf("%w: %s has %d pieces", ErrInvalidPosition, c, n)
		}
		pawns := p.Pieces[c][Pawn].PopCount()
		if pawns > 8 {
			return fmt.Errorf("%w: %s has %d pawns", ErrInvalidPosition, c, pawns)
		}
		promoted := max(p.Pieces[c][Knight].PopCount()-2, 0) +
			max(p.Pieces[c][Bishop].PopCount()-2, 0) +
			max(p.Pieces[c][Rook].PopCount()-2, 0) +
			max(p.Pieces[c][Queen].PopCount()-1, 0)
		if pawns+promoted > 8 {
			return fmt.Errorf("%w: %s has %d promoted pieces and %d pawns", ErrInvalidPosition, c, promoted, pawns)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawn on first or last rank", ErrInvalidPosition)
	}
	var seen Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			if seen&p.Pieces[c][pt] != 0 {
				return fmt.Errorf("%w: overlapping pieces", ErrInvalidPosition)
			}
			seen |= p.Pieces[c][pt]
		}
	}
	if p.KingInCheck(p.SideToMove.Other()) {
		return fmt.Errorf("%w: %s to move can capture the king", ErrInvalidPosition, p.SideToMove)
	}
	return nil
}

// Mirror returns the color-flipped position: every piece changes color and
// moves to the vertically mirrored square, castling rights and the en
// passant square follow, and the side to move stays the same. A symmetric
// evaluator scores the result as the negation of p.
func (p *Position) Mirror() *Position {
	m := &Position{
		SideToMove:     p.SideToMove,
		CastlingRights: p.CastlingRights.Mirror(),
		EnPassant:      NoSquare,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
	}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			m.Pieces[c.Other()][pt] = p.Pieces[c][pt].FlipVertical()
		}
	}
	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}
	m.refresh()
	return m
}

// refresh rebuilds every derived field from the piece bitboards.
func (p *Position) refresh() {
	p.Occupied = [2]Bitboard{}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			p.Occupied[c] |= p.Pieces[c][pt]
		}
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
	for c := White; c <= Black; c++ {
		p.KingSquare[c] = p.Pieces[c][King].LSB()
	}
	p.Hash = p.ComputeHash()
	p.PawnKey = p.ComputePawnKey()
	p.updateCheckers()
}

// HasNonPawnMaterial reports whether c has any piece other than pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	return p.Pieces[c][Knight]|p.Pieces[c][Bishop]|p.Pieces[c][Rook]|p.Pieces[c][Queen] != 0
}

func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	fmt.Fprintf(&sb, "fen: %s\nkey: %016x\n", p.FEN(), p.Hash)
	return sb.String()
}
