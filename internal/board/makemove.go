package board

// UndoInfo is the irreversible state MakeMove overwrites. Everything else
// is recovered by running the move backwards.
type UndoInfo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
}

// MakeMove plays m, which must be legal in p, and returns what UnmakeMove
// needs to restore p exactly. The hash is updated incrementally.
func (p *Position) MakeMove(m Move) UndoInfo {
	u := UndoInfo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
	}
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to, pt := m.From(), m.To(), m.Piece()

	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++

	switch {
	case m.IsEnPassant():
		p.remove(them, Pawn, to^8)
		u.Captured = NewPiece(Pawn, them)
	case m.IsCapture():
		p.remove(them, m.Captured(), to)
		u.Captured = NewPiece(m.Captured(), them)
	}
	if pt == Pawn || m.IsCapture() {
		p.HalfMoveClock = 0
	}

	p.shift(us, pt, from, to)

	switch {
	case m.IsPromotion():
		p.remove(us, Pawn, to)
		p.put(us, m.Promotion(), to)
	case m.IsCastling():
		cs := castlingFor(us, m.Flag())
		p.shift(us, Rook, cs.rookFrom, cs.rookTo)
	case m.IsDoublePush():
		target := Square((int(from) + int(to)) / 2)
		if pawnAttacks[us][target]&p.Pieces[them][Pawn] != 0 {
			p.EnPassant = target
			p.Hash ^= zobristEnPassant[target.File()]
		}
	}

	p.CastlingRights &= castleMask[from] & castleMask[to]
	p.Hash ^= zobristCastling[p.CastlingRights]

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= zobristSideToMove
	p.updateCheckers()
	return u
}

// UnmakeMove reverts m. u must be the value MakeMove returned for m.
func (p *Position) UnmakeMove(m Move, u UndoInfo) {
	p.SideToMove = p.SideToMove.Other()
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	if us == Black {
		p.FullMoveNumber--
	}

	switch {
	case m.IsPromotion():
		p.remove(us, m.Promotion(), to)
		p.put(us, Pawn, to)
	case m.IsCastling():
		cs := castlingFor(us, m.Flag())
		p.shift(us, Rook, cs.rookTo, cs.rookFrom)
	}
	p.shift(us, m.Piece(), to, from)

	switch {
	case m.IsEnPassant():
		p.put(them, Pawn, to^8)
	case m.IsCapture():
		p.put(them, m.Captured(), to)
	}

	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.PawnKey = u.PawnKey
	p.Checkers = u.Checkers
}

// MakeNullMove passes the turn. It must not be called while in check.
func (p *Position) MakeNullMove() UndoInfo {
	u := UndoInfo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
	}
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.updateCheckers()
	return u
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove(u UndoInfo) {
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// ApplyMove plays m only if it is legal. An illegal move leaves p untouched
// and returns an error wrapping ErrIllegalMove.
func (p *Position) ApplyMove(m Move) (UndoInfo, error) {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	if !ml.Contains(m) {
		return UndoInfo{}, &MoveError{Text: m.String(), FEN: p.FEN(), Err: ErrIllegalMove}
	}
	return p.MakeMove(m), nil
}
