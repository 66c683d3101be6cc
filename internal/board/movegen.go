package board

type genKind uint8

const (
	genAll genKind = iota
	genTactical
)

// GenerateLegalMoves fills ml with every legal move. Order is deterministic
// for a given position: king moves, then knights through queens by origin
// square, then pawns, then castling.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	p.generate(ml, genAll)
}

// GenerateCaptures fills ml with the legal captures (en passant and
// capturing promotions included) plus quiet queen promotions.
func (p *Position) GenerateCaptures(ml *MoveList) {
	p.generate(ml, genTactical)
}

// LegalMoves is a convenience wrapper that allocates the list.
func (p *Position) LegalMoves() *MoveList {
	ml := &MoveList{}
	p.generate(ml, genAll)
	return ml
}

// Legality is decided without playing moves out. The king may only step
// to squares not attacked once it has left its origin. With two checkers
// only king moves exist. With one checker every other move must capture it
// or land between it and the king. A pinned piece must stay on the line
// through its king.
func (p *Position) generate(ml *MoveList, kind genKind) {
	ml.Clear()
	us, them := p.SideToMove, p.SideToMove.Other()
	ksq := p.KingSquare[us]
	if ksq == NoSquare {
		return
	}
	enemies := p.Occupied[them]

	targets := ^p.Occupied[us]
	if kind == genTactical {
		targets = enemies
	}

	occNoKing := p.AllOccupied &^ SquareBB(ksq)
	for to := KingAttacks(ksq) & targets; to != 0; {
		sq := to.PopLSB()
		if p.AttackersByColor(sq, them, occNoKing) == 0 {
			ml.Add(NewMove(ksq, sq, King, p.typeAt(sq, them), FlagQuiet))
		}
	}
	if p.Checkers.Several() {
		return
	}

	evasion := Universe
	if p.Checkers != 0 {
		evasion = Between(ksq, p.Checkers.LSB()) | p.Checkers
	}
	pinned := p.pinned(us)

	for pt := Knight; pt <= Queen; pt++ {
		pieces := p.Pieces[us][pt]
		if pt == Knight {
			pieces &^= pinned
		}
		for pieces != 0 {
			from := pieces.PopLSB()
			dests := pieceAttacks(pt, from, p.AllOccupied) & targets & evasion
			if pinned.IsSet(from) {
				dests &= Line(ksq, from)
			}
			for dests != 0 {
				to := dests.PopLSB()
				ml.Add(NewMove(from, to, pt, p.typeAt(to, them), FlagQuiet))
			}
		}
	}

	p.generatePawnMoves(ml, kind, evasion, pinned)

	if kind == genAll && p.Checkers == 0 {
		p.generateCastling(ml)
	}
}

func pieceAttacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}

func (p *Position) generatePawnMoves(ml *MoveList, kind genKind, evasion, pinned Bitboard) {
	us, them := p.SideToMove, p.SideToMove.Other()
	ksq := p.KingSquare[us]
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied

	up, westCapture, eastCapture := 8, 7, 9
	lastRank, doubleRank := Rank8, Rank3
	if us == Black {
		up, westCapture, eastCapture = -8, -9, -7
		lastRank, doubleRank = Rank1, Rank6
	}

	// allowed reports whether a pawn may go from -> to given pins and checks.
	allowed := func(from, to Square) bool {
		return evasion.IsSet(to) && (!pinned.IsSet(from) || Line(ksq, from).IsSet(to))
	}

	single := pawns.Forward(us) & empty
	double := (single & doubleRank).Forward(us) & empty

	for bb := single; bb != 0; {
		to := bb.PopLSB()
		from := Square(int(to) - up)
		if !allowed(from, to) {
			continue
		}
		switch {
		case lastRank.IsSet(to) && kind == genTactical:
			ml.Add(NewMove(from, to, Pawn, NoPieceType, FlagPromoQueen))
		case lastRank.IsSet(to):
			addPromotions(ml, from, to, NoPieceType)
		case kind == genAll:
			ml.Add(NewMove(from, to, Pawn, NoPieceType, FlagQuiet))
		}
	}
	if kind == genAll {
		for bb := double; bb != 0; {
			to := bb.PopLSB()
			from := Square(int(to) - 2*up)
			if allowed(from, to) {
				ml.Add(NewMove(from, to, Pawn, NoPieceType, FlagDoublePush))
			}
		}
	}

	for _, capture := range [2]struct {
		delta   int
		targets Bitboard
	}{
		{westCapture, shiftPawnCapture(pawns, us, true) & p.Occupied[them]},
		{eastCapture, shiftPawnCapture(pawns, us, false) & p.Occupied[them]},
	} {
		for bb := capture.targets; bb != 0; {
			to := bb.PopLSB()
			from := Square(int(to) - capture.delta)
			if !allowed(from, to) {
				continue
			}
			captured := p.typeAt(to, them)
			if lastRank.IsSet(to) {
				addPromotions(ml, from, to, captured)
			} else {
				ml.Add(NewMove(from, to, Pawn, captured, FlagQuiet))
			}
		}
	}

	if p.EnPassant != NoSquare {
		p.generateEnPassant(ml, evasion)
	}
}

// shiftPawnCapture returns the squares c's pawns attack toward the a-file
// (west) or the h-file.
func shiftPawnCapture(pawns Bitboard, c Color, west bool) Bitboard {
	switch {
	case c == White && west:
		return pawns.NorthWest()
	case c == White:
		return pawns.NorthEast()
	case west:
		return pawns.SouthWest()
	default:
		return pawns.SouthEast()
	}
}

func addPromotions(ml *MoveList, from, to Square, captured PieceType) {
	ml.Add(NewMove(from, to, Pawn, captured, FlagPromoQueen))
	ml.Add(NewMove(from, to, Pawn, captured, FlagPromoRook))
	ml.Add(NewMove(from, to, Pawn, captured, FlagPromoBishop))
	ml.Add(NewMove(from, to, Pawn, captured, FlagPromoKnight))
}

// generateEnPassant plays the capture out on an occupancy copy, since
// removing two pawns from one rank can expose the king along that rank
// in a way the pin mask does not see.
func (p *Position) generateEnPassant(ml *MoveList, evasion Bitboard) {
	us, them := p.SideToMove, p.SideToMove.Other()
	ksq := p.KingSquare[us]
	target := p.EnPassant
	victim := Square(target ^ 8)

	if !evasion.IsSet(target) && !p.Checkers.IsSet(victim) {
		return
	}

	rookers := p.Pieces[them][Rook] | p.Pieces[them][Queen]
	bishopers := p.Pieces[them][Bishop] | p.Pieces[them][Queen]
	for from := pawnAttacks[them][target] & p.Pieces[us][Pawn]; from != 0; {
		sq := from.PopLSB()
		occ := p.AllOccupied&^SquareBB(sq)&^SquareBB(victim) | SquareBB(target)
		if RookAttacks(ksq, occ)&rookers != 0 || BishopAttacks(ksq, occ)&bishopers != 0 {
			continue
		}
		ml.Add(NewMove(sq, target, Pawn, Pawn, FlagEnPassant))
	}
}

type castling struct {
	right    CastlingRights
	kingFrom Square
	kingTo   Square
	rookFrom Square
	rookTo   Square
	between  Bitboard // must be empty
	path     Bitboard // must not be attacked
	flag     uint32
}

var castlings = [2][2]castling{
	White: {
		{WhiteKingSideCastle, E1, G1, H1, F1, SquareBB(F1) | SquareBB(G1), SquareBB(F1) | SquareBB(G1), FlagCastleKing},
		{WhiteQueenSideCastle, E1, C1, A1, D1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(C1) | SquareBB(D1), FlagCastleQueen},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, H8, F8, SquareBB(F8) | SquareBB(G8), SquareBB(F8) | SquareBB(G8), FlagCastleKing},
		{BlackQueenSideCastle, E8, C8, A8, D8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(C8) | SquareBB(D8), FlagCastleQueen},
	},
}

// castlingFor returns the castling descriptor matching a castle move.
func castlingFor(c Color, flag uint32) *castling {
	if flag == FlagCastleKing {
		return &castlings[c][0]
	}
	return &castlings[c][1]
}

// generateCastling assumes the side to move is not in check.
func (p *Position) generateCastling(ml *MoveList) {
	us, them := p.SideToMove, p.SideToMove.Other()
	for i := range castlings[us] {
		cs := &castlings[us][i]
		if p.CastlingRights&cs.right == 0 || p.AllOccupied&cs.between != 0 {
			continue
		}
		safe := true
		for path := cs.path; path != 0; {
			if p.AttackersByColor(path.PopLSB(), them, p.AllOccupied) != 0 {
				safe = false
				break
			}
		}
		if safe {
			ml.Add(NewMove(cs.kingFrom, cs.kingTo, King, NoPieceType, cs.flag))
		}
	}
}

// HasLegalMoves reports whether the side to move can move at all.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.generate(&ml, genAll)
	return ml.Len() > 0
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no moves and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsInsufficientMaterial reports positions where neither side can mate by
// any sequence of legal moves: bare kings, a single minor piece, or
// bishops that all stand on one square color.
func (p *Position) IsInsufficientMaterial() bool {
	for c := White; c <= Black; c++ {
		if p.Pieces[c][Pawn]|p.Pieces[c][Rook]|p.Pieces[c][Queen] != 0 {
			return false
		}
	}
	knights := p.Pieces[White][Knight] | p.Pieces[Black][Knight]
	bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop]
	minors := (knights | bishops).PopCount()
	if minors <= 1 {
		return true
	}
	return knights == 0 && (bishops&DarkSquares == 0 || bishops&LightSquares == 0)
}
