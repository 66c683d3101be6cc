package board

import "strings"

const sanPieceLetters = "PNBRQK"

// SAN renders m in Standard Algebraic Notation for position p, including
// the check or mate suffix. m must be legal in p.
func (m Move) SAN(p *Position) string {
	if m == NoMove {
		return "--"
	}
	var sb strings.Builder
	switch {
	case m.Flag() == FlagCastleKing:
		sb.WriteString("O-O")
	case m.Flag() == FlagCastleQueen:
		sb.WriteString("O-O-O")
	default:
		pt := m.Piece()
		if pt != Pawn {
			sb.WriteByte(sanPieceLetters[pt])
			sb.WriteString(disambiguation(p, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte(byte('a' + m.From().File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To().String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(sanPieceLetters[m.Promotion()])
		}
	}

	after := *p
	after.MakeMove(m)
	if after.InCheck() {
		if after.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece type to the same square.
func disambiguation(p *Position, m Move) string {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	var sameFile, sameRank, ambiguous bool
	for _, o := range ml.Slice() {
		if o.To() != m.To() || o.Piece() != m.Piece() || o.From() == m.From() {
			continue
		}
		ambiguous = true
		sameFile = sameFile || o.From().File() == m.From().File()
		sameRank = sameRank || o.From().Rank() == m.From().Rank()
	}
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return m.From().String()[:1]
	case !sameRank:
		return m.From().String()[1:]
	}
	return m.From().String()
}

// ParseSAN resolves a SAN token such as "Nbd7", "exd6", "e8=Q+" or "O-O"
// against the legal moves of p.
func ParseSAN(s string, p *Position) (Move, error) {
	tok := strings.TrimRight(strings.TrimSpace(s), "+#!?")
	tok = strings.ReplaceAll(tok, "0", "O")

	var ml MoveList
	p.GenerateLegalMoves(&ml)

	if tok == "O-O" || tok == "O-O-O" {
		flag := FlagCastleKing
		if tok == "O-O-O" {
			flag = FlagCastleQueen
		}
		for _, m := range ml.Slice() {
			if m.Flag() == flag {
				return m, nil
			}
		}
		return NoMove, &MoveError{Text: s, FEN: p.FEN(), Err: ErrIllegalMove}
	}

	promo := NoPieceType
	if i := strings.IndexByte(tok, '='); i >= 0 && i+1 < len(tok) {
		if j := strings.IndexByte(sanPieceLetters, tok[i+1]); j > 0 && j < int(King) {
			promo = PieceType(j)
		}
		tok = tok[:i]
	}
	tok = strings.ReplaceAll(tok, "x", "")

	pt := Pawn
	if len(tok) > 0 {
		if j := strings.IndexByte(sanPieceLetters, tok[0]); j > 0 {
			pt = PieceType(j)
			tok = tok[1:]
		}
	}
	if len(tok) < 2 {
		return NoMove, &MoveError{Text: s, FEN: p.FEN(), Err: ErrMalformedMove}
	}
	to, err := ParseSquare(tok[len(tok)-2:])
	if err != nil {
		return NoMove, &MoveError{Text: s, FEN: p.FEN(), Err: ErrMalformedMove}
	}
	file, rank := -1, -1
	for _, ch := range tok[:len(tok)-2] {
		switch {
		case ch >= 'a' && ch <= 'h':
			file = int(ch - 'a')
		case ch >= '1' && ch <= '8':
			rank = int(ch - '1')
		}
	}

	for _, m := range ml.Slice() {
		if m.To() != to || m.Piece() != pt || m.Promotion() != promo {
			continue
		}
		if (file >= 0 && m.From().File() != file) || (rank >= 0 && m.From().Rank() != rank) {
			continue
		}
		return m, nil
	}
	return NoMove, &MoveError{Text: s, FEN: p.FEN(), Err: ErrIllegalMove}
}

// SANLine renders a move sequence starting from p, which is not modified.
func SANLine(p *Position, moves []Move) []string {
	cur := *p
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.SAN(&cur))
		cur.MakeMove(m)
	}
	return out
}
