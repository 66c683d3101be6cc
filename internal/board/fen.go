package board

import (
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a position from Forsyth-Edwards Notation. The halfmove
// and fullmove fields are optional. The result passes Validate.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, &FENError{FEN: fen, Field: "fields", Reason: "want 4 to 6 fields"}
	}

	pos := &Position{}
	pos.Clear()

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, &FENError{FEN: fen, Field: "placement", Reason: "want 8 ranks"}
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc := PieceFromChar(ch)
			if pc == NoPiece || file > 7 {
				return nil, &FENError{FEN: fen, Field: "placement", Reason: "bad square in rank " + strconv.Itoa(rank+1)}
			}
			sq := NewSquare(file, rank)
			pos.Pieces[pc.Color()][pc.Type()] |= SquareBB(sq)
			file++
		}
		if file != 8 {
			return nil, &FENError{FEN: fen, Field: "placement", Reason: "rank " + strconv.Itoa(rank+1) + " does not have 8 squares"}
		}
	}

	switch fields[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, &FENError{FEN: fen, Field: "side to move", Reason: "want w or b"}
	}

	if fields[2] != "-" {
		for _, ch := range fields[2] {
			i := strings.IndexRune("KQkq", ch)
			if i < 0 {
				return nil, &FENError{FEN: fen, Field: "castling", Reason: "unexpected " + string(ch)}
			}
			pos.CastlingRights |= 1 << i
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil || sq.RelativeRank(pos.SideToMove) != 5 {
			return nil, &FENError{FEN: fen, Field: "en passant", Reason: "bad target square"}
		}
		pos.EnPassant = sq
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, &FENError{FEN: fen, Field: "halfmove clock", Reason: "want a non-negative integer"}
		}
		pos.HalfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, &FENError{FEN: fen, Field: "fullmove number", Reason: "want a positive integer"}
		}
		pos.FullMoveNumber = n
	}

	pos.dropUnusableRights()
	pos.refresh()
	if pos.EnPassant != NoSquare && !pos.enPassantCapturable(pos.EnPassant) {
		pos.EnPassant = NoSquare
		pos.Hash = pos.ComputeHash()
	}
	if err := pos.Validate(); err != nil {
		return nil, &FENError{FEN: fen, Field: "position", Reason: err.Error()}
	}
	return pos, nil
}

// MustParseFEN is ParseFEN for literals known to be valid.
func MustParseFEN(fen string) *Position {
	pos, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return pos
}

// dropUnusableRights clears castling rights whose king or rook is not on
// its home square, so hashes agree with positions reached by play.
func (p *Position) dropUnusableRights() {
	for _, home := range [...]struct {
		right      CastlingRights
		c          Color
		king, rook Square
	}{
		{WhiteKingSideCastle, White, E1, H1},
		{WhiteQueenSideCastle, White, E1, A1},
		{BlackKingSideCastle, Black, E8, H8},
		{BlackQueenSideCastle, Black, E8, A8},
	} {
		if !p.Pieces[home.c][King].IsSet(home.king) || !p.Pieces[home.c][Rook].IsSet(home.rook) {
			p.CastlingRights &^= home.right
		}
	}
}

// enPassantCapturable reports whether a pawn of the side to move stands
// next to the double-pushed pawn behind target.
func (p *Position) enPassantCapturable(target Square) bool {
	them := p.SideToMove.Other()
	return SquareBB(target).Forward(them)&p.Pieces[them][Pawn] != 0 &&
		pawnAttacks[them][target]&p.Pieces[p.SideToMove][Pawn] != 0
}

// FEN renders the position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := " w "
	if p.SideToMove == Black {
		side = " b "
	}
	sb.WriteString(side)
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))
	return sb.String()
}
