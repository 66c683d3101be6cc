package board

import (
	"fmt"
	"strings"
)

// Move is a packed, comparable move value.
//
//	bits  0-5   from square
//	bits  6-11  to square
//	bits 12-14  moving piece type
//	bits 15-17  captured piece type (NoPieceType when nothing is captured)
//	bits 18-21  flag
type Move uint32

// NoMove is the zero Move. It never matches a generated move because from == to.
const NoMove Move = 0

// Move flags.
const (
	FlagQuiet uint32 = iota
	FlagDoublePush
	FlagCastleKing
	FlagCastleQueen
	FlagEnPassant
	_
	_
	_
	FlagPromoKnight
	FlagPromoBishop
	FlagPromoRook
	FlagPromoQueen
)

const (
	moveFromShift     = 0
	moveToShift       = 6
	movePieceShift    = 12
	moveCapturedShift = 15
	moveFlagShift     = 18
)

// NewMove packs a move. captured is NoPieceType for a non-capture.
func NewMove(from, to Square, piece, captured PieceType, flag uint32) Move {
	return Move(uint32(from)<<moveFromShift |
		uint32(to)<<moveToShift |
		uint32(piece)<<movePieceShift |
		uint32(captured)<<moveCapturedShift |
		flag<<moveFlagShift)
}

func (m Move) From() Square { return Square(m >> moveFromShift & 63) }
func (m Move) To() Square { return Square(m >> moveToShift & 63) }
func (m Move) Piece() PieceType { return PieceType(m >> movePieceShift & 7) }
func (m Move) Captured() PieceType { return PieceType(m >> moveCapturedShift & 7) }
func (m Move) Flag() uint32 { return uint32(m>>moveFlagShift) & 15 }
func (m Move) IsCapture() bool { return m.Captured() != NoPieceType }
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }
func (m Move) IsDoublePush() bool { return m.Flag() == FlagDoublePush }
func (m Move) IsPromotion() bool { return m.Flag() >= FlagPromoKnight }
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }
func (m Move) IsCastling() bool { return m.Flag() == FlagCastleKing || m.Flag() == FlagCastleQueen }

// Promotion returns the promoted-to piece type, or NoPieceType.
func (m Move) Promotion() PieceType {
	if !m.IsPromotion() {
		return NoPieceType
	}
	return Knight + PieceType(m.Flag()-FlagPromoKnight)
}

// String returns the move in UCI long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("pnbrqk"[m.Promotion()])
	}
	return s
}

// ParseMove resolves a UCI move string against the legal moves of pos.
func ParseMove(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 4 || len(s) > 5 {
		return NoMove, &MoveError{Text: s, FEN: pos.FEN(), Err: ErrMalformedMove}
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, &MoveError{Text: s, FEN: pos.FEN(), Err: ErrMalformedMove}
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, &MoveError{Text: s, FEN: pos.FEN(), Err: ErrMalformedMove}
	}
	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, &MoveError{Text: s, FEN: pos.FEN(), Err: ErrMalformedMove}
		}
	}

	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return NoMove, &MoveError{Text: s, FEN: pos.FEN(), Err: ErrIllegalMove}
}

// MaxMoves bounds the number of legal moves in any reachable position.
const MaxMoves = 256

// MoveList is a fixed-capacity move buffer that lives on the stack.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int { return ml.count }
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Swap(i, j int) { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Clear() { ml.count = 0 }

// Slice returns the generated moves. The slice aliases the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// IndexOf returns the position of m in the list, or -1.
func (ml *MoveList) IndexOf(m Move) int {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return i
		}
	}
	return -1
}

// Contains reports whether m was generated.
func (ml *MoveList) Contains(m Move) bool {
	return ml.IndexOf(m) >= 0
}

func (ml *MoveList) String() string {
	parts := make([]string, ml.count)
	for i, m := range ml.Slice() {
		parts[i] = m.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
