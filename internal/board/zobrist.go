package board

// Zobrist keys. Filled once by init and read-only afterwards, so they are
// safe to share between search threads.
var (
	zobristPiece      [2][6][64]uint64
	zobristEnPassant  [8]uint64
	zobristCastling   [16]uint64
	zobristSideToMove uint64
)

const zobristSeed = 0x98F107A2BEEF1234

func init() {
	rng := prng{state: zobristSeed}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	// One key per right, combined so that toggling a right is a single XOR
	// pair on the aggregate key.
	var rights [4]uint64
	for i := range rights {
		rights[i] = rng.next()
	}
	for cr := range zobristCastling {
		for i := range rights {
			if cr&(1<<i) != 0 {
				zobristCastling[cr] ^= rights[i]
			}
		}
	}
	zobristSideToMove = rng.next()
}

// prng is xorshift64*. Deterministic for a given seed.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// sparse returns a number with roughly one bit in eight set.
func (p *prng) sparse() uint64 {
	return p.next() & p.next() & p.next()
}

// ZobristPiece returns the key for a piece of color c and type pt on sq.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// ZobristEnPassant returns the key for an en passant target on file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the key for a full set of castling rights.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr&AllCastling]
}

// ZobristSideToMove is XORed in when black is to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}

// ComputeHash recomputes the position key from scratch. The incremental
// key maintained by MakeMove must always equal this value.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				h ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	h ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristSideToMove
	}
	return h
}

// ComputePawnKey recomputes the pawn-and-king structure key.
func (p *Position) ComputePawnKey() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for _, pt := range [2]PieceType{Pawn, King} {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				h ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	return h
}
