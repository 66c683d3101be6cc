package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 12 40",
	}
	for _, fen := range fens {
		if got := MustParseFEN(fen).FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseFENNormalizes(t *testing.T) {
	// No black pawn can take on e3, so the target is dropped.
	pos := MustParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if pos.EnPassant != NoSquare {
		t.Errorf("EnPassant = %v, want none", pos.EnPassant)
	}
	// The h1 rook is missing, so K cannot be kept.
	pos = MustParseFEN("r3k2r/8/8/8/8/8/8/R3K3 w KQkq - 0 1")
	if pos.CastlingRights != WhiteQueenSideCastle|BlackKingSideCastle|BlackQueenSideCastle {
		t.Errorf("CastlingRights = %v, want Qkq", pos.CastlingRights)
	}
	if pos.Hash != pos.ComputeHash() {
		t.Errorf("hash not recomputed after normalization")
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ1BNR w kq - 0 1",
		"k7/8/8/8/8/8/8/K6r b - - 0 1",
		// more legal moves than a move list holds
		"BQQQ1Qnk/Q4Qnn/Q5QQ/Q3Q3/Q6Q/Q4Q1Q/Q6Q/KQQQQQQ1 w - - 0 1",
		// eighteen white pieces
		"4k3/8/8/8/8/NN6/PPPPPPPP/RNBQKBNR w - - 0 1",
		// nine pawns
		"4k3/8/8/8/P7/8/PPPPPPPP/4K3 w - - 0 1",
		// three queens with all eight pawns still on the board
		"4k3/8/8/8/8/QQ6/PPPPPPPP/3QK3 w - - 0 1",
	}
	for _, fen := range bad {
		_, err := ParseFEN(fen)
		if !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestMirror(t *testing.T) {
	pos := MustParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K1R1 w Qkq - 0 1")
	m := pos.Mirror()
	want := "r3k1r1/pppbbppp/2n2q1P/1P2p3/3pn3/BN2PNP1/P1PPQPB1/R3K2R w KQq - 0 1"
	if got := m.FEN(); got != want {
		t.Errorf("Mirror().FEN() = %q, want %q", got, want)
	}
	if m.Hash != m.ComputeHash() {
		t.Errorf("mirrored hash not consistent")
	}
	if diff := cmp.Diff(pos.FEN(), m.Mirror().FEN()); diff != "" {
		t.Errorf("double mirror mismatch (-want +got):\n%s", diff)
	}
}

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		uci  string
		want string
	}{
		{StartFEN, "g1f3", "Nf3"},
		{StartFEN, "e2e4", "e4"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"4k3/8/8/8/8/8/8/R3K2R w K - 0 1", "a1a8", "Ra8+"},
		{"rnbqkbnr/ppp1pppp/8/3p4/3P4/5N2/PPP1PPPP/RNBQKB1R w KQkq - 0 3", "b1d2", "Nbd2"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
		{"1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7b8q", "axb8=Q+"},
		{"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1", "e5d6", "exd6"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			m, err := ParseMove(tc.uci, pos)
			if err != nil {
				t.Fatalf("ParseMove(%s): %v", tc.uci, err)
			}
			if got := m.SAN(pos); got != tc.want {
				t.Errorf("SAN() = %q, want %q", got, tc.want)
			}
			back, err := ParseSAN(tc.want, pos)
			if err != nil || back != m {
				t.Errorf("ParseSAN(%q) = %v, %v; want %v", tc.want, back, err, m)
			}
		})
	}
}
