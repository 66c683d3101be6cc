package board

import (
	"errors"
	"testing"
)

func TestTerminalPositions(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"king takes rook", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true, false},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
		{"pawn stalemate", "8/8/8/8/8/5k2/5p2/5K2 w - - 0 1", false, true},
		{"start", StartFEN, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			if got := pos.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate() = %v, want %v", got, tc.checkmate)
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate() = %v, want %v", got, tc.stalemate)
			}
			if terminal := tc.checkmate || tc.stalemate; pos.HasLegalMoves() == terminal {
				t.Errorf("HasLegalMoves() = %v for terminal=%v", pos.HasLegalMoves(), terminal)
			}
		})
	}
}

func TestFoolsMateByPlay(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		if _, err := pos.ApplyMove(m); err != nil {
			t.Fatalf("ApplyMove(%s): %v", s, err)
		}
	}
	if !pos.IsCheckmate() {
		t.Fatalf("expected checkmate after fool's mate, got %s", pos.FEN())
	}
}

func TestApplyIllegalMoveLeavesPositionUnchanged(t *testing.T) {
	pos := NewPosition()
	before := *pos
	illegal := NewMove(E2, E5, Pawn, NoPieceType, FlagQuiet)
	_, err := pos.ApplyMove(illegal)
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("ApplyMove(e2e5) error = %v, want ErrIllegalMove", err)
	}
	var me *MoveError
	if !errors.As(err, &me) || me.Text != "e2e5" {
		t.Errorf("error %v does not carry the move text", err)
	}
	if *pos != before {
		t.Errorf("illegal move modified the position: %s", pos.FEN())
	}

	if _, err := ParseMove("e1e2", pos); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("ParseMove(e1e2) error = %v, want ErrIllegalMove", err)
	}
	if _, err := ParseMove("zz", pos); !errors.Is(err, ErrMalformedMove) {
		t.Errorf("ParseMove(zz) error = %v, want ErrMalformedMove", err)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KN2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KB2 w - - 0 1", true},
		{"8/8/8/3bk3/8/8/8/4KB2 w - - 0 1", true},   // both bishops on light squares
		{"8/8/8/2b1k3/8/8/8/4KB2 w - - 0 1", false}, // opposite colors
		{"8/8/8/4k3/8/8/8/3NKN2 w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
	}
	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			if got := MustParseFEN(tc.fen).IsInsufficientMaterial(); got != tc.want {
				t.Errorf("IsInsufficientMaterial() = %v, want %v", got, tc.want)
			}
		})
	}
}
