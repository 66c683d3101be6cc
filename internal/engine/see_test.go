package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestSEE(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want int
	}{
		{"free pawn", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", 100},
		{"rook takes defended pawn", "4k3/8/2p5/3p4/8/8/8/3RK3 w - - 0 1", "d1d5", -400},
		{"battery behind the queen", "3rk3/8/8/3p4/8/8/3Q4/3RK3 w - - 0 1", "d2d5", -300},
		{"king cannot recapture into defence", "8/8/8/8/8/4k3/3p4/3QK3 w - - 0 1", "d1d2", 100},
		{"pawn takes defended knight", "4k3/2p5/3n4/4P3/8/8/8/4K3 w - - 0 1", "e5d6", 220},
		{"quiet move to an attacked square", "4k3/8/2p5/8/8/8/8/1N2K3 w - - 0 1", "b1d2", 0},
		{"knight steps onto a pawn-covered square", "4k3/8/8/8/1p6/8/8/1N2K3 w - - 0 1", "b1c3", -320},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := board.MustParseFEN(tc.fen)
			m, err := board.ParseMove(tc.move, pos)
			if err != nil {
				t.Fatalf("ParseMove(%s): %v", tc.move, err)
			}
			if got := SEE(pos, m); got != tc.want {
				t.Errorf("SEE(%s) = %d, want %d", tc.move, got, tc.want)
			}
		})
	}
}
