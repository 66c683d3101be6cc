package board

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
)

// oracleMoves lists the legal moves of fen in UCI form according to an
// independent move generator.
func oracleMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("oracle rejected %q: %v", fen, err)
	}
	game := chess.NewGame(opt)
	var out []string
	for _, m := range game.ValidMoves() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func ourMoves(p *Position) []string {
	var out []string
	for _, m := range p.LegalMoves().Slice() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func TestLegalMovesMatchOracle(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R b KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		// double check: only king moves
		"4k3/8/8/8/1b6/8/3PPN2/r3K2r w - - 0 1",
		// pinned knight and pinned bishop
		"4k3/4r3/8/8/1b6/8/3NB3/4K3 w - - 0 1",
		// castling through an attacked square
		"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
		"1r2k2r/8/8/8/8/8/8/R3K1r1 w Qk - 0 1",
		// en passant that resolves a pawn check
		"8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1",
		// promotions with and without capture
		"1n2k3/P6P/8/8/8/8/8/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos := MustParseFEN(fen)
			if diff := cmp.Diff(oracleMoves(t, fen), ourMoves(pos)); diff != "" {
				t.Errorf("legal moves mismatch (-oracle +ours):\n%s", diff)
			}
		})
	}
}

// TestLegalMovesMatchOracleAlongGames plays deterministic pseudo-random
// games and compares the move sets at every ply.
func TestLegalMovesMatchOracleAlongGames(t *testing.T) {
	rng := prng{state: 0xC0FFEE}
	for game := 0; game < 8; game++ {
		pos := NewPosition()
		for ply := 0; ply < 80; ply++ {
			fen := pos.FEN()
			want := oracleMoves(t, fen)
			got := ourMoves(pos)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("game %d ply %d %q mismatch (-oracle +ours):\n%s", game, ply, fen, diff)
			}
			ml := pos.LegalMoves()
			if ml.Len() == 0 {
				break
			}
			pos.MakeMove(ml.Get(int(rng.next() % uint64(ml.Len()))))
		}
	}
}
