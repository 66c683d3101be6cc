package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

var evalFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R b KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/5pk1/6p1/8/3P4/8/5PPP/6K1 b - - 0 40",
	"2r3k1/1q3ppp/8/8/8/8/1Q3PPP/2R3K1 w - - 0 1",
}

// gamePositions plays a fixed pseudo-random game and returns every
// position along it.
func gamePositions(seed uint64, plies int) []*board.Position {
	x := seed
	pos := board.NewPosition()
	out := []*board.Position{pos.Copy()}
	for i := 0; i < plies; i++ {
		ml := pos.LegalMoves()
		if ml.Len() == 0 {
			break
		}
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		pos.MakeMove(ml.Get(int(x % uint64(ml.Len()))))
		out = append(out, pos.Copy())
	}
	return out
}

func TestEvaluatorSymmetry(t *testing.T) {
	var positions []*board.Position
	for _, fen := range evalFENs {
		positions = append(positions, board.MustParseFEN(fen))
	}
	for seed := uint64(1); seed <= 4; seed++ {
		positions = append(positions, gamePositions(seed*0x2545F4914F6CDD1D, 120)...)
	}

	evaluators := map[string]Evaluator{
		"classical": NewClassical(),
		"material":  NewMaterial(),
	}
	for name, e := range evaluators {
		t.Run(name, func(t *testing.T) {
			for _, p := range positions {
				a, b := e.Evaluate(p), e.Evaluate(p.Mirror())
				if a != -b {
					t.Errorf("%s: Evaluate = %d, mirrored = %d", p.FEN(), a, b)
				}
				if again := e.Evaluate(p); again != a {
					t.Errorf("%s: not deterministic: %d then %d", p.FEN(), a, again)
				}
			}
		})
	}
}

func TestPawnCacheDoesNotChangeScores(t *testing.T) {
	cached := NewClassical()
	uncached := &Classical{}
	for _, p := range gamePositions(99, 150) {
		if a, b := cached.Evaluate(p), uncached.Evaluate(p); a != b {
			t.Fatalf("%s: cached %d, uncached %d", p.FEN(), a, b)
		}
	}
}

func TestMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{board.StartFEN, 0},
		{"4k3/8/8/8/8/8/8/Q3K3 w - - 0 1", 900},
		{"4k3/8/8/8/8/8/8/Q3K3 b - - 0 1", -900},
		{"r3k3/pp6/8/8/8/8/8/4K1N1 w - - 0 1", -380},
	}
	for _, tc := range tests {
		if got := NewMaterial().Evaluate(board.MustParseFEN(tc.fen)); got != tc.want {
			t.Errorf("Material(%s) = %d, want %d", tc.fen, got, tc.want)
		}
	}
}

func TestClassicalBasics(t *testing.T) {
	e := NewClassical()
	if got := e.Evaluate(board.NewPosition()); got != 0 {
		t.Errorf("start position = %d, want 0", got)
	}
	up := e.Evaluate(board.MustParseFEN("rnbqkb1r/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	if up < 200 {
		t.Errorf("a knight up scores only %d", up)
	}
	passer := e.Evaluate(board.MustParseFEN("4k3/8/1P6/8/8/8/8/4K3 w - - 0 1"))
	blocked := e.Evaluate(board.MustParseFEN("4k3/1p6/1P6/8/8/8/8/4K3 w - - 0 1"))
	if passer <= blocked+PawnValue {
		t.Errorf("passed pawn %d not worth more than blocked pawn plus material %d", passer, blocked+PawnValue)
	}
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1)
	pos := board.NewPosition()

	if _, _, found := pt.Probe(pos.PawnKey); found {
		t.Error("expected miss on first probe")
	}
	pt.Store(pos.PawnKey, -15, -20)
	mg, eg, found := pt.Probe(pos.PawnKey)
	if !found || mg != -15 || eg != -20 {
		t.Errorf("Probe = %d, %d, %v; want -15, -20, true", mg, eg, found)
	}

	old := pos.PawnKey
	m, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	u := pos.MakeMove(m)
	if pos.PawnKey == old {
		t.Error("pawn key unchanged after a pawn move")
	}
	pos.UnmakeMove(m, u)
	if pos.PawnKey != old {
		t.Error("pawn key not restored by unmake")
	}

	pt.Clear()
	if _, _, found := pt.Probe(old); found {
		t.Error("entry survived Clear")
	}
}
