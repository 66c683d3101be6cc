package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

var testMove = board.NewMove(board.E2, board.E4, board.Pawn, board.NoPieceType, board.FlagDoublePush)

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1024)
	const hash = 0x123456789abcdef0
	if _, ok := tt.Probe(hash); ok {
		t.Fatal("empty table reported a hit")
	}
	tt.Store(hash, 7, -250, TTLowerBound, testMove)
	got, ok := tt.Probe(hash)
	if !ok {
		t.Fatal("stored entry not found")
	}
	want := TTEntry{Key: hash, BestMove: testMove, Score: -250, Depth: 7, Flag: TTLowerBound, Age: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestTTCollisionIsMiss(t *testing.T) {
	tt := NewTranspositionTable(1024)
	const a = 5
	const b = a + 1024 // same slot
	tt.Store(a, 3, 10, TTExact, testMove)
	if _, ok := tt.Probe(b); ok {
		t.Fatal("different position sharing the slot reported a hit")
	}
	if got := tt.Stats(); got.Collisions != 1 || got.Hits != 0 || got.Probes != 1 {
		t.Errorf("Stats() = %+v, want one collision out of one probe", got)
	}
	if _, ok := tt.Probe(a); !ok {
		t.Error("original entry lost")
	}
}

func TestTTReplacement(t *testing.T) {
	tt := NewTranspositionTable(16)
	const a, b = 3, 3 + 16

	tt.Store(a, 8, 1, TTExact, testMove)
	tt.Store(b, 4, 2, TTExact, testMove)
	if _, ok := tt.Probe(a); !ok {
		t.Error("shallower entry of the same generation replaced a deeper one")
	}

	tt.Store(b, 8, 2, TTExact, testMove)
	if _, ok := tt.Probe(b); !ok {
		t.Error("equal depth did not replace")
	}

	tt.NewSearch()
	tt.Store(a, 1, 3, TTExact, testMove)
	if e, ok := tt.Probe(a); !ok || e.Age != 1 {
		t.Errorf("entry from an older generation not replaced: %+v %v", e, ok)
	}

	tt.Store(a, 2, 4, TTUpperBound, board.NoMove)
	if e, _ := tt.Probe(a); e.BestMove != testMove {
		t.Errorf("move-less store dropped the known move: %v", e.BestMove)
	}
}

func TestTTCutoff(t *testing.T) {
	tt := NewTranspositionTable(1)
	tests := []struct {
		name  string
		entry TTEntry
		depth int
		ok    bool
		score int
	}{
		{"exact", TTEntry{Score: 40, Depth: 5, Flag: TTExact}, 5, true, 40},
		{"too shallow", TTEntry{Score: 40, Depth: 4, Flag: TTExact}, 5, false, 0},
		{"lower above beta", TTEntry{Score: 120, Depth: 5, Flag: TTLowerBound}, 3, true, 120},
		{"lower inside window", TTEntry{Score: 50, Depth: 5, Flag: TTLowerBound}, 3, false, 0},
		{"upper below alpha", TTEntry{Score: -20, Depth: 5, Flag: TTUpperBound}, 3, true, -20},
		{"upper inside window", TTEntry{Score: 50, Depth: 5, Flag: TTUpperBound}, 3, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, ok := tt.Cutoff(tc.entry, tc.depth, 0, 100, 0)
			if ok != tc.ok || score != tc.score {
				t.Errorf("Cutoff = %d, %v; want %d, %v", score, ok, tc.score, tc.ok)
			}
		})
	}
}

func TestMateScoresRebasedByPly(t *testing.T) {
	tt := NewTranspositionTable(64)
	// Mate found 3 plies below a node at ply 4.
	root := MateIn(7)
	tt.Store(42, 6, AdjustScoreToTT(root, 4), TTExact, testMove)
	e, _ := tt.Probe(42)
	if got := AdjustScoreFromTT(int(e.Score), 4); got != root {
		t.Errorf("same ply: %d, want %d", got, root)
	}
	if got := AdjustScoreFromTT(int(e.Score), 2); got != MateIn(5) {
		t.Errorf("reached at ply 2: %d, want %d", got, MateIn(5))
	}
	if got := AdjustScoreFromTT(AdjustScoreToTT(MatedIn(9), 3), 5); got != MatedIn(11) {
		t.Errorf("mated score: %d, want %d", got, MatedIn(11))
	}
	if got := AdjustScoreToTT(150, 9); got != 150 {
		t.Errorf("ordinary score changed: %d", got)
	}
}

// TestTTConcurrentAccess hammers a tiny table from several goroutines.
// Every entry's score is derived from its key, so a torn slot that passed
// verification would show up as a mismatched score.
func TestTTConcurrentAccess(t *testing.T) {
	tt := NewTranspositionTable(64)
	scoreFor := func(k uint64) int { return int(k%2000) - 1000 }

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		seed := uint64(w + 1)
		g.Go(func() error {
			x := seed * 0x9E3779B97F4A7C15
			for i := 0; i < 20000; i++ {
				x ^= x << 13
				x ^= x >> 7
				x ^= x << 17
				key := x % 512
				if i%2 == 0 {
					tt.Store(key, int(key%20), scoreFor(key), TTExact, board.Move(key))
					continue
				}
				if e, ok := tt.Probe(key); ok {
					if int(e.Score) != scoreFor(key) || e.BestMove != board.Move(key) {
						return errors.New("torn entry passed verification")
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestTTSnapshotRestore(t *testing.T) {
	src := NewTranspositionTable(256)
	for k := uint64(1); k <= 100; k++ {
		src.Store(k*7919, int(k%30), int(k)-50, TTFlag(k%3), board.Move(k))
	}
	snap := src.Snapshot()

	dst := NewTranspositionTable(1 << 20)
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for k := uint64(1); k <= 100; k++ {
		want, ok := src.Probe(k * 7919)
		if !ok {
			continue
		}
		got, ok := dst.Probe(k * 7919)
		if !ok {
			t.Fatalf("key %d missing after restore", k)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("key %d mismatch (-want +got):\n%s", k, diff)
		}
	}

	for _, bad := range [][]byte{nil, []byte("CTT0xxxxxxxxxxxx"), snap[:len(snap)-3]} {
		if err := dst.Restore(bad); !errors.Is(err, ErrBadSnapshot) {
			t.Errorf("Restore(%d bytes) error = %v, want ErrBadSnapshot", len(bad), err)
		}
	}
}

func TestTTHashFullAndClear(t *testing.T) {
	tt := NewTranspositionTable(1000)
	for k := uint64(0); k < 500; k++ {
		tt.Store(k, 1, 0, TTExact, board.NoMove)
	}
	if got := tt.HashFull(); got != 500 {
		t.Errorf("HashFull() = %d, want 500", got)
	}
	tt.NewSearch()
	if got := tt.HashFull(); got != 0 {
		t.Errorf("HashFull() after NewSearch = %d, want 0", got)
	}
	tt.Clear()
	if _, ok := tt.Probe(3); ok {
		t.Error("entry survived Clear")
	}
}

func TestEntriesForMB(t *testing.T) {
	if got := EntriesForMB(1); got != 65536 {
		t.Errorf("EntriesForMB(1) = %d, want 65536", got)
	}
	if got := EntriesForMB(3); got != 131072 {
		t.Errorf("EntriesForMB(3) = %d, want 131072", got)
	}
}

func TestTTOldEntriesStayOld(t *testing.T) {
	tt := NewTranspositionTable(16)
	const a, b = 5, 5 + 16

	tt.Store(a, 20, 1, TTExact, testMove)
	for range 32 {
		tt.NewSearch()
	}
	tt.Store(b, 1, 2, TTExact, testMove)
	if _, ok := tt.Probe(b); !ok {
		t.Error("entry from 32 searches ago still protected by its depth")
	}
}

func TestTTRestoreKeepsGenerations(t *testing.T) {
	src := NewTranspositionTable(1)
	const a, b = 7, 8
	src.NewSearch()
	src.Store(a, 10, 1, TTExact, testMove)
	src.NewSearch()

	dst := NewTranspositionTable(1)
	if err := dst.Restore(src.Snapshot()); err != nil {
		t.Fatal(err)
	}
	e, ok := dst.Probe(a)
	if !ok || e.Age != 1 {
		t.Fatalf("restored entry %+v %v, want generation 1", e, ok)
	}
	if dst.HashFull() != 0 {
		t.Errorf("HashFull counts a restored entry of an older generation")
	}
	dst.Store(b, 1, 2, TTExact, testMove)
	if _, ok := dst.Probe(b); !ok {
		t.Error("restored older entry kept its depth protection")
	}
}
