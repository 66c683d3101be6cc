package uci

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// session runs script through a fresh handler and returns the output lines.
func session(t *testing.T, script ...string) []string {
	t.Helper()
	var out bytes.Buffer
	u, err := New(&out, zerolog.Nop(), engine.WithMoveTime(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	if err := u.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func lastBestMove(t *testing.T, lines []string) string {
	t.Helper()
	for i := len(lines) - 1; i >= 0; i-- {
		if s, ok := strings.CutPrefix(lines[i], "bestmove "); ok {
			return s
		}
	}
	t.Fatalf("no bestmove in output:\n%s", strings.Join(lines, "\n"))
	return ""
}

func TestHandshake(t *testing.T) {
	lines := session(t, "uci", "isready", "quit")
	if lines[0] != "id name chesscore" {
		t.Errorf("first line %q", lines[0])
	}
	if diff := cmp.Diff([]string{"uciok", "readyok"}, lines[len(lines)-2:]); diff != "" {
		t.Errorf("tail (-want +got):\n%s", diff)
	}
}

func TestGo(t *testing.T) {
	tests := []struct {
		name   string
		script []string
		want   string
	}{
		{
			name:   "mate in one",
			script: []string{"position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "go depth 3"},
			want:   "a1a8",
		},
		{
			name:   "after moves",
			script: []string{"position startpos moves f2f3 e7e5 g2g4", "go depth 2"},
			want:   "d8h4",
		},
		{
			name:   "checkmated",
			script: []string{"position startpos moves f2f3 e7e5 g2g4 d8h4", "go depth 2"},
			want:   "0000",
		},
		{
			name:   "bad move keeps the previous position",
			script: []string{"position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "position startpos moves e2e5", "go depth 1"},
			want:   "a1a8",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := lastBestMove(t, session(t, tc.script...)); got != tc.want {
				t.Errorf("bestmove %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStopInfinite(t *testing.T) {
	var out bytes.Buffer
	u, err := New(&out, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	u.handleGo(context.Background(), []string{"infinite"})
	time.Sleep(50 * time.Millisecond)
	u.handleStop()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	m := lastBestMove(t, lines)
	if _, err := board.ParseMove(m, board.NewPosition()); err != nil {
		t.Errorf("bestmove %s: %v", m, err)
	}
	if !strings.HasPrefix(lines[0], "info depth 1 score ") {
		t.Errorf("first line %q", lines[0])
	}
}

func TestParseLimits(t *testing.T) {
	got := parseLimits(strings.Fields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 7 nodes 5000"))
	want := engine.Limits{
		Time:      [2]time.Duration{time.Minute, 30 * time.Second},
		Inc:       [2]time.Duration{time.Second, 500 * time.Millisecond},
		MovesToGo: 20,
		Depth:     7,
		Nodes:     5000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseLimits (-want +got):\n%s", diff)
	}
}

func TestSetOptionAndPerft(t *testing.T) {
	lines := session(t,
		"setoption name Hash value 8",
		"setoption name Threads value 2",
		"setoption name Hash value lots",
		"perft 3",
	)
	if lines[0] != `info string bad Hash value "lots"` {
		t.Errorf("first line %q", lines[0])
	}
	if lines[1] != "Nodes: 8902" {
		t.Errorf("perft line %q", lines[1])
	}
}
