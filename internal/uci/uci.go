// Package uci drives the engine over the Universal Chess Interface text
// protocol.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
)

const (
	defaultHashMB = 64
	maxHashMB     = 4096
)

// UCI implements the protocol on top of one Engine.
type UCI struct {
	out   io.Writer
	outMu sync.Mutex
	log   zerolog.Logger

	base    []engine.Option
	hashMB  int
	threads int
	engine  *engine.Engine

	game *game.Game

	searching  bool
	searchDone chan struct{}
}

// New creates a protocol handler writing to out. opts configure every
// engine it builds; Hash and Threads can be changed with setoption.
func New(out io.Writer, log zerolog.Logger, opts ...engine.Option) (*UCI, error) {
	u := &UCI{
		out:     out,
		log:     log,
		base:    opts,
		hashMB:  defaultHashMB,
		threads: 1,
		game:    game.New(),
	}
	if err := u.rebuild(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *UCI) rebuild() error {
	opts := append([]engine.Option{engine.WithLogger(u.log)}, u.base...)
	opts = append(opts, engine.WithHashMB(u.hashMB), engine.WithThreads(u.threads))
	eng, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}
	u.engine = eng
	return nil
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands from in until "quit" or end of input. A search still
// running at that point is stopped and its bestmove written first.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	defer u.handleStop()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.printf("%s", u.game.Position().FEN())
		case "eval":
			u.printf("info string eval %s", engine.ScoreString(u.engine.Evaluate(u.game.Position())))
		case "perft":
			u.handlePerft(args)
		default:
			u.printf("info string unknown command %s", cmd)
		}
	}
	return scanner.Err()
}

func (u *UCI) handleUCI() {
	u.printf("id name chesscore")
	u.printf("id author chesscore authors")
	u.printf("")
	u.printf("option name Hash type spin default %d min 1 max %d", defaultHashMB, maxHashMB)
	u.printf("option name Threads type spin default 1 min 1 max 64")
	u.printf("option name Clear Hash type button")
	u.printf("uciok")
}

func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.game = game.New()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// On any error the previous position is kept.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	movesAt := lo.IndexOf(args, "moves")
	if movesAt < 0 {
		movesAt = len(args)
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = game.New()
	case "fen":
		var err error
		g, err = game.FromFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string %v", err)
			return
		}
	default:
		u.printf("info string position needs startpos or fen")
		return
	}

	for _, s := range args[min(movesAt+1, len(args)):] {
		if err := g.PlayUCI(s); err != nil {
			u.printf("info string %v", err)
			return
		}
	}
	u.game = g
}

// parseLimits converts the arguments of "go" into search limits.
func parseLimits(args []string) engine.Limits {
	var l engine.Limits
	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch args[i] {
		case "depth":
			l.Depth, _ = strconv.Atoi(next)
			i++
		case "nodes":
			l.Nodes, _ = strconv.ParseUint(next, 10, 64)
			i++
		case "movetime":
			l.MoveTime = ms(next)
			i++
		case "wtime":
			l.Time[board.White] = ms(next)
			i++
		case "btime":
			l.Time[board.Black] = ms(next)
			i++
		case "winc":
			l.Inc[board.White] = ms(next)
			i++
		case "binc":
			l.Inc[board.Black] = ms(next)
			i++
		case "movestogo":
			l.MovesToGo, _ = strconv.Atoi(next)
			i++
		case "infinite":
			l.Infinite = true
		}
	}
	return l
}

// handleGo starts a search in the background; bestmove is written when it
// finishes.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()
	limits := parseLimits(args)
	pos := u.game.Position()
	history := u.game.Hashes()

	u.engine.OnInfo = func(info engine.SearchInfo) { u.sendInfo(pos, info) }
	u.searching = true
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		res := u.engine.SearchLimits(ctx, pos, history, limits)
		if res.Terminal != engine.NotTerminal {
			u.printf("info string %s", res.Terminal)
			u.printf("bestmove 0000")
			return
		}
		u.printf("bestmove %s", res.BestMove)
	}()
}

// sendInfo writes one "info" line per completed iteration.
func (u *UCI) sendInfo(pos *board.Position, info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + engine.ScoreString(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(info.Nodes)/info.Time.Seconds())))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		parts = append(parts, "pv "+strings.Join(lo.Map(info.PV, func(m board.Move, _ int) string { return m.String() }), " "))
	}
	u.printf("info %s", strings.Join(parts, " "))
}

// handleStop ends the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if !u.searching {
		return
	}
	u.engine.Stop()
	<-u.searchDone
	u.searching = false
}

// handleSetOption processes "setoption name <name> [value <value>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	dst := &name
	for _, arg := range args {
		switch arg {
		case "name":
			dst = &name
		case "value":
			dst = &value
		default:
			*dst = append(*dst, arg)
		}
	}
	v := strings.Join(value, " ")

	u.handleStop()
	switch strings.ToLower(strings.Join(name, " ")) {
	case "hash":
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHashMB {
			u.printf("info string bad Hash value %q", v)
			return
		}
		u.hashMB = n
	case "threads":
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			u.printf("info string bad Threads value %q", v)
			return
		}
		u.threads = n
	case "clear hash":
		u.engine.Clear()
		return
	default:
		u.printf("info string unknown option %q", strings.Join(name, " "))
		return
	}
	if err := u.rebuild(); err != nil {
		u.printf("info string %v", err)
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.engine.Perft(u.game.Position(), depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d", nodes)
	u.printf("Time: %v", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
