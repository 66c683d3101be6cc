package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Terminal classifies a root position without legal moves.
type Terminal int

const (
	NotTerminal Terminal = iota
	Checkmate
	Stalemate
)

func (t Terminal) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "none"
}

// SearchResult is the outcome of the deepest fully completed iteration.
type SearchResult struct {
	BestMove board.Move // NoMove only when Terminal is set
	Score    int        // side to move's point of view
	Depth    int        // 0 when no iteration completed
	Nodes    uint64
	PV       []board.Move
	Duration time.Duration
	Terminal Terminal
	Aborted  bool // an iteration was cut short by a stop
}

// SearchInfo is reported after every completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // permille
}

// TableStore persists transposition table snapshots.
type TableStore interface {
	SaveTable(key uint64, snapshot []byte) error
	LoadTable(key uint64) ([]byte, error)
}

// Engine runs iterative-deepening searches. Root moves of every
// iteration are split across Config.Threads workers sharing one
// transposition table. An Engine runs one search at a time.
type Engine struct {
	cfg     Config
	tt      *TranspositionTable
	workers []*Worker
	log     zerolog.Logger

	mu    sync.Mutex
	state atomic.Pointer[searchState]

	evalMu sync.Mutex
	eval   Evaluator

	// OnInfo, if set, is called from the searching goroutine after every
	// completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine builds an engine from DefaultConfig and opts.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, log: cfg.Logger, eval: cfg.Evaluator()}
	if cfg.UseTT {
		e.tt = NewTranspositionTable(cfg.TTEntries)
	}
	for i := 0; i < cfg.Threads; i++ {
		e.workers = append(e.workers, NewWorker(i, e.tt, cfg.Evaluator(), cfg.QuiescenceCap))
	}
	return e, nil
}

// Config returns the settings the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Table returns the shared transposition table, or nil when disabled.
func (e *Engine) Table() *TranspositionTable {
	return e.tt
}

// Search searches pos within the configured limits. history holds the
// hashes of the game positions that led to pos, oldest first; it may end
// with pos itself.
func (e *Engine) Search(ctx context.Context, pos *board.Position, history []uint64) SearchResult {
	return e.SearchLimits(ctx, pos, history, Limits{})
}

// SearchLimits is Search with per-call limits layered over the Config.
// Cancelling ctx stops the search immediately, even inside depth 1; the
// deadline, the node budget and Stop only take effect once depth 1 has
// completed. The configured MoveTime applies only when limits carry no
// clock, no move time and no depth.
func (e *Engine) SearchLimits(ctx context.Context, pos *board.Position, history []uint64, limits Limits) SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		res := SearchResult{Terminal: Stalemate}
		if pos.InCheck() {
			res.Terminal = Checkmate
			res.Score = MatedIn(0)
		}
		e.log.Debug().Str("fen", pos.FEN()).Stringer("terminal", res.Terminal).Msg("no legal moves")
		return res
	}

	if n := len(history); n > 0 && history[n-1] == pos.Hash {
		history = history[:n-1]
	}

	maxDepth := e.cfg.MaxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly-1)
	}
	nodeLimit := e.cfg.Nodes
	if limits.Infinite {
		nodeLimit = 0
	}
	if limits.Nodes > 0 {
		nodeLimit = limits.Nodes
	}
	us := pos.SideToMove
	if limits.MoveTime == 0 && !limits.hasClock(us) && !limits.Infinite && limits.Depth == 0 {
		limits.MoveTime = e.cfg.MoveTime
	}
	fixed := limits.MoveTime > 0
	tm := NewTimeManager()
	tm.Init(limits, us, gamePly(pos))

	st := newSearchState(nodeLimit)
	e.state.Store(st)
	defer e.state.Store(nil)
	if tm.Limited() {
		timer := time.AfterFunc(tm.MaximumTime(), st.requestStop)
		defer timer.Stop()
	}
	stopWatch := context.AfterFunc(ctx, st.cancel)
	defer stopWatch()
	if ctx.Err() != nil {
		st.cancel()
	}

	if e.tt != nil {
		e.tt.NewSearch()
	}
	for _, w := range e.workers {
		w.InitSearch(pos, history, st)
	}

	roots := make([]rootMove, ml.Len())
	for i, m := range ml.Slice() {
		roots[i] = rootMove{move: m, index: i}
	}

	res := SearchResult{
		BestMove: roots[0].move,
		PV:       []board.Move{roots[0].move},
	}
	stability, changes := 0, 0
	var recent []board.Move

	for depth := 1; depth <= maxDepth; depth++ {
		if st.cancelled.Load() {
			res.Aborted = true
			break
		}
		best, err := e.iterate(ctx, roots, depth)
		if err != nil {
			res.Aborted = true
			e.log.Debug().Int("depth", depth).Err(err).Msg("iteration discarded")
			break
		}
		st.arm()

		if best.move == res.BestMove {
			stability++
		} else {
			stability = 0
		}
		recent = append(recent, best.move)
		if len(recent) > 4 {
			recent = recent[1:]
		}
		changes = 0
		for i := 1; i < len(recent); i++ {
			if recent[i] != recent[i-1] {
				changes++
			}
		}

		res.BestMove = best.move
		res.Score = best.score
		res.Depth = depth
		res.PV = best.pv
		res.Nodes = e.nodes()

		if e.tt != nil {
			e.tt.Store(pos.Hash, depth, AdjustScoreToTT(best.score, 0), TTExact, best.move)
		}
		e.report(res, start)

		// Previous best first, the rest in generation order.
		slices.SortFunc(roots, func(a, b rootMove) int {
			switch {
			case a.move == best.move:
				return -1
			case b.move == best.move:
				return 1
			}
			return a.index - b.index
		})

		if IsMateScore(best.score) && MateScore-abs(best.score) <= depth {
			break
		}
		if st.shouldStop() || tm.ShouldStop() {
			break
		}
		tm.Adjust(stability, changes, fixed)
		if tm.PastOptimum() {
			break
		}
	}

	res.Nodes = e.nodes()
	res.Duration = time.Since(start)
	e.log.Info().
		Stringer("bestmove", res.BestMove).
		Int("depth", res.Depth).
		Str("score", ScoreString(res.Score)).
		Uint64("nodes", res.Nodes).
		Dur("time", res.Duration).
		Bool("aborted", res.Aborted).
		Msg("search complete")
	return res
}

// iterate searches every root move to depth and merges the workers'
// bests: highest score first, then lowest generation index.
func (e *Engine) iterate(ctx context.Context, roots []rootMove, depth int) (rootResult, error) {
	n := min(len(e.workers), len(roots))
	results := make([]rootResult, n)
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		share := lo.Filter(roots, func(_ rootMove, j int) bool { return j%n == i })
		w := e.workers[i]
		g.Go(func() error {
			r, err := w.searchRoot(share, depth)
			if err != nil {
				return fmt.Errorf("worker %d depth %d: %w", w.id, depth, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rootResult{}, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.score > best.score || (r.score == best.score && r.index < best.index) {
			best = r
		}
	}
	return best, nil
}

func (e *Engine) nodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}

func (e *Engine) report(res SearchResult, start time.Time) {
	elapsed := time.Since(start)
	hashFull := 0
	if e.tt != nil {
		hashFull = e.tt.HashFull()
	}
	e.log.Debug().
		Int("depth", res.Depth).
		Str("score", ScoreString(res.Score)).
		Uint64("nodes", res.Nodes).
		Uint64("nps", uint64(float64(res.Nodes)/max(elapsed.Seconds(), 1e-6))).
		Dur("time", elapsed).
		Int("hashfull", hashFull).
		Strs("pv", lo.Map(res.PV, func(m board.Move, _ int) string { return m.String() })).
		Msg("iteration complete")
	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth:    res.Depth,
			Score:    res.Score,
			Nodes:    res.Nodes,
			Time:     elapsed,
			PV:       res.PV,
			HashFull: hashFull,
		})
	}
}

// Stop asks a running search to finish. It has no effect on a search
// that has not completed depth 1 yet, beyond stopping it right after.
func (e *Engine) Stop() {
	if st := e.state.Load(); st != nil {
		st.requestStop()
	}
}

// Clear empties the transposition table and the workers' heuristics.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tt != nil {
		e.tt.Clear()
	}
	for _, w := range e.workers {
		w.orderer.Reset()
	}
}

// Evaluate returns the static evaluation of pos from the side to move's
// point of view.
func (e *Engine) Evaluate(pos *board.Position) int {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()
	return e.eval.Evaluate(pos)
}

// Perft counts the leaf nodes of the legal move tree, splitting the root
// moves across the configured threads.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth <= 1 {
		return pos.Perft(depth)
	}
	moves := pos.LegalMoves().Slice()
	counts := make([]uint64, len(moves))
	var g errgroup.Group
	g.SetLimit(e.cfg.Threads)
	for i, m := range moves {
		g.Go(func() error {
			p := pos.Copy()
			p.MakeMove(m)
			counts[i] = p.Perft(depth - 1)
			return nil
		})
	}
	_ = g.Wait()
	return lo.Sum(counts)
}

// SaveTable writes a snapshot of the transposition table under key.
func (e *Engine) SaveTable(s TableStore, key uint64) error {
	if e.tt == nil {
		return fmt.Errorf("save table: transposition table disabled: %w", ErrInvalidConfig)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.tt.Snapshot()
	if err := s.SaveTable(key, snap); err != nil {
		return fmt.Errorf("save table %016x: %w", key, err)
	}
	e.log.Debug().Uint64("key", key).Int("bytes", len(snap)).Msg("table saved")
	return nil
}

// LoadTable merges the snapshot stored under key into the table.
func (e *Engine) LoadTable(s TableStore, key uint64) error {
	if e.tt == nil {
		return fmt.Errorf("load table: transposition table disabled: %w", ErrInvalidConfig)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := s.LoadTable(key)
	if err != nil {
		return fmt.Errorf("load table %016x: %w", key, err)
	}
	if err := e.tt.Restore(snap); err != nil {
		return fmt.Errorf("load table %016x: %w", key, err)
	}
	e.log.Debug().Uint64("key", key).Int("bytes", len(snap)).Msg("table loaded")
	return nil
}

func gamePly(pos *board.Position) int {
	ply := (pos.FullMoveNumber - 1) * 2
	if pos.SideToMove == board.Black {
		ply++
	}
	return max(ply, 0)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
