package engine

import (
	"errors"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// pollInterval is how many nodes a worker searches between checks of the
// shared stop state. Must be a power of two.
const pollInterval = 2048

// errIterationAborted reports that a worker gave up on the current depth.
var errIterationAborted = errors.New("iteration aborted")

// searchState is shared by every worker of one search.
type searchState struct {
	cancelled atomic.Bool // context cancelled: stop at once
	requested atomic.Bool // deadline, node budget or Stop()
	armed     atomic.Bool // a soft request only counts once depth 1 is done
	nodes     atomic.Uint64
	nodeLimit uint64
}

func newSearchState(nodeLimit uint64) *searchState {
	return &searchState{nodeLimit: nodeLimit}
}

func (s *searchState) cancel()      { s.cancelled.Store(true) }
func (s *searchState) requestStop() { s.requested.Store(true) }
func (s *searchState) arm()         { s.armed.Store(true) }

func (s *searchState) shouldStop() bool {
	return s.cancelled.Load() || (s.armed.Load() && s.requested.Load())
}

// rootMove is a legal root move and its index in generation order, which
// breaks ties between equal scores.
type rootMove struct {
	move  board.Move
	index int
}

// rootResult is a worker's best root move for one iteration.
type rootResult struct {
	move  board.Move
	index int
	score int
	pv    []board.Move
}

// Worker owns the mutable state of one search thread. Only the
// transposition table and the searchState are shared.
type Worker struct {
	id      int
	pos     *board.Position
	orderer *MoveOrderer
	eval    Evaluator
	pv      PVTable

	nodes   uint64
	flushed uint64
	halted  bool

	// hashes of every position from the start of the game up to the
	// current node; the last entry is pos.Hash
	history []uint64

	tt    *TranspositionTable // nil when disabled
	state *searchState
	qcap  int
}

// NewWorker creates a search worker. tt may be nil.
func NewWorker(id int, tt *TranspositionTable, eval Evaluator, qcap int) *Worker {
	return &Worker{
		id:      id,
		orderer: NewMoveOrderer(),
		eval:    eval,
		tt:      tt,
		qcap:    qcap,
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Nodes returns the number of nodes searched since InitSearch.
func (w *Worker) Nodes() uint64 {
	return w.nodes
}

// InitSearch prepares the worker for a new search from pos. history holds
// the hashes of earlier game positions, oldest first.
func (w *Worker) InitSearch(pos *board.Position, history []uint64, state *searchState) {
	w.pos = pos.Copy()
	w.history = w.history[:0]
	w.history = append(w.history, history...)
	w.history = append(w.history, w.pos.Hash)
	w.state = state
	w.nodes, w.flushed = 0, 0
	w.halted = false
	w.orderer.Clear()
}

func (w *Worker) evaluate() int {
	return w.eval.Evaluate(w.pos)
}

// visit counts a node and, every pollInterval nodes, publishes the count
// and checks whether the search must stop.
func (w *Worker) visit() {
	w.nodes++
	if w.nodes&(pollInterval-1) != 0 {
		return
	}
	w.flush()
	if w.state.shouldStop() {
		w.halted = true
	}
}

// flush adds the unreported node count to the shared total.
func (w *Worker) flush() {
	total := w.state.nodes.Add(w.nodes - w.flushed)
	w.flushed = w.nodes
	if w.state.nodeLimit > 0 && total >= w.state.nodeLimit {
		w.state.requestStop()
	}
}

func (w *Worker) makeMove(m board.Move) board.UndoInfo {
	u := w.pos.MakeMove(m)
	w.history = append(w.history, w.pos.Hash)
	return u
}

func (w *Worker) unmakeMove(m board.Move, u board.UndoInfo) {
	w.history = w.history[:len(w.history)-1]
	w.pos.UnmakeMove(m, u)
}

// isDraw reports a fifty-move draw, a repetition of any earlier position
// since the last irreversible move, or a dead position. A checkmate
// delivered on the hundredth half-move stands over the fifty-move rule.
func (w *Worker) isDraw() bool {
	if w.pos.HalfMoveClock >= 100 {
		return !w.pos.InCheck() || w.pos.HasLegalMoves()
	}
	n := len(w.history)
	stop := max(n-1-w.pos.HalfMoveClock, 0)
	for i := n - 3; i >= stop; i -= 2 {
		if w.history[i] == w.pos.Hash {
			return true
		}
	}
	return w.pos.IsInsufficientMaterial()
}

// searchRoot searches this worker's share of the root moves to depth and
// returns the best one. A move that precedes the current best in
// generation order is searched with a window one point wider so that an
// exact tie is recognised and resolved in its favour.
func (w *Worker) searchRoot(moves []rootMove, depth int) (rootResult, error) {
	best := rootResult{score: -Infinity, index: -1}
	for _, rm := range moves {
		if w.state.shouldStop() {
			w.halted = true
			return rootResult{}, errIterationAborted
		}
		alpha := best.score
		if best.index >= 0 && rm.index < best.index {
			alpha--
		}
		u := w.makeMove(rm.move)
		score := -w.negamax(depth-1, 1, -Infinity, -alpha)
		w.unmakeMove(rm.move, u)
		if w.halted {
			w.flush()
			return rootResult{}, errIterationAborted
		}
		if score > best.score || (score == best.score && rm.index < best.index) {
			best = rootResult{
				move:  rm.move,
				index: rm.index,
				score: score,
				pv:    append([]board.Move{rm.move}, w.pv.line(1)...),
			}
		}
	}
	w.flush()
	return best, nil
}

// negamax is a fail-soft alpha-beta search of the current position.
func (w *Worker) negamax(depth, ply, alpha, beta int) int {
	w.pv.clear(ply)
	if ply >= MaxPly {
		return w.evaluate()
	}
	w.visit()
	if w.halted {
		return 0
	}
	if ply > 0 && w.isDraw() {
		return 0
	}
	if depth <= 0 {
		return w.quiescence(ply, 0, alpha, beta)
	}

	alphaOrig := alpha
	ttMove := board.NoMove
	if w.tt != nil {
		if e, ok := w.tt.Probe(w.pos.Hash); ok {
			ttMove = e.BestMove
			if score, ok := w.tt.Cutoff(e, depth, alpha, beta, ply); ok {
				return score
			}
		}
	}

	var ml board.MoveList
	w.pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		if w.pos.InCheck() {
			return MatedIn(ply)
		}
		return 0
	}

	var scores [board.MaxMoves]int
	w.orderer.ScoreMoves(w.pos, &ml, &scores, ply, ttMove)

	var quiets [board.MaxMoves]board.Move
	nq := 0
	best := -Infinity
	bestMove := board.NoMove

	for i := 0; i < ml.Len(); i++ {
		m := PickMove(&ml, &scores, i)
		u := w.makeMove(m)
		score := -w.negamax(depth-1, ply+1, -beta, -alpha)
		w.unmakeMove(m, u)
		if w.halted {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
				if alpha >= beta {
					if m.IsQuiet() {
						w.orderer.UpdateKillers(m, ply)
						w.orderer.UpdateHistory(w.pos.SideToMove, m, quiets[:nq], depth)
					}
					break
				}
			}
		}
		if m.IsQuiet() {
			quiets[nq] = m
			nq++
		}
	}

	if w.tt != nil {
		flag := TTExact
		switch {
		case best <= alphaOrig:
			flag = TTUpperBound
			bestMove = board.NoMove
		case best >= beta:
			flag = TTLowerBound
		}
		w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(best, ply), flag, bestMove)
	}
	return best
}

// quiescence resolves captures (and every evasion when in check) until
// the position is quiet or qply reaches the cap. Captures that lose
// material by static exchange are skipped.
func (w *Worker) quiescence(ply, qply, alpha, beta int) int {
	w.pv.clear(ply)
	if ply >= MaxPly {
		return w.evaluate()
	}
	w.visit()
	if w.halted {
		return 0
	}
	if ply > 0 && w.isDraw() {
		return 0
	}
	if qply >= w.qcap {
		return w.evaluate()
	}

	inCheck := w.pos.InCheck()
	var ml board.MoveList
	best := -Infinity
	if inCheck {
		w.pos.GenerateLegalMoves(&ml)
		if ml.Len() == 0 {
			return MatedIn(ply)
		}
	} else {
		best = w.evaluate()
		if best >= beta {
			return best
		}
		alpha = max(alpha, best)
		w.pos.GenerateCaptures(&ml)
	}

	var scores [board.MaxMoves]int
	w.orderer.ScoreMoves(w.pos, &ml, &scores, ply, board.NoMove)

	for i := 0; i < ml.Len(); i++ {
		m := PickMove(&ml, &scores, i)
		if !inCheck && SEE(w.pos, m) < 0 {
			continue
		}
		u := w.makeMove(m)
		score := -w.quiescence(ply+1, qply+1, -beta, -alpha)
		w.unmakeMove(m, u)
		if w.halted {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}
