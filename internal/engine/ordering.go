package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT or previous-iteration move
	GoodCaptureBase = 1000000  // SEE >= 0
	PromotionScore  = 950000   // quiet queen promotion
	KillerScore1    = 900000
	KillerScore2    = 800000
	BadCaptureBase  = -1000000 // SEE < 0

	historyMax = 400000
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores,
// indexed [victim][attacker].
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer keeps the killer and history tables of one worker.
type MoveOrderer struct {
	killers [MaxPly + 1][2]board.Move
	history [2][64][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and ages the history for a new search.
func (mo *MoveOrderer) Clear() {
	mo.killers = [MaxPly + 1][2]board.Move{}
	for c := range mo.history {
		for i := range mo.history[c] {
			for j := range mo.history[c][i] {
				mo.history[c][i][j] /= 2
			}
		}
	}
}

// Reset forgets everything, including history.
func (mo *MoveOrderer) Reset() {
	*mo = MoveOrderer{}
}

// ScoreMoves fills scores[i] with the ordering key of ml[i].
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, ml *board.MoveList, scores *[board.MaxMoves]int, ply int, ttMove board.Move) {
	for i := 0; i < ml.Len(); i++ {
		scores[i] = mo.scoreMove(pos, ml.Get(i), ply, ttMove)
	}
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}
	if m.IsCapture() {
		victim := m.Captured()
		v := mvvLva[victim][m.Piece()]
		if m.IsPromotion() {
			v += pieceValues[m.Promotion()] / 10
		}
		if SEE(pos, m) >= 0 {
			return GoodCaptureBase + v*1000
		}
		return BadCaptureBase + v
	}
	if m.IsPromotion() {
		if m.Promotion() == board.Queen {
			return PromotionScore
		}
		return BadCaptureBase + int(m.Promotion())
	}
	if ply <= MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}
	return mo.history[pos.SideToMove][m.From()][m.To()]
}

// PickMove moves the best-scored remaining move to index start and
// returns it. Ties go to the lower index.
func PickMove(ml *board.MoveList, scores *[board.MaxMoves]int, start int) board.Move {
	best := start
	for i := start + 1; i < ml.Len(); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if best != start {
		ml.Swap(start, best)
		scores[start], scores[best] = scores[best], scores[start]
	}
	return ml.Get(start)
}

// UpdateKillers records a quiet move that caused a beta cutoff at ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply > MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards the cutoff move and penalises the quiet moves
// tried before it.
func (mo *MoveOrderer) UpdateHistory(side board.Color, best board.Move, tried []board.Move, depth int) {
	bonus := min(depth*depth, 400)
	mo.addHistory(side, best, bonus)
	for _, m := range tried {
		if m != best {
			mo.addHistory(side, m, -bonus)
		}
	}
}

// addHistory applies a gravity update that keeps entries within
// +/-historyMax.
func (mo *MoveOrderer) addHistory(side board.Color, m board.Move, bonus int) {
	h := &mo.history[side][m.From()][m.To()]
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	*h += bonus*32 - *h*abs/(historyMax/32)
	*h = max(min(*h, historyMax), -historyMax)
}

// HistoryScore returns the history value of a quiet move.
func (mo *MoveOrderer) HistoryScore(side board.Color, m board.Move) int {
	return mo.history[side][m.From()][m.To()]
}
