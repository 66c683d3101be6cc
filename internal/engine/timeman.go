package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Limits describes one search request. Zero fields fall back to the
// engine's Config.
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int              // 0 means sudden death
	MoveTime  time.Duration    // fixed time for this move, overrides the clock
	Depth     int
	Nodes     uint64
	Infinite  bool // ignore the configured time and node budgets
}

func (l Limits) hasClock(us board.Color) bool {
	return l.Time[us] > 0
}

// TimeManager turns Limits into a soft (optimum) and hard (maximum)
// deadline for one search.
type TimeManager struct {
	baseOptimum time.Duration
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts the clock. ply is the game ply, used to guess how many
// moves remain in sudden death. A zero maximum means no time limit.
func (tm *TimeManager) Init(limits Limits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.optimumTime, tm.maximumTime = 0, 0

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		tm.baseOptimum = limits.MoveTime
		return
	}
	if limits.Infinite || !limits.hasClock(us) {
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}

	base := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = base
	if ply < 8 {
		tm.optimumTime = base * 85 / 100
	}

	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)
	tm.maximumTime = min(tm.maximumTime, timeLeft*95/100)

	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, 50*time.Millisecond)
	tm.optimumTime = min(tm.optimumTime, tm.maximumTime)
	tm.baseOptimum = tm.optimumTime
}

// Limited reports whether a deadline is in force.
func (tm *TimeManager) Limited() bool {
	return tm.maximumTime > 0
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the hard limit.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop reports whether the hard limit has passed.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Limited() && tm.Elapsed() >= tm.maximumTime
}

// PastOptimum reports whether the soft limit has passed.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Limited() && tm.Elapsed() >= tm.optimumTime
}

// Adjust rescales the soft limit from the best move's history: stability
// is the number of iterations it has survived, changes the number of
// times it changed in the last few. A fixed move time is never adjusted.
func (tm *TimeManager) Adjust(stability, changes int, fixed bool) {
	if fixed || !tm.Limited() {
		return
	}
	pct := 100
	switch {
	case changes >= 3:
		pct = 200
	case changes >= 2:
		pct = 150
	case stability >= 6:
		pct = 40
	case stability >= 4:
		pct = 60
	case stability >= 2:
		pct = 80
	}
	tm.optimumTime = min(tm.baseOptimum*time.Duration(pct)/100, tm.maximumTime)
}
