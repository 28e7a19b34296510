package engine

import (
	"time"

	"github.com/hailam/goldfish/internal/board"
)

// UCILimits carries the time-control fields parsed from a UCI "go" command.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move, overrides the clock formula
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
	Ponder    bool             // ponder mode
}

// TimeManager converts UCI time-control limits into a single search-time
// budget, following the formula:
//
//	max    = max(1ms, time_left*0.95 - 1000ms)
//	budget = min(max, (max + (moves_to_go-1)*increment) / moves_to_go)
//
// moves_to_go defaults to 30 when the opponent clock is sudden-death (no
// "movestogo" was given), a fixed estimate rather than a decaying one since
// the formula itself already tightens the budget as time_left shrinks.
type TimeManager struct {
	budget    time.Duration
	startTime time.Time
}

func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

const defaultMovesToGo = 30

// Init computes the budget for the upcoming search and starts the clock.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.startTime = time.Now()

	if limits.MoveTime > 0 {
		tm.budget = limits.MoveTime
		return
	}

	if limits.Infinite || limits.Depth > 0 || limits.Nodes > 0 || limits.Time[us] <= 0 {
		tm.budget = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]
	mtg := limits.MovesToGo
	if mtg <= 0 {
		mtg = defaultMovesToGo
	}

	max := timeLeft*95/100 - time.Second
	if max < time.Millisecond {
		max = time.Millisecond
	}

	budget := (max + time.Duration(mtg-1)*inc) / time.Duration(mtg)
	if budget > max {
		budget = max
	}
	tm.budget = budget
}

// Elapsed returns the time elapsed since the search began.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Budget returns the computed search-time budget, used as the timer
// thread's timeout.
func (tm *TimeManager) Budget() time.Duration {
	return tm.budget
}

// ShouldStop reports whether the budget has been exhausted.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.budget
}
