package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hailam/goldfish/internal/board"
	"github.com/hailam/goldfish/internal/tablebase"
)

// ErrSearchInFlight is returned by Start when a previous search has not yet
// released its finished-ack.
var ErrSearchInFlight = errors.New("engine: search already running")

// Info is one progress report from the worker thread, forwarded to the
// front end.
type Info struct {
	Depth    int
	SelDepth int
	Nodes    uint64
	Elapsed  time.Duration
	NPS      uint64
	Score    int
	Mate     bool
	MateIn   int
	PV       []board.Move
	HashFull int
}

// Result is what a completed (or aborted mid-flight) search produced.
type Result struct {
	Best   board.Move
	Ponder board.Move
	Nodes  uint64
	Depth  int
}

type searchRequest struct {
	pos      *board.Position
	limits   SearchLimits
	stop     *atomic.Bool
	runAck   chan struct{}
	stopAck  chan struct{}
	resultCh chan Result
}

// Controller owns exactly one worker goroutine and, while a search is
// active, one timer goroutine — mirroring the three-thread model (front
// end, worker, timer) of the engine it drives. All of start/stop/ponderhit
// are called from the front end; the worker and timer are otherwise
// invisible to callers.
type Controller struct {
	tt       *TranspositionTable
	searcher *Searcher
	tb       tablebase.Prober

	wakeup chan *searchRequest

	running     atomic.Bool
	stop        *atomic.Bool
	finishedAck chan struct{}

	OnInfo func(Info)
}

// NewController creates a controller and starts its worker goroutine. The
// worker blocks on wakeup until the first Start call.
func NewController(tt *TranspositionTable) *Controller {
	c := &Controller{
		tt:       tt,
		searcher: NewSearcher(tt),
		wakeup:   make(chan *searchRequest),
	}
	go c.workerLoop()
	return c
}

// SetTablebase installs the probing oracle the worker consults once a node
// is shallow enough and few enough pieces remain on the board.
func (c *Controller) SetTablebase(tb tablebase.Prober) {
	c.tb = tb
	c.searcher.SetTablebase(tb)
}

// SetTablebaseProbeDepth sets the minimum remaining depth at which the
// worker consults the tablebase oracle rather than searching deeper.
func (c *Controller) SetTablebaseProbeDepth(depth int) {
	c.searcher.SetTablebaseProbeDepth(depth)
}

// workerLoop is the single persistent worker thread: it suspends on wakeup
// when idle and runs exactly one search per received request.
func (c *Controller) workerLoop() {
	for req := range c.wakeup {
		close(req.runAck)

		startTime := time.Now()
		var lastInfo Info
		best, ponder := c.searcher.Run(req.pos, req.limits, req.stop, func(info Info) {
			lastInfo = info
			elapsed := time.Since(startTime)
			info.Elapsed = elapsed
			if elapsed > 0 {
				info.NPS = uint64(float64(info.Nodes) / elapsed.Seconds())
			}
			info.HashFull = c.tt.HashFull()
			if c.OnInfo != nil {
				c.OnInfo(info)
			}
		})
		_ = lastInfo

		close(req.stopAck)
		req.resultCh <- Result{Best: best, Ponder: ponder, Nodes: lastInfo.Nodes, Depth: lastInfo.Depth}
		close(c.finishedAck)
	}
}

// Start begins a search on a private copy of pos. It returns once the
// worker has begun its iterative-deepening loop (the run-ack), not once the
// search has completed; the final result arrives via onDone. A time-managed
// search spawns the auxiliary timer thread, joined automatically when the
// budget elapses or Stop is called first.
func (c *Controller) Start(pos *board.Position, limits SearchLimits, tm *TimeManager, onDone func(Result)) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrSearchInFlight
	}

	stop := &atomic.Bool{}
	c.stop = stop
	c.finishedAck = make(chan struct{})

	req := &searchRequest{
		pos:      pos.Copy(),
		limits:   limits,
		stop:     stop,
		runAck:   make(chan struct{}),
		stopAck:  make(chan struct{}),
		resultCh: make(chan Result, 1),
	}

	if tm != nil {
		go func() {
			budget := tm.Budget()
			if budget <= 0 || budget >= time.Hour {
				return
			}
			timer := time.NewTimer(budget)
			defer timer.Stop()
			select {
			case <-timer.C:
				stop.Store(true)
			case <-req.stopAck:
			}
		}()
	}

	go func() {
		result := <-req.resultCh
		c.running.Store(false)
		if onDone != nil {
			onDone(result)
		}
	}()

	c.wakeup <- req
	<-req.runAck
	return nil
}

// Stop requests cancellation of the active search by flipping the
// cooperative abort flag; it returns immediately rather than waiting for
// the stop-ack. Call Wait afterward to block until the worker has actually
// unwound. A no-op if no search is running.
func (c *Controller) Stop() {
	if !c.running.Load() || c.stop == nil {
		return
	}
	c.stop.Store(true)
}

// Wait blocks until the active search has fully finished and released its
// finished-ack, after which a new Start is permitted. A no-op if idle.
func (c *Controller) Wait() {
	if ack := c.finishedAck; ack != nil {
		<-ack
	}
}

// PonderHit signals that the move being pondered was actually played. This
// engine never launches a distinct ponder search (pondering on arbitrary
// moves is out of scope), so ponderhit has nothing to transition: whatever
// search is already running simply continues under normal time control.
func (c *Controller) PonderHit() {}

// IsRunning reports whether a search is currently in flight.
func (c *Controller) IsRunning() bool {
	return c.running.Load()
}

// Clear resets the transposition table for a new game. Killer slots are
// not touched here; Run clears them at the start of every search.
func (c *Controller) Clear() {
	c.tt.Clear()
}

// Perft performs a perft test (debugging aid for move generation), with no
// dependence on search state.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		pos.MakeMove(m)
		nodes += Perft(pos, depth-1)
		pos.UndoMove(m)
	}
	return nodes
}
