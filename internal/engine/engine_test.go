package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/hailam/goldfish/internal/board"
)

func TestSearcherFindsMove(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(4)
	s := NewSearcher(tt)

	stop := &atomic.Bool{}
	var lastInfo Info
	best, _ := s.Run(pos, SearchLimits{MaxDepth: 4}, stop, func(info Info) {
		lastInfo = info
	})

	if best == board.NoMove {
		t.Fatal("expected a move from the starting position")
	}
	if lastInfo.Depth == 0 {
		t.Error("expected at least one depth report")
	}
}

func TestSearcherSingleLegalMoveShortCircuits(t *testing.T) {
	// Black king on a8 has exactly one legal move: Kb8.
	pos, err := board.ParseFEN("k7/8/1K6/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(4)
	s := NewSearcher(tt)
	stop := &atomic.Bool{}

	reports := 0
	best, _ := s.Run(pos, SearchLimits{MaxDepth: 20}, stop, func(Info) { reports++ })

	if best == board.NoMove {
		t.Fatal("expected the single legal move to be returned")
	}
	if reports != 1 {
		t.Errorf("expected exactly one info report for a single-legal-move position, got %d", reports)
	}
}

func TestSearcherRespectsStopFlag(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(4)
	s := NewSearcher(tt)

	stop := &atomic.Bool{}
	stop.Store(true)

	best, _ := s.Run(pos, SearchLimits{MaxDepth: 40}, stop, nil)
	if best == board.NoMove {
		t.Error("expected a legal root move even when aborted immediately")
	}
}

func TestSearcherCheckmateInOne(t *testing.T) {
	// White to move, Qh5xf7 mates (the c4 bishop guards f7).
	pos, err := board.ParseFEN("rnbqkbnr/pppp1ppp/8/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 2 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(4)
	s := NewSearcher(tt)
	stop := &atomic.Bool{}

	var lastInfo Info
	s.Run(pos, SearchLimits{MaxDepth: 3}, stop, func(info Info) { lastInfo = info })

	if !lastInfo.Mate || lastInfo.MateIn != 1 {
		t.Errorf("expected mate in 1, got mate=%v mateIn=%d score=%d", lastInfo.Mate, lastInfo.MateIn, lastInfo.Score)
	}
}

func TestControllerStartStop(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(4)
	c := NewController(tt)

	done := make(chan Result, 1)
	if err := c.Start(pos, SearchLimits{MaxDepth: 40}, nil, func(r Result) { done <- r }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := c.Start(pos, SearchLimits{MaxDepth: 1}, nil, nil); err != ErrSearchInFlight {
		t.Errorf("expected ErrSearchInFlight from a second Start, got %v", err)
	}

	c.Stop()
	c.Wait()

	select {
	case r := <-done:
		if r.Best == board.NoMove {
			t.Error("expected a best move after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search did not report a result after Stop")
	}

	if c.IsRunning() {
		t.Error("expected controller to be idle after Wait")
	}
}

func TestTimeManagerBudgetFormula(t *testing.T) {
	tm := NewTimeManager()
	limits := UCILimits{
		Time:      [2]time.Duration{30 * time.Second, 30 * time.Second},
		Inc:       [2]time.Duration{0, 0},
		MovesToGo: 30,
	}
	tm.Init(limits, board.White, 0)

	// max = max(1ms, 30s*0.95 - 1s) = 27.5s; budget = max/30 ~= 916ms
	if tm.Budget() <= 0 || tm.Budget() > time.Second {
		t.Errorf("unexpected budget: %v", tm.Budget())
	}
}

func TestPerft(t *testing.T) {
	pos := board.NewPosition()
	cases := []struct {
		depth int
		nodes uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
	}
	for _, c := range cases {
		if got := Perft(pos, c.depth); got != c.nodes {
			t.Errorf("Perft(%d) = %d, want %d", c.depth, got, c.nodes)
		}
	}
}
