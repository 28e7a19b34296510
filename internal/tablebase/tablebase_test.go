package tablebase

import (
	"testing"

	"github.com/hailam/goldfish/internal/board"
	"github.com/hailam/goldfish/internal/storage"
)

func TestNoopProber(t *testing.T) {
	prober := NoopProber{}

	if prober.Available() {
		t.Error("NoopProber should not be available")
	}
	if prober.MaxPieces() != 0 {
		t.Errorf("NoopProber MaxPieces should be 0, got %d", prober.MaxPieces())
	}

	pos := board.NewPosition()
	if result := prober.Probe(pos); result.Found {
		t.Error("NoopProber should not find anything")
	}
	if rootResult := prober.ProbeRoot(pos); rootResult.Found {
		t.Error("NoopProber ProbeRoot should not find anything")
	}
}

func TestCountPieces(t *testing.T) {
	pos := board.NewPosition()
	if count := CountPieces(pos); count != 32 {
		t.Errorf("starting position should have 32 pieces, got %d", count)
	}
}

func TestWDLToScore(t *testing.T) {
	tests := []struct {
		wdl      WDL
		ply      int
		positive bool
	}{
		{WDLWin, 0, true},
		{WDLWin, 10, true},
		{WDLCursedWin, 0, true},
		{WDLDraw, 0, false},
		{WDLBlessedLoss, 0, false},
		{WDLLoss, 0, false},
	}

	for _, tc := range tests {
		score := WDLToScore(tc.wdl, tc.ply)
		isPositive := score > 0

		if tc.positive && !isPositive {
			t.Errorf("WDL %d at ply %d should give positive score, got %d", tc.wdl, tc.ply, score)
		}
		if !tc.positive && tc.wdl != WDLDraw && isPositive {
			t.Errorf("WDL %d at ply %d should give non-positive score, got %d", tc.wdl, tc.ply, score)
		}
	}
}

// stubProber lets the cache-wrapping behavior of CachedProber be tested
// without a network round trip: it counts how many times Probe is called.
type stubProber struct {
	calls int
	want  ProbeResult
}

func (s *stubProber) Probe(pos *board.Position) ProbeResult {
	s.calls++
	return s.want
}

func (s *stubProber) ProbeRoot(pos *board.Position) RootResult {
	return RootResult{}
}

func (s *stubProber) MaxPieces() int { return 7 }
func (s *stubProber) Available() bool { return true }

func TestCachedProberHitsStoreOnSecondProbe(t *testing.T) {
	store, err := storage.OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("storage.OpenAt failed: %v", err)
	}
	defer store.Close()

	inner := &stubProber{want: ProbeResult{Found: true, WDL: WDLWin, DTZ: 12}}
	cp := NewCachedProber(inner, store)

	pos := board.NewPosition()

	first := cp.Probe(pos)
	if !first.Found || first.WDL != WDLWin || first.DTZ != 12 {
		t.Fatalf("unexpected first probe result: %+v", first)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner prober called once, got %d", inner.calls)
	}

	second := cp.Probe(pos)
	if second != first {
		t.Errorf("second probe result %+v differs from first %+v", second, first)
	}
	if inner.calls != 1 {
		t.Errorf("expected cached probe to skip inner prober, but it was called %d times", inner.calls)
	}

	cp.Clear()
	if _, ok := store.Get(cacheKey(pos.Hash)); ok {
		t.Error("expected Clear to evict the cached entry")
	}
}
