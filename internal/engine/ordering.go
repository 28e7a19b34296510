package engine

import "github.com/hailam/goldfish/internal/board"

// Move ordering priorities. The TT move and killer moves are injected via
// MoveList.AddKiller with these artificially high scores so they sort ahead
// of anything MVV/LVA rates, regardless of actual capture value.
const (
	ttMoveScore  = 1 << 30
	killerScore1 = 1 << 29
	killerScore2 = 1<<29 - 1
)

// killerTable holds two killer slots per ply: quiet moves that caused a
// beta cutoff, tried early in sibling nodes before falling back to MVV/LVA.
type killerTable struct {
	moves [MaxPly][2]board.Move
}

func newKillerTable() *killerTable {
	return &killerTable{}
}

// Clear resets all killer slots for a new search.
func (k *killerTable) Clear() {
	for i := range k.moves {
		k.moves[i][0] = board.NoMove
		k.moves[i][1] = board.NoMove
	}
}

// Update records a quiet move that caused a beta cutoff at ply.
func (k *killerTable) Update(ply int, m board.Move) {
	if ply >= MaxPly || m.IsCapture() {
		return
	}
	if k.moves[ply][0] == m {
		return
	}
	k.moves[ply][1] = k.moves[ply][0]
	k.moves[ply][0] = m
}

// orderMoves rates a move list by MVV/LVA, then boosts the TT move and the
// two killers for this ply above any capture score, and sorts descending.
// This is the full ordering discipline the search uses: TT move first,
// killers next, MVV/LVA-rated captures after, unscored quiet moves last.
func (k *killerTable) orderMoves(ml *board.MoveList, ply int, ttMove board.Move) {
	ml.RateMVVLVA()
	if ttMove != board.NoMove {
		ml.AddKiller(ttMove, ttMoveScore)
	}
	if ply < MaxPly {
		if k.moves[ply][0] != board.NoMove {
			ml.AddKiller(k.moves[ply][0], killerScore1)
		}
		if k.moves[ply][1] != board.NoMove {
			ml.AddKiller(k.moves[ply][1], killerScore2)
		}
	}
	ml.SortDescending()
}
