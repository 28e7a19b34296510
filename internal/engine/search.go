package engine

import (
	"sync/atomic"

	"github.com/hailam/goldfish/internal/board"
	"github.com/hailam/goldfish/internal/tablebase"
)

// Search-space sentinels. Values and names follow the scale used throughout
// this engine: a signed 32-bit int has ample headroom above INFINITE.
const (
	Infinite           = 200000
	MateScore          = 100000
	MaxPly             = 128
	CheckmateThreshold = MateScore - MaxPly
	Draw               = 0
	NoValue            = 300000

	nullMoveReduction = 3
	iidDepthThreshold = 7
)

// IsCheckmateScore reports whether v represents a forced mate rather than a
// positional evaluation.
func IsCheckmateScore(v int) bool {
	a := v
	if a < 0 {
		a = -a
	}
	return a >= CheckmateThreshold && a <= MateScore
}

func clampBound(v, bound int) int {
	if v > bound {
		return bound
	}
	return v
}

// pvTable holds one bounded principal-variation array per ply: pv[ply] is
// the sequence of moves believed best from that ply onward.
type pvTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// update records that m improved alpha at ply, making pv[ply] = [m] ++
// pv[ply+1].
func (t *pvTable) update(ply int, m board.Move) {
	t.moves[ply][ply] = m
	for j := ply + 1; j < t.length[ply+1]; j++ {
		t.moves[ply][j] = t.moves[ply+1][j]
	}
	t.length[ply] = t.length[ply+1]
	if t.length[ply] <= ply {
		t.length[ply] = ply + 1
	}
}

func (t *pvTable) line(ply int) []board.Move {
	if ply >= MaxPly || t.length[ply] <= ply {
		return nil
	}
	return append([]board.Move(nil), t.moves[ply][ply:t.length[ply]]...)
}

// Searcher runs a single-threaded iterative-deepening alpha-beta search
// against one position. The controller builds one and reuses it for every
// search, never touching it from more than one goroutine at a time.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	killers *killerTable

	tb         tablebase.Prober
	probeDepth int

	nodes    uint64
	selDepth int
	pv       pvTable

	stop    *atomic.Bool
	aborted bool
}

// NewSearcher creates a searcher sharing the given transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{tt: tt, killers: newKillerTable(), probeDepth: 1}
}

// SetTablebase installs the oracle consulted for in-tree WDL probes once a
// node's remaining depth reaches probeDepth. A nil prober disables probing.
func (s *Searcher) SetTablebase(tb tablebase.Prober) {
	s.tb = tb
}

// SetTablebaseProbeDepth sets the minimum remaining depth at which the
// searcher consults the tablebase oracle rather than searching further.
func (s *Searcher) SetTablebaseProbeDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	s.probeDepth = depth
}

// SearchLimits bounds one call to Run. A zero MaxDepth/MaxNodes means
// unbounded on that dimension; time is enforced externally by the
// controller setting stop.
type SearchLimits struct {
	MaxDepth int
	MaxNodes uint64
}

// Run performs iterative deepening from depth 1 up to limits.MaxDepth (or
// MaxPly-1 if unset), reporting one Info per completed iteration and
// stopping as soon as stop is observed set. It returns the best move and a
// ponder move (the second PV entry, if any) from the last iteration that
// ran to completion, or the first root move and no ponder move if no
// iteration completed.
func (s *Searcher) Run(pos *board.Position, limits SearchLimits, stop *atomic.Bool, report func(Info)) (best, ponder board.Move) {
	s.pos = pos
	s.tt.NewSearch()
	s.killers.Clear()
	s.nodes = 0
	s.stop = stop
	s.aborted = false

	maxDepth := limits.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	rootMoves := pos.GenerateLegalMoves()
	if rootMoves.Len() == 0 {
		return board.NoMove, board.NoMove
	}

	root := board.NewRootMoveList(rootMoves)

	// Stop-condition short-circuit: with exactly one legal move there is
	// nothing the search can learn; report it and return immediately.
	if root.Len() == 1 {
		best = root.Get(0).Move
		s.nodes = 1
		if report != nil {
			report(Info{Depth: 1, Nodes: 1, PV: []board.Move{best}})
		}
		return best, board.NoMove
	}

	best, ponder = root.Get(0).Move, board.NoMove

	for depth := 1; depth <= maxDepth; depth++ {
		if stop.Load() || (limits.MaxNodes > 0 && s.nodes >= limits.MaxNodes) {
			break
		}

		s.selDepth = 0
		s.searchRoot(root, depth, -Infinite, Infinite)

		if s.aborted {
			break
		}

		root.SortDescending()
		best = root.Get(0).Move
		pv := root.Get(0).PV

		if report != nil {
			info := Info{Depth: depth, SelDepth: s.selDepth, Nodes: s.nodes, Score: root.Get(0).Score, PV: pv}
			if IsCheckmateScore(info.Score) {
				info.Mate = true
				info.MateIn = mateDistance(info.Score)
			}
			report(info)
		}

		if len(pv) > 1 {
			ponder = pv[1]
		} else {
			ponder = board.NoMove
		}
	}

	return best, ponder
}

// mateDistance converts a mate score into the signed number of full moves
// to mate, as reported by the UCI "score mate N" field.
func mateDistance(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -((MateScore + score + 1) / 2)
}

// checkAbort samples the stop flag periodically (not on every node — an
// atomic load on every single call would itself be a meaningful search-time
// cost) and latches s.aborted permanently once set.
func (s *Searcher) checkAbort() bool {
	if s.aborted {
		return true
	}
	if s.nodes&2047 == 0 && s.stop.Load() {
		s.aborted = true
	}
	return s.aborted
}

// searchRoot iterates the pre-sorted root move list at a fixed depth via
// PVS, updating each entry's score and PV in place.
func (s *Searcher) searchRoot(root *board.RootMoveList, depth, alpha, beta int) {
	pos := s.pos
	us := pos.SideToMove

	for i := 0; i < root.Len(); i++ {
		if s.aborted {
			return
		}
		rm := root.Get(i)
		m := rm.Move

		pos.MakeMove(m)
		if pos.IsSquareAttacked(pos.KingSquare[us], pos.SideToMove) {
			pos.UndoMove(m)
			continue
		}

		var v int
		if i > 0 {
			v = -s.search(depth-1, -alpha-1, -alpha, 1, true)
			if !s.aborted && v > alpha {
				v = -s.search(depth-1, -beta, -alpha, 1, true)
			}
		} else {
			v = -s.search(depth-1, -beta, -alpha, 1, true)
		}
		pos.UndoMove(m)

		if s.aborted {
			return
		}

		rm.Score = v
		if v > alpha {
			alpha = v
			rm.PV = append([]board.Move{m}, s.pv.line(1)...)
		} else if rm.PV == nil {
			rm.PV = []board.Move{m}
		}
	}
}

// search is the main fail-soft negamax recursion with alpha-beta pruning.
// allowNull is false immediately after a null move was just made, so two
// null moves never happen back to back.
func (s *Searcher) search(depth, alpha, beta, ply int, allowNull bool) int {
	pos := s.pos

	if ply > s.selDepth {
		s.selDepth = ply
	}
	s.pv.length[ply] = ply
	alphaOrig := alpha

	// 2. TT probe.
	var ttMove board.Move
	if entry, ok := s.tt.Probe(pos.Hash); ok {
		ttMove = entry.BestMove
		if int(entry.Depth) >= depth {
			v := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag() {
			case TTExact:
				return v
			case TTLowerBound:
				if v > alpha {
					alpha = v
					s.pv.update(ply, entry.BestMove)
				}
			case TTUpperBound:
				if v < beta {
					beta = v
				}
			}
			if alpha >= beta {
				return v
			}
		}
	}

	// 3. Quiescence.
	if depth <= 0 {
		return s.quiescent(alpha, beta, ply)
	}

	// 4. Node accounting, abort, max-ply.
	s.nodes++
	if s.checkAbort() || ply >= MaxPly {
		return Evaluate(pos)
	}

	// 5. Draw detection.
	if ply > 0 && (pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() || pos.IsRepetition()) {
		return Draw
	}

	// 5b. Tablebase probe: once a node is shallow enough and few enough
	// pieces remain, trust the oracle's WDL verdict instead of searching on.
	if ply > 0 && s.tb != nil && s.tb.Available() && depth >= s.probeDepth &&
		tablebase.CountPieces(pos) <= s.tb.MaxPieces() {
		if res := s.tb.Probe(pos); res.Found {
			v := tablebase.WDLToScore(res.WDL, ply)
			var flag TTFlag
			switch {
			case v >= beta:
				flag = TTLowerBound
			case v <= alpha:
				flag = TTUpperBound
			default:
				flag = TTExact
			}
			s.tt.Store(pos.Hash, depth, AdjustScoreToTT(v, ply), flag, board.NoMove)
			if flag == TTExact {
				return v
			}
			if flag == TTLowerBound && v > alpha {
				alpha = v
			} else if flag == TTUpperBound && v < beta {
				beta = v
			}
			if alpha >= beta {
				return v
			}
		}
	}

	// 6. Mate-distance pruning.
	if a := -MateScore + ply; a > alpha {
		alpha = a
	}
	if b := MateScore - (ply + 1); b < beta {
		beta = b
	}
	if alpha >= beta {
		return alpha
	}

	inCheck := pos.InCheck()

	// 7. Null-move pruning.
	if allowNull && !inCheck && beta < CheckmateThreshold && pos.HasNonPawnMaterial() && Evaluate(pos) >= beta {
		pos.MakeNullMove()
		v := -s.search(depth-nullMoveReduction, -beta, -beta+1, ply+1, false)
		pos.UndoNullMove()

		if s.aborted {
			return 0
		}
		if v >= beta {
			stored := v
			if IsCheckmateScore(stored) {
				stored = beta
			}
			rdepth := depth - nullMoveReduction + 1
			if rdepth < 0 {
				rdepth = 0
			}
			s.tt.Store(pos.Hash, rdepth, AdjustScoreToTT(clampBound(stored, beta), ply), TTLowerBound, board.NoMove)
			return v
		}
	}

	// 8. Check extension.
	if inCheck {
		depth++
	}

	// 9. Generate pseudo-legal moves.
	moves := pos.GeneratePseudoLegalMoves()

	// 10. Internal iterative deepening: no TT move and deep enough to be
	// worth a shallow search just to seed move ordering.
	if ttMove == board.NoMove && depth > iidDepthThreshold {
		s.search(depth-iidDepthThreshold, alpha, beta, ply, allowNull)
		if s.aborted {
			return 0
		}
		if entry, ok := s.tt.Probe(pos.Hash); ok {
			ttMove = entry.BestMove
		}
	}
	s.killers.orderMoves(moves, ply, ttMove)

	us := pos.SideToMove
	bestScore := -Infinite
	bestMove := board.NoMove
	legalTried := 0

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		pos.MakeMove(m)
		if pos.IsSquareAttacked(pos.KingSquare[us], pos.SideToMove) {
			pos.UndoMove(m)
			continue
		}
		legalTried++

		var v int
		if legalTried > 1 && depth > 1 {
			v = -s.search(depth-1, -alpha-1, -alpha, ply+1, true)
			if !s.aborted && v > alpha {
				v = -s.search(depth-1, -beta, -alpha, ply+1, true)
			}
		} else {
			v = -s.search(depth-1, -beta, -alpha, ply+1, true)
		}
		pos.UndoMove(m)

		if s.aborted {
			return 0
		}

		if v > bestScore {
			bestScore = v
			bestMove = m
			if v > alpha {
				alpha = v
				s.pv.update(ply, m)
			}
		}

		if v >= beta {
			if m.IsQuiet() {
				s.killers.Update(ply, m)
			}
			break
		}
	}

	// 12. No legal move tried: checkmate or stalemate.
	if legalTried == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return Draw
	}

	// 13. Bound classification and TT store.
	var flag TTFlag
	switch {
	case bestScore <= alphaOrig:
		flag = TTUpperBound
	case bestScore >= beta:
		flag = TTLowerBound
	default:
		flag = TTExact
	}
	s.tt.Store(pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	return bestScore
}

// quiescent explores only captures (all evasions when in check) past the
// main search's horizon, to avoid misjudging positions mid-exchange.
func (s *Searcher) quiescent(alpha, beta, ply int) int {
	pos := s.pos

	if ply > s.selDepth {
		s.selDepth = ply
	}
	s.pv.length[ply] = ply

	s.nodes++
	if s.checkAbort() || ply >= MaxPly {
		return Evaluate(pos)
	}
	if pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() || pos.IsRepetition() {
		return Draw
	}

	inCheck := pos.InCheck()
	best := -Infinite

	if !inCheck {
		best = Evaluate(pos)
		if best >= beta {
			return best
		}
		if best > alpha {
			alpha = best
		}
		if best+(2*QueenValue-PawnValue) < alpha {
			return best
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = pos.GenerateLegalMoves()
	} else {
		moves = pos.GenerateCaptures()
	}
	moves.RateMVVLVA()
	moves.SortDescending()

	tried := 0
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		pos.MakeMove(m)
		tried++
		v := -s.quiescent(-beta, -alpha, ply+1)
		pos.UndoMove(m)

		if s.aborted {
			return 0
		}

		if v > best {
			best = v
			if v > alpha {
				alpha = v
				s.pv.update(ply, m)
			}
		}
		if v >= beta {
			return v
		}
	}

	if inCheck && tried == 0 {
		return -MateScore + ply
	}

	return best
}
