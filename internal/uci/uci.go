package uci

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/goldfish/internal/board"
	"github.com/hailam/goldfish/internal/engine"
	"github.com/hailam/goldfish/internal/tablebase"
)

const (
	engineName   = "Goldfish"
	engineAuthor = "Goldfish Contributors"
)

// UCI implements the Universal Chess Interface protocol on top of a
// Controller. One UCI instance owns one position and the single Controller
// driving search against it.
type UCI struct {
	controller *engine.Controller
	tt         *engine.TranspositionTable
	position   *board.Position

	syzygyPath       string
	syzygyProbeDepth int
	syzygyProber     *tablebase.SyzygyProber

	profileFile *os.File
}

// New creates a UCI handler around a freshly constructed controller sharing
// the given transposition table.
func New(tt *engine.TranspositionTable) *UCI {
	c := engine.NewController(tt)
	u := &UCI{
		controller:       c,
		tt:               tt,
		position:         board.NewPosition(),
		syzygyProbeDepth: 1,
	}
	c.OnInfo = u.sendInfo
	return u
}

// Run reads commands from stdin until "quit" or EOF.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "ponderhit":
			u.controller.PonderHit()
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		case "bench":
			u.handleBench(args)
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Printf("id name %s\n", engineName)
	fmt.Printf("id author %s\n", engineAuthor)
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 1 max 4096")
	fmt.Println("option name SyzygyPath type string default <empty>")
	fmt.Println("option name SyzygyProbeDepth type spin default 1 min 1 max 100")
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.waitIfSearching()
	u.controller.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and applies one of:
//
//	position startpos
//	position startpos moves e2e4 e7e5
//	position fen <fen>
//	position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.waitIfSearching()

	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				break
			}
		}
		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid FEN: %v\n", err)
			return
		}
		u.position = pos
		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := parseMove(u.position, moveStr)
			if move == board.NoMove {
				fmt.Fprintf(os.Stderr, "info string invalid move: %s\n", moveStr)
				return
			}
			u.position.MakeMove(move)
		}
	}
}

// parseMove converts a UCI long-algebraic move string to a legal board.Move
// in pos, or board.NoMove if it names no legal move.
func parseMove(pos *board.Position, moveStr string) board.Move {
	if len(moveStr) < 4 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')

	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == from && m.To() == to {
			if promo != 0 {
				if m.IsPromotion() && m.Promotion() == promo {
					return m
				}
			} else if !m.IsPromotion() {
				return m
			}
		}
	}
	return board.NoMove
}

// goOptions holds parsed "go" command arguments.
type goOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
	Ponder    bool
}

func parseGoOptions(args []string) goOptions {
	var opts goOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				opts.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "ponder":
			opts.Ponder = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return opts
}

// handleGo starts a search, configuring its limits and time budget from the
// parsed options, and prints "bestmove" once the controller reports a result.
func (u *UCI) handleGo(args []string) {
	opts := parseGoOptions(args)

	limits := engine.SearchLimits{MaxDepth: opts.Depth}
	if opts.Nodes > 0 {
		limits.MaxNodes = opts.Nodes
	}

	tm := engine.NewTimeManager()
	uciLimits := engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
		Depth:     opts.Depth,
		Nodes:     opts.Nodes,
		Infinite:  opts.Infinite,
		Ponder:    opts.Ponder,
	}
	tm.Init(uciLimits, u.position.SideToMove, 0)

	err := u.controller.Start(u.position, limits, tm, func(r engine.Result) {
		if r.Best == board.NoMove {
			fmt.Println("bestmove 0000")
			return
		}
		if r.Ponder != board.NoMove {
			fmt.Printf("bestmove %s ponder %s\n", r.Best.String(), r.Ponder.String())
		} else {
			fmt.Printf("bestmove %s\n", r.Best.String())
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string %v\n", err)
	}
}

// sendInfo renders one Info report in UCI "info ..." line format.
func (u *UCI) sendInfo(info engine.Info) {
	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	if info.SelDepth > 0 {
		parts = append(parts, fmt.Sprintf("seldepth %d", info.SelDepth))
	}

	if info.Mate {
		parts = append(parts, fmt.Sprintf("score mate %d", info.MateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Elapsed.Milliseconds()))
	if info.NPS > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", info.NPS))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		moves := make([]string, len(info.PV))
		for i, m := range info.PV {
			moves[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(moves, " "))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// handleStop requests cancellation and blocks until the worker has unwound
// and the pending bestmove has been printed.
func (u *UCI) handleStop() {
	u.controller.Stop()
	u.controller.Wait()
}

func (u *UCI) waitIfSearching() {
	if u.controller.IsRunning() {
		u.controller.Stop()
		u.controller.Wait()
	}
}

func (u *UCI) handleQuit() {
	u.waitIfSearching()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
	}
	os.Exit(0)
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err == nil && mb >= 1 {
			u.waitIfSearching()
			u.tt.Resize(mb)
		}
	case "syzygypath":
		u.syzygyPath = value
		u.initSyzygy()
	case "syzygyprobedepth":
		depth, err := strconv.Atoi(value)
		if err == nil && depth >= 1 {
			u.syzygyProbeDepth = depth
			u.controller.SetTablebaseProbeDepth(depth)
		}
	case "cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			u.profileFile = nil
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "info string failed to create profile: %v\n", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				fmt.Fprintf(os.Stderr, "info string failed to start profile: %v\n", err)
				return
			}
			u.profileFile = f
		}
	}
}

// initSyzygy installs (or reinstalls) the tablebase prober once a path has
// been configured via setoption.
func (u *UCI) initSyzygy() {
	if u.syzygyPath == "" {
		return
	}
	u.syzygyProber = tablebase.NewSyzygyProber(u.syzygyPath)
	u.controller.SetTablebase(u.syzygyProber)
	u.controller.SetTablebaseProbeDepth(u.syzygyProbeDepth)
}

// handlePerft runs a perft node count from the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

// benchPositions is a small fixed suite used by the "bench" command to
// produce a reproducible node count and NPS figure for engine-to-engine
// comparison, independent of any clock or opponent.
var benchPositions = []string{
	"startpos",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"rnbqkb1r/pp1p1ppp/4pn2/2p5/2PP4/2N5/PP2PPPP/R1BQKBNR w KQkq - 0 4",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2",
}

// handleBench runs a fixed-depth search over a small position suite and
// reports total nodes and aggregate NPS, the standard UCI "bench" contract.
func (u *UCI) handleBench(args []string) {
	depth := 8
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	u.controller.Clear()

	var totalNodes uint64
	start := time.Now()

	for _, fenOrStart := range benchPositions {
		var pos *board.Position
		if fenOrStart == "startpos" {
			pos = board.NewPosition()
		} else {
			p, err := board.ParseFEN(fenOrStart)
			if err != nil {
				continue
			}
			pos = p
		}

		done := make(chan engine.Result, 1)
		err := u.controller.Start(pos, engine.SearchLimits{MaxDepth: depth}, nil, func(r engine.Result) {
			done <- r
		})
		if err != nil {
			continue
		}
		r := <-done
		totalNodes += r.Nodes
	}

	elapsed := time.Since(start)
	var nps float64
	if elapsed > 0 {
		nps = float64(totalNodes) / elapsed.Seconds()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Total time (ms) : %d\n", elapsed.Milliseconds())
	fmt.Fprintf(os.Stderr, "Nodes searched  : %d\n", totalNodes)
	fmt.Fprintf(os.Stderr, "Nodes/second    : %.0f\n", nps)
}
