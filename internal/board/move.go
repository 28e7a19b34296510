package board

import "fmt"

// MoveType enumerates the kind of move a Move value encodes. Mirrors the
// Goldfish C++ engine's MoveType (original_source/include/movetype.hpp):
// a move is either a normal step, a double pawn push, a promotion, an en
// passant capture or a castling move.
type MoveType uint8

const (
	Normal MoveType = iota
	PawnDouble
	PawnPromotion
	EnPassantMove
	CastlingMove
	noMoveType
)

// Move packs a complete, immutable move description into a single 32-bit
// value: move-type, origin square, target square, origin piece, captured
// piece (or NoPiece), and promotion piece type (or NoPieceType). The layout
// is the same idea as the Goldfish C++ engine's packed int Move
// (original_source/include/move.hpp), widened to a Go uint32 and adapted to
// the 0..63 Little-Endian Rank-File square encoding used throughout this
// package (see square.go) — one of the two encodings the source mixes; this
// port picks the 64-square one and keeps every move field consistent with
// it.
type Move uint32

const (
	moveTypeShift = 0
	squareBits    = 7 // 0..64, wide enough for NoSquare
	originSqShift = moveTypeShift + 3
	targetSqShift = originSqShift + squareBits
	pieceBits     = 4 // 0..12, wide enough for NoPiece
	originPcShift = targetSqShift + squareBits
	capturedShift = originPcShift + pieceBits
	promoShift    = capturedShift + pieceBits

	moveTypeMask = 0x7
	squareMask   = 0x7F
	pieceMask    = 0xF
	promoMask    = 0x7
)

// NoMove is a sentinel distinct from any encoding a real move can produce:
// every field is set to its respective "none" value, and NoSquare (64)
// never appears as an origin/target square in a generated move.
const NoMove Move = Move(noMoveType)<<moveTypeShift |
	Move(NoSquare)<<originSqShift |
	Move(NoSquare)<<targetSqShift |
	Move(NoPiece)<<originPcShift |
	Move(NoPiece)<<capturedShift |
	Move(NoPieceType)<<promoShift

// NewMove creates a normal (non-special) move.
func NewMove(from, to Square, originPiece, captured Piece) Move {
	return Move(Normal)<<moveTypeShift |
		Move(from)<<originSqShift |
		Move(to)<<targetSqShift |
		Move(originPiece)<<originPcShift |
		Move(captured)<<capturedShift |
		Move(NoPieceType)<<promoShift
}

// NewPawnDouble creates a double pawn push.
func NewPawnDouble(from, to Square, originPiece Piece) Move {
	return Move(PawnDouble)<<moveTypeShift |
		Move(from)<<originSqShift |
		Move(to)<<targetSqShift |
		Move(originPiece)<<originPcShift |
		Move(NoPiece)<<capturedShift |
		Move(NoPieceType)<<promoShift
}

// NewPromotion creates a (possibly capturing) promotion move.
func NewPromotion(from, to Square, originPiece, captured Piece, promo PieceType) Move {
	return Move(PawnPromotion)<<moveTypeShift |
		Move(from)<<originSqShift |
		Move(to)<<targetSqShift |
		Move(originPiece)<<originPcShift |
		Move(captured)<<capturedShift |
		Move(promo)<<promoShift
}

// NewEnPassant creates an en passant capture move. The captured piece is
// always the opposing pawn, recorded explicitly so make/undo never has to
// re-derive it.
func NewEnPassant(from, to Square, originPiece, captured Piece) Move {
	return Move(EnPassantMove)<<moveTypeShift |
		Move(from)<<originSqShift |
		Move(to)<<targetSqShift |
		Move(originPiece)<<originPcShift |
		Move(captured)<<capturedShift |
		Move(NoPieceType)<<promoShift
}

// NewCastling creates a castling move (the king's two-square step).
func NewCastling(from, to Square, originPiece Piece) Move {
	return Move(CastlingMove)<<moveTypeShift |
		Move(from)<<originSqShift |
		Move(to)<<targetSqShift |
		Move(originPiece)<<originPcShift |
		Move(NoPiece)<<capturedShift |
		Move(NoPieceType)<<promoShift
}

// Type returns the move's type.
func (m Move) Type() MoveType { return MoveType(m >> moveTypeShift & moveTypeMask) }

// From returns the origin square.
func (m Move) From() Square { return Square(m >> originSqShift & squareMask) }

// To returns the destination square.
func (m Move) To() Square { return Square(m >> targetSqShift & squareMask) }

// OriginPiece returns the piece that made the move.
func (m Move) OriginPiece() Piece { return Piece(m >> originPcShift & pieceMask) }

// CapturedPiece returns the captured piece, or NoPiece if the move is quiet.
func (m Move) CapturedPiece() Piece { return Piece(m >> capturedShift & pieceMask) }

// Promotion returns the promotion piece type, or NoPieceType for non-promotions.
func (m Move) Promotion() PieceType { return PieceType(m >> promoShift & promoMask) }

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool { return m.Type() == PawnPromotion }

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool { return m.Type() == CastlingMove }

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool { return m.Type() == EnPassantMove }

// IsCapture returns true if this move captures a piece (including en passant).
func (m Move) IsCapture() bool { return m.CapturedPiece() != NoPiece }

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }

// String returns the UCI long-algebraic form of the move (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		promoChars := " nbrq " // indexed by PieceType: Pawn Knight Bishop Rook Queen King
		pt := m.Promotion()
		if int(pt) < len(promoChars) {
			s += string(promoChars[pt])
		}
	}
	return s
}

// ParseMove parses a UCI long-algebraic move string against the given
// position, which supplies the origin/captured pieces and disambiguates
// castling/en-passant/double-push from a plain normal move.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, piece, pos.PieceAt(to), promo), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to, piece), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		var capSq Square
		if pos.SideToMove == White {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
		return NewEnPassant(from, to, piece, pos.PieceAt(capSq)), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewPawnDouble(from, to, piece), nil
	}

	return NewMove(from, to, piece, pos.PieceAt(to)), nil
}

// MoveList is a pre-allocated, fixed-capacity buffer of (move, score)
// entries, used by the generator and the search to avoid per-node
// allocation.
type MoveList struct {
	moves  [256]Move
	scores [256]int32
	count  int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList { return &MoveList{} }

// Add appends a move with score zero.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.scores[ml.count] = 0
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Set overwrites the move at index i.
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }

// Score returns the ordering score of the move at index i.
func (ml *MoveList) Score(i int) int32 { return ml.scores[i] }

// SetScore sets the ordering score of the move at index i.
func (ml *MoveList) SetScore(i int, score int32) { ml.scores[i] = score }

// Swap swaps two entries (move and score together).
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
	ml.scores[i], ml.scores[j] = ml.scores[j], ml.scores[i]
}

// Clear empties the list for reuse.
func (ml *MoveList) Clear() { ml.count = 0 }

// Contains returns true if the list already holds the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves currently in the list.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// SortDescending performs a stable insertion sort by score, descending.
// Insertion sort is intentional: move lists are short (rarely over 40
// entries) and the search only ever needs the next-best move, so a simple
// stable sort beats the constant overhead of quicksort/heapsort here.
func (ml *MoveList) SortDescending() {
	for i := 1; i < ml.count; i++ {
		m, sc := ml.moves[i], ml.scores[i]
		j := i - 1
		for j >= 0 && ml.scores[j] < sc {
			ml.moves[j+1] = ml.moves[j]
			ml.scores[j+1] = ml.scores[j]
			j--
		}
		ml.moves[j+1] = m
		ml.scores[j+1] = sc
	}
}

// kingValueForMVVLVA is the numerator in the MVV/LVA rating rule: score =
// KING_VALUE / value_of(attacker) + 10*value_of(captured).
const kingValueForMVVLVA = 20000

// RateMVVLVA scores every capture in the list by most-valuable-victim,
// least-valuable-aggressor and leaves quiet moves at zero, so a subsequent
// SortDescending tries the best captures first.
func (ml *MoveList) RateMVVLVA() {
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		captured := m.CapturedPiece()
		if captured == NoPiece && !m.IsEnPassant() {
			continue
		}
		attacker := m.OriginPiece()
		attackerValue := attacker.Value()
		if attackerValue == 0 {
			attackerValue = 1
		}
		ml.scores[i] = int32(kingValueForMVVLVA/attackerValue + 10*captured.Value())
	}
}

// AddKiller gives a move (typically the transposition-table move) an
// artificially high score so it sorts first regardless of MVV/LVA.
func (ml *MoveList) AddKiller(m Move, score int32) {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			ml.scores[i] = score
			return
		}
	}
}

// RootMove is a root-level move list entry: besides the move and its score
// it carries the principal variation discovered under it.
type RootMove struct {
	Move  Move
	Score int
	PV    []Move
}

// RootMoveList is the root-level counterpart of MoveList: it additionally
// tracks, per move, the bounded principal-variation sequence found below it.
type RootMoveList struct {
	entries []RootMove
}

// NewRootMoveList builds a root move list from a plain pseudo/legal list.
func NewRootMoveList(ml *MoveList) *RootMoveList {
	rl := &RootMoveList{entries: make([]RootMove, ml.Len())}
	for i := 0; i < ml.Len(); i++ {
		rl.entries[i] = RootMove{Move: ml.Get(i), Score: 0}
	}
	return rl
}

// Len returns the number of root moves.
func (rl *RootMoveList) Len() int { return len(rl.entries) }

// Get returns the root move entry at index i.
func (rl *RootMoveList) Get(i int) *RootMove { return &rl.entries[i] }

// SortDescending stably sorts root moves by score, descending.
func (rl *RootMoveList) SortDescending() {
	entries := rl.entries
	for i := 1; i < len(entries); i++ {
		e := entries[i]
		j := i - 1
		for j >= 0 && entries[j].Score < e.Score {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = e
	}
}
