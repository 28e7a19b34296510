package engine

import "github.com/hailam/goldfish/internal/board"

// Evaluation constants. Values mirror board.PieceValue (pawn 100, knight
// 320, bishop 325, rook 500, queen 900, king a large constant; each side's
// material total includes its king, so the king values cancel in the
// white-minus-black difference).
var (
	PawnValue   = board.PieceValue[board.Pawn]
	KnightValue = board.PieceValue[board.Knight]
	BishopValue = board.PieceValue[board.Bishop]
	RookValue   = board.PieceValue[board.Rook]
	QueenValue  = board.PieceValue[board.Queen]
	KingValue   = board.PieceValue[board.King]
)

var pieceValues = board.PieceValue

const bishopPairBonus = 50

// mobilityWeight scales the count of empty squares a piece can reach,
// indexed by board.PieceType. Pawns and kings are not counted.
var mobilityWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King

// tempoBonus rewards the side to move with a small initiative bonus.
const tempoBonus = 10

// Evaluate returns the static evaluation of pos from the side-to-move's
// perspective: positive means the position favors whoever is to move.
func Evaluate(pos *board.Position) int {
	materialDiff := material(pos, board.White) - material(pos, board.Black)
	mobilityDiff := mobility(pos, board.White) - mobility(pos, board.Black)

	score := materialDiff*100/100 + mobilityDiff*80/100

	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// material sums piece values for one color, including the bishop-pair bonus.
func material(pos *board.Position, c board.Color) int {
	total := pos.Material[c]
	if pos.Pieces[c][board.Bishop].PopCount() >= 2 {
		total += bishopPairBonus
	}
	return total
}

// mobility counts, for every knight/bishop/rook/queen of color c, the empty
// squares it can reach — sliders continue through empties and stop at the
// first piece, non-sliders count only their immediate step — weighted by
// mobilityWeight.
func mobility(pos *board.Position, c board.Color) int {
	occupied := pos.AllOccupied
	var total int

	knights := pos.Pieces[c][board.Knight]
	for knights != 0 {
		sq := knights.PopLSB()
		total += mobilityWeight[board.Knight] * (board.KnightAttacks(sq) &^ occupied).PopCount()
	}

	bishops := pos.Pieces[c][board.Bishop]
	for bishops != 0 {
		sq := bishops.PopLSB()
		total += mobilityWeight[board.Bishop] * (board.BishopAttacks(sq, occupied) &^ occupied).PopCount()
	}

	rooks := pos.Pieces[c][board.Rook]
	for rooks != 0 {
		sq := rooks.PopLSB()
		total += mobilityWeight[board.Rook] * (board.RookAttacks(sq, occupied) &^ occupied).PopCount()
	}

	queens := pos.Pieces[c][board.Queen]
	for queens != 0 {
		sq := queens.PopLSB()
		total += mobilityWeight[board.Queen] * (board.QueenAttacks(sq, occupied) &^ occupied).PopCount()
	}

	return total
}

// EvaluateMaterial returns just the material balance (including bishop-pair
// bonus) from the side-to-move's perspective. Used for fast sanity checks
// where a full evaluation is unnecessary.
func EvaluateMaterial(pos *board.Position) int {
	score := material(pos, board.White) - material(pos, board.Black)
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}
