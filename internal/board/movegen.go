package board

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates capture (and promotion) moves only, for quiescence search.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegalMoves(ml)
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		piece := p.PieceAt(from)
		attacks := KnightAttacks(from) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		piece := p.PieceAt(from)
		attacks := BishopAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		piece := p.PieceAt(from)
		attacks := RookAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		piece := p.PieceAt(from)
		attacks := QueenAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	p.generateKingMoves(ml, us)
	p.generateCastlingMoves(ml, us)
}

// generatePawnMoves generates all pawn moves: pushes, captures, promotions, en passant.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	pawnPiece := NewPiece(Pawn, us)

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromo := push1 & ^promotionRank
	for nonPromo != 0 {
		to := nonPromo.PopLSB()
		from := Square(int(to) - pushDir)
		ml.Add(NewMove(from, to, pawnPiece, NoPiece))
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		ml.Add(NewPawnDouble(from, to, pawnPiece))
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, pawnPiece, NoPiece)
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		var capSq Square
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
			capSq = p.EnPassant - 8
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
			capSq = p.EnPassant + 8
		}
		captured := p.PieceAt(capSq)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnPiece, captured))
		}
	}
}

// addPromotions adds all four promotion moves for a pawn reaching the back rank.
func addPromotions(ml *MoveList, from, to Square, pawnPiece, captured Piece) {
	ml.Add(NewPromotion(from, to, pawnPiece, captured, Queen))
	ml.Add(NewPromotion(from, to, pawnPiece, captured, Rook))
	ml.Add(NewPromotion(from, to, pawnPiece, captured, Bishop))
	ml.Add(NewPromotion(from, to, pawnPiece, captured, Knight))
}

// generateKingMoves generates king moves (non-castling).
func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	from := p.KingSquare[us]
	piece := p.PieceAt(from)
	attacks := KingAttacks(from) & ^p.Occupied[us]

	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
	}
}

// generateCastlingMoves generates castling moves. Only the king's start
// square and the square it crosses are checked here for attack; the final
// legality filter is the sole authority on whether the king ends up in check.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	king := NewPiece(King, us)

	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 {
			if p.AllOccupied&((1<<F1)|(1<<G1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) {
					ml.Add(NewCastling(E1, G1, king))
				}
			}
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B1)|(1<<C1)|(1<<D1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) {
					ml.Add(NewCastling(E1, C1, king))
				}
			}
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 {
			if p.AllOccupied&((1<<F8)|(1<<G8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) {
					ml.Add(NewCastling(E8, G8, king))
				}
			}
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B8)|(1<<C8)|(1<<D8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) {
					ml.Add(NewCastling(E8, C8, king))
				}
			}
		}
	}
}

// generateCaptures generates capture and promotion moves only.
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied
	pawnPiece := NewPiece(Pawn, us)

	pawns := p.Pieces[us][Pawn]
	var attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	empty := ^occupied
	var push1 Bitboard
	if us == White {
		push1 = pawns.North() & empty & Rank8
	} else {
		push1 = pawns.South() & empty & Rank1
	}
	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, pawnPiece, NoPiece)
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		var capSq Square
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
			capSq = p.EnPassant - 8
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
			capSq = p.EnPassant + 8
		}
		captured := p.PieceAt(capSq)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnPiece, captured))
		}
	}

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		piece := p.PieceAt(from)
		attacks := KnightAttacks(from) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		piece := p.PieceAt(from)
		attacks := BishopAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		piece := p.PieceAt(from)
		attacks := RookAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		piece := p.PieceAt(from)
		attacks := QueenAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
		}
	}

	from := p.KingSquare[us]
	piece := p.PieceAt(from)
	attacks := KingAttacks(from) & enemies
	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
	}
}

// filterLegalMoves filters out moves that leave the mover's own king in check.
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.IsLegal(m) {
			result.Add(m)
		}
	}
	return result
}

// IsLegal returns true if the move does not leave the mover's own king in
// check. King steps are checked directly against the attacker set with the
// king removed from occupancy; everything else (including castling, whose
// crossing squares were already checked during generation) is verified by
// actually making the move and testing the resulting position.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	ksq := p.KingSquare[us]

	if from == ksq && !m.IsCastling() {
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	p.MakeMove(m)
	attacked := p.IsSquareAttacked(p.KingSquare[us], them)
	p.UndoMove(m)

	return !attacked
}

// castlingRightsAfterTouch clears the castling rights implicated by a piece
// leaving or a piece being captured on a, e, or h files' back-rank squares.
func castlingRightsAfterTouch(cr CastlingRights, sq Square) CastlingRights {
	switch sq {
	case A1:
		return cr &^ WhiteQueenSideCastle
	case H1:
		return cr &^ WhiteKingSideCastle
	case A8:
		return cr &^ BlackQueenSideCastle
	case H8:
		return cr &^ BlackKingSideCastle
	case E1:
		return cr &^ (WhiteKingSideCastle | WhiteQueenSideCastle)
	case E8:
		return cr &^ (BlackKingSideCastle | BlackQueenSideCastle)
	}
	return cr
}

// MakeMove applies a pseudo-legal move generated from this exact position,
// pushing enough state onto the internal history stack that UndoMove can
// reverse it in O(1). Callers that need legality must check before or after
// via IsLegal; MakeMove itself assumes the move is well-formed.
func (p *Position) MakeMove(m Move) {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	originPiece := m.OriginPiece()
	pt := originPiece.Type()
	captured := m.CapturedPiece()

	p.pushState(captured)

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	switch m.Type() {
	case EnPassantMove:
		var capSq Square
		if us == White {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
		p.removePiece(capSq)
		p.Hash ^= zobristPiece[them][Pawn][capSq]
		p.movePiece(from, to)
		p.Hash ^= zobristPiece[us][Pawn][from]
		p.Hash ^= zobristPiece[us][Pawn][to]

	case CastlingMove:
		p.movePiece(from, to)
		p.Hash ^= zobristPiece[us][King][from]
		p.Hash ^= zobristPiece[us][King][to]

		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]

		p.CastlingRights = castlingRightsAfterTouch(p.CastlingRights, from)

	case PawnPromotion:
		if captured != NoPiece {
			p.removePiece(to)
			p.Hash ^= zobristPiece[them][captured.Type()][to]
		}
		p.removePiece(from)
		p.Hash ^= zobristPiece[us][Pawn][from]
		promoPt := m.Promotion()
		p.setPiece(NewPiece(promoPt, us), to)
		p.Hash ^= zobristPiece[us][promoPt][to]

	default: // Normal, PawnDouble
		if captured != NoPiece {
			p.removePiece(to)
			p.Hash ^= zobristPiece[them][captured.Type()][to]
		}
		p.movePiece(from, to)
		p.Hash ^= zobristPiece[us][pt][from]
		p.Hash ^= zobristPiece[us][pt][to]
	}

	if pt == King && m.Type() != CastlingMove {
		p.CastlingRights = castlingRightsAfterTouch(p.CastlingRights, from)
	}
	if pt == Rook {
		p.CastlingRights = castlingRightsAfterTouch(p.CastlingRights, from)
	}
	if captured != NoPiece {
		p.CastlingRights = castlingRightsAfterTouch(p.CastlingRights, to)
	}

	p.Hash ^= zobristCastling[p.CastlingRights]

	if m.Type() == PawnDouble {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()
}

// UndoMove reverses the most recent MakeMove call. The move value passed
// must be the same one passed to MakeMove.
func (p *Position) UndoMove(m Move) {
	st := p.popState()
	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.CastlingRights = st.castlingRights
	p.EnPassant = st.enPassant
	p.HalfMoveClock = st.halfMoveClock
	p.Hash = st.hash
	p.Checkers = st.checkers
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	switch m.Type() {
	case PawnPromotion:
		p.removePiece(to)
		p.setPiece(NewPiece(Pawn, us), from)
		if st.capturedPiece != NoPiece {
			p.setPiece(st.capturedPiece, to)
		}

	case CastlingMove:
		p.movePiece(to, from)
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookTo, rookFrom)

	case EnPassantMove:
		p.movePiece(to, from)
		var capSq Square
		if us == White {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
		p.setPiece(st.capturedPiece, capSq)

	default:
		p.movePiece(to, from)
		if st.capturedPiece != NoPiece {
			p.setPiece(st.capturedPiece, to)
		}
	}
}

// MakeNullMove passes the turn without moving a piece, used by null-move
// pruning in search. The en-passant square is cleared (a side effect of any
// move including a null move) and the half-move clock is bumped; both are
// restored on undo.
func (p *Position) MakeNullMove() {
	p.pushState(NoPiece)

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare
	p.HalfMoveClock++
	p.Hash ^= zobristSideToMove

	p.SideToMove = p.SideToMove.Other()
	p.UpdateCheckers()
}

// UndoNullMove reverses the most recent MakeNullMove call.
func (p *Position) UndoNullMove() {
	st := p.popState()
	p.CastlingRights = st.castlingRights
	p.EnPassant = st.enPassant
	p.HalfMoveClock = st.halfMoveClock
	p.Hash = st.hash
	p.Checkers = st.checkers
	p.SideToMove = p.SideToMove.Other()
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	ml := p.GeneratePseudoLegalMoves()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the side to move is in check with no legal moves.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move is not in check but has no legal moves.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is drawn by stalemate, the 50-move
// rule, a repetition of an earlier position (see IsRepetition), or
// insufficient material.
func (p *Position) IsDraw() bool {
	if p.HalfMoveClock >= 100 {
		return true
	}
	if p.IsInsufficientMaterial() {
		return true
	}
	if p.IsRepetition() {
		return true
	}
	return p.IsStalemate()
}
