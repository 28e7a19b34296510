package board

import "testing"

// TestMakeUndoRestoresHash walks a short line of moves from the starting
// position and checks that the zobrist hash, material totals and mailbox
// are bit-for-bit restored after every UndoMove.
func TestMakeUndoRestoresHash(t *testing.T) {
	pos := NewPosition()
	startHash := pos.Hash
	startMaterial := pos.Material

	var walk func(depth int)
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len() && i < 5; i++ {
			m := moves.Get(i)
			pos.MakeMove(m)
			walk(depth - 1)
			pos.UndoMove(m)
		}
	}
	walk(3)

	if pos.Hash != startHash {
		t.Errorf("hash not restored: got %016x, want %016x", pos.Hash, startHash)
	}
	if pos.Material != startMaterial {
		t.Errorf("material not restored: got %v, want %v", pos.Material, startMaterial)
	}
	if pos.historyLen != 0 {
		t.Errorf("history stack not empty after unwinding: len=%d", pos.historyLen)
	}
}

// TestMakeMoveUpdatesMaterial checks that a capture correctly debits the
// defender's material total and credits nothing to the attacker.
func TestMakeMoveUpdatesMaterial(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	before := pos.Material[Black]
	m := NewMove(E4, D5, WhitePawn, BlackPawn)
	pos.MakeMove(m)

	if pos.Material[Black] != before-PieceValue[Pawn] {
		t.Errorf("black material after capture = %d, want %d", pos.Material[Black], before-PieceValue[Pawn])
	}
	if pos.PieceAt(D5) != WhitePawn {
		t.Errorf("expected white pawn on d5 after capture")
	}

	pos.UndoMove(m)
	if pos.Material[Black] != before {
		t.Errorf("black material after undo = %d, want %d", pos.Material[Black], before)
	}
	if pos.PieceAt(D5) != BlackPawn {
		t.Errorf("expected black pawn restored on d5 after undo")
	}
}

// TestCastlingRightsLostOnRookCapture verifies that capturing an untouched
// rook on its home square revokes that side's castling rights, even though
// its king never moved.
func TestCastlingRightsLostOnRookCapture(t *testing.T) {
	pos, err := ParseFEN("4k2r/8/8/8/8/8/8/R3K2R w KQk - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.CastlingRights.CanCastle(Black, true) {
		t.Fatalf("expected black kingside castling available before capture")
	}

	capture := NewMove(H1, H8, WhiteRook, BlackRook)
	pos.MakeMove(capture)

	if pos.CastlingRights.CanCastle(Black, true) {
		t.Errorf("expected black kingside castling revoked after rook on h8 captured")
	}
	if pos.CastlingRights.CanCastle(White, true) {
		t.Errorf("expected white kingside castling revoked once its own rook left h1")
	}

	pos.UndoMove(capture)
	if !pos.CastlingRights.CanCastle(Black, true) {
		t.Errorf("expected black kingside castling restored after undo")
	}
}

// TestNullMoveRoundTrip verifies MakeNullMove/UndoNullMove restore the
// position exactly and flip only the side to move.
func TestNullMoveRoundTrip(t *testing.T) {
	pos := NewPosition()
	hash := pos.Hash
	side := pos.SideToMove

	pos.MakeNullMove()
	if pos.SideToMove == side {
		t.Errorf("side to move did not flip on null move")
	}
	pos.UndoNullMove()

	if pos.Hash != hash {
		t.Errorf("hash not restored after null move: got %016x want %016x", pos.Hash, hash)
	}
	if pos.SideToMove != side {
		t.Errorf("side to move not restored after null move")
	}
}

// TestIsRepetitionDetectsReturnToStart shuffles knights out and back and
// checks that the resulting position is flagged as a repeat of an earlier
// one in the game's history.
func TestIsRepetitionDetectsReturnToStart(t *testing.T) {
	pos := NewPosition()

	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for _, s := range shuffle {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		pos.MakeMove(m)
	}

	if !pos.IsRepetition() {
		t.Errorf("expected repetition after returning to the starting position")
	}
}
