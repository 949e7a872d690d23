package rules

import (
	"testing"

	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/stretchr/testify/assert"
)

const foolsMateFen = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
const stalemateFen = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"

func TestStartingPosition(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	assert.Equal(t, White, g.SideToMove())
	assert.Equal(t, 20, len(g.LegalMoves()))
	assert.Equal(t, StartingFen(), g.Fen())
	assert.False(t, g.IsGameOver())
	assert.False(t, g.IsInCheck())
}

func TestInvalidFen(t *testing.T) {
	_, err := NewGame("this is not a position")
	assert.False(t, IsNil(err))
}

func TestApplyUndoRestoresPosition(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	confirmation, err := g.Apply(Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, "e4", confirmation.SAN)
	assert.NotEqual(t, StartingFen(), g.Fen())
	assert.Equal(t, Black, g.SideToMove())

	err = g.Undo()
	assert.True(t, IsNil(err), err)
	assert.Equal(t, StartingFen(), g.Fen())
	assert.Equal(t, White, g.SideToMove())
}

func TestUndoRestoresCastlingAndEnPassant(t *testing.T) {
	g, err := NewGame("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	assert.True(t, IsNil(err), err)
	before := g.Fen()

	confirmation, err := g.Apply(Move{From: "e1", To: "g1"})
	assert.True(t, IsNil(err), err)
	assert.True(t, confirmation.Move.Castle)

	err = g.Undo()
	assert.True(t, IsNil(err), err)
	assert.Equal(t, before, g.Fen())
}

func TestIllegalMoveRejected(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	_, err = g.Apply(Move{From: "e2", To: "e5"})
	assert.False(t, IsNil(err))
	assert.Equal(t, StartingFen(), g.Fen())
}

func TestUndoWithoutHistory(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)
	assert.False(t, IsNil(g.Undo()))
}

func TestCheckmate(t *testing.T) {
	g, err := NewGame(foolsMateFen)
	assert.True(t, IsNil(err), err)

	assert.True(t, g.IsCheckmate())
	assert.True(t, g.IsInCheck())
	assert.True(t, g.IsGameOver())
	assert.False(t, g.IsStalemate())
	assert.Equal(t, 0, len(g.LegalMoves()))
}

func TestStalemate(t *testing.T) {
	g, err := NewGame(stalemateFen)
	assert.True(t, IsNil(err), err)

	assert.True(t, g.IsStalemate())
	assert.True(t, g.IsDraw())
	assert.False(t, g.IsCheckmate())
	assert.False(t, g.IsInCheck())
	assert.Equal(t, 0, len(g.LegalMoves()))
}

func TestInCheckWithoutMate(t *testing.T) {
	checks := []string{
		"4k3/8/8/8/8/8/8/4RK2 b - - 0 1",
		"4k3/8/5N2/8/8/8/8/4K3 b - - 0 1",
		"4k3/3P4/8/8/8/8/8/4K3 b - - 0 1",
		"4k3/8/8/8/B7/8/8/4K3 b - - 0 1",
	}
	for _, fen := range checks {
		g, err := NewGame(fen)
		assert.True(t, IsNil(err), err)
		assert.True(t, g.IsInCheck(), fen)
		assert.False(t, g.IsCheckmate(), fen)
	}

	// A piece between rook and king blocks the check.
	g, err := NewGame("4k3/8/8/8/4n3/8/8/4RK2 b - - 0 1")
	assert.True(t, IsNil(err), err)
	assert.False(t, g.IsInCheck())
}

func TestInsufficientMaterial(t *testing.T) {
	g, err := NewGame("8/8/8/4k3/8/8/8/4KB2 w - - 0 1")
	assert.True(t, IsNil(err), err)
	assert.True(t, g.IsDraw())

	g, err = NewGame("8/8/8/4k3/8/8/8/3QK3 w - - 0 1")
	assert.True(t, IsNil(err), err)
	assert.False(t, g.IsDraw())
}

func TestFiftyMoveRule(t *testing.T) {
	g, err := NewGame("8/8/4k3/8/8/4K3/8/4R3 w - - 100 60")
	assert.True(t, IsNil(err), err)
	assert.True(t, g.IsDraw())

	g, err = NewGame("8/8/4k3/8/8/4K3/8/4R3 w - - 99 60")
	assert.True(t, IsNil(err), err)
	assert.False(t, g.IsDraw())
}

func TestThreefoldRepetition(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	shuffle := []Move{
		{From: "g1", To: "f3"}, {From: "g8", To: "f6"},
		{From: "f3", To: "g1"}, {From: "f6", To: "g8"},
	}

	for cycle := 0; cycle < 2; cycle++ {
		for _, m := range shuffle {
			_, err := g.Apply(m)
			assert.True(t, IsNil(err), err)
		}
	}
	assert.True(t, g.IsDraw())

	err = g.Undo()
	assert.True(t, IsNil(err), err)
	assert.False(t, g.IsDraw())
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	g, err := NewGame("8/P7/8/8/8/8/k7/7K w - - 0 1")
	assert.True(t, IsNil(err), err)

	confirmation, err := g.Apply(Move{From: "a7", To: "a8"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, Queen, confirmation.Move.Promotion)
}

func TestExplicitUnderpromotion(t *testing.T) {
	g, err := NewGame("8/P7/8/8/8/8/k7/7K w - - 0 1")
	assert.True(t, IsNil(err), err)

	confirmation, err := g.Apply(Move{From: "a7", To: "a8", Promotion: Knight})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, Knight, confirmation.Move.Promotion)
}

func TestLegalMovesFrom(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	moves := g.LegalMovesFrom("e2")
	assert.Equal(t, 2, len(moves))
	for _, m := range moves {
		assert.Equal(t, "e2", m.From)
	}
	assert.Equal(t, 0, len(g.LegalMovesFrom("e5")))
}

func TestBoardEnumeration(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	board := g.Board()
	assert.Equal(t, Some(Piece{Kind: Rook, Side: Black}), board[0][0])
	assert.Equal(t, Some(Piece{Kind: King, Side: White}), board[7][4])
	assert.True(t, board[4][4].IsEmpty())

	pieces := 0
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if board[rank][file].HasValue() {
				pieces++
			}
		}
	}
	assert.Equal(t, 32, pieces)
}

func TestMoveFromUCI(t *testing.T) {
	m, err := MoveFromUCI("e2e4")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, Move{From: "e2", To: "e4"}, m)

	m, err = MoveFromUCI("e7e8q")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, Queen, m.Promotion)

	_, err = MoveFromUCI("e2")
	assert.False(t, IsNil(err))

	_, err = MoveFromUCI("e7e8x")
	assert.False(t, IsNil(err))
}

func TestCaptureFlags(t *testing.T) {
	g, err := NewGame(StartingFen())
	assert.True(t, IsNil(err), err)

	for _, uci := range []string{"e2e4", "d7d5"} {
		m, err := MoveFromUCI(uci)
		assert.True(t, IsNil(err), err)
		_, err = g.Apply(m)
		assert.True(t, IsNil(err), err)
	}

	confirmation, err := g.Apply(Move{From: "e4", To: "d5"})
	assert.True(t, IsNil(err), err)
	assert.True(t, confirmation.Move.Capture)
	assert.Equal(t, "exd5", confirmation.SAN)
}
