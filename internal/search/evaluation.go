package search

import (
	"github.com/gambitgo/gambit/internal/rules"
)

const (
	PawnWorth   = 100
	KnightWorth = 320
	BishopWorth = 330
	RookWorth   = 500
	QueenWorth  = 900

	// The king carries no material weight; its presence is guaranteed and
	// its safety is not separately modeled.
	KingWorth = 0

	MobilityWeight = 10
)

func pieceWorth(kind rules.PieceKind) int {
	switch kind {
	case rules.Pawn:
		return PawnWorth
	case rules.Knight:
		return KnightWorth
	case rules.Bishop:
		return BishopWorth
	case rules.Rook:
		return RookWorth
	case rules.Queen:
		return QueenWorth
	case rules.King:
		return KingWorth
	}
	return 0
}

// Evaluate scores a position for perspective: material plus a flat mobility
// bonus for the side to move. Pure and deterministic; callers intercept
// terminal positions before calling it.
func Evaluate(g *rules.Game, perspective rules.Side) int {
	score := 0

	board := g.Board()
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			square := board[rank][file]
			if square.IsEmpty() {
				continue
			}
			piece := square.Value()
			if piece.Side == rules.White {
				score += pieceWorth(piece.Kind)
			} else {
				score -= pieceWorth(piece.Kind)
			}
		}
	}

	mobility := len(g.LegalMoves()) * MobilityWeight
	if g.SideToMove() == rules.White {
		score += mobility
	} else {
		score -= mobility
	}

	if perspective == rules.Black {
		score = -score
	}
	return score
}
