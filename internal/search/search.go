package search

import (
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
)

const (
	// CheckmateScore is the flat sentinel for a forced mate; it is not
	// scaled by distance to mate.
	CheckmateScore = 10000

	Inf = 100000
)

type Result struct {
	Score int
	Move  Optional[rules.Move]
}

// Searcher runs a depth-limited minimax with alpha-beta pruning over one
// game instance. The game is mutated (apply) and restored (undo) around
// each descent; the caller owns it exclusively for the duration of Search.
type Searcher struct {
	Logger     Logger
	Game       *rules.Game
	EngineSide rules.Side

	DebugTotalEvaluations int
}

func NewSearcher(logger Logger, game *rules.Game, engineSide rules.Side) Searcher {
	return Searcher{
		Logger:     logger,
		Game:       game,
		EngineSide: engineSide,
	}
}

func (s *Searcher) Search(depth int) (Result, Error) {
	if depth < 0 {
		return Result{}, Errorf("negative search depth %d", depth)
	}
	return s.minimax(depth, -Inf, Inf)
}

// terminalResult resolves checkmate and drawn positions. Checkmate is bad
// for the engine exactly when the engine is the side to move.
func (s *Searcher) terminalResult() Optional[Result] {
	if s.Game.IsCheckmate() {
		if s.Game.SideToMove() == s.EngineSide {
			return Some(Result{Score: -CheckmateScore})
		}
		return Some(Result{Score: CheckmateScore})
	}
	if s.Game.IsDraw() {
		return Some(Result{Score: 0})
	}
	return Empty[Result]()
}

func (s *Searcher) minimax(depth int, alpha int, beta int) (Result, Error) {
	if terminal := s.terminalResult(); terminal.HasValue() {
		return terminal.Value(), NilError
	}
	if depth == 0 {
		s.DebugTotalEvaluations++
		return Result{Score: Evaluate(s.Game, s.EngineSide)}, NilError
	}

	moves := s.Game.LegalMoves()
	if len(moves) == 0 {
		// Move enumeration is the ground truth for "no moves"; re-check
		// mate vs stalemate even though the terminal check above should
		// have caught it.
		if s.Game.IsCheckmate() {
			if s.Game.SideToMove() == s.EngineSide {
				return Result{Score: -CheckmateScore}, NilError
			}
			return Result{Score: CheckmateScore}, NilError
		}
		return Result{Score: 0}, NilError
	}

	maximizing := s.Game.SideToMove() == s.EngineSide

	best := Result{Score: -Inf}
	if !maximizing {
		best = Result{Score: Inf}
	}

	// Moves are tried in generator order with no ordering heuristic, and
	// only a strictly better score replaces the incumbent: the first move
	// reaching the best score wins. Both are load-bearing for determinism.
	for _, move := range moves {
		_, err := s.Game.Apply(move)
		if !IsNil(err) {
			return best, err
		}

		child, err := s.minimax(depth-1, alpha, beta)

		undoErr := s.Game.Undo()
		if !IsNil(err) || !IsNil(undoErr) {
			return best, Join(err, undoErr)
		}

		if maximizing {
			if child.Score > best.Score {
				best = Result{Score: child.Score, Move: Some(move)}
			}
			alpha = MaxInt(alpha, best.Score)
		} else {
			if child.Score < best.Score {
				best = Result{Score: child.Score, Move: Some(move)}
			}
			beta = MinInt(beta, best.Score)
		}

		if beta <= alpha {
			break
		}
	}

	return best, NilError
}
