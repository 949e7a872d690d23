// Package play ties the rules facade and the search engine together into
// game sessions for the three modes: local two-player, versus the computer,
// and networked rooms.
package play

import (
	"context"
	"sync"

	"github.com/gambitgo/gambit/internal/engine"
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
)

type Mode int

const (
	LocalMode Mode = iota
	ComputerMode
	OnlineMode
)

func (m Mode) String() string {
	switch m {
	case LocalMode:
		return "local"
	case ComputerMode:
		return "computer"
	case OnlineMode:
		return "online"
	}
	return "local"
}

func ModeFromString(s string) (Mode, Error) {
	switch s {
	case "local":
		return LocalMode, NilError
	case "computer":
		return ComputerMode, NilError
	case "online":
		return OnlineMode, NilError
	}
	return LocalMode, Errorf("unknown mode: %q", s)
}

// Status is the caller-visible snapshot of a session.
type Status struct {
	Fen         string
	Turn        rules.Side
	LastMoveSAN string
	Check       bool
	Checkmate   bool
	Draw        bool
	GameOver    bool
	Thinking    bool
}

// Session is one game in progress. All methods are safe for concurrent use;
// the engine computation itself runs outside the session lock so the
// session stays responsive while the computer thinks.
type Session struct {
	logger Logger
	engine *engine.Engine

	mu         sync.Mutex
	mode       Mode
	difficulty engine.Difficulty
	engineSide rules.Side
	game       *rules.Game
	lastSAN    string
	thinking   bool
}

func NewSession(logger Logger, eng *engine.Engine) (*Session, Error) {
	game, err := rules.NewGame(rules.StartingFen())
	if !IsNil(err) {
		return nil, err
	}
	return &Session{
		logger:     logger,
		engine:     eng,
		mode:       LocalMode,
		difficulty: engine.Medium,
		engineSide: rules.Black,
		game:       game,
	}, NilError
}

// Configure starts a fresh game. Any in-flight search result for the
// previous game is invalidated and will not be applied.
func (s *Session) Configure(mode Mode, difficulty engine.Difficulty, engineSide rules.Side, fen string) Error {
	if fen == "" {
		fen = rules.StartingFen()
	}
	game, err := rules.NewGame(fen)
	if !IsNil(err) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.difficulty = difficulty
	s.engineSide = engineSide
	s.game = game
	s.lastSAN = ""
	s.engine.Invalidate()
	return NilError
}

// Reset restarts the current mode from the given position (or the standard
// starting position).
func (s *Session) Reset(fen string) Error {
	s.mu.Lock()
	mode, difficulty, engineSide := s.mode, s.difficulty, s.engineSide
	s.mu.Unlock()
	return s.Configure(mode, difficulty, engineSide, fen)
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		Fen:         s.game.Fen(),
		Turn:        s.game.SideToMove(),
		LastMoveSAN: s.lastSAN,
		Check:       s.game.IsInCheck(),
		Checkmate:   s.game.IsCheckmate(),
		Draw:        s.game.IsDraw(),
		GameOver:    s.game.IsGameOver(),
		Thinking:    s.thinking,
	}
}

func (s *Session) LegalMovesFrom(square string) []rules.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.LegalMovesFrom(square)
}

// PlayMove applies a user move. In computer mode the user may only move for
// their own side.
func (s *Session) PlayMove(m rules.Move) (Status, Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.IsGameOver() {
		return s.statusLocked(), Errorf("game is over")
	}
	if s.mode == ComputerMode && s.game.SideToMove() == s.engineSide {
		return s.statusLocked(), Errorf("it is the computer's turn")
	}

	confirmation, err := s.game.Apply(m)
	if !IsNil(err) {
		return s.statusLocked(), err
	}
	s.lastSAN = confirmation.SAN
	return s.statusLocked(), NilError
}

// PlayMoveFor applies a move on behalf of one seat, rejecting it unless that
// seat is on turn. The turn check and the move happen under the same lock so
// two seats cannot race each other through the check.
func (s *Session) PlayMoveFor(side rules.Side, m rules.Move) (Status, Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.IsGameOver() {
		return s.statusLocked(), Errorf("game is over")
	}
	if s.game.SideToMove() != side {
		return s.statusLocked(), Errorf("not %v's turn", side)
	}

	confirmation, err := s.game.Apply(m)
	if !IsNil(err) {
		return s.statusLocked(), err
	}
	s.lastSAN = confirmation.SAN
	return s.statusLocked(), NilError
}

// MaybeEngineMove runs one engine reply when it is the computer's turn. The
// result is applied only if the session was not reset while the search ran;
// a stale result resolves but is discarded.
func (s *Session) MaybeEngineMove(ctx context.Context) (Optional[rules.Move], Error) {
	s.mu.Lock()
	if s.mode != ComputerMode || s.game.IsGameOver() || s.game.SideToMove() != s.engineSide {
		s.mu.Unlock()
		return Empty[rules.Move](), NilError
	}
	issued := s.engine.Generation()
	req := engine.Request{
		Position:   s.game.Fen(),
		Depth:      s.difficulty.Depth(),
		EngineSide: s.engineSide,
	}
	s.thinking = true
	s.mu.Unlock()

	move, err := s.engine.BestMove(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = false

	if !IsNil(err) {
		return Empty[rules.Move](), err
	}
	if s.engine.Generation() != issued {
		s.logger.Println("discarding stale search result for", req.Position)
		return Empty[rules.Move](), NilError
	}
	if move.IsEmpty() {
		// Terminal position: nothing to play.
		return move, NilError
	}

	confirmation, err := s.game.Apply(move.Value())
	if !IsNil(err) {
		return Empty[rules.Move](), err
	}
	s.lastSAN = confirmation.SAN
	return move, NilError
}
