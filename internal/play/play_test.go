package play

import (
	"context"
	"testing"
	"time"

	"github.com/gambitgo/gambit/internal/engine"
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
	"github.com/stretchr/testify/assert"
)

func newTestSession(t *testing.T) (*Session, *engine.Engine) {
	eng := engine.New(&SilentLogger)
	session, err := NewSession(&SilentLogger, eng)
	assert.True(t, IsNil(err), err)
	return session, eng
}

func TestLocalTwoPlayerFlow(t *testing.T) {
	session, _ := newTestSession(t)

	status, err := session.PlayMove(rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.Black, status.Turn)
	assert.Equal(t, "e4", status.LastMoveSAN)

	status, err = session.PlayMove(rules.Move{From: "e7", To: "e5"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.White, status.Turn)

	// Local mode never computes engine moves.
	move, err := session.MaybeEngineMove(context.Background())
	assert.True(t, IsNil(err), err)
	assert.True(t, move.IsEmpty())
}

func TestComputerReplies(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Configure(ComputerMode, engine.Easy, rules.Black, "")
	assert.True(t, IsNil(err), err)

	_, err = session.PlayMove(rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)

	move, err := session.MaybeEngineMove(context.Background())
	assert.True(t, IsNil(err), err)
	assert.True(t, move.HasValue())

	status := session.Status()
	assert.Equal(t, rules.White, status.Turn)
	assert.NotEqual(t, "", status.LastMoveSAN)
}

func TestUserCannotMoveForComputer(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Configure(ComputerMode, engine.Easy, rules.White, "")
	assert.True(t, IsNil(err), err)

	_, err = session.PlayMove(rules.Move{From: "e2", To: "e4"})
	assert.False(t, IsNil(err))
}

func TestEngineMovesFirstWhenPlayingWhite(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Configure(ComputerMode, engine.Easy, rules.White, "")
	assert.True(t, IsNil(err), err)

	move, err := session.MaybeEngineMove(context.Background())
	assert.True(t, IsNil(err), err)
	assert.True(t, move.HasValue())
	assert.Equal(t, rules.Black, session.Status().Turn)
}

func TestStaleResultDiscarded(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Configure(ComputerMode, engine.Hard, rules.Black, "")
	assert.True(t, IsNil(err), err)

	_, err = session.PlayMove(rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)

	type engineResult struct {
		move Optional[rules.Move]
		err  Error
	}
	done := make(chan engineResult, 1)
	go func() {
		move, err := session.MaybeEngineMove(context.Background())
		done <- engineResult{move, err}
	}()

	// Reset while the depth-3 search is still running. The search result
	// still resolves, but it must not be applied to the fresh game.
	time.Sleep(time.Millisecond)
	err = session.Reset("")
	assert.True(t, IsNil(err), err)

	result := <-done
	assert.True(t, IsNil(result.err), result.err)
	assert.True(t, result.move.IsEmpty())
	assert.Equal(t, rules.StartingFen(), session.Status().Fen)
}

func TestGameOverReported(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Reset("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	assert.True(t, IsNil(err), err)

	status := session.Status()
	assert.True(t, status.Checkmate)
	assert.True(t, status.GameOver)

	_, err = session.PlayMove(rules.Move{From: "e2", To: "e4"})
	assert.False(t, IsNil(err))
}

func TestPlayMoveForEnforcesSeatTurn(t *testing.T) {
	session, _ := newTestSession(t)
	err := session.Configure(OnlineMode, engine.Medium, rules.Black, "")
	assert.True(t, IsNil(err), err)

	_, err = session.PlayMoveFor(rules.Black, rules.Move{From: "e7", To: "e5"})
	assert.False(t, IsNil(err))

	_, err = session.PlayMoveFor(rules.White, rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)

	// e7e5 is legal in the position now, but not for the white seat.
	_, err = session.PlayMoveFor(rules.White, rules.Move{From: "e7", To: "e5"})
	assert.False(t, IsNil(err))

	status, err := session.PlayMoveFor(rules.Black, rules.Move{From: "e7", To: "e5"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.White, status.Turn)
}

func TestRoomsSeating(t *testing.T) {
	eng := engine.New(&SilentLogger)
	rooms := NewRooms(&SilentLogger, eng)

	room, seat, err := rooms.Join("r1")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.White, seat)

	sameRoom, seat, err := rooms.Join("r1")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.Black, seat)
	assert.Equal(t, room, sameRoom)

	_, _, err = rooms.Join("r1")
	assert.False(t, IsNil(err))

	room.ReleaseSeat(rules.Black)
	_, seat, err = rooms.Join("r1")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.Black, seat)
}

func TestRoomRelaysMoves(t *testing.T) {
	eng := engine.New(&SilentLogger)
	rooms := NewRooms(&SilentLogger, eng)

	room, _, err := rooms.Join("r2")
	assert.True(t, IsNil(err), err)
	_, _, err = rooms.Join("r2")
	assert.True(t, IsNil(err), err)

	sub := room.Subscribe()

	// Black may not move first.
	_, err = room.Play(rules.Black, rules.Move{From: "e7", To: "e5"})
	assert.False(t, IsNil(err))

	status, err := room.Play(rules.White, rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.Black, status.Turn)

	select {
	case broadcast := <-sub.C:
		assert.Equal(t, status.Fen, broadcast.Fen)
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}

	room.Unsubscribe(sub)
	_, open := <-sub.C
	assert.False(t, open)
}

func TestRoomReset(t *testing.T) {
	eng := engine.New(&SilentLogger)
	rooms := NewRooms(&SilentLogger, eng)

	room, _, err := rooms.Join("r3")
	assert.True(t, IsNil(err), err)

	_, err = room.Play(rules.White, rules.Move{From: "e2", To: "e4"})
	assert.True(t, IsNil(err), err)

	err = room.Reset("")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.StartingFen(), room.Status().Fen)

	rooms.Drop("r3")
	_, seat, err := rooms.Join("r3")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, rules.White, seat)
}
