package play

import (
	"sync"

	"github.com/gambitgo/gambit/internal/engine"
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
)

// Rooms is the in-memory registry for networked games. Room state lives
// only as long as the process; durable multiplayer storage is delegated to
// an external real-time store and is not modeled here.
type Rooms struct {
	logger Logger
	engine *engine.Engine

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRooms(logger Logger, eng *engine.Engine) *Rooms {
	return &Rooms{
		logger: logger,
		engine: eng,
		rooms:  map[string]*Room{},
	}
}

// Join returns the room with the given code, creating it on first join, and
// assigns a seat: the first joiner plays white, the second black.
func (r *Rooms) Join(code string) (*Room, rules.Side, Error) {
	if code == "" {
		return nil, rules.White, Errorf("empty room code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		session, err := NewSession(r.logger, r.engine)
		if !IsNil(err) {
			return nil, rules.White, err
		}
		if err := session.Configure(OnlineMode, engine.Medium, rules.Black, ""); !IsNil(err) {
			return nil, rules.White, err
		}

		room = &Room{
			Code:        code,
			session:     session,
			subscribers: map[*Subscriber]struct{}{},
		}
		r.rooms[code] = room
	}

	seat, err := room.takeSeat()
	if !IsNil(err) {
		return nil, rules.White, err
	}
	return room, seat, NilError
}

func (r *Rooms) Drop(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Room is one networked game: a shared session plus its subscribers.
type Room struct {
	Code string

	mu          sync.Mutex
	session     *Session
	seats       [2]bool
	subscribers map[*Subscriber]struct{}
}

type Subscriber struct {
	C chan Status
}

func (room *Room) takeSeat() (rules.Side, Error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	for _, side := range []rules.Side{rules.White, rules.Black} {
		if !room.seats[side] {
			room.seats[side] = true
			return side, NilError
		}
	}
	return rules.White, Errorf("room %q is full", room.Code)
}

func (room *Room) ReleaseSeat(side rules.Side) {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.seats[side] = false
}

func (room *Room) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Status, 16)}
	room.mu.Lock()
	room.subscribers[sub] = struct{}{}
	room.mu.Unlock()
	return sub
}

func (room *Room) Unsubscribe(sub *Subscriber) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.subscribers[sub]; ok {
		delete(room.subscribers, sub)
		close(sub.C)
	}
}

func (room *Room) Status() Status {
	return room.session.Status()
}

// Play applies a move for the given seat and broadcasts the new state.
func (room *Room) Play(side rules.Side, m rules.Move) (Status, Error) {
	status, err := room.session.PlayMoveFor(side, m)
	if !IsNil(err) {
		return status, err
	}
	room.broadcast(status)
	return status, NilError
}

func (room *Room) Reset(fen string) Error {
	if err := room.session.Reset(fen); !IsNil(err) {
		return err
	}
	room.broadcast(room.session.Status())
	return NilError
}

// broadcast never blocks on a slow subscriber; stragglers miss updates and
// resync from the next one.
func (room *Room) broadcast(status Status) {
	room.mu.Lock()
	defer room.mu.Unlock()
	for sub := range room.subscribers {
		select {
		case sub.C <- status:
		default:
		}
	}
}
