package engine

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
)

// Request is one compute call: a position snapshot, a search depth and the
// side the engine plays. The caller must not reuse a mutable game for the
// position after hand-off; the snapshot is a plain FEN string, so the host
// always works on its own copy.
type Request struct {
	Position   string
	Depth      int
	EngineSide rules.Side
}

type outcome struct {
	move Optional[rules.Move]
	err  Error
}

// Engine is the caller-facing facade: it allocates request ids, keeps the
// pending table, and owns the single host slot. The host is created lazily
// on first use and recreated lazily after a fault or Terminate.
type Engine struct {
	logger Logger

	generation atomic.Uint64

	mu      sync.Mutex
	host    *host
	nextID  int64
	pending map[int64]chan outcome
}

func New(logger Logger) *Engine {
	return &Engine{
		logger:  logger,
		pending: map[int64]chan outcome{},
	}
}

// Generation returns the staleness counter gating result application.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// Invalidate advances the staleness counter. In-flight searches keep
// running and their requests still resolve; callers compare generations
// before applying a result, so stale ones are silently dropped.
func (e *Engine) Invalidate() uint64 {
	return e.generation.Add(1)
}

// BestMove issues a correlated compute request and waits for the matching
// response. It resolves exactly once: with the chosen move (empty means no
// legal move), with a boundary failure, or with ctx cancellation. Waiting
// never blocks the boundary; ctx cancellation is advisory and does not
// preempt the computation.
func (e *Engine) BestMove(ctx context.Context, req Request) (Optional[rules.Move], Error) {
	ch, err := e.submit(req)
	if !IsNil(err) {
		return Empty[rules.Move](), err
	}

	select {
	case out := <-ch:
		return out.move, out.err
	case <-ctx.Done():
		return Empty[rules.Move](), Wrap(ctx.Err())
	}
}

func (e *Engine) submit(req Request) (<-chan outcome, Error) {
	e.mu.Lock()
	h := e.ensureHostLocked()

	e.nextID++
	id := e.nextID

	frame, marshalErr := json.Marshal(requestEnvelope{
		ID:   id,
		Type: computeMessageType,
		Payload: requestPayload{
			Position:   req.Position,
			Depth:      req.Depth,
			EngineSide: req.EngineSide.Code(),
		},
	})
	if marshalErr != nil {
		e.mu.Unlock()
		return nil, Wrap(marshalErr)
	}

	ch := make(chan outcome, 1)
	e.pending[id] = ch
	e.mu.Unlock()

	if err := h.send(frame); !IsNil(err) {
		// Send fault: reject synchronously, never leave the entry behind.
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		return nil, err
	}
	return ch, NilError
}

// Terminate tears down the current host, rejecting every pending request.
// The next compute request creates a fresh host.
func (e *Engine) Terminate() {
	e.mu.Lock()
	h := e.host
	e.mu.Unlock()
	if h != nil {
		h.terminate()
	}
}

func (e *Engine) ensureHostLocked() *host {
	if e.host == nil {
		h := startHost(e.logger)
		e.host = h
		go e.dispatch(h)
	}
	return e.host
}

// dispatch pumps one host's responses into the pending table. It exits when
// the host faults or terminates, after rejecting everything outstanding.
func (e *Engine) dispatch(h *host) {
	for {
		select {
		case frame := <-h.responses:
			if !e.deliver(h, frame) {
				return
			}
		case err := <-h.faults:
			e.failAll(h, Wrap(err))
			return
		case <-h.quit:
			e.failAll(h, Errorf("search host terminated"))
			return
		}
	}
}

func (e *Engine) deliver(h *host, frame []byte) bool {
	var resp responseEnvelope
	if err := json.Unmarshal(frame, &resp); err != nil {
		e.failAll(h, Errorf("undecodable response: %v", err))
		return false
	}

	e.mu.Lock()
	ch, ok := e.pending[resp.ID]
	delete(e.pending, resp.ID)
	e.mu.Unlock()

	if !ok {
		// Already resolved, rejected or superseded.
		e.logger.Println("dropping uncorrelated response", resp.ID)
		return true
	}

	if resp.Error != "" {
		ch <- outcome{err: Errorf("search rejected: %s", resp.Error)}
		return true
	}

	if resp.Move == nil {
		ch <- outcome{move: Empty[rules.Move]()}
		return true
	}

	move, err := resp.Move.toMove()
	if !IsNil(err) {
		e.failAll(h, err)
		return false
	}
	ch <- outcome{move: Some(move)}
	return true
}

// failAll rejects every pending request, not just the one that triggered
// the fault, and frees the host slot for lazy recreation.
func (e *Engine) failAll(h *host, err Error) {
	h.terminate()

	e.mu.Lock()
	if e.host == h {
		e.host = nil
	}
	rejected := e.pending
	e.pending = map[int64]chan outcome{}
	e.mu.Unlock()

	if len(rejected) > 0 {
		e.logger.Println("rejecting", len(rejected), "pending requests:", err)
	}
	for _, ch := range rejected {
		ch <- outcome{err: Join(Errorf("search host failed"), err)}
	}
}
