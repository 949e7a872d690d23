package engine

import (
	"encoding/json"
	"sync"

	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
	"github.com/gambitgo/gambit/internal/search"
)

// host is one boundary instance: a single goroutine draining requests and
// emitting exactly one response per accepted request. A fault (panic,
// undecodable frame, search failure) terminates the host; no state survives
// into the replacement the facade lazily creates.
type host struct {
	logger Logger

	requests  chan []byte
	responses chan []byte
	faults    chan error
	quit      chan struct{}
	quitOnce  sync.Once
}

func startHost(logger Logger) *host {
	h := &host{
		logger:    logger,
		requests:  make(chan []byte, 64),
		responses: make(chan []byte, 64),
		faults:    make(chan error, 1),
		quit:      make(chan struct{}),
	}
	go h.run()
	return h
}

// send dispatches a framed request. It fails synchronously once the host
// has terminated.
func (h *host) send(frame []byte) Error {
	select {
	case <-h.quit:
		return Errorf("search host terminated")
	default:
	}
	select {
	case h.requests <- frame:
		return NilError
	case <-h.quit:
		return Errorf("search host terminated")
	}
}

func (h *host) terminate() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

func (h *host) fault(err error) {
	select {
	case h.faults <- err:
	default:
	}
	h.terminate()
}

func (h *host) run() {
	defer func() {
		if r := recover(); r != nil {
			h.fault(Errorf("search host panic: %v", r))
		}
	}()

	for {
		select {
		case <-h.quit:
			return
		case frame := <-h.requests:
			if !h.handle(frame) {
				return
			}
		}
	}
}

func (h *host) handle(frame []byte) bool {
	var req requestEnvelope
	if err := json.Unmarshal(frame, &req); err != nil {
		h.fault(Errorf("undecodable request: %v", err))
		return false
	}
	if req.Type != computeMessageType {
		h.fault(Errorf("unexpected message type %q", req.Type))
		return false
	}

	resp, err := h.compute(req)
	if !IsNil(err) {
		// Failures inside the search are not isolated to one request;
		// they take the boundary down.
		h.fault(err)
		return false
	}

	frameOut, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		h.fault(Errorf("unencodable response: %v", marshalErr))
		return false
	}

	select {
	case h.responses <- frameOut:
	case <-h.quit:
		return false
	}
	return true
}

// compute runs one full search. An invalid position or malformed payload
// rejects only the corresponding request; the host stays usable.
func (h *host) compute(req requestEnvelope) (responseEnvelope, Error) {
	resp := responseEnvelope{ID: req.ID}

	engineSide, err := rules.SideFromCode(req.Payload.EngineSide)
	if !IsNil(err) {
		resp.Error = err.Error()
		return resp, NilError
	}
	if req.Payload.Depth < 1 {
		resp.Error = "depth must be at least 1"
		return resp, NilError
	}

	game, err := rules.NewGame(req.Payload.Position)
	if !IsNil(err) {
		resp.Error = err.Error()
		return resp, NilError
	}

	searcher := search.NewSearcher(h.logger, game, engineSide)
	result, err := searcher.Search(req.Payload.Depth)
	if !IsNil(err) {
		return resp, err
	}

	h.logger.Println(
		"searched", req.Payload.Position,
		"depth", req.Payload.Depth,
		"- evals", searcher.DebugTotalEvaluations,
		"- score", result.Score)

	if result.Move.HasValue() {
		resp.Move = recordFromMove(result.Move.Value())
	}
	return resp, NilError
}
