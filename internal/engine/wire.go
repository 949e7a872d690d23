// Package engine runs the search off the interactive goroutine. A single
// lazily-started worker (the host) services compute requests strictly in
// arrival order; the Engine facade correlates requests and responses by id.
package engine

import (
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
)

const computeMessageType = "compute"

type requestEnvelope struct {
	ID      int64          `json:"id"`
	Type    string         `json:"type"`
	Payload requestPayload `json:"payload"`
}

type requestPayload struct {
	Position   string `json:"position"`
	Depth      int    `json:"depth"`
	EngineSide string `json:"engineSide"`
}

type responseEnvelope struct {
	ID    int64       `json:"id"`
	Move  *MoveRecord `json:"move"`
	Error string      `json:"error,omitempty"`
}

// MoveRecord is the wire form of a chosen move.
type MoveRecord struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func recordFromMove(m rules.Move) *MoveRecord {
	return &MoveRecord{
		From:      m.From,
		To:        m.To,
		Promotion: m.Promotion.Code(),
	}
}

func (r *MoveRecord) toMove() (rules.Move, Error) {
	return rules.MoveFromUCI(r.From + r.To + r.Promotion)
}
