package battle

import (
	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Event type strings published on the engine bus. Every battle publishes on
// its own bus topic, named by the battle ID.
const (
	EventUnitMoved    = "unit.moved"
	EventMoveRejected = "move.rejected"
	EventUnitDeployed = "unit.deployed"
	EventPhaseChanged = "phase.changed"
	EventTurnEnded    = "turn.ended"
)

// MovedPayload rides EventUnitMoved.
type MovedPayload struct {
	Unit uuid.UUID     `json:"unit"`
	From geometry.Vec2 `json:"from"`
	To   geometry.Vec2 `json:"to"`
	Cost float64       `json:"cost"`
}

// RejectedPayload rides EventMoveRejected.
type RejectedPayload struct {
	Unit   uuid.UUID     `json:"unit"`
	Target geometry.Vec2 `json:"target"`
	Result Result        `json:"result"`
}

// DeployedPayload rides EventUnitDeployed.
type DeployedPayload struct {
	Unit     uuid.UUID     `json:"unit"`
	Player   int           `json:"player"`
	Position geometry.Vec2 `json:"position"`
}

// PhasePayload rides EventPhaseChanged and EventTurnEnded.
type PhasePayload struct {
	Phase  Phase `json:"phase"`
	Active int   `json:"active"`
	Round  int   `json:"round"`
}
