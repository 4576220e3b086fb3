package server

import (
	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/ai"
	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Request and response bodies of the query API. The same shapes travel over
// HTTP and over QUIC query frames.

// MoveInput asks whether (or that) a unit moves to Target, in canonical
// units.
type MoveInput struct {
	Unit   uuid.UUID     `json:"unit"`
	Target geometry.Vec2 `json:"target"`
}

// DeployInput asks whether (or that) a unit sets up at Position.
type DeployInput struct {
	Unit     uuid.UUID     `json:"unit"`
	Position geometry.Vec2 `json:"position"`
}

// PathInput asks whether a unit's straight path to To is clear.
type PathInput struct {
	Unit uuid.UUID     `json:"unit"`
	To   geometry.Vec2 `json:"to"`
}

// PathOutput answers PathInput.
type PathOutput struct {
	Clear bool `json:"clear"`
}

// SightInput asks whether unit From sees unit To.
type SightInput struct {
	From uuid.UUID `json:"from"`
	To   uuid.UUID `json:"to"`
}

// SightOutput answers SightInput. Visible covers terrain and static
// geometry; UnitsBlock reports intervening bases separately so the caller
// can apply its own cover rules.
type SightOutput struct {
	Visible    bool `json:"visible"`
	UnitsBlock bool `json:"units_block"`
}

// VisibilityInput asks for the visible fraction of To's silhouette.
type VisibilityInput struct {
	From    uuid.UUID `json:"from"`
	To      uuid.UUID `json:"to"`
	Samples int       `json:"samples,omitempty"`
}

// VisibilityOutput answers VisibilityInput.
type VisibilityOutput struct {
	Fraction float64 `json:"fraction"`
}

// CoverInput asks whether a unit has cover against fire along Direction.
type CoverInput struct {
	Unit      uuid.UUID     `json:"unit"`
	Direction geometry.Vec2 `json:"direction"`
}

// CoverOutput answers CoverInput.
type CoverOutput struct {
	Covered bool `json:"covered"`
}

// NearestFreeInput asks for the closest position to Position where a base of
// Radius fits.
type NearestFreeInput struct {
	Position geometry.Vec2 `json:"position"`
	Radius   float64       `json:"radius"`
}

// NearestFreeOutput answers NearestFreeInput.
type NearestFreeOutput struct {
	Position geometry.Vec2 `json:"position"`
}

// SuggestInput asks the scorer to rank candidate destinations for a unit.
type SuggestInput struct {
	Unit       uuid.UUID       `json:"unit"`
	Candidates []geometry.Vec2 `json:"candidates"`
}

// SuggestOutput answers SuggestInput, best candidate first.
type SuggestOutput struct {
	Moves []ai.ScoredMove `json:"moves"`
}

// PhaseOutput reports the turn clock after a phase or turn transition.
type PhaseOutput struct {
	Phase  battle.Phase `json:"phase"`
	Active int          `json:"active"`
	Round  int          `json:"round"`
}

// UnitsOutput lists the roster.
type UnitsOutput struct {
	Units []battle.Unit `json:"units"`
}

// EventFrame is one bus event as pushed to websocket subscribers.
type EventFrame struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
	Data any    `json:"data"`
}
