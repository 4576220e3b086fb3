package battle

import "github.com/wargrid/wargrid/internal/core/geometry"

// Reason classifies why a proposed action was refused.
type Reason string

const (
	ReasonInvalid           Reason = "invalid"
	ReasonWrongPhase        Reason = "wrong_phase"
	ReasonWrongOwner        Reason = "wrong_owner"
	ReasonCannotMove        Reason = "cannot_move"
	ReasonOutOfRange        Reason = "out_of_range"
	ReasonOutOfBounds       Reason = "out_of_bounds"
	ReasonOverlap           Reason = "overlap"
	ReasonImpassableTerrain Reason = "impassable_terrain"
	ReasonOutsideZone       Reason = "outside_zone"
)

// Result is the structured outcome of one rule check. Rule failures are
// results, never errors: the caller presents the reason to a player or feeds
// the suggestion back into the next attempt. A Result is built fresh per
// call and not mutated afterwards.
type Result struct {
	Valid     bool           `json:"valid"`
	Reason    Reason         `json:"reason,omitempty"`
	Message   string         `json:"message,omitempty"`
	Suggested *geometry.Vec2 `json:"suggested,omitempty"`
}

func pass() Result {
	return Result{Valid: true}
}

func refuse(reason Reason, message string) Result {
	return Result{Reason: reason, Message: message}
}

func refuseAt(reason Reason, message string, suggested geometry.Vec2) Result {
	return Result{Reason: reason, Message: message, Suggested: &suggested}
}
