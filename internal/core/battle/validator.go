package battle

import (
	"fmt"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// TurnOracle answers whose turn it is. TurnController satisfies it.
type TurnOracle interface {
	IsActivePhase(Phase) bool
	IsActiveOwner(player int) bool
}

// GroundOracle answers terrain questions about a single point. terrain.Map
// satisfies it.
type GroundOracle interface {
	MoveModifier(geometry.Vec2) float64
	Impassable(geometry.Vec2) bool
}

// DeploymentOracle decides where a player may set up. Zones satisfies it.
type DeploymentOracle interface {
	CanDeployAt(p geometry.Vec2, player int) bool
	ClampToZone(p geometry.Vec2, player int) geometry.Vec2
}

// ValidatorConfig carries the movement validation tunables.
type ValidatorConfig struct {
	// PathSamples is how many points of a path segment are tested for
	// collision, endpoints included.
	PathSamples int `json:"path_samples" yaml:"path_samples"`
	// CheckTerrain enables the terrain passability check on move targets.
	CheckTerrain bool `json:"check_terrain" yaml:"check_terrain"`
}

// DefaultValidatorConfig returns the stock tunables.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{PathSamples: 6, CheckTerrain: true}
}

// ValidatorDeps are the collaborators a Validator consults. Any oracle may
// be nil, in which case its check is skipped.
type ValidatorDeps struct {
	Converter geometry.Converter
	Search    geometry.SearchConfig
	Bounds    geometry.Rect
	Turns     TurnOracle
	Ground    GroundOracle
	Zones     DeploymentOracle
}

// Validator runs the movement and deployment rule pipelines. Every public
// method is a pure function of its arguments plus the immutable
// configuration, so callers may probe candidate moves speculatively; nothing
// is committed here.
type Validator struct {
	cfg  ValidatorConfig
	deps ValidatorDeps
}

// NewValidator builds a validator. Sample counts below 2 are raised to 2 so
// both path endpoints are always tested.
func NewValidator(cfg ValidatorConfig, deps ValidatorDeps) *Validator {
	if cfg.PathSamples < 2 {
		cfg.PathSamples = 2
	}
	return &Validator{cfg: cfg, deps: deps}
}

// ValidateMove runs the move pipeline for unit wanting to stand at target,
// against the committed positions in others. Checks run in a fixed order
// and the first failure wins:
//
//	invalid unit, wrong phase, wrong owner, cannot move, out of range,
//	out of bounds, overlap, impassable terrain.
//
// Bounds failures suggest the clamped position; overlap failures suggest a
// nearby free position when one survives the budget and bounds clamps.
func (v *Validator) ValidateMove(unit *Unit, target geometry.Vec2, others []geometry.Placed) Result {
	if unit == nil || unit.Validate() != nil {
		return refuse(ReasonInvalid, "no valid unit")
	}
	if v.deps.Turns != nil {
		if !v.deps.Turns.IsActivePhase(PhaseMovement) {
			return refuse(ReasonWrongPhase, "moves are only legal in the movement phase")
		}
		if !v.deps.Turns.IsActiveOwner(unit.Owner) {
			return refuse(ReasonWrongOwner, fmt.Sprintf("player %d is not active", unit.Owner))
		}
	}
	if !unit.Deployed || !unit.CanMove {
		return refuse(ReasonCannotMove, fmt.Sprintf("unit %s cannot move", unit.ID))
	}

	dist := unit.Position.DistanceTo(target)
	if dist > unit.MoveLeft+1e-9 {
		msg := fmt.Sprintf("needs %s of movement, %s remaining",
			v.deps.Converter.FormatDistance(dist, 1),
			v.deps.Converter.FormatDistance(unit.MoveLeft, 1))
		return refuse(ReasonOutOfRange, msg)
	}

	if !v.deps.Bounds.Contains(target) {
		return refuseAt(ReasonOutOfBounds, "target is off the battlefield", v.deps.Bounds.Clamp(target))
	}

	if geometry.OverlapsAny(target, unit.Radius, others, unit.ID) {
		r := refuse(ReasonOverlap, "target overlaps another unit")
		if s, ok := v.suggestFree(unit, target, others); ok {
			r.Suggested = &s
		}
		return r
	}

	if v.cfg.CheckTerrain && v.deps.Ground != nil && v.deps.Ground.Impassable(target) {
		return refuse(ReasonImpassableTerrain, "target terrain cannot be entered")
	}
	return pass()
}

// ValidateDeployment checks that unit may be set up at pos by player: the
// position must lie in the player's deployment zone and must not overlap a
// placed unit. Zone failures suggest the zone-clamped position.
func (v *Validator) ValidateDeployment(unit *Unit, pos geometry.Vec2, player int, others []geometry.Placed) Result {
	if unit == nil || unit.Validate() != nil {
		return refuse(ReasonInvalid, "no valid unit")
	}
	if v.deps.Zones != nil && !v.deps.Zones.CanDeployAt(pos, player) {
		return refuseAt(ReasonOutsideZone,
			fmt.Sprintf("outside player %d's deployment zone", player),
			v.deps.Zones.ClampToZone(pos, player))
	}
	if geometry.OverlapsAny(pos, unit.Radius, others, unit.ID) {
		r := refuse(ReasonOverlap, "position overlaps another unit")
		if s, ok := v.suggestDeploy(unit, pos, player, others); ok {
			r.Suggested = &s
		}
		return r
	}
	return pass()
}

// PathClear samples the segment from->to at the configured count, endpoints
// included, and reports whether every sample is free of overlap. This is a
// discrete approximation: an obstacle thinner than the sample spacing can
// slip between two samples undetected.
func (v *Validator) PathClear(unit *Unit, from, to geometry.Vec2, others []geometry.Placed) bool {
	if unit == nil {
		return false
	}
	n := v.cfg.PathSamples
	for i := 0; i < n; i++ {
		p := geometry.Lerp(from, to, float64(i)/float64(n-1))
		if geometry.OverlapsAny(p, unit.Radius, others, unit.ID) {
			return false
		}
	}
	return true
}

// MoveCost returns the canonical cost of moving unit from its current
// position to target: straight-line distance scaled by the terrain modifier
// at the destination. Without a ground oracle the modifier is 1.
func (v *Validator) MoveCost(unit *Unit, target geometry.Vec2) float64 {
	if unit == nil {
		return 0
	}
	dist := unit.Position.DistanceTo(target)
	if v.deps.Ground == nil {
		return dist
	}
	return dist * v.deps.Ground.MoveModifier(target)
}

// suggestFree looks for a standable alternative near target: spiral search
// first, then the result is pulled back inside the unit's movement budget
// and the battlefield. A suggestion that still overlaps after clamping is
// withheld.
func (v *Validator) suggestFree(unit *Unit, target geometry.Vec2, others []geometry.Placed) (geometry.Vec2, bool) {
	s := geometry.FindNearestFree(target, unit.Radius, others, unit.ID, v.deps.Search)
	if s == target {
		return geometry.Vec2{}, false
	}
	if d := unit.Position.DistanceTo(s); d > unit.MoveLeft {
		dir := s.Sub(unit.Position).Normalized()
		s = unit.Position.Add(dir.Scale(unit.MoveLeft))
	}
	s = v.deps.Bounds.Clamp(s)
	if geometry.OverlapsAny(s, unit.Radius, others, unit.ID) {
		return geometry.Vec2{}, false
	}
	return s, true
}

// suggestDeploy is the deployment variant of suggestFree: the clamp target
// is the player's zone instead of the movement budget.
func (v *Validator) suggestDeploy(unit *Unit, pos geometry.Vec2, player int, others []geometry.Placed) (geometry.Vec2, bool) {
	s := geometry.FindNearestFree(pos, unit.Radius, others, unit.ID, v.deps.Search)
	if s == pos {
		return geometry.Vec2{}, false
	}
	if v.deps.Zones != nil {
		s = v.deps.Zones.ClampToZone(s, player)
	} else {
		s = v.deps.Bounds.Clamp(s)
	}
	if geometry.OverlapsAny(s, unit.Radius, others, unit.ID) {
		return geometry.Vec2{}, false
	}
	return s, true
}
