package geometry

import (
	"math"

	"github.com/google/uuid"
)

// Placed is the collision footprint of a roster entity: a circle with the
// identity needed to exclude it from its own queries. The geometry core never
// holds on to these; callers snapshot them per call.
type Placed struct {
	ID     uuid.UUID
	Center Vec2
	Radius float64
}

// CirclesOverlap reports whether two base circles overlap. The comparison is
// strict: bases exactly touching (distance == sum of radii) do not overlap,
// which lets units stand in base contact.
func CirclesOverlap(a Vec2, ra float64, b Vec2, rb float64) bool {
	return a.DistanceTo(b) < ra+rb
}

// PenetrationDepth returns how deeply two circles interpenetrate, or 0 when
// they do not overlap.
func PenetrationDepth(a Vec2, ra float64, b Vec2, rb float64) float64 {
	d := ra + rb - a.DistanceTo(b)
	if d < 0 {
		return 0
	}
	return d
}

// OverlapsAny reports whether a circle at pos would overlap any candidate
// other than the one identified by ignore. Pass uuid.Nil to exclude nothing.
func OverlapsAny(pos Vec2, radius float64, candidates []Placed, ignore uuid.UUID) bool {
	for _, c := range candidates {
		if c.ID == ignore {
			continue
		}
		if CirclesOverlap(pos, radius, c.Center, c.Radius) {
			return true
		}
	}
	return false
}

// SearchConfig bounds the spiral search for a free position. All distances
// are canonical units.
type SearchConfig struct {
	Step           float64 // spacing between concentric rings
	MaxRadius      float64 // outermost ring tested
	AngularSamples int     // positions probed per ring
}

// DefaultSearchConfig returns the stock spiral parameters: half-unit rings out
// to three display inches, sixteen angles per ring.
func DefaultSearchConfig(conv Converter) SearchConfig {
	return SearchConfig{
		Step:           0.5,
		MaxRadius:      conv.FromInches(3),
		AngularSamples: 16,
	}
}

// FindNearestFree returns a position at or near desired where a circle of the
// given radius overlaps no candidate (excluding ignore).
//
// If desired is already free it is returned exactly as passed. Otherwise the
// search walks concentric rings outward — ring radius Step, 2·Step, … up to
// MaxRadius — probing AngularSamples equally spaced angles per ring, ascending
// from 0°. The first free probe wins. The enumeration order is fixed, so
// identical inputs (including candidate order) always produce the identical
// answer; AI scoring and suggestion UIs depend on that reproducibility.
//
// When no probe in the search space is free, desired is returned unchanged.
// That is the documented "no better answer" outcome, not an error.
func FindNearestFree(desired Vec2, radius float64, candidates []Placed, ignore uuid.UUID, cfg SearchConfig) Vec2 {
	if !OverlapsAny(desired, radius, candidates, ignore) {
		return desired
	}
	if cfg.Step <= 0 || cfg.AngularSamples <= 0 {
		return desired
	}
	for ring := 1; ; ring++ {
		r := float64(ring) * cfg.Step
		if r > cfg.MaxRadius+epsilon {
			break
		}
		for k := 0; k < cfg.AngularSamples; k++ {
			angle := 2 * math.Pi * float64(k) / float64(cfg.AngularSamples)
			p := Vec2{
				X: desired.X + r*math.Cos(angle),
				Y: desired.Y + r*math.Sin(angle),
			}
			if !OverlapsAny(p, radius, candidates, ignore) {
				return p
			}
		}
	}
	return desired
}
