package geometry

import "github.com/google/uuid"

// LayerMask selects which terrain feature kinds a sight ray may collide with.
// The terrain package assigns one bit per feature kind.
type LayerMask uint32

// MaskAll matches every layer.
const MaskAll LayerMask = ^LayerMask(0)

// Raycaster reports the first static-geometry hit along the segment from
// origin to target, restricted to the given layers. ok is false when the
// segment reaches target unobstructed.
type Raycaster interface {
	Raycast(origin, target Vec3, mask LayerMask) (hit Vec3, ok bool)
}

// OcclusionOracle answers area-occlusion questions a surface raycast cannot,
// such as sight lines smothered by deep forest.
type OcclusionOracle interface {
	BlocksSight(from, to Vec2) bool
}

// SightConfig carries the tunables of line-of-sight resolution.
type SightConfig struct {
	// HeightOffset lifts sight endpoints above a unit's ground elevation,
	// approximating eye level. Canonical units.
	HeightOffset float64
	// Mask restricts which static-geometry layers block sight.
	Mask LayerMask
	// VisibilitySamples is the default sample count for VisibilityFraction.
	VisibilitySamples int
}

// DefaultSightConfig returns the stock sight tunables.
func DefaultSightConfig() SightConfig {
	return SightConfig{
		HeightOffset:      0.5,
		Mask:              MaskAll,
		VisibilitySamples: 5,
	}
}

// SightPoint is a ground position with the elevation of whatever stands
// there. The sight engine adds its own height offset on top.
type SightPoint struct {
	Pos       Vec2
	Elevation float64
}

// Sight resolves line-of-sight questions against static geometry and
// terrain. Both oracles are optional; an absent oracle never blocks. That
// fail-open policy matches how the rest of the engine treats missing
// collaborators: sight degrades to "clear" rather than refusing to answer.
type Sight struct {
	cfg     SightConfig
	ray     Raycaster
	terrain OcclusionOracle
}

// NewSight builds a sight engine over the given oracles. Either oracle may be
// nil.
func NewSight(cfg SightConfig, ray Raycaster, terrain OcclusionOracle) *Sight {
	if cfg.VisibilitySamples <= 0 {
		cfg.VisibilitySamples = 1
	}
	return &Sight{cfg: cfg, ray: ray, terrain: terrain}
}

// Config returns the tunables the engine was built with.
func (s *Sight) Config() SightConfig { return s.cfg }

func (s *Sight) eye(p SightPoint) Vec3 {
	return Vec3{X: p.Pos.X, Y: p.Pos.Y, Z: p.Elevation + s.cfg.HeightOffset}
}

// segmentClear runs the blocking checks in their fixed order: static geometry
// first, then terrain occlusion. It stops at the first blocking cause.
func (s *Sight) segmentClear(origin, target Vec3) bool {
	if s.ray != nil {
		if _, hit := s.ray.Raycast(origin, target, s.cfg.Mask); hit {
			return false
		}
	}
	if s.terrain != nil && s.terrain.BlocksSight(origin.Ground(), target.Ground()) {
		return false
	}
	return true
}

// HasLineOfSight reports whether the eye point above from can see the eye
// point above to. For identical endpoints the answer is always true.
func (s *Sight) HasLineOfSight(from, to SightPoint) bool {
	return s.segmentClear(s.eye(from), s.eye(to))
}

// VisibilityFraction estimates how much of the target silhouette is visible
// from the observer's eye point, as the fraction of clear sight samples. The
// samples span the target's vertical extent, from ground elevation up to eye
// height. samples <= 0 uses the configured default.
//
// This is a sampling approximation of partial cover, not an exact visible
// area computation; a silhouette thinner than the sample spacing can be
// misjudged either way.
func (s *Sight) VisibilityFraction(from, to SightPoint, samples int) float64 {
	if samples <= 0 {
		samples = s.cfg.VisibilitySamples
	}
	origin := s.eye(from)
	clear := 0
	for i := 0; i < samples; i++ {
		frac := 1.0
		if samples > 1 {
			frac = float64(i) / float64(samples-1)
		}
		target := Vec3{
			X: to.Pos.X,
			Y: to.Pos.Y,
			Z: to.Elevation + s.cfg.HeightOffset*frac,
		}
		if s.segmentClear(origin, target) {
			clear++
		}
	}
	return float64(clear) / float64(samples)
}

// CoverFromDirection reports whether point enjoys cover against fire arriving
// along dir: true iff the probe segment approaching point from probeDistance
// away up-threat is interrupted by anything. A zero direction or non-positive
// probe distance means no cover can be established.
func (s *Sight) CoverFromDirection(point SightPoint, dir Vec2, probeDistance float64) bool {
	d := dir.Normalized()
	if (d == Vec2{}) || probeDistance <= 0 {
		return false
	}
	start := SightPoint{
		Pos:       point.Pos.Sub(d.Scale(probeDistance)),
		Elevation: point.Elevation,
	}
	return !s.HasLineOfSight(start, point)
}

// AnyEntityBlocksSight reports whether any candidate base, other than those in
// ignore, intersects the ground segment from one eye point to the other. The
// test projects each candidate center onto the segment direction, clamps the
// projection to [0, length], and compares the closest point against the
// candidate's radius. Degenerate (near-zero) segments block on nothing.
func AnyEntityBlocksSight(from, to Vec2, candidates []Placed, ignore map[uuid.UUID]struct{}) bool {
	seg := to.Sub(from)
	segLen := seg.Len()
	if segLen < epsilon {
		return false
	}
	dir := seg.Scale(1 / segLen)
	for _, c := range candidates {
		if _, skip := ignore[c.ID]; skip {
			continue
		}
		t := c.Center.Sub(from).Dot(dir)
		if t < 0 {
			t = 0
		} else if t > segLen {
			t = segLen
		}
		closest := from.Add(dir.Scale(t))
		if closest.DistanceTo(c.Center) < c.Radius {
			return true
		}
	}
	return false
}
