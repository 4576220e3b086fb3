package terrain

import (
	"fmt"
	"math"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Config describes a battlefield: its bounds, the features standing on it,
// and how many canonical units of area-occluder depth a sight line survives.
type Config struct {
	Bounds     geometry.Rect `json:"bounds" yaml:"bounds"`
	SightDepth float64       `json:"sight_depth" yaml:"sight_depth"`
	Features   []Feature     `json:"features" yaml:"features"`
}

// DefaultConfig returns an empty standard-size battlefield.
func DefaultConfig() Config {
	return Config{
		Bounds:     geometry.Rect{Max: geometry.Vec2{X: 48, Y: 48}},
		SightDepth: 3.0,
	}
}

// Map answers the spatial questions the rules engine asks about terrain.
// It implements both sight oracles of the geometry package: Raycast for
// surface occluders (walls, barricades) and BlocksSight for area occluders
// (forest depth). A Map is immutable after New and safe for concurrent use.
type Map struct {
	bounds     geometry.Rect
	sightDepth float64
	features   []Feature
}

// New validates cfg and builds a Map. Features of unknown kind, with empty
// footprints, or with negative height overrides are rejected.
func New(cfg Config) (*Map, error) {
	if cfg.Bounds.Width() <= 0 || cfg.Bounds.Height() <= 0 {
		return nil, fmt.Errorf("terrain: empty bounds %+v", cfg.Bounds)
	}
	if cfg.SightDepth <= 0 {
		cfg.SightDepth = DefaultConfig().SightDepth
	}
	for i, f := range cfg.Features {
		if !Known(f.Kind) {
			return nil, fmt.Errorf("terrain: feature %d: unknown kind %q", i, f.Kind)
		}
		if f.Height < 0 {
			return nil, fmt.Errorf("terrain: feature %d (%s): negative height", i, f.Kind)
		}
		if f.Bounds.Width() <= 0 || f.Bounds.Height() <= 0 {
			return nil, fmt.Errorf("terrain: feature %d (%s): empty footprint", i, f.Kind)
		}
	}
	features := make([]Feature, len(cfg.Features))
	copy(features, cfg.Features)
	return &Map{bounds: cfg.Bounds, sightDepth: cfg.SightDepth, features: features}, nil
}

// Bounds returns the playable area.
func (m *Map) Bounds() geometry.Rect { return m.bounds }

// Features returns a copy of the feature list.
func (m *Map) Features() []Feature {
	out := make([]Feature, len(m.features))
	copy(out, m.features)
	return out
}

// FeaturesAt returns the features whose footprint contains p.
func (m *Map) FeaturesAt(p geometry.Vec2) []Feature {
	var out []Feature
	for _, f := range m.features {
		if f.Bounds.Contains(p) {
			out = append(out, f)
		}
	}
	return out
}

// Raycast returns the first point where the segment origin->target strikes a
// solid feature on a masked layer. Each solid feature occupies the prism of
// its footprint from the ground up to its effective height, so rays clearing
// that height pass over it.
func (m *Map) Raycast(origin, target geometry.Vec3, mask geometry.LayerMask) (geometry.Vec3, bool) {
	best := math.Inf(1)
	for _, f := range m.features {
		p := f.props()
		if !p.solid || p.layer&mask == 0 {
			continue
		}
		if t, ok := segmentPrism(origin, target, f.Bounds, f.EffectiveHeight()); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return geometry.Vec3{}, false
	}
	d := target.Sub(origin)
	return geometry.Vec3{
		X: origin.X + d.X*best,
		Y: origin.Y + d.Y*best,
		Z: origin.Z + d.Z*best,
	}, true
}

// BlocksSight reports whether the ground segment from->to crosses strictly
// more area-occluder depth than the map's sight depth. Chords through
// separate occluders accumulate.
func (m *Map) BlocksSight(from, to geometry.Vec2) bool {
	segLen := from.DistanceTo(to)
	if segLen < 1e-12 {
		return false
	}
	depth := 0.0
	for _, f := range m.features {
		if !f.props().area {
			continue
		}
		if t0, t1, ok := segmentRect(from, to, f.Bounds); ok {
			depth += (t1 - t0) * segLen
			if depth > m.sightDepth {
				return true
			}
		}
	}
	return false
}

// MoveModifier returns the worst movement cost multiplier among the features
// under p. Open ground is 1.
func (m *Map) MoveModifier(p geometry.Vec2) float64 {
	mod := 1.0
	for _, f := range m.features {
		if !f.Bounds.Contains(p) {
			continue
		}
		if c := f.MoveCost(); c > mod {
			mod = c
		}
	}
	return mod
}

// Impassable reports whether p lies inside a feature that cannot be entered.
func (m *Map) Impassable(p geometry.Vec2) bool {
	for _, f := range m.features {
		if f.Impassable() && f.Bounds.Contains(p) {
			return true
		}
	}
	return false
}

// segmentPrism returns the first parameter t in [0,1] where the segment
// origin->target enters the prism footprint x [0,height], or false when the
// segment misses it entirely.
func segmentPrism(origin, target geometry.Vec3, footprint geometry.Rect, height float64) (float64, bool) {
	d := target.Sub(origin)
	tMin, tMax := 0.0, 1.0
	var ok bool
	if tMin, tMax, ok = slab(origin.X, d.X, footprint.Min.X, footprint.Max.X, tMin, tMax); !ok {
		return 0, false
	}
	if tMin, tMax, ok = slab(origin.Y, d.Y, footprint.Min.Y, footprint.Max.Y, tMin, tMax); !ok {
		return 0, false
	}
	if tMin, tMax, ok = slab(origin.Z, d.Z, 0, height, tMin, tMax); !ok {
		return 0, false
	}
	return tMin, true
}

// segmentRect returns the parameter span [t0,t1] of the 2D segment from->to
// inside r, or false when the segment misses it.
func segmentRect(from, to geometry.Vec2, r geometry.Rect) (float64, float64, bool) {
	d := to.Sub(from)
	tMin, tMax := 0.0, 1.0
	var ok bool
	if tMin, tMax, ok = slab(from.X, d.X, r.Min.X, r.Max.X, tMin, tMax); !ok {
		return 0, 0, false
	}
	if tMin, tMax, ok = slab(from.Y, d.Y, r.Min.Y, r.Max.Y, tMin, tMax); !ok {
		return 0, 0, false
	}
	return tMin, tMax, true
}

// slab narrows the running [tMin,tMax] interval to one axis slab [lo,hi]
// along direction d from origin coordinate o.
func slab(o, d, lo, hi, tMin, tMax float64) (float64, float64, bool) {
	if math.Abs(d) < 1e-12 {
		if o < lo || o > hi {
			return 0, 0, false
		}
		return tMin, tMax, true
	}
	inv := 1 / d
	t1 := (lo - o) * inv
	t2 := (hi - o) * inv
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > tMin {
		tMin = t1
	}
	if t2 < tMax {
		tMax = t2
	}
	if tMin > tMax {
		return 0, 0, false
	}
	return tMin, tMax, true
}
