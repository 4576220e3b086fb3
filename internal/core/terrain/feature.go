package terrain

import (
	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Kind labels a class of battlefield feature. The kind fixes the feature's
// physical behaviour: how tall it stands, whether sight and movement pass
// through it, and how badly it slows anything crossing it.
type Kind string

const (
	// KindWall is solid vertical terrain. It stops sight rays below its
	// height and cannot be entered.
	KindWall Kind = "wall"
	// KindBarricade is a low obstacle. It stops sight rays below its height;
	// units cross it at a movement penalty.
	KindBarricade Kind = "barricade"
	// KindForest is an area occluder. No single trunk stops a ray, but enough
	// accumulated depth smothers a sight line. Slow going underfoot.
	KindForest Kind = "forest"
	// KindRubble is loose debris. It never blocks sight and slows movement.
	KindRubble Kind = "rubble"
	// KindCrater is a shallow depression. No effect on sight, mild slow.
	KindCrater Kind = "crater"
)

// Collision layer bits, one per feature kind. Sight queries carry a mask of
// these to pick which kinds their rays may collide with.
const (
	LayerWall geometry.LayerMask = 1 << iota
	LayerBarricade
	LayerForest
	LayerRubble
	LayerCrater
)

type properties struct {
	height     float64
	layer      geometry.LayerMask
	solid      bool // stops sight rays as a surface
	area       bool // occludes sight by accumulated depth
	impassable bool
	moveCost   float64
}

var kindProps = map[Kind]properties{
	KindWall:      {height: 2.0, layer: LayerWall, solid: true, impassable: true, moveCost: 1},
	KindBarricade: {height: 1.0, layer: LayerBarricade, solid: true, moveCost: 1.5},
	KindForest:    {height: 2.0, layer: LayerForest, area: true, moveCost: 2},
	KindRubble:    {height: 0.5, layer: LayerRubble, moveCost: 2},
	KindCrater:    {height: 0, layer: LayerCrater, moveCost: 1.5},
}

// Known reports whether k names a defined feature kind.
func Known(k Kind) bool {
	_, ok := kindProps[k]
	return ok
}

// Feature is one terrain element: an axis-aligned footprint with a kind and
// an optional height override.
type Feature struct {
	Name   string        `json:"name,omitempty" yaml:"name,omitempty"`
	Kind   Kind          `json:"kind" yaml:"kind"`
	Bounds geometry.Rect `json:"bounds" yaml:"bounds"`
	Height float64       `json:"height,omitempty" yaml:"height,omitempty"`
}

func (f Feature) props() properties { return kindProps[f.Kind] }

// EffectiveHeight is the feature's override height if set, else the kind
// default.
func (f Feature) EffectiveHeight() float64 {
	if f.Height > 0 {
		return f.Height
	}
	return f.props().height
}

// Layer returns the collision layer bit of the feature's kind.
func (f Feature) Layer() geometry.LayerMask { return f.props().layer }

// Impassable reports whether ground inside the feature cannot be entered.
func (f Feature) Impassable() bool { return f.props().impassable }

// MoveCost returns the movement cost multiplier for ground inside the
// feature. 1 means unimpeded.
func (f Feature) MoveCost() float64 {
	if c := f.props().moveCost; c > 0 {
		return c
	}
	return 1
}
