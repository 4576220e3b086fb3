package geometry

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

type clearRays struct{}

func (clearRays) Raycast(_, _ Vec3, _ LayerMask) (Vec3, bool) { return Vec3{}, false }

type blockAllRays struct{}

func (blockAllRays) Raycast(origin, _ Vec3, _ LayerMask) (Vec3, bool) { return origin, true }

// wallAtX blocks any segment whose endpoints straddle the plane x = w.x.
type wallAtX struct{ x float64 }

func (w wallAtX) Raycast(origin, target Vec3, _ LayerMask) (Vec3, bool) {
	if (origin.X-w.x)*(target.X-w.x) < 0 {
		return Vec3{X: w.x, Y: origin.Y, Z: origin.Z}, true
	}
	return Vec3{}, false
}

// blockBelow blocks segments aimed at targets lower than z.
type blockBelow struct{ z float64 }

func (b blockBelow) Raycast(_, target Vec3, _ LayerMask) (Vec3, bool) {
	if target.Z < b.z {
		return target, true
	}
	return Vec3{}, false
}

type recordingRay struct {
	origin, target Vec3
	mask           LayerMask
}

func (r *recordingRay) Raycast(origin, target Vec3, mask LayerMask) (Vec3, bool) {
	r.origin, r.target, r.mask = origin, target, mask
	return Vec3{}, false
}

type countingOcclusion struct {
	calls int
	block bool
}

func (c *countingOcclusion) BlocksSight(_, _ Vec2) bool {
	c.calls++
	return c.block
}

func TestSight_NilOraclesAreClear(t *testing.T) {
	s := NewSight(DefaultSightConfig(), nil, nil)
	if !s.HasLineOfSight(SightPoint{Pos: Vec2{0, 0}}, SightPoint{Pos: Vec2{40, 40}}) {
		t.Error("sight with no oracles must be clear")
	}
	if got := s.VisibilityFraction(SightPoint{Pos: Vec2{0, 0}}, SightPoint{Pos: Vec2{10, 0}}, 5); got != 1 {
		t.Errorf("VisibilityFraction = %v, want 1", got)
	}
}

func TestSight_RaycastBlocks(t *testing.T) {
	s := NewSight(DefaultSightConfig(), wallAtX{x: 5}, nil)
	a := SightPoint{Pos: Vec2{0, 0}}
	b := SightPoint{Pos: Vec2{10, 0}}
	c := SightPoint{Pos: Vec2{4, 0}}
	if s.HasLineOfSight(a, b) {
		t.Error("segment through the wall should be blocked")
	}
	if !s.HasLineOfSight(a, c) {
		t.Error("segment short of the wall should be clear")
	}
}

func TestSight_TerrainBlocksWhenRayClear(t *testing.T) {
	occ := &countingOcclusion{block: true}
	s := NewSight(DefaultSightConfig(), clearRays{}, occ)
	if s.HasLineOfSight(SightPoint{Pos: Vec2{0, 0}}, SightPoint{Pos: Vec2{1, 0}}) {
		t.Error("terrain occlusion should block when the ray is clear")
	}
	if occ.calls != 1 {
		t.Errorf("occlusion consulted %d times, want 1", occ.calls)
	}
}

func TestSight_RaycastShortCircuitsTerrain(t *testing.T) {
	occ := &countingOcclusion{block: true}
	s := NewSight(DefaultSightConfig(), blockAllRays{}, occ)
	if s.HasLineOfSight(SightPoint{Pos: Vec2{0, 0}}, SightPoint{Pos: Vec2{1, 0}}) {
		t.Error("blocked ray should end the check")
	}
	if occ.calls != 0 {
		t.Errorf("occlusion consulted %d times after a ray hit, want 0", occ.calls)
	}
}

func TestSight_Symmetry(t *testing.T) {
	s := NewSight(DefaultSightConfig(), wallAtX{x: 3}, nil)
	pairs := []struct{ a, b SightPoint }{
		{SightPoint{Pos: Vec2{0, 0}}, SightPoint{Pos: Vec2{10, 2}}},
		{SightPoint{Pos: Vec2{0, 5}}, SightPoint{Pos: Vec2{2, 5}}},
		{SightPoint{Pos: Vec2{4, 0}}, SightPoint{Pos: Vec2{9, 9}}},
	}
	for _, p := range pairs {
		ab := s.HasLineOfSight(p.a, p.b)
		ba := s.HasLineOfSight(p.b, p.a)
		if ab != ba {
			t.Errorf("asymmetric sight between %v and %v: %v vs %v", p.a.Pos, p.b.Pos, ab, ba)
		}
	}
}

func TestSight_EyeHeightAndMask(t *testing.T) {
	rec := &recordingRay{}
	cfg := SightConfig{HeightOffset: 0.5, Mask: 0b1010, VisibilitySamples: 5}
	s := NewSight(cfg, rec, nil)
	s.HasLineOfSight(SightPoint{Pos: Vec2{1, 2}, Elevation: 1.0}, SightPoint{Pos: Vec2{3, 4}, Elevation: 2.0})

	if rec.origin.Z != 1.5 || rec.target.Z != 2.5 {
		t.Errorf("eye heights %v and %v, want 1.5 and 2.5", rec.origin.Z, rec.target.Z)
	}
	if rec.mask != 0b1010 {
		t.Errorf("mask %b did not reach the raycaster", rec.mask)
	}
}

func TestSight_VisibilityFraction(t *testing.T) {
	// Samples at z = 0, 0.125, 0.25, 0.375, 0.5; the lowest two are blocked.
	s := NewSight(DefaultSightConfig(), blockBelow{z: 0.2}, nil)
	from := SightPoint{Pos: Vec2{0, 0}, Elevation: 10}
	to := SightPoint{Pos: Vec2{5, 0}}
	if got := s.VisibilityFraction(from, to, 5); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("VisibilityFraction = %v, want 0.6", got)
	}

	blocked := NewSight(DefaultSightConfig(), blockAllRays{}, nil)
	if got := blocked.VisibilityFraction(from, to, 5); got != 0 {
		t.Errorf("fully blocked fraction = %v, want 0", got)
	}
}

func TestSight_VisibilityFractionDefaultSamples(t *testing.T) {
	s := NewSight(DefaultSightConfig(), blockBelow{z: 0.2}, nil)
	from := SightPoint{Pos: Vec2{0, 0}, Elevation: 10}
	to := SightPoint{Pos: Vec2{5, 0}}
	if got := s.VisibilityFraction(from, to, 0); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("default sample count fraction = %v, want 0.6", got)
	}
}

func TestSight_CoverFromDirection(t *testing.T) {
	s := NewSight(DefaultSightConfig(), wallAtX{x: -1}, nil)
	point := SightPoint{Pos: Vec2{0, 0}}

	if !s.CoverFromDirection(point, Vec2{1, 0}, 2) {
		t.Error("wall between threat and point should grant cover")
	}
	if s.CoverFromDirection(point, Vec2{-1, 0}, 2) {
		t.Error("open approach should grant no cover")
	}
	if s.CoverFromDirection(point, Vec2{}, 2) {
		t.Error("zero direction cannot grant cover")
	}
	if s.CoverFromDirection(point, Vec2{1, 0}, 0) {
		t.Error("zero probe distance cannot grant cover")
	}
}

func TestAnyEntityBlocksSight(t *testing.T) {
	blocker := uuid.New()
	tests := []struct {
		name       string
		from, to   Vec2
		candidates []Placed
		ignore     map[uuid.UUID]struct{}
		want       bool
	}{
		{
			name: "blocker on segment",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{5, 0.5}, Radius: 1}},
			want:       true,
		},
		{
			name: "blocker too far aside",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{5, 2}, Radius: 1}},
			want:       false,
		},
		{
			name: "grazing touch does not block",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{5, 1}, Radius: 1}},
			want:       false,
		},
		{
			name: "beyond the far endpoint",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{12, 0}, Radius: 1}},
			want:       false,
		},
		{
			name: "overhanging the far endpoint",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{10.5, 0}, Radius: 1}},
			want:       true,
		},
		{
			name: "ignored blocker",
			from: Vec2{0, 0}, to: Vec2{10, 0},
			candidates: []Placed{{ID: blocker, Center: Vec2{5, 0}, Radius: 1}},
			ignore:     map[uuid.UUID]struct{}{blocker: {}},
			want:       false,
		},
		{
			name: "degenerate segment",
			from: Vec2{3, 3}, to: Vec2{3, 3},
			candidates: []Placed{{ID: blocker, Center: Vec2{3, 3}, Radius: 5}},
			want:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyEntityBlocksSight(tt.from, tt.to, tt.candidates, tt.ignore); got != tt.want {
				t.Errorf("AnyEntityBlocksSight = %v, want %v", got, tt.want)
			}
		})
	}
}
