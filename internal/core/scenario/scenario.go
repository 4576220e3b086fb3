// Package scenario defines the battle setup files the server and the replay
// tool load: table size, terrain, deployment zones, and armies. All
// distances in a scenario file are display inches; Build converts them to
// canonical units through the scenario's own scale.
package scenario

import (
	"fmt"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/core/terrain"
)

// Scenario is one decoded battle setup.
type Scenario struct {
	Name    string                 `json:"name" yaml:"name"`
	Table   Table                  `json:"table" yaml:"table"`
	Rules   battle.ValidatorConfig `json:"rules,omitempty" yaml:"rules,omitempty"`
	Terrain []FeatureDef           `json:"terrain,omitempty" yaml:"terrain,omitempty"`
	Zones   []ZoneDef              `json:"zones,omitempty" yaml:"zones,omitempty"`
	Armies  []Army                 `json:"armies" yaml:"armies"`
}

// Table describes the playing surface and the engine scale.
type Table struct {
	WidthInches  float64 `json:"width" yaml:"width"`
	HeightInches float64 `json:"height" yaml:"height"`
	// UnitsPerInch is the canonical-units-per-inch scale; 0 means 1.0.
	UnitsPerInch float64 `json:"units_per_inch,omitempty" yaml:"units_per_inch,omitempty"`
	// SightDepthInches is the forest depth a sight line survives; 0 keeps
	// the terrain default.
	SightDepthInches float64 `json:"sight_depth,omitempty" yaml:"sight_depth,omitempty"`
}

// RectDef is an axis-aligned rectangle in inches.
type RectDef struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// FeatureDef places one terrain feature.
type FeatureDef struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Kind         terrain.Kind `json:"kind" yaml:"kind"`
	Area         RectDef      `json:"area" yaml:"area"`
	HeightInches float64      `json:"height,omitempty" yaml:"height,omitempty"`
}

// ZoneDef declares one player's deployment zone.
type ZoneDef struct {
	Player int     `json:"player" yaml:"player"`
	Area   RectDef `json:"area" yaml:"area"`
}

// Army is one player's unit list.
type Army struct {
	Player int       `json:"player" yaml:"player"`
	Units  []UnitDef `json:"units" yaml:"units"`
}

// UnitDef describes one unit. DeployAt pre-places the unit on the table, in
// inches; without it the unit starts off-table and enters through the
// deployment phase.
type UnitDef struct {
	Name       string            `json:"name" yaml:"name"`
	Base       geometry.BaseSize `json:"base" yaml:"base"`
	MoveInches float64           `json:"move" yaml:"move"`
	Elevation  float64           `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	DeployAt   *PointDef         `json:"deploy_at,omitempty" yaml:"deploy_at,omitempty"`
}

// PointDef is a table coordinate in inches.
type PointDef struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Players returns the player count implied by armies and zones: the highest
// declared index plus one, but never fewer than two.
func (s *Scenario) Players() int {
	max := 1
	for _, a := range s.Armies {
		if a.Player > max {
			max = a.Player
		}
	}
	for _, z := range s.Zones {
		if z.Player > max {
			max = z.Player
		}
	}
	return max + 1
}

// Validate rejects scenarios that could not assemble into a playable battle.
// Build calls it; loaders surface its errors with file context attached.
func (s *Scenario) Validate() error {
	if s.Table.WidthInches <= 0 || s.Table.HeightInches <= 0 {
		return fmt.Errorf("scenario: table must have positive size, got %vx%v",
			s.Table.WidthInches, s.Table.HeightInches)
	}
	if s.Table.UnitsPerInch < 0 {
		return fmt.Errorf("scenario: negative units-per-inch scale %v", s.Table.UnitsPerInch)
	}
	if len(s.Armies) == 0 {
		return fmt.Errorf("scenario: no armies")
	}

	table := RectDef{W: s.Table.WidthInches, H: s.Table.HeightInches}
	for i, f := range s.Terrain {
		if !terrain.Known(f.Kind) {
			return fmt.Errorf("scenario: terrain %d: unknown kind %q", i, f.Kind)
		}
		if f.Area.W <= 0 || f.Area.H <= 0 {
			return fmt.Errorf("scenario: terrain %d (%s): empty area", i, f.Kind)
		}
		if !table.covers(f.Area) {
			return fmt.Errorf("scenario: terrain %d (%s): area leaves the table", i, f.Kind)
		}
	}
	for i, z := range s.Zones {
		if z.Player < 0 {
			return fmt.Errorf("scenario: zone %d: negative player %d", i, z.Player)
		}
		if z.Area.W <= 0 || z.Area.H <= 0 {
			return fmt.Errorf("scenario: zone %d: empty area", i)
		}
		if !table.covers(z.Area) {
			return fmt.Errorf("scenario: zone %d: area leaves the table", i)
		}
	}
	for _, a := range s.Armies {
		if a.Player < 0 {
			return fmt.Errorf("scenario: army of negative player %d", a.Player)
		}
		if len(a.Units) == 0 {
			return fmt.Errorf("scenario: player %d has an empty army", a.Player)
		}
		for j, u := range a.Units {
			if u.MoveInches < 0 {
				return fmt.Errorf("scenario: player %d unit %d (%s): negative movement", a.Player, j, u.Name)
			}
			if u.Base == "" {
				return fmt.Errorf("scenario: player %d unit %d (%s): no base size", a.Player, j, u.Name)
			}
		}
	}
	return nil
}

func (r RectDef) covers(o RectDef) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

func (r RectDef) rect(scale float64) geometry.Rect {
	return geometry.Rect{
		Min: geometry.Vec2{X: r.X * scale, Y: r.Y * scale},
		Max: geometry.Vec2{X: (r.X + r.W) * scale, Y: (r.Y + r.H) * scale},
	}
}
