package battle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Unit is one model on the battlefield. Position and movement budget are in
// canonical units; the radius comes from the unit's base size unless set
// explicitly. Units are owned by the Roster and mutated only through it.
type Unit struct {
	ID        uuid.UUID         `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Owner     int               `json:"owner" yaml:"owner"`
	Base      geometry.BaseSize `json:"base" yaml:"base"`
	Position  geometry.Vec2     `json:"position" yaml:"position"`
	Elevation float64           `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	Radius    float64           `json:"radius" yaml:"radius"`
	Move      float64           `json:"move" yaml:"move"`
	MoveLeft  float64           `json:"move_left" yaml:"move_left"`
	CanMove   bool              `json:"can_move" yaml:"can_move"`
	Deployed  bool              `json:"deployed" yaml:"deployed"`
}

// Validate rejects units that would poison collision math.
func (u *Unit) Validate() error {
	if u == nil {
		return fmt.Errorf("battle: nil unit")
	}
	if u.ID == uuid.Nil {
		return fmt.Errorf("battle: unit %q has no id", u.Name)
	}
	if u.Radius <= 0 {
		return fmt.Errorf("battle: unit %s has non-positive radius %v", u.ID, u.Radius)
	}
	if u.Owner < 0 {
		return fmt.Errorf("battle: unit %s has negative owner %d", u.ID, u.Owner)
	}
	if u.Move < 0 || u.MoveLeft < 0 {
		return fmt.Errorf("battle: unit %s has negative movement budget", u.ID)
	}
	return nil
}

// Placed returns the unit's collision circle.
func (u *Unit) Placed() geometry.Placed {
	return geometry.Placed{ID: u.ID, Center: u.Position, Radius: u.Radius}
}

// SightPoint returns the unit's ground position and elevation for sight
// queries.
func (u *Unit) SightPoint() geometry.SightPoint {
	return geometry.SightPoint{Pos: u.Position, Elevation: u.Elevation}
}
