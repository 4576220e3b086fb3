package battle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// ErrUnknownUnit marks lookups of unit ids the roster has never seen.
var ErrUnknownUnit = errors.New("battle: unknown unit")

// Roster is the registry of units in one battle. It hands out copies, never
// interior pointers, so validation code can be called speculatively without
// risking mutation of committed state. Safe for concurrent use.
type Roster struct {
	mu    sync.RWMutex
	units map[uuid.UUID]*Unit
	order []uuid.UUID
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{units: make(map[uuid.UUID]*Unit)}
}

// Add validates u and registers it. A zero ID is assigned a fresh one; when
// the unit declares a base size but no radius, the radius is derived through
// conv. Duplicate IDs are rejected.
func (r *Roster) Add(u Unit, conv geometry.Converter) (uuid.UUID, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Radius == 0 && u.Base != "" {
		u.Radius = conv.RadiusForBase(u.Base)
	}
	if err := u.Validate(); err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.units[u.ID]; exists {
		return uuid.Nil, fmt.Errorf("battle: duplicate unit id %s", u.ID)
	}
	cp := u
	r.units[u.ID] = &cp
	r.order = append(r.order, u.ID)
	return u.ID, nil
}

// Get returns a copy of the unit, if present.
func (r *Roster) Get(id uuid.UUID) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

// Len returns the number of registered units.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// Units returns copies of all units in registration order.
func (r *Roster) Units() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.units[id])
	}
	return out
}

// ByOwner returns copies of one player's units in registration order.
func (r *Roster) ByOwner(owner int) []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Unit
	for _, id := range r.order {
		if u := r.units[id]; u.Owner == owner {
			out = append(out, *u)
		}
	}
	return out
}

// Placed returns the collision circles of all deployed units, in
// registration order. Undeployed units are not on the table and cannot
// collide.
func (r *Roster) Placed() []geometry.Placed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]geometry.Placed, 0, len(r.order))
	for _, id := range r.order {
		if u := r.units[id]; u.Deployed {
			out = append(out, u.Placed())
		}
	}
	return out
}

// ApplyMove commits a validated move: the unit takes the new position and
// cost is deducted from its remaining budget. Callers must have validated
// the move; ApplyMove only refuses unknown units and overdrawn budgets.
func (r *Roster) ApplyMove(id uuid.UUID, to geometry.Vec2, cost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownUnit, id)
	}
	if cost > u.MoveLeft+1e-9 {
		return fmt.Errorf("battle: move cost %.2f exceeds remaining %.2f for unit %s", cost, u.MoveLeft, id)
	}
	u.Position = to
	u.MoveLeft -= cost
	if u.MoveLeft < 0 {
		u.MoveLeft = 0
	}
	return nil
}

// ApplyDeploy commits a validated deployment.
func (r *Roster) ApplyDeploy(id uuid.UUID, pos geometry.Vec2) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownUnit, id)
	}
	u.Position = pos
	u.Deployed = true
	return nil
}

// ResetMovement restores every unit's full movement allowance. Called at the
// start of a turn.
func (r *Roster) ResetMovement() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		u.MoveLeft = u.Move
	}
}

// AllDeployed reports whether every unit is on the table.
func (r *Roster) AllDeployed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.units {
		if !u.Deployed {
			return false
		}
	}
	return true
}
