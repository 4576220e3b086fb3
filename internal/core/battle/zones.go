package battle

import (
	"github.com/wargrid/wargrid/internal/core/geometry"
)

// Zone is the table area where one player may set up units.
type Zone struct {
	Player int           `json:"player" yaml:"player"`
	Area   geometry.Rect `json:"area" yaml:"area"`
}

// Zones answers deployment placement questions. A player with no declared
// zone may deploy anywhere inside the battlefield bounds.
type Zones struct {
	bounds  geometry.Rect
	byOwner map[int]geometry.Rect
}

// NewZones indexes the zone list against the battlefield bounds.
func NewZones(bounds geometry.Rect, zones []Zone) *Zones {
	byOwner := make(map[int]geometry.Rect, len(zones))
	for _, z := range zones {
		byOwner[z.Player] = z.Area
	}
	return &Zones{bounds: bounds, byOwner: byOwner}
}

// CanDeployAt reports whether player may set up at p.
func (z *Zones) CanDeployAt(p geometry.Vec2, player int) bool {
	if area, ok := z.byOwner[player]; ok {
		return area.Contains(p)
	}
	return z.bounds.Contains(p)
}

// ClampToZone projects p onto the nearest point of player's zone.
func (z *Zones) ClampToZone(p geometry.Vec2, player int) geometry.Vec2 {
	if area, ok := z.byOwner[player]; ok {
		return area.Clamp(p)
	}
	return z.bounds.Clamp(p)
}
