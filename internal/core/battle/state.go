package battle

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

// State is a point-in-time snapshot of a battle, safe to serialize and ship
// to clients.
type State struct {
	ID     string        `json:"id"`
	Phase  Phase         `json:"phase"`
	Active int           `json:"active"`
	Round  int           `json:"round"`
	Bounds geometry.Rect `json:"bounds"`
	Units  []Unit        `json:"units"`
	Digest string        `json:"digest"`
}

// DigestState fingerprints the rule-relevant parts of a snapshot: the turn
// clock plus every unit's identity, owner, position, budget, and deployment
// flag, in ID order. Two replicas that applied the same committed actions
// produce the same digest, so drift detection reduces to comparing two
// integers. Cosmetic fields (names) do not participate.
func DigestState(s State) uint64 {
	units := make([]Unit, len(s.Units))
	copy(units, s.Units)
	sort.Slice(units, func(i, j int) bool {
		return units[i].ID.String() < units[j].ID.String()
	})

	h := xxhash.New()
	writeString(h, "phase=", string(s.Phase))
	writeString(h, " active=", strconv.Itoa(s.Active))
	writeString(h, " round=", strconv.Itoa(s.Round))
	for _, u := range units {
		writeString(h, "\n", u.ID.String())
		writeString(h, " owner=", strconv.Itoa(u.Owner))
		writeString(h, " x=", formatCoord(u.Position.X))
		writeString(h, " y=", formatCoord(u.Position.Y))
		writeString(h, " left=", formatCoord(u.MoveLeft))
		writeString(h, " deployed=", strconv.FormatBool(u.Deployed))
	}
	return h.Sum64()
}

// FormatDigest renders a digest the way it travels in State and on the wire.
func FormatDigest(d uint64) string {
	return strconv.FormatUint(d, 16)
}

func writeString(h *xxhash.Digest, parts ...string) {
	for _, p := range parts {
		_, _ = h.WriteString(p)
	}
}

// formatCoord renders a coordinate deterministically. The shortest
// round-tripping form keeps equal floats equal across platforms.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
