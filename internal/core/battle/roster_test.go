package battle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

func rosterConv(t *testing.T) geometry.Converter {
	t.Helper()
	conv, err := geometry.NewConverter(1.0)
	require.NoError(t, err)
	return conv
}

func TestRoster_AddDerivesRadiusFromBase(t *testing.T) {
	r := NewRoster()
	conv := rosterConv(t)
	id, err := r.Add(Unit{Name: "sergeant", Base: geometry.Base32mm, Move: 6, MoveLeft: 6}, conv)
	require.NoError(t, err)

	u, ok := r.Get(id)
	require.True(t, ok)
	require.InDelta(t, conv.RadiusForBase(geometry.Base32mm), u.Radius, 1e-9)
	require.NotEqual(t, uuid.Nil, u.ID)
}

func TestRoster_AddRejectsBadUnits(t *testing.T) {
	r := NewRoster()
	conv := rosterConv(t)

	_, err := r.Add(Unit{Name: "no-footprint"}, conv)
	require.Error(t, err, "unit without radius or base size")

	_, err = r.Add(Unit{Radius: 0.5, Move: -1}, conv)
	require.Error(t, err, "negative movement")

	id := uuid.New()
	_, err = r.Add(Unit{ID: id, Radius: 0.5}, conv)
	require.NoError(t, err)
	_, err = r.Add(Unit{ID: id, Radius: 0.5}, conv)
	require.Error(t, err, "duplicate id")
}

func TestRoster_GetReturnsCopies(t *testing.T) {
	r := NewRoster()
	id, err := r.Add(Unit{Radius: 0.5, Position: geometry.Vec2{X: 1, Y: 1}}, rosterConv(t))
	require.NoError(t, err)

	u, _ := r.Get(id)
	u.Position = geometry.Vec2{X: 99, Y: 99}

	again, _ := r.Get(id)
	require.Equal(t, geometry.Vec2{X: 1, Y: 1}, again.Position, "mutating a copy must not touch the roster")
}

func TestRoster_PlacedSkipsUndeployed(t *testing.T) {
	r := NewRoster()
	conv := rosterConv(t)
	deployed, err := r.Add(Unit{Radius: 0.5, Deployed: true}, conv)
	require.NoError(t, err)
	_, err = r.Add(Unit{Radius: 0.5}, conv)
	require.NoError(t, err)

	placed := r.Placed()
	require.Len(t, placed, 1)
	require.Equal(t, deployed, placed[0].ID)
}

func TestRoster_ApplyMove(t *testing.T) {
	r := NewRoster()
	id, err := r.Add(Unit{Radius: 0.5, Move: 6, MoveLeft: 6, Deployed: true}, rosterConv(t))
	require.NoError(t, err)

	require.NoError(t, r.ApplyMove(id, geometry.Vec2{X: 0, Y: 4}, 4))
	u, _ := r.Get(id)
	require.Equal(t, geometry.Vec2{X: 0, Y: 4}, u.Position)
	require.InDelta(t, 2.0, u.MoveLeft, 1e-9)

	require.Error(t, r.ApplyMove(id, geometry.Vec2{X: 0, Y: 9}, 5), "cost beyond remaining budget")
	require.Error(t, r.ApplyMove(uuid.New(), geometry.Vec2{}, 0), "unknown unit")
}

func TestRoster_ResetMovement(t *testing.T) {
	r := NewRoster()
	id, err := r.Add(Unit{Radius: 0.5, Move: 6, MoveLeft: 6, Deployed: true}, rosterConv(t))
	require.NoError(t, err)
	require.NoError(t, r.ApplyMove(id, geometry.Vec2{X: 0, Y: 6}, 6))

	r.ResetMovement()
	u, _ := r.Get(id)
	require.InDelta(t, 6.0, u.MoveLeft, 1e-9)
}

func TestRoster_OrderIsStable(t *testing.T) {
	r := NewRoster()
	conv := rosterConv(t)
	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		id, err := r.Add(Unit{Radius: 0.5, Owner: i % 2}, conv)
		require.NoError(t, err)
		want = append(want, id)
	}
	units := r.Units()
	require.Len(t, units, 5)
	for i, u := range units {
		require.Equal(t, want[i], u.ID)
	}
	owners := r.ByOwner(0)
	require.Len(t, owners, 3)
}

func TestRoster_AllDeployed(t *testing.T) {
	r := NewRoster()
	conv := rosterConv(t)
	a, err := r.Add(Unit{Radius: 0.5}, conv)
	require.NoError(t, err)
	require.False(t, r.AllDeployed())
	require.NoError(t, r.ApplyDeploy(a, geometry.Vec2{X: 1, Y: 1}))
	require.True(t, r.AllDeployed())
}
