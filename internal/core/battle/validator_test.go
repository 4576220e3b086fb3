package battle

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wargrid/wargrid/internal/core/geometry"
)

type stubTurns struct {
	phase Phase
	owner int
}

func (s stubTurns) IsActivePhase(p Phase) bool { return s.phase == p }
func (s stubTurns) IsActiveOwner(pl int) bool  { return s.owner == pl }

type stubGround struct {
	modifier   float64
	impassable map[geometry.Vec2]bool
}

func (s stubGround) MoveModifier(geometry.Vec2) float64 {
	if s.modifier == 0 {
		return 1
	}
	return s.modifier
}

func (s stubGround) Impassable(p geometry.Vec2) bool { return s.impassable[p] }

func testDeps(t *testing.T) ValidatorDeps {
	t.Helper()
	conv, err := geometry.NewConverter(1.0)
	require.NoError(t, err)
	return ValidatorDeps{
		Converter: conv,
		Search:    geometry.DefaultSearchConfig(conv),
		Bounds:    geometry.Rect{Max: geometry.Vec2{X: 48, Y: 48}},
		Turns:     stubTurns{phase: PhaseMovement, owner: 0},
	}
}

func testUnit(owner int, pos geometry.Vec2) Unit {
	return Unit{
		ID:       uuid.New(),
		Owner:    owner,
		Position: pos,
		Radius:   0.5,
		Move:     6,
		MoveLeft: 6,
		CanMove:  true,
		Deployed: true,
	}
}

func TestValidateMove_Pipeline(t *testing.T) {
	t.Run("nil unit is invalid", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		res := v.ValidateMove(nil, geometry.Vec2{X: 1, Y: 1}, nil)
		require.False(t, res.Valid)
		require.Equal(t, ReasonInvalid, res.Reason)
	})

	t.Run("zero radius is invalid", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		u := testUnit(0, geometry.Vec2{})
		u.Radius = 0
		res := v.ValidateMove(&u, geometry.Vec2{X: 1, Y: 1}, nil)
		require.Equal(t, ReasonInvalid, res.Reason)
	})

	t.Run("wrong phase", func(t *testing.T) {
		deps := testDeps(t)
		deps.Turns = stubTurns{phase: PhaseShooting, owner: 0}
		v := NewValidator(DefaultValidatorConfig(), deps)
		u := testUnit(0, geometry.Vec2{})
		res := v.ValidateMove(&u, geometry.Vec2{X: 1, Y: 1}, nil)
		require.Equal(t, ReasonWrongPhase, res.Reason)
	})

	t.Run("wrong owner", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		u := testUnit(1, geometry.Vec2{})
		res := v.ValidateMove(&u, geometry.Vec2{X: 1, Y: 1}, nil)
		require.Equal(t, ReasonWrongOwner, res.Reason)
	})

	t.Run("unit that cannot move", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		u := testUnit(0, geometry.Vec2{})
		u.CanMove = false
		res := v.ValidateMove(&u, geometry.Vec2{X: 1, Y: 1}, nil)
		require.Equal(t, ReasonCannotMove, res.Reason)
	})

	t.Run("undeployed unit cannot move", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		u := testUnit(0, geometry.Vec2{})
		u.Deployed = false
		res := v.ValidateMove(&u, geometry.Vec2{X: 1, Y: 1}, nil)
		require.Equal(t, ReasonCannotMove, res.Reason)
	})

	t.Run("valid move", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		u := testUnit(0, geometry.Vec2{})
		res := v.ValidateMove(&u, geometry.Vec2{X: 3, Y: 4}, nil)
		require.True(t, res.Valid)
		require.Empty(t, res.Reason)
		require.Nil(t, res.Suggested)
	})
}

func TestValidateMove_OutOfRange(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), testDeps(t))
	u := testUnit(0, geometry.Vec2{})

	res := v.ValidateMove(&u, geometry.Vec2{X: 0, Y: 8}, nil)
	require.False(t, res.Valid)
	require.Equal(t, ReasonOutOfRange, res.Reason)
	require.True(t, strings.Contains(res.Message, `8.0"`), "message %q should carry the needed distance", res.Message)
	require.True(t, strings.Contains(res.Message, `6.0"`), "message %q should carry the remaining budget", res.Message)

	exact := v.ValidateMove(&u, geometry.Vec2{X: 0, Y: 6}, nil)
	require.True(t, exact.Valid, "a move of exactly the budget is legal")
}

func TestValidateMove_OutOfBounds(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), testDeps(t))
	u := testUnit(0, geometry.Vec2{X: 46, Y: 10})

	res := v.ValidateMove(&u, geometry.Vec2{X: 50, Y: 10}, nil)
	require.Equal(t, ReasonOutOfBounds, res.Reason)
	require.NotNil(t, res.Suggested)
	require.Equal(t, geometry.Vec2{X: 48, Y: 10}, *res.Suggested)
}

func TestValidateMove_Overlap(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), testDeps(t))
	u := testUnit(0, geometry.Vec2{})
	blocker := geometry.Placed{ID: uuid.New(), Center: geometry.Vec2{X: 3, Y: 0}, Radius: 0.5}

	res := v.ValidateMove(&u, geometry.Vec2{X: 3, Y: 0}, []geometry.Placed{blocker})
	require.Equal(t, ReasonOverlap, res.Reason)
	require.NotNil(t, res.Suggested)
	// Ring 1 of the spiral is swallowed by the blocker; ring 2 touches it
	// tangentially at (4,0), the first probe angle, which is in range.
	require.InDelta(t, 4.0, res.Suggested.X, 1e-9)
	require.InDelta(t, 0.0, res.Suggested.Y, 1e-9)
}

func TestValidateMove_OverlapSuggestionWithheldWhenClamped(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), testDeps(t))
	u := testUnit(0, geometry.Vec2{})
	u.Move, u.MoveLeft = 3, 3
	blocker := geometry.Placed{ID: uuid.New(), Center: geometry.Vec2{X: 3, Y: 0}, Radius: 0.5}

	// The spiral proposes (4,0); the budget clamp drags it back onto the
	// blocker, so no suggestion survives.
	res := v.ValidateMove(&u, geometry.Vec2{X: 3, Y: 0}, []geometry.Placed{blocker})
	require.Equal(t, ReasonOverlap, res.Reason)
	require.Nil(t, res.Suggested)
}

func TestValidateMove_ImpassableTerrain(t *testing.T) {
	target := geometry.Vec2{X: 5, Y: 5}
	deps := testDeps(t)
	deps.Ground = stubGround{impassable: map[geometry.Vec2]bool{target: true}}
	v := NewValidator(DefaultValidatorConfig(), deps)
	u := testUnit(0, geometry.Vec2{X: 3, Y: 5})

	res := v.ValidateMove(&u, target, nil)
	require.Equal(t, ReasonImpassableTerrain, res.Reason)

	t.Run("check disabled by config", func(t *testing.T) {
		cfg := DefaultValidatorConfig()
		cfg.CheckTerrain = false
		off := NewValidator(cfg, deps)
		require.True(t, off.ValidateMove(&u, target, nil).Valid)
	})
}

func TestPathClear(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), testDeps(t))
	u := testUnit(0, geometry.Vec2{})
	from := geometry.Vec2{}
	to := geometry.Vec2{X: 5, Y: 0}

	t.Run("all samples clear", func(t *testing.T) {
		require.True(t, v.PathClear(&u, from, to, nil))
	})

	t.Run("third of six samples blocked", func(t *testing.T) {
		// Samples fall at x = 0,1,2,3,4,5; a blocker at (2,0) catches the
		// third one.
		blocker := geometry.Placed{ID: uuid.New(), Center: geometry.Vec2{X: 2, Y: 0}, Radius: 0.5}
		require.False(t, v.PathClear(&u, from, to, []geometry.Placed{blocker}))
	})

	t.Run("obstacle between samples is missed", func(t *testing.T) {
		// A continuous sweep of the 0.5 base along y=0 would clip this
		// sliver (centerline distance 0.6 < 0.7), but it sits between the
		// samples at x=2 and x=3 (0.78 from each) and slips through the
		// discretization.
		sliver := geometry.Placed{ID: uuid.New(), Center: geometry.Vec2{X: 2.5, Y: 0.6}, Radius: 0.2}
		require.True(t, v.PathClear(&u, from, to, []geometry.Placed{sliver}))
	})

	t.Run("nil unit", func(t *testing.T) {
		require.False(t, v.PathClear(nil, from, to, nil))
	})
}

func TestValidateDeployment(t *testing.T) {
	deps := testDeps(t)
	deps.Zones = NewZones(deps.Bounds, []Zone{
		{Player: 0, Area: geometry.Rect{Max: geometry.Vec2{X: 48, Y: 12}}},
	})
	v := NewValidator(DefaultValidatorConfig(), deps)

	t.Run("inside zone", func(t *testing.T) {
		u := testUnit(0, geometry.Vec2{})
		res := v.ValidateDeployment(&u, geometry.Vec2{X: 10, Y: 6}, 0, nil)
		require.True(t, res.Valid)
	})

	t.Run("outside zone suggests clamp", func(t *testing.T) {
		u := testUnit(0, geometry.Vec2{})
		res := v.ValidateDeployment(&u, geometry.Vec2{X: 10, Y: 20}, 0, nil)
		require.Equal(t, ReasonOutsideZone, res.Reason)
		require.NotNil(t, res.Suggested)
		require.Equal(t, geometry.Vec2{X: 10, Y: 12}, *res.Suggested)
	})

	t.Run("overlap inside zone", func(t *testing.T) {
		u := testUnit(0, geometry.Vec2{})
		blocker := geometry.Placed{ID: uuid.New(), Center: geometry.Vec2{X: 10, Y: 6}, Radius: 0.5}
		res := v.ValidateDeployment(&u, geometry.Vec2{X: 10, Y: 6}, 0, []geometry.Placed{blocker})
		require.Equal(t, ReasonOverlap, res.Reason)
		require.NotNil(t, res.Suggested)
		require.True(t, deps.Zones.CanDeployAt(*res.Suggested, 0), "suggestion %v must stay in zone", *res.Suggested)
	})

	t.Run("nil unit", func(t *testing.T) {
		res := v.ValidateDeployment(nil, geometry.Vec2{}, 0, nil)
		require.Equal(t, ReasonInvalid, res.Reason)
	})
}

func TestMoveCost(t *testing.T) {
	u := testUnit(0, geometry.Vec2{})
	target := geometry.Vec2{X: 0, Y: 4}

	t.Run("open ground", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		require.InDelta(t, 4.0, v.MoveCost(&u, target), 1e-9)
	})

	t.Run("terrain modifier scales the cost", func(t *testing.T) {
		deps := testDeps(t)
		deps.Ground = stubGround{modifier: 2}
		v := NewValidator(DefaultValidatorConfig(), deps)
		require.InDelta(t, 8.0, v.MoveCost(&u, target), 1e-9)
	})

	t.Run("nil unit costs nothing", func(t *testing.T) {
		v := NewValidator(DefaultValidatorConfig(), testDeps(t))
		require.Zero(t, v.MoveCost(nil, target))
	})
}
