package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wargrid/wargrid/internal/core/battle"
)

const sampleYAML = `
name: crossing
table:
  width: 48
  height: 48
terrain:
  - kind: wall
    area: {x: 20, y: 20, w: 8, h: 1}
  - kind: forest
    area: {x: 4, y: 30, w: 10, h: 10}
zones:
  - player: 0
    area: {x: 0, y: 0, w: 48, h: 8}
  - player: 1
    area: {x: 0, y: 40, w: 48, h: 8}
armies:
  - player: 0
    units:
      - {name: alpha, base: 32mm, move: 6, deploy_at: {x: 10, y: 4}}
      - {name: bravo, base: 25mm, move: 6}
  - player: 1
    units:
      - {name: raider, base: 40mm, move: 8, deploy_at: {x: 10, y: 44}}
`

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "crossing", s.Name)
	require.Len(t, s.Terrain, 2)
	require.Len(t, s.Armies, 2)
	require.Equal(t, 2, s.Players())
	require.NoError(t, s.Validate())
}

func TestLoadJSON(t *testing.T) {
	in := `{
		"name": "duel",
		"table": {"width": 24, "height": 24},
		"armies": [
			{"player": 0, "units": [{"name": "a", "base": "25mm", "move": 6}]},
			{"player": 1, "units": [{"name": "b", "base": "25mm", "move": 6}]}
		]
	}`
	s, err := LoadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, "duel", s.Name)
	require.NoError(t, s.Validate())
}

func TestValidateRejects(t *testing.T) {
	base := func() *Scenario {
		s, err := LoadYAML(strings.NewReader(sampleYAML))
		require.NoError(t, err)
		return s
	}

	t.Run("empty table", func(t *testing.T) {
		s := base()
		s.Table.WidthInches = 0
		require.Error(t, s.Validate())
	})
	t.Run("unknown terrain kind", func(t *testing.T) {
		s := base()
		s.Terrain[0].Kind = "lava"
		require.Error(t, s.Validate())
	})
	t.Run("terrain off table", func(t *testing.T) {
		s := base()
		s.Terrain[0].Area.X = 47
		require.Error(t, s.Validate())
	})
	t.Run("zone off table", func(t *testing.T) {
		s := base()
		s.Zones[1].Area.Y = 45
		require.Error(t, s.Validate())
	})
	t.Run("unit without base", func(t *testing.T) {
		s := base()
		s.Armies[0].Units[0].Base = ""
		require.Error(t, s.Validate())
	})
	t.Run("no armies", func(t *testing.T) {
		s := base()
		s.Armies = nil
		require.Error(t, s.Validate())
	})
}

func TestBuildAssemblesBattle(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	b, err := Build(s, nil)
	require.NoError(t, err)
	require.Equal(t, "crossing", b.ID())
	require.Equal(t, 3, b.Roster().Len())
	require.NotNil(t, b.Terrain())
	require.Equal(t, 48.0, b.Bounds().Max.X)

	deployed := 0
	for _, u := range b.Roster().Units() {
		if u.Deployed {
			deployed++
			require.Greater(t, u.Radius, 0.0)
		}
	}
	require.Equal(t, 2, deployed, "deploy_at units start on the table")
	require.Equal(t, battle.PhaseDeployment, b.Turns().Phase())
}

func TestBuildScalesInches(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	s.Table.UnitsPerInch = 2.0

	b, err := Build(s, nil)
	require.NoError(t, err)
	require.Equal(t, 96.0, b.Bounds().Max.X)

	var alpha battle.Unit
	for _, u := range b.Roster().Units() {
		if u.Name == "alpha" {
			alpha = u
		}
	}
	require.InDelta(t, 12.0, alpha.Move, 1e-9, "6 inches at 2 units per inch")
	require.InDelta(t, 20.0, alpha.Position.X, 1e-9)
}

func TestBuildRejectsOverlappingDeployment(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	// Second unit right on top of the first.
	s.Armies[0].Units[1].DeployAt = &PointDef{X: 10, Y: 4}

	_, err = Build(s, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlap")
}
