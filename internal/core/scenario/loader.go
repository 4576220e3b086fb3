package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/core/terrain"
)

// LoadYAML decodes a scenario from YAML.
func LoadYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("scenario: decode yaml: %w", err)
	}
	return &s, nil
}

// LoadJSON decodes a scenario from JSON.
func LoadJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("scenario: decode json: %w", err)
	}
	return &s, nil
}

// LoadFile reads a scenario file, picking the decoder by extension. Anything
// that is not .json decodes as YAML.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var s *Scenario
	if filepath.Ext(path) == ".json" {
		s, err = LoadJSON(f)
	} else {
		s, err = LoadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return s, nil
}

// Build validates s and assembles a ready battle: converter scale, terrain
// map, deployment zones, turn clock, and every army's units. Units with a
// deploy_at position start committed on the table; the rest come in through
// the deployment phase. events may be nil.
func Build(s *Scenario, events *bus.Bus) (*battle.Battle, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	scale := s.Table.UnitsPerInch
	if scale == 0 {
		scale = 1.0
	}
	conv, err := geometry.NewConverter(scale)
	if err != nil {
		return nil, err
	}

	field, err := buildTerrain(s, conv)
	if err != nil {
		return nil, err
	}

	zones := make([]battle.Zone, 0, len(s.Zones))
	for _, z := range s.Zones {
		zones = append(zones, battle.Zone{Player: z.Player, Area: z.Area.rect(scale)})
	}

	cfg := battle.DefaultConfig()
	cfg.ID = s.Name
	cfg.Players = s.Players()
	cfg.UnitsPerInch = scale
	cfg.Rules = s.Rules
	b, err := battle.New(cfg, field, zones, events)
	if err != nil {
		return nil, err
	}

	for _, army := range s.Armies {
		for _, def := range army.Units {
			u := battle.Unit{
				Name:      def.Name,
				Owner:     army.Player,
				Base:      def.Base,
				Elevation: def.Elevation,
				Move:      conv.FromInches(def.MoveInches),
				CanMove:   true,
			}
			u.MoveLeft = u.Move
			id, err := b.AddUnit(u)
			if err != nil {
				return nil, fmt.Errorf("scenario: player %d unit %q: %w", army.Player, def.Name, err)
			}
			if def.DeployAt != nil {
				pos := geometry.Vec2{X: conv.FromInches(def.DeployAt.X), Y: conv.FromInches(def.DeployAt.Y)}
				if res := b.Deploy(id, pos); !res.Valid {
					return nil, fmt.Errorf("scenario: player %d unit %q: deploy at %.1f,%.1f: %s (%s)",
						army.Player, def.Name, def.DeployAt.X, def.DeployAt.Y, res.Reason, res.Message)
				}
			}
		}
	}
	return b, nil
}

func buildTerrain(s *Scenario, conv geometry.Converter) (*terrain.Map, error) {
	cfg := terrain.Config{
		Bounds: geometry.Rect{Max: geometry.Vec2{
			X: conv.FromInches(s.Table.WidthInches),
			Y: conv.FromInches(s.Table.HeightInches),
		}},
		SightDepth: conv.FromInches(s.Table.SightDepthInches),
	}
	for _, f := range s.Terrain {
		cfg.Features = append(cfg.Features, terrain.Feature{
			Name:   f.Name,
			Kind:   f.Kind,
			Bounds: f.Area.rect(conv.UnitsPerInch()),
			Height: conv.FromInches(f.HeightInches),
		})
	}
	return terrain.New(cfg)
}
