package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/core/scenario"
)

// Script is a decoded replay file: the ordered actions of one battle.
// Coordinates are inches, like scenario files.
type Script struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one scripted action. Unit refers to a unit by its scenario name.
type Step struct {
	Op   string             `json:"op" yaml:"op"`
	Unit string             `json:"unit,omitempty" yaml:"unit,omitempty"`
	To   *scenario.PointDef `json:"to,omitempty" yaml:"to,omitempty"`
}

// StepResult records how one step went, with the digest after it.
type StepResult struct {
	Index   int
	Op      string
	Outcome string
	Digest  string
}

// RunResult is one full execution.
type RunResult struct {
	Steps []StepResult
	Final string
}

// LoadScript reads a YAML replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read script %s: %w", path, err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("replay: parse script %s: %w", path, err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("replay: script %s has no steps", path)
	}
	return &s, nil
}

// Execute loads the scenario fresh and applies every script step in order.
// Rule refusals are recorded, not fatal: a script may probe illegal moves on
// purpose. Structural problems (unknown unit name, unknown op) abort.
func Execute(scenarioPath string, script *Script) (*RunResult, error) {
	sc, err := scenario.LoadFile(scenarioPath)
	if err != nil {
		return nil, err
	}
	b, err := scenario.Build(sc, nil)
	if err != nil {
		return nil, err
	}
	conv := b.Converter()

	result := &RunResult{}
	for i, step := range script.Steps {
		outcome := "ok"
		switch step.Op {
		case "deploy", "move":
			if step.To == nil {
				return nil, fmt.Errorf("replay: step %d (%s): missing target", i, step.Op)
			}
			u, err := unitByName(b, step.Unit)
			if err != nil {
				return nil, fmt.Errorf("replay: step %d: %w", i, err)
			}
			target := geometry.Vec2{X: conv.FromInches(step.To.X), Y: conv.FromInches(step.To.Y)}
			var res battle.Result
			if step.Op == "deploy" {
				res = b.Deploy(u.ID, target)
			} else {
				res = b.Move(u.ID, target)
			}
			if !res.Valid {
				outcome = string(res.Reason)
			}
		case "advance":
			if _, err := b.AdvancePhase(); err != nil {
				outcome = "rejected"
			}
		case "end_turn":
			if _, err := b.EndTurn(); err != nil {
				outcome = "rejected"
			}
		default:
			return nil, fmt.Errorf("replay: step %d: unknown op %q", i, step.Op)
		}
		result.Steps = append(result.Steps, StepResult{
			Index:   i,
			Op:      step.Op,
			Outcome: outcome,
			Digest:  battle.FormatDigest(b.Digest()),
		})
	}
	result.Final = battle.FormatDigest(b.Digest())
	return result, nil
}

func unitByName(b *battle.Battle, name string) (battle.Unit, error) {
	if name == "" {
		return battle.Unit{}, fmt.Errorf("step needs a unit name")
	}
	for _, u := range b.Roster().Units() {
		if u.Name == name {
			return u, nil
		}
	}
	return battle.Unit{}, fmt.Errorf("no unit named %q in scenario", name)
}
