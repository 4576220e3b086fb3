// Package ai scores candidate moves for non-player units. Every evaluation
// is a pure probe of the rules engine, so candidates are scored in parallel
// and the results are reproducible for identical battle state.
package ai

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/core/observability/log"
	"github.com/wargrid/wargrid/pkg/concurrent"
)

// ScoredMove is one evaluated candidate destination.
type ScoredMove struct {
	Target geometry.Vec2 `json:"target"`
	Valid  bool          `json:"valid"`
	Reason battle.Reason `json:"reason,omitempty"`
	// Exposure counts enemies with a clear sight line to the destination.
	Exposure int `json:"exposure"`
	// Covered counts enemies the destination holds cover against.
	Covered int `json:"covered"`
	// Cost is the movement budget the candidate would spend.
	Cost  float64 `json:"cost"`
	Score float64 `json:"score"`
}

// Config tunes the scorer.
type Config struct {
	// Workers bounds evaluation concurrency; 0 means one goroutine per
	// candidate.
	Workers int
	// ExposureWeight, CoverWeight, and CostWeight shape the score. Zero
	// values take the defaults.
	ExposureWeight float64
	CoverWeight    float64
	CostWeight     float64
}

// DefaultConfig returns the stock weights: staying unseen dominates, cover
// breaks ties, short moves beat long ones.
func DefaultConfig() Config {
	return Config{
		Workers:        8,
		ExposureWeight: 4,
		CoverWeight:    1,
		CostWeight:     0.1,
	}
}

// Scorer ranks candidate destinations for one unit against the current
// battle state. It holds no state of its own between calls.
type Scorer struct {
	cfg Config
	b   *battle.Battle
	lg  log.Log
}

// NewScorer builds a scorer over b.
func NewScorer(cfg Config, b *battle.Battle, lg log.Log) *Scorer {
	d := DefaultConfig()
	if cfg.ExposureWeight == 0 {
		cfg.ExposureWeight = d.ExposureWeight
	}
	if cfg.CoverWeight == 0 {
		cfg.CoverWeight = d.CoverWeight
	}
	if cfg.CostWeight == 0 {
		cfg.CostWeight = d.CostWeight
	}
	return &Scorer{cfg: cfg, b: b, lg: lg.With(log.String("component", "ai.scorer"))}
}

// Rank evaluates every candidate concurrently and returns them ordered best
// first. Invalid candidates sort after all valid ones. The order is
// deterministic for identical inputs: score descending, then X, then Y.
func (s *Scorer) Rank(ctx context.Context, unit uuid.UUID, candidates []geometry.Vec2) ([]ScoredMove, error) {
	u, ok := s.b.Roster().Get(unit)
	if !ok {
		return nil, battle.ErrUnknownUnit
	}
	enemies := s.enemies(u.Owner)

	moves, err := concurrent.Map(ctx, candidates, s.cfg.Workers,
		func(_ context.Context, target geometry.Vec2) (ScoredMove, error) {
			return s.evaluate(&u, target, enemies), nil
		})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(moves, func(i, j int) bool {
		a, b := moves[i], moves[j]
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Target.X != b.Target.X {
			return a.Target.X < b.Target.X
		}
		return a.Target.Y < b.Target.Y
	})

	s.lg.Debug("ranked candidate moves",
		log.String("unit", unit.String()),
		log.Int("candidates", len(moves)))
	return moves, nil
}

func (s *Scorer) evaluate(u *battle.Unit, target geometry.Vec2, enemies []battle.Unit) ScoredMove {
	m := ScoredMove{Target: target}
	res := s.b.Rules().ValidateMove(u, target, s.b.Roster().Placed())
	if !res.Valid {
		m.Reason = res.Reason
		m.Score = -1
		return m
	}
	m.Valid = true
	m.Cost = s.b.Rules().MoveCost(u, target)

	at := geometry.SightPoint{Pos: target, Elevation: u.Elevation}
	for _, e := range enemies {
		if s.b.Sight().HasLineOfSight(e.SightPoint(), at) {
			m.Exposure++
			threat := target.Sub(e.Position).Normalized()
			if s.b.Sight().CoverFromDirection(at, threat, u.Radius*2) {
				m.Covered++
			}
		}
	}
	m.Score = s.cfg.CoverWeight*float64(m.Covered) -
		s.cfg.ExposureWeight*float64(m.Exposure) -
		s.cfg.CostWeight*m.Cost
	return m
}

// enemies returns every deployed unit of another player.
func (s *Scorer) enemies(owner int) []battle.Unit {
	var out []battle.Unit
	for _, u := range s.b.Roster().Units() {
		if u.Owner != owner && u.Deployed {
			out = append(out, u)
		}
	}
	return out
}
