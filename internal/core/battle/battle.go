package battle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/core/terrain"
)

// Config assembles one battle. Zero values for the nested tunables select
// the stock defaults.
type Config struct {
	ID               string
	Players          int
	UnitsPerInch     float64
	Bounds           geometry.Rect
	Search           geometry.SearchConfig
	Sight            geometry.SightConfig
	Rules            ValidatorConfig
	CoverProbeInches float64
}

// DefaultConfig returns a two-player battle on a standard table at one
// canonical unit per inch.
func DefaultConfig() Config {
	return Config{
		ID:               "battle",
		Players:          2,
		UnitsPerInch:     1.0,
		Bounds:           geometry.Rect{Max: geometry.Vec2{X: 48, Y: 48}},
		CoverProbeInches: 1.0,
	}
}

// Battle wires the rule components of one game together: roster, turn
// clock, terrain, sight, and the validator. Probing methods (ValidateMove,
// LineOfSight, ...) are side-effect free and may run concurrently;
// committing methods (Move, Deploy, AdvancePhase, EndTurn) serialize on an
// internal lock and publish events on the battle's bus topic.
type Battle struct {
	commit sync.Mutex

	id     string
	conv   geometry.Converter
	bounds geometry.Rect
	roster *Roster
	turns  *TurnController
	field  *terrain.Map
	sight  *geometry.Sight
	rules  *Validator
	zones  *Zones
	events *bus.Bus
	probe  float64
}

// New builds a battle. The terrain map and the event bus are optional: a nil
// map means an open field (sight oracles fail open, every point passable),
// and a nil bus silences events. When a map is given, its bounds are the
// battlefield bounds.
func New(cfg Config, field *terrain.Map, zones []Zone, events *bus.Bus) (*Battle, error) {
	conv, err := geometry.NewConverter(cfg.UnitsPerInch)
	if err != nil {
		return nil, err
	}
	turns, err := NewTurnController(cfg.Players)
	if err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		cfg.ID = DefaultConfig().ID
	}

	bounds := cfg.Bounds
	if field != nil {
		bounds = field.Bounds()
	}
	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return nil, fmt.Errorf("battle: empty battlefield bounds")
	}

	if cfg.Search.Step <= 0 {
		cfg.Search = geometry.DefaultSearchConfig(conv)
	}
	if cfg.Sight == (geometry.SightConfig{}) {
		cfg.Sight = geometry.DefaultSightConfig()
	}
	if cfg.Rules.PathSamples == 0 {
		cfg.Rules = DefaultValidatorConfig()
	}
	if cfg.CoverProbeInches <= 0 {
		cfg.CoverProbeInches = DefaultConfig().CoverProbeInches
	}

	b := &Battle{
		id:     cfg.ID,
		conv:   conv,
		bounds: bounds,
		roster: NewRoster(),
		turns:  turns,
		field:  field,
		events: events,
		probe:  conv.FromInches(cfg.CoverProbeInches),
	}
	b.zones = NewZones(bounds, zones)

	var ray geometry.Raycaster
	var occ geometry.OcclusionOracle
	var ground GroundOracle
	if field != nil {
		ray, occ, ground = field, field, field
	}
	b.sight = geometry.NewSight(cfg.Sight, ray, occ)
	b.rules = NewValidator(cfg.Rules, ValidatorDeps{
		Converter: conv,
		Search:    cfg.Search,
		Bounds:    bounds,
		Turns:     turns,
		Ground:    ground,
		Zones:     b.zones,
	})

	if events != nil {
		events.CreateTopic(cfg.ID)
	}
	return b, nil
}

// ID returns the battle identifier, which is also its bus topic.
func (b *Battle) ID() string { return b.id }

// Converter returns the battle's measurement converter.
func (b *Battle) Converter() geometry.Converter { return b.conv }

// Bounds returns the battlefield rectangle.
func (b *Battle) Bounds() geometry.Rect { return b.bounds }

// Roster returns the unit registry.
func (b *Battle) Roster() *Roster { return b.roster }

// Turns returns the turn clock.
func (b *Battle) Turns() *TurnController { return b.turns }

// Terrain returns the battlefield map, which may be nil.
func (b *Battle) Terrain() *terrain.Map { return b.field }

// Rules returns the movement validator.
func (b *Battle) Rules() *Validator { return b.rules }

// Sight returns the line-of-sight engine.
func (b *Battle) Sight() *geometry.Sight { return b.sight }

// AddUnit registers a unit with the roster.
func (b *Battle) AddUnit(u Unit) (uuid.UUID, error) {
	return b.roster.Add(u, b.conv)
}

// ValidateMove probes whether unit id may move to target. No state changes.
func (b *Battle) ValidateMove(id uuid.UUID, target geometry.Vec2) Result {
	u, ok := b.roster.Get(id)
	if !ok {
		return refuse(ReasonInvalid, fmt.Sprintf("unknown unit %s", id))
	}
	return b.rules.ValidateMove(&u, target, b.roster.Placed())
}

// Move validates and commits a move. The deducted cost is the terrain-scaled
// distance, so a move that is in raw range can still fail here when the
// destination modifier pushes its cost past the remaining budget. Commits
// publish unit.moved; refusals publish move.rejected.
func (b *Battle) Move(id uuid.UUID, target geometry.Vec2) Result {
	b.commit.Lock()
	defer b.commit.Unlock()

	u, ok := b.roster.Get(id)
	if !ok {
		return refuse(ReasonInvalid, fmt.Sprintf("unknown unit %s", id))
	}
	res := b.rules.ValidateMove(&u, target, b.roster.Placed())
	if !res.Valid {
		b.publish(EventMoveRejected, RejectedPayload{Unit: id, Target: target, Result: res})
		return res
	}

	cost := b.rules.MoveCost(&u, target)
	if cost > u.MoveLeft+1e-9 {
		res = refuse(ReasonOutOfRange, fmt.Sprintf("terrain raises the cost to %s, %s remaining",
			b.conv.FormatDistance(cost, 1), b.conv.FormatDistance(u.MoveLeft, 1)))
		b.publish(EventMoveRejected, RejectedPayload{Unit: id, Target: target, Result: res})
		return res
	}
	if err := b.roster.ApplyMove(id, target, cost); err != nil {
		return refuse(ReasonInvalid, err.Error())
	}
	b.publish(EventUnitMoved, MovedPayload{Unit: id, From: u.Position, To: target, Cost: cost})
	return res
}

// ValidateDeployment probes whether unit id may be set up at pos.
func (b *Battle) ValidateDeployment(id uuid.UUID, pos geometry.Vec2) Result {
	u, ok := b.roster.Get(id)
	if !ok {
		return refuse(ReasonInvalid, fmt.Sprintf("unknown unit %s", id))
	}
	return b.rules.ValidateDeployment(&u, pos, u.Owner, b.roster.Placed())
}

// Deploy validates and commits a deployment. Deployment is only legal during
// the deployment phase.
func (b *Battle) Deploy(id uuid.UUID, pos geometry.Vec2) Result {
	b.commit.Lock()
	defer b.commit.Unlock()

	u, ok := b.roster.Get(id)
	if !ok {
		return refuse(ReasonInvalid, fmt.Sprintf("unknown unit %s", id))
	}
	if !b.turns.IsActivePhase(PhaseDeployment) {
		return refuse(ReasonWrongPhase, "deployment phase is over")
	}
	if !b.turns.IsActiveOwner(u.Owner) {
		return refuse(ReasonWrongOwner, fmt.Sprintf("player %d is not in this battle", u.Owner))
	}
	res := b.rules.ValidateDeployment(&u, pos, u.Owner, b.roster.Placed())
	if !res.Valid {
		return res
	}
	if err := b.roster.ApplyDeploy(id, pos); err != nil {
		return refuse(ReasonInvalid, err.Error())
	}
	b.publish(EventUnitDeployed, DeployedPayload{Unit: id, Player: u.Owner, Position: pos})
	return res
}

// PathClear samples the straight path of unit id from its position to dest
// and reports whether every sample is collision free.
func (b *Battle) PathClear(id uuid.UUID, dest geometry.Vec2) (bool, error) {
	u, ok := b.roster.Get(id)
	if !ok {
		return false, fmt.Errorf("%w %s", ErrUnknownUnit, id)
	}
	return b.rules.PathClear(&u, u.Position, dest, b.roster.Placed()), nil
}

// LineOfSight reports whether unit a sees unit b past terrain and static
// geometry. Intervening units are a separate question; see UnitsBlockSight.
func (b *Battle) LineOfSight(a, c uuid.UUID) (bool, error) {
	ua, ub, err := b.pair(a, c)
	if err != nil {
		return false, err
	}
	return b.sight.HasLineOfSight(ua.SightPoint(), ub.SightPoint()), nil
}

// UnitsBlockSight reports whether any third unit's base crosses the ground
// segment between a and b.
func (b *Battle) UnitsBlockSight(a, c uuid.UUID) (bool, error) {
	ua, ub, err := b.pair(a, c)
	if err != nil {
		return false, err
	}
	ignore := map[uuid.UUID]struct{}{ua.ID: {}, ub.ID: {}}
	return geometry.AnyEntityBlocksSight(ua.Position, ub.Position, b.roster.Placed(), ignore), nil
}

// Visibility estimates the fraction of unit c's silhouette that unit a can
// see. samples <= 0 uses the configured default.
func (b *Battle) Visibility(a, c uuid.UUID, samples int) (float64, error) {
	ua, ub, err := b.pair(a, c)
	if err != nil {
		return 0, err
	}
	return b.sight.VisibilityFraction(ua.SightPoint(), ub.SightPoint(), samples), nil
}

// CoverFrom reports whether unit id has cover against fire arriving along
// dir.
func (b *Battle) CoverFrom(id uuid.UUID, dir geometry.Vec2) (bool, error) {
	u, ok := b.roster.Get(id)
	if !ok {
		return false, fmt.Errorf("%w %s", ErrUnknownUnit, id)
	}
	return b.sight.CoverFromDirection(u.SightPoint(), dir, b.probe), nil
}

// NearestFree finds the closest position to desired where a base of the
// given radius fits, searching outward deterministically. desired itself is
// returned when it is free, and also when nothing within the search radius
// is.
func (b *Battle) NearestFree(desired geometry.Vec2, radius float64) (geometry.Vec2, error) {
	if radius <= 0 {
		return geometry.Vec2{}, fmt.Errorf("battle: non-positive radius %v", radius)
	}
	return geometry.FindNearestFree(desired, radius, b.roster.Placed(), uuid.Nil, b.rules.deps.Search), nil
}

// AdvancePhase fires the advance event on the turn clock. Entering the
// movement phase refreshes every unit's movement budget.
func (b *Battle) AdvancePhase() (Phase, error) {
	b.commit.Lock()
	defer b.commit.Unlock()

	next, err := b.turns.Fire(EventAdvance)
	if err != nil {
		return next, err
	}
	if next == PhaseMovement {
		b.roster.ResetMovement()
	}
	b.publish(EventPhaseChanged, b.phasePayload())
	return next, nil
}

// EndTurn closes the end phase and hands the turn to the next player.
func (b *Battle) EndTurn() (Phase, error) {
	b.commit.Lock()
	defer b.commit.Unlock()

	next, err := b.turns.Fire(EventEndTurn)
	if err != nil {
		return next, err
	}
	if next == PhaseMovement {
		b.roster.ResetMovement()
	}
	b.publish(EventTurnEnded, b.phasePayload())
	b.publish(EventPhaseChanged, b.phasePayload())
	return next, nil
}

// State snapshots the battle, digest included.
func (b *Battle) State() State {
	s := State{
		ID:     b.id,
		Phase:  b.turns.Phase(),
		Active: b.turns.ActivePlayer(),
		Round:  b.turns.Round(),
		Bounds: b.bounds,
		Units:  b.roster.Units(),
	}
	s.Digest = FormatDigest(DigestState(s))
	return s
}

// Digest fingerprints the current committed state.
func (b *Battle) Digest() uint64 {
	return DigestState(State{
		Phase:  b.turns.Phase(),
		Active: b.turns.ActivePlayer(),
		Round:  b.turns.Round(),
		Units:  b.roster.Units(),
	})
}

func (b *Battle) pair(a, c uuid.UUID) (Unit, Unit, error) {
	ua, ok := b.roster.Get(a)
	if !ok {
		return Unit{}, Unit{}, fmt.Errorf("%w %s", ErrUnknownUnit, a)
	}
	ub, ok := b.roster.Get(c)
	if !ok {
		return Unit{}, Unit{}, fmt.Errorf("%w %s", ErrUnknownUnit, c)
	}
	return ua, ub, nil
}

func (b *Battle) phasePayload() PhasePayload {
	return PhasePayload{Phase: b.turns.Phase(), Active: b.turns.ActivePlayer(), Round: b.turns.Round()}
}

func (b *Battle) publish(eventType string, payload any) {
	if b.events == nil {
		return
	}
	_ = b.events.PublishToTopic(b.id, bus.NewEvent(eventType, "battle", payload))
}
