package battle

import (
	"fmt"
	"sync"
)

// Phase is one stage of a player turn.
type Phase string

const (
	PhaseDeployment Phase = "deployment"
	PhaseMovement   Phase = "movement"
	PhaseShooting   Phase = "shooting"
	PhaseEnd        Phase = "end"
)

// TurnEvent drives the turn state machine.
type TurnEvent string

const (
	// EventAdvance moves the active player to the next phase of their turn.
	EventAdvance TurnEvent = "advance"
	// EventEndTurn closes the end phase and hands the turn to the next
	// player.
	EventEndTurn TurnEvent = "end_turn"
	// EventReset abandons the battle in progress and returns the clock to
	// deployment, round 1, player 0.
	EventReset TurnEvent = "reset"
)

// transitions is the turn state machine: phase x event -> next phase.
// Deployment happens once, before the first turn; after that, turns cycle
// movement -> shooting -> end.
var transitions = map[Phase]map[TurnEvent]Phase{
	PhaseDeployment: {EventAdvance: PhaseMovement, EventReset: PhaseDeployment},
	PhaseMovement:   {EventAdvance: PhaseShooting, EventReset: PhaseDeployment},
	PhaseShooting:   {EventAdvance: PhaseEnd, EventReset: PhaseDeployment},
	PhaseEnd:        {EventEndTurn: PhaseMovement, EventReset: PhaseDeployment},
}

// TurnController tracks whose turn it is and which phase that turn is in.
// It satisfies the phase and owner predicates the movement validator
// delegates to. Safe for concurrent use.
type TurnController struct {
	mu      sync.RWMutex
	phase   Phase
	active  int
	players int
	round   int
}

// NewTurnController starts a battle for the given number of players, in the
// deployment phase, with player 0 active in round 1.
func NewTurnController(players int) (*TurnController, error) {
	if players < 1 {
		return nil, fmt.Errorf("battle: need at least one player, got %d", players)
	}
	return &TurnController{phase: PhaseDeployment, players: players, round: 1}, nil
}

// Phase returns the current phase.
func (t *TurnController) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// ActivePlayer returns the index of the player whose turn it is.
func (t *TurnController) ActivePlayer() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Round returns the current round, starting at 1.
func (t *TurnController) Round() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.round
}

// Players returns the player count.
func (t *TurnController) Players() int { return t.players }

// IsActivePhase reports whether the battle is currently in p. During
// deployment every player may act, so the owner predicate below stays
// permissive there.
func (t *TurnController) IsActivePhase(p Phase) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase == p
}

// IsActiveOwner reports whether player may act right now.
func (t *TurnController) IsActiveOwner(player int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.phase == PhaseDeployment {
		return player >= 0 && player < t.players
	}
	return player == t.active
}

// Fire applies ev to the state machine and returns the phase it lands in.
// Events with no transition from the current phase are rejected and change
// nothing.
func (t *TurnController) Fire(ev TurnEvent) (Phase, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, ok := transitions[t.phase][ev]
	if !ok {
		return t.phase, fmt.Errorf("battle: no transition for event %q in phase %q", ev, t.phase)
	}
	switch ev {
	case EventEndTurn:
		t.active = (t.active + 1) % t.players
		if t.active == 0 {
			t.round++
		}
	case EventReset:
		t.active = 0
		t.round = 1
	}
	t.phase = next
	return next, nil
}
