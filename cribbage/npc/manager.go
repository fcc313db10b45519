package npc

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cribbage-lite/cribbage"
)

// NPCInstance represents an active NPC seated at a table.
type NPCInstance struct {
	PlayerID   string
	Seat       cribbage.Seat
	Persona    *NPCPersona
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Manager manages NPC lifecycle and decision-making at tables.
type Manager struct {
	registry   *PersonaRegistry
	instances  map[string]*NPCInstance // keyed by PlayerID
	mu         sync.RWMutex
	rng        *rand.Rand
	nextID     uint64
	thinkDelay time.Duration
}

// NewManager creates an NPC manager with the given persona registry.
func NewManager(registry *PersonaRegistry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry:   registry,
		instances:  make(map[string]*NPCInstance),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		thinkDelay: time.Second,
	}
}

func (m *Manager) Registry() *PersonaRegistry {
	return m.registry
}

// SetThinkDelay sets the pause used for personas that do not name their own. Zero turns
// pacing off entirely.
func (m *Manager) SetThinkDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.thinkDelay = d
}

// SpawnNPC seats an NPC on game. A nil persona means the registry default.
func (m *Manager) SpawnNPC(game *cribbage.Game, seat cribbage.Seat, persona *NPCPersona) (*NPCInstance, error) {
	if persona == nil {
		persona = m.registry.Default()
	}
	if persona == nil {
		return nil, fmt.Errorf("spawn NPC at %s: no persona", seat)
	}

	m.mu.Lock()
	m.nextID++
	playerID := fmt.Sprintf("npc-%d", m.nextID)
	delay := m.thinkDelay
	if persona.ThinkDelayMs > 0 {
		delay = time.Duration(persona.ThinkDelayMs) * time.Millisecond
	}
	if delay > 0 {
		// up to a quarter of jitter so consecutive moves do not land on a beat
		delay += time.Duration(m.rng.Int63n(int64(delay)/4 + 1))
	}
	m.mu.Unlock()

	if err := game.SitDown(seat, playerID, persona.Name, true); err != nil {
		return nil, fmt.Errorf("spawn NPC %s at %s: %w", persona.Name, seat, err)
	}

	inst := &NPCInstance{
		PlayerID:   playerID,
		Seat:       seat,
		Persona:    persona,
		Brain:      NewLowCardBrain(persona),
		ThinkDelay: delay,
	}

	m.mu.Lock()
	m.instances[playerID] = inst
	m.mu.Unlock()
	return inst, nil
}

// OnTurn asks the NPC's brain what to do with the given view. Unknown ids decide nothing.
func (m *Manager) OnTurn(playerID string, v cribbage.SeatView) Decision {
	inst := m.GetInstance(playerID)
	if inst == nil {
		return Decision{Kind: DecisionNone}
	}
	return inst.Brain.Decide(BuildGameView(v))
}

func (m *Manager) GetInstance(playerID string) *NPCInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID]
}

func (m *Manager) IsNPC(playerID string) bool {
	return m.GetInstance(playerID) != nil
}

// DespawnNPC removes an NPC from tracking. The seat itself is left to the caller.
func (m *Manager) DespawnNPC(playerID string) {
	m.mu.Lock()
	delete(m.instances, playerID)
	m.mu.Unlock()
}

// GetThinkDelay returns the simulated thinking delay for an NPC.
func (m *Manager) GetThinkDelay(playerID string) time.Duration {
	inst := m.GetInstance(playerID)
	if inst == nil {
		return time.Second
	}
	return inst.ThinkDelay
}

// Apply executes a decision against the game on behalf of seat.
func Apply(game *cribbage.Game, seat cribbage.Seat, d Decision) error {
	switch d.Kind {
	case DecisionDiscard:
		ids := make([]string, 0, len(d.Cards))
		for _, c := range d.Cards {
			ids = append(ids, c.ID())
		}
		return game.Discard(seat, ids)
	case DecisionPlay:
		if len(d.Cards) != 1 {
			return fmt.Errorf("play decision needs one card, got %d", len(d.Cards))
		}
		return game.PlayCard(seat, d.Cards[0].ID())
	case DecisionGo:
		return game.SayGo(seat)
	}
	return fmt.Errorf("nothing to apply for %s", d.Kind)
}
