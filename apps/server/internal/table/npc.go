package table

import (
	"time"

	"cribbage-lite/cribbage"
	"cribbage-lite/cribbage/npc"

	"go.uber.org/zap"
)

// robotToMoveLocked returns the robot seat the game is waiting on, if any.
func (t *Table) robotToMoveLocked() (cribbage.Seat, *npc.NPCInstance) {
	if t.npcManager == nil {
		return cribbage.NoSeat, nil
	}
	for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
		p := t.game.Player(seat)
		if p == nil || !p.IsRobot() || !t.game.NeedsAction(seat) {
			continue
		}
		if inst := t.npcManager.GetInstance(p.ID); inst != nil {
			return seat, inst
		}
	}
	return cribbage.NoSeat, nil
}

// scheduleNPCLocked wakes the actor with an NPC turn after the robot's think delay. At
// most one wake-up is in flight.
func (t *Table) scheduleNPCLocked() {
	if t.npcPending || t.closed {
		return
	}
	seat, inst := t.robotToMoveLocked()
	if inst == nil {
		return
	}
	if t.ceilingReachedLocked(inst) {
		return
	}
	t.npcPending = true
	delay := inst.ThinkDelay
	t.logger.Debug("npc scheduled", zap.String("npc", inst.PlayerID), zap.Stringer("seat", seat), zap.Duration("delay", delay))

	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-t.done:
				return
			}
		}
		_ = t.SubmitEvent(Event{Type: EventNPCTurn})
	}()
}

// handleNPCTurn makes one robot move, re-reading the table since it may have changed
// while the robot was thinking.
func (t *Table) handleNPCTurn() error {
	t.npcPending = false
	seat, inst := t.robotToMoveLocked()
	if inst == nil || t.ceilingReachedLocked(inst) {
		return nil
	}

	d := t.npcManager.OnTurn(inst.PlayerID, t.game.View(seat))
	if d.Kind == npc.DecisionNone {
		t.logger.Warn("npc stalled", zap.String("npc", inst.PlayerID), zap.String("reason", "no decision"))
		return nil
	}
	if err := npc.Apply(t.game, seat, d); err != nil {
		t.logger.Warn("npc stalled", zap.String("npc", inst.PlayerID), zap.Stringer("decision", d.Kind), zap.Error(err))
		return nil
	}
	t.logger.Debug("npc moved",
		zap.String("npc", inst.Persona.Name), zap.Stringer("seat", seat), zap.Stringer("decision", d.Kind))

	t.npcStreak++
	t.afterMutationLocked()
	return nil
}

// ceilingReachedLocked reports a stall once the robots have moved npcMoveCeiling times in
// a row. Any accepted human action resets the count.
func (t *Table) ceilingReachedLocked(inst *npc.NPCInstance) bool {
	if t.npcStreak < npcMoveCeiling {
		return false
	}
	t.logger.Warn("npc stalled", zap.String("npc", inst.PlayerID), zap.Int("moves", t.npcStreak))
	return true
}

func (t *Table) despawnNPCsLocked() {
	if t.npcManager == nil {
		return
	}
	for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
		if p := t.game.Player(seat); p != nil && p.IsRobot() {
			t.npcManager.DespawnNPC(p.ID)
		}
	}
}

// NPCManager returns the table's NPC manager (may be nil).
func (t *Table) NPCManager() *npc.Manager {
	return t.npcManager
}
