package cribbage

import (
	"fmt"
	"strings"

	"cribbage-lite/card"
)

// PlayCard pegs one card for seat.
func (g *Game) PlayCard(seat Seat, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.overLocked(); err != nil {
		return err
	}
	if g.stage != StagePegging {
		return ErrInvalidStage
	}
	p, err := g.seatedLocked(seat)
	if err != nil {
		return err
	}
	if g.turn != seat {
		return ErrNotYourTurn
	}
	c, err := card.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalCardSelection, err)
	}
	if !p.pegHand.Contains(c) {
		return fmt.Errorf("%w: %s not in hand", ErrIllegalCardSelection, c.ID())
	}
	if g.count+c.Value() > PegLimit {
		return fmt.Errorf("%w: %s would take the count past %d", ErrIllegalCardSelection, c.ID(), PegLimit)
	}

	p.pegHand.Remove(c)
	g.pile.Add(c)
	g.count += c.Value()
	g.lastPlayer = seat
	for _, pl := range g.players {
		pl.saidGo = false
	}
	g.logLocked("%s plays %s for %d", seat, c.ID(), g.count)

	if s := PegPoints(g.pile); s.Points > 0 {
		g.pegAwardLocked(seat, s.Points, s.Labels)
	}
	if g.gameOver {
		return nil
	}

	if g.count == PegLimit {
		g.endSequenceLocked()
	}
	g.turn = seat.Other()
	g.resolveTurnLocked()
	return nil
}

// SayGo declares that seat cannot play under 31.
func (g *Game) SayGo(seat Seat) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.overLocked(); err != nil {
		return err
	}
	if g.stage != StagePegging {
		return ErrInvalidStage
	}
	p, err := g.seatedLocked(seat)
	if err != nil {
		return err
	}
	if g.turn != seat {
		return ErrNotYourTurn
	}
	if p.canPlay(g.count) {
		return fmt.Errorf("%w: %s holds a playable card", ErrIllegalCardSelection, seat)
	}

	g.passSeq++
	g.lastPass = &PassEvent{Seat: seat, Seq: g.passSeq, At: g.now()}
	p.saidGo = true
	g.logLocked("%s says go at %d", seat, g.count)

	// resolveTurnLocked closes the sequence whenever the opponent is out and the turn holder
	// is blocked, and a GO is refused at count 0. The empty-opponent case and the missing
	// lastPlayer fallback therefore only guard a GO reached without the resolver.
	opp := g.players[seat.Other()]
	switch {
	case len(opp.pegHand) == 0:
		g.endSequenceLocked()
		g.turn = seat
	case opp.canPlay(g.count):
		g.turn = seat.Other()
	default:
		lead := g.lastPlayer
		if lead == NoSeat {
			lead = g.dealer.Other()
		}
		g.endSequenceLocked()
		g.turn = lead
	}
	g.resolveTurnLocked()
	return nil
}

// endSequenceLocked closes the current pegging sequence: the last-card point (unless the
// count is 0 or 31), then count, pile and GO flags reset. Callers set the next turn.
func (g *Game) endSequenceLocked() {
	if g.count != 0 && g.count != PegLimit && g.lastPlayer != NoSeat {
		g.pegAwardLocked(g.lastPlayer, 1, []string{"last card for 1"})
	}
	g.count = 0
	g.pile = nil
	g.lastPlayer = NoSeat
	for _, p := range g.players {
		p.saidGo = false
	}
}

func (g *Game) pegAwardLocked(seat Seat, points int, labels []string) {
	if g.gameOver {
		return
	}
	g.pegSeq++
	g.lastPeg = &PegEvent{Seat: seat, Points: points, Labels: append([]string(nil), labels...), Seq: g.pegSeq}
	g.awardLocked(seat, points, strings.Join(labels, ", "))
}
