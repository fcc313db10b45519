package replay

import (
	"errors"
	"fmt"
	"strings"

	"cribbage-lite/card"
	"cribbage-lite/cribbage"
)

const tapeVersion = 1

// GenerateTape runs script against a fresh game and records the table after every action.
// The same script always yields the same tape.
func GenerateTape(script Script) (*Tape, error) {
	ns, err := normalizeScript(script)
	if err != nil {
		return nil, err
	}

	game, err := cribbage.NewGame(ns.cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}
	for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
		if err := game.SitDown(seat, seat.String(), ns.names[seat], false); err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "seat_init_failed", Message: err.Error()}
		}
	}
	if err := game.BeginHand(); err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "deal_failed", Message: err.Error()}
	}

	tape := &Tape{
		TapeVersion: tapeVersion,
		Seed:        ns.cfg.Seed,
		Steps:       make([]Step, 0, len(ns.actions)),
	}
	prev := game.Snapshot()
	tape.Opening = buildStep(-1, nil, cribbage.Snapshot{}, prev)

	for i, a := range ns.actions {
		if err := apply(game, a); err != nil {
			return nil, &ReplayError{
				StepIndex: i,
				Reason:    reasonFor(err),
				Message:   err.Error(),
				Expected:  pendingFor(game),
			}
		}
		next := game.Snapshot()
		spec := a.spec
		tape.Steps = append(tape.Steps, buildStep(i, &spec, prev, next))
		prev = next
	}
	return tape, nil
}

func apply(g *cribbage.Game, a normalizedAction) error {
	switch a.kind {
	case actDiscard:
		return g.Discard(a.seat, a.cards)
	case actPlay:
		return g.PlayCard(a.seat, a.cards[0])
	case actGo:
		return g.SayGo(a.seat)
	case actNextHand:
		return g.NextHand()
	case actNextGame:
		return g.NextGame()
	case actNewMatch:
		return g.NewMatch()
	}
	return fmt.Errorf("unsupported action %d", a.kind)
}

// reasonFor turns an engine failure into a snake_case reason.
func reasonFor(err error) string {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Reason
	}
	return strings.ReplaceAll(cribbage.FailureKind(err), "-", "_")
}

func pendingFor(g *cribbage.Game) *Pending {
	s := g.Snapshot()
	p := &Pending{Stage: s.Stage.String()}
	switch s.Stage {
	case cribbage.StagePegging:
		p.Turn = s.Turn.String()
		if legal, err := g.LegalPlays(s.Turn); err == nil {
			p.Legal = card.IDs(legal)
		}
	case cribbage.StageDiscard:
		var waiting []string
		for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
			if g.NeedsAction(seat) {
				waiting = append(waiting, seat.String())
			}
		}
		p.Turn = strings.Join(waiting, ",")
	}
	return p
}

func buildStep(index int, action *ActionSpec, before, after cribbage.Snapshot) Step {
	st := Step{
		Index:     index,
		Action:    action,
		Stage:     after.Stage.String(),
		HandNo:    after.HandNo,
		Dealer:    after.Dealer.String(),
		Turn:      after.Turn.String(),
		CribCount: len(after.Crib),
		Count:     after.Count,
		Pile:      card.IDs(after.Pile),
		Scores:    after.Scores,
		Wins:      after.Wins,
		MatchOver: after.MatchOver,
	}
	if after.Cut.Valid() {
		st.Cut = after.Cut.ID()
	}
	for i, p := range after.Players {
		if p == nil {
			continue
		}
		if after.Stage == cribbage.StagePegging {
			st.Hands[i] = card.IDs(p.PegHand)
		} else {
			st.Hands[i] = card.IDs(p.Hand)
		}
	}
	if after.GameOver {
		st.GameWinner = after.GameWinner.String()
	}
	if ev := after.LastPeg; ev != nil && (before.LastPeg == nil || before.LastPeg.Seq != ev.Seq) {
		st.Peg = &PegStep{Seat: ev.Seat.String(), Points: ev.Points, Labels: ev.Labels}
	}
	if ev := after.LastPass; ev != nil && (before.LastPass == nil || before.LastPass.Seq != ev.Seq) {
		st.Pass = &PassStep{Seat: ev.Seat.String(), Seq: ev.Seq}
	}
	if after.Stage == cribbage.StageShow && before.Stage != cribbage.StageShow && after.LastShow != nil {
		st.Show = showStep(after.LastShow)
	}
	return st
}

func showStep(r *cribbage.ShowResult) *ShowStep {
	return &ShowStep{
		Cut:        r.Cut.ID(),
		NonDealer:  scored(r.NonDealer),
		DealerHand: scored(r.DealerHand),
		Crib:       scored(r.Crib),
	}
}

func scored(h cribbage.HandShow) ScoredCards {
	out := ScoredCards{
		Seat:  h.Seat.String(),
		Cards: card.IDs(h.Cards),
		Total: h.Breakdown.Total,
	}
	for _, it := range h.Breakdown.Items {
		out.Labels = append(out.Labels, it.Label)
	}
	return out
}
