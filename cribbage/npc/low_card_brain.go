package npc

import (
	"cribbage-lite/card"
	"cribbage-lite/cribbage"
)

// LowCardBrain throws its two lowest cards to the crib and always pegs the lowest legal
// card. It never looks at the opponent or the score.
type LowCardBrain struct {
	Persona *NPCPersona
}

func NewLowCardBrain(persona *NPCPersona) *LowCardBrain {
	return &LowCardBrain{Persona: persona}
}

func (b *LowCardBrain) Name() string {
	if b.Persona == nil {
		return "low-card"
	}
	return b.Persona.Name
}

func (b *LowCardBrain) Decide(view GameView) Decision {
	switch view.Stage {
	case cribbage.StageDiscard:
		if view.Discarded || len(view.Hand) < cribbage.DiscardSize {
			return Decision{Kind: DecisionNone}
		}
		return Decision{Kind: DecisionDiscard, Cards: lowest(view.Hand, cribbage.DiscardSize)}
	case cribbage.StagePegging:
		if len(view.Legal) == 0 {
			return Decision{Kind: DecisionGo}
		}
		return Decision{Kind: DecisionPlay, Cards: lowest(view.Legal, 1)}
	}
	return Decision{Kind: DecisionNone}
}

func lowest(cs []card.Card, n int) []card.Card {
	sorted := append([]card.Card(nil), cs...)
	card.SortByValue(sorted)
	return sorted[:n]
}
