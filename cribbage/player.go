package cribbage

import "cribbage-lite/card"

type Player struct {
	ID        string
	Name      string
	Robot     bool
	Connected bool

	// hand is the full hand: 6 during discard, 4 from pegging through show.
	hand     card.CardList
	pegHand  card.CardList
	discards card.CardList
	saidGo   bool
}

func (p *Player) IsRobot() bool { return p.Robot }

// Present reports whether the seat counts as occupied.
func (p *Player) Present() bool {
	return p != nil && (p.Connected || p.Robot)
}

func (p *Player) Hand() []card.Card    { return p.hand.Clone() }
func (p *Player) PegHand() []card.Card { return p.pegHand.Clone() }

func (p *Player) resetForNewHand() {
	p.hand = make(card.CardList, 0, HandSize)
	p.pegHand = nil
	p.discards = make(card.CardList, 0, DiscardSize)
	p.saidGo = false
}

func (p *Player) hasDiscarded() bool {
	return len(p.discards) == DiscardSize
}

// canPlay reports whether any pegging card fits under the limit.
func (p *Player) canPlay(count int) bool {
	for _, c := range p.pegHand {
		if count+c.Value() <= PegLimit {
			return true
		}
	}
	return false
}

func (p *Player) legalPlays(count int) []card.Card {
	var out []card.Card
	for _, c := range p.pegHand {
		if count+c.Value() <= PegLimit {
			out = append(out, c)
		}
	}
	return out
}
