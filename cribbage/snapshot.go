package cribbage

import "cribbage-lite/card"

type PlayerSnapshot struct {
	Seat      Seat
	ID        string
	Name      string
	Robot     bool
	Connected bool
	Hand      []card.Card
	PegHand   []card.Card
	Discards  []card.Card
	SaidGo    bool
}

// Snapshot is the omniscient state, for the server and tests. Never send it to a client.
type Snapshot struct {
	Stage  Stage
	HandNo int
	Dealer Seat
	Turn   Seat

	Cut        card.Card
	Crib       []card.Card
	DeckLeft   int
	Count      int
	Pile       []card.Card
	LastPlayer Seat

	Scores      [2]int
	Wins        [2]int
	GameTarget  int
	MatchTarget int
	GameOver    bool
	GameWinner  Seat
	MatchOver   bool
	MatchWinner Seat

	Players [2]*PlayerSnapshot

	LastShow *ShowResult
	LastPeg  *PegEvent
	LastPass *PassEvent
	Activity []string
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Stage:       g.stage,
		HandNo:      g.handNo,
		Dealer:      g.dealer,
		Turn:        g.turn,
		Cut:         g.cut,
		Crib:        g.crib.Clone(),
		DeckLeft:    g.deck.Count(),
		Count:       g.count,
		Pile:        g.pile.Clone(),
		LastPlayer:  g.lastPlayer,
		Scores:      g.scores,
		Wins:        g.wins,
		GameTarget:  g.cfg.GameTarget,
		MatchTarget: g.cfg.MatchTarget,
		GameOver:    g.gameOver,
		GameWinner:  g.gameWinner,
		MatchOver:   g.matchOver,
		MatchWinner: g.matchWinner,
		LastShow:    g.lastShow,
		Activity:    append([]string(nil), g.activity...),
	}
	if g.lastPeg != nil {
		ev := *g.lastPeg
		s.LastPeg = &ev
	}
	if g.lastPass != nil {
		ev := *g.lastPass
		s.LastPass = &ev
	}
	for i, p := range g.players {
		if p == nil {
			continue
		}
		s.Players[i] = &PlayerSnapshot{
			Seat:      Seat(i),
			ID:        p.ID,
			Name:      p.Name,
			Robot:     p.Robot,
			Connected: p.Connected,
			Hand:      p.hand.Clone(),
			PegHand:   p.pegHand.Clone(),
			Discards:  p.discards.Clone(),
			SaidGo:    p.saidGo,
		}
	}
	return s
}

// SeatView is what one seat is allowed to see. Opponent cards and the crib stay hidden
// until the show.
type SeatView struct {
	Viewer Seat
	Stage  Stage
	HandNo int
	Dealer Seat
	Turn   Seat
	Cut    card.Card

	Scores      [2]int
	Wins        [2]int
	GameTarget  int
	MatchTarget int
	GameOver    bool
	GameWinner  Seat
	MatchOver   bool
	MatchWinner Seat

	Names     [2]string
	Robot     [2]bool
	Connected [2]bool

	// Hand is the full hand in discard and show, the remaining pegging cards in pegging.
	Hand          []card.Card
	Legal         []card.Card
	Discarded     bool
	OpponentCount int
	OpponentHand  []card.Card
	CribCount     int
	Crib          []card.Card

	Pile       []card.Card
	Count      int
	LastPlayer Seat
	SaidGo     [2]bool

	LastPeg  *PegEvent
	LastPass *PassEvent
	Show     *ShowResult
	Activity []string
}

// View projects the table for seat.
func (g *Game) View(seat Seat) SeatView {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := SeatView{
		Viewer:      seat,
		Stage:       g.stage,
		HandNo:      g.handNo,
		Dealer:      g.dealer,
		Turn:        g.turn,
		Cut:         g.cut,
		Scores:      g.scores,
		Wins:        g.wins,
		GameTarget:  g.cfg.GameTarget,
		MatchTarget: g.cfg.MatchTarget,
		GameOver:    g.gameOver,
		GameWinner:  g.gameWinner,
		MatchOver:   g.matchOver,
		MatchWinner: g.matchWinner,
		CribCount:   g.crib.Count(),
		Pile:        g.pile.Clone(),
		Count:       g.count,
		LastPlayer:  g.lastPlayer,
		Activity:    append([]string(nil), g.activity...),
	}
	for i, p := range g.players {
		if p == nil {
			continue
		}
		v.Names[i] = p.Name
		v.Robot[i] = p.Robot
		v.Connected[i] = p.Connected
		v.SaidGo[i] = p.saidGo
	}
	if g.lastPeg != nil {
		ev := *g.lastPeg
		v.LastPeg = &ev
	}
	if g.lastPass != nil {
		ev := *g.lastPass
		v.LastPass = &ev
	}

	showing := g.stage == StageShow
	if showing {
		v.Show = g.lastShow
		v.Crib = g.crib.Clone()
	}

	if !seat.Valid() {
		return v
	}
	if me := g.players[seat]; me != nil {
		v.Discarded = me.hasDiscarded()
		if g.stage == StagePegging {
			v.Hand = me.pegHand.Clone()
			if g.turn == seat && !g.gameOver {
				v.Legal = me.legalPlays(g.count)
			}
		} else {
			v.Hand = me.hand.Clone()
		}
	}
	if opp := g.players[seat.Other()]; opp != nil {
		if g.stage == StagePegging {
			v.OpponentCount = len(opp.pegHand)
		} else {
			v.OpponentCount = len(opp.hand)
		}
		if showing {
			v.OpponentHand = opp.hand.Clone()
		}
	}
	return v
}
