package cribbage

import "cribbage-lite/card"

// ShowResult holds the three show breakdowns of a hand.
type ShowResult struct {
	Cut        card.Card
	Dealer     Seat
	NonDealer  HandShow
	DealerHand HandShow
	Crib       HandShow
}

type HandShow struct {
	Seat      Seat
	Cards     []card.Card
	Breakdown Breakdown
}

// Total is the sum of all three breakdowns, whether or not every award landed.
func (r ShowResult) Total() int {
	return r.NonDealer.Breakdown.Total + r.DealerHand.Breakdown.Total + r.Crib.Breakdown.Total
}

// scoreShowLocked counts non-dealer, dealer, then crib. The game-end check inside each
// award stops accrual as soon as a target is reached.
func (g *Game) scoreShowLocked() {
	g.stage = StageShow
	g.turn = g.dealer

	nd := g.dealer.Other()
	res := &ShowResult{
		Cut:    g.cut,
		Dealer: g.dealer,
		NonDealer: HandShow{
			Seat:      nd,
			Cards:     g.players[nd].hand.Clone(),
			Breakdown: ScoreShow(g.players[nd].hand, g.cut, false),
		},
		DealerHand: HandShow{
			Seat:      g.dealer,
			Cards:     g.players[g.dealer].hand.Clone(),
			Breakdown: ScoreShow(g.players[g.dealer].hand, g.cut, false),
		},
		Crib: HandShow{
			Seat:      g.dealer,
			Cards:     g.crib.Clone(),
			Breakdown: ScoreShow(g.crib, g.cut, true),
		},
	}
	g.lastShow = res

	g.awardLocked(nd, res.NonDealer.Breakdown.Total, "hand")
	g.awardLocked(g.dealer, res.DealerHand.Breakdown.Total, "hand")
	g.awardLocked(g.dealer, res.Crib.Breakdown.Total, "crib")
}
