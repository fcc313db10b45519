package cribbage

// resolveTurnLocked reconciles turn and stage after a pegging mutation, because hands run
// out at different times:
//   - both pegging hands empty: close the sequence and score the show;
//   - turn holder out of cards, opponent not: turn moves to the opponent;
//   - opponent out, turn holder blocked at a non-zero count: the sequence ends and the
//     turn holder leads again.
//
// Each pass either returns or strictly shrinks the work left, so three passes suffice.
func (g *Game) resolveTurnLocked() {
	for i := 0; i < 3; i++ {
		if g.stage != StagePegging || g.gameOver {
			return
		}
		me := g.players[g.turn]
		opp := g.players[g.turn.Other()]

		switch {
		case len(me.pegHand) == 0 && len(opp.pegHand) == 0:
			g.endSequenceLocked()
			if g.gameOver {
				return
			}
			g.scoreShowLocked()
			return
		case len(me.pegHand) == 0:
			g.turn = g.turn.Other()
		case len(opp.pegHand) == 0 && g.count > 0 && !me.canPlay(g.count):
			g.endSequenceLocked()
		default:
			return
		}
	}
}
