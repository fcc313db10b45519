package npc

import (
	"cribbage-lite/card"
	"cribbage-lite/cribbage"
)

// GameView is the part of the table the NPC seat is allowed to see.
type GameView struct {
	Seat      cribbage.Seat
	Stage     cribbage.Stage
	IsDealer  bool
	Hand      []card.Card
	Legal     []card.Card
	Discarded bool
	Cut       card.Card
	Pile      []card.Card
	Count     int
	MyScore   int
	OppScore  int
	OppCards  int
}

type DecisionKind uint8

const (
	DecisionNone DecisionKind = iota
	DecisionDiscard
	DecisionPlay
	DecisionGo
)

var decisionNames = map[DecisionKind]string{
	DecisionNone:    "none",
	DecisionDiscard: "discard",
	DecisionPlay:    "play",
	DecisionGo:      "go",
}

func (k DecisionKind) String() string {
	if s, ok := decisionNames[k]; ok {
		return s
	}
	return "unknown"
}

// Decision is what a BrainDecider returns. Cards holds two cards for a discard and one
// for a play.
type Decision struct {
	Kind  DecisionKind
	Cards []card.Card
}

// BrainDecider is the core interface all NPC types implement.
type BrainDecider interface {
	// Decide is called when the table is waiting on the NPC.
	Decide(view GameView) Decision
	// Name returns a human-readable identifier for debugging.
	Name() string
}

// BuildGameView projects a seat view into what a brain sees.
func BuildGameView(v cribbage.SeatView) GameView {
	view := GameView{
		Seat:      v.Viewer,
		Stage:     v.Stage,
		IsDealer:  v.Dealer == v.Viewer,
		Hand:      v.Hand,
		Legal:     v.Legal,
		Discarded: v.Discarded,
		Cut:       v.Cut,
		Pile:      v.Pile,
		Count:     v.Count,
		OppCards:  v.OpponentCount,
	}
	if v.Viewer.Valid() {
		view.MyScore = v.Scores[v.Viewer]
		view.OppScore = v.Scores[v.Viewer.Other()]
	}
	return view
}
