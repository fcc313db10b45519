package codec

import (
	"time"

	"cribbage-lite/card"
	"cribbage-lite/cribbage"
)

// SeatSnapshot is the wire form of cribbage.SeatView.
type SeatSnapshot struct {
	Viewer string `json:"viewer"`
	Stage  string `json:"stage"`
	HandNo int    `json:"handNo"`
	Dealer string `json:"dealer"`
	Turn   string `json:"turn"`
	Cut    string `json:"cut,omitempty"`

	Scores      [2]int `json:"scores"`
	Wins        [2]int `json:"wins"`
	GameTarget  int    `json:"gameTarget"`
	MatchTarget int    `json:"matchTarget"`
	GameOver    bool   `json:"gameOver"`
	GameWinner  string `json:"gameWinner,omitempty"`
	MatchOver   bool   `json:"matchOver"`
	MatchWinner string `json:"matchWinner,omitempty"`

	Names     [2]string `json:"names"`
	Robot     [2]bool   `json:"robot"`
	Connected [2]bool   `json:"connected"`

	Hand          []string `json:"hand"`
	Legal         []string `json:"legal"`
	Discarded     bool     `json:"discarded"`
	OpponentCount int      `json:"opponentCount"`
	OpponentHand  []string `json:"opponentHand,omitempty"`
	CribCount     int      `json:"cribCount"`
	Crib          []string `json:"crib,omitempty"`

	Pile       []string `json:"pile"`
	Count      int      `json:"count"`
	LastPlayer string   `json:"lastPlayer,omitempty"`
	SaidGo     [2]bool  `json:"saidGo"`

	LastPeg  *PegPayload  `json:"lastPeg,omitempty"`
	LastPass *PassPayload `json:"lastPass,omitempty"`
	Show     *ShowPayload `json:"show,omitempty"`
	Activity []string     `json:"activity"`
}

type PegPayload struct {
	Seat   string   `json:"seat"`
	Points int      `json:"points"`
	Labels []string `json:"labels"`
	Seq    uint64   `json:"seq"`
}

type PassPayload struct {
	Seat string `json:"seat"`
	Seq  uint64 `json:"seq"`
	AtMs int64  `json:"atMs"`
}

type ShowPayload struct {
	Cut        string          `json:"cut"`
	Dealer     string          `json:"dealer"`
	NonDealer  HandShowPayload `json:"nonDealer"`
	DealerHand HandShowPayload `json:"dealerHand"`
	Crib       HandShowPayload `json:"crib"`
}

type HandShowPayload struct {
	Seat  string         `json:"seat"`
	Cards []string       `json:"cards"`
	Items []ScorePayload `json:"items"`
	Total int            `json:"total"`
}

type ScorePayload struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Points   int    `json:"points"`
}

func seatName(s cribbage.Seat) string {
	if !s.Valid() {
		return ""
	}
	return s.String()
}

// SnapshotFromView converts a seat view for the wire.
func SnapshotFromView(v cribbage.SeatView) SeatSnapshot {
	s := SeatSnapshot{
		Viewer:        seatName(v.Viewer),
		Stage:         v.Stage.String(),
		HandNo:        v.HandNo,
		Dealer:        seatName(v.Dealer),
		Turn:          seatName(v.Turn),
		Scores:        v.Scores,
		Wins:          v.Wins,
		GameTarget:    v.GameTarget,
		MatchTarget:   v.MatchTarget,
		GameOver:      v.GameOver,
		MatchOver:     v.MatchOver,
		Names:         v.Names,
		Robot:         v.Robot,
		Connected:     v.Connected,
		Hand:          card.IDs(v.Hand),
		Legal:         card.IDs(v.Legal),
		Discarded:     v.Discarded,
		OpponentCount: v.OpponentCount,
		CribCount:     v.CribCount,
		Pile:          card.IDs(v.Pile),
		Count:         v.Count,
		LastPlayer:    seatName(v.LastPlayer),
		SaidGo:        v.SaidGo,
		Activity:      v.Activity,
	}
	if s.Activity == nil {
		s.Activity = []string{}
	}
	if v.Cut.Valid() {
		s.Cut = v.Cut.ID()
	}
	if v.GameOver {
		s.GameWinner = seatName(v.GameWinner)
	}
	if v.MatchOver {
		s.MatchWinner = seatName(v.MatchWinner)
	}
	if v.OpponentHand != nil {
		s.OpponentHand = card.IDs(v.OpponentHand)
	}
	if v.Crib != nil {
		s.Crib = card.IDs(v.Crib)
	}
	if ev := v.LastPeg; ev != nil {
		s.LastPeg = &PegPayload{Seat: seatName(ev.Seat), Points: ev.Points, Labels: ev.Labels, Seq: ev.Seq}
	}
	if ev := v.LastPass; ev != nil {
		s.LastPass = &PassPayload{Seat: seatName(ev.Seat), Seq: ev.Seq, AtMs: unixMilli(ev.At)}
	}
	if r := v.Show; r != nil {
		s.Show = &ShowPayload{
			Cut:        r.Cut.ID(),
			Dealer:     seatName(r.Dealer),
			NonDealer:  handShow(r.NonDealer),
			DealerHand: handShow(r.DealerHand),
			Crib:       handShow(r.Crib),
		}
	}
	return s
}

func handShow(h cribbage.HandShow) HandShowPayload {
	out := HandShowPayload{
		Seat:  seatName(h.Seat),
		Cards: card.IDs(h.Cards),
		Items: make([]ScorePayload, 0, len(h.Breakdown.Items)),
		Total: h.Breakdown.Total,
	}
	for _, it := range h.Breakdown.Items {
		out.Items = append(out.Items, ScorePayload{Category: it.Category, Label: it.Label, Points: it.Points})
	}
	return out
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
