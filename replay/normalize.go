package replay

import (
	"fmt"
	"strings"

	"cribbage-lite/card"
	"cribbage-lite/cribbage"
)

type actionKind uint8

const (
	actDiscard actionKind = iota + 1
	actPlay
	actGo
	actNextHand
	actNextGame
	actNewMatch
)

// actionNames accepts the tape spelling and the websocket message spelling.
var actionNames = map[string]actionKind{
	"discard":   actDiscard,
	"play":      actPlay,
	"go":        actGo,
	"next_hand": actNextHand,
	"next_game": actNextGame,
	"new_match": actNewMatch,
	"nexthand":  actNextHand,
	"nextgame":  actNextGame,
	"newmatch":  actNewMatch,
}

type normalizedAction struct {
	spec  ActionSpec
	kind  actionKind
	seat  cribbage.Seat
	cards []string
}

type normalizedScript struct {
	cfg     cribbage.Config
	names   [2]string
	actions []normalizedAction
}

func normalizeScript(s Script) (normalizedScript, error) {
	var out normalizedScript

	out.cfg = cribbage.DefaultConfig()
	out.cfg.Seed = seedFromScript(s)
	if s.GameTarget < 0 || s.MatchTarget < 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_targets", Message: "targets must be >= 0"}
	}
	if s.GameTarget > 0 {
		out.cfg.GameTarget = s.GameTarget
	}
	if s.MatchTarget > 0 {
		out.cfg.MatchTarget = s.MatchTarget
	}
	if s.StartingDealer != "" {
		seat, ok := cribbage.ParseSeat(strings.ToLower(strings.TrimSpace(s.StartingDealer)))
		if !ok {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_dealer", Message: fmt.Sprintf("unknown seat %q", s.StartingDealer)}
		}
		out.cfg.StartingDealer = seat
	}
	if len(s.Deck) > 0 {
		deck, err := card.ParseList(s.Deck)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_deck", Message: err.Error()}
		}
		out.cfg.DeckOverride = deck
	}

	out.names = [2]string{"P1", "P2"}
	if len(s.Players) > 2 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_players", Message: "at most 2 players"}
	}
	for i, p := range s.Players {
		seat, ok := cribbage.ParseSeat(strings.ToLower(strings.TrimSpace(p.Seat)))
		if !ok {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_players", Message: fmt.Sprintf("player %d: unknown seat %q", i, p.Seat)}
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			out.names[seat] = name
		}
	}

	out.actions = make([]normalizedAction, 0, len(s.Actions))
	for i, a := range s.Actions {
		kind, ok := actionNames[strings.ToLower(strings.TrimSpace(a.Type))]
		if !ok {
			return out, &ReplayError{StepIndex: i, Reason: "invalid_action", Message: fmt.Sprintf("unknown action type %q", a.Type)}
		}
		na := normalizedAction{spec: a, kind: kind, seat: cribbage.NoSeat}
		if kind == actDiscard || kind == actPlay || kind == actGo {
			seat, ok := cribbage.ParseSeat(strings.ToLower(strings.TrimSpace(a.Seat)))
			if !ok {
				return out, &ReplayError{StepIndex: i, Reason: "invalid_seat", Message: fmt.Sprintf("action %s needs seat p1 or p2, got %q", a.Type, a.Seat)}
			}
			na.seat = seat
		}
		switch kind {
		case actDiscard:
			if len(a.Cards) != cribbage.DiscardSize {
				return out, &ReplayError{StepIndex: i, Reason: "invalid_cards", Message: fmt.Sprintf("discard needs %d cards", cribbage.DiscardSize)}
			}
		case actPlay:
			if len(a.Cards) != 1 {
				return out, &ReplayError{StepIndex: i, Reason: "invalid_cards", Message: "play needs exactly 1 card"}
			}
		}
		na.cards = a.Cards
		na.spec.Seat = na.seat.String()
		if !na.seat.Valid() {
			na.spec.Seat = ""
		}
		na.spec.Type = canonicalName(kind)
		out.actions = append(out.actions, na)
	}
	return out, nil
}

func canonicalName(k actionKind) string {
	switch k {
	case actDiscard:
		return "discard"
	case actPlay:
		return "play"
	case actGo:
		return "go"
	case actNextHand:
		return "next_hand"
	case actNextGame:
		return "next_game"
	case actNewMatch:
		return "new_match"
	}
	return "unknown"
}

// seedFromScript keeps shuffled scripts reproducible: a zero seed would mean wall-clock
// time inside the engine.
func seedFromScript(s Script) int64 {
	if s.Seed != 0 {
		return s.Seed
	}
	return 1
}
