package cribbage

import "time"

// Seat is one of the two player roles at a table.
type Seat uint8

const (
	P1     Seat = 0
	P2     Seat = 1
	NoSeat Seat = 255
)

func (s Seat) Valid() bool { return s == P1 || s == P2 }

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	switch s {
	case P1:
		return P2
	case P2:
		return P1
	}
	return NoSeat
}

func (s Seat) String() string {
	switch s {
	case P1:
		return "p1"
	case P2:
		return "p2"
	}
	return "none"
}

// ParseSeat is the inverse of Seat.String.
func ParseSeat(raw string) (Seat, bool) {
	switch raw {
	case "p1":
		return P1, true
	case "p2":
		return P2, true
	}
	return NoSeat, false
}

// Stage 牌桌阶段
type Stage byte

const (
	StageLobby   Stage = 0
	StageDiscard Stage = 1
	StagePegging Stage = 2
	StageShow    Stage = 3
)

var StageDictionary = map[Stage]string{
	StageLobby:   "lobby",
	StageDiscard: "discard",
	StagePegging: "pegging",
	StageShow:    "show",
}

func (s Stage) String() string {
	if name, ok := StageDictionary[s]; ok {
		return name
	}
	return "unknown"
}

const (
	HandSize    = 6
	DiscardSize = 2
	KeepSize    = 4
	CribSize    = 4
	PegLimit    = 31

	DefaultGameTarget    = 121
	DefaultMatchTarget   = 3
	defaultActivityLimit = 30

	// 12 dealt + 1 cut
	minDeckSize = 2*HandSize + 1
)

// PegEvent is the most recent pegging award. Seq grows with every award, like PassEvent.
type PegEvent struct {
	Seat   Seat
	Points int
	Labels []string
	Seq    uint64
}

// PassEvent is a GO. Seq grows strictly per table so identical passes stay distinguishable.
type PassEvent struct {
	Seat Seat
	Seq  uint64
	At   time.Time
}
