package replay

// Script describes one table from the first deal: who sits where, how the deck is
// ordered and every action in order.
type Script struct {
	Seed           int64        `json:"seed,omitempty"`
	Deck           []string     `json:"deck,omitempty"`
	StartingDealer string       `json:"starting_dealer,omitempty"`
	GameTarget     int          `json:"game_target,omitempty"`
	MatchTarget    int          `json:"match_target,omitempty"`
	Players        []SeatSpec   `json:"players,omitempty"`
	Actions        []ActionSpec `json:"actions"`
}

type SeatSpec struct {
	Seat string `json:"seat"`
	Name string `json:"name,omitempty"`
}

// ActionSpec is one scripted move. Seat is required for discard, play and go.
type ActionSpec struct {
	Seat  string   `json:"seat,omitempty"`
	Type  string   `json:"type"`
	Cards []string `json:"cards,omitempty"`
}

type Tape struct {
	TapeVersion int    `json:"tape_version"`
	Seed        int64  `json:"seed"`
	Opening     Step   `json:"opening"`
	Steps       []Step `json:"steps"`
}

// Step is the table right after one action. Hands are omniscient: a tape is for review,
// not for play.
type Step struct {
	Index      int         `json:"index"`
	Action     *ActionSpec `json:"action,omitempty"`
	Stage      string      `json:"stage"`
	HandNo     int         `json:"hand_no"`
	Dealer     string      `json:"dealer"`
	Turn       string      `json:"turn"`
	Cut        string      `json:"cut,omitempty"`
	Hands      [2][]string `json:"hands"`
	CribCount  int         `json:"crib_count"`
	Count      int         `json:"count"`
	Pile       []string    `json:"pile,omitempty"`
	Scores     [2]int      `json:"scores"`
	Wins       [2]int      `json:"wins"`
	Peg        *PegStep    `json:"peg,omitempty"`
	Pass       *PassStep   `json:"pass,omitempty"`
	Show       *ShowStep   `json:"show,omitempty"`
	GameWinner string      `json:"game_winner,omitempty"`
	MatchOver  bool        `json:"match_over,omitempty"`
}

type PegStep struct {
	Seat   string   `json:"seat"`
	Points int      `json:"points"`
	Labels []string `json:"labels"`
}

type PassStep struct {
	Seat string `json:"seat"`
	Seq  uint64 `json:"seq"`
}

type ShowStep struct {
	Cut        string      `json:"cut"`
	NonDealer  ScoredCards `json:"non_dealer"`
	DealerHand ScoredCards `json:"dealer_hand"`
	Crib       ScoredCards `json:"crib"`
}

type ScoredCards struct {
	Seat   string   `json:"seat"`
	Cards  []string `json:"cards"`
	Total  int      `json:"total"`
	Labels []string `json:"labels,omitempty"`
}
