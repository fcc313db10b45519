package cribbage

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cribbage-lite/card"
)

// Game is one table's complete state. Every exported method takes the lock, so a Game
// is safe to share, but the server still funnels all mutations through one actor.
type Game struct {
	cfg Config
	rng *rand.Rand
	now func() time.Time

	mu sync.Mutex

	players [2]*Player

	stage  Stage
	dealer Seat
	turn   Seat
	handNo int

	deck card.CardList
	crib card.CardList
	cut  card.Card

	// pegging sequence
	count      int
	pile       card.CardList
	lastPlayer Seat

	scores      [2]int
	wins        [2]int
	gameOver    bool
	gameWinner  Seat
	matchOver   bool
	matchWinner Seat

	lastShow *ShowResult
	lastPeg  *PegEvent
	lastPass *PassEvent
	passSeq  uint64
	pegSeq   uint64

	activity []string
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.ActivityLimit == 0 {
		cfg.ActivityLimit = defaultActivityLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	g := &Game{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
	g.resetLocked()
	return g, nil
}

func (g *Game) Config() Config { return g.cfg }

// Reset reinitialises the table, seats included. Match history and the pass sequence restart.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players = [2]*Player{}
	g.resetLocked()
}

func (g *Game) resetLocked() {
	g.stage = StageLobby
	g.dealer = g.cfg.StartingDealer
	g.turn = g.cfg.StartingDealer
	g.handNo = 0
	g.scores = [2]int{}
	g.wins = [2]int{}
	g.gameOver, g.matchOver = false, false
	g.gameWinner, g.matchWinner = NoSeat, NoSeat
	g.passSeq = 0
	g.pegSeq = 0
	g.activity = nil
	g.clearHandLocked()
}

func (g *Game) clearHandLocked() {
	g.deck = nil
	g.crib = nil
	g.cut = card.CardInvalid
	g.count = 0
	g.pile = nil
	g.lastPlayer = NoSeat
	g.lastShow = nil
	g.lastPeg = nil
	g.lastPass = nil
	for _, p := range g.players {
		if p != nil {
			p.resetForNewHand()
		}
	}
}

// SitDown seats a player. A returning identity may retake its own seat; a seat held by
// someone else is only free once vacated.
func (g *Game) SitDown(seat Seat, id, name string, robot bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !seat.Valid() {
		return fmt.Errorf("invalid seat %d", seat)
	}
	cur := g.players[seat]
	if cur != nil && cur.Present() && cur.ID != id {
		return fmt.Errorf("%w: %s", ErrSeatTaken, seat)
	}
	if cur == nil {
		cur = &Player{}
		cur.resetForNewHand()
		g.players[seat] = cur
	}
	// Cards stay with the seat, so a replacement picks up the hand in progress.
	cur.ID = id
	cur.Name = name
	cur.Robot = robot
	cur.Connected = true
	g.logLocked("%s sits at %s", name, seat)
	return nil
}

// Vacate records that a seat's occupant left. Table state is otherwise untouched.
func (g *Game) Vacate(seat Seat) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !seat.Valid() {
		return fmt.Errorf("invalid seat %d", seat)
	}
	p := g.players[seat]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrSeatEmpty, seat)
	}
	p.Connected = false
	g.logLocked("%s left %s", p.Name, seat)
	return nil
}

func (g *Game) Player(seat Seat) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !seat.Valid() {
		return nil
	}
	return g.players[seat]
}

// SeatOf returns the seat held by id, or NoSeat.
func (g *Game) SeatOf(id string) Seat {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.players {
		if p != nil && p.ID == id {
			return Seat(i)
		}
	}
	return NoSeat
}

func (g *Game) bothSeatedLocked() bool {
	return g.players[P1].Present() && g.players[P2].Present()
}

func (g *Game) overLocked() error {
	if g.matchOver {
		return ErrMatchOver
	}
	if g.gameOver {
		return ErrGameOver
	}
	return nil
}

// BeginHand shuffles, deals six cards each and opens the discard stage.
func (g *Game) BeginHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.overLocked(); err != nil {
		return err
	}
	if !g.bothSeatedLocked() {
		return ErrSeatEmpty
	}
	g.beginHandLocked()
	return nil
}

func (g *Game) beginHandLocked() {
	g.clearHandLocked()
	g.handNo++

	if g.cfg.DeckOverride != nil {
		g.deck.Init(g.cfg.DeckOverride)
	} else {
		g.deck.Init(card.Standard52)
		g.deck.Shuffle(g.rng)
	}

	first := g.dealer.Other()
	for i := 0; i < HandSize; i++ {
		for _, seat := range []Seat{first, g.dealer} {
			cards, ok := g.deck.PopCards(1)
			if !ok {
				panic("deck underflow")
			}
			g.players[seat].hand.Add(cards...)
		}
	}
	for _, p := range g.players {
		p.pegHand = p.hand.Clone()
	}

	g.stage = StageDiscard
	g.turn = g.dealer
	g.logLocked("hand %d dealt, %s deals", g.handNo, g.dealer)
}

// Discard moves exactly two of the seat's cards into the dealer's crib.
func (g *Game) Discard(seat Seat, ids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.overLocked(); err != nil {
		return err
	}
	if g.stage != StageDiscard {
		return ErrInvalidStage
	}
	p, err := g.seatedLocked(seat)
	if err != nil {
		return err
	}
	if p.hasDiscarded() {
		return fmt.Errorf("%w: %s already discarded", ErrIllegalCardSelection, seat)
	}
	if len(ids) != DiscardSize {
		return fmt.Errorf("%w: need %d cards, got %d", ErrIllegalCardSelection, DiscardSize, len(ids))
	}
	cards, err := card.ParseList(ids)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalCardSelection, err)
	}
	if cards[0] == cards[1] {
		return fmt.Errorf("%w: duplicate card %s", ErrIllegalCardSelection, cards[0].ID())
	}
	for _, c := range cards {
		if !p.hand.Contains(c) {
			return fmt.Errorf("%w: %s not in hand", ErrIllegalCardSelection, c.ID())
		}
	}

	for _, c := range cards {
		p.hand.Remove(c)
		p.pegHand.Remove(c)
		p.discards.Add(c)
		g.crib.Add(c)
	}
	g.logLocked("%s discards to the crib", seat)

	if g.crib.Count() == CribSize {
		g.startPeggingLocked()
	}
	return nil
}

func (g *Game) startPeggingLocked() {
	cut, ok := g.deck.PopCards(1)
	if !ok {
		panic("deck underflow")
	}
	g.cut = cut[0]
	for _, p := range g.players {
		p.pegHand = p.hand.Clone()
		p.saidGo = false
	}
	g.count = 0
	g.pile = nil
	g.lastPlayer = NoSeat
	g.turn = g.dealer.Other()
	g.stage = StagePegging
	g.logLocked("cut %s, %s leads", g.cut.ID(), g.turn)
}

// NextHand passes the deal after a show.
func (g *Game) NextHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.overLocked(); err != nil {
		return err
	}
	if g.stage != StageShow {
		return ErrInvalidStage
	}
	g.dealer = g.dealer.Other()
	g.dealIfSeatedLocked()
	return nil
}

// NextGame starts the next game of an unfinished match.
func (g *Game) NextGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.matchOver {
		return ErrMatchOver
	}
	if !g.gameOver {
		return ErrInvalidStage
	}
	g.scores = [2]int{}
	g.gameOver = false
	g.gameWinner = NoSeat
	g.dealer = g.dealer.Other()
	g.logLocked("new game")
	g.dealIfSeatedLocked()
	return nil
}

// NewMatch resets wins and scores and always succeeds.
func (g *Game) NewMatch() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.scores = [2]int{}
	g.wins = [2]int{}
	g.gameOver, g.matchOver = false, false
	g.gameWinner, g.matchWinner = NoSeat, NoSeat
	g.dealer = g.cfg.StartingDealer
	g.logLocked("new match")
	g.dealIfSeatedLocked()
	return nil
}

func (g *Game) dealIfSeatedLocked() {
	if g.bothSeatedLocked() {
		g.beginHandLocked()
		return
	}
	g.clearHandLocked()
	g.stage = StageLobby
	g.turn = g.dealer
}

func (g *Game) seatedLocked(seat Seat) (*Player, error) {
	if !seat.Valid() {
		return nil, fmt.Errorf("%w: invalid seat %d", ErrNotYourTurn, seat)
	}
	p := g.players[seat]
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrSeatEmpty, seat)
	}
	return p, nil
}

// awardLocked adds points and runs the game-end check. Nothing accrues once the game is over.
func (g *Game) awardLocked(seat Seat, points int, reason string) {
	if points <= 0 || g.gameOver || g.matchOver {
		return
	}
	g.scores[seat] += points
	if g.scores[seat] > g.cfg.GameTarget {
		g.scores[seat] = g.cfg.GameTarget
	}
	g.logLocked("%s scores %d (%s), now %d", seat, points, reason, g.scores[seat])
	g.checkGameEndLocked(seat)
}

func (g *Game) checkGameEndLocked(seat Seat) {
	if g.gameOver || g.scores[seat] < g.cfg.GameTarget {
		return
	}
	g.gameOver = true
	g.gameWinner = seat
	g.wins[seat]++
	g.logLocked("%s wins the game %d-%d", seat, g.scores[seat], g.scores[seat.Other()])
	if g.wins[seat] >= g.cfg.MatchTarget {
		g.matchOver = true
		g.matchWinner = seat
		g.logLocked("%s wins the match", seat)
	}
}

func (g *Game) logLocked(format string, args ...any) {
	g.activity = append(g.activity, fmt.Sprintf(format, args...))
	if extra := len(g.activity) - g.cfg.ActivityLimit; extra > 0 {
		g.activity = append([]string(nil), g.activity[extra:]...)
	}
}

// LegalPlays lists the seat's pegging cards that keep the count at or under 31.
func (g *Game) LegalPlays(seat Seat) ([]card.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stage != StagePegging {
		return nil, ErrInvalidStage
	}
	p, err := g.seatedLocked(seat)
	if err != nil {
		return nil, err
	}
	return p.legalPlays(g.count), nil
}

// NeedsAction reports whether the table is waiting on seat.
func (g *Game) NeedsAction(seat Seat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.needsActionLocked(seat)
}

func (g *Game) needsActionLocked(seat Seat) bool {
	if !seat.Valid() || g.gameOver || g.matchOver {
		return false
	}
	p := g.players[seat]
	if p == nil {
		return false
	}
	switch g.stage {
	case StageDiscard:
		return !p.hasDiscarded()
	case StagePegging:
		return g.turn == seat
	}
	return false
}
