package table

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cribbage-lite/apps/server/internal/codec"
	"cribbage-lite/apps/server/internal/ledger"
	"cribbage-lite/cribbage"
	"cribbage-lite/cribbage/npc"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Table runs one cribbage game behind an actor loop. Every Game mutation happens in
// handleEvent.
type Table struct {
	ID     string
	Config cribbage.Config

	mu       sync.RWMutex
	game     *cribbage.Game
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	serverSeq uint64

	// gameID names the current game in the ledger; recorded is set once its result is stored.
	gameID   string
	recorded bool

	broadcast func(userID string, env codec.Envelope)
	ledger    ledger.Service
	logger    *zap.Logger

	npcManager *npc.Manager
	npcPending bool
	npcStreak  int

	gameEndHooks []GameEndHook
}

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventDiscard
	EventPlay
	EventGo
	EventNextHand
	EventNextGame
	EventNewMatch
	EventConnLost
	EventNPCTurn
	EventClose
)

func (e EventType) String() string {
	switch e {
	case EventJoin:
		return "join"
	case EventDiscard:
		return "discard"
	case EventPlay:
		return "play"
	case EventGo:
		return "go"
	case EventNextHand:
		return "nextHand"
	case EventNextGame:
		return "nextGame"
	case EventNewMatch:
		return "newMatch"
	case EventConnLost:
		return "connLost"
	case EventNPCTurn:
		return "npcTurn"
	case EventClose:
		return "close"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Event represents a message to the table actor
type Event struct {
	Type      EventType
	UserID    string
	Nickname  string
	VsBot     bool
	Cards     []string
	Timestamp time.Time
	Response  chan error
}

// GameEndInfo is emitted once per finished game.
type GameEndInfo struct {
	TableID     string
	GameID      string
	HandNo      int
	PlayerIDs   [2]string
	Names       [2]string
	Scores      [2]int
	Wins        [2]int
	Winner      cribbage.Seat
	MatchOver   bool
	MatchWinner cribbage.Seat
	EndedAt     time.Time
}

type GameEndHook func(info GameEndInfo)

var (
	ErrTableClosed = errors.New("table closed")
	ErrTableFull   = errors.New("table full")
	ErrNoNPC       = errors.New("no npc available")
)

// npcMoveCeiling bounds consecutive robot moves without a human action.
const npcMoveCeiling = 32

// New creates a table and starts its actor.
func New(
	id string,
	cfg cribbage.Config,
	broadcastFn func(userID string, env codec.Envelope),
	ledgerService ledger.Service,
	logger *zap.Logger,
	npcMgr ...*npc.Manager,
) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledgerService == nil {
		ledgerService = ledger.NewNoop()
	}
	if broadcastFn == nil {
		broadcastFn = func(string, codec.Envelope) {}
	}
	game, err := cribbage.NewGame(cfg)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}

	t := &Table{
		ID:        id,
		Config:    cfg,
		game:      game,
		events:    make(chan Event, 256),
		done:      make(chan struct{}),
		gameID:    uuid.NewString(),
		broadcast: broadcastFn,
		ledger:    ledgerService,
		logger:    logger.With(zap.String("table", id)),
	}
	if len(npcMgr) > 0 && npcMgr[0] != nil {
		t.npcManager = npcMgr[0]
	}

	go t.run()

	t.logger.Info("table created",
		zap.Int("game_target", cfg.GameTarget), zap.Int("match_target", cfg.MatchTarget))
	return t, nil
}

// run is the main actor loop
func (t *Table) run() {
	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-t.done:
			t.logger.Info("actor stopped")
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	var err error
	switch e.Type {
	case EventJoin:
		err = t.handleJoin(e.UserID, e.Nickname, e.VsBot)
	case EventDiscard, EventPlay, EventGo:
		err = t.handleAction(e)
	case EventNextHand:
		err = t.handleNextHand(e.UserID)
	case EventNextGame:
		err = t.handleNextGame(e.UserID)
	case EventNewMatch:
		err = t.handleNewMatch(e.UserID)
	case EventConnLost:
		return t.handleConnLost(e.UserID)
	case EventNPCTurn:
		return t.handleNPCTurn()
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
	if err != nil {
		t.logger.Debug("event rejected",
			zap.Stringer("event", e.Type), zap.String("user", e.UserID), zap.Error(err))
		return err
	}
	t.npcStreak = 0
	t.afterMutationLocked()
	return nil
}

func (t *Table) handleJoin(userID, nickname string, vsBot bool) error {
	name := normalizeNickname(nickname, userID)
	if vsBot {
		return t.handleJoinVsBot(userID, name)
	}

	if seat := t.game.SeatOf(userID); seat.Valid() {
		if err := t.game.SitDown(seat, userID, name, false); err != nil {
			return err
		}
		t.logger.Info("player rejoined", zap.String("user", userID), zap.Stringer("seat", seat))
		t.sendJoined(userID, seat, false)
		t.dealIfReadyLocked()
		return nil
	}

	for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
		if p := t.game.Player(seat); p != nil && p.Present() {
			continue
		}
		if err := t.game.SitDown(seat, userID, name, false); err != nil {
			return err
		}
		t.logger.Info("player joined", zap.String("user", userID), zap.Stringer("seat", seat))
		t.sendJoined(userID, seat, false)
		t.dealIfReadyLocked()
		return nil
	}
	return ErrTableFull
}

// handleJoinVsBot clears the table, seats the human on P1 against an NPC on P2 and deals.
func (t *Table) handleJoinVsBot(userID, name string) error {
	if t.npcManager == nil {
		return ErrNoNPC
	}
	persona := t.npcManager.Registry().Default()
	if persona == nil {
		return fmt.Errorf("%w: no default persona", ErrNoNPC)
	}
	t.despawnNPCsLocked()
	t.game.Reset()
	t.startNewGameLocked()

	if err := t.game.SitDown(cribbage.P1, userID, name, false); err != nil {
		t.game.Reset()
		return err
	}
	inst, err := t.npcManager.SpawnNPC(t.game, cribbage.P2, persona)
	if err != nil {
		t.game.Reset()
		return err
	}
	t.logger.Info("vs-bot table",
		zap.String("user", userID), zap.String("npc", inst.PlayerID), zap.String("persona", inst.Persona.Name))
	t.sendJoined(userID, cribbage.P1, true)
	t.dealIfReadyLocked()
	return nil
}

func (t *Table) dealIfReadyLocked() {
	if t.game.Snapshot().Stage != cribbage.StageLobby {
		return
	}
	if err := t.game.BeginHand(); err != nil {
		if !errors.Is(err, cribbage.ErrSeatEmpty) {
			t.logger.Warn("deal failed", zap.Error(err))
		}
		return
	}
	t.logger.Info("hand dealt", zap.String("game", t.gameID))
}

func (t *Table) handleAction(e Event) error {
	seat, err := t.seatOf(e.UserID)
	if err != nil {
		return err
	}
	switch e.Type {
	case EventDiscard:
		return t.game.Discard(seat, e.Cards)
	case EventPlay:
		if len(e.Cards) != 1 {
			return fmt.Errorf("%w: play needs one card", cribbage.ErrIllegalCardSelection)
		}
		return t.game.PlayCard(seat, e.Cards[0])
	default:
		return t.game.SayGo(seat)
	}
}

func (t *Table) handleNextHand(userID string) error {
	if _, err := t.seatOf(userID); err != nil {
		return err
	}
	return t.game.NextHand()
}

func (t *Table) handleNextGame(userID string) error {
	if _, err := t.seatOf(userID); err != nil {
		return err
	}
	if err := t.game.NextGame(); err != nil {
		return err
	}
	t.startNewGameLocked()
	return nil
}

func (t *Table) handleNewMatch(userID string) error {
	if _, err := t.seatOf(userID); err != nil {
		return err
	}
	if err := t.game.NewMatch(); err != nil {
		return err
	}
	t.startNewGameLocked()
	return nil
}

// handleConnLost marks the seat vacant. The hand in progress is left as it is.
func (t *Table) handleConnLost(userID string) error {
	seat := t.game.SeatOf(userID)
	if !seat.Valid() {
		return nil
	}
	if p := t.game.Player(seat); p == nil || p.IsRobot() {
		return nil
	}
	if err := t.game.Vacate(seat); err != nil {
		return err
	}
	t.logger.Info("player connection lost", zap.String("user", userID), zap.Stringer("seat", seat))
	t.broadcastSnapshots()
	return nil
}

func (t *Table) seatOf(userID string) (cribbage.Seat, error) {
	seat := t.game.SeatOf(userID)
	if !seat.Valid() {
		return cribbage.NoSeat, fmt.Errorf("%w: %s is not seated", cribbage.ErrSeatEmpty, userID)
	}
	return seat, nil
}

// afterMutationLocked fans out the new state and lines up whatever happens next.
func (t *Table) afterMutationLocked() {
	snap := t.game.Snapshot()
	if snap.GameOver && !t.recorded {
		t.handleGameEnd(snap)
	}
	t.broadcastSnapshots()
	t.scheduleNPCLocked()
}

func (t *Table) startNewGameLocked() {
	t.gameID = uuid.NewString()
	t.recorded = false
}

func (t *Table) handleGameEnd(snap cribbage.Snapshot) {
	t.recorded = true
	info := GameEndInfo{
		TableID:     t.ID,
		GameID:      t.gameID,
		HandNo:      snap.HandNo,
		Scores:      snap.Scores,
		Wins:        snap.Wins,
		Winner:      snap.GameWinner,
		MatchOver:   snap.MatchOver,
		MatchWinner: snap.MatchWinner,
		EndedAt:     time.Now().UTC(),
	}
	for i, p := range snap.Players {
		if p != nil {
			info.PlayerIDs[i] = p.ID
			info.Names[i] = p.Name
		}
	}
	t.logger.Info("game ended",
		zap.String("game", t.gameID),
		zap.Stringer("winner", snap.GameWinner),
		zap.Ints("scores", snap.Scores[:]),
		zap.Bool("match_over", snap.MatchOver))

	t.ledger.RecordGameResult(ledger.GameResult{
		GameID:    info.GameID,
		TableID:   info.TableID,
		HandCount: info.HandNo,
		Players:   info.PlayerIDs,
		Names:     info.Names,
		Scores:    info.Scores,
		Winner:    info.Winner.String(),
		MatchOver: info.MatchOver,
		EndedAt:   info.EndedAt,
	})
	t.dispatchGameEndHooks(info)
}

func (t *Table) dispatchGameEndHooks(info GameEndInfo) {
	hooks := append([]GameEndHook(nil), t.gameEndHooks...)
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		go func(cb GameEndHook) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("game end hook panic", zap.Any("panic", r))
				}
			}()
			cb(info)
		}(hook)
	}
}

// SubmitEvent sends an event to the actor
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Join seats userID and reports the seat it holds.
func (t *Table) Join(userID, nickname string, vsBot bool) (cribbage.Seat, error) {
	if err := t.SubmitEvent(Event{Type: EventJoin, UserID: userID, Nickname: nickname, VsBot: vsBot}); err != nil {
		return cribbage.NoSeat, err
	}
	return t.game.SeatOf(userID), nil
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.despawnNPCsLocked()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func normalizeNickname(raw, userID string) string {
	nickname := strings.TrimSpace(raw)
	if nickname == "" {
		return userID
	}
	return nickname
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot returns the omniscient game state.
func (t *Table) Snapshot() cribbage.Snapshot {
	return t.game.Snapshot()
}

// View returns what seat may see.
func (t *Table) View(seat cribbage.Seat) cribbage.SeatView {
	return t.game.View(seat)
}

// GameID is the ledger id of the game in progress.
func (t *Table) GameID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gameID
}

func (t *Table) AddGameEndHook(hook GameEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.gameEndHooks = append(t.gameEndHooks, hook)
	t.mu.Unlock()
}

// --- Broadcast helpers ---

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) sendJoined(userID string, seat cribbage.Seat, vsBot bool) {
	env := codec.WrapServerEnvelope(t.ID, t.nextSeq(), codec.TypeJoined, codec.JoinedPayload{
		UserID: userID,
		Seat:   seat.String(),
		VsBot:  vsBot,
	})
	t.ledger.AppendEvent(t.gameID, seat.String(), env)
	t.broadcast(userID, env)
}

// broadcastSnapshots sends each seat its own view. Every view goes to the ledger; only
// connected humans get it on the wire.
func (t *Table) broadcastSnapshots() {
	for _, seat := range []cribbage.Seat{cribbage.P1, cribbage.P2} {
		p := t.game.Player(seat)
		if p == nil {
			continue
		}
		env := codec.WrapServerEnvelope(t.ID, t.nextSeq(), codec.TypeSnapshot, codec.SnapshotFromView(t.game.View(seat)))
		t.ledger.AppendEvent(t.gameID, seat.String(), env)
		if p.Connected && !p.IsRobot() {
			t.broadcast(p.ID, env)
		}
	}
}
