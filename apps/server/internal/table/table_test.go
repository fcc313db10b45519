package table

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cribbage-lite/apps/server/internal/codec"
	"cribbage-lite/apps/server/internal/ledger"
	"cribbage-lite/card"
	"cribbage-lite/cribbage"
	"cribbage-lite/cribbage/npc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// P1 deals; P2 is dealt Ts Js Qs Ks Ac 7d, P1 9h 9d 9c 8h 2c 4d, and 3h is cut.
var stackedDeck = []string{"Ts", "9h", "Js", "9d", "Qs", "9c", "Ks", "8h", "Ac", "2c", "7d", "4d", "3h"}

type outbox struct {
	mu     sync.Mutex
	byUser map[string][]codec.Envelope
}

func (o *outbox) send(userID string, env codec.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byUser[userID] = append(o.byUser[userID], env)
}

func (o *outbox) last(userID string) (codec.Envelope, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.byUser[userID]
	if len(list) == 0 {
		return codec.Envelope{}, false
	}
	return list[len(list)-1], true
}

func (o *outbox) all(userID string) []codec.Envelope {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]codec.Envelope(nil), o.byUser[userID]...)
}

type fakeLedger struct {
	mu      sync.Mutex
	events  map[string]int
	results []ledger.GameResult
}

func (f *fakeLedger) Close() error { return nil }

func (f *fakeLedger) AppendEvent(gameID, _ string, _ codec.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[gameID]++
}

func (f *fakeLedger) RecordGameResult(res ledger.GameResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
}

func (f *fakeLedger) ListRecent(context.Context, string, int) ([]ledger.GameResult, error) {
	return nil, nil
}

func (f *fakeLedger) GetGameEvents(context.Context, string, string) ([]ledger.EventItem, error) {
	return nil, ledger.ErrNotFound
}

func newTestTable(t *testing.T, mutate func(*cribbage.Config), mgr *npc.Manager) (*Table, *outbox, *fakeLedger) {
	t.Helper()
	cfg := cribbage.DefaultConfig()
	deck, err := card.ParseList(stackedDeck)
	require.NoError(t, err)
	cfg.DeckOverride = deck
	if mutate != nil {
		mutate(&cfg)
	}

	box := &outbox{byUser: make(map[string][]codec.Envelope)}
	led := &fakeLedger{events: make(map[string]int)}
	tbl, err := New("t1", cfg, box.send, led, nil, mgr)
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)
	return tbl, box, led
}

func joinBoth(t *testing.T, tbl *Table) {
	t.Helper()
	seat, err := tbl.Join("alice", "Alice", false)
	require.NoError(t, err)
	require.Equal(t, cribbage.P1, seat)
	seat, err = tbl.Join("bob", "Bob", false)
	require.NoError(t, err)
	require.Equal(t, cribbage.P2, seat)
}

func submit(tbl *Table, typ EventType, userID string, cards ...string) error {
	return tbl.SubmitEvent(Event{Type: typ, UserID: userID, Cards: cards})
}

func TestJoin_SeatsAndDeals(t *testing.T) {
	tbl, box, _ := newTestTable(t, nil, nil)

	seat, err := tbl.Join("alice", "Alice", false)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P1, seat)
	assert.Equal(t, cribbage.StageLobby, tbl.Snapshot().Stage, "one player cannot be dealt in")

	seat, err = tbl.Join("bob", "", false)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P2, seat)
	assert.Equal(t, cribbage.StageDiscard, tbl.Snapshot().Stage)
	assert.Equal(t, "bob", tbl.Snapshot().Players[cribbage.P2].Name, "empty nickname falls back to the id")

	_, err = tbl.Join("carol", "Carol", false)
	assert.ErrorIs(t, err, ErrTableFull)

	seat, err = tbl.Join("alice", "Alice", false)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P1, seat, "returning identity keeps its seat")

	first := box.all("alice")[0]
	assert.Equal(t, codec.TypeJoined, first.Type)
	assert.Equal(t, codec.JoinedPayload{UserID: "alice", Seat: "p1"}, first.Payload)

	env, ok := box.last("alice")
	require.True(t, ok)
	require.Equal(t, codec.TypeSnapshot, env.Type)
	snap := env.Payload.(codec.SeatSnapshot)
	assert.Equal(t, "discard", snap.Stage)
	assert.Equal(t, []string{"9h", "9d", "9c", "8h", "2c", "4d"}, snap.Hand)
	assert.Empty(t, snap.OpponentHand)
	assert.Equal(t, 6, snap.OpponentCount)
}

func TestSnapshots_SequenceIsMonotonic(t *testing.T) {
	tbl, box, led := newTestTable(t, nil, nil)
	joinBoth(t, tbl)
	require.NoError(t, submit(tbl, EventDiscard, "alice", "2c", "4d"))

	var prev uint64
	for _, env := range box.all("alice") {
		assert.Greater(t, env.ServerSeq, prev)
		prev = env.ServerSeq
	}
	led.mu.Lock()
	defer led.mu.Unlock()
	assert.Greater(t, led.events[tbl.GameID()], 0)
}

func TestActions_Rejected(t *testing.T) {
	tbl, _, _ := newTestTable(t, nil, nil)
	joinBoth(t, tbl)

	err := submit(tbl, EventPlay, "bob", "Ts")
	assert.ErrorIs(t, err, cribbage.ErrInvalidStage)
	assert.Equal(t, "invalid-stage", cribbage.FailureKind(err))

	err = submit(tbl, EventDiscard, "mallory", "Ts", "Js")
	assert.ErrorIs(t, err, cribbage.ErrSeatEmpty)

	err = submit(tbl, EventDiscard, "bob", "Ts")
	assert.ErrorIs(t, err, cribbage.ErrIllegalCardSelection)

	err = submit(tbl, EventNextHand, "bob")
	assert.ErrorIs(t, err, cribbage.ErrInvalidStage)
}

func TestConnLost_VacatesSeatOnly(t *testing.T) {
	tbl, box, _ := newTestTable(t, nil, nil)
	joinBoth(t, tbl)
	require.NoError(t, submit(tbl, EventDiscard, "alice", "2c", "4d"))
	before := tbl.Snapshot()

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventConnLost, UserID: "alice"}))
	after := tbl.Snapshot()
	assert.False(t, after.Players[cribbage.P1].Connected)
	assert.Equal(t, before.Stage, after.Stage)
	assert.Equal(t, before.Players[cribbage.P1].Hand, after.Players[cribbage.P1].Hand)

	env, ok := box.last("bob")
	require.True(t, ok)
	assert.Equal(t, [2]bool{false, true}, env.Payload.(codec.SeatSnapshot).Connected)

	// a newcomer takes the vacated seat and the hand with it
	seat, err := tbl.Join("carol", "Carol", false)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P1, seat)
	assert.Equal(t, before.Players[cribbage.P1].Hand, tbl.Snapshot().Players[cribbage.P1].Hand)
}

func TestGameEnd_RecordsResultAndRunsHooks(t *testing.T) {
	tbl, _, led := newTestTable(t, func(cfg *cribbage.Config) { cfg.GameTarget = 3 }, nil)
	hookCh := make(chan GameEndInfo, 1)
	tbl.AddGameEndHook(func(info GameEndInfo) { hookCh <- info })
	tbl.AddGameEndHook(func(GameEndInfo) { panic("hook failure must not reach the table") })

	joinBoth(t, tbl)
	firstGame := tbl.GameID()
	require.NoError(t, submit(tbl, EventDiscard, "alice", "2c", "4d"))
	require.NoError(t, submit(tbl, EventDiscard, "bob", "Ac", "7d"))
	require.NoError(t, submit(tbl, EventPlay, "bob", "Ts"))
	require.NoError(t, submit(tbl, EventPlay, "alice", "9h"))
	require.NoError(t, submit(tbl, EventPlay, "bob", "Js")) // 9-T-J run of three

	snap := tbl.Snapshot()
	require.True(t, snap.GameOver)
	assert.Equal(t, cribbage.P2, snap.GameWinner)

	select {
	case info := <-hookCh:
		assert.Equal(t, firstGame, info.GameID)
		assert.Equal(t, [2]int{0, 3}, info.Scores)
		assert.Equal(t, [2]string{"alice", "bob"}, info.PlayerIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("game end hook not called")
	}

	led.mu.Lock()
	require.Len(t, led.results, 1)
	assert.Equal(t, "p2", led.results[0].Winner)
	assert.Equal(t, firstGame, led.results[0].GameID)
	led.mu.Unlock()

	err := submit(tbl, EventPlay, "alice", "9d")
	assert.ErrorIs(t, err, cribbage.ErrGameOver)

	require.NoError(t, submit(tbl, EventNextGame, "alice"))
	assert.NotEqual(t, firstGame, tbl.GameID())
	assert.Equal(t, cribbage.StageDiscard, tbl.Snapshot().Stage)
	assert.Equal(t, [2]int{0, 1}, tbl.Snapshot().Wins)
}

func TestVsBot_NPCAnswersHuman(t *testing.T) {
	mgr := npc.NewManager(nil)
	mgr.SetThinkDelay(0)
	tbl, box, _ := newTestTable(t, nil, mgr)

	seat, err := tbl.Join("alice", "Alice", true)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P1, seat)

	snap := tbl.Snapshot()
	require.NotNil(t, snap.Players[cribbage.P2])
	assert.True(t, snap.Players[cribbage.P2].Robot)
	assert.True(t, mgr.IsNPC(snap.Players[cribbage.P2].ID))

	// the robot discards on its own, then leads once alice has discarded
	assert.Eventually(t, func() bool {
		return len(tbl.Snapshot().Crib) == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, submit(tbl, EventDiscard, "alice", "2c", "4d"))

	assert.Eventually(t, func() bool {
		s := tbl.Snapshot()
		return s.Stage == cribbage.StagePegging && s.Turn == cribbage.P1 && len(s.Pile) == 1
	}, 2*time.Second, 10*time.Millisecond)

	env, ok := box.last("alice")
	require.True(t, ok)
	assert.True(t, env.Payload.(codec.SeatSnapshot).Robot[cribbage.P2])
	assert.Empty(t, box.all(snap.Players[cribbage.P2].ID), "robots get nothing on the wire")
}

func TestVsBot_WithoutManager(t *testing.T) {
	tbl, _, _ := newTestTable(t, nil, nil)
	_, err := tbl.Join("alice", "Alice", true)
	assert.True(t, errors.Is(err, ErrNoNPC))
}

// newPacedBotTable seats alice against a robot whose think delay never elapses, so the test
// drives robot turns by submitting EventNPCTurn itself.
func newPacedBotTable(t *testing.T) (*Table, *npc.Manager, *observer.ObservedLogs) {
	t.Helper()
	mgr := npc.NewManager(nil)
	mgr.SetThinkDelay(time.Hour)

	cfg := cribbage.DefaultConfig()
	deck, err := card.ParseList(stackedDeck)
	require.NoError(t, err)
	cfg.DeckOverride = deck

	core, logs := observer.New(zap.WarnLevel)
	tbl, err := New("bots", cfg, nil, nil, zap.New(core), mgr)
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)

	_, err = tbl.Join("alice", "Alice", true)
	require.NoError(t, err)
	require.Equal(t, cribbage.StageDiscard, tbl.Snapshot().Stage)
	return tbl, mgr, logs
}

func npcState(tbl *Table) (pending bool, streak int) {
	tbl.mu.RLock()
	defer tbl.mu.RUnlock()
	return tbl.npcPending, tbl.npcStreak
}

func robotInstance(t *testing.T, tbl *Table, mgr *npc.Manager) *npc.NPCInstance {
	t.Helper()
	p := tbl.Snapshot().Players[cribbage.P2]
	require.NotNil(t, p)
	inst := mgr.GetInstance(p.ID)
	require.NotNil(t, inst)
	return inst
}

type rejectedBrain struct{}

func (rejectedBrain) Name() string { return "rejected" }

// Decide plays a card during the discard, which the game refuses.
func (rejectedBrain) Decide(view npc.GameView) npc.Decision {
	return npc.Decision{Kind: npc.DecisionPlay, Cards: view.Hand[:1]}
}

func TestNPC_StopsAtMoveCeiling(t *testing.T) {
	tbl, _, logs := newPacedBotTable(t)
	pending, _ := npcState(tbl)
	require.True(t, pending, "robot discard is scheduled after the join")

	tbl.mu.Lock()
	tbl.npcStreak = npcMoveCeiling
	tbl.npcPending = false
	tbl.scheduleNPCLocked()
	tbl.mu.Unlock()

	pending, streak := npcState(tbl)
	assert.False(t, pending, "no turn is scheduled past the ceiling")
	assert.Equal(t, npcMoveCeiling, streak)

	before := tbl.Snapshot()
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventNPCTurn}))
	assert.Equal(t, before, tbl.Snapshot(), "a queued turn past the ceiling changes nothing")
	assert.Empty(t, before.Crib)
	assert.GreaterOrEqual(t, logs.FilterMessage("npc stalled").Len(), 2)
}

func TestNPC_RejectedDecisionStalls(t *testing.T) {
	tbl, mgr, logs := newPacedBotTable(t)
	robotInstance(t, tbl, mgr).Brain = rejectedBrain{}

	before := tbl.Snapshot()
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventNPCTurn}))

	assert.Equal(t, before, tbl.Snapshot())
	pending, streak := npcState(tbl)
	assert.False(t, pending, "a rejected move is not retried")
	assert.Zero(t, streak)
	require.Equal(t, 1, logs.FilterMessage("npc stalled").Len())
}

func TestNPC_HumanActionRestartsChain(t *testing.T) {
	tbl, _, _ := newPacedBotTable(t)

	tbl.mu.Lock()
	tbl.npcStreak = npcMoveCeiling
	tbl.npcPending = false
	tbl.mu.Unlock()

	seat, err := tbl.Join("alice", "Alice", false)
	require.NoError(t, err)
	assert.Equal(t, cribbage.P1, seat)

	pending, streak := npcState(tbl)
	assert.True(t, pending, "the rejoin schedules the robot again")
	assert.Zero(t, streak)

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventNPCTurn}))
	assert.Len(t, tbl.Snapshot().Crib, 2, "the robot discards")
	_, streak = npcState(tbl)
	assert.Equal(t, 1, streak)
}

func TestVsBot_NoPersonaLeavesTableAlone(t *testing.T) {
	mgr := npc.NewManager(nil)
	tbl, _, _ := newTestTable(t, nil, mgr)
	joinBoth(t, tbl)
	gameID := tbl.GameID()
	before := tbl.Snapshot()

	mgr.Registry().Remove(npc.DefaultPersonaID)
	_, err := tbl.Join("alice", "Alice", true)
	assert.ErrorIs(t, err, ErrNoNPC)

	assert.Equal(t, before, tbl.Snapshot())
	assert.Equal(t, gameID, tbl.GameID())
}

func TestStop_RejectsEvents(t *testing.T) {
	tbl, _, _ := newTestTable(t, nil, nil)
	tbl.Stop()
	assert.True(t, tbl.IsClosed())
	assert.ErrorIs(t, submit(tbl, EventGo, "alice"), ErrTableClosed)
}
