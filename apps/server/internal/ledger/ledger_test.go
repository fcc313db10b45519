package ledger

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"cribbage-lite/apps/server/internal/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemoryLedger(t *testing.T) Service {
	t.Helper()
	svc, err := NewSQLiteService(":memory:", 50, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewService_Modes(t *testing.T) {
	svc, backend, err := NewService("memory", Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory-noop", backend)
	_, err = svc.GetGameEvents(context.Background(), "g", "")
	assert.ErrorIs(t, err, ErrNotFound)

	svc, backend, err = NewService("local", Options{SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", backend)
	require.NoError(t, svc.Close())

	_, _, err = NewService("redis", Options{}, nil)
	assert.Error(t, err)
}

func TestSQLite_AppendAndReadEvents(t *testing.T) {
	svc := newMemoryLedger(t)

	for seq := uint64(1); seq <= 4; seq++ {
		viewer := "p1"
		if seq%2 == 0 {
			viewer = "p2"
		}
		env := codec.WrapServerEnvelope("t1", seq, codec.TypeSnapshot, map[string]any{"handNo": 1})
		svc.AppendEvent("game-1", viewer, env)
	}
	// duplicate seq is ignored
	svc.AppendEvent("game-1", "p1", codec.WrapServerEnvelope("t1", 1, codec.TypeError, nil))

	events, err := svc.GetGameEvents(context.Background(), "game-1", "")
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.Equal(t, codec.TypeSnapshot, e.EventType)
		require.NotNil(t, e.ServerTsMs)
	}

	raw, err := base64.StdEncoding.DecodeString(events[0].EnvelopeB64)
	require.NoError(t, err)
	env, payload, err := codec.DecodeEnvelope(raw, true)
	require.NoError(t, err)
	assert.Equal(t, "t1", env.TableID)
	assert.JSONEq(t, `{"handNo":1}`, string(payload))

	mine, err := svc.GetGameEvents(context.Background(), "game-1", "p2")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, uint64(2), mine[0].Seq)

	_, err = svc.GetGameEvents(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_RecordAndListResults(t *testing.T) {
	svc := newMemoryLedger(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	svc.RecordGameResult(GameResult{
		GameID: "g1", TableID: "t1", HandCount: 9,
		Players: [2]string{"alice", "npc-1"}, Names: [2]string{"Alice", "Muggins"},
		Scores: [2]int{121, 98}, Winner: "p1", EndedAt: base,
	})
	svc.RecordGameResult(GameResult{
		GameID: "g2", TableID: "t2", HandCount: 11,
		Players: [2]string{"bob", "carol"}, Names: [2]string{"Bob", "Carol"},
		Scores: [2]int{110, 121}, Winner: "p2", MatchOver: true, EndedAt: base.Add(time.Hour),
	})

	all, err := svc.ListRecent(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "g2", all[0].GameID, "newest first")
	assert.True(t, all[0].MatchOver)
	assert.Equal(t, [2]int{110, 121}, all[0].Scores)
	assert.Equal(t, base.Add(time.Hour), all[0].EndedAt)

	alice, err := svc.ListRecent(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "g1", alice[0].GameID)
	assert.Equal(t, [2]string{"Alice", "Muggins"}, alice[0].Names)

	byName, err := svc.ListRecent(context.Background(), "Carol", 10)
	require.NoError(t, err)
	require.Len(t, byName, 1)

	// re-recording the same game updates it in place
	svc.RecordGameResult(GameResult{
		GameID: "g1", TableID: "t1", HandCount: 10,
		Players: [2]string{"alice", "npc-1"}, Names: [2]string{"Alice", "Muggins"},
		Scores: [2]int{121, 100}, Winner: "p1", EndedAt: base,
	})
	alice, err = svc.ListRecent(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, 10, alice[0].HandCount)
}

func TestRebind(t *testing.T) {
	pg := &sqlService{driver: "postgres"}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	lite := &sqlService{driver: "sqlite"}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
