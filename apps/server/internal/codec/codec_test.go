package codec

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cribbage-lite/card"
	"cribbage-lite/cribbage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClient_Text(t *testing.T) {
	msg, err := DecodeClient([]byte(`{"type":"join","tableId":"t-1","name":"  Alice ","vsBot":true}`), false)
	require.NoError(t, err)
	assert.Equal(t, ClientMessage{Type: MsgJoin, TableID: "t-1", Name: "Alice", VsBot: true}, msg)

	msg, err = DecodeClient([]byte(`{"type":"discard","cards":["5H","10c"]}`), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"5h", "Tc"}, msg.Cards)

	msg, err = DecodeClient([]byte(`{"type":"play","card":"js"}`), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Js"}, msg.Cards)

	msg, err = DecodeClient([]byte(`{"type":"nextHand"}`), false)
	require.NoError(t, err)
	assert.Equal(t, MsgNextHand, msg.Type)
}

func TestDecodeClient_RejectsBadShapes(t *testing.T) {
	bad := []string{
		`not json`,
		`{"type":"fold"}`,
		`{"type":"join"}`,
		`{"type":"join","tableId":"has space"}`,
		`{"type":"discard","cards":["5h"]}`,
		`{"type":"discard","cards":["5h","5H"]}`,
		`{"type":"discard","cards":["5h","zz"]}`,
		`{"type":"play"}`,
		`{"type":"play","card":"11s"}`,
	}
	for _, raw := range bad {
		_, err := DecodeClient([]byte(raw), false)
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("DecodeClient(%s) err = %v, want ErrBadRequest", raw, err)
		}
	}
}

func TestClientMessage_BinaryRoundTrip(t *testing.T) {
	in := ClientMessage{Type: MsgDiscard, Cards: []string{"Ah", "Kd"}}
	data, err := EncodeClient(in, true)
	require.NoError(t, err)

	out, err := DecodeClient(data, true)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeClient([]byte{0xff, 0x01}, true)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestEnvelope_ProtoMatchesJSON(t *testing.T) {
	env := WrapServerEnvelope("t1", 7, TypeError, ErrorPayload{Kind: "not-your-turn", Message: "not your turn"})

	text, err := Encode(env, false)
	require.NoError(t, err)
	bin, err := Encode(env, true)
	require.NoError(t, err)

	a, payloadA, err := DecodeEnvelope(text, false)
	require.NoError(t, err)
	b, payloadB, err := DecodeEnvelope(bin, true)
	require.NoError(t, err)

	assert.Equal(t, a.TableID, b.TableID)
	assert.Equal(t, uint64(7), b.ServerSeq)
	assert.Equal(t, TypeError, b.Type)
	assert.Equal(t, a.ServerTsMs, b.ServerTsMs)
	assert.JSONEq(t, string(payloadA), string(payloadB))
}

func TestSnapshotFromView_HidesWhatTheViewHides(t *testing.T) {
	cfg := cribbage.DefaultConfig()
	cfg.Seed = 3
	cfg.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	g, err := cribbage.NewGame(cfg)
	require.NoError(t, err)
	require.NoError(t, g.SitDown(cribbage.P1, "u1", "Alice", false))
	require.NoError(t, g.SitDown(cribbage.P2, "u2", "Bob", false))
	require.NoError(t, g.BeginHand())

	s := SnapshotFromView(g.View(cribbage.P2))
	assert.Equal(t, "p2", s.Viewer)
	assert.Equal(t, "discard", s.Stage)
	assert.Len(t, s.Hand, cribbage.HandSize)
	assert.Equal(t, cribbage.HandSize, s.OpponentCount)
	assert.Nil(t, s.OpponentHand)
	assert.Nil(t, s.Crib)
	assert.Empty(t, s.Cut)
	assert.Equal(t, [2]string{"Alice", "Bob"}, s.Names)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "opponentHand")
	for _, c := range g.Snapshot().Players[cribbage.P1].Hand {
		assert.NotContains(t, s.Hand, c.ID())
	}
	for _, id := range s.Hand {
		_, err := card.Parse(id)
		assert.NoError(t, err)
	}
}
