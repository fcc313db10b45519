package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGameEndSubject(t *testing.T) {
	assert.Equal(t, "cribbage.table.t1.game_end", GameEndSubject("t1"))
}

func TestNew_EmptyURLIsNoop(t *testing.T) {
	p, err := New("  ", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.PublishGameEnd(GameEnd{TableID: "t1"}))
	p.Close()
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New("nats://127.0.0.1:1", zap.NewNop())
	assert.Error(t, err)
}
