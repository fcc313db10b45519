package lobby

import (
	"testing"

	"cribbage-lite/apps/server/internal/codec"
	"cribbage-lite/apps/server/internal/ledger"
	"cribbage-lite/cribbage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard(string, codec.Envelope) {}

func TestLobby_Registry(t *testing.T) {
	l := New(cribbage.DefaultConfig(), ledger.NewNoop(), nil, nil)
	defer l.Close()

	a, err := l.GetOrCreate("alpha", discard)
	require.NoError(t, err)
	again, err := l.GetOrCreate("alpha", discard)
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = l.GetOrCreate("beta", discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, l.ListTables())
	assert.Same(t, a, l.GetTable("alpha"))
	assert.Nil(t, l.GetTable("gamma"))

	require.NoError(t, l.Remove("alpha"))
	assert.True(t, a.IsClosed())
	assert.Equal(t, []string{"beta"}, l.ListTables())
	assert.ErrorIs(t, l.Remove("alpha"), ErrTableNotFound)
}

func TestLobby_BadConfig(t *testing.T) {
	cfg := cribbage.DefaultConfig()
	cfg.GameTarget = 0
	l := New(cfg, ledger.NewNoop(), nil, nil)
	_, err := l.GetOrCreate("alpha", discard)
	assert.Error(t, err)
	assert.Empty(t, l.ListTables())
}
