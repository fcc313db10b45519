package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.LedgerMode)
	assert.Equal(t, 121, cfg.GameTarget)
	assert.Equal(t, 3, cfg.MatchTarget)
	assert.Equal(t, 800*time.Millisecond, cfg.NPCThinkDelay)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LEDGER_MODE", "Local")
	t.Setenv("CORS_ORIGINS", "http://a.test;http://b.test")
	t.Setenv("NPC_THINK_DELAY", "0s")
	t.Setenv("GAME_TARGET", "61")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.LedgerMode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.NPCThinkDelay)
	assert.Equal(t, 61, cfg.GameTarget)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("LEDGER_MODE", "redis")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadTargets(t *testing.T) {
	t.Setenv("MATCH_TARGET", "0")
	_, err := Load()
	assert.Error(t, err)
}
