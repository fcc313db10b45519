package lobby

import (
	"errors"
	"sort"
	"sync"

	"cribbage-lite/apps/server/internal/codec"
	"cribbage-lite/apps/server/internal/ledger"
	"cribbage-lite/apps/server/internal/table"
	"cribbage-lite/cribbage"
	"cribbage-lite/cribbage/npc"

	"go.uber.org/zap"
)

var ErrTableNotFound = errors.New("table not found")

// Lobby is the registry of live tables. Tables are created on first reference and live
// until Remove.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	// Default table config
	defaultConfig cribbage.Config

	ledger     ledger.Service
	npcManager *npc.Manager
	logger     *zap.Logger
	hooks      []table.GameEndHook
}

// New creates a new lobby
func New(cfg cribbage.Config, ledgerService ledger.Service, npcMgr *npc.Manager, logger *zap.Logger) *Lobby {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lobby{
		tables:        make(map[string]*table.Table),
		defaultConfig: cfg,
		ledger:        ledgerService,
		npcManager:    npcMgr,
		logger:        logger.With(zap.String("component", "lobby")),
	}
}

// OnGameEnd registers a hook attached to every table created afterwards.
func (l *Lobby) OnGameEnd(hook table.GameEndHook) {
	if hook == nil {
		return
	}
	l.mu.Lock()
	l.hooks = append(l.hooks, hook)
	l.mu.Unlock()
}

// GetOrCreate returns the table named tableID, creating it on first reference.
func (l *Lobby) GetOrCreate(tableID string, broadcastFn func(userID string, env codec.Envelope)) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.tables[tableID]; ok && !t.IsClosed() {
		return t, nil
	}
	t, err := table.New(tableID, l.defaultConfig, broadcastFn, l.ledger, l.logger, l.npcManager)
	if err != nil {
		return nil, err
	}
	for _, hook := range l.hooks {
		t.AddGameEndHook(hook)
	}
	l.tables[tableID] = t
	l.logger.Info("table registered", zap.String("table", tableID), zap.Int("tables", len(l.tables)))
	return t, nil
}

// GetTable returns a table by ID
func (l *Lobby) GetTable(tableID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[tableID]
}

// ListTables returns all table IDs, sorted.
func (l *Lobby) ListTables() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.tables))
	for id := range l.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove stops a table and forgets it.
func (l *Lobby) Remove(tableID string) error {
	l.mu.Lock()
	t, ok := l.tables[tableID]
	delete(l.tables, tableID)
	l.mu.Unlock()
	if !ok {
		return ErrTableNotFound
	}
	t.Stop()
	l.logger.Info("table removed", zap.String("table", tableID))
	return nil
}

// Close stops every table.
func (l *Lobby) Close() {
	l.mu.Lock()
	tables := l.tables
	l.tables = make(map[string]*table.Table)
	l.mu.Unlock()
	for _, t := range tables {
		t.Stop()
	}
}
