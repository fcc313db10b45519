package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cribbage-lite/apps/server/internal/codec"

	"go.uber.org/zap"
)

const defaultRecentLimit = 200

var ErrNotFound = errors.New("not found")

// Service records what happened at live tables. It never restores a table.
type Service interface {
	Close() error
	AppendEvent(gameID, viewer string, env codec.Envelope)
	RecordGameResult(res GameResult)
	ListRecent(ctx context.Context, player string, limit int) ([]GameResult, error)
	GetGameEvents(ctx context.Context, gameID, viewer string) ([]EventItem, error)
}

// GameResult is one finished game. Players and Names are indexed by seat.
type GameResult struct {
	GameID    string    `json:"game_id"`
	TableID   string    `json:"table_id"`
	HandCount int       `json:"hand_count"`
	Players   [2]string `json:"players"`
	Names     [2]string `json:"names"`
	Scores    [2]int    `json:"scores"`
	Winner    string    `json:"winner"`
	MatchOver bool      `json:"match_over"`
	EndedAt   time.Time `json:"ended_at"`
}

type EventItem struct {
	Seq         uint64 `json:"seq"`
	Viewer      string `json:"viewer"`
	EventType   string `json:"event_type"`
	EnvelopeB64 string `json:"envelope_b64"`
	ServerTsMs  *int64 `json:"server_ts_ms,omitempty"`
}

// Options carries what NewService needs beyond the mode.
type Options struct {
	DSN         string
	SQLitePath  string
	RecentLimit int
}

type noopService struct{}

func (n *noopService) Close() error { return nil }

func (n *noopService) AppendEvent(_, _ string, _ codec.Envelope) {}

func (n *noopService) RecordGameResult(_ GameResult) {}

func (n *noopService) ListRecent(_ context.Context, _ string, _ int) ([]GameResult, error) {
	return []GameResult{}, nil
}

func (n *noopService) GetGameEvents(_ context.Context, _, _ string) ([]EventItem, error) {
	return nil, ErrNotFound
}

// NewNoop returns a ledger that drops everything.
func NewNoop() Service { return &noopService{} }

// NewService opens the ledger for mode and reports the backend it picked.
func NewService(mode string, opts Options, logger *zap.Logger) (Service, string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaultRecentLimit
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "memory":
		return &noopService{}, "memory-noop", nil
	case "local", "sqlite":
		svc, err := NewSQLiteService(opts.SQLitePath, opts.RecentLimit, logger)
		if err != nil {
			return nil, "", err
		}
		return svc, "sqlite", nil
	case "postgres":
		svc, err := NewPostgresService(opts.DSN, opts.RecentLimit, logger)
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	default:
		return nil, "", fmt.Errorf("unknown ledger mode %q", mode)
	}
}
