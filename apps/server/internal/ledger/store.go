package ledger

import (
	"context"
	"database/sql"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"cribbage-lite/apps/server/internal/codec"

	"go.uber.org/zap"
)

var schemaStatements = []string{
	`
CREATE TABLE IF NOT EXISTS game_event_stream (
    game_id TEXT NOT NULL,
    seq BIGINT NOT NULL,
    table_id TEXT NOT NULL,
    viewer TEXT NOT NULL DEFAULT '',
    event_type TEXT NOT NULL,
    envelope_b64 TEXT NOT NULL DEFAULT '',
    server_ts_ms BIGINT,
    created_at_ms BIGINT NOT NULL,
    PRIMARY KEY (game_id, seq)
)`,
	`CREATE INDEX IF NOT EXISTS idx_game_event_stream_created_at ON game_event_stream(created_at_ms)`,
	`
CREATE TABLE IF NOT EXISTS game_results (
    game_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_count INTEGER NOT NULL DEFAULT 0,
    p1_id TEXT NOT NULL DEFAULT '',
    p1_name TEXT NOT NULL DEFAULT '',
    p2_id TEXT NOT NULL DEFAULT '',
    p2_name TEXT NOT NULL DEFAULT '',
    p1_score INTEGER NOT NULL DEFAULT 0,
    p2_score INTEGER NOT NULL DEFAULT 0,
    winner TEXT NOT NULL DEFAULT '',
    match_over INTEGER NOT NULL DEFAULT 0,
    ended_at_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_game_results_ended_at ON game_results(ended_at_ms)`,
}

// sqlService is shared by the sqlite and postgres backends. Queries are written with
// '?' placeholders and rebound for postgres.
type sqlService struct {
	db          *sql.DB
	driver      string
	recentLimit int
	logger      *zap.Logger
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqlService) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) AppendEvent(gameID, viewer string, env codec.Envelope) {
	if strings.TrimSpace(gameID) == "" {
		return
	}
	encoded, err := codec.EncodeProto(env)
	if err != nil {
		s.logger.Warn("marshal ledger event failed", zap.String("game", gameID), zap.Error(err))
		return
	}

	var serverTs any
	if env.ServerTsMs > 0 {
		serverTs = env.ServerTsMs
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO game_event_stream (
    game_id, seq, table_id, viewer, event_type, envelope_b64, server_ts_ms, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id, seq) DO NOTHING
`), gameID, int64(env.ServerSeq), env.TableID, viewer, env.Type,
		base64.StdEncoding.EncodeToString(encoded), serverTs, time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Warn("append ledger event failed",
			zap.String("game", gameID), zap.Uint64("seq", env.ServerSeq), zap.Error(err))
	}
}

func (s *sqlService) RecordGameResult(res GameResult) {
	if strings.TrimSpace(res.GameID) == "" {
		return
	}
	if res.EndedAt.IsZero() {
		res.EndedAt = time.Now()
	}
	matchOver := 0
	if res.MatchOver {
		matchOver = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO game_results (
    game_id, table_id, hand_count, p1_id, p1_name, p2_id, p2_name,
    p1_score, p2_score, winner, match_over, ended_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE SET
    hand_count = excluded.hand_count,
    p1_score = excluded.p1_score,
    p2_score = excluded.p2_score,
    winner = excluded.winner,
    match_over = excluded.match_over,
    ended_at_ms = excluded.ended_at_ms
`), res.GameID, res.TableID, res.HandCount,
		res.Players[0], res.Names[0], res.Players[1], res.Names[1],
		res.Scores[0], res.Scores[1], res.Winner, matchOver, res.EndedAt.UTC().UnixMilli())
	if err != nil {
		s.logger.Warn("record game result failed", zap.String("game", res.GameID), zap.Error(err))
	}
}

// ListRecent returns finished games newest first. A non-empty player matches either
// seat by id or by name.
func (s *sqlService) ListRecent(ctx context.Context, player string, limit int) ([]GameResult, error) {
	if limit <= 0 || limit > s.recentLimit {
		limit = min(20, s.recentLimit)
	}
	player = strings.TrimSpace(player)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT game_id, table_id, hand_count, p1_id, p1_name, p2_id, p2_name,
       p1_score, p2_score, winner, match_over, ended_at_ms
FROM game_results
WHERE ? = '' OR p1_id = ? OR p2_id = ? OR p1_name = ? OR p2_name = ?
ORDER BY ended_at_ms DESC, game_id DESC
LIMIT ?
`), player, player, player, player, player, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GameResult, 0, limit)
	for rows.Next() {
		var item GameResult
		var matchOver int
		var endedAtMs int64
		if err := rows.Scan(
			&item.GameID, &item.TableID, &item.HandCount,
			&item.Players[0], &item.Names[0], &item.Players[1], &item.Names[1],
			&item.Scores[0], &item.Scores[1], &item.Winner, &matchOver, &endedAtMs,
		); err != nil {
			return nil, err
		}
		item.MatchOver = matchOver != 0
		item.EndedAt = time.UnixMilli(endedAtMs).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetGameEvents returns the stored envelopes of one game in seq order, optionally only
// those sent to viewer.
func (s *sqlService) GetGameEvents(ctx context.Context, gameID, viewer string) ([]EventItem, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, ErrNotFound
	}
	viewer = strings.TrimSpace(viewer)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT seq, viewer, event_type, envelope_b64, server_ts_ms
FROM game_event_stream
WHERE game_id = ?
  AND (? = '' OR viewer = ?)
ORDER BY seq ASC
`), gameID, viewer, viewer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventItem, 0, 64)
	for rows.Next() {
		var e EventItem
		var seq int64
		var serverTs sql.NullInt64
		if err := rows.Scan(&seq, &e.Viewer, &e.EventType, &e.EnvelopeB64, &serverTs); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		if serverTs.Valid {
			v := serverTs.Int64
			e.ServerTsMs = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}
