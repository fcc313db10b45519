package pubsub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// GameEnd is published once per finished game.
type GameEnd struct {
	TableID     string    `json:"tableId"`
	GameID      string    `json:"gameId"`
	Winner      string    `json:"winner"`
	WinnerName  string    `json:"winnerName"`
	Names       [2]string `json:"names"`
	Scores      [2]int    `json:"scores"`
	Wins        [2]int    `json:"wins"`
	MatchOver   bool      `json:"matchOver"`
	MatchWinner string    `json:"matchWinner,omitempty"`
	EndedAt     time.Time `json:"endedAt"`
}

type Publisher interface {
	PublishGameEnd(ev GameEnd) error
	Close()
}

// GameEndSubject is the subject a table's game results go to.
func GameEndSubject(tableID string) string {
	return "cribbage.table." + tableID + ".game_end"
}

// New connects to url. An empty url gives a publisher that drops everything.
func New(url string, logger *zap.Logger) (Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return noopPublisher{}, nil
	}
	opts := []nats.Option{
		nats.Name("cribbage-lite"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	logger.Info("nats connected", zap.String("url", nc.ConnectedUrl()))
	return &natsPublisher{nc: nc, logger: logger}, nil
}

type natsPublisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func (p *natsPublisher) PublishGameEnd(ev GameEnd) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	subject := GameEndSubject(ev.TableID)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("game end published", zap.String("subject", subject), zap.String("game", ev.GameID))
	return nil
}

func (p *natsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishGameEnd(GameEnd) error { return nil }
func (noopPublisher) Close()                       {}
