package gateway

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cribbage-lite/apps/server/internal/codec"
	"cribbage-lite/apps/server/internal/lobby"
	"cribbage-lite/apps/server/internal/table"
	"cribbage-lite/cribbage"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 65536
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
	maxUserIDLen   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	UserID   string
	Binary   bool
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time
	logger   *zap.Logger

	// Current table association, touched only by readPump.
	TableID string
	Table   *table.Table
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[string]*Connection // userID -> latest connection
	errSeq      atomic.Uint64
	lobby       *lobby.Lobby
	logger      *zap.Logger
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[string]*Connection),
		lobby:       lby,
		logger:      logger.With(zap.String("component", "gateway")),
	}
}

// HandleWebSocket upgrades the request. "?user=" names the player (default: the
// connection id) and "?encoding=proto" switches to binary protobuf frames.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	userID := strings.TrimSpace(r.URL.Query().Get("user"))
	if userID == "" || len(userID) > maxUserIDLen {
		userID = connID
	}

	c := &Connection{
		ID:       connID,
		UserID:   userID,
		Binary:   strings.EqualFold(r.URL.Query().Get("encoding"), "proto"),
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
		logger:   g.logger.With(zap.String("conn", connID), zap.String("user", userID)),
	}

	g.mu.Lock()
	g.connections[connID] = c
	g.userConns[userID] = c
	total := len(g.connections)
	g.mu.Unlock()

	c.logger.Info("client connected", zap.Bool("binary", c.Binary), zap.Int("total", total))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		current := c.Gateway.removeConnection(c)
		if current && c.Table != nil {
			_ = c.Table.SubmitEvent(table.Event{Type: table.EventConnLost, UserID: c.UserID})
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			break
		}
		c.handleMessage(message, messageType == websocket.BinaryMessage)
	}
}

func (c *Connection) handleMessage(data []byte, binary bool) {
	msg, err := codec.DecodeClient(data, binary)
	if err != nil {
		c.sendError(err)
		return
	}
	c.logger.Debug("message received", zap.String("type", string(msg.Type)), zap.String("table", msg.TableID))

	if msg.Type == codec.MsgJoin {
		c.handleJoin(msg)
		return
	}
	if c.Table == nil {
		c.sendError(errNotAtTable)
		return
	}

	ev := table.Event{UserID: c.UserID, Cards: msg.Cards}
	switch msg.Type {
	case codec.MsgDiscard:
		ev.Type = table.EventDiscard
	case codec.MsgPlay:
		ev.Type = table.EventPlay
	case codec.MsgGo:
		ev.Type = table.EventGo
	case codec.MsgNextHand:
		ev.Type = table.EventNextHand
	case codec.MsgNextGame:
		ev.Type = table.EventNextGame
	case codec.MsgNewMatch:
		ev.Type = table.EventNewMatch
	}
	if err := c.Table.SubmitEvent(ev); err != nil {
		c.sendError(err)
	}
}

var errNotAtTable = errors.New("join a table first")

func (c *Connection) handleJoin(msg codec.ClientMessage) {
	if c.Table != nil && c.TableID != msg.TableID {
		_ = c.Table.SubmitEvent(table.Event{Type: table.EventConnLost, UserID: c.UserID})
		c.Table, c.TableID = nil, ""
	}

	t, err := c.Gateway.lobby.GetOrCreate(msg.TableID, c.Gateway.broadcastToUser)
	if err != nil {
		c.sendError(err)
		return
	}
	c.TableID = t.ID
	c.Table = t

	seat, err := t.Join(c.UserID, msg.Name, msg.VsBot)
	if err != nil {
		c.sendError(err)
		return
	}
	c.logger.Info("joined table", zap.String("table", t.ID), zap.Stringer("seat", seat), zap.Bool("vs_bot", msg.VsBot))
}

// errorKind maps an error onto the wire code clients switch on.
func errorKind(err error) string {
	switch {
	case errors.Is(err, table.ErrTableFull):
		return "table-full"
	case errors.Is(err, codec.ErrBadRequest), errors.Is(err, errNotAtTable):
		return "bad-request"
	case errors.Is(err, table.ErrTableClosed), errors.Is(err, table.ErrNoNPC):
		return "internal"
	}
	return cribbage.FailureKind(err)
}

func (c *Connection) sendError(err error) {
	kind := errorKind(err)
	env := codec.WrapServerEnvelope(c.TableID, c.Gateway.errSeq.Add(1), codec.TypeError, codec.ErrorPayload{
		Kind:    kind,
		Message: err.Error(),
	})
	c.logger.Debug("request rejected", zap.String("kind", kind), zap.Error(err))
	c.enqueue(env)
}

// enqueue encodes env for this connection and drops it if the buffer is full.
func (c *Connection) enqueue(env codec.Envelope) {
	data, err := codec.Encode(env, c.Binary)
	if err != nil {
		c.logger.Error("encode envelope failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	select {
	case c.Send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message", zap.Uint64("seq", env.ServerSeq))
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.Binary {
		frameType = websocket.BinaryMessage
	}
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeConnection forgets c and reports whether it was still the user's latest connection.
func (g *Gateway) removeConnection(c *Connection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	current := g.userConns[c.UserID] == c
	if current {
		delete(g.userConns, c.UserID)
	}
	c.logger.Info("client disconnected", zap.Int("total", len(g.connections)))
	return current
}

// broadcastToUser sends env to the user's latest connection, if any.
func (g *Gateway) broadcastToUser(userID string, env codec.Envelope) {
	g.mu.RLock()
	c := g.userConns[userID]
	g.mu.RUnlock()

	if c != nil {
		c.enqueue(env)
	}
}

// ConnectionCount reports the number of open connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
