// Package gateway implements the Connection Gateway of spec.md §4.7: it
// upgrades HTTP connections to WebSockets, decodes the inbound message
// taxonomy, and dispatches to the Room Registry / Matchmaking Queue / Room
// the same way the teacher's WSManager dispatched to its RoomService, but
// over one socket-owning goroutine pair per connection instead of a single
// manager-wide register/unregister channel set.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"flip7server/backend/auth"
	"flip7server/backend/logging"
	"flip7server/backend/matchmaking"
	"flip7server/backend/metrics"
	"flip7server/backend/room"
)

// Inbound message type tags, matching spec.md §4.7.
const (
	InPing              = "ping"
	InSessionRestore     = "session:restore"
	InRoomCreate         = "room:create"
	InRoomJoin           = "room:join"
	InRoomLeave          = "room:leave"
	InMatchmakingJoin    = "matchmaking:join"
	InMatchmakingCancel  = "matchmaking:cancel"
	InGameStart          = "game:start"
	InGameHit            = "game:hit"
	InGameStay           = "game:stay"
	InGamePlayAction     = "game:playActionCard"
	InGameNextRound      = "game:nextRound"
)

const (
	OutMatchmakingQueued  = "matchmaking:queued"
	OutMatchmakingMatched = "matchmaking:matched"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// inboundMessage is the wire shape of every message a client sends.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Gateway owns the Registry, the matchmaking Queue, and the optional auth
// verifier, and serves one HTTP handler that upgrades to a connection.
type Gateway struct {
	registry *room.Registry
	queue    *matchmaking.Queue
	verifier auth.Verifier
	logger   *zap.Logger

	connLimiter *limiter.Limiter
	ipLimiter   *limiter.Limiter
}

// New builds a Gateway. connLimiter/ipLimiter may be nil to disable that axis.
func New(registry *room.Registry, queue *matchmaking.Queue, verifier auth.Verifier, connLimiter, ipLimiter *limiter.Limiter) *Gateway {
	return &Gateway{
		registry:    registry,
		queue:       queue,
		verifier:    verifier,
		logger:      logging.L(),
		connLimiter: connLimiter,
		ipLimiter:   ipLimiter,
	}
}

// ServeHTTP upgrades the request and runs the connection's read/write pumps
// until the socket closes. Intended to be wired as a gin handler via
// gin.WrapH or called directly from a gin.HandlerFunc wrapper.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.ipLimiter != nil {
		ctx, err := g.ipLimiter.Get(r.Context(), clientIP(r))
		if err == nil && ctx.Reached {
			metrics.RateLimitExceeded.WithLabelValues("ip").Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var userID string
	if g.verifier != nil {
		if token, terr := auth.ExtractBearer(r.Header.Get("Authorization")); terr == nil {
			if uid, verr := g.verifier.Verify(token); verr == nil {
				userID = uid
			}
		}
	}

	c := &connection{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan room.Envelope, sendBuffer),
		gw:     g,
		logger: g.logger,
	}
	metrics.ConnectionsActive.Inc()
	go c.writePump()
	c.readPump()
}

// connection is one socket's pump pair plus the session/room it may be
// bound to. It implements room.Socket.
type connection struct {
	id     string // stable connection identity, independent of game session
	userID string

	conn   *websocket.Conn
	send   chan room.Envelope
	gw     *Gateway
	logger *zap.Logger

	mu        sync.Mutex
	sessionID string
	r         *room.Room
}

// SessionID implements room.Socket.
func (c *connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Send implements room.Socket: never blocks, drops and disconnects the
// slow subscriber on overflow per spec.md §5.
func (c *connection) Send(env room.Envelope) {
	select {
	case c.send <- env:
	default:
		c.logger.Warn("send buffer full, dropping connection", zap.String("session_id", c.SessionID()))
		go c.conn.Close()
	}
}

func (c *connection) bind(sessionID string, r *room.Room) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.r = r
	c.mu.Unlock()
}

func (c *connection) currentRoom() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r
}

func (c *connection) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
		metrics.ConnectionsActive.Dec()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if c.gw.connLimiter != nil {
			key := c.userID
			if key == "" {
				key = c.id
			}
			lc, lerr := c.gw.connLimiter.Get(context.Background(), key)
			if lerr == nil && lc.Reached {
				metrics.RateLimitExceeded.WithLabelValues("connection").Inc()
				c.replyErr(&room.Error{Code: room.ErrRateLimited, Message: "too many messages"})
				continue
			}
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.badMessage("malformed JSON")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) detach() {
	if r := c.currentRoom(); r != nil {
		r.Disconnect(c.SessionID())
	}
	if c.gw.queue != nil {
		c.gw.queue.Cancel(c.SessionID())
	}
}

func (c *connection) replyErr(rerr *room.Error) {
	c.Send(room.Envelope{Type: room.OutError, Data: rerr})
}

func (c *connection) badMessage(msg string) {
	c.replyErr(&room.Error{Code: room.ErrBadMessage, Message: msg})
}

// clientIP extracts the best-effort client address for IP-scoped rate
// limiting, preferring a proxy-set header over the raw socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}
