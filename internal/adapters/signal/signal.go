package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/auth"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Controller owns the WebSocket endpoint: handshake, authentication, the
// per-connection pumps and frame dispatch.
type Controller struct {
	Registry  *app.Registry
	Broadcast *app.Broadcaster
	Verifier  *auth.Verifier
	Cfg       *config.Config
}

func NewController(cfg *config.Config, reg *app.Registry, b *app.Broadcaster, v *auth.Verifier) *Controller {
	return &Controller{
		Registry:  reg,
		Broadcast: b,
		Verifier:  v,
		Cfg:       cfg,
	}
}

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	WriteControl(mt int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// WsConn is a transport endpoint. It implements core.SignalConnection;
// the registry entry is its only long-lived holder.
type WsConn struct {
	conn WSConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewWsConn(conn WSConn, sendBuffer int) *WsConn {
	return &WsConn{
		conn: conn,
		send: make(chan core.Frame, sendBuffer),
	}
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// closeWith sends a close frame with the given status before tearing the
// transport down. Best effort; the peer may already be gone.
func (c *WsConn) closeWith(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection lifecycle:
// authenticate, register, pump frames, unregister on every exit path.
// An unauthenticated connection never touches the registry.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := NewWsConn(ws, ctl.Cfg.SendBuffer)

	token := c.Query("token")
	if token == "" {
		metrics.AuthFailures.Inc()
		log.Warn().Str("module", "signal").Msg("handshake without token")
		conn.closeWith(websocket.ClosePolicyViolation, "Missing query parameters")
		return
	}
	user, err := ctl.Verifier.Verify(token)
	if err != nil {
		metrics.AuthFailures.Inc()
		log.Warn().Err(err).Str("module", "signal").Msg("handshake token rejected")
		conn.closeWith(websocket.ClosePolicyViolation, "Invalid or expired token")
		return
	}

	cid := domain.NewConnID()
	ws.SetReadLimit(ctl.Cfg.ReadLimit)
	ctl.Registry.Register(cid, user, conn)
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", string(user)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cid, conn)
	go ctl.readPump(ctx, cancel, cid, user, conn)
}
