package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
)

func (ctl *Controller) writePump(ctx context.Context, cid domain.ConnID, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump is the single error boundary for a connection: a panic in any
// handler closes this connection with 1011 and never touches the others.
// Every exit path unregisters exactly once.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ConnID, user domain.UserID, c *WsConn) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("cid", string(cid)).Any("panic", r).Msg("connection handler fault")
			c.closeWith(websocket.CloseInternalServerErr, "Internal error")
		}
		cancel()
		ctl.Registry.Unregister(cid)
		c.Close()
		metrics.ConnectionsActive.Dec()
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			metrics.FramesIn.Inc()
			ctl.handleFrame(cid, user, c, data)
		}
	}
}

// handleFrame dispatches one inbound frame. Malformed input is never
// fatal: the sender gets one error frame and stays connected.
func (ctl *Controller) handleFrame(cid domain.ConnID, user domain.UserID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.InvalidFrames.Inc()
		log.Debug().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		ctl.sendError(c, "Invalid JSON")
		return
	}

	switch env.Type {
	case "join_room":
		ctl.handleJoin(cid, c, data)
	case "leave_room":
		ctl.handleLeave(cid, c, data)
	case "chat":
		ctl.handleChat(cid, user, c, data)
	default:
		if ctl.Cfg.StrictCommands {
			ctl.sendError(c, "Unknown command")
			return
		}
		log.Debug().Str("module", "signal").Str("cid", string(cid)).Str("type", env.Type).Msg("unknown command ignored")
	}
}

func (ctl *Controller) sendError(c *WsConn, message string) {
	ctl.sendJSON(c, core.NewErrorEnvelope(message))
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
