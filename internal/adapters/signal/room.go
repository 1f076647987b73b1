package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// Room ids are opaque strings taken at face value: no existence check, no
// room record anywhere. A payload missing its required fields follows the
// unknown-command policy (ignored, or rejected under strict_commands).

func (ctl *Controller) handleJoin(cid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.rejectOrIgnore(cid, c, "join_room requires roomId")
		return
	}
	ctl.Registry.JoinRoom(cid, domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleLeave(cid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.rejectOrIgnore(cid, c, "leave_room requires roomId")
		return
	}
	ctl.Registry.LeaveRoom(cid, domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleChat(cid domain.ConnID, user domain.UserID, c *WsConn, data []byte) {
	var p struct {
		Type    string  `json:"type"`
		RoomID  string  `json:"roomId"`
		Message *string `json:"message"`
	}
	// Message is a pointer so an absent field is distinguishable from an
	// empty string, which is a legal payload.
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.Message == nil {
		ctl.rejectOrIgnore(cid, c, "chat requires roomId and message")
		return
	}
	ctl.Broadcast.Publish(domain.RoomID(p.RoomID), *p.Message, user)
}

func (ctl *Controller) rejectOrIgnore(cid domain.ConnID, c *WsConn, reason string) {
	if ctl.Cfg.StrictCommands {
		ctl.sendError(c, reason)
		return
	}
	log.Debug().Str("module", "signal").Str("cid", string(cid)).Str("reason", reason).Msg("incomplete command ignored")
}
