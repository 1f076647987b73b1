package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
)

// Broadcaster fans a chat message out to every connection currently in a
// room. Delivery is fire-and-forget per recipient: one failed send never
// aborts the rest and never surfaces to the publisher.
type Broadcaster struct {
	Registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{Registry: registry}
}

// Publish sends the chat envelope to all members of the room, including
// the sender when self-subscribed. A recipient whose outbound buffer is
// full gets force-closed instead of accumulating frames without bound;
// the close-event path then unregisters it.
func (b *Broadcaster) Publish(room domain.RoomID, message string, from domain.UserID) {
	data, err := json.Marshal(core.NewChatEnvelope(room, message, from))
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("marshal chat envelope")
		return
	}

	members := b.Registry.MembersOf(room)
	sent := 0
	for _, m := range members {
		if err := m.Session.TrySend(core.Frame(data)); err != nil {
			metrics.BroadcastDrops.Inc()
			log.Warn().Str("module", "app.broadcaster").Str("cid", string(m.CID)).Str("room", string(room)).Msg("slow consumer, closing connection")
			m.Session.Close()
			continue
		}
		sent++
		metrics.FramesOut.Inc()
	}
	log.Debug().Str("module", "app.broadcaster").Str("room", string(room)).Str("from", string(from)).Int("sent_to", sent).Int("dropped", len(members)-sent).Msg("broadcast result")
}
